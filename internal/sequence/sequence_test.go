package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contiguous(from, n int) []AssetID {
	out := make([]AssetID, n)
	for i := range out {
		out[i] = AssetID(from + i)
	}
	return out
}

func TestGenerate_ContiguousOnly(t *testing.T) {
	testCases := []struct {
		name     string
		startAt  int
		numPages int
	}{
		{"default", 1, 1},
		{"zero start", 0, 1},
		{"three pages", 1000, 3},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pages, err := Generate(tc.startAt, tc.numPages, nil)
			require.NoError(t, err)
			require.Len(t, pages, tc.numPages)
			assert.Equal(t, contiguous(tc.startAt, CodesPerPage*tc.numPages), Flatten(pages))
		})
	}
}

func TestGenerate_FirstPageOfDefaultRun(t *testing.T) {
	pages, err := Generate(1, 1, nil)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, AssetID(1), pages[0][0])
	assert.Equal(t, AssetID(35), pages[0][34])
}

func TestGenerate_ExplicitIDsFirst(t *testing.T) {
	pages, err := Generate(100, 1, []AssetID{5, 6})
	require.NoError(t, err)
	require.Len(t, pages, 1)

	want := append([]AssetID{5, 6}, contiguous(100, 33)...)
	assert.Equal(t, want, Flatten(pages))
	assert.Equal(t, AssetID(132), pages[0][34])
}

func TestGenerate_ExplicitIDsExceedMinimum(t *testing.T) {
	extra := make([]AssetID, 40)
	for i := range extra {
		extra[i] = 9
	}

	pages, err := Generate(1, 2, extra)
	require.NoError(t, err)
	require.Len(t, pages, 2)

	ids := Flatten(pages)
	assert.Equal(t, extra, ids[:40])
	assert.Equal(t, contiguous(1, 30), ids[40:])
}

func TestGenerate_NumPagesIsAFloor(t *testing.T) {
	extra := contiguous(500, 80)

	pages, err := Generate(1, 1, extra)
	require.NoError(t, err)
	require.Len(t, pages, 3)

	ids := Flatten(pages)
	assert.Equal(t, extra, ids[:80])
	assert.Equal(t, contiguous(1, 25), ids[80:])
}

func TestGenerate_ExactMultipleNeedsNoPadding(t *testing.T) {
	extra := contiguous(7, CodesPerPage)

	pages, err := Generate(1, 1, extra)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, extra, Flatten(pages))
}

func TestGenerate_CollidingIDsAreKept(t *testing.T) {
	pages, err := Generate(1, 1, []AssetID{1, 2})
	require.NoError(t, err)

	ids := Flatten(pages)
	assert.Equal(t, []AssetID{1, 2, 1, 2, 3}, ids[:5])
	assert.Equal(t, AssetID(33), ids[34])
}

func TestGenerate_Properties(t *testing.T) {
	for _, startAt := range []int{0, 1, 99} {
		for _, numPages := range []int{1, 2, 4} {
			for _, n := range []int{0, 1, 34, 35, 36, 71, 200} {
				extra := contiguous(10_000, n)
				pages, err := Generate(startAt, numPages, extra)
				require.NoError(t, err)

				ids := Flatten(pages)
				assert.Zero(t, len(ids)%CodesPerPage)
				assert.GreaterOrEqual(t, len(ids), CodesPerPage*numPages)
				assert.Equal(t, extra, ids[:n])
				assert.Equal(t, contiguous(startAt, len(ids)-n), ids[n:])
			}
		}
	}
}

func TestGenerate_DoesNotMutateInput(t *testing.T) {
	extra := make([]AssetID, 2, 64)
	extra[0], extra[1] = 42, 43

	pages, err := Generate(1, 1, extra)
	require.NoError(t, err)

	assert.Equal(t, []AssetID{42, 43}, extra)
	assert.Zero(t, extra[:3][2], "padding leaked into caller's backing array")

	pages[0][0] = 7
	assert.Equal(t, AssetID(42), extra[0])
}

func TestGenerate_InvalidInput(t *testing.T) {
	testCases := []struct {
		name     string
		startAt  int
		numPages int
		extra    []AssetID
		want     error
	}{
		{"negative start", -1, 1, nil, ErrNegativeStart},
		{"zero pages", 1, 0, nil, ErrPageCount},
		{"negative pages", 1, -3, nil, ErrPageCount},
		{"negative explicit id", 1, 1, []AssetID{3, -4}, ErrNegativeID},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pages, err := Generate(tc.startAt, tc.numPages, tc.extra)
			require.ErrorIs(t, err, tc.want)
			assert.Nil(t, pages)
		})
	}
}

func TestPagesFor(t *testing.T) {
	assert.Equal(t, 1, PagesFor(0, 1))
	assert.Equal(t, 2, PagesFor(0, 2))
	assert.Equal(t, 1, PagesFor(35, 1))
	assert.Equal(t, 2, PagesFor(36, 1))
	assert.Equal(t, 5, PagesFor(36, 5))
}

func TestAssetIDFormatting(t *testing.T) {
	id := AssetID(7)
	assert.Equal(t, "00007", id.Caption(5))
	assert.Equal(t, "A-00007", id.Payload("A-", 5))
	assert.Equal(t, "00007", id.Payload("", 5))
	assert.Equal(t, "7", id.Caption(0))
	assert.Equal(t, "123456", AssetID(123456).Caption(5))
}
