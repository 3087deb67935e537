package sequence

import (
	"errors"
	"fmt"
)

// CodesPerPage is the number of labels on one Avery L7120 sheet (5 x 7).
const CodesPerPage = 35

var (
	ErrNegativeStart = errors.New("start_at must be >= 0")
	ErrPageCount     = errors.New("num_pages must be >= 1")
	ErrNegativeID    = errors.New("asset IDs must be >= 0")
)

// AssetID identifies a physical asset.
type AssetID int

// Caption returns the ID zero-padded to width, as printed under the QR code.
func (id AssetID) Caption(width int) string {
	return fmt.Sprintf("%0*d", width, int(id))
}

// Payload returns the string encoded into the QR code: prefix followed by the caption.
func (id AssetID) Payload(prefix string, width int) string {
	return prefix + id.Caption(width)
}

// Page is one sheet of labels. Index i is grid slot i (row-major).
type Page [CodesPerPage]AssetID

// Generate partitions asset IDs into full pages.
//
// Explicit IDs come first, in the order given. Contiguous padding IDs
// start_at, start_at+1, ... follow until the total is a multiple of
// CodesPerPage and at least numPages pages. numPages is a floor: explicit
// IDs are never dropped. IDs colliding between the two groups are kept.
func Generate(startAt, numPages int, extraIDs []AssetID) ([]Page, error) {
	if startAt < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrNegativeStart, startAt)
	}
	if numPages < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrPageCount, numPages)
	}
	for i, id := range extraIDs {
		if id < 0 {
			return nil, fmt.Errorf("%w: extra_ids[%d] = %d", ErrNegativeID, i, id)
		}
	}

	total := PagesFor(len(extraIDs), numPages) * CodesPerPage

	ids := make([]AssetID, 0, total)
	ids = append(ids, extraIDs...)
	for k := 0; len(ids) < total; k++ {
		ids = append(ids, AssetID(startAt+k))
	}

	pages := make([]Page, total/CodesPerPage)
	for i := range pages {
		copy(pages[i][:], ids[i*CodesPerPage:(i+1)*CodesPerPage])
	}
	return pages, nil
}

// PagesFor returns how many pages hold n explicit IDs given a minimum page count.
func PagesFor(n, minPages int) int {
	need := (n + CodesPerPage - 1) / CodesPerPage
	if need < minPages {
		return minPages
	}
	return need
}

// Flatten returns all IDs in page-major order.
func Flatten(pages []Page) []AssetID {
	out := make([]AssetID, 0, len(pages)*CodesPerPage)
	for _, p := range pages {
		out = append(out, p[:]...)
	}
	return out
}
