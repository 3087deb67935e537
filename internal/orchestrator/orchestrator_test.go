package orchestrator

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/qrlabels/internal/pdfcheck"
	"github.com/local/qrlabels/internal/storage"
)

type fakeUploader struct {
	path string
	dst  storage.Location
	meta map[string]string
	err  error
}

func (f *fakeUploader) UploadFile(_ context.Context, localPath string, dst storage.Location, meta map[string]string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.path, f.dst, f.meta = localPath, dst.Resolve(localPath), meta
	return f.dst.String(), nil
}

func quiet(t *testing.T) {
	t.Helper()
	prev := log.Logger
	log.Logger = zerolog.New(io.Discard)
	t.Cleanup(func() { log.Logger = prev })
}

func baseRequest(dir string) Request {
	return Request{
		StartAt:   1,
		NumPages:  1,
		Width:     5,
		PixelSize: 120,
		OutFile:   filepath.Join(dir, "labels.pdf"),
		Verify:    true,
	}
}

func TestRun(t *testing.T) {
	quiet(t)
	dir := t.TempDir()
	req := baseRequest(dir)
	req.ExtraIDs = []int{5, 6}
	req.Prefix = "A-"
	req.MetricsFile = filepath.Join(dir, "qrlabels.prom")

	sum, err := New(Dependencies{}).Run(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, req.OutFile, sum.OutFile)
	assert.Equal(t, 1, sum.Pages)
	assert.Equal(t, 35, sum.Labels)
	assert.Equal(t, 2, sum.ExplicitIDs)
	assert.Positive(t, sum.Bytes)

	n, err := pdfcheck.PageCount(req.OutFile)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	prom, err := os.ReadFile(req.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `qrlabels_asset_ids_total{source="explicit"} 2`)
	assert.Contains(t, string(prom), `qrlabels_asset_ids_total{source="padding"} 33`)
}

func TestRun_RoundsUpForExplicitIDs(t *testing.T) {
	quiet(t)
	req := baseRequest(t.TempDir())
	req.NumPages = 1
	for i := 0; i < 40; i++ {
		req.ExtraIDs = append(req.ExtraIDs, 9)
	}

	sum, err := New(Dependencies{}).Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Pages)
	assert.Equal(t, 70, sum.Labels)
}

func TestRun_MissingOutputDir(t *testing.T) {
	quiet(t)
	dir := t.TempDir()
	req := baseRequest(dir)
	req.OutFile = filepath.Join(dir, "missing", "labels.pdf")
	req.MetricsFile = filepath.Join(dir, "qrlabels.prom")

	_, err := New(Dependencies{}).Run(context.Background(), req)
	require.ErrorIs(t, err, ErrOutputDir)

	prom, err := os.ReadFile(req.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `qrlabels_runs_total{result="failure"} 1`)
	assert.NotContains(t, string(prom), "qrlabels_labels_rendered_total 35")
}

func TestRun_InvalidInputsWriteNothing(t *testing.T) {
	quiet(t)
	testCases := []struct {
		name string
		mod  func(*Request)
	}{
		{"zero pages", func(r *Request) { r.NumPages = 0 }},
		{"negative start", func(r *Request) { r.StartAt = -1 }},
		{"negative explicit id", func(r *Request) { r.ExtraIDs = []int{-2} }},
		{"negative width", func(r *Request) { r.Width = -1 }},
		{"bad upload url", func(r *Request) { r.UploadURL = "bucket/key.pdf" }},
		{"missing font", func(r *Request) { r.FontPath = "/nonexistent/ubuntu.ttf" }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			req := baseRequest(dir)
			tc.mod(&req)

			_, err := New(Dependencies{}).Run(context.Background(), req)
			require.Error(t, err)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestRun_VerifyFailureWritesNothing(t *testing.T) {
	quiet(t)
	dir := t.TempDir()
	req := baseRequest(dir)
	req.UploadURL = "s3://assets/labels.pdf"
	up := &fakeUploader{}

	var seen string
	verify := func(path string, pages int) (*pdfcheck.Report, error) {
		seen = path
		assert.FileExists(t, path)
		return nil, pdfcheck.ErrPageMismatch
	}

	_, err := New(Dependencies{Uploader: up, Verifier: verify}).Run(context.Background(), req)
	require.ErrorIs(t, err, pdfcheck.ErrPageMismatch)
	assert.NotEqual(t, req.OutFile, seen)
	assert.Empty(t, up.path, "rejected output must not be uploaded")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_VerifySkipped(t *testing.T) {
	quiet(t)
	req := baseRequest(t.TempDir())
	req.Verify = false
	calls := 0
	verify := func(string, int) (*pdfcheck.Report, error) {
		calls++
		return nil, errors.New("unexpected")
	}

	_, err := New(Dependencies{Verifier: verify}).Run(context.Background(), req)
	require.NoError(t, err)
	assert.Zero(t, calls)
	assert.FileExists(t, req.OutFile)
}

func TestRun_Upload(t *testing.T) {
	quiet(t)
	req := baseRequest(t.TempDir())
	req.UploadURL = "s3://assets/labels/"
	up := &fakeUploader{}

	sum, err := New(Dependencies{Uploader: up}).Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, req.OutFile, up.path)
	assert.Equal(t, "labels/labels.pdf", up.dst.Key)
	assert.Equal(t, "s3://assets/labels/labels.pdf", sum.UploadedTo)
	assert.Equal(t, sum.RunID, up.meta["run-id"])
}

func TestRun_UploadFailure(t *testing.T) {
	quiet(t)
	req := baseRequest(t.TempDir())
	req.UploadURL = "s3://assets/labels.pdf"
	boom := errors.New("access denied")

	_, err := New(Dependencies{Uploader: &fakeUploader{err: boom}}).Run(context.Background(), req)
	require.ErrorIs(t, err, boom)
}

func TestCheckOutput(t *testing.T) {
	dir := t.TempDir()

	abs, err := checkOutput(filepath.Join(dir, "x.pdf"))
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(abs))

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = checkOutput(filepath.Join(file, "x.pdf"))
	require.ErrorIs(t, err, ErrOutputDir)

	_, err = checkOutput("")
	require.Error(t, err)
}
