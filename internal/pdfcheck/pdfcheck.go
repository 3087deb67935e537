package pdfcheck

import (
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog/log"
)

const pdfMIME = "application/pdf"

var (
	ErrNotPDF       = errors.New("file is not a PDF")
	ErrPageMismatch = errors.New("unexpected page count")
)

// Report holds what was learned about a written document.
type Report struct {
	Path     string
	MIMEType string
	Pages    int
}

// Detect returns the MIME type of path using magic bytes, not the filename.
func Detect(path string) (string, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to detect file type: %w", err)
	}
	log.Debug().Str("mime", mtype.String()).Str("file", path).Msg("detected file type")
	return mtype.String(), nil
}

// PageCount returns the number of pages in the PDF at path.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("pdf page count failed: %w", err)
	}
	return n, nil
}

// Verify checks that path is a well-formed PDF with wantPages pages.
// wantPages <= 0 skips the page count comparison.
func Verify(path string, wantPages int) (*Report, error) {
	mime, err := Detect(path)
	if err != nil {
		return nil, err
	}
	if mime != pdfMIME {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotPDF, path, mime)
	}

	if err := api.ValidateFile(path, nil); err != nil {
		return nil, fmt.Errorf("pdf validation failed: %w", err)
	}

	n, err := PageCount(path)
	if err != nil {
		return nil, err
	}
	if wantPages > 0 && n != wantPages {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrPageMismatch, wantPages, n)
	}

	return &Report{Path: path, MIMEType: mime, Pages: n}, nil
}
