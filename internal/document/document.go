package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog/log"

	"github.com/local/qrlabels/internal/layout"
	"github.com/local/qrlabels/internal/sequence"
)

// ErrNoPages is returned when asked to assemble an empty document.
var ErrNoPages = errors.New("no pages to assemble")

// LabelWriter renders one label to a PNG file in dir.
type LabelWriter interface {
	WritePNG(dir string, id sequence.AssetID) (string, error)
}

// Meta is written into the PDF information dictionary.
type Meta struct {
	Title   string
	Subject string
	Creator string
	Created time.Time
}

// Check inspects the finished document at path before it replaces the
// output. A non-nil error discards the document.
type Check func(path string, pages int) error

// Result describes a written document.
type Result struct {
	Path   string
	Pages  int
	Labels int
	Bytes  int64
}

// Assemble renders every page onto an A4 portrait PDF and writes it to outPath.
// Label images live in a temp dir that is removed on return. The output is
// written to a temp file next to outPath, passed to check when non-nil and
// only then renamed into place, so a failed run never leaves a partial or
// rejected document behind.
func Assemble(pages []sequence.Page, labels LabelWriter, outPath string, meta Meta, check Check) (*Result, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}

	tmpDir, err := os.MkdirTemp("", tempPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("create label dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	applyMeta(pdf, meta)

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	for pageNum, page := range pages {
		pdf.AddPage()
		for idx, id := range page {
			path, err := labels.WritePNG(tmpDir, id)
			if err != nil {
				return nil, fmt.Errorf("page %d slot %d: %w", pageNum+1, idx, err)
			}
			x, y, err := layout.Position(idx)
			if err != nil {
				return nil, err
			}
			pdf.ImageOptions(path, x, y, layout.StickerWidth, layout.StickerHeight, false, opts, 0, "")
		}
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("page %d: %w", pageNum+1, err)
		}
		log.Debug().Int("page", pageNum+1).Int("first_id", int(page[0])).Msg("page laid out")
	}

	size, err := writeAtomic(pdf, outPath, len(pages), check)
	if err != nil {
		return nil, err
	}
	return &Result{
		Path:   outPath,
		Pages:  len(pages),
		Labels: len(pages) * sequence.CodesPerPage,
		Bytes:  size,
	}, nil
}

func applyMeta(pdf *fpdf.Fpdf, meta Meta) {
	if meta.Title != "" {
		pdf.SetTitle(meta.Title, true)
	}
	if meta.Subject != "" {
		pdf.SetSubject(meta.Subject, true)
	}
	if meta.Creator != "" {
		pdf.SetCreator(meta.Creator, true)
	}
	if !meta.Created.IsZero() {
		pdf.SetCreationDate(meta.Created)
	}
}

func writeAtomic(pdf *fpdf.Fpdf, outPath string, pages int, check Check) (int64, error) {
	f, err := os.CreateTemp(filepath.Dir(outPath), "."+tempPrefix+"*.pdf")
	if err != nil {
		return 0, fmt.Errorf("create output: %w", err)
	}
	tmpName := f.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if err := pdf.Output(f); err != nil {
		f.Close()
		return 0, fmt.Errorf("write pdf: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return 0, fmt.Errorf("sync pdf: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close pdf: %w", err)
	}
	if check != nil {
		if err := check(tmpName, pages); err != nil {
			return 0, err
		}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return 0, err
	}
	if err := os.Rename(tmpName, outPath); err != nil {
		return 0, fmt.Errorf("move pdf into place: %w", err)
	}
	committed = true
	return info.Size(), nil
}
