package imagerender

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"os"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"
)

const (
	DefaultDPI     = 100
	DefaultQuality = 85
)

// Preview is a rendered page image.
type Preview struct {
	Page   int
	Width  int
	Height int
	JPEG   []byte
}

// RenderPage renders a 1-based page of a PDF as a grayscale JPEG.
// Label sheets are black on white, so colour would only add bytes.
func RenderPage(pdfPath string, pageNum, dpi, quality int) (*Preview, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	if pageNum < 1 || pageNum > doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range 1..%d", pageNum, doc.NumPage())
	}

	// go-fitz pages are 0-based
	img, err := doc.ImageDPI(pageNum-1, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", pageNum, err)
	}

	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, gray, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}

	log.Debug().
		Int("page", pageNum).
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Int("jpeg_size", buf.Len()).
		Int("dpi", dpi).
		Msg("rendered preview")

	return &Preview{
		Page:   pageNum,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		JPEG:   buf.Bytes(),
	}, nil
}

// WritePreview renders a page and saves it to outPath.
func WritePreview(pdfPath string, pageNum int, outPath string, dpi, quality int) (*Preview, error) {
	p, err := RenderPage(pdfPath, pageNum, dpi, quality)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(outPath, p.JPEG, 0o644); err != nil {
		return nil, fmt.Errorf("write preview: %w", err)
	}
	return p, nil
}
