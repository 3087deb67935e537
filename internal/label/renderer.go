package label

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/local/qrlabels/internal/sequence"
)

// Caption defaults at DefaultPixelSize. Other pixel sizes scale them linearly.
const (
	DefaultPixelSize  = 350
	DefaultFontSize   = 30
	DefaultFontMargin = 5
)

// quietModules is the border skip2/go-qrcode draws around every symbol.
const quietModules = 4

var (
	// ErrWidth is returned for a negative zero-pad width.
	ErrWidth = errors.New("width must be >= 0")
	// ErrCaptionTooLarge is returned when the caption would overlap the symbol.
	ErrCaptionTooLarge = errors.New("caption does not fit in the quiet zone")
)

// Options controls how a label is drawn.
type Options struct {
	// Prefix is prepended to the QR payload only, never to the caption.
	Prefix string
	// Width is the zero-pad width of the printed and encoded ID.
	Width int
	// PixelSize is the edge length of the square label image.
	PixelSize int
	// FontPath points at a TrueType caption font. Go Regular is used when empty.
	FontPath   string
	FontSize   float64
	FontMargin float64
}

// Renderer draws QR code labels. Not safe for concurrent use.
type Renderer struct {
	opts Options
	face font.Face
}

// New loads the caption font and returns a Renderer.
func New(opts Options) (*Renderer, error) {
	if opts.Width < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrWidth, opts.Width)
	}
	if opts.PixelSize <= 0 {
		opts.PixelSize = DefaultPixelSize
	}
	scale := float64(opts.PixelSize) / DefaultPixelSize
	if opts.FontSize <= 0 {
		opts.FontSize = DefaultFontSize * scale
	}
	if opts.FontMargin <= 0 {
		opts.FontMargin = DefaultFontMargin * scale
	}

	face, err := loadFace(opts.FontPath, opts.FontSize)
	if err != nil {
		return nil, err
	}
	return &Renderer{opts: opts, face: face}, nil
}

func loadFace(path string, size float64) (font.Face, error) {
	if path != "" {
		face, err := gg.LoadFontFace(path, size)
		if err != nil {
			return nil, fmt.Errorf("load font %s: %w", path, err)
		}
		return face, nil
	}
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse embedded font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedded font face: %w", err)
	}
	return face, nil
}

// Options returns the effective options after defaults were applied.
func (r *Renderer) Options() Options { return r.opts }

// Render returns the label image for id: a level H QR code of the payload
// with the caption centred near the bottom edge, inside the quiet zone.
func (r *Renderer) Render(id sequence.AssetID) (image.Image, error) {
	caption := id.Caption(r.opts.Width)
	payload := id.Payload(r.opts.Prefix, r.opts.Width)

	q, err := qrcode.New(payload, qrcode.Highest)
	if err != nil {
		return nil, fmt.Errorf("encode QR for %q: %w", payload, err)
	}

	dc := gg.NewContextForImage(q.Image(r.opts.PixelSize))
	w, h := dc.Width(), dc.Height()
	if err := r.fits(caption, w, len(q.Bitmap())); err != nil {
		return nil, err
	}

	dc.SetFontFace(r.face)
	dc.SetColor(color.Black)
	dc.DrawStringAnchored(caption, float64(w)/2, float64(h)-r.opts.FontMargin, 0.5, 0)

	log.Debug().
		Str("caption", caption).
		Int("qr_version", q.VersionNumber).
		Int("size", w).
		Msg("rendered label")

	return dc.Image(), nil
}

// fits reports whether caption stays inside the bottom quiet zone of a
// size px image holding modules modules per side.
func (r *Renderer) fits(caption string, size, modules int) error {
	quiet := float64(quietModules*size) / float64(modules)
	bounds, advance := font.BoundString(r.face, caption)
	height := r.opts.FontMargin + float64(-bounds.Min.Y.Floor())
	if height > quiet || advance.Ceil() > size {
		return fmt.Errorf("%w: %q needs %.0fpx, quiet zone is %.0fpx at %dpx",
			ErrCaptionTooLarge, caption, height, quiet, size)
	}
	return nil
}

// WritePNG renders id and saves it as <caption>.png in dir, returning the path.
func (r *Renderer) WritePNG(dir string, id sequence.AssetID) (string, error) {
	img, err := r.Render(id)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, id.Caption(r.opts.Width)+".png")
	if err := gg.SavePNG(path, img); err != nil {
		return "", fmt.Errorf("save label %s: %w", path, err)
	}
	return path, nil
}
