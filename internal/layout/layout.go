package layout

import "fmt"

// Avery L7120 geometry in millimetres.
const (
	Columns = 5
	Rows    = 7

	MarginLeft    = 7.5
	MarginTop     = 11.0
	MarginInside  = 5.0
	StickerWidth  = 35.0
	StickerHeight = 35.0
)

// Slots is the number of stickers on one sheet.
const Slots = Columns * Rows

// Position returns the top-left corner, in mm, of sticker idx.
// Slots are numbered left to right, then top to bottom, from zero.
func Position(idx int) (x, y float64, err error) {
	if idx < 0 || idx >= Slots {
		return 0, 0, fmt.Errorf("slot %d out of range [0, %d)", idx, Slots)
	}
	col := idx % Columns
	row := idx / Columns
	x = MarginLeft + float64(col)*(StickerWidth+MarginInside)
	y = MarginTop + float64(row)*(StickerHeight+MarginInside)
	return x, y, nil
}
