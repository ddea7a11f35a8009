package capture

import (
	"image"
	"image/color"
)

// Arrow geometry. The length and the half-screen direction rule are part of
// the recorded-image contract: the arrow always approaches the cursor from
// the emptier half of the window so it does not cover what it points at.
const (
	arrowLength    = 200
	arrowThickness = 5
	arrowHeadHalf  = 12
	arrowHeadLen   = 18
)

var arrowColor = color.RGBA{R: 255, G: 0, B: 255, A: 255}

// arrowTailY returns the y coordinate the arrow is drawn from. Cursor in
// the upper half of the region: tail sits below the cursor; lower half:
// tail sits above it.
func arrowTailY(cursorY, height int) int {
	if cursorY < height/2 {
		return cursorY + arrowLength
	}
	return cursorY - arrowLength
}

// drawArrowAtCursor overlays a vertical arrow whose head is at (cx, cy),
// given in image coordinates. Nothing is drawn when the cursor lies outside
// the image.
func drawArrowAtCursor(img *image.RGBA, cx, cy int) {
	b := img.Bounds()
	if cx < b.Min.X || cx >= b.Max.X || cy < b.Min.Y || cy >= b.Max.Y {
		return
	}
	tailY := arrowTailY(cy, b.Dy())

	y0, y1 := cy, tailY
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		for x := cx - arrowThickness/2; x <= cx+arrowThickness/2; x++ {
			setClipped(img, x, y)
		}
	}

	// Head: a triangle with its tip at the cursor, widening back toward
	// the tail.
	back := 1
	if tailY < cy {
		back = -1
	}
	for i := 0; i < arrowHeadLen; i++ {
		half := (i * arrowHeadHalf) / arrowHeadLen
		y := cy + back*i
		for x := cx - half; x <= cx+half; x++ {
			setClipped(img, x, y)
		}
	}
}

func setClipped(img *image.RGBA, x, y int) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetRGBA(x, y, arrowColor)
	}
}
