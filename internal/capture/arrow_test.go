package capture

import (
	"image"
	"testing"
)

// TestArrowTailDirection tests the half-screen rule: the arrow approaches
// the cursor from the emptier half of the region.
func TestArrowTailDirection(t *testing.T) {
	height := 1000

	// Cursor in the upper half: tail extends below.
	if got := arrowTailY(100, height); got != 300 {
		t.Errorf("Expected tail at 300 for cursor in upper half, got %d", got)
	}

	// Cursor in the lower half: tail extends above.
	if got := arrowTailY(800, height); got != 600 {
		t.Errorf("Expected tail at 600 for cursor in lower half, got %d", got)
	}

	// Exactly at the midline counts as lower half.
	if got := arrowTailY(500, height); got != 300 {
		t.Errorf("Expected tail at 300 for cursor on midline, got %d", got)
	}
}

// TestDrawArrowShaft tests that the shaft is painted between cursor and tail.
func TestDrawArrowShaft(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 600))
	cx, cy := 200, 100

	drawArrowAtCursor(img, cx, cy)

	// Cursor in upper half, so pixels run downward from the cursor.
	for _, y := range []int{cy, cy + 50, cy + arrowLength} {
		if img.RGBAAt(cx, y) != arrowColor {
			t.Errorf("Expected arrow pixel at (%d, %d)", cx, y)
		}
	}
	// Nothing above the cursor.
	if img.RGBAAt(cx, cy-20) == arrowColor {
		t.Errorf("Expected no arrow pixel above the cursor at (%d, %d)", cx, cy-20)
	}
}

// TestDrawArrowHeadWidensTowardTail tests the triangle head shape.
func TestDrawArrowHeadWidensTowardTail(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 600))
	cx, cy := 200, 100

	drawArrowAtCursor(img, cx, cy)

	// Near the tip the head is narrow; farther back it is wider than the
	// shaft.
	wideY := cy + arrowHeadLen - 1
	wideX := cx + arrowHeadHalf - 2
	if img.RGBAAt(wideX, wideY) != arrowColor {
		t.Errorf("Expected widened head pixel at (%d, %d)", wideX, wideY)
	}
	if img.RGBAAt(wideX, cy) == arrowColor {
		t.Errorf("Expected no head pixel beside the tip at (%d, %d)", wideX, cy)
	}
}

// TestDrawArrowCursorOutsideImage tests that an out-of-bounds cursor draws nothing.
func TestDrawArrowCursorOutsideImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))

	drawArrowAtCursor(img, -5, 50)
	drawArrowAtCursor(img, 50, 200)

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y) == arrowColor {
				t.Fatalf("Expected untouched image, found arrow pixel at (%d, %d)", x, y)
			}
		}
	}
}

// TestDrawArrowClipsAtEdges tests that a cursor near the edge clips instead
// of panicking.
func TestDrawArrowClipsAtEdges(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 50, 120))

	drawArrowAtCursor(img, 1, 10)

	if img.RGBAAt(1, 10) != arrowColor {
		t.Error("Expected arrow pixel at the cursor position")
	}
}
