// Package capture produces annotated screenshots of screen regions. The
// captured raster gets a directional arrow overlay pointing at the cursor,
// then is encoded to PNG. The raster grab is platform specific; the overlay
// and encoding are portable.
package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"bsr/internal/step"
)

// Region captures the given screen rectangle, overlays the cursor arrow and
// returns the PNG bytes. A failure yields an error value; callers record
// "no screenshot" rather than aborting the capture pipeline.
func Region(r step.Rect) ([]byte, error) {
	if r.Width() <= 0 || r.Height() <= 0 {
		return nil, fmt.Errorf("capture: empty region %v", r)
	}
	img, err := grabScreen(r.Left, r.Top, r.Width(), r.Height())
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	if x, y, ok := cursorPos(); ok {
		drawArrowAtCursor(img, x-r.Left, y-r.Top)
	}
	return encodePNG(img)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("capture: encode: %w", err)
	}
	return buf.Bytes(), nil
}
