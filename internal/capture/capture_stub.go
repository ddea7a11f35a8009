//go:build !windows

package capture

import (
	"fmt"
	"image"
)

// Stub implementation for non-Windows platforms.

func grabScreen(x, y, width, height int) (*image.RGBA, error) {
	return nil, fmt.Errorf("screen capture not supported on this platform")
}

func cursorPos() (int, int, bool) {
	return 0, 0, false
}
