//go:build !windows

package uiauto

import "bsr/internal/step"

// Stub implementation for non-Windows platforms.

type systemLocator struct{}

func (systemLocator) Locate(pt step.Point) *ElementInfo {
	return nil
}
