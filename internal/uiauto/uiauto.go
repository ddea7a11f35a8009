// Package uiauto resolves the UI element and top-level window under a
// screen point. Platform accessibility failures are swallowed: a lookup
// that cannot be completed yields nil, never an error, and the capture
// pipeline records the missing fields as absent.
package uiauto

import "bsr/internal/step"

// ElementInfo describes the element under a point and its owning window.
// Any of the string fields may be empty when the platform lookup failed.
type ElementInfo struct {
	// ElementName and ElementType describe the immediate control.
	ElementName string
	ElementType string

	// WindowTitle and ApplicationName describe the top-level window that
	// owns the control and the process behind it.
	WindowTitle     string
	ApplicationName string

	// WindowRect is the ancestor top-level window's bounding rectangle;
	// ElementRect is the immediate element's. They are distinct queries
	// and must not be conflated.
	WindowRect  step.Rect
	ElementRect step.Rect
}

// Locator resolves screen points to element information.
type Locator interface {
	// Locate returns the element at pt, or nil when nothing could be
	// resolved.
	Locate(pt step.Point) *ElementInfo
}

// System returns the platform locator.
func System() Locator {
	return systemLocator{}
}
