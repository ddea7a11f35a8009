// Package hook installs the process-wide low-level mouse hook and forwards
// qualifying button-down events over a channel. The channel hand-off is the
// only work done on the hook thread; everything downstream runs on the
// session loop.
package hook

import (
	"time"

	"bsr/internal/step"
)

// Button identifies the mouse button of a click event.
type Button int

const (
	ButtonLeft Button = iota + 1
	ButtonRight
)

// EventType maps the button to the recorded event type.
func (b Button) EventType() step.EventType {
	if b == ButtonRight {
		return step.EventRightClick
	}
	return step.EventLeftClick
}

// ClickEvent is one qualifying button-down event with the cursor position
// at the time of the click.
type ClickEvent struct {
	Button Button
	Pos    step.Point
	Time   time.Time
}

// MouseHook captures global mouse clicks while armed.
type MouseHook interface {
	// Start arms the hook. Starting an armed hook is an error.
	Start() error
	// Stop disarms the hook and releases the OS handle. Stopping an
	// already stopped hook is a no-op. Events() is closed on return.
	Stop() error
	// Events returns the click event channel for the current armed
	// period.
	Events() <-chan ClickEvent
}
