//go:build !windows

package hook

import "fmt"

// Stub implementation for non-Windows platforms.

// Hook is a stub mouse hook.
type Hook struct {
	events chan ClickEvent
}

// New creates a stopped stub hook.
func New() *Hook {
	return &Hook{}
}

// Start reports that hooking is unavailable on this platform.
func (h *Hook) Start() error {
	return fmt.Errorf("mouse hooking not supported on this platform")
}

// Stop is a no-op.
func (h *Hook) Stop() error {
	return nil
}

// Events returns a nil channel.
func (h *Hook) Events() <-chan ClickEvent {
	return nil
}
