package hotkey

import (
	"sync/atomic"
	"testing"
	"time"
)

func waitForCount(t *testing.T, c *atomic.Int32, want int32) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if c.Load() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Expected %d triggers, got %d", want, c.Load())
}

// TestHotkeyMatch tests that the callback fires when all chord keys are down.
func TestHotkeyMatch(t *testing.T) {
	m := NewManager()
	var hits atomic.Int32
	if _, err := m.Register("Ctrl+Alt+R", func() { hits.Add(1) }); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	m.UpdateState("CTRL", true)
	m.UpdateState("ALT", true)
	m.UpdateState("R", true)

	waitForCount(t, &hits, 1)
}

// TestHotkeyPartialChord tests that missing modifiers do not trigger.
func TestHotkeyPartialChord(t *testing.T) {
	m := NewManager()
	var hits atomic.Int32
	m.Register("Ctrl+Alt+R", func() { hits.Add(1) })

	m.UpdateState("CTRL", true)
	m.UpdateState("R", true)

	time.Sleep(50 * time.Millisecond)
	if got := hits.Load(); got != 0 {
		t.Errorf("Expected no trigger without ALT, got %d", got)
	}
}

// TestHotkeyReleaseResets tests that a released key breaks the chord.
func TestHotkeyReleaseResets(t *testing.T) {
	m := NewManager()
	var hits atomic.Int32
	m.Register("Ctrl+R", func() { hits.Add(1) })

	m.UpdateState("CTRL", true)
	m.UpdateState("R", true)
	waitForCount(t, &hits, 1)

	m.UpdateState("R", false)
	m.UpdateState("CTRL", false)
	m.UpdateState("R", true)
	time.Sleep(50 * time.Millisecond)
	if got := hits.Load(); got != 1 {
		t.Errorf("Expected no second trigger after release, got %d", got)
	}
}

// TestHotkeyCaseInsensitive tests that registration normalizes case.
func TestHotkeyCaseInsensitive(t *testing.T) {
	m := NewManager()
	var hits atomic.Int32
	m.Register("ctrl+alt+r", func() { hits.Add(1) })

	m.UpdateState("Ctrl", true)
	m.UpdateState("alt", true)
	m.UpdateState("R", true)

	waitForCount(t, &hits, 1)
}

// TestHotkeyClear tests that cleared hotkeys no longer fire.
func TestHotkeyClear(t *testing.T) {
	m := NewManager()
	var hits atomic.Int32
	m.Register("Ctrl+R", func() { hits.Add(1) })
	m.Clear()

	m.UpdateState("CTRL", true)
	m.UpdateState("R", true)

	time.Sleep(50 * time.Millisecond)
	if got := hits.Load(); got != 0 {
		t.Errorf("Expected no trigger after clear, got %d", got)
	}
}

// TestRegisterEmptyString tests that an empty hotkey is ignored.
func TestRegisterEmptyString(t *testing.T) {
	m := NewManager()
	if _, err := m.Register("", func() {}); err != nil {
		t.Errorf("Expected empty registration to be a no-op, got error: %v", err)
	}
	if len(m.hotkeys) != 0 {
		t.Errorf("Expected no registered hotkeys, got %d", len(m.hotkeys))
	}
}
