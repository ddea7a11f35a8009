package autosave

import (
	"sync/atomic"
	"testing"
	"time"
)

// TestDebounceCoalescesBursts tests that a burst of schedules produces one save.
func TestDebounceCoalescesBursts(t *testing.T) {
	var saves atomic.Int32
	c := New(func() { saves.Add(1) })
	c.SetDelay(30 * time.Millisecond)

	for i := 0; i < 10; i++ {
		c.Schedule()
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)
	if got := saves.Load(); got != 1 {
		t.Errorf("Expected exactly 1 save after burst, got %d", got)
	}
}

// TestScheduleRestartsWindow tests that each schedule pushes the save out.
func TestScheduleRestartsWindow(t *testing.T) {
	var saves atomic.Int32
	c := New(func() { saves.Add(1) })
	c.SetDelay(60 * time.Millisecond)

	c.Schedule()
	time.Sleep(40 * time.Millisecond)
	c.Schedule()
	time.Sleep(40 * time.Millisecond)
	if got := saves.Load(); got != 0 {
		t.Errorf("Expected no save while window keeps restarting, got %d", got)
	}

	time.Sleep(60 * time.Millisecond)
	if got := saves.Load(); got != 1 {
		t.Errorf("Expected 1 save after window elapsed, got %d", got)
	}
}

// TestFlushRunsPendingSave tests that flush runs the save without waiting.
func TestFlushRunsPendingSave(t *testing.T) {
	var saves atomic.Int32
	c := New(func() { saves.Add(1) })
	c.SetDelay(time.Hour)

	c.Schedule()
	c.Flush()
	if got := saves.Load(); got != 1 {
		t.Errorf("Expected flush to run the pending save, got %d saves", got)
	}

	// Flush with nothing pending is a no-op.
	c.Flush()
	if got := saves.Load(); got != 1 {
		t.Errorf("Expected idle flush to be a no-op, got %d saves", got)
	}
}

// TestStopCancelsPendingSave tests that stop discards the pending save.
func TestStopCancelsPendingSave(t *testing.T) {
	var saves atomic.Int32
	c := New(func() { saves.Add(1) })
	c.SetDelay(20 * time.Millisecond)

	c.Schedule()
	c.Stop()
	time.Sleep(60 * time.Millisecond)
	if got := saves.Load(); got != 0 {
		t.Errorf("Expected no save after stop, got %d", got)
	}
}
