package recorder

import (
	"errors"
	"testing"
	"time"

	"bsr/internal/hook"
	"bsr/internal/step"
	"bsr/internal/uiauto"
)

type fakeLocator struct {
	info *uiauto.ElementInfo
}

func (f fakeLocator) Locate(pt step.Point) *uiauto.ElementInfo {
	return f.info
}

type captureSink struct {
	steps []*step.Step
	full  bool
}

func (c *captureSink) TryEnqueueStep(s *step.Step) bool {
	if c.full {
		return false
	}
	c.steps = append(c.steps, s)
	return true
}

func notepadButton() *uiauto.ElementInfo {
	return &uiauto.ElementInfo{
		ElementName:     "Save",
		ElementType:     "button",
		WindowTitle:     "Untitled - Notepad",
		ApplicationName: "notepad",
		WindowRect:      step.Rect{Left: 100, Top: 100, Right: 900, Bottom: 700},
		ElementRect:     step.Rect{Left: 120, Top: 150, Right: 200, Bottom: 180},
	}
}

func leftClick(x, y int) hook.ClickEvent {
	return hook.ClickEvent{
		Button: hook.ButtonLeft,
		Pos:    step.Point{X: x, Y: y},
		Time:   time.Now(),
	}
}

// TestProcessAssemblesStep tests that a qualifying click becomes a full step.
func TestProcessAssemblesStep(t *testing.T) {
	sink := &captureSink{}
	shot := []byte{0x89, 'P', 'N', 'G'}
	r := New(fakeLocator{notepadButton()}, func(step.Rect) ([]byte, error) { return shot, nil }, sink)
	r.SetSelfApplication("bsr")

	r.process(leftClick(150, 160))

	if len(sink.steps) != 1 {
		t.Fatalf("Expected 1 step, got %d", len(sink.steps))
	}
	s := sink.steps[0]
	if s.EventType != step.EventLeftClick {
		t.Errorf("Expected event type %q, got %q", step.EventLeftClick, s.EventType)
	}
	if s.Text != "In notepad, Left Click on button Save" {
		t.Errorf("Unexpected default text: %q", s.Text)
	}
	if s.WindowSize.Width != 800 || s.WindowSize.Height != 600 {
		t.Errorf("Expected window size 800x600, got %dx%d", s.WindowSize.Width, s.WindowSize.Height)
	}
	if s.ElementSize.Width != 80 || s.ElementSize.Height != 30 {
		t.Errorf("Expected element size 80x30, got %dx%d", s.ElementSize.Width, s.ElementSize.Height)
	}
	if s.MousePosition.X != 150 || s.MousePosition.Y != 160 {
		t.Errorf("Expected mouse position (150, 160), got %v", s.MousePosition)
	}
	if string(s.Screenshot) != string(shot) {
		t.Error("Expected screenshot payload to be attached")
	}
}

// TestProcessRightClick tests the right button event type mapping.
func TestProcessRightClick(t *testing.T) {
	sink := &captureSink{}
	r := New(fakeLocator{notepadButton()}, func(step.Rect) ([]byte, error) { return nil, nil }, sink)
	r.SetSelfApplication("bsr")

	r.process(hook.ClickEvent{Button: hook.ButtonRight, Pos: step.Point{X: 1, Y: 1}})

	if len(sink.steps) != 1 {
		t.Fatalf("Expected 1 step, got %d", len(sink.steps))
	}
	if sink.steps[0].EventType != step.EventRightClick {
		t.Errorf("Expected event type %q, got %q", step.EventRightClick, sink.steps[0].EventType)
	}
}

// TestProcessSuppressesPauseControl tests that clicking the pause control
// does not record a step.
func TestProcessSuppressesPauseControl(t *testing.T) {
	info := notepadButton()
	info.ElementName = PauseControlLabel

	sink := &captureSink{}
	r := New(fakeLocator{info}, func(step.Rect) ([]byte, error) { return nil, nil }, sink)
	r.SetSelfApplication("bsr")

	r.process(leftClick(10, 10))

	if len(sink.steps) != 0 {
		t.Errorf("Expected pause control click to be suppressed, got %d steps", len(sink.steps))
	}
}

// TestProcessSuppressesOwnApplication tests that clicks inside the recorder
// itself do not record a step.
func TestProcessSuppressesOwnApplication(t *testing.T) {
	info := notepadButton()
	info.ApplicationName = "bsr"

	sink := &captureSink{}
	r := New(fakeLocator{info}, func(step.Rect) ([]byte, error) { return nil, nil }, sink)
	r.SetSelfApplication("bsr")

	r.process(leftClick(10, 10))

	if len(sink.steps) != 0 {
		t.Errorf("Expected self-capture to be suppressed, got %d steps", len(sink.steps))
	}
}

// TestProcessSkipsUnresolvedElement tests that a click with no element is dropped.
func TestProcessSkipsUnresolvedElement(t *testing.T) {
	sink := &captureSink{}
	r := New(fakeLocator{nil}, func(step.Rect) ([]byte, error) { return nil, nil }, sink)

	r.process(leftClick(10, 10))

	if len(sink.steps) != 0 {
		t.Errorf("Expected unresolved click to be skipped, got %d steps", len(sink.steps))
	}
}

// TestProcessRecordsWithoutScreenshot tests that a capture failure still
// records the step.
func TestProcessRecordsWithoutScreenshot(t *testing.T) {
	sink := &captureSink{}
	r := New(fakeLocator{notepadButton()}, func(step.Rect) ([]byte, error) {
		return nil, errors.New("capture unavailable")
	}, sink)
	r.SetSelfApplication("bsr")

	r.process(leftClick(10, 10))

	if len(sink.steps) != 1 {
		t.Fatalf("Expected step despite capture failure, got %d steps", len(sink.steps))
	}
	if sink.steps[0].Screenshot != nil {
		t.Error("Expected no screenshot on the recorded step")
	}
}

// TestProcessDropsWhenQueueFull tests that a saturated session queue drops
// the step instead of blocking.
func TestProcessDropsWhenQueueFull(t *testing.T) {
	sink := &captureSink{full: true}
	r := New(fakeLocator{notepadButton()}, func(step.Rect) ([]byte, error) { return nil, nil }, sink)
	r.SetSelfApplication("bsr")

	done := make(chan struct{})
	go func() {
		r.process(leftClick(10, 10))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("process blocked on a full queue")
	}
}
