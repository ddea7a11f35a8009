// Package recorder drives the capture pipeline: qualifying mouse clicks are
// resolved to a UI element and window, a screenshot of the window is taken,
// and the assembled step is handed to the session.
package recorder

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"bsr/internal/capture"
	"bsr/internal/hook"
	"bsr/internal/step"
	"bsr/internal/uiauto"
)

// PauseControlLabel is the title of the recorder's own pause control.
// Clicking it stops the recording, and the click itself must not become a
// step, so the hook pipeline suppresses events resolving to this label.
const PauseControlLabel = "Pause Recording"

// CaptureFunc takes an annotated screenshot of a screen rectangle.
type CaptureFunc func(step.Rect) ([]byte, error)

// Sink receives assembled steps. The enqueue is non-blocking; the session
// applies the append on its own loop.
type Sink interface {
	TryEnqueueStep(s *step.Step) bool
}

// Recorder owns the mouse hook for the armed period and turns click events
// into steps.
type Recorder struct {
	locator uiauto.Locator
	capture CaptureFunc
	sink    Sink
	selfApp string

	mu       sync.Mutex
	hk       hook.MouseHook
	armed    bool
	onChange func(recording bool)
}

// New creates a recorder. The self application name defaults to the running
// executable's base name and is used for self-capture suppression together
// with PauseControlLabel.
func New(locator uiauto.Locator, capt CaptureFunc, sink Sink) *Recorder {
	if capt == nil {
		capt = capture.Region
	}
	return &Recorder{
		locator: locator,
		capture: capt,
		sink:    sink,
		selfApp: selfApplicationName(),
	}
}

// SetSelfApplication overrides the suppressed application name.
func (r *Recorder) SetSelfApplication(name string) {
	r.selfApp = name
}

// OnStateChange registers a callback invoked after every arm/disarm.
func (r *Recorder) OnStateChange(fn func(recording bool)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// Recording reports whether the hook is armed.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.armed
}

// Start arms the mouse hook and begins consuming click events. A second
// start while armed is rejected.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.armed {
		return nil
	}
	hk := hook.New()
	if err := hk.Start(); err != nil {
		return err
	}
	r.hk = hk
	r.armed = true
	go r.consume(hk.Events())
	log.Printf("recorder: recording started")
	if r.onChange != nil {
		go r.onChange(true)
	}
	return nil
}

// Stop disarms the hook. Future events are cut off immediately; an event
// already being processed completes normally.
func (r *Recorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.armed {
		return
	}
	if err := r.hk.Stop(); err != nil {
		log.Printf("recorder: stop: %v", err)
	}
	r.hk = nil
	r.armed = false
	log.Printf("recorder: recording stopped")
	if r.onChange != nil {
		go r.onChange(false)
	}
}

// consume drains the hook channel until it closes on Stop.
func (r *Recorder) consume(events <-chan hook.ClickEvent) {
	for ev := range events {
		r.process(ev)
	}
}

// process assembles one step from a click event. Every failure degrades to
// absent fields or a skipped event; nothing here may take down the
// pipeline.
func (r *Recorder) process(ev hook.ClickEvent) {
	info := r.locator.Locate(ev.Pos)
	if info == nil {
		log.Printf("recorder: no element at %v, skipping", ev.Pos)
		return
	}
	if r.suppressed(info) {
		log.Printf("recorder: self-capture suppressed at %v", ev.Pos)
		return
	}

	s := step.New()
	s.WindowTitle = info.WindowTitle
	s.ApplicationName = info.ApplicationName
	s.WindowRect = info.WindowRect
	s.WindowSize = step.Size{Width: info.WindowRect.Width(), Height: info.WindowRect.Height()}
	s.ElementRect = info.ElementRect
	s.ElementSize = step.Size{Width: info.ElementRect.Width(), Height: info.ElementRect.Height()}
	s.ElementName = info.ElementName
	s.ElementType = info.ElementType
	s.MousePosition = ev.Pos
	s.EventType = ev.Button.EventType()
	s.Text = step.DefaultText(info.ApplicationName, s.EventType, info.ElementType, info.ElementName)

	shot, err := r.capture(info.WindowRect)
	if err != nil {
		log.Printf("recorder: screenshot failed: %v", err)
	} else {
		s.Screenshot = shot
	}

	if !r.sink.TryEnqueueStep(s) {
		log.Printf("recorder: session queue full, dropping step")
	}
}

// suppressed applies the skip-self-capture rule: interacting with the
// recorder's own pause control, or any part of the recorder itself, must
// not generate a step.
func (r *Recorder) suppressed(info *uiauto.ElementInfo) bool {
	if info.ElementName == PauseControlLabel {
		return true
	}
	return r.selfApp != "" && info.ApplicationName == r.selfApp
}

func selfApplicationName() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	base := filepath.Base(exe)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
