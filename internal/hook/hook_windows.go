//go:build windows

package hook

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"bsr/internal/step"
)

// Windows implementation using a WH_MOUSE_LL hook. The hook procedure runs
// on a dedicated OS thread with its own message loop; Stop posts WM_QUIT to
// that thread, which unhooks exactly once on exit.

const (
	whMouseLL     = 14
	wmQuit        = 0x0012
	wmLButtonDown = 0x0201
	wmRButtonDown = 0x0204
)

var (
	user32   = syscall.NewLazyDLL("user32.dll")
	kernel32 = syscall.NewLazyDLL("kernel32.dll")

	procSetWindowsHookEx    = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetMessage          = user32.NewProc("GetMessageW")
	procPostThreadMessage   = user32.NewProc("PostThreadMessageW")
	procGetCurrentThreadId  = kernel32.NewProc("GetCurrentThreadId")
)

type point struct {
	X, Y int32
}

type msg struct {
	Hwnd    syscall.Handle
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      point
}

type msllHookStruct struct {
	Pt          point
	MouseData   uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

// syscall.NewCallback registrations are never released, so the hook
// procedure is created once and dispatches to the active hook instance.
var (
	callbackOnce sync.Once
	callbackPtr  uintptr

	activeMu sync.Mutex
	active   *Hook
)

// Hook is the Windows mouse hook.
type Hook struct {
	mu       sync.Mutex
	running  bool
	events   chan ClickEvent
	threadID uint32
	done     chan struct{}
}

// New creates a stopped hook.
func New() *Hook {
	return &Hook{}
}

// Start arms the hook.
func (h *Hook) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return fmt.Errorf("mouse hook already armed")
	}

	activeMu.Lock()
	if active != nil && active != h {
		activeMu.Unlock()
		return fmt.Errorf("another mouse hook is armed")
	}
	active = h
	activeMu.Unlock()

	callbackOnce.Do(func() {
		callbackPtr = syscall.NewCallback(hookProc)
	})

	h.events = make(chan ClickEvent, 64)
	h.done = make(chan struct{})
	ready := make(chan error, 1)
	go h.run(ready)
	if err := <-ready; err != nil {
		activeMu.Lock()
		active = nil
		activeMu.Unlock()
		close(h.events)
		return err
	}
	h.running = true
	return nil
}

// Stop disarms the hook. Effective immediately for future events; an event
// already in flight downstream completes normally.
func (h *Hook) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return nil
	}
	procPostThreadMessage.Call(uintptr(h.threadID), wmQuit, 0, 0)
	<-h.done
	h.running = false

	activeMu.Lock()
	active = nil
	activeMu.Unlock()
	close(h.events)
	return nil
}

// Events returns the click channel for the current armed period.
func (h *Hook) Events() <-chan ClickEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.events
}

// run installs the hook and pumps messages until WM_QUIT. Low-level hooks
// are delivered through the message loop of the installing thread, so the
// thread is locked for the whole armed period.
func (h *Hook) run(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	tid, _, _ := procGetCurrentThreadId.Call()
	h.threadID = uint32(tid)

	handle, _, err := procSetWindowsHookEx.Call(whMouseLL, callbackPtr, 0, 0)
	if handle == 0 {
		ready <- fmt.Errorf("SetWindowsHookEx failed: %v", err)
		return
	}
	ready <- nil
	log.Printf("hook: mouse hook armed")

	var m msg
	for {
		ret, _, _ := procGetMessage.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(ret) <= 0 {
			break
		}
	}

	procUnhookWindowsHookEx.Call(handle)
	log.Printf("hook: mouse hook released")
	close(h.done)
}

// hookProc forwards qualifying clicks to the active hook's channel. It must
// never block or fail: the chain is always forwarded, and a full channel
// drops the event rather than stalling the global input pipeline.
func hookProc(nCode int32, wParam, lParam uintptr) uintptr {
	if nCode >= 0 && (wParam == wmLButtonDown || wParam == wmRButtonDown) {
		info := (*msllHookStruct)(unsafe.Pointer(lParam))
		ev := ClickEvent{
			Button: ButtonLeft,
			Pos:    step.Point{X: int(info.Pt.X), Y: int(info.Pt.Y)},
			Time:   time.Now(),
		}
		if wParam == wmRButtonDown {
			ev.Button = ButtonRight
		}
		activeMu.Lock()
		hk := active
		activeMu.Unlock()
		if hk != nil {
			select {
			case hk.events <- ev:
			default:
				log.Printf("hook: event channel full, dropping click")
			}
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return ret
}
