//go:build windows

package uiauto

import (
	"log"
	"path/filepath"
	"strings"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"bsr/internal/step"
)

// Windows implementation using win32 window queries plus MSAA
// (AccessibleObjectFromPoint) for the element name and role.

const gaRoot = 2

var (
	user32   = syscall.NewLazyDLL("user32.dll")
	oleacc   = syscall.NewLazyDLL("oleacc.dll")
	oleaut32 = syscall.NewLazyDLL("oleaut32.dll")

	procWindowFromPoint           = user32.NewProc("WindowFromPoint")
	procGetAncestor               = user32.NewProc("GetAncestor")
	procGetWindowTextW            = user32.NewProc("GetWindowTextW")
	procGetWindowRect             = user32.NewProc("GetWindowRect")
	procGetClassNameW             = user32.NewProc("GetClassNameW")
	procGetWindowThreadProcessId  = user32.NewProc("GetWindowThreadProcessId")
	procAccessibleObjectFromPoint = oleacc.NewProc("AccessibleObjectFromPoint")
	procGetRoleTextW              = oleacc.NewProc("GetRoleTextW")
	procSysFreeString             = oleaut32.NewProc("SysFreeString")
)

type winRect struct {
	Left, Top, Right, Bottom int32
}

type variant struct {
	VT       uint16
	_        [3]uint16
	Val      int64
	Reserved int64
}

// iAccessible mirrors the IAccessible vtable far enough for the calls made
// here. The interface derives from IDispatch, hence the seven leading
// slots.
type iAccessible struct {
	vtbl *iAccessibleVtbl
}

type iAccessibleVtbl struct {
	QueryInterface   uintptr
	AddRef           uintptr
	Release          uintptr
	GetTypeInfoCount uintptr
	GetTypeInfo      uintptr
	GetIDsOfNames    uintptr
	Invoke           uintptr
	GetAccParent     uintptr
	GetAccChildCount uintptr
	GetAccChild      uintptr
	GetAccName       uintptr
	GetAccValue      uintptr
	GetAccDesc       uintptr
	GetAccRole       uintptr
	GetAccState      uintptr
	GetAccHelp       uintptr
	GetAccHelpTopic  uintptr
	GetAccKeyboard   uintptr
	GetAccFocus      uintptr
	GetAccSelection  uintptr
	GetAccDefault    uintptr
	AccSelect        uintptr
	AccLocation      uintptr
	AccNavigate      uintptr
	AccHitTest       uintptr
	AccDoDefault     uintptr
	PutAccName       uintptr
	PutAccValue      uintptr
}

type systemLocator struct{}

func (systemLocator) Locate(pt step.Point) *ElementInfo {
	defer func() {
		// Accessibility lookups touch other processes; never let a fault
		// escape into the capture pipeline.
		if r := recover(); r != nil {
			log.Printf("uiauto: recovered from lookup failure: %v", r)
		}
	}()

	hwnd, _, _ := procWindowFromPoint.Call(uintptr(int32(pt.X)), uintptr(int32(pt.Y)))
	if hwnd == 0 {
		return nil
	}
	root, _, _ := procGetAncestor.Call(hwnd, gaRoot)
	if root == 0 {
		root = hwnd
	}

	info := &ElementInfo{
		WindowTitle:     windowText(root),
		ApplicationName: processName(root),
		WindowRect:      windowRect(root),
		ElementRect:     windowRect(hwnd),
	}

	if name, role, rect, ok := accessibleAt(pt); ok {
		info.ElementName = name
		info.ElementType = role
		if rect.Width() > 0 && rect.Height() > 0 {
			info.ElementRect = rect
		}
	} else {
		// Fall back to the raw window: text for the name, class for the
		// type.
		info.ElementName = windowText(hwnd)
		info.ElementType = className(hwnd)
	}
	return info
}

func windowText(hwnd uintptr) string {
	var buf [256]uint16
	n, _, _ := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return syscall.UTF16ToString(buf[:n])
}

func className(hwnd uintptr) string {
	var buf [256]uint16
	n, _, _ := procGetClassNameW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return syscall.UTF16ToString(buf[:n])
}

func windowRect(hwnd uintptr) step.Rect {
	var r winRect
	ret, _, _ := procGetWindowRect.Call(hwnd, uintptr(unsafe.Pointer(&r)))
	if ret == 0 {
		return step.Rect{}
	}
	return step.Rect{Left: int(r.Left), Top: int(r.Top), Right: int(r.Right), Bottom: int(r.Bottom)}
}

// processName returns the executable base name of the window's owning
// process, without the .exe suffix.
func processName(hwnd uintptr) string {
	var pid uint32
	procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
	if pid == 0 {
		return ""
	}
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return ""
	}
	defer windows.CloseHandle(h)

	var buf [windows.MAX_PATH]uint16
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(h, 0, &buf[0], &size); err != nil {
		return ""
	}
	name := filepath.Base(windows.UTF16ToString(buf[:size]))
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// accessibleAt queries MSAA for the element under the point and returns its
// name, role text and bounding rectangle.
func accessibleAt(pt step.Point) (name, role string, rect step.Rect, ok bool) {
	var acc *iAccessible
	var child variant
	packed := uintptr(uint32(int32(pt.X))) | uintptr(uint32(int32(pt.Y)))<<32
	hr, _, _ := procAccessibleObjectFromPoint.Call(
		packed,
		uintptr(unsafe.Pointer(&acc)),
		uintptr(unsafe.Pointer(&child)),
	)
	if hr != 0 || acc == nil {
		return "", "", step.Rect{}, false
	}
	defer syscall.SyscallN(acc.vtbl.Release, uintptr(unsafe.Pointer(acc)))

	var bstr *uint16
	hr, _, _ = syscall.SyscallN(acc.vtbl.GetAccName,
		uintptr(unsafe.Pointer(acc)),
		uintptr(unsafe.Pointer(&child)),
		uintptr(unsafe.Pointer(&bstr)),
	)
	if hr == 0 && bstr != nil {
		name = windows.UTF16PtrToString(bstr)
		procSysFreeString.Call(uintptr(unsafe.Pointer(bstr)))
	}

	var roleVar variant
	hr, _, _ = syscall.SyscallN(acc.vtbl.GetAccRole,
		uintptr(unsafe.Pointer(acc)),
		uintptr(unsafe.Pointer(&child)),
		uintptr(unsafe.Pointer(&roleVar)),
	)
	const vtI4 = 3
	if hr == 0 && roleVar.VT == vtI4 {
		role = roleText(uint32(roleVar.Val))
	}

	var left, top, width, height int32
	hr, _, _ = syscall.SyscallN(acc.vtbl.AccLocation,
		uintptr(unsafe.Pointer(acc)),
		uintptr(unsafe.Pointer(&left)),
		uintptr(unsafe.Pointer(&top)),
		uintptr(unsafe.Pointer(&width)),
		uintptr(unsafe.Pointer(&height)),
		uintptr(unsafe.Pointer(&child)),
	)
	if hr == 0 {
		rect = step.Rect{
			Left: int(left), Top: int(top),
			Right: int(left + width), Bottom: int(top + height),
		}
	}
	return name, role, rect, true
}

func roleText(role uint32) string {
	var buf [128]uint16
	n, _, _ := procGetRoleTextW.Call(uintptr(role), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return syscall.UTF16ToString(buf[:n])
}
