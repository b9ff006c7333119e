//go:build windows

package keyclass

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	procGetKeyState      = user32.NewProc("GetKeyState")
	procGetAsyncKeyState = user32.NewProc("GetAsyncKeyState")
	procGetKeyboardState = user32.NewProc("GetKeyboardState")
	procMapVirtualKeyW   = user32.NewProc("MapVirtualKeyW")
	procToUnicode        = user32.NewProc("ToUnicode")
)

const mapvkVKToVSC = 0

// OSReader reads keyboard state through user32.
type OSReader struct{}

// NewOSReader returns the StateReader for the running platform.
func NewOSReader() StateReader {
	return OSReader{}
}

func keyToggled(vk uint16) bool {
	r, _, _ := procGetKeyState.Call(uintptr(vk))
	return int16(r)&1 == 1
}

func keyDown(vk uint16) bool {
	r, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
	return int16(r) < 0
}

// Snapshot implements StateReader.
func (OSReader) Snapshot() Snapshot {
	return Snapshot{
		CapsLock: keyToggled(VKCapital),
		Shift:    keyDown(VKShift),
		Control:  keyDown(VKControl),
		Alt:      keyDown(VKMenu),
		Meta:     keyDown(VKLWin) || keyDown(VKRWin),
	}
}

// Translate implements StateReader using ToUnicode with the full keyboard
// state of the calling thread.
func (OSReader) Translate(code uint16) rune {
	scan, _, _ := procMapVirtualKeyW.Call(uintptr(code), mapvkVKToVSC)

	var state [256]byte
	if ok, _, _ := procGetKeyboardState.Call(uintptr(unsafe.Pointer(&state[0]))); ok == 0 {
		return 0
	}

	var buf [2]uint16
	n, _, _ := procToUnicode.Call(
		uintptr(code),
		scan,
		uintptr(unsafe.Pointer(&state[0])),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
		0,
	)
	if int32(n) != 1 {
		return 0
	}
	return rune(buf[0])
}
