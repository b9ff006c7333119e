//go:build windows

package passthrough

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"uokeyboard/internal/host"
)

var (
	user32        = windows.NewLazySystemDLL("user32.dll")
	procSendInput = user32.NewProc("SendInput")
)

const (
	inputKeyboard = 1
	keyEventKeyUp = 0x0002
)

type keybdInput struct {
	vk        uint16
	scan      uint16
	flags     uint32
	time      uint32
	extraInfo uintptr
}

// input mirrors the Win32 INPUT struct. The trailing pad sizes the union to
// MOUSEINPUT, its largest member.
type input struct {
	typ uint32
	ki  keybdInput
	_   [8]byte
}

// System injects keystrokes with SendInput.
type System struct{}

// NewSystem returns the platform emitter.
func NewSystem() (host.KeystrokeEmitter, error) {
	if err := procSendInput.Find(); err != nil {
		return nil, fmt.Errorf("passthrough: %w", err)
	}
	return System{}, nil
}

// Emit sends a key-down and key-up pair for key.
func (System) Emit(key host.KeyEvent) error {
	down := keybdInput{vk: key.Code, scan: key.ScanCode()}
	up := down
	up.flags = keyEventKeyUp

	inputs := [2]input{
		{typ: inputKeyboard, ki: down},
		{typ: inputKeyboard, ki: up},
	}
	n, _, err := procSendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		unsafe.Sizeof(inputs[0]),
	)
	if int(n) != len(inputs) {
		return fmt.Errorf("passthrough: SendInput sent %d of %d events: %w", n, len(inputs), err)
	}
	return nil
}
