package keyclass

import "fmt"

// Windows virtual key codes the classifier cares about.
const (
	VKBack     uint16 = 0x08
	VKTab      uint16 = 0x09
	VKReturn   uint16 = 0x0D
	VKShift    uint16 = 0x10
	VKControl  uint16 = 0x11
	VKMenu     uint16 = 0x12
	VKCapital  uint16 = 0x14
	VKEscape   uint16 = 0x1B
	VKSpace    uint16 = 0x20
	VK0        uint16 = 0x30
	VK9        uint16 = 0x39
	VKA        uint16 = 0x41
	VKZ        uint16 = 0x5A
	VKLWin     uint16 = 0x5B
	VKRWin     uint16 = 0x5C
	VKNumpad0  uint16 = 0x60
	VKNumpad9  uint16 = 0x69
	VKDecimal  uint16 = 0x6E
	VKLShift   uint16 = 0xA0
	VKRShift   uint16 = 0xA1
	VKLControl uint16 = 0xA2
	VKRControl uint16 = 0xA3
	VKLMenu    uint16 = 0xA4
	VKRMenu    uint16 = 0xA5
	VKOEMComma uint16 = 0xBC
	VKOEMMinus uint16 = 0xBD
	VKPeriod   uint16 = 0xBE
)

var modifierKeys = map[uint16]bool{
	VKShift:    true,
	VKLShift:   true,
	VKRShift:   true,
	VKControl:  true,
	VKLControl: true,
	VKRControl: true,
	VKMenu:     true,
	VKLMenu:    true,
	VKRMenu:    true,
	VKLWin:     true,
	VKRWin:     true,
}

// IsModifierKey reports whether code is a shift, control, alt or windows key.
func IsModifierKey(code uint16) bool {
	return modifierKeys[code]
}

// shiftedDigits maps '1'..'9','0' to the US shifted symbol row.
var shiftedDigits = map[rune]rune{
	'1': '!',
	'2': '@',
	'3': '#',
	'4': '$',
	'5': '%',
	'6': '^',
	'7': '&',
	'8': '*',
	'9': '(',
	'0': ')',
}

var vkNames = map[uint16]string{
	VKBack:     "Backspace",
	VKTab:      "Tab",
	VKReturn:   "Enter",
	VKShift:    "Shift",
	VKControl:  "Control",
	VKMenu:     "Alt",
	VKCapital:  "CapsLock",
	VKEscape:   "Escape",
	VKSpace:    "Space",
	VKLWin:     "LWin",
	VKRWin:     "RWin",
	VKDecimal:  "NumpadDecimal",
	VKLShift:   "LShift",
	VKRShift:   "RShift",
	VKLControl: "LControl",
	VKRControl: "RControl",
	VKLMenu:    "LAlt",
	VKRMenu:    "RAlt",
	VKOEMComma: "Comma",
	VKOEMMinus: "Minus",
	VKPeriod:   "Period",
}

// KeyName returns a human-readable name for a virtual key code.
func KeyName(code uint16) string {
	switch {
	case code >= VKA && code <= VKZ, code >= VK0 && code <= VK9:
		return string(rune(code))
	case code >= VKNumpad0 && code <= VKNumpad9:
		return fmt.Sprintf("Numpad%d", code-VKNumpad0)
	}
	if name, ok := vkNames[code]; ok {
		return name
	}
	return fmt.Sprintf("VK(%#02x)", code)
}
