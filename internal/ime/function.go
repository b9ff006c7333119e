package ime

import "uokeyboard/internal/host"

// TouchLayoutType is the kind of touch keyboard layout a text service asks
// for.
type TouchLayoutType int

const (
	TouchLayoutUndefined TouchLayoutType = iota
	TouchLayoutClassic
	TouchLayoutOptimized
)

// TouchLayoutNone is the layout id meaning "no specific layout".
const TouchLayoutNone uint16 = 0

// Type implements host.FunctionProvider.
func (m *Ime) Type() host.GUID { return m.clsid }

// Description implements host.FunctionProvider.
func (m *Ime) Description() (string, error) {
	if m.desc == "" {
		return "", host.ErrNotImplemented
	}
	return m.desc, nil
}

// Function implements host.FunctionProvider. The zero id asks for the
// provider itself.
func (m *Ime) Function(id host.GUID) (any, error) {
	if id != (host.GUID{}) {
		return nil, host.ErrNoInterface
	}
	return m, nil
}

// PreferredTouchKeyboardLayout asks for the optimized touch layout with no
// specific layout id.
func (m *Ime) PreferredTouchKeyboardLayout() (TouchLayoutType, uint16) {
	return TouchLayoutOptimized, TouchLayoutNone
}
