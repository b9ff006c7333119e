// Package keyclass maps raw virtual key codes plus the live modifier state
// to the semantic key categories the composition engine acts on.
//
// Classification is a pure function of (key code, modifier snapshot, layout
// translation). The OS is only consulted through a StateReader, so the same
// inputs always produce the same Category.
package keyclass

import (
	"fmt"
	"log/slog"
	"unicode"
)

// Category is the closed set of key categories. The concrete types are
// CompositeConvertible, FreeConvertible, NumPad, Unprocessed, Backspace,
// Delimiter and Modifier; no other package can add to the set.
type Category interface {
	fmt.Stringer
	category()
}

// CompositeConvertible is a letter. It starts or extends a composition.
type CompositeConvertible struct{ Char rune }

// FreeConvertible is a digit, shifted digit symbol or period. Outside a
// composition it is converted on its own.
type FreeConvertible struct{ Char rune }

// NumPad is a numeric keypad digit or decimal point.
type NumPad struct{ Char rune }

// Unprocessed is any other key that the layout translates to a character.
type Unprocessed struct{ Char rune }

// Backspace removes the last composed character.
type Backspace struct{}

// Delimiter commits the composition and is passed through.
type Delimiter struct{}

// Modifier is a modifier key, or any key pressed with control, alt or meta.
type Modifier struct{}

func (CompositeConvertible) category() {}
func (FreeConvertible) category()      {}
func (NumPad) category()               {}
func (Unprocessed) category()          {}
func (Backspace) category()            {}
func (Delimiter) category()            {}
func (Modifier) category()             {}

func (c CompositeConvertible) String() string { return fmt.Sprintf("CompositeConvertible(%q)", c.Char) }
func (c FreeConvertible) String() string      { return fmt.Sprintf("FreeConvertible(%q)", c.Char) }
func (c NumPad) String() string               { return fmt.Sprintf("NumPad(%q)", c.Char) }
func (c Unprocessed) String() string          { return fmt.Sprintf("Unprocessed(%q)", c.Char) }
func (Backspace) String() string              { return "Backspace" }
func (Delimiter) String() string              { return "Delimiter" }
func (Modifier) String() string               { return "Modifier" }

// Snapshot is the modifier state at the time of a key event.
type Snapshot struct {
	CapsLock bool // toggle state
	Shift    bool
	Control  bool
	Alt      bool
	Meta     bool // Windows key
}

// StateReader reads the live keyboard state from the OS.
type StateReader interface {
	// Snapshot returns the current modifier state.
	Snapshot() Snapshot

	// Translate maps a key code to the printable character the active
	// layout would produce, or 0 when it produces none.
	Translate(code uint16) rune
}

// Classify returns the category of code under snap. translated is the
// layout's character for code and is only used for keys no rule covers.
func Classify(code uint16, snap Snapshot, translated rune) Category {
	return classify(code, snap, func() rune { return translated })
}

func classify(code uint16, snap Snapshot, translate func() rune) Category {
	switch {
	case snap.Control || snap.Alt || snap.Meta || IsModifierKey(code):
		return Modifier{}

	case code >= VKA && code <= VKZ:
		// Caps lock and shift combine with OR: both held still gives
		// upper case.
		ch := rune(code)
		if !snap.CapsLock && !snap.Shift {
			ch = unicode.ToLower(ch)
		}
		return CompositeConvertible{Char: ch}

	case code >= VK0 && code <= VK9:
		ch := rune(code)
		if snap.Shift {
			ch = shiftedDigits[ch]
		}
		return FreeConvertible{Char: ch}

	case code == VKPeriod:
		return FreeConvertible{Char: '.'}

	case code >= VKNumpad0 && code <= VKNumpad9:
		return NumPad{Char: rune(code-VKNumpad0) + '0'}

	case code == VKDecimal:
		return NumPad{Char: '.'}

	case code == VKTab, code == VKSpace, code == VKReturn:
		return Delimiter{}

	case code == VKBack:
		return Backspace{}
	}

	if ch := translate(); ch != 0 {
		return Unprocessed{Char: ch}
	}
	return Delimiter{}
}

// Classifier classifies key codes against the live OS state.
type Classifier struct {
	reader StateReader
	logger *slog.Logger
}

// NewClassifier creates a Classifier reading state from reader.
func NewClassifier(reader StateReader, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{reader: reader, logger: logger}
}

// Classify returns the category of code under the current keyboard state.
func (c *Classifier) Classify(code uint16) Category {
	snap := c.reader.Snapshot()
	cat := classify(code, snap, func() rune { return c.reader.Translate(code) })
	c.logger.Debug("classify key",
		"key", KeyName(code),
		"caps_lock", snap.CapsLock,
		"shift", snap.Shift,
		"ctrl", snap.Control,
		"alt", snap.Alt,
		"meta", snap.Meta,
		"category", cat.String(),
	)
	return cat
}
