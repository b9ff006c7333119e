package keyclass

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyLetters(t *testing.T) {
	tests := []struct {
		name string
		code uint16
		snap Snapshot
		want Category
	}{
		{"plain a", 'A', Snapshot{}, CompositeConvertible{Char: 'a'}},
		{"shift a", 'A', Snapshot{Shift: true}, CompositeConvertible{Char: 'A'}},
		{"caps a", 'A', Snapshot{CapsLock: true}, CompositeConvertible{Char: 'A'}},
		// Caps and shift do not cancel out.
		{"caps shift a", 'A', Snapshot{CapsLock: true, Shift: true}, CompositeConvertible{Char: 'A'}},
		{"plain z", 'Z', Snapshot{}, CompositeConvertible{Char: 'z'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.code, tt.snap, 0))
		})
	}
}

func TestClassifyDigits(t *testing.T) {
	symbols := ")!@#$%^&*("
	for i := 0; i <= 9; i++ {
		code := VK0 + uint16(i)
		digit := rune('0' + i)

		assert.Equal(t, FreeConvertible{Char: digit}, Classify(code, Snapshot{}, 0), "digit %c", digit)
		assert.Equal(t, FreeConvertible{Char: rune(symbols[i])}, Classify(code, Snapshot{Shift: true}, 0), "shifted %c", digit)
	}

	assert.Equal(t, FreeConvertible{Char: '.'}, Classify(VKPeriod, Snapshot{}, 0))
	assert.Equal(t, FreeConvertible{Char: '.'}, Classify(VKPeriod, Snapshot{Shift: true}, '>'))
}

func TestClassifyNumPad(t *testing.T) {
	for i := 0; i <= 9; i++ {
		code := VKNumpad0 + uint16(i)
		want := NumPad{Char: rune('0' + i)}
		assert.Equal(t, want, Classify(code, Snapshot{}, 0))
		assert.Equal(t, want, Classify(code, Snapshot{Shift: true}, 0), "shift is ignored on the keypad")
	}
	assert.Equal(t, NumPad{Char: '.'}, Classify(VKDecimal, Snapshot{}, 0))
}

func TestClassifyModifiers(t *testing.T) {
	for _, code := range []uint16{VKShift, VKLShift, VKRShift, VKControl, VKLControl, VKRControl, VKMenu, VKLMenu, VKRMenu, VKLWin, VKRWin} {
		assert.Equal(t, Modifier{}, Classify(code, Snapshot{}, 0), KeyName(code))
	}

	// Any held control, alt or meta wins over every other rule.
	for _, snap := range []Snapshot{{Control: true}, {Alt: true}, {Meta: true}} {
		assert.Equal(t, Modifier{}, Classify('A', snap, 0))
		assert.Equal(t, Modifier{}, Classify(VKSpace, snap, 0))
		assert.Equal(t, Modifier{}, Classify(VKBack, snap, 0))
	}
}

func TestClassifyDelimitersAndFallback(t *testing.T) {
	assert.Equal(t, Delimiter{}, Classify(VKTab, Snapshot{}, 0))
	assert.Equal(t, Delimiter{}, Classify(VKSpace, Snapshot{}, ' '))
	assert.Equal(t, Delimiter{}, Classify(VKReturn, Snapshot{}, '\r'))
	assert.Equal(t, Backspace{}, Classify(VKBack, Snapshot{}, 0x08))

	assert.Equal(t, Unprocessed{Char: ','}, Classify(VKOEMComma, Snapshot{}, ','))
	assert.Equal(t, Delimiter{}, Classify(VKEscape, Snapshot{}, 0))
	assert.Equal(t, Delimiter{}, Classify(0x70, Snapshot{}, 0), "F1 translates to nothing")
}

func TestClassifyIsDeterministic(t *testing.T) {
	snap := Snapshot{Shift: true}
	first := Classify('Q', snap, 0)
	for i := 0; i < 100; i++ {
		require.Equal(t, first, Classify('Q', snap, 0))
	}
}

type countingReader struct {
	StaticReader
	translations int
}

func (r *countingReader) Translate(code uint16) rune {
	r.translations++
	return r.StaticReader.Translate(code)
}

func TestClassifierOnlyTranslatesOnFallback(t *testing.T) {
	reader := &countingReader{StaticReader: StaticReader{Layout: USLayout}}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := NewClassifier(reader, logger)

	assert.Equal(t, CompositeConvertible{Char: 'k'}, c.Classify('K'))
	assert.Equal(t, 0, reader.translations)

	assert.Equal(t, Unprocessed{Char: '/'}, c.Classify(0xBF))
	assert.Equal(t, 1, reader.translations)

	assert.Contains(t, buf.String(), "classify key")
}

func TestKeyName(t *testing.T) {
	assert.Equal(t, "A", KeyName('A'))
	assert.Equal(t, "7", KeyName('7'))
	assert.Equal(t, "Numpad3", KeyName(VKNumpad0+3))
	assert.Equal(t, "Space", KeyName(VKSpace))
	assert.Equal(t, "VK(0x70)", KeyName(0x70))
}
