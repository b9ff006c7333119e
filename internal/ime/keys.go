package ime

import (
	"fmt"

	"uokeyboard/internal/host"
	"uokeyboard/internal/keyclass"
)

// keyboardDisabled reports whether input is suppressed for the thread: the
// focused document has no context and both the keyboard-disabled and
// empty-context compartments are set.
func (m *Ime) keyboardDisabled() bool {
	var tm host.ThreadMgr
	m.exclusive(func() {
		if m.session != nil {
			tm = m.session.threadMgr
		}
	})
	if tm == nil {
		return false
	}

	dm, err := tm.Focus()
	if err != nil || dm == nil {
		return false
	}
	if _, err := dm.Top(); err == nil {
		return false
	}
	return m.readBool(tm, host.CompartmentKeyboardDisabled) &&
		m.readBool(tm, host.CompartmentEmptyContext)
}

// OnForeground implements host.KeyEventSink.
func (m *Ime) OnForeground(foreground bool) error { return nil }

// OnTestKeyDown implements host.KeyEventSink. It eats convertible keys, and
// any non-modifier key while composing.
func (m *Ime) OnTestKeyDown(ctx host.Context, key host.KeyEvent) (bool, error) {
	if m.keyboardDisabled() {
		return false, nil
	}

	switch m.classifier.Classify(key.Code).(type) {
	case keyclass.Modifier:
		return false, nil
	case keyclass.CompositeConvertible, keyclass.FreeConvertible, keyclass.NumPad:
		return true, nil
	}
	return m.Composing(), nil
}

// OnTestKeyUp implements host.KeyEventSink.
func (m *Ime) OnTestKeyUp(ctx host.Context, key host.KeyEvent) (bool, error) {
	return m.OnKeyUp(ctx, key)
}

// OnKeyUp implements host.KeyEventSink. Key-ups are never eaten.
func (m *Ime) OnKeyUp(ctx host.Context, key host.KeyEvent) (bool, error) {
	return false, nil
}

// OnPreservedKey implements host.KeyEventSink. No keys are preserved.
func (m *Ime) OnPreservedKey(ctx host.Context, id host.GUID) (bool, error) {
	return false, nil
}

// OnKeyDown implements host.KeyEventSink.
func (m *Ime) OnKeyDown(ctx host.Context, key host.KeyEvent) (bool, error) {
	if m.keyboardDisabled() {
		return false, nil
	}

	if err := m.finishElsewhere(ctx); err != nil {
		return false, err
	}

	cat := m.classifier.Classify(key.Code)
	if _, ok := cat.(keyclass.Delimiter); ok {
		if err := m.FinishComposition(ctx); err != nil {
			return false, err
		}
		if err := m.emitter.Emit(key); err != nil {
			m.logger.Warn("re-emit delimiter failed", "key", keyclass.KeyName(key.Code), "error", err)
			return true, fmt.Errorf("re-emit key: %w", err)
		}
		return true, nil
	}

	if np, ok := cat.(keyclass.NumPad); ok && np.Char != '.' {
		cat = keyclass.FreeConvertible{Char: np.Char}
	}

	composing := m.Composing()
	switch c := cat.(type) {
	case keyclass.Modifier:
		return false, nil

	case keyclass.Unprocessed:
		if !composing {
			return false, nil
		}
		return true, m.AppendChar(ctx, c.Char)

	case keyclass.Backspace:
		if !composing {
			return false, nil
		}
		return true, m.PopChar(ctx)

	case keyclass.FreeConvertible:
		if !composing {
			return true, m.AddSingleChar(ctx, c.Char)
		}
		return true, m.AppendChar(ctx, c.Char)

	case keyclass.CompositeConvertible:
		return true, m.AppendChar(ctx, c.Char)

	case keyclass.NumPad:
		// Only the decimal point gets here. The backtick tells the
		// converter to keep a literal full stop.
		if err := m.AppendChar(ctx, '.'); err != nil {
			return true, err
		}
		return true, m.AppendChar(ctx, '`')
	}

	panic(fmt.Sprintf("ime: no key action for %s", cat))
}
