package memhost

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uokeyboard/internal/host"
)

func TestRangesFollowEdits(t *testing.T) {
	c := NewContext("doc")
	require.NoError(t, c.Type("hello world"))

	var word *Range
	require.NoError(t, c.Edit(func(ec host.EditCookie) error {
		word = c.newRange(6, 11)
		return nil
	}))

	require.NoError(t, c.Replace(0, 5, "bye", 3))
	assert.Equal(t, "bye world", c.Text())
	assert.Equal(t, [2]int{4, 9}, offsets(word))

	// An edit swallowing the range collapses it to the end of the insert.
	require.NoError(t, c.Replace(2, 9, "!", 3))
	assert.Equal(t, "by!", c.Text())
	assert.Equal(t, [2]int{3, 3}, offsets(word))
}

func offsets(r *Range) [2]int {
	s, e := r.Offsets()
	return [2]int{s, e}
}

func TestCookiesAreScopedToTheSession(t *testing.T) {
	c := NewContext("doc")

	var stale host.EditCookie
	var r host.Range
	require.NoError(t, c.RequestEditSession(1, func(ec host.EditCookie) error {
		stale = ec
		var err error
		r, err = c.QueryInsertAtSelection(ec)
		return err
	}))

	assert.ErrorIs(t, r.SetText(stale, "x"), host.ErrInvalidCookie)
	_, err := c.Selection(stale)
	assert.ErrorIs(t, err, host.ErrInvalidCookie)
	_, err = c.Selection(0)
	assert.ErrorIs(t, err, host.ErrInvalidCookie)
}

func TestNestedEditIsDenied(t *testing.T) {
	c := NewContext("doc")

	err := c.RequestEditSession(1, func(host.EditCookie) error {
		return c.RequestEditSession(1, func(host.EditCookie) error { return nil })
	})
	assert.ErrorIs(t, err, host.ErrEditDenied)
}

type editRecorder struct {
	selectionOnly []bool
}

func (e *editRecorder) OnEndEdit(ctx host.Context, ec host.EditCookie, rec host.EditRecord) error {
	sel, err := rec.SelectionOnly()
	if err != nil {
		return err
	}
	if _, err := ctx.Selection(ec); err != nil {
		return err
	}
	e.selectionOnly = append(e.selectionOnly, sel)
	return nil
}

func TestEndEditNotifications(t *testing.T) {
	c := NewContext("doc")
	rec := &editRecorder{}
	cookie, err := c.AdviseTextEditSink(rec)
	require.NoError(t, err)
	assert.Equal(t, 1, c.SinkCount())

	require.NoError(t, c.Type("ab"))
	require.NoError(t, c.MoveCaret(0))
	require.NoError(t, c.Edit(func(host.EditCookie) error { return nil }))

	assert.Equal(t, []bool{false, true}, rec.selectionOnly)
	assert.Empty(t, c.SinkErrors())

	require.NoError(t, c.UnadviseSink(cookie))
	assert.ErrorIs(t, c.UnadviseSink(cookie), host.ErrInvalidCookie)
	assert.Equal(t, 0, c.SinkCount())
}

type endRecorder struct {
	ended []host.Composition
}

func (e *endRecorder) OnCompositionTerminated(ec host.EditCookie, c host.Composition) error {
	e.ended = append(e.ended, c)
	return nil
}

func TestCompositionLifecycle(t *testing.T) {
	c := NewContext("doc")
	sink := &endRecorder{}

	var comp host.Composition
	require.NoError(t, c.RequestEditSession(1, func(ec host.EditCookie) error {
		r, err := c.QueryInsertAtSelection(ec)
		if err != nil {
			return err
		}
		comp, err = c.StartComposition(ec, r, sink)
		if err != nil {
			return err
		}
		cr, _ := comp.Range()
		return cr.SetText(ec, "abc")
	}))
	assert.Equal(t, 1, c.ActiveCompositions())
	assert.Equal(t, "abc", c.Text())

	require.NoError(t, c.TerminateCompositions())
	assert.Equal(t, []host.Composition{comp}, sink.ended)
	assert.Equal(t, 0, c.ActiveCompositions())
	assert.False(t, comp.(*Composition).Active())

	err := c.RequestEditSession(1, func(ec host.EditCookie) error { return comp.End(ec) })
	assert.ErrorIs(t, err, host.ErrAlreadyEnded)
}

func TestPropertySpansFollowText(t *testing.T) {
	c := NewContext("doc")
	require.NoError(t, c.RequestEditSession(1, func(ec host.EditCookie) error {
		r, err := c.QueryInsertAtSelection(ec)
		if err != nil {
			return err
		}
		if err := r.SetText(ec, "xy"); err != nil {
			return err
		}
		return c.SetProperty(ec, host.PropLanguageID, r, 7)
	}))

	v, ok := c.PropertyAt(host.PropLanguageID, 1)
	assert.True(t, ok)
	assert.Equal(t, int32(7), v)

	// Text typed after the span is not tagged.
	require.NoError(t, c.Replace(2, 2, "zz", 4))
	assert.Equal(t, "xyzz", c.Text())
	_, ok = c.PropertyAt(host.PropLanguageID, 2)
	assert.False(t, ok)

	// Text typed inside the span extends it.
	require.NoError(t, c.Replace(1, 1, "_", 0))
	_, ok = c.PropertyAt(host.PropLanguageID, 3)
	assert.False(t, ok)
	v, ok = c.PropertyAt(host.PropLanguageID, 2)
	assert.True(t, ok)
	assert.Equal(t, int32(7), v)
}

func TestFaultInjection(t *testing.T) {
	errBoom := errors.New("boom")
	c := NewContext("doc")
	c.Fail("RequestEditSession", errBoom)
	assert.ErrorIs(t, c.RequestEditSession(1, func(host.EditCookie) error { return nil }), errBoom)
	c.Heal("RequestEditSession")
	assert.NoError(t, c.RequestEditSession(1, func(host.EditCookie) error { return nil }))

	tm := NewThreadMgr()
	tm.Fail("Compartment", errBoom)
	_, err := tm.Compartment(host.CompartmentKeyboardDisabled)
	assert.ErrorIs(t, err, errBoom)
	tm.Heal("Compartment")
	comp, err := tm.Compartment(host.CompartmentKeyboardDisabled)
	require.NoError(t, err)
	_, err = comp.Value()
	assert.ErrorIs(t, err, host.ErrEmptyCompartment)

	tm.SetCompartment(host.CompartmentKeyboardDisabled, 1)
	comp, err = tm.Compartment(host.CompartmentKeyboardDisabled)
	require.NoError(t, err)
	v, err := comp.Value()
	require.NoError(t, err)
	assert.Equal(t, int32(1), v)
}

func TestDocumentStack(t *testing.T) {
	a, b := NewContext("a"), NewContext("b")
	dm := NewDocumentMgr("doc", a)

	top, err := dm.Top()
	require.NoError(t, err)
	assert.Same(t, a, top)

	dm.Push(b)
	top, _ = dm.Top()
	assert.Same(t, b, top)

	dm.Pop()
	dm.Pop()
	dm.Pop()
	_, err = dm.Top()
	assert.ErrorIs(t, err, host.ErrNoContext)
}

func TestThreadLedger(t *testing.T) {
	tm := NewThreadMgr()
	sink := &keySink{}

	cookie, err := tm.AdviseThreadFocusSink(sink)
	require.NoError(t, err)
	require.NoError(t, tm.AdviseKeyEventSink(3, sink, true))
	assert.True(t, sink.foreground)
	assert.Equal(t, 2, tm.Subscriptions())

	require.NoError(t, tm.UnadviseKeyEventSink(3))
	require.NoError(t, tm.UnadviseSink(cookie))
	assert.ErrorIs(t, tm.UnadviseSink(cookie), host.ErrInvalidCookie)

	assert.Equal(t, []string{
		"Advise:thread-focus",
		"Advise:keystroke",
		"Unadvise:keystroke",
		"Unadvise:thread-focus",
		"Unadvise:unknown",
	}, tm.Ledger())
	assert.Equal(t, 0, tm.Subscriptions())

	tm.ResetLedger()
	assert.Empty(t, tm.Ledger())

	_, err = tm.Focus()
	assert.ErrorIs(t, err, host.ErrNoFocus)
}

// keySink eats the keys in eat and re-emits the keys in echo.
type keySink struct {
	tm         *ThreadMgr
	foreground bool
	eat        map[uint16]bool
	echo       map[uint16]bool
	seen       []uint16
}

func (k *keySink) OnForeground(fg bool) error { k.foreground = fg; return nil }

func (k *keySink) OnTestKeyDown(ctx host.Context, key host.KeyEvent) (bool, error) {
	return k.eat[key.Code], nil
}

func (k *keySink) OnTestKeyUp(ctx host.Context, key host.KeyEvent) (bool, error) { return false, nil }

func (k *keySink) OnKeyDown(ctx host.Context, key host.KeyEvent) (bool, error) {
	k.seen = append(k.seen, key.Code)
	if k.echo[key.Code] {
		echoed := host.KeyEvent{Code: key.Code + 1}
		return true, k.tm.Emit(echoed)
	}
	return true, nil
}

func (k *keySink) OnKeyUp(ctx host.Context, key host.KeyEvent) (bool, error) { return false, nil }

func (k *keySink) OnPreservedKey(ctx host.Context, id host.GUID) (bool, error) { return false, nil }

func (k *keySink) OnSetThreadFocus() error  { return nil }
func (k *keySink) OnKillThreadFocus() error { return nil }

func TestPressKeyDrainsEmittedKeysAfterwards(t *testing.T) {
	tm := NewThreadMgr()
	ctx := NewContext("doc")
	require.NoError(t, tm.SetFocus(NewDocumentMgr("doc", ctx)))
	tm.Native = func(code uint16) rune { return rune(code) }

	sink := &keySink{
		tm:   tm,
		eat:  map[uint16]bool{'a': true},
		echo: map[uint16]bool{'a': true},
	}
	require.NoError(t, tm.AdviseKeyEventSink(1, sink, true))

	eaten, err := tm.PressKey(host.KeyEvent{Code: 'x'})
	require.NoError(t, err)
	assert.False(t, eaten)

	eaten, err = tm.PressKey(host.KeyEvent{Code: 'a'})
	require.NoError(t, err)
	assert.True(t, eaten)

	// 'a' is eaten and echoed as 'b', which nobody eats.
	assert.Equal(t, "xb", ctx.Text())
	assert.Equal(t, []uint16{'a'}, sink.seen)
}
