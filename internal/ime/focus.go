package ime

import (
	"errors"
	"fmt"

	"uokeyboard/internal/host"
)

// updateEditSink moves the text-edit subscription to the topmost context of
// dm. The previous subscription is always released first. A document with
// no context, or no document, leaves no subscription.
func (m *Ime) updateEditSink(dm host.DocumentMgr) error {
	var (
		active     bool
		prevCtx    host.Context
		prevCookie host.Cookie
	)
	m.exclusive(func() {
		if m.session == nil {
			return
		}
		active = true
		prevCtx, prevCookie = m.session.editCtx, m.session.editCookie
		m.session.editCtx, m.session.editCookie = nil, host.InvalidCookie
	})
	if !active {
		return nil
	}

	if prevCtx != nil {
		if err := prevCtx.UnadviseSink(prevCookie); err != nil {
			return fmt.Errorf("release text edit sink: %w", err)
		}
	}

	if dm == nil {
		return nil
	}
	ctx, err := dm.Top()
	if errors.Is(err, host.ErrNoContext) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get top context: %w", err)
	}

	cookie, err := ctx.AdviseTextEditSink(m)
	if err != nil {
		return fmt.Errorf("advise text edit sink: %w", err)
	}

	var lost bool
	m.exclusive(func() {
		if m.session == nil {
			lost = true
			return
		}
		m.session.editCtx, m.session.editCookie = ctx, cookie
	})
	if lost {
		return errors.Join(ErrNotActive, ctx.UnadviseSink(cookie))
	}
	return nil
}

// OnSetFocus implements host.ThreadMgrEventSink.
func (m *Ime) OnSetFocus(focus, prev host.DocumentMgr) error {
	err := m.updateEditSink(focus)
	m.exclusive(func() { m.lastFocused = focus })
	return m.traced("focus change", err)
}

// OnEndEdit implements host.TextEditSink. A text edit that leaves the
// selection outside the composition finishes the composition.
func (m *Ime) OnEndEdit(ctx host.Context, ec host.EditCookie, rec host.EditRecord) error {
	selOnly, err := rec.SelectionOnly()
	if err != nil {
		return fmt.Errorf("read edit record: %w", err)
	}
	if selOnly {
		return nil
	}

	var comp *Composition
	m.exclusive(func() { comp = m.composition() })
	if comp == nil {
		return nil
	}

	cover, err := comp.anchor.Range()
	if err != nil {
		return fmt.Errorf("get composition range: %w", err)
	}
	sel, err := ctx.Selection(ec)
	if err != nil {
		return fmt.Errorf("get selection: %w", err)
	}
	if sel.Range == nil {
		return nil
	}

	if isCovered(ec, sel.Range, cover) {
		return nil
	}

	m.logger.Debug("composition clobbered", "input", m.Input(), "same_context", comp.ctx == ctx)
	return m.FinishComposition(comp.ctx)
}

// isCovered reports whether r lies entirely inside cover. Ranges that cannot
// be compared, such as ranges in different contexts, are not covered.
func isCovered(ec host.EditCookie, r, cover host.Range) bool {
	start, err := cover.CompareStart(ec, r, host.AnchorStart)
	if err != nil {
		return false
	}
	end, err := cover.CompareEnd(ec, r, host.AnchorEnd)
	if err != nil {
		return false
	}
	return start <= 0 && end >= 0
}

// OnInitDocumentMgr implements host.ThreadMgrEventSink.
func (m *Ime) OnInitDocumentMgr(dm host.DocumentMgr) error { return host.ErrNotImplemented }

// OnUninitDocumentMgr implements host.ThreadMgrEventSink.
func (m *Ime) OnUninitDocumentMgr(dm host.DocumentMgr) error { return host.ErrNotImplemented }

// OnPushContext implements host.ThreadMgrEventSink.
func (m *Ime) OnPushContext(ctx host.Context) error { return host.ErrNotImplemented }

// OnPopContext implements host.ThreadMgrEventSink.
func (m *Ime) OnPopContext(ctx host.Context) error { return host.ErrNotImplemented }

// OnSetThreadFocus implements host.ThreadFocusSink.
func (m *Ime) OnSetThreadFocus() error { return nil }

// OnKillThreadFocus implements host.ThreadFocusSink.
func (m *Ime) OnKillThreadFocus() error { return nil }
