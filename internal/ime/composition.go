package ime

import (
	"errors"
	"fmt"

	"uokeyboard/internal/host"
)

// edit runs session as one synchronous read/write edit session on ctx.
func (m *Ime) edit(op string, ctx host.Context, session host.EditSession) error {
	if ctx == nil {
		return fmt.Errorf("%s: %w", op, host.ErrNoContext)
	}
	id, ok := m.clientID()
	if !ok {
		return fmt.Errorf("%s: %w", op, ErrNotActive)
	}
	return ctx.RequestEditSession(id, session)
}

func (m *Ime) traced(op string, err error, attrs ...any) error {
	if err != nil {
		m.logger.Warn(op+" failed", append(attrs, "error", err)...)
		return err
	}
	m.logger.Debug(op, attrs...)
	return nil
}

// AddSingleChar converts ch on its own and inserts the result at the
// selection, leaving the caret after it. No composition is involved.
func (m *Ime) AddSingleChar(ctx host.Context, ch rune) error {
	converted := m.converter.Convert(string(ch))
	err := m.edit("add single char", ctx, func(ec host.EditCookie) error {
		sel, err := ctx.Selection(ec)
		if err != nil {
			return fmt.Errorf("get selection: %w", err)
		}
		if sel.Range == nil {
			return host.ErrNoSelection
		}
		if err := sel.Range.SetText(ec, converted); err != nil {
			return fmt.Errorf("insert text: %w", err)
		}
		if err := sel.Range.Collapse(ec, host.AnchorEnd); err != nil {
			return fmt.Errorf("collapse selection: %w", err)
		}
		return ctx.SetSelection(ec, sel)
	})
	return m.traced("add single char", err, "char", string(ch), "output", converted)
}

// AppendChar appends ch to the composition, starting one at the selection
// if none is live, and re-renders it.
func (m *Ime) AppendChar(ctx host.Context, ch rune) error {
	err := m.edit("append char", ctx, func(ec host.EditCookie) error {
		comp, err := m.startComposition(ec, ctx)
		if err != nil {
			return err
		}
		m.exclusive(func() { comp.input = append(comp.input, ch) })
		return m.render(ec, ctx, comp)
	})
	return m.traced("append char", err, "char", string(ch), "input", m.Input())
}

// PopChar removes the last input character and re-renders. A composition
// left empty is finished. With no composition it does nothing.
func (m *Ime) PopChar(ctx host.Context) error {
	err := m.edit("pop char", ctx, func(ec host.EditCookie) error {
		var (
			comp  *Composition
			empty bool
		)
		m.exclusive(func() {
			comp = m.composition()
			if comp == nil {
				return
			}
			if n := len(comp.input); n > 0 {
				comp.input = comp.input[:n-1]
			}
			empty = len(comp.input) == 0
		})
		if comp == nil {
			return nil
		}

		if err := m.render(ec, ctx, comp); err != nil {
			return err
		}
		if empty {
			return m.terminate(ec, ctx)
		}
		return nil
	})
	return m.traced("pop char", err, "input", m.Input())
}

// FinishComposition commits the live composition: the caret moves to the
// end of the selection and the host composition is ended. The composition
// leaves the session even when the host reports it already ended. A nil ctx
// means the context the composition belongs to. Without a composition this
// is a no-op.
func (m *Ime) FinishComposition(ctx host.Context) error {
	var owner host.Context
	m.exclusive(func() {
		if c := m.composition(); c != nil {
			owner = c.ctx
		}
	})
	if owner == nil {
		m.logger.Debug("finish composition", "composing", false)
		return nil
	}
	if ctx == nil {
		ctx = owner
	}

	err := m.edit("finish composition", ctx, func(ec host.EditCookie) error {
		return m.terminate(ec, ctx)
	})
	return m.traced("finish composition", err)
}

// finishElsewhere commits a composition owned by a context other than ctx,
// so keys typed after a focus change act on ctx alone.
func (m *Ime) finishElsewhere(ctx host.Context) error {
	var owner host.Context
	m.exclusive(func() {
		if c := m.composition(); c != nil {
			owner = c.ctx
		}
	})
	if owner == nil || owner == ctx {
		return nil
	}
	m.logger.Debug("composition left behind by focus change", "input", m.Input())
	return m.FinishComposition(owner)
}

func (m *Ime) startComposition(ec host.EditCookie, ctx host.Context) (*Composition, error) {
	var existing *Composition
	m.exclusive(func() { existing = m.composition() })
	if existing != nil {
		return existing, nil
	}

	insert, err := ctx.QueryInsertAtSelection(ec)
	if err != nil {
		return nil, fmt.Errorf("query insert point: %w", err)
	}
	anchor, err := ctx.StartComposition(ec, insert, m)
	if err != nil {
		return nil, fmt.Errorf("start composition: %w", err)
	}
	sel := host.Selection{Range: insert, Style: host.SelectionStyle{ActiveEnd: host.ActiveEndNone}}
	if err := ctx.SetSelection(ec, sel); err != nil {
		return nil, fmt.Errorf("set selection: %w", err)
	}

	comp := &Composition{anchor: anchor, ctx: ctx}
	var lost bool
	m.exclusive(func() {
		if m.session == nil {
			lost = true
			return
		}
		m.session.composition = comp
	})
	if lost {
		return nil, ErrNotActive
	}
	m.logger.Debug("composition started")
	return comp, nil
}

// render writes the converted input over the anchor and puts the caret just
// past it.
func (m *Ime) render(ec host.EditCookie, ctx host.Context, comp *Composition) error {
	var input string
	m.exclusive(func() { input = string(comp.input) })
	converted := m.converter.Convert(input)

	r, err := comp.anchor.Range()
	if err != nil {
		return fmt.Errorf("get composition range: %w", err)
	}
	if err := r.SetText(ec, converted); err != nil {
		return fmt.Errorf("set composition text: %w", err)
	}
	m.exclusive(func() { comp.output = converted })
	if converted != "" {
		if err := ctx.SetProperty(ec, host.PropLanguageID, r, int32(m.langID)); err != nil {
			return fmt.Errorf("set language: %w", err)
		}
	}

	caret, err := r.Clone()
	if err != nil {
		return fmt.Errorf("clone composition range: %w", err)
	}
	if err := caret.Collapse(ec, host.AnchorEnd); err != nil {
		return fmt.Errorf("collapse caret: %w", err)
	}
	sel := host.Selection{Range: caret, Style: host.SelectionStyle{ActiveEnd: host.ActiveEndNone}}
	if err := ctx.SetSelection(ec, sel); err != nil {
		return fmt.Errorf("set selection: %w", err)
	}

	m.logger.Debug("composition rendered", "input", input, "output", converted)
	return nil
}

// terminate detaches the composition first, so it is gone from the session
// whatever the host calls below return.
func (m *Ime) terminate(ec host.EditCookie, ctx host.Context) error {
	comp := m.takeComposition()
	if comp == nil {
		return nil
	}

	sel, err := ctx.Selection(ec)
	if err != nil {
		return fmt.Errorf("get selection: %w", err)
	}
	if sel.Range != nil {
		if err := sel.Range.Collapse(ec, host.AnchorEnd); err != nil {
			return fmt.Errorf("collapse selection: %w", err)
		}
		if err := ctx.SetSelection(ec, sel); err != nil {
			return fmt.Errorf("set selection: %w", err)
		}
	}

	if err := comp.anchor.End(ec); err != nil && !errors.Is(err, host.ErrAlreadyEnded) {
		return fmt.Errorf("end composition: %w", err)
	}
	m.notifyCommit(comp)
	return nil
}

// OnCompositionTerminated implements host.CompositionSink. The host has
// already ended the composition, so only local state is cleared.
func (m *Ime) OnCompositionTerminated(ec host.EditCookie, c host.Composition) error {
	var comp *Composition
	m.exclusive(func() {
		if cur := m.composition(); cur != nil && (c == nil || cur.anchor == c) {
			comp = cur
			m.session.composition = nil
		}
	})
	if comp == nil {
		m.logger.Debug("composition terminated by host", "ours", false)
		return nil
	}
	m.logger.Debug("composition terminated by host", "input", string(comp.input))
	m.notifyCommit(comp)
	return nil
}
