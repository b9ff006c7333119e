package ime

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"uokeyboard/internal/host"
)

// release undoes one acquired subscription.
type release struct {
	name string
	fn   func() error
}

// acquisitions is a stack of subscriptions taken during activation.
type acquisitions []release

func (a *acquisitions) push(name string, fn func() error) {
	*a = append(*a, release{name: name, fn: fn})
}

// unwind releases everything in reverse order and joins the failures.
func (a acquisitions) unwind() error {
	var errs []error
	for i := len(a) - 1; i >= 0; i-- {
		if err := a[i].fn(); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", a[i].name, err))
		}
	}
	return errors.Join(errs...)
}

// Activate attaches the Ime to a thread. Subscriptions are taken in order:
// thread events, text edits on the focused context, keystrokes, thread
// focus, function provider. If any step fails, everything taken so far is
// released in reverse order and the failure is returned.
func (m *Ime) Activate(tm host.ThreadMgr, id host.ClientID) (err error) {
	if m.Active() {
		return ErrAlreadyActive
	}

	s := &Session{
		ID:                uuid.New(),
		threadMgr:         tm,
		clientID:          id,
		threadEventCookie: host.InvalidCookie,
		threadFocusCookie: host.InvalidCookie,
		editCookie:        host.InvalidCookie,
	}
	log := m.base.WithSession(s.ID).Logger.With("client_id", id)

	var acquired acquisitions
	defer func() {
		if err == nil {
			return
		}
		if uerr := acquired.unwind(); uerr != nil {
			log.Warn("activation unwind incomplete", "error", uerr)
		}
		log.Warn("activation failed", "error", err)
	}()

	s.threadEventCookie, err = tm.AdviseThreadMgrEventSink(m)
	if err != nil {
		return fmt.Errorf("advise thread event sink: %w", err)
	}
	acquired.push("thread event sink", func() error { return tm.UnadviseSink(s.threadEventCookie) })

	focus, err := m.focusedContext(tm)
	if err != nil {
		return err
	}
	if focus.ctx != nil {
		s.editCookie, err = focus.ctx.AdviseTextEditSink(m)
		if err != nil {
			return fmt.Errorf("advise text edit sink: %w", err)
		}
		s.editCtx = focus.ctx
		ctx, cookie := s.editCtx, s.editCookie
		acquired.push("text edit sink", func() error { return ctx.UnadviseSink(cookie) })
	}

	if err = tm.AdviseKeyEventSink(id, m, true); err != nil {
		return fmt.Errorf("advise key event sink: %w", err)
	}
	acquired.push("key event sink", func() error { return tm.UnadviseKeyEventSink(id) })

	s.threadFocusCookie, err = tm.AdviseThreadFocusSink(m)
	if err != nil {
		return fmt.Errorf("advise thread focus sink: %w", err)
	}
	acquired.push("thread focus sink", func() error { return tm.UnadviseSink(s.threadFocusCookie) })

	if err = tm.AdviseFunctionProvider(id, m); err != nil {
		return fmt.Errorf("advise function provider: %w", err)
	}

	m.exclusive(func() {
		m.session = s
		m.logger = log
		if focus.dm != nil {
			m.lastFocused = focus.dm
		}
	})
	log.Info("ime activated", "edit_context", focus.ctx != nil)
	return nil
}

type focusTarget struct {
	dm  host.DocumentMgr
	ctx host.Context
}

// focusedContext resolves the focused document and its topmost context.
// Having neither is not an error.
func (m *Ime) focusedContext(tm host.ThreadMgr) (focusTarget, error) {
	dm, err := tm.Focus()
	if errors.Is(err, host.ErrNoFocus) || (err == nil && dm == nil) {
		return focusTarget{}, nil
	}
	if err != nil {
		return focusTarget{}, fmt.Errorf("get focus: %w", err)
	}
	ctx, err := dm.Top()
	if errors.Is(err, host.ErrNoContext) {
		return focusTarget{dm: dm}, nil
	}
	if err != nil {
		return focusTarget{}, fmt.Errorf("get top context: %w", err)
	}
	return focusTarget{dm: dm, ctx: ctx}, nil
}

// Deactivate detaches the Ime. Any composition is finished, the text-edit
// subscription released, and then the function provider, thread focus,
// keystroke and thread event subscriptions in that order. Every step runs
// even when an earlier one fails; the first failure is returned.
func (m *Ime) Deactivate() error {
	if !m.Active() {
		return nil
	}

	var errs []error
	if err := m.FinishComposition(nil); err != nil {
		errs = append(errs, fmt.Errorf("finish composition: %w", err))
	}
	if err := m.updateEditSink(nil); err != nil {
		errs = append(errs, err)
	}

	var s *Session
	m.exclusive(func() {
		s, m.session = m.session, nil
	})
	if s == nil {
		return firstOf(errs)
	}
	tm := s.threadMgr

	steps := []release{
		{"function provider", func() error { return tm.UnadviseFunctionProvider(s.clientID) }},
		{"thread focus sink", func() error { return tm.UnadviseSink(s.threadFocusCookie) }},
		{"key event sink", func() error { return tm.UnadviseKeyEventSink(s.clientID) }},
		{"thread event sink", func() error { return tm.UnadviseSink(s.threadEventCookie) }},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", step.name, err))
		}
	}

	log := m.logger
	m.logger = m.base.Logger
	if len(errs) > 0 {
		log.Warn("ime deactivated with errors", "error", errors.Join(errs...))
		return errs[0]
	}
	log.Info("ime deactivated")
	return nil
}

func firstOf(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errs[0]
}
