// Package memhost is an in-memory implementation of the host contracts in
// package host. It models one input thread: a thread manager, document
// managers with context stacks, live-range text documents, exclusive edit
// transactions, compartments and key delivery.
//
// Every host call can be made to fail with Fail, and the thread manager keeps
// a ledger of subscription calls so callers can check acquisition and
// release order.
package memhost

import (
	"errors"
	"fmt"
	"slices"

	"uokeyboard/internal/host"
)

type faults map[string]error

func (f faults) check(op string) error {
	if err, ok := f[op]; ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DocumentMgr is a stack of contexts.
type DocumentMgr struct {
	name  string
	stack []*Context
}

// NewDocumentMgr creates a document manager with the given contexts pushed
// bottom first.
func NewDocumentMgr(name string, contexts ...*Context) *DocumentMgr {
	return &DocumentMgr{name: name, stack: contexts}
}

func (d *DocumentMgr) String() string { return "document(" + d.name + ")" }

// Push pushes ctx on top of the stack.
func (d *DocumentMgr) Push(ctx *Context) { d.stack = append(d.stack, ctx) }

// Pop removes the topmost context.
func (d *DocumentMgr) Pop() {
	if len(d.stack) > 0 {
		d.stack = d.stack[:len(d.stack)-1]
	}
}

// Top implements host.DocumentMgr.
func (d *DocumentMgr) Top() (host.Context, error) {
	if len(d.stack) == 0 {
		return nil, host.ErrNoContext
	}
	return d.stack[len(d.stack)-1], nil
}

// Compartment is a thread-manager value slot.
type Compartment struct {
	value *int32
}

// Value implements host.Compartment.
func (c *Compartment) Value() (int32, error) {
	if c.value == nil {
		return 0, host.ErrEmptyCompartment
	}
	return *c.value, nil
}

type sinkKind string

const (
	kindThreadMgrEvent sinkKind = "thread-event"
	kindThreadFocus    sinkKind = "thread-focus"
)

type threadSink struct {
	kind sinkKind
	sink any
}

// ThreadMgr is an in-memory thread manager.
type ThreadMgr struct {
	focus *DocumentMgr

	sinks    map[host.Cookie]threadSink
	nextSink host.Cookie

	keySinks   map[host.ClientID]host.KeyEventSink
	foreground host.ClientID
	providers  map[host.ClientID]host.FunctionProvider

	compartments map[host.GUID]*Compartment

	// Native maps key codes to the character the application inserts for
	// keys no text service eats.
	Native func(code uint16) rune

	pending []host.KeyEvent
	faults  faults
	ledger  []string
}

// NewThreadMgr creates a thread manager with no focused document.
func NewThreadMgr() *ThreadMgr {
	return &ThreadMgr{
		sinks:        make(map[host.Cookie]threadSink),
		keySinks:     make(map[host.ClientID]host.KeyEventSink),
		providers:    make(map[host.ClientID]host.FunctionProvider),
		compartments: make(map[host.GUID]*Compartment),
		faults:       make(faults),
	}
}

// Fail makes every later call of op fail with err until Heal is called.
func (t *ThreadMgr) Fail(op string, err error) { t.faults[op] = err }

// Heal removes an injected failure.
func (t *ThreadMgr) Heal(op string) { delete(t.faults, op) }

// Ledger returns the subscription calls made so far, failed ones included.
func (t *ThreadMgr) Ledger() []string { return slices.Clone(t.ledger) }

// ResetLedger clears the ledger.
func (t *ThreadMgr) ResetLedger() { t.ledger = nil }

// Subscriptions returns the number of live thread-level subscriptions of
// every kind.
func (t *ThreadMgr) Subscriptions() int {
	return len(t.sinks) + len(t.keySinks) + len(t.providers)
}

// Provider returns the function provider registered by id.
func (t *ThreadMgr) Provider(id host.ClientID) host.FunctionProvider { return t.providers[id] }

func (t *ThreadMgr) record(op string) error {
	t.ledger = append(t.ledger, op)
	return t.faults.check(op)
}

// SetCompartment stores v in the compartment id.
func (t *ThreadMgr) SetCompartment(id host.GUID, v int32) {
	t.compartments[id] = &Compartment{value: &v}
}

// SetFocus moves focus to dm (nil clears it) and notifies thread event sinks.
func (t *ThreadMgr) SetFocus(dm *DocumentMgr) error {
	prev := t.focus
	t.focus = dm

	var errs []error
	for _, ts := range t.sinksOf(kindThreadMgrEvent) {
		sink := ts.(host.ThreadMgrEventSink)
		if err := sink.OnSetFocus(docOrNil(dm), docOrNil(prev)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func docOrNil(dm *DocumentMgr) host.DocumentMgr {
	if dm == nil {
		return nil
	}
	return dm
}

func (t *ThreadMgr) sinksOf(kind sinkKind) []any {
	keys := make([]host.Cookie, 0, len(t.sinks))
	for k, s := range t.sinks {
		if s.kind == kind {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	out := make([]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, t.sinks[k].sink)
	}
	return out
}

// Focus implements host.ThreadMgr.
func (t *ThreadMgr) Focus() (host.DocumentMgr, error) {
	if err := t.faults.check("Focus"); err != nil {
		return nil, err
	}
	if t.focus == nil {
		return nil, host.ErrNoFocus
	}
	return t.focus, nil
}

func (t *ThreadMgr) advise(kind sinkKind, sink any) (host.Cookie, error) {
	if err := t.record("Advise:" + string(kind)); err != nil {
		return host.InvalidCookie, err
	}
	t.nextSink++
	t.sinks[t.nextSink] = threadSink{kind: kind, sink: sink}
	return t.nextSink, nil
}

// AdviseThreadMgrEventSink implements host.ThreadMgr.
func (t *ThreadMgr) AdviseThreadMgrEventSink(sink host.ThreadMgrEventSink) (host.Cookie, error) {
	return t.advise(kindThreadMgrEvent, sink)
}

// AdviseThreadFocusSink implements host.ThreadMgr.
func (t *ThreadMgr) AdviseThreadFocusSink(sink host.ThreadFocusSink) (host.Cookie, error) {
	return t.advise(kindThreadFocus, sink)
}

// UnadviseSink implements host.ThreadMgr.
func (t *ThreadMgr) UnadviseSink(c host.Cookie) error {
	ts, ok := t.sinks[c]
	op := "Unadvise:unknown"
	if ok {
		op = "Unadvise:" + string(ts.kind)
	}
	if err := t.record(op); err != nil {
		return err
	}
	if !ok {
		return host.ErrInvalidCookie
	}
	delete(t.sinks, c)
	return nil
}

// AdviseKeyEventSink implements host.ThreadMgr.
func (t *ThreadMgr) AdviseKeyEventSink(id host.ClientID, sink host.KeyEventSink, foreground bool) error {
	if err := t.record("Advise:keystroke"); err != nil {
		return err
	}
	t.keySinks[id] = sink
	if foreground {
		t.foreground = id
		// The notification result does not affect the subscription.
		_ = sink.OnForeground(true)
	}
	return nil
}

// UnadviseKeyEventSink implements host.ThreadMgr.
func (t *ThreadMgr) UnadviseKeyEventSink(id host.ClientID) error {
	if err := t.record("Unadvise:keystroke"); err != nil {
		return err
	}
	if _, ok := t.keySinks[id]; !ok {
		return host.ErrInvalidCookie
	}
	delete(t.keySinks, id)
	if t.foreground == id {
		t.foreground = 0
	}
	return nil
}

// AdviseFunctionProvider implements host.ThreadMgr.
func (t *ThreadMgr) AdviseFunctionProvider(id host.ClientID, p host.FunctionProvider) error {
	if err := t.record("Advise:function-provider"); err != nil {
		return err
	}
	t.providers[id] = p
	return nil
}

// UnadviseFunctionProvider implements host.ThreadMgr.
func (t *ThreadMgr) UnadviseFunctionProvider(id host.ClientID) error {
	if err := t.record("Unadvise:function-provider"); err != nil {
		return err
	}
	if _, ok := t.providers[id]; !ok {
		return host.ErrInvalidCookie
	}
	delete(t.providers, id)
	return nil
}

// Compartment implements host.ThreadMgr.
func (t *ThreadMgr) Compartment(id host.GUID) (host.Compartment, error) {
	if err := t.faults.check("Compartment"); err != nil {
		return nil, err
	}
	if c, ok := t.compartments[id]; ok {
		return c, nil
	}
	return &Compartment{}, nil
}

// Emit queues a synthetic keystroke. Queued keys are delivered after the
// key currently being processed, as the OS does with injected input.
func (t *ThreadMgr) Emit(key host.KeyEvent) error {
	t.pending = append(t.pending, key)
	return nil
}

// PressKey delivers a key-down to the foreground key sink the way the
// keystroke manager does: the test call decides whether the full call runs.
// Keys no sink eats are typed natively into the focused context. Injected
// keys are drained afterwards.
func (t *ThreadMgr) PressKey(key host.KeyEvent) (eaten bool, err error) {
	eaten, err = t.deliver(key)
	for err == nil && len(t.pending) > 0 {
		next := t.pending[0]
		t.pending = t.pending[1:]
		_, err = t.deliver(next)
	}
	t.pending = nil
	return eaten, err
}

func (t *ThreadMgr) focusedContext() *Context {
	if t.focus == nil {
		return nil
	}
	top, err := t.focus.Top()
	if err != nil {
		return nil
	}
	return top.(*Context)
}

func (t *ThreadMgr) deliver(key host.KeyEvent) (bool, error) {
	ctx := t.focusedContext()
	var hctx host.Context
	if ctx != nil {
		hctx = ctx
	}

	eaten := false
	if sink, ok := t.keySinks[t.foreground]; ok && t.foreground != 0 {
		test, err := sink.OnTestKeyDown(hctx, key)
		if err != nil {
			return false, err
		}
		if test {
			eaten, err = sink.OnKeyDown(hctx, key)
			if err != nil {
				return eaten, err
			}
		}
	}

	if !eaten && ctx != nil && t.Native != nil {
		if ch := t.Native(key.Code); ch != 0 {
			return false, ctx.Type(string(ch))
		}
	}
	return eaten, nil
}

var (
	_ host.ThreadMgr        = (*ThreadMgr)(nil)
	_ host.DocumentMgr      = (*DocumentMgr)(nil)
	_ host.KeystrokeEmitter = (*ThreadMgr)(nil)
)
