// Package host defines the contracts between the input method core and the
// text-editing surface that hosts it.
//
// The shapes follow the Text Services Framework: a thread manager hands out
// document managers, each document manager stacks editable contexts, and
// every mutation of a context happens inside a synchronous edit session that
// the host grants with an edit cookie. Ranges are live: they track the text
// they cover as the document changes.
//
// Nothing here is implemented by the core. A Windows host adapts the real
// COM interfaces; package memhost implements them in memory.
package host

import (
	"github.com/google/uuid"
)

// GUID identifies classes, profiles, properties and compartments.
type GUID = uuid.UUID

// EditCookie is the token the host passes into an edit session. It is only
// valid for the duration of that session.
type EditCookie uint32

// Cookie identifies a sink subscription.
type Cookie uint32

// InvalidCookie is the cookie value of no subscription.
const InvalidCookie Cookie = 0xFFFFFFFF

// ClientID is the identifier the host assigns to an activated text service.
type ClientID uint32

// Anchor selects one end of a range.
type Anchor int

const (
	AnchorStart Anchor = iota
	AnchorEnd
)

// ActiveEnd describes which end of a selection moves with the caret.
type ActiveEnd int

const (
	ActiveEndNone ActiveEnd = iota
	ActiveEndStart
	ActiveEndEnd
)

// SelectionStyle is the rendering style of a selection.
type SelectionStyle struct {
	ActiveEnd   ActiveEnd
	InterimChar bool
}

// Selection is a range plus its style.
type Selection struct {
	Range Range
	Style SelectionStyle
}

// Range is a live span of text in a context.
type Range interface {
	// Text returns the covered text.
	Text(ec EditCookie) (string, error)

	// SetText replaces the covered text. Afterwards the range covers exactly
	// the new text.
	SetText(ec EditCookie, text string) error

	// Collapse shrinks the range to an empty range at the given anchor.
	Collapse(ec EditCookie, a Anchor) error

	// Clone returns an independent range covering the same span.
	Clone() (Range, error)

	// CompareStart compares the start of this range with the given anchor
	// of other: negative if before, zero if equal, positive if after.
	CompareStart(ec EditCookie, other Range, a Anchor) (int, error)

	// CompareEnd compares the end of this range with the given anchor of
	// other.
	CompareEnd(ec EditCookie, other Range, a Anchor) (int, error)

	// IsEmpty reports whether the range covers no text.
	IsEmpty(ec EditCookie) (bool, error)
}

// EditSession is run by the host inside an exclusive read/write edit
// transaction.
type EditSession func(ec EditCookie) error

// Composition is the host side of an in-progress composition.
type Composition interface {
	// Range returns the range the composition covers.
	Range() (Range, error)

	// End ends the composition. It returns ErrAlreadyEnded when the host
	// already rescinded it.
	End(ec EditCookie) error
}

// Context is an editable text surface.
type Context interface {
	// RequestEditSession runs session synchronously inside a read/write
	// transaction. It fails with ErrEditDenied when another transaction is
	// already in flight on this context.
	RequestEditSession(id ClientID, session EditSession) error

	// Selection returns the default selection.
	Selection(ec EditCookie) (Selection, error)

	// SetSelection replaces the default selection.
	SetSelection(ec EditCookie, sel Selection) error

	// QueryInsertAtSelection returns the range text would be inserted at,
	// without inserting anything.
	QueryInsertAtSelection(ec EditCookie) (Range, error)

	// StartComposition starts a composition anchored at r. sink is told
	// when the host terminates the composition on its own.
	StartComposition(ec EditCookie, r Range, sink CompositionSink) (Composition, error)

	// SetProperty sets an int32 property over a range.
	SetProperty(ec EditCookie, prop GUID, r Range, value int32) error

	// AdviseTextEditSink subscribes sink to edit-completed notifications.
	AdviseTextEditSink(sink TextEditSink) (Cookie, error)

	// UnadviseSink releases a subscription made on this context.
	UnadviseSink(c Cookie) error
}

// DocumentMgr owns a stack of contexts.
type DocumentMgr interface {
	// Top returns the topmost context, or ErrNoContext.
	Top() (Context, error)
}

// Compartment is a shared value slot owned by the thread manager.
type Compartment interface {
	// Value returns the stored value, or ErrEmptyCompartment.
	Value() (int32, error)
}

// ThreadMgr is the per-thread host manager a text service attaches to.
type ThreadMgr interface {
	// Focus returns the focused document manager, or ErrNoFocus.
	Focus() (DocumentMgr, error)

	AdviseThreadMgrEventSink(sink ThreadMgrEventSink) (Cookie, error)
	AdviseThreadFocusSink(sink ThreadFocusSink) (Cookie, error)
	UnadviseSink(c Cookie) error

	AdviseKeyEventSink(id ClientID, sink KeyEventSink, foreground bool) error
	UnadviseKeyEventSink(id ClientID) error

	AdviseFunctionProvider(id ClientID, p FunctionProvider) error
	UnadviseFunctionProvider(id ClientID) error

	// Compartment returns the compartment with the given id.
	Compartment(id GUID) (Compartment, error)
}

// KeyEvent is a raw key event as delivered by the host.
type KeyEvent struct {
	// Code is the virtual key code.
	Code uint16

	// Flags carries the platform-specific extra data (lParam on Windows).
	Flags uint64
}

// ScanCode extracts the hardware scan code from Flags.
func (k KeyEvent) ScanCode() uint16 {
	return uint16(k.Flags >> 16)
}

// KeyEventSink receives keystrokes.
type KeyEventSink interface {
	OnForeground(foreground bool) error
	OnTestKeyDown(ctx Context, key KeyEvent) (bool, error)
	OnTestKeyUp(ctx Context, key KeyEvent) (bool, error)
	OnKeyDown(ctx Context, key KeyEvent) (bool, error)
	OnKeyUp(ctx Context, key KeyEvent) (bool, error)
	OnPreservedKey(ctx Context, id GUID) (bool, error)
}

// EditRecord describes a completed edit.
type EditRecord interface {
	// SelectionOnly reports whether the edit only moved the selection.
	SelectionOnly() (bool, error)
}

// TextEditSink is told whenever a write transaction on a context ends.
type TextEditSink interface {
	OnEndEdit(ctx Context, ec EditCookie, rec EditRecord) error
}

// ThreadMgrEventSink receives document focus and lifecycle notifications.
type ThreadMgrEventSink interface {
	OnInitDocumentMgr(dm DocumentMgr) error
	OnUninitDocumentMgr(dm DocumentMgr) error
	OnSetFocus(focus, prev DocumentMgr) error
	OnPushContext(ctx Context) error
	OnPopContext(ctx Context) error
}

// ThreadFocusSink is told when the thread gains or loses focus.
type ThreadFocusSink interface {
	OnSetThreadFocus() error
	OnKillThreadFocus() error
}

// CompositionSink is told when the host terminates a composition.
type CompositionSink interface {
	OnCompositionTerminated(ec EditCookie, c Composition) error
}

// FunctionProvider exposes optional functions of a text service.
type FunctionProvider interface {
	Type() GUID
	Description() (string, error)
	Function(id GUID) (any, error)
}

// KeystrokeEmitter re-injects a keystroke into the host's normal input path.
type KeystrokeEmitter interface {
	Emit(key KeyEvent) error
}
