package ime

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"uokeyboard/internal/host"
	"uokeyboard/internal/keyclass"
	"uokeyboard/internal/logging"
)

var (
	// ErrNotActive is returned by operations that need a Session when the
	// Ime is not attached to a thread.
	ErrNotActive = errors.New("ime not active")

	// ErrAlreadyActive is returned by Activate on an attached Ime.
	ErrAlreadyActive = errors.New("ime already active")
)

// DefaultLanguageID is Bangla (Bangladesh).
const DefaultLanguageID uint16 = 0x0845

// Converter turns romanized input into script.
type Converter interface {
	Convert(input string) string
}

// Classifier maps key codes to categories under the live keyboard state.
type Classifier interface {
	Classify(code uint16) keyclass.Category
}

// CommitObserver is told about every non-empty composition that leaves the
// session, with the romanized input and what it rendered as.
type CommitObserver interface {
	OnCommit(session uuid.UUID, input, output string) error
}

// Options configures an Ime.
type Options struct {
	// Converter renders composition input. Required.
	Converter Converter

	// Classifier classifies key codes. Required.
	Classifier Classifier

	// Emitter re-injects delimiter keys after a commit. Required.
	Emitter host.KeystrokeEmitter

	// Observer, if set, receives committed compositions.
	Observer CommitObserver

	// LanguageID tags rendered text. Zero means DefaultLanguageID.
	LanguageID uint16

	// CLSID is reported by the function provider.
	CLSID host.GUID

	// Description is reported by the function provider.
	Description string

	// Logger defaults to logging.Default(). Session loggers derive from it.
	Logger *logging.Logger
}

// Session is the attachment of an Ime to one input thread.
type Session struct {
	ID        uuid.UUID
	threadMgr host.ThreadMgr
	clientID  host.ClientID

	threadEventCookie host.Cookie
	threadFocusCookie host.Cookie

	editCtx    host.Context
	editCookie host.Cookie

	composition *Composition
}

// Composition is the in-progress input and its anchor in the document.
type Composition struct {
	anchor host.Composition
	ctx    host.Context
	input  []rune
	output string // last rendered text
}

// Ime is a text service instance.
type Ime struct {
	converter  Converter
	classifier Classifier
	emitter    host.KeystrokeEmitter
	observer   CommitObserver
	langID     uint16
	clsid      host.GUID
	desc       string
	base       *logging.Logger
	logger     *slog.Logger // session tagged while active

	busy        atomic.Bool
	session     *Session
	lastFocused host.DocumentMgr
}

// New creates an unattached Ime.
func New(opts Options) (*Ime, error) {
	switch {
	case opts.Converter == nil:
		return nil, errors.New("ime: converter is required")
	case opts.Classifier == nil:
		return nil, errors.New("ime: classifier is required")
	case opts.Emitter == nil:
		return nil, errors.New("ime: keystroke emitter is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	base := logger.WithComponent("ime")
	langID := opts.LanguageID
	if langID == 0 {
		langID = DefaultLanguageID
	}

	return &Ime{
		converter:  opts.Converter,
		classifier: opts.Classifier,
		emitter:    opts.Emitter,
		observer:   opts.Observer,
		langID:     langID,
		clsid:      opts.CLSID,
		desc:       opts.Description,
		base:       base,
		logger:     base.Logger,
	}, nil
}

// exclusive runs fn with exclusive access to the session state. fn must not
// call into the host.
func (m *Ime) exclusive(fn func()) {
	if !m.busy.CompareAndSwap(false, true) {
		panic("ime: overlapping access to session state")
	}
	defer m.busy.Store(false)
	fn()
}

// Active reports whether the Ime is attached to a thread.
func (m *Ime) Active() (active bool) {
	m.exclusive(func() { active = m.session != nil })
	return active
}

// SessionID returns the id of the current session, or uuid.Nil.
func (m *Ime) SessionID() (id uuid.UUID) {
	m.exclusive(func() {
		if m.session != nil {
			id = m.session.ID
		}
	})
	return id
}

// Composing reports whether a composition is live.
func (m *Ime) Composing() (composing bool) {
	m.exclusive(func() { composing = m.session != nil && m.session.composition != nil })
	return composing
}

// Input returns the romanized input of the live composition.
func (m *Ime) Input() (input string) {
	m.exclusive(func() {
		if c := m.composition(); c != nil {
			input = string(c.input)
		}
	})
	return input
}

// EditContext returns the context currently subscribed for edit
// notifications, or nil.
func (m *Ime) EditContext() (ctx host.Context) {
	m.exclusive(func() {
		if m.session != nil {
			ctx = m.session.editCtx
		}
	})
	return ctx
}

// LastFocused returns the document that most recently received focus.
func (m *Ime) LastFocused() (dm host.DocumentMgr) {
	m.exclusive(func() { dm = m.lastFocused })
	return dm
}

// composition must be called under exclusive.
func (m *Ime) composition() *Composition {
	if m.session == nil {
		return nil
	}
	return m.session.composition
}

// clientID returns the client id and reports whether a session exists.
func (m *Ime) clientID() (id host.ClientID, ok bool) {
	m.exclusive(func() {
		if m.session != nil {
			id, ok = m.session.clientID, true
		}
	})
	return id, ok
}

// takeComposition detaches the live composition from the session.
func (m *Ime) takeComposition() (c *Composition) {
	m.exclusive(func() {
		if m.session != nil {
			c = m.session.composition
			m.session.composition = nil
		}
	})
	return c
}

func (m *Ime) notifyCommit(c *Composition) {
	if m.observer == nil || len(c.input) == 0 {
		return
	}
	input := string(c.input)
	id := m.SessionID()
	if err := m.observer.OnCommit(id, input, c.output); err != nil {
		m.logger.Warn("commit observer failed", "input", input, "error", err)
	}
}

var (
	_ host.KeyEventSink       = (*Ime)(nil)
	_ host.TextEditSink       = (*Ime)(nil)
	_ host.ThreadMgrEventSink = (*Ime)(nil)
	_ host.ThreadFocusSink    = (*Ime)(nil)
	_ host.CompositionSink    = (*Ime)(nil)
	_ host.FunctionProvider   = (*Ime)(nil)
)
