package host

import "errors"

var (
	// ErrAlreadyEnded is returned when ending a composition the host has
	// already terminated.
	ErrAlreadyEnded = errors.New("composition already ended")

	// ErrNoContext is returned by DocumentMgr.Top when the stack is empty.
	ErrNoContext = errors.New("no context")

	// ErrNoFocus is returned by ThreadMgr.Focus when no document has focus.
	ErrNoFocus = errors.New("no focused document")

	// ErrEditDenied is returned when an edit session is requested while
	// another transaction is in flight.
	ErrEditDenied = errors.New("edit session denied")

	// ErrNoSelection is returned when a context has no selection.
	ErrNoSelection = errors.New("no selection")

	// ErrInvalidCookie is returned for stale edit cookies and unknown
	// subscription cookies.
	ErrInvalidCookie = errors.New("invalid cookie")

	// ErrNotImplemented is returned by notifications a sink does not handle.
	ErrNotImplemented = errors.New("not implemented")

	// ErrNoInterface is returned for unknown function requests.
	ErrNoInterface = errors.New("no such interface")

	// ErrEmptyCompartment is returned for compartments holding no value.
	ErrEmptyCompartment = errors.New("empty compartment")
)
