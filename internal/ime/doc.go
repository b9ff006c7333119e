// Package ime is the composition state machine of the keyboard.
//
// An Ime attaches to one input thread of a text-services host. While
// attached it holds a Session: the host subscriptions it acquired, the
// context currently subscribed for edit notifications, and at most one live
// Composition. A Composition is the romanized input typed so far plus the
// host range that shows its converted form.
//
// Keystrokes arrive through the host.KeyEventSink methods. Each one is
// classified and mapped to one of four lifecycle operations (AddSingleChar,
// AppendChar, PopChar, FinishComposition), and each operation runs as a
// single synchronous host edit session.
//
// The host calls back into the Ime synchronously, sometimes from inside
// another call. Session state is therefore only touched under a short
// exclusive borrow that is never held across a host call; overlapping
// borrows are a programming error and panic.
package ime
