package host

import "github.com/google/uuid"

// Well-known host identifiers.
var (
	// PropLanguageID is the language attribution property of a range.
	PropLanguageID = uuid.MustParse("3280ce20-8032-11d2-b603-00105a2799b5")

	// CompartmentKeyboardDisabled holds non-zero when keyboard input is
	// disabled for the thread.
	CompartmentKeyboardDisabled = uuid.MustParse("71a5b253-1951-466b-9fbc-9c8808fa84f2")

	// CompartmentEmptyContext holds non-zero when the focused context is a
	// placeholder without editable text.
	CompartmentEmptyContext = uuid.MustParse("d7487dbf-804e-41c5-894d-ad96fd4eea13")
)

// ParseGUID parses a GUID in either braced registry form or plain form.
func ParseGUID(s string) (GUID, error) {
	return uuid.Parse(s)
}
