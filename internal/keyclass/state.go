package keyclass

// StaticReader is a StateReader with fixed state. Layout maps key codes to
// the characters Translate returns.
type StaticReader struct {
	State  Snapshot
	Layout map[uint16]rune
}

// Snapshot implements StateReader.
func (r *StaticReader) Snapshot() Snapshot {
	return r.State
}

// Translate implements StateReader.
func (r *StaticReader) Translate(code uint16) rune {
	return r.Layout[code]
}

// USLayout is the unshifted US layout for the keys the classifier does not
// handle itself.
var USLayout = map[uint16]rune{
	VKOEMComma: ',',
	VKOEMMinus: '-',
	0xBA:       ';',
	0xBB:       '=',
	0xBF:       '/',
	0xC0:       '`',
	0xDB:       '[',
	0xDC:       '\\',
	0xDD:       ']',
	0xDE:       '\'',
}
