package main

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"uokeyboard/internal/keyclass"
)

// keyStroke is one step of a simulated typing sequence.
type keyStroke struct {
	label      string
	code       uint16
	shift      bool
	toggleCaps bool
}

var escapeKeys = map[string]uint16{
	"bs":    keyclass.VKBack,
	"space": keyclass.VKSpace,
	"enter": keyclass.VKReturn,
	"tab":   keyclass.VKTab,
	"np.":   keyclass.VKDecimal,
}

// shiftedSymbols is the US number row with shift held.
const shiftedSymbols = ")!@#$%^&*("

// parseKeys turns a key string into strokes. Printable characters map to
// the US layout key that types them, holding shift where needed. {shift}
// shifts the next key and {caps} toggles caps lock.
func parseKeys(s string) ([]keyStroke, error) {
	var (
		keys      []keyStroke
		shiftNext bool
	)
	for rest := s; rest != ""; {
		var (
			k   keyStroke
			err error
		)
		if rest[0] == '{' {
			end := strings.IndexByte(rest, '}')
			if end < 0 {
				return nil, fmt.Errorf("unterminated escape in %q", rest)
			}
			name := rest[1:end]
			rest = rest[end+1:]
			switch {
			case name == "shift":
				shiftNext = true
				continue
			case name == "caps":
				k = keyStroke{label: "{caps}", toggleCaps: true}
			case len(name) == 3 && strings.HasPrefix(name, "np") && name[2] >= '0' && name[2] <= '9':
				k = keyStroke{label: "{" + name + "}", code: keyclass.VKNumpad0 + uint16(name[2]-'0')}
			default:
				code, ok := escapeKeys[name]
				if !ok {
					return nil, fmt.Errorf("unknown key {%s}", name)
				}
				k = keyStroke{label: "{" + name + "}", code: code}
			}
		} else {
			r, size := utf8.DecodeRuneInString(rest)
			rest = rest[size:]
			if k, err = printableKey(r); err != nil {
				return nil, err
			}
		}

		if shiftNext && !k.toggleCaps {
			k.shift = true
			shiftNext = false
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func printableKey(r rune) (keyStroke, error) {
	k := keyStroke{label: string(r)}
	switch {
	case r >= 'a' && r <= 'z':
		k.code = keyclass.VKA + uint16(r-'a')
	case r >= 'A' && r <= 'Z':
		k.code, k.shift = uint16(r), true
	case r >= '0' && r <= '9':
		k.code = uint16(r)
	case r == '.':
		k.code = keyclass.VKPeriod
	case r == ' ':
		k.code, k.label = keyclass.VKSpace, "{space}"
	case strings.ContainsRune(shiftedSymbols, r):
		k.code, k.shift = keyclass.VK0+uint16(strings.IndexRune(shiftedSymbols, r)), true
	default:
		for code, ch := range keyclass.USLayout {
			if ch == r {
				k.code = code
				return k, nil
			}
		}
		return k, fmt.Errorf("no key types %q", r)
	}
	return k, nil
}
