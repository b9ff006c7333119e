// Package translit converts romanized keystroke sequences to Bangla script.
//
// Conversion is table driven. A Table lists find/replace rules; the Engine
// scans its input left to right and at each position applies the longest
// rule whose pattern matches. Vowel rules carry a dependent sign (kar) that
// is used instead of the independent letter when the vowel follows a
// consonant.
//
// Letters are matched case-insensitively unless a rule pattern mentions the
// upper-case form, in which case both cases are distinct.
//
// An Engine is immutable and safe for concurrent use. Reloadable wraps one
// so a Watcher can swap in a new table when the rule file changes.
package translit

import (
	"fmt"
	"strings"
	"sync/atomic"
	"unicode"
)

// Converter is a pure text-to-text transliteration function.
type Converter interface {
	Convert(input string) string
}

// Rule kinds.
const (
	KindConsonant = "consonant"
	KindVowel     = "vowel"
	KindSymbol    = "symbol"
)

// Engine applies a rule table with longest-match-wins.
type Engine struct {
	name   string
	rules  map[string]Rule
	maxLen int
	keep   map[rune]bool
}

// New compiles a table into an Engine.
func New(t *Table) (*Engine, error) {
	if t == nil || len(t.Rules) == 0 {
		return nil, fmt.Errorf("rule table %q has no rules", nameOf(t))
	}

	e := &Engine{
		name:  t.Name,
		rules: make(map[string]Rule, len(t.Rules)),
		keep:  make(map[rune]bool),
	}
	for i, r := range t.Rules {
		if r.Find == "" {
			return nil, fmt.Errorf("rule %d: empty pattern", i)
		}
		if _, dup := e.rules[r.Find]; dup {
			return nil, fmt.Errorf("rule %d: duplicate pattern %q", i, r.Find)
		}
		switch r.Kind {
		case "", KindSymbol, KindConsonant, KindVowel:
		default:
			return nil, fmt.Errorf("rule %d: unknown kind %q", i, r.Kind)
		}
		e.rules[r.Find] = r
		if n := len([]rune(r.Find)); n > e.maxLen {
			e.maxLen = n
		}
		for _, ch := range r.Find {
			if unicode.IsUpper(ch) {
				e.keep[ch] = true
			}
		}
	}
	return e, nil
}

func nameOf(t *Table) string {
	if t == nil {
		return ""
	}
	return t.Name
}

// Name returns the table name the engine was built from.
func (e *Engine) Name() string { return e.name }

// Rules returns the number of rules.
func (e *Engine) Rules() int { return len(e.rules) }

func (e *Engine) fold(in string) []rune {
	runes := []rune(in)
	for i, ch := range runes {
		if unicode.IsUpper(ch) && !e.keep[ch] {
			runes[i] = unicode.ToLower(ch)
		}
	}
	return runes
}

// Convert implements Converter.
func (e *Engine) Convert(input string) string {
	runes := e.fold(input)

	var out strings.Builder
	afterConsonant := false
	for i := 0; i < len(runes); {
		rule, n := e.match(runes[i:])
		if n == 0 {
			out.WriteRune(runes[i])
			afterConsonant = false
			i++
			continue
		}

		switch rule.Kind {
		case KindVowel:
			if afterConsonant && rule.Kar != nil {
				out.WriteString(*rule.Kar)
			} else {
				out.WriteString(rule.Replace)
			}
			afterConsonant = false
		case KindConsonant:
			out.WriteString(rule.Replace)
			afterConsonant = true
		default:
			out.WriteString(rule.Replace)
			afterConsonant = false
		}
		i += n
	}
	return out.String()
}

func (e *Engine) match(runes []rune) (Rule, int) {
	for n := min(e.maxLen, len(runes)); n > 0; n-- {
		if r, ok := e.rules[string(runes[:n])]; ok {
			return r, n
		}
	}
	return Rule{}, 0
}

// Reloadable is a Converter whose engine can be replaced at any time.
// Each Convert call sees exactly one engine.
type Reloadable struct {
	cur atomic.Pointer[Engine]
}

// NewReloadable returns a Reloadable starting with e.
func NewReloadable(e *Engine) *Reloadable {
	r := &Reloadable{}
	r.cur.Store(e)
	return r
}

// Engine returns the current engine.
func (r *Reloadable) Engine() *Engine { return r.cur.Load() }

// Swap replaces the engine and returns the previous one.
func (r *Reloadable) Swap(e *Engine) *Engine { return r.cur.Swap(e) }

// Convert implements Converter.
func (r *Reloadable) Convert(input string) string {
	return r.cur.Load().Convert(input)
}

// Func adapts a plain function to Converter.
type Func func(string) string

// Convert implements Converter.
func (f Func) Convert(input string) string { return f(input) }

var (
	_ Converter = (*Engine)(nil)
	_ Converter = (*Reloadable)(nil)
	_ Converter = Func(nil)
)
