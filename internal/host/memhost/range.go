package memhost

import (
	"cmp"

	"uokeyboard/internal/host"
)

// Range is a live span of a Context. Edits elsewhere in the document shift
// it; replacing its own text makes it cover exactly the new text.
type Range struct {
	ctx        *Context
	start, end int
}

// Offsets returns the rune offsets the range currently covers.
func (r *Range) Offsets() (start, end int) { return r.start, r.end }

// Text implements host.Range.
func (r *Range) Text(ec host.EditCookie) (string, error) {
	if err := r.ctx.checkRead(ec); err != nil {
		return "", err
	}
	return string(r.ctx.text[r.start:r.end]), nil
}

// SetText implements host.Range.
func (r *Range) SetText(ec host.EditCookie, text string) error {
	if err := r.ctx.checkWrite(ec); err != nil {
		return err
	}
	if err := r.ctx.faults.check("SetText"); err != nil {
		return err
	}
	r.ctx.replace(r, r.start, r.end, []rune(text))
	return nil
}

// Collapse implements host.Range.
func (r *Range) Collapse(ec host.EditCookie, a host.Anchor) error {
	if err := r.ctx.checkRead(ec); err != nil {
		return err
	}
	if a == host.AnchorStart {
		r.end = r.start
	} else {
		r.start = r.end
	}
	return nil
}

// Clone implements host.Range.
func (r *Range) Clone() (host.Range, error) {
	return r.ctx.newRange(r.start, r.end), nil
}

func (r *Range) anchorOf(other host.Range, a host.Anchor) (int, error) {
	o, err := r.ctx.own(other)
	if err != nil {
		return 0, err
	}
	if a == host.AnchorStart {
		return o.start, nil
	}
	return o.end, nil
}

// CompareStart implements host.Range.
func (r *Range) CompareStart(ec host.EditCookie, other host.Range, a host.Anchor) (int, error) {
	if err := r.ctx.checkRead(ec); err != nil {
		return 0, err
	}
	p, err := r.anchorOf(other, a)
	if err != nil {
		return 0, err
	}
	return cmp.Compare(r.start, p), nil
}

// CompareEnd implements host.Range.
func (r *Range) CompareEnd(ec host.EditCookie, other host.Range, a host.Anchor) (int, error) {
	if err := r.ctx.checkRead(ec); err != nil {
		return 0, err
	}
	p, err := r.anchorOf(other, a)
	if err != nil {
		return 0, err
	}
	return cmp.Compare(r.end, p), nil
}

// IsEmpty implements host.Range.
func (r *Range) IsEmpty(ec host.EditCookie) (bool, error) {
	if err := r.ctx.checkRead(ec); err != nil {
		return false, err
	}
	return r.start == r.end, nil
}

// Composition is the host side of a composition started on a Context.
type Composition struct {
	ctx    *Context
	rng    *Range
	sink   host.CompositionSink
	active bool
}

// Active reports whether the composition is still live.
func (c *Composition) Active() bool { return c.active }

// Range implements host.Composition. The returned range is the
// composition's own live range.
func (c *Composition) Range() (host.Range, error) {
	return c.rng, nil
}

// End implements host.Composition.
func (c *Composition) End(ec host.EditCookie) error {
	if !c.active {
		return host.ErrAlreadyEnded
	}
	if err := c.ctx.checkWrite(ec); err != nil {
		return err
	}
	if err := c.ctx.faults.check("EndComposition"); err != nil {
		return err
	}
	c.ctx.dropComposition(c)
	return nil
}

var (
	_ host.Range       = (*Range)(nil)
	_ host.Composition = (*Composition)(nil)
)
