package memhost

import (
	"errors"
	"fmt"
	"slices"

	"uokeyboard/internal/host"
)

// Context is an in-memory editable text surface.
type Context struct {
	name string

	text   []rune
	ranges map[*Range]struct{}

	sel      *Range
	selStyle host.SelectionStyle

	props map[host.GUID][]propSpan

	inWrite     bool
	writeCookie host.EditCookie
	readCookie  host.EditCookie
	nextCookie  host.EditCookie
	textChanged bool

	sinks      map[host.Cookie]host.TextEditSink
	nextSink   host.Cookie
	comps      []*Composition
	faults     faults
	sinkErrors []error
}

type propSpan struct {
	r     *Range
	value int32
}

// NewContext creates an empty context with the caret at offset 0.
func NewContext(name string) *Context {
	c := &Context{
		name:   name,
		ranges: make(map[*Range]struct{}),
		props:  make(map[host.GUID][]propSpan),
		sinks:  make(map[host.Cookie]host.TextEditSink),
		faults: make(faults),
	}
	c.sel = c.newRange(0, 0)
	return c
}

func (c *Context) String() string {
	return "context(" + c.name + ")"
}

// Fail makes every later call of op fail with err until Heal is called.
func (c *Context) Fail(op string, err error) { c.faults[op] = err }

// Heal removes an injected failure.
func (c *Context) Heal(op string) { delete(c.faults, op) }

// Text returns the whole document text.
func (c *Context) Text() string { return string(c.text) }

// SelectionOffsets returns the current selection as rune offsets.
func (c *Context) SelectionOffsets() (start, end int) { return c.sel.start, c.sel.end }

// SelectionStyle returns the style of the current selection.
func (c *Context) SelectionStyle() host.SelectionStyle { return c.selStyle }

// ActiveCompositions returns the number of live compositions.
func (c *Context) ActiveCompositions() int { return len(c.comps) }

// SinkCount returns the number of live text-edit subscriptions.
func (c *Context) SinkCount() int { return len(c.sinks) }

// SinkErrors returns the errors text-edit sinks returned from OnEndEdit.
func (c *Context) SinkErrors() []error { return c.sinkErrors }

// PropertyAt returns the value of prop covering offset pos.
func (c *Context) PropertyAt(prop host.GUID, pos int) (int32, bool) {
	spans := c.props[prop]
	for i := len(spans) - 1; i >= 0; i-- {
		s := spans[i]
		if pos >= s.r.start && pos < s.r.end {
			return s.value, true
		}
	}
	return 0, false
}

func (c *Context) newRange(start, end int) *Range {
	r := &Range{ctx: c, start: start, end: end}
	c.ranges[r] = struct{}{}
	return r
}

func (c *Context) checkRead(ec host.EditCookie) error {
	if ec == 0 {
		return host.ErrInvalidCookie
	}
	if (c.inWrite && ec == c.writeCookie) || ec == c.readCookie {
		return nil
	}
	return host.ErrInvalidCookie
}

func (c *Context) checkWrite(ec host.EditCookie) error {
	if ec == 0 || !c.inWrite || ec != c.writeCookie {
		return host.ErrInvalidCookie
	}
	return nil
}

func (c *Context) own(r host.Range) (*Range, error) {
	mr, ok := r.(*Range)
	if !ok || mr == nil || mr.ctx != c {
		return nil, fmt.Errorf("%w: range from another context", host.ErrInvalidCookie)
	}
	return mr, nil
}

// RequestEditSession implements host.Context.
func (c *Context) RequestEditSession(id host.ClientID, session host.EditSession) error {
	if c.inWrite {
		return host.ErrEditDenied
	}
	if err := c.faults.check("RequestEditSession"); err != nil {
		return err
	}
	return c.transact(session)
}

// Edit runs fn as an edit by the application itself, outside any text
// service, and notifies text-edit sinks afterwards.
func (c *Context) Edit(fn host.EditSession) error {
	if c.inWrite {
		return host.ErrEditDenied
	}
	return c.transact(fn)
}

func (c *Context) transact(fn host.EditSession) error {
	c.nextCookie++
	c.inWrite = true
	c.writeCookie = c.nextCookie
	c.textChanged = false
	selBefore := [2]int{c.sel.start, c.sel.end}

	err := fn(c.writeCookie)

	changed := c.textChanged
	selMoved := selBefore != [2]int{c.sel.start, c.sel.end}
	c.inWrite = false
	c.writeCookie = 0

	if changed || selMoved {
		c.notifyEndEdit(editRecord{selectionOnly: !changed})
	}
	return err
}

func (c *Context) notifyEndEdit(rec editRecord) {
	c.nextCookie++
	prev := c.readCookie
	c.readCookie = c.nextCookie
	defer func() { c.readCookie = prev }()

	keys := make([]host.Cookie, 0, len(c.sinks))
	for k := range c.sinks {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		sink, ok := c.sinks[k]
		if !ok {
			continue
		}
		if err := sink.OnEndEdit(c, c.readCookie, rec); err != nil {
			c.sinkErrors = append(c.sinkErrors, err)
		}
	}
}

// Selection implements host.Context.
func (c *Context) Selection(ec host.EditCookie) (host.Selection, error) {
	if err := c.checkRead(ec); err != nil {
		return host.Selection{}, err
	}
	if err := c.faults.check("Selection"); err != nil {
		return host.Selection{}, err
	}
	return host.Selection{Range: c.newRange(c.sel.start, c.sel.end), Style: c.selStyle}, nil
}

// SetSelection implements host.Context.
func (c *Context) SetSelection(ec host.EditCookie, sel host.Selection) error {
	if err := c.checkWrite(ec); err != nil {
		return err
	}
	if err := c.faults.check("SetSelection"); err != nil {
		return err
	}
	if sel.Range == nil {
		return host.ErrNoSelection
	}
	r, err := c.own(sel.Range)
	if err != nil {
		return err
	}
	c.sel.start, c.sel.end = r.start, r.end
	c.selStyle = sel.Style
	return nil
}

// QueryInsertAtSelection implements host.Context.
func (c *Context) QueryInsertAtSelection(ec host.EditCookie) (host.Range, error) {
	if err := c.checkWrite(ec); err != nil {
		return nil, err
	}
	if err := c.faults.check("QueryInsertAtSelection"); err != nil {
		return nil, err
	}
	return c.newRange(c.sel.start, c.sel.end), nil
}

// StartComposition implements host.Context.
func (c *Context) StartComposition(ec host.EditCookie, r host.Range, sink host.CompositionSink) (host.Composition, error) {
	if err := c.checkWrite(ec); err != nil {
		return nil, err
	}
	if err := c.faults.check("StartComposition"); err != nil {
		return nil, err
	}
	mr, err := c.own(r)
	if err != nil {
		return nil, err
	}
	comp := &Composition{ctx: c, rng: c.newRange(mr.start, mr.end), sink: sink, active: true}
	c.comps = append(c.comps, comp)
	return comp, nil
}

// SetProperty implements host.Context.
func (c *Context) SetProperty(ec host.EditCookie, prop host.GUID, r host.Range, value int32) error {
	if err := c.checkWrite(ec); err != nil {
		return err
	}
	if err := c.faults.check("SetProperty"); err != nil {
		return err
	}
	mr, err := c.own(r)
	if err != nil {
		return err
	}
	c.props[prop] = append(c.props[prop], propSpan{r: c.newRange(mr.start, mr.end), value: value})
	return nil
}

// AdviseTextEditSink implements host.Context.
func (c *Context) AdviseTextEditSink(sink host.TextEditSink) (host.Cookie, error) {
	if err := c.faults.check("AdviseTextEditSink"); err != nil {
		return host.InvalidCookie, err
	}
	c.nextSink++
	c.sinks[c.nextSink] = sink
	return c.nextSink, nil
}

// UnadviseSink implements host.Context.
func (c *Context) UnadviseSink(cookie host.Cookie) error {
	if err := c.faults.check("UnadviseSink"); err != nil {
		return err
	}
	if _, ok := c.sinks[cookie]; !ok {
		return host.ErrInvalidCookie
	}
	delete(c.sinks, cookie)
	return nil
}

// TerminateCompositions ends every live composition on the host's own
// initiative and tells each composition sink.
func (c *Context) TerminateCompositions() error {
	if c.inWrite {
		return host.ErrEditDenied
	}
	return c.transact(func(ec host.EditCookie) error {
		var errs []error
		for len(c.comps) > 0 {
			comp := c.comps[0]
			c.dropComposition(comp)
			if comp.sink != nil {
				if err := comp.sink.OnCompositionTerminated(ec, comp); err != nil {
					errs = append(errs, err)
				}
			}
		}
		return errors.Join(errs...)
	})
}

// Type inserts text at the selection as the application would for native
// typing, leaving the caret after it.
func (c *Context) Type(text string) error {
	return c.Edit(func(ec host.EditCookie) error {
		r := c.newRange(c.sel.start, c.sel.end)
		if err := r.SetText(ec, text); err != nil {
			return err
		}
		c.sel.start, c.sel.end = r.end, r.end
		return nil
	})
}

// Replace replaces the text in [start, end) and moves the caret to caret,
// as an application-side edit.
func (c *Context) Replace(start, end int, text string, caret int) error {
	return c.Edit(func(ec host.EditCookie) error {
		r := c.newRange(start, end)
		if err := r.SetText(ec, text); err != nil {
			return err
		}
		c.sel.start, c.sel.end = caret, caret
		return nil
	})
}

// MoveCaret moves the caret without changing text.
func (c *Context) MoveCaret(pos int) error {
	return c.Edit(func(host.EditCookie) error {
		c.sel.start, c.sel.end = pos, pos
		return nil
	})
}

func (c *Context) dropComposition(comp *Composition) {
	comp.active = false
	c.comps = slices.DeleteFunc(c.comps, func(x *Composition) bool { return x == comp })
}

func (c *Context) replace(r *Range, s, e int, repl []rune) {
	n := len(repl)
	delta := n - (e - s)

	text := make([]rune, 0, len(c.text)+delta)
	text = append(text, c.text[:s]...)
	text = append(text, repl...)
	text = append(text, c.text[e:]...)
	c.text = text

	adjust := func(p int) int {
		switch {
		case p <= s:
			return p
		case p >= e:
			return p + delta
		default:
			return s + n
		}
	}
	for x := range c.ranges {
		if x == r {
			continue
		}
		x.start, x.end = adjust(x.start), adjust(x.end)
		if x.start > x.end {
			x.start = x.end
		}
	}
	r.start, r.end = s, s+n
	c.textChanged = true
}

type editRecord struct {
	selectionOnly bool
}

func (r editRecord) SelectionOnly() (bool, error) { return r.selectionOnly, nil }

var _ host.Context = (*Context)(nil)
