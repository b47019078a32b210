package engine

import (
	"strings"

	"github.com/ftahirops/ptop/fields"
)

// SpanKind says why part of a row is highlighted.
type SpanKind uint8

const (
	SpanSort SpanKind = iota
	SpanSearch
)

// Span marks bytes [Start, End) of a row's text.
type Span struct {
	Start, End int
	Kind       SpanKind
}

// Row is one rendered task line, before painting.
type Row struct {
	Text    string
	Spans   []Span
	Running bool
	PID     int
}

// RowRenderer turns entries into text for a window's layout. It widens
// catalog columns whose values were cut, for the next calibration.
type RowRenderer struct {
	Catalog *fields.Catalog
	Hertz   int
	MemUnit fields.Unit

	opts fields.Options
	sb   strings.Builder
}

// varFilterWidth is the width variable fields are rendered at for
// filter matching.
const varFilterWidth = 512

func (r *RowRenderer) options(w *Window) fields.Options {
	return fields.Options{
		MemUnit:   r.MemUnit,
		Hertz:     r.Hertz,
		FullCmd:   w.Flags.Has(FlagFullCmd),
		VarOffset: w.VarOffset,
		NumLeft:   w.Flags.Has(FlagNumLeft),
		TextRight: w.Flags.Has(FlagTextRight),
	}
}

// Admit reports whether e passes the window's row filters: fold state,
// the idle toggle, the user filter and the predicate list.
func (r *RowRenderer) Admit(w *Window, e *Entry) bool {
	t := e.Task
	if e.Hidden {
		return false
	}
	if !w.Flags.Has(FlagShowIdle) && t.Delta.Tics == 0 && e.Extra == 0 && t.State != 'R' {
		return false
	}
	if !w.User.match(t) {
		return false
	}
	if w.Filters.Len() == 0 {
		return true
	}
	v := t.value(w.Flags.Has(FlagCumulative), e.Extra)
	o := r.options(w)
	o.VarOffset = 0
	return w.Filters.Matches(func(id fields.ID) string {
		width := r.Catalog.Width(id)
		if width == 0 {
			width = varFilterWidth
		}
		s, _ := fields.Format(id, &v, width, &o)
		return s
	})
}

// Render formats e into the window's columns. The second result is
// false for a row the filters drop.
func (r *RowRenderer) Render(w *Window, e *Entry) (Row, bool) {
	if !r.Admit(w, e) {
		return Row{}, false
	}
	return r.Format(w, e), true
}

// Format renders e without applying filters.
func (r *RowRenderer) Format(w *Window, e *Entry) Row {
	t := e.Task
	v := t.value(w.Flags.Has(FlagCumulative), e.Extra)
	r.opts = r.options(w)
	if w.Flags.Has(FlagForest) {
		r.opts.Prefix = forestArt(e)
	}
	row := Row{PID: t.PID, Running: t.State == 'R'}
	r.sb.Reset()
	l := &w.layout
	for i, c := range l.Columns {
		if i > 0 {
			r.sb.WriteByte(' ')
		}
		start := r.sb.Len()
		s, cut := fields.Format(c.ID, &v, c.Width, &r.opts)
		if cut {
			r.Catalog.Widen(c.ID)
		}
		r.sb.WriteString(s)
		if i == l.SortCol && w.Flags.Has(FlagHiSort) {
			row.Spans = append(row.Spans, Span{Start: start, End: r.sb.Len(), Kind: SpanSort})
		}
	}
	row.Text = r.sb.String()
	if w.Search != "" {
		row.Spans = append(row.Spans, searchSpans(row.Text, w.Search)...)
	}
	return row
}

// forestArt is the tree prefix drawn before a command name.
func forestArt(e *Entry) string {
	if e.Depth == 0 {
		if e.Folded {
			return "+ "
		}
		return ""
	}
	mark := " `- "
	if e.Folded {
		mark = " `+ "
	}
	return strings.Repeat(" ", 4*(e.Depth-1)) + mark
}

func searchSpans(text, needle string) []Span {
	var out []Span
	for off := 0; ; {
		i := strings.Index(text[off:], needle)
		if i < 0 {
			return out
		}
		out = append(out, Span{Start: off + i, End: off + i + len(needle), Kind: SpanSearch})
		off += i + len(needle)
	}
}
