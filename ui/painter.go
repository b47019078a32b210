package ui

import (
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ftahirops/ptop/engine"
)

// Painter styles frames with lipgloss, following each window's color
// scheme and highlight toggles.
type Painter struct {
	r  *lipgloss.Renderer
	sb strings.Builder
}

// NewPainter returns a painter rendering for r, the default renderer
// when nil.
func NewPainter(r *lipgloss.Renderer) *Painter {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	return &Painter{r: r}
}

func ansiColor(n int) lipgloss.Color { return lipgloss.Color(strconv.Itoa(n)) }

func (p *Painter) colored(w *engine.Window, color int) lipgloss.Style {
	st := p.r.NewStyle()
	if w.Flags.Has(engine.FlagColor) {
		st = st.Foreground(ansiColor(color))
	}
	return st
}

func (p *Painter) Summary(w *engine.Window, line string) string {
	if !w.Flags.Has(engine.FlagColor) || line == "" {
		return line
	}
	return p.colored(w, w.Colors.Summary).Render(line)
}

func (p *Painter) Message(w *engine.Window, line string) string {
	if line == "" {
		return line
	}
	return p.colored(w, w.Colors.Message).Bold(true).Render(line)
}

func (p *Painter) Header(w *engine.Window, line string) string {
	if line == "" {
		return line
	}
	return p.colored(w, w.Colors.Header).Reverse(true).Render(line)
}

// Row paints the task text, then its highlighted spans. Overlapping
// spans are clipped to the first.
func (p *Painter) Row(w *engine.Window, row *engine.Row) string {
	base := p.colored(w, w.Colors.Task)
	if row.Running && w.Flags.Has(engine.FlagHiRunning) {
		base = base.Bold(true)
	}
	hi := base.Reverse(true)
	if w.Flags.Has(engine.FlagBold) {
		hi = base.Bold(true).Underline(true)
	}
	plain := !w.Flags.Has(engine.FlagColor) && !(row.Running && w.Flags.Has(engine.FlagHiRunning))

	spans := row.Spans[:0:0]
	for _, sp := range row.Spans {
		if sp.Kind == engine.SpanSort && !w.Flags.Has(engine.FlagHiSort) {
			continue
		}
		spans = append(spans, sp)
	}
	if len(spans) == 0 {
		if plain {
			return row.Text
		}
		return base.Render(row.Text)
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })

	text := row.Text
	p.sb.Reset()
	pos := 0
	emit := func(st lipgloss.Style, s string, styled bool) {
		if s == "" {
			return
		}
		if styled {
			s = st.Render(s)
		}
		p.sb.WriteString(s)
	}
	for _, sp := range spans {
		start, end := max(sp.Start, pos), min(sp.End, len(text))
		if start >= end {
			continue
		}
		emit(base, text[pos:start], !plain)
		emit(hi, text[start:end], true)
		pos = end
	}
	emit(base, text[pos:], !plain)
	return p.sb.String()
}
