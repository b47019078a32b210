package ui

import (
	"io"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"

	"github.com/ftahirops/ptop/engine"
)

func ansiPainter() *Painter {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.ANSI)
	return NewPainter(r)
}

func TestPainterKeepsText(t *testing.T) {
	p := ansiPainter()
	w := engine.NewWindow(0)
	w.Flags |= engine.FlagHiSort
	row := &engine.Row{
		Text:    "    1 root      20   0    0.0 init",
		Running: true,
		Spans: []engine.Span{
			{Start: 29, End: 33, Kind: engine.SpanSearch},
			{Start: 20, End: 27, Kind: engine.SpanSort},
			{Start: 30, End: 35, Kind: engine.SpanSearch}, // overlaps the first
		},
	}
	out := p.Row(w, row)
	assert.NotEqual(t, row.Text, out)
	assert.Equal(t, row.Text, ansi.Strip(out))

	for _, line := range []string{"ptop - 10:00:00 up 5 min", "  PID USER"} {
		assert.Equal(t, line, ansi.Strip(p.Summary(w, line)))
		assert.Equal(t, line, ansi.Strip(p.Header(w, line)))
		assert.Equal(t, line, ansi.Strip(p.Message(w, line)))
	}
}

func TestPainterWithoutColor(t *testing.T) {
	p := ansiPainter()
	w := engine.NewWindow(0)
	w.Flags &^= engine.FlagColor | engine.FlagHiRunning | engine.FlagHiSort
	row := &engine.Row{Text: "    1 init", Spans: []engine.Span{{Start: 0, End: 5, Kind: engine.SpanSort}}}
	assert.Equal(t, row.Text, p.Row(w, row))
	assert.Equal(t, "summary", p.Summary(w, "summary"))
	assert.Equal(t, "", p.Header(w, ""))
}

func TestPainterSearchAlwaysShown(t *testing.T) {
	p := ansiPainter()
	w := engine.NewWindow(0)
	w.Flags &^= engine.FlagColor | engine.FlagHiRunning | engine.FlagHiSort
	row := &engine.Row{Text: "    1 init", Spans: []engine.Span{{Start: 6, End: 10, Kind: engine.SpanSearch}}}
	out := p.Row(w, row)
	assert.NotEqual(t, row.Text, out)
	assert.Equal(t, row.Text, ansi.Strip(out))
}
