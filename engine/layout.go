package engine

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/ftahirops/ptop/fields"
)

// Column is one field placed in a row.
type Column struct {
	ID    fields.ID
	Width int
	Start int // display column where the cell begins
}

// Layout is the result of fitting a window's fields to the terminal.
type Layout struct {
	Columns     []Column
	Header      string
	Width       int
	MaxBegin    int  // largest useful horizontal start field
	HasVariable bool // some shown field has variable width
	SortCol     int  // index into Columns, -1 if the sort field is not placed
}

// minVarWidth is the least a variable-width field is given.
func minVarWidth(id fields.ID) int {
	if n := len(id.String()); n > 7 {
		return n
	}
	return 7
}

func cellWidth(cat *fields.Catalog, id fields.ID) int {
	if fields.Lookup(id).Variable() {
		return minVarWidth(id)
	}
	return cat.Width(id)
}

// calibrate fits the window's visible fields, from BegField on, into
// width columns. Fixed fields keep their catalog width; variable fields
// split whatever is left.
func (w *Window) calibrate(cat *fields.Catalog, width int, opts *fields.Options) {
	vis := w.Visible()
	l := &w.layout
	l.Columns = l.Columns[:0]
	l.HasVariable = false
	l.SortCol = -1

	// smallest start index from which all remaining fields fit
	l.MaxBegin = len(vis) - 1
	used := -1
	for i := len(vis) - 1; i >= 0; i-- {
		used += 1 + cellWidth(cat, vis[i])
		if used > width {
			break
		}
		l.MaxBegin = i
	}
	if w.BegField > l.MaxBegin {
		w.BegField = l.MaxBegin
	}
	if w.BegField < 0 {
		w.BegField = 0
	}

	used = 0
	nvar := 0
	for _, id := range vis[w.BegField:] {
		cw := cellWidth(cat, id)
		sep := 0
		if len(l.Columns) > 0 {
			sep = 1
		}
		if used+sep+cw > width {
			if len(l.Columns) == 0 {
				cw = width
			} else {
				break
			}
		}
		l.Columns = append(l.Columns, Column{ID: id, Width: cw, Start: used + sep})
		used += sep + cw
		if fields.Lookup(id).Variable() {
			nvar++
		}
	}
	for _, id := range vis {
		if fields.Lookup(id).Variable() {
			l.HasVariable = true
		}
	}
	if !l.HasVariable {
		w.VarOffset = 0
	}
	if nvar > 0 {
		share := (width - used) / nvar
		shift := 0
		for i := range l.Columns {
			c := &l.Columns[i]
			c.Start += shift
			if fields.Lookup(c.ID).Variable() && share > 0 {
				c.Width += share
				shift += share
			}
		}
		used += shift
	}
	l.Width = used

	var sb strings.Builder
	for i, c := range l.Columns {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if c.ID == w.Sort {
			l.SortCol = i
		}
		sb.WriteString(fields.HeaderCell(c.ID, c.Width, opts))
	}
	l.Header = sb.String()
	if runewidth.StringWidth(l.Header) > width {
		l.Header = runewidth.Truncate(l.Header, width, "")
	}
}

// WindowSet is the fixed group of four windows and which is current.
type WindowSet struct {
	Wins      [NumWindows]*Window
	Cur       int
	AltScreen bool
}

// NewWindowSet returns all four windows at their defaults, window 1
// current, single-window display.
func NewWindowSet() *WindowSet {
	ws := &WindowSet{}
	for i := range ws.Wins {
		ws.Wins[i] = NewWindow(i + 1)
	}
	return ws
}

// Current returns the window commands apply to.
func (ws *WindowSet) Current() *Window { return ws.Wins[ws.Cur] }

// Cycle moves the current window forward (dir > 0) or back, wrapping.
func (ws *WindowSet) Cycle(dir int) {
	ws.Cur = ((ws.Cur+dir)%NumWindows + NumWindows) % NumWindows
}

// Select makes window n (1-4) current.
func (ws *WindowSet) Select(n int) error {
	if n < 1 || n > NumWindows {
		return inputErrorf("window %d out of range 1-%d", n, NumWindows)
	}
	ws.Cur = n - 1
	return nil
}

// Shown returns the windows on screen in order.
func (ws *WindowSet) Shown() []*Window {
	if !ws.AltScreen {
		return []*Window{ws.Current()}
	}
	var out []*Window
	for _, w := range ws.Wins {
		if w.Flags.Has(FlagVisible) {
			out = append(out, w)
		}
	}
	return out
}

// Apportion splits height lines among the shown windows. Each window
// spends one line on its header; the leftover line count after an even
// split goes to the last window. A non-zero row cap only lowers a
// window's rows below its share; it never raises them past it.
func (ws *WindowSet) Apportion(height int) {
	shown := ws.Shown()
	for _, w := range ws.Wins {
		w.rows, w.lines = 0, 0
	}
	if len(shown) == 0 || height <= 0 {
		return
	}
	share := height / len(shown)
	for i, w := range shown {
		lines := share
		if i == len(shown)-1 {
			lines += height % len(shown)
		}
		w.lines = lines
		rows := lines - 1
		if rows < 0 {
			rows = 0
		}
		if w.MaxRows > 0 && w.MaxRows < rows {
			rows = w.MaxRows
		}
		w.rows = rows
	}
}
