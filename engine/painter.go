package engine

// Painter styles finished text for the terminal. Implementations may
// add escape sequences but must not change the visible text.
type Painter interface {
	Summary(w *Window, line string) string
	Message(w *Window, line string) string
	Header(w *Window, line string) string
	Row(w *Window, row *Row) string
}

// PlainPainter leaves text unstyled, for batch output.
type PlainPainter struct{}

func (PlainPainter) Summary(_ *Window, line string) string { return line }
func (PlainPainter) Message(_ *Window, line string) string { return line }
func (PlainPainter) Header(_ *Window, line string) string  { return line }
func (PlainPainter) Row(_ *Window, row *Row) string        { return row.Text }
