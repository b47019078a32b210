// Package screen keeps the last frame's text per terminal line so only
// lines that changed are written again.
package screen

import (
	"bufio"
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/pkg/errors"
)

// Buffer is a two-generation line cache: what the terminal shows now
// and what the frame being built wants it to show.
type Buffer struct {
	prev   []string
	cur    []string
	width  int
	height int
	full   bool
}

// New returns a buffer for a width x height terminal.
func New(width, height int) *Buffer {
	b := &Buffer{}
	b.Resize(width, height)
	return b
}

// Resize changes the dimensions and forces a full repaint.
func (b *Buffer) Resize(width, height int) {
	if height < 0 {
		height = 0
	}
	b.width, b.height = width, height
	b.prev = resize(b.prev, height)
	b.cur = resize(b.cur, height)
	b.full = true
}

func resize(s []string, n int) []string {
	if cap(s) < n {
		s = append(s[:cap(s)], make([]string, n-cap(s))...)
	}
	return s[:n]
}

// Size returns the buffer dimensions.
func (b *Buffer) Size() (int, int) { return b.width, b.height }

// Invalidate makes the next Flush repaint every line, for when the
// terminal content is unknown (after a resume or resize).
func (b *Buffer) Invalidate() { b.full = true }

// Clear blanks the frame being built.
func (b *Buffer) Clear() {
	for i := range b.cur {
		b.cur[i] = ""
	}
}

// Set stores line as row's text. Rows outside the screen are dropped.
func (b *Buffer) Set(row int, line string) {
	if row < 0 || row >= len(b.cur) {
		return
	}
	b.cur[row] = line
}

// Line returns the pending text of row.
func (b *Buffer) Line(row int) string {
	if row < 0 || row >= len(b.cur) {
		return ""
	}
	return b.cur[row]
}

// Lines returns the pending frame.
func (b *Buffer) Lines() []string { return b.cur }

// String joins the pending frame with newlines.
func (b *Buffer) String() string { return strings.Join(b.cur, "\n") }

// Flush writes only the rows whose text differs from what was last
// flushed, each addressed by cursor position, and returns how many rows
// were written.
func (b *Buffer) Flush(w io.Writer) (int, error) {
	bw := bufio.NewWriter(w)
	if b.full {
		bw.WriteString(ansi.CursorPosition(1, 1))
		bw.WriteString(ansi.EraseEntireScreen)
	}
	n := 0
	for i, line := range b.cur {
		if !b.full && line == b.prev[i] {
			continue
		}
		bw.WriteString(ansi.CursorPosition(1, i+1))
		bw.WriteString(line)
		bw.WriteString(ansi.EraseLineRight)
		b.prev[i] = line
		n++
	}
	b.full = false
	return n, errors.Wrap(bw.Flush(), "write screen")
}

// WritePlain writes the pending frame as ordinary lines with no cursor
// control, the way batch output is produced.
func (b *Buffer) WritePlain(w io.Writer) error {
	bw := bufio.NewWriter(w)
	last := len(b.cur)
	for last > 0 && b.cur[last-1] == "" {
		last--
	}
	for _, line := range b.cur[:last] {
		bw.WriteString(strings.TrimRight(ansi.Strip(line), " "))
		bw.WriteByte('\n')
	}
	bw.WriteByte('\n')
	return errors.Wrap(bw.Flush(), "write frame")
}
