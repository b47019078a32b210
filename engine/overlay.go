package engine

import (
	"fmt"

	"github.com/ftahirops/ptop/fields"
)

// overlay replaces the window area until it is dismissed.
type overlay interface {
	lines(s *Scheduler, n int) []string
	key(s *Scheduler, key string) error
}

func (s *Scheduler) closeOverlay() {
	s.overlay = nil
	s.resample = true
}

// fieldManager lists every field of the current window for toggling,
// reordering and picking the sort field.
type fieldManager struct {
	cursor  int
	top     int
	grabbed bool
}

func (s *Scheduler) openFieldManager() error {
	s.overlay = &fieldManager{}
	return nil
}

const fieldManagerHead = 4

func (m *fieldManager) lines(s *Scheduler, n int) []string {
	w := s.st.Windows.Current()
	out := []string{
		fmt.Sprintf("Fields Management for window %s, whose current sort field is %s", w.Label(), w.Sort),
		"   Up/Dn navigate, Right grabs a field to move, Left or Enter drops it,",
		"   'd' or Space toggles display, 's' sets sort, 'a'/'w' change window, 'q' or Esc ends.",
		"",
	}
	rows := n - fieldManagerHead
	if rows < 1 {
		rows = 1
	}
	if m.cursor < m.top {
		m.top = m.cursor
	}
	if m.cursor >= m.top+rows {
		m.top = m.cursor - rows + 1
	}
	for i := m.top; i < len(w.FieldStr) && i < m.top+rows; i++ {
		id, on, _ := fields.FromCode(w.FieldStr[i])
		mark, cur, sortMark := ' ', "  ", ""
		if on {
			mark = '*'
		}
		if i == m.cursor {
			cur = "> "
			if m.grabbed {
				cur = "<>"
			}
		}
		if id == w.Sort {
			sortMark = "  (sort)"
		}
		out = append(out, fmt.Sprintf("%s%c %-8s = %s%s", cur, mark, id, fields.Lookup(id).Desc, sortMark))
	}
	return out
}

func (m *fieldManager) key(s *Scheduler, key string) error {
	w := s.st.Windows.Current()
	id, _, _ := fields.FromCode(w.FieldStr[m.cursor])
	step := 0
	switch key {
	case "up":
		step = -1
	case "down":
		step = 1
	case "right":
		m.grabbed = true
	case "left", "enter":
		m.grabbed = false
	case "d", " ", "space":
		if err := w.ToggleField(id); err != nil {
			return err
		}
	case "s":
		w.Sort = id
	case "a":
		s.st.Windows.Cycle(1)
		m.cursor, m.grabbed = 0, false
	case "w":
		s.st.Windows.Cycle(-1)
		m.cursor, m.grabbed = 0, false
	case "q", "esc", "f", "F":
		s.closeOverlay()
	}
	if step != 0 {
		to := m.cursor + step
		if to >= 0 && to < len(w.FieldStr) {
			if m.grabbed {
				w.MoveField(id, step)
			}
			m.cursor = to
		}
	}
	s.layoutDirty = true
	return nil
}

// textView pages through captured output.
type textView struct {
	title string
	text  []string
	top   int
	rows  int
}

func (v *textView) lines(_ *Scheduler, n int) []string {
	v.rows = n - 1
	if v.rows < 1 {
		v.rows = 1
	}
	if last := len(v.text) - v.rows; v.top > last {
		v.top = last
	}
	if v.top < 0 {
		v.top = 0
	}
	end := v.top + v.rows
	if end > len(v.text) {
		end = len(v.text)
	}
	out := []string{fmt.Sprintf("%s  (lines %d-%d of %d, q to close)", v.title, v.top+1, end, len(v.text))}
	return append(out, v.text[v.top:end]...)
}

func (v *textView) key(s *Scheduler, key string) error {
	switch key {
	case "up":
		v.top--
	case "down":
		v.top++
	case "pgup":
		v.top -= v.rows
	case "pgdown", " ", "space":
		v.top += v.rows
	case "home":
		v.top = 0
	case "end":
		v.top = len(v.text)
	case "q", "esc", "Y":
		s.closeOverlay()
	}
	if v.top < 0 {
		v.top = 0
	}
	return nil
}
