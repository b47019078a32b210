package engine

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ftahirops/ptop/fields"
)

// NumWindows is the fixed number of field groups.
const NumWindows = 4

// Flags are a window's display toggles.
type Flags uint32

const (
	FlagShowIdle   Flags = 1 << iota // list tasks that used no CPU
	FlagCumulative                   // TIME+ includes dead children
	FlagColor                        // paint with the color scheme
	FlagForest                       // parent/child tree order
	FlagHiSort                       // highlight the sort column
	FlagHiRunning                    // highlight running tasks
	FlagBold                         // bold instead of reverse highlights
	FlagFullCmd                      // command line instead of name
	FlagNumLeft                      // left-justify numbers
	FlagTextRight                    // right-justify text
	FlagVisible                      // shown in the multi-window display
)

func (f Flags) Has(x Flags) bool { return f&x != 0 }

// Colors is a window's color scheme, each an ANSI color 0-7.
type Colors struct {
	Summary int
	Message int
	Header  int
	Task    int
}

// Get returns color i in scheme order.
func (c *Colors) Get(i int) int {
	switch i {
	case 0:
		return c.Summary
	case 1:
		return c.Message
	case 2:
		return c.Header
	}
	return c.Task
}

// Set stores color i, rejecting values outside 0-7.
func (c *Colors) Set(i, v int) error {
	if v < 0 || v > 7 {
		return inputErrorf("color %d out of range 0-7", v)
	}
	switch i {
	case 0:
		c.Summary = v
	case 1:
		c.Message = v
	case 2:
		c.Header = v
	default:
		c.Task = v
	}
	return nil
}

// UserFilter limits a window to one user. Any also matches the real
// user, not only the effective one.
type UserFilter struct {
	Name   string
	Any    bool
	Negate bool
}

func (u *UserFilter) match(t *Task) bool {
	if u.Name == "" {
		return true
	}
	hit := u.Name == t.EUser || u.Name == strconv.FormatUint(uint64(t.EUID), 10)
	if !hit && u.Any {
		hit = u.Name == t.RUser || u.Name == strconv.FormatUint(uint64(t.RUID), 10)
	}
	return hit != u.Negate
}

// Window is one of the four independent views of the frame.
type Window struct {
	Num       int
	Name      string
	Flags     Flags
	FieldStr  string
	Sort      fields.ID
	Ascending bool
	MaxRows   int // 0 means no cap
	Colors    Colors
	Filters   FilterSet
	Search    string
	User      UserFilter
	Collapsed []int
	Top       int // first matching row shown
	BegField  int // first visible field shown
	VarOffset int // columns skipped in variable-width text

	ptrs    []*Task
	vals    []fields.Value
	entries []Entry
	forest  ForestBuilder
	layout  Layout
	rows    int
	lines   int
	matched int
}

type winDefault struct {
	name   string
	sort   fields.ID
	colors Colors
	on     []fields.ID
}

var winDefaults = [NumWindows]winDefault{
	{"Def", fields.CPU, Colors{1, 1, 3, 1}, nil},
	{"Job", fields.PID, Colors{6, 6, 7, 6}, []fields.ID{fields.PID, fields.PPID, fields.TimePlus,
		fields.CPU, fields.Mem, fields.Priority, fields.Nice, fields.State, fields.Virt, fields.Swap,
		fields.Res, fields.Shr, fields.Command}},
	{"Mem", fields.Mem, Colors{2, 2, 7, 2}, []fields.ID{fields.PID, fields.Mem, fields.Virt,
		fields.Res, fields.Shr, fields.Swap, fields.MajFaults, fields.MajDelta, fields.MinDelta,
		fields.User, fields.Command}},
	{"Usr", fields.User, Colors{3, 3, 7, 3}, []fields.ID{fields.PID, fields.PPID, fields.UID,
		fields.User, fields.Group, fields.TTY, fields.Priority, fields.Nice, fields.State,
		fields.CPU, fields.TimePlus, fields.Command}},
}

// NewWindow returns window n (1-4) at its defaults.
func NewWindow(n int) *Window {
	d := winDefaults[n-1]
	w := &Window{
		Num:    n,
		Name:   d.name,
		Flags:  FlagShowIdle | FlagColor | FlagHiRunning | FlagVisible,
		Sort:   d.sort,
		Colors: d.colors,
	}
	if d.on == nil {
		w.FieldStr = fields.DefaultString()
	} else {
		w.FieldStr = fieldString(d.on)
	}
	return w
}

// fieldString puts the shown fields first, in order, then the rest.
func fieldString(on []fields.ID) string {
	var sb strings.Builder
	seen := make(map[fields.ID]bool, len(on))
	for _, id := range on {
		sb.WriteByte(id.Code(true))
		seen[id] = true
	}
	for id := fields.ID(0); id < fields.Count; id++ {
		if !seen[id] {
			sb.WriteByte(id.Code(false))
		}
	}
	return sb.String()
}

// ValidFieldString checks that s names every field exactly once.
func ValidFieldString(s string) bool {
	if len(s) != int(fields.Count) {
		return false
	}
	var seen [fields.Count]bool
	for i := 0; i < len(s); i++ {
		id, _, ok := fields.FromCode(s[i])
		if !ok || seen[id] {
			return false
		}
		seen[id] = true
	}
	return true
}

// Visible returns the shown fields in display order. PID stands in
// when nothing is shown.
func (w *Window) Visible() []fields.ID {
	var ids []fields.ID
	for i := 0; i < len(w.FieldStr); i++ {
		if id, on, ok := fields.FromCode(w.FieldStr[i]); ok && on {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		ids = append(ids, fields.PID)
	}
	return ids
}

// IsShown reports whether id is displayed.
func (w *Window) IsShown(id fields.ID) bool {
	return strings.IndexByte(w.FieldStr, id.Code(true)) >= 0
}

// ToggleField shows or hides id. The last shown field cannot be hidden.
func (w *Window) ToggleField(id fields.ID) error {
	at := strings.IndexByte(w.FieldStr, id.Code(true))
	b := []byte(w.FieldStr)
	if at >= 0 {
		if len(w.Visible()) == 1 {
			return inputErrorf("at least one field must be shown")
		}
		b[at] = id.Code(false)
	} else {
		at = strings.IndexByte(w.FieldStr, id.Code(false))
		if at < 0 {
			return inputErrorf("unknown field")
		}
		b[at] = id.Code(true)
	}
	w.FieldStr = string(b)
	w.BegField = 0
	return nil
}

// MoveField shifts id one place earlier (dir < 0) or later in the
// field order.
func (w *Window) MoveField(id fields.ID, dir int) {
	b := []byte(w.FieldStr)
	at := strings.IndexByte(w.FieldStr, id.Code(true))
	if at < 0 {
		at = strings.IndexByte(w.FieldStr, id.Code(false))
	}
	to := at + dir
	if at < 0 || to < 0 || to >= len(b) {
		return
	}
	b[at], b[to] = b[to], b[at]
	w.FieldStr = string(b)
}

// SortBy makes id the sort field. Choosing the current field again
// flips the direction; a new field starts high-to-low.
func (w *Window) SortBy(id fields.ID) {
	if id == w.Sort {
		w.Ascending = !w.Ascending
		return
	}
	w.Sort = id
	w.Ascending = false
}

// ShiftSort moves the sort field to the visible field dir places away.
func (w *Window) ShiftSort(dir int) {
	vis := w.Visible()
	at := -1
	for i, id := range vis {
		if id == w.Sort {
			at = i
		}
	}
	switch {
	case at < 0:
		at = 0
	case at+dir >= 0 && at+dir < len(vis):
		at += dir
	}
	w.Sort = vis[at]
}

// ScrollRows moves the first shown row by n, kept within the matches.
func (w *Window) ScrollRows(n int) {
	w.Top += n
	if last := w.matched - 1; w.Top > last {
		w.Top = last
	}
	if w.Top < 0 {
		w.Top = 0
	}
}

// ScrollFields moves the horizontal position by n fields. Past the
// last field position, variable-width text shifts instead.
func (w *Window) ScrollFields(n int) {
	if n < 0 && w.VarOffset > 0 {
		w.VarOffset += n * varShift
		if w.VarOffset < 0 {
			w.VarOffset = 0
		}
		return
	}
	w.BegField += n
	if w.BegField < 0 {
		w.BegField = 0
	}
	if w.BegField > w.layout.MaxBegin {
		extra := w.BegField - w.layout.MaxBegin
		w.BegField = w.layout.MaxBegin
		if w.layout.HasVariable {
			w.VarOffset += extra * varShift
		}
	}
}

// varShift is how far one horizontal step moves variable-width text.
const varShift = 8

// sortTasks fills the window's pointer table from tasks and orders it.
func (w *Window) sortTasks(tasks []Task, cumulative bool) {
	w.ptrs = w.ptrs[:0]
	w.vals = w.vals[:0]
	for i := range tasks {
		t := &tasks[i]
		w.ptrs = append(w.ptrs, t)
		w.vals = append(w.vals, t.value(cumulative, 0))
	}
	if w.Flags.Has(FlagForest) {
		return
	}
	sort.Stable(&taskSorter{w: w, cmp: fields.Lookup(w.Sort).Compare})
}

type taskSorter struct {
	w   *Window
	cmp fields.Comparator
}

func (s *taskSorter) Len() int { return len(s.w.ptrs) }

func (s *taskSorter) Less(i, j int) bool {
	c := s.cmp(&s.w.vals[i], &s.w.vals[j])
	if s.w.Ascending {
		return c < 0
	}
	return c > 0
}

func (s *taskSorter) Swap(i, j int) {
	s.w.ptrs[i], s.w.ptrs[j] = s.w.ptrs[j], s.w.ptrs[i]
	s.w.vals[i], s.w.vals[j] = s.w.vals[j], s.w.vals[i]
}

// buildEntries turns the sorted pointers into display entries.
func (w *Window) buildEntries() []Entry {
	if w.Flags.Has(FlagForest) {
		w.entries = w.forest.Build(w.ptrs, w.Collapsed)
		return w.entries
	}
	w.entries = w.entries[:0]
	for _, t := range w.ptrs {
		w.entries = append(w.entries, Entry{Task: t})
	}
	return w.entries
}

// Layout returns the window's current column layout.
func (w *Window) Layout() *Layout { return &w.layout }

// Rows returns the row budget from the last apportioning.
func (w *Window) Rows() int { return w.rows }

// Matched returns how many tasks passed the filters last frame.
func (w *Window) Matched() int { return w.matched }

// Label is the window's "n:Name" tag.
func (w *Window) Label() string { return strconv.Itoa(w.Num) + ":" + w.Name }
