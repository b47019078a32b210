package engine

import (
	"strings"
	"time"

	"github.com/ftahirops/ptop/config"
	"github.com/ftahirops/ptop/fields"
	"github.com/ftahirops/ptop/model"
)

// Settings are the run-wide knobs, from flags and the rc file.
type Settings struct {
	Delay      time.Duration
	Iterations int // 0 runs until quit
	Batch      bool
	Secure     bool
	PIDs       []int
	Threads    bool
	Irix       bool
	Hertz      int
	Summary    SummaryFlags
	MemScale   fields.Unit // summary memory lines
	TaskScale  fields.Unit // memory columns
	ConfigPath string
	Inspect    []config.Inspect
}

// DefaultSettings are used when neither flags nor the rc file say
// otherwise.
func DefaultSettings() Settings {
	return Settings{
		Delay:     3 * time.Second,
		Irix:      true,
		Hertz:     100,
		Summary:   DefaultSummary,
		MemScale:  fields.MiB,
		TaskScale: fields.KiB,
		Inspect: []config.Inspect{
			{Type: "pipe", Label: "Open Files", Command: "sh -c 'lsof -P -p %d 2>&1'"},
			{Type: "file", Label: "Status", Command: "/proc/%d/status"},
		},
	}
}

// EngineState is everything the scheduler carries between frames.
type EngineState struct {
	Settings
	Windows *WindowSet
	Catalog *fields.Catalog
	History *HistoryTracker
	Frame   model.FrameState
	FrameNo int

	tasks     []Task
	stats     model.SystemStats
	prevStats model.SystemStats
}

// NewEngineState returns a state at s with default windows.
func NewEngineState(s Settings) *EngineState {
	return &EngineState{
		Settings: s,
		Windows:  NewWindowSet(),
		Catalog:  fields.NewCatalog(),
		History:  NewHistoryTracker(512),
	}
}

// Tasks returns the current frame.
func (st *EngineState) Tasks() []Task { return st.tasks }

// RequiredSections is the least the collector must read for every
// window's shown fields, sort field and filters.
func (st *EngineState) RequiredSections() model.Sections {
	var ids []fields.ID
	fullCmd := false
	for _, w := range st.Windows.Wins {
		fullCmd = fullCmd || w.Flags.Has(FlagFullCmd)
		ids = append(ids, w.Visible()...)
		ids = append(ids, w.Sort)
		for _, p := range w.Filters.Predicates() {
			ids = append(ids, p.Field)
		}
		if w.User.Name != "" {
			ids = append(ids, fields.User)
		}
	}
	sec := fields.RequiredSections(ids...)
	if !fullCmd {
		// the short command name comes from the stat line
		sec &^= model.SecCmdline
	}
	if st.Threads {
		sec |= model.SecThreads
	}
	return sec
}

const summaryLetters = "ltm1"

func summaryString(f SummaryFlags) string {
	var sb strings.Builder
	for i := 0; i < len(summaryLetters); i++ {
		if f.Has(1 << i) {
			sb.WriteByte(summaryLetters[i])
		}
	}
	return sb.String()
}

func parseSummary(s string) SummaryFlags {
	var f SummaryFlags
	for i := 0; i < len(summaryLetters); i++ {
		if strings.IndexByte(s, summaryLetters[i]) >= 0 {
			f |= 1 << i
		}
	}
	return f
}

// RC exports the persistable part of the state.
func (st *EngineState) RC() config.RC {
	rc := config.RC{
		Format:    config.FormatID,
		Delay:     st.Delay.Seconds(),
		AltScreen: st.Windows.AltScreen,
		Irix:      st.Irix,
		Threads:   st.Threads,
		CurWin:    st.Windows.Cur,
		Summary:   summaryString(st.Summary),
		MemScale:  int(st.MemScale),
		TaskScale: int(st.TaskScale),
		Inspect:   append([]config.Inspect(nil), st.Inspect...),
	}
	for i, w := range st.Windows.Wins {
		cw := &rc.Windows[i]
		cw.Name = w.Name
		cw.Fields = w.FieldStr
		cw.Sort = w.Sort.String()
		cw.Ascending = w.Ascending
		cw.Flags = uint32(w.Flags)
		cw.Colors = [4]int{w.Colors.Summary, w.Colors.Message, w.Colors.Header, w.Colors.Task}
		cw.MaxRows = w.MaxRows
		for _, p := range w.Filters.Predicates() {
			cw.Filters = append(cw.Filters, config.Filter{IgnoreCase: p.IgnoreCase, Raw: p.Raw})
		}
		cw.Collapse = append([]int(nil), w.Collapsed...)
	}
	return rc
}

// ApplyRC replaces the persisted part of the state with rc. Nothing is
// changed when any value is invalid.
func (st *EngineState) ApplyRC(rc *config.RC) error {
	if rc.CurWin < 0 || rc.CurWin >= NumWindows {
		return &ConfigError{Err: inputErrorf("current window %d out of range", rc.CurWin+1)}
	}
	ws := NewWindowSet()
	ws.AltScreen = rc.AltScreen
	ws.Cur = rc.CurWin
	for i, cw := range rc.Windows {
		w := ws.Wins[i]
		if cw.Name != "" {
			w.Name = cw.Name
		}
		if cw.Fields != "" {
			if !ValidFieldString(cw.Fields) {
				return &ConfigError{Err: inputErrorf("window %d: bad field string %q", i+1, cw.Fields)}
			}
			w.FieldStr = cw.Fields
		}
		if cw.Sort != "" {
			id, ok := fields.ByName(cw.Sort)
			if !ok {
				return &ConfigError{Err: inputErrorf("window %d: unknown sort field %q", i+1, cw.Sort)}
			}
			w.Sort = id
		}
		w.Ascending = cw.Ascending
		w.Flags = Flags(cw.Flags)
		for j, c := range cw.Colors {
			if err := w.Colors.Set(j, c); err != nil {
				return &ConfigError{Err: err}
			}
		}
		if cw.MaxRows < 0 {
			return &ConfigError{Err: inputErrorf("window %d: negative row cap", i+1)}
		}
		w.MaxRows = cw.MaxRows
		for _, f := range cw.Filters {
			if err := w.Filters.Add(f.Raw, f.IgnoreCase); err != nil {
				return &ConfigError{Err: err}
			}
		}
		w.Collapsed = append([]int(nil), cw.Collapse...)
	}
	if rc.MemScale < int(fields.AutoUnit) || rc.MemScale > int(fields.EiB) ||
		rc.TaskScale < int(fields.KiB) || rc.TaskScale > int(fields.EiB) {
		return &ConfigError{Err: inputErrorf("memory scale out of range")}
	}
	st.Windows = ws
	if rc.Delay > 0 {
		st.Delay = time.Duration(rc.Delay * float64(time.Second))
	}
	st.Irix = rc.Irix
	st.Threads = rc.Threads
	st.Summary = parseSummary(rc.Summary)
	st.MemScale = fields.Unit(rc.MemScale)
	st.TaskScale = fields.Unit(rc.TaskScale)
	if len(rc.Inspect) > 0 {
		st.Inspect = append([]config.Inspect(nil), rc.Inspect...)
	}
	return nil
}
