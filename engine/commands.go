package engine

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ftahirops/ptop/config"
	"github.com/ftahirops/ptop/fields"
)

// command is one entry of the key dispatch table.
type command struct {
	// insecure commands are refused in secure mode
	insecure bool
	run      func(s *Scheduler) error
}

func windowCmd(f func(w *Window)) *command {
	return &command{run: func(s *Scheduler) error {
		f(s.st.Windows.Current())
		s.layoutDirty = true
		return nil
	}}
}

func flagCmd(f Flags) *command {
	return windowCmd(func(w *Window) { w.Flags ^= f })
}

func summaryCmd(f SummaryFlags) *command {
	return &command{run: func(s *Scheduler) error {
		s.st.Summary ^= f
		return nil
	}}
}

func sortCmd(id fields.ID) *command {
	return windowCmd(func(w *Window) { w.SortBy(id) })
}

func scrollCmd(rows func(w *Window) int) *command {
	return &command{run: func(s *Scheduler) error {
		w := s.st.Windows.Current()
		w.ScrollRows(rows(w))
		return nil
	}}
}

func commandTable() map[string]*command {
	page := func(w *Window) int {
		if w.rows > 1 {
			return w.rows
		}
		return 1
	}
	t := map[string]*command{
		"q":      {run: func(s *Scheduler) error { s.Quit(); return nil }},
		"ctrl+c": {run: func(s *Scheduler) error { s.Quit(); return nil }},
		" ":      {run: func(*Scheduler) error { return nil }},
		"space":  {run: func(*Scheduler) error { return nil }},

		"l": summaryCmd(SumLoad),
		"t": summaryCmd(SumTasks),
		"m": summaryCmd(SumMemory),
		"1": summaryCmd(SumPerCPU),
		"E": {run: func(s *Scheduler) error {
			s.st.MemScale = s.st.MemScale.Next(true)
			return nil
		}},
		"e": {run: func(s *Scheduler) error {
			s.st.TaskScale = s.st.TaskScale.Next(false)
			return nil
		}},

		"P": sortCmd(fields.CPU),
		"M": sortCmd(fields.Mem),
		"N": sortCmd(fields.PID),
		"T": sortCmd(fields.TimePlus),
		"<": windowCmd(func(w *Window) { w.ShiftSort(-1) }),
		">": windowCmd(func(w *Window) { w.ShiftSort(1) }),
		"R": windowCmd(func(w *Window) { w.Ascending = !w.Ascending }),

		"i": flagCmd(FlagShowIdle),
		"S": flagCmd(FlagCumulative),
		"c": flagCmd(FlagFullCmd),
		"V": flagCmd(FlagForest),
		"x": flagCmd(FlagHiSort),
		"y": flagCmd(FlagHiRunning),
		"b": flagCmd(FlagBold),
		"z": flagCmd(FlagColor),
		"J": flagCmd(FlagNumLeft),
		"j": flagCmd(FlagTextRight),
		"v": {run: (*Scheduler).toggleCollapse},
		"H": {run: func(s *Scheduler) error {
			s.st.Threads = !s.st.Threads
			return nil
		}},
		"I": {run: func(s *Scheduler) error {
			s.st.Irix = !s.st.Irix
			return nil
		}},
		"Z": {run: (*Scheduler).promptColor},

		"A": {run: func(s *Scheduler) error {
			s.st.Windows.AltScreen = !s.st.Windows.AltScreen
			s.layoutDirty = true
			return nil
		}},
		"a": {run: func(s *Scheduler) error { s.st.Windows.Cycle(1); return nil }},
		"w": {run: func(s *Scheduler) error { s.st.Windows.Cycle(-1); return nil }},
		"g": {run: (*Scheduler).promptWindow},
		"G": {run: (*Scheduler).promptRename},
		"-": windowCmd(func(w *Window) { w.Flags ^= FlagVisible }),
		"_": {run: (*Scheduler).toggleAllVisible},
		"=": windowCmd(resetWindow),
		"+": {run: func(s *Scheduler) error {
			for _, w := range s.st.Windows.Wins {
				resetWindow(w)
			}
			s.layoutDirty = true
			return nil
		}},
		"n": {run: (*Scheduler).promptMaxRows},
		"#": {run: (*Scheduler).promptMaxRows},

		"o":      {run: func(s *Scheduler) error { return s.promptFilter(true) }},
		"O":      {run: func(s *Scheduler) error { return s.promptFilter(false) }},
		"ctrl+o": {run: (*Scheduler).showFilters},
		"u":      {run: func(s *Scheduler) error { return s.promptUser(false) }},
		"U":      {run: func(s *Scheduler) error { return s.promptUser(true) }},
		"L":      {run: (*Scheduler).promptLocate},
		"&":      {run: (*Scheduler).locateNext},

		"d": {insecure: true, run: (*Scheduler).promptDelay},
		"s": {insecure: true, run: (*Scheduler).promptDelay},
		"k": {insecure: true, run: (*Scheduler).promptKill},
		"r": {insecure: true, run: (*Scheduler).promptRenice},
		"W": {insecure: true, run: (*Scheduler).writeConfig},
		"f": {run: (*Scheduler).openFieldManager},
		"F": {run: (*Scheduler).openFieldManager},
		"Y": {insecure: true, run: (*Scheduler).promptInspect},

		"up":     scrollCmd(func(*Window) int { return -1 }),
		"down":   scrollCmd(func(*Window) int { return 1 }),
		"pgup":   scrollCmd(func(w *Window) int { return -page(w) }),
		"pgdown": scrollCmd(func(w *Window) int { return page(w) }),
		"home":   scrollCmd(func(w *Window) int { return -w.Top }),
		"end":    scrollCmd(func(w *Window) int { return w.matched }),
		"left":   windowCmd(func(w *Window) { w.ScrollFields(-1) }),
		"right":  windowCmd(func(w *Window) { w.ScrollFields(1) }),
	}
	return t
}

func resetWindow(w *Window) {
	w.Filters.Clear()
	w.Search = ""
	w.User = UserFilter{}
	w.Top, w.BegField, w.VarOffset = 0, 0, 0
	w.Flags |= FlagShowIdle
}

func (s *Scheduler) dispatch(key string) {
	c, ok := s.cmds[key]
	if !ok {
		s.msg = "unknown command " + strconv.Quote(key)
		return
	}
	if c.insecure && s.st.Secure {
		s.msg = "unavailable in secure mode"
		return
	}
	if err := c.run(s); err != nil {
		s.report(err)
		return
	}
	if s.prompt == nil && s.overlay == nil {
		s.resample = true
	}
}

// prompt collects a line of input on the status line.
type prompt struct {
	label string
	input string
	done  func(s *Scheduler, text string) error
}

func (s *Scheduler) ask(label, initial string, done func(s *Scheduler, text string) error) {
	s.prompt = &prompt{label: label, input: initial, done: done}
}

func (s *Scheduler) promptKey(key string) {
	p := s.prompt
	switch key {
	case "enter":
		s.prompt = nil
		if err := p.done(s, strings.TrimSpace(p.input)); err != nil {
			s.report(err)
			return
		}
		if s.prompt == nil && s.overlay == nil {
			s.resample = true
		}
	case "esc", "ctrl+c":
		s.prompt = nil
	case "backspace", "ctrl+h":
		if p.input != "" {
			_, size := utf8.DecodeLastRuneInString(p.input)
			p.input = p.input[:len(p.input)-size]
		}
	case "ctrl+u":
		p.input = ""
	case "space":
		p.input += " "
	default:
		if utf8.RuneCountInString(key) == 1 {
			p.input += key
		}
	}
}

func (s *Scheduler) defaultPID() string {
	if s.topPID > 0 {
		return strconv.Itoa(s.topPID)
	}
	return ""
}

func parsePID(text string) (int, error) {
	pid, err := strconv.Atoi(text)
	if err != nil || pid <= 0 {
		return 0, inputErrorf("invalid pid %q", text)
	}
	return pid, nil
}

func (s *Scheduler) toggleCollapse() error {
	w := s.st.Windows.Current()
	if !w.Flags.Has(FlagForest) {
		return inputErrorf("collapse needs forest view (V)")
	}
	if s.topPID == 0 {
		return inputErrorf("no task to collapse")
	}
	w.Collapsed = ToggleCollapse(w.Collapsed, s.topPID)
	return nil
}

func (s *Scheduler) toggleAllVisible() error {
	ws := s.st.Windows
	hidden := false
	for _, w := range ws.Wins {
		if !w.Flags.Has(FlagVisible) {
			hidden = true
		}
	}
	for i, w := range ws.Wins {
		if hidden || i == ws.Cur {
			w.Flags |= FlagVisible
		} else {
			w.Flags &^= FlagVisible
		}
	}
	s.layoutDirty = true
	return nil
}

func (s *Scheduler) promptColor() error {
	s.ask("Color target (S/M/H/T) and number 0-7, e.g. T3:", "", func(s *Scheduler, text string) error {
		if len(text) != 2 {
			return inputErrorf("want a target letter and one digit")
		}
		target := strings.IndexByte("SMHT", text[0]&^0x20)
		if target < 0 {
			return inputErrorf("unknown color target %q", text[:1])
		}
		n, err := strconv.Atoi(text[1:])
		if err != nil {
			return inputErrorf("invalid color %q", text[1:])
		}
		w := s.st.Windows.Current()
		if err := w.Colors.Set(target, n); err != nil {
			return err
		}
		w.Flags |= FlagColor
		return nil
	})
	return nil
}

func (s *Scheduler) promptWindow() error {
	s.ask("Choose field group (1 - 4):", "", func(s *Scheduler, text string) error {
		n, err := strconv.Atoi(text)
		if err != nil {
			return inputErrorf("invalid window %q", text)
		}
		return s.st.Windows.Select(n)
	})
	return nil
}

func (s *Scheduler) promptRename() error {
	w := s.st.Windows.Current()
	s.ask("Rename window '"+w.Label()+"' to:", "", func(s *Scheduler, text string) error {
		if text == "" || utf8.RuneCountInString(text) > 15 {
			return inputErrorf("name must be 1-15 characters")
		}
		s.st.Windows.Current().Name = text
		return nil
	})
	return nil
}

func (s *Scheduler) promptMaxRows() error {
	w := s.st.Windows.Current()
	s.ask("Maximum tasks = "+strconv.Itoa(w.MaxRows)+", change to (0 is unlimited):", "", func(s *Scheduler, text string) error {
		n, err := strconv.Atoi(text)
		if err != nil || n < 0 {
			return inputErrorf("invalid row count %q", text)
		}
		s.st.Windows.Current().MaxRows = n
		return nil
	})
	return nil
}

func (s *Scheduler) promptFilter(ignoreCase bool) error {
	label := "add filter #" + strconv.Itoa(s.st.Windows.Current().Filters.Len()+1)
	if ignoreCase {
		label += " (ignoring case):"
	} else {
		label += " (case sensitive):"
	}
	s.ask(label, "", func(s *Scheduler, text string) error {
		w := s.st.Windows.Current()
		if err := w.Filters.Add(text, ignoreCase); err != nil {
			return err
		}
		w.Top = 0
		return nil
	})
	return nil
}

func (s *Scheduler) showFilters() error {
	w := s.st.Windows.Current()
	if w.Filters.Len() == 0 {
		s.msg = "no active filters"
		return nil
	}
	raws := make([]string, 0, w.Filters.Len())
	for _, p := range w.Filters.Predicates() {
		raws = append(raws, p.Raw)
	}
	s.msg = "filters: " + strings.Join(raws, " & ")
	return nil
}

func (s *Scheduler) promptUser(either bool) error {
	label := "Which user (blank for all):"
	if either {
		label = "Which user, real or effective (blank for all):"
	}
	s.ask(label, "", func(s *Scheduler, text string) error {
		f := UserFilter{Any: either}
		if strings.HasPrefix(text, "!") {
			f.Negate = true
			text = text[1:]
		}
		f.Name = text
		if f.Negate && f.Name == "" {
			return inputErrorf("'!' needs a user")
		}
		w := s.st.Windows.Current()
		w.User = f
		w.Top = 0
		return nil
	})
	return nil
}

func (s *Scheduler) promptLocate() error {
	s.ask("Locate string:", s.st.Windows.Current().Search, func(s *Scheduler, text string) error {
		w := s.st.Windows.Current()
		w.Search = text
		if text == "" {
			return nil
		}
		if !s.locate(w, 0) {
			s.msg = strconv.Quote(text) + " not found"
		}
		return nil
	})
	return nil
}

func (s *Scheduler) locateNext() error {
	w := s.st.Windows.Current()
	if w.Search == "" {
		return inputErrorf("nothing to locate, use L")
	}
	if !s.locate(w, w.Top+1) {
		s.msg = strconv.Quote(w.Search) + " not found"
	}
	return nil
}

// locate scrolls w to the first admitted row at or after from whose
// text contains the search string.
func (s *Scheduler) locate(w *Window, from int) bool {
	w.sortTasks(s.st.tasks, w.Flags.Has(FlagCumulative))
	entries := w.buildEntries()
	n := 0
	for i := range entries {
		e := &entries[i]
		if !s.render.Admit(w, e) {
			continue
		}
		if n >= from {
			if r := s.render.Format(w, e); strings.Contains(r.Text, w.Search) {
				w.Top = n
				return true
			}
		}
		n++
	}
	return false
}

func (s *Scheduler) promptDelay() error {
	label := "Change delay from " + strconv.FormatFloat(s.st.Delay.Seconds(), 'f', 1, 64) + " to:"
	s.ask(label, "", func(s *Scheduler, text string) error {
		secs, err := strconv.ParseFloat(text, 64)
		if err != nil || secs <= 0 {
			return inputErrorf("invalid delay %q", text)
		}
		s.st.Delay = time.Duration(secs * float64(time.Second))
		return nil
	})
	return nil
}

func (s *Scheduler) promptKill() error {
	s.ask("PID to signal/kill:", s.defaultPID(), func(s *Scheduler, text string) error {
		pid, err := parsePID(text)
		if err != nil {
			return err
		}
		s.ask("Send pid "+text+" signal [15/sigterm]:", "", func(s *Scheduler, text string) error {
			sig := 15
			if text != "" {
				if sig, err = parseSignal(text); err != nil {
					return err
				}
			}
			return s.signal(pid, sig)
		})
		return nil
	})
	return nil
}

func (s *Scheduler) promptRenice() error {
	s.ask("PID to renice:", s.defaultPID(), func(s *Scheduler, text string) error {
		pid, err := parsePID(text)
		if err != nil {
			return err
		}
		s.ask("Renice PID "+text+" to value:", "", func(s *Scheduler, text string) error {
			nice, err := strconv.Atoi(text)
			if err != nil || nice < -20 || nice > 19 {
				return inputErrorf("invalid nice value %q", text)
			}
			return s.renice(pid, nice)
		})
		return nil
	})
	return nil
}

func (s *Scheduler) writeConfig() error {
	path := s.st.ConfigPath
	if path == "" {
		path = config.Path()
	}
	rc := s.st.RC()
	if err := config.Save(path, &rc); err != nil {
		return err
	}
	s.msg = "wrote " + path
	return nil
}

func (s *Scheduler) promptInspect() error {
	if len(s.st.Inspect) == 0 {
		return inputErrorf("no inspect entries configured")
	}
	s.ask("PID to inspect:", s.defaultPID(), func(s *Scheduler, text string) error {
		pid, err := parsePID(text)
		if err != nil {
			return err
		}
		var sb strings.Builder
		for i, e := range s.st.Inspect {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(strconv.Itoa(i+1) + " " + e.Label)
		}
		s.ask("Inspect "+text+": "+sb.String()+" [1]:", "", func(s *Scheduler, text string) error {
			n := 1
			if text != "" {
				if n, err = strconv.Atoi(text); err != nil || n < 1 || n > len(s.st.Inspect) {
					return inputErrorf("invalid choice %q", text)
				}
			}
			return s.inspect(s.st.Inspect[n-1], pid)
		})
		return nil
	})
	return nil
}
