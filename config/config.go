// Package config reads and writes the persisted rc file: one key=value
// per line, versioned by a single format character.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// FormatID is written by this version. Files with an older id are read
// with defaults for whatever keys they lack.
const FormatID = 'b'

// oldest format still understood
const minFormat = 'a'

// NumWindows matches the engine's fixed window count.
const NumWindows = 4

// Filter is one persisted predicate: raw text plus case handling.
type Filter struct {
	IgnoreCase bool
	Raw        string
}

// Window is the persisted state of one field group.
type Window struct {
	Name      string
	Fields    string
	Sort      string // field header name
	Ascending bool
	Flags     uint32
	Colors    [4]int
	MaxRows   int
	Filters   []Filter
	Collapse  []int
}

// Inspect is one entry of the inspect menu. Type is "pipe" (run
// Command) or "file" (read the path in Command); %d becomes the pid.
type Inspect struct {
	Type    string
	Label   string
	Command string
}

// RC is the whole persisted configuration.
type RC struct {
	Format    byte
	Delay     float64
	AltScreen bool
	Irix      bool
	Threads   bool
	CurWin    int // 0-based
	Summary   string
	MemScale  int
	TaskScale int
	Windows   [NumWindows]Window
	Inspect   []Inspect
}

// Path returns ~/.config/ptop/ptoprc (or under XDG_CONFIG_HOME).
// Returns empty string if home directory cannot be determined.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "ptop", "ptoprc")
}

// Load reads path over rc. A missing file leaves rc untouched and is not
// an error. On a malformed file rc is also left untouched and the parse
// error is returned.
func Load(path string, rc *RC) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	tmp := *rc
	tmp.Inspect = append([]Inspect(nil), rc.Inspect...)
	if err := Parse(f, &tmp); err != nil {
		return errors.Wrapf(err, "parse %s", path)
	}
	*rc = tmp
	return nil
}

// Save writes rc to path, creating the directory. The file is replaced
// atomically.
func Save(path string, rc *RC) error {
	if path == "" {
		return errors.New("cannot determine config directory")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.Wrap(err, "create config directory")
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return errors.Wrapf(err, "create %s", tmp)
	}
	if err := Write(f, rc); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "close %s", tmp)
	}
	return errors.Wrap(os.Rename(tmp, path), "replace config")
}

// Parse applies every recognized line of r to rc. Keys absent from r
// keep rc's values. Filters and inspect entries found in r replace the
// existing lists.
func Parse(r io.Reader, rc *RC) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	var sawFilters [NumWindows]bool
	sawInspect := false
	sawFormat := false
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		key, val, ok := strings.Cut(text, "=")
		if !ok {
			return errors.Errorf("line %d: missing '='", line)
		}
		key = strings.TrimSpace(key)
		if !sawFormat {
			if key != "format" || len(val) != 1 {
				return errors.Errorf("line %d: expected format id", line)
			}
			if val[0] < minFormat || val[0] > FormatID {
				return errors.Errorf("unsupported format %q", val)
			}
			rc.Format = val[0]
			sawFormat = true
			continue
		}
		if err := rc.set(key, val, &sawFilters, &sawInspect); err != nil {
			return errors.Wrapf(err, "line %d", line)
		}
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(err, "read config")
	}
	if !sawFormat {
		return errors.New("empty config")
	}
	return nil
}

func (rc *RC) set(key, val string, sawFilters *[NumWindows]bool, sawInspect *bool) error {
	var err error
	switch key {
	case "delay":
		rc.Delay, err = strconv.ParseFloat(val, 64)
		if err == nil && rc.Delay <= 0 {
			err = errors.New("delay must be positive")
		}
	case "altscreen":
		rc.AltScreen, err = strconv.ParseBool(val)
	case "irix":
		rc.Irix, err = strconv.ParseBool(val)
	case "threads":
		rc.Threads, err = strconv.ParseBool(val)
	case "curwin":
		rc.CurWin, err = strconv.Atoi(val)
		if err == nil && (rc.CurWin < 0 || rc.CurWin >= NumWindows) {
			err = errors.Errorf("curwin %d out of range", rc.CurWin)
		}
	case "summary":
		rc.Summary = val
	case "memscale":
		rc.MemScale, err = strconv.Atoi(val)
	case "taskscale":
		rc.TaskScale, err = strconv.Atoi(val)
	case "inspect":
		if !*sawInspect {
			rc.Inspect = nil
			*sawInspect = true
		}
		parts := strings.SplitN(val, "|", 3)
		if len(parts) != 3 {
			return errors.Errorf("inspect %q: want type|label|command", val)
		}
		rc.Inspect = append(rc.Inspect, Inspect{Type: parts[0], Label: parts[1], Command: parts[2]})
	default:
		if len(key) > 3 && key[0] == 'w' && key[2] == '.' && key[1] >= '1' && key[1] < '1'+NumWindows {
			n := int(key[1] - '1')
			if key[3:] == "filter" && !sawFilters[n] {
				rc.Windows[n].Filters = nil
				sawFilters[n] = true
			}
			err = rc.Windows[n].set(key[3:], val)
		}
		// anything else is from a newer or foreign file; ignore it
	}
	if err != nil {
		return errors.Wrapf(err, "%s", key)
	}
	return nil
}

func (w *Window) set(key, val string) error {
	var err error
	switch key {
	case "name":
		w.Name = val
	case "fields":
		w.Fields = val
	case "sort":
		name, dir, _ := strings.Cut(val, ",")
		w.Sort = name
		w.Ascending = dir == "asc"
	case "flags":
		var f uint64
		f, err = strconv.ParseUint(val, 10, 32)
		w.Flags = uint32(f)
	case "colors":
		parts := strings.Split(val, ",")
		if len(parts) != len(w.Colors) {
			return errors.Errorf("colors %q: want %d numbers", val, len(w.Colors))
		}
		for i, p := range parts {
			if w.Colors[i], err = strconv.Atoi(p); err != nil {
				return err
			}
		}
	case "maxrows":
		w.MaxRows, err = strconv.Atoi(val)
	case "filter":
		mode, raw, ok := strings.Cut(val, ":")
		if !ok || (mode != "i" && mode != "s") {
			return errors.Errorf("filter %q: want i: or s: prefix", val)
		}
		w.Filters = append(w.Filters, Filter{IgnoreCase: mode == "i", Raw: raw})
	case "collapse":
		w.Collapse = nil
		for _, p := range strings.Split(val, ",") {
			if p == "" {
				continue
			}
			pid, perr := strconv.Atoi(p)
			if perr != nil {
				return perr
			}
			w.Collapse = append(w.Collapse, pid)
		}
	}
	return err
}

// Write serializes rc in the current format.
func Write(w io.Writer, rc *RC) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# ptop rc file\n")
	fmt.Fprintf(bw, "format=%c\n", FormatID)
	fmt.Fprintf(bw, "delay=%s\n", strconv.FormatFloat(rc.Delay, 'f', -1, 64))
	fmt.Fprintf(bw, "altscreen=%t\n", rc.AltScreen)
	fmt.Fprintf(bw, "irix=%t\n", rc.Irix)
	fmt.Fprintf(bw, "threads=%t\n", rc.Threads)
	fmt.Fprintf(bw, "curwin=%d\n", rc.CurWin)
	fmt.Fprintf(bw, "summary=%s\n", rc.Summary)
	fmt.Fprintf(bw, "memscale=%d\n", rc.MemScale)
	fmt.Fprintf(bw, "taskscale=%d\n", rc.TaskScale)
	for i := range rc.Windows {
		win := &rc.Windows[i]
		p := fmt.Sprintf("w%d.", i+1)
		dir := "desc"
		if win.Ascending {
			dir = "asc"
		}
		fmt.Fprintf(bw, "%sname=%s\n", p, win.Name)
		fmt.Fprintf(bw, "%sfields=%s\n", p, win.Fields)
		fmt.Fprintf(bw, "%ssort=%s,%s\n", p, win.Sort, dir)
		fmt.Fprintf(bw, "%sflags=%d\n", p, win.Flags)
		fmt.Fprintf(bw, "%scolors=%d,%d,%d,%d\n", p, win.Colors[0], win.Colors[1], win.Colors[2], win.Colors[3])
		fmt.Fprintf(bw, "%smaxrows=%d\n", p, win.MaxRows)
		for _, f := range win.Filters {
			mode := "s"
			if f.IgnoreCase {
				mode = "i"
			}
			fmt.Fprintf(bw, "%sfilter=%s:%s\n", p, mode, f.Raw)
		}
		pids := make([]string, len(win.Collapse))
		for j, pid := range win.Collapse {
			pids[j] = strconv.Itoa(pid)
		}
		fmt.Fprintf(bw, "%scollapse=%s\n", p, strings.Join(pids, ","))
	}
	for _, in := range rc.Inspect {
		fmt.Fprintf(bw, "inspect=%s|%s|%s\n", in.Type, in.Label, in.Command)
	}
	return errors.Wrap(bw.Flush(), "write config")
}
