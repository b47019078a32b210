package fields

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Unit is a memory scaling start point.
type Unit int

const (
	KiB Unit = iota
	MiB
	GiB
	TiB
	PiB
	EiB
	unitCount
)

// AutoUnit lets the summary pick the unit itself.
const AutoUnit Unit = -1

var unitSuffix = []byte{'k', 'm', 'g', 't', 'p', 'e'}

var unitNames = []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}

func (u Unit) String() string {
	if u < 0 || u >= unitCount {
		return "auto"
	}
	return unitNames[u]
}

// Next cycles through the units, wrapping after EiB.
func (u Unit) Next(withAuto bool) Unit {
	n := u + 1
	if n >= unitCount {
		if withAuto {
			return AutoUnit
		}
		return KiB
	}
	return n
}

// Overflow marks a value that did not fit its column.
const Overflow = "+"

// Options carries the per-window knobs that change how values read.
type Options struct {
	MemUnit   Unit
	Hertz     int
	FullCmd   bool
	Prefix    string // forest art placed before command text
	VarOffset int    // columns skipped at the start of variable text
	NumLeft   bool   // justify numbers left
	TextRight bool   // justify text right
}

// Format renders field id of v into exactly width display columns.
// The second result reports that the value was cut to fit.
func Format(id ID, v *Value, width int, o *Options) (string, bool) {
	sp := &specs[id]
	s := v.S
	left := sp.Left
	if sp.Scale == ScaleText {
		left = left && !o.TextRight
	} else {
		left = o.NumLeft
	}
	switch id {
	case PID:
		return FitNum(int64(s.PID), width, left)
	case PPID:
		return FitNum(int64(s.PPID), width, left)
	case TGID:
		return FitNum(int64(s.TGID), width, left)
	case UID:
		return FitNum(int64(s.EUID), width, left)
	case User:
		return FitText(nameOr(s.EUser, s.EUID), width, left)
	case Group:
		return FitText(nameOr(s.EGroup, s.EGID), width, left)
	case TTY:
		return FitText(TTYName(s.TTY), width, left)
	case Priority:
		if s.Priority < -99 {
			return FitText("rt", width, left)
		}
		return FitNum(int64(s.Priority), width, left)
	case Nice:
		return FitNum(int64(s.Nice), width, left)
	case Threads:
		return FitNum(int64(s.NumThreads), width, left)
	case LastCPU:
		return FitNum(int64(s.Processor), width, left)
	case CPU:
		return FitPct(v.PCPU, width, left)
	case TimePlus:
		return FitTics(v.Tics, o.Hertz, width, left)
	case Mem:
		return FitPct(v.PMem, width, left)
	case Virt:
		return FitMem(s.VirtKB, o.MemUnit, width, left)
	case Res:
		return FitMem(s.ResKB, o.MemUnit, width, left)
	case Shr:
		return FitMem(s.ShareKB, o.MemUnit, width, left)
	case Swap:
		return FitMem(s.SwapKB, o.MemUnit, width, left)
	case MajFaults:
		return FitCount(s.MajFault, width, left)
	case MajDelta:
		return FitCount(v.MajDelta, width, left)
	case MinDelta:
		return FitCount(v.MinDelta, width, left)
	case State:
		return FitText(string(rune(s.State)), width, left)
	case NsPID:
		if s.NsPID == 0 {
			return FitText("-", width, left)
		}
		return FitNum(int64(s.NsPID), width, left)
	case Command:
		return FitText(shift(o.Prefix+commandText(s, o.FullCmd), o.VarOffset), width, left)
	case Environ:
		return FitText(shift(environText(s), o.VarOffset), width, left)
	case SupGroups:
		return FitText(shift(supText(s), o.VarOffset), width, left)
	}
	return FitText("?", width, left)
}

func nameOr(name string, id uint32) string {
	if name != "" {
		return name
	}
	return strconv.FormatUint(uint64(id), 10)
}

func shift(s string, cols int) string {
	if cols <= 0 {
		return s
	}
	return runewidth.TruncateLeft(s, cols, "")
}

// Justify pads s to width display columns.
func Justify(s string, width int, left bool) string {
	if left {
		return runewidth.FillRight(s, width)
	}
	return runewidth.FillLeft(s, width)
}

func overflow(width int, left bool) (string, bool) {
	return Justify(Overflow, width, left), true
}

// FitNum renders an integer that is never shortened.
func FitNum(n int64, width int, left bool) (string, bool) {
	s := strconv.FormatInt(n, 10)
	if len(s) > width {
		return overflow(width, left)
	}
	return Justify(s, width, left), false
}

// FitCount renders a counter, shortening by 1024 steps when needed.
func FitCount(n uint64, width int, left bool) (string, bool) {
	s := strconv.FormatUint(n, 10)
	if len(s) <= width {
		return Justify(s, width, left), false
	}
	f := float64(n)
	for _, sfx := range unitSuffix {
		f /= 1024
		for _, prec := range []int{1, 0} {
			s = strconv.FormatFloat(f, 'f', prec, 64) + string(sfx)
			if len(s) <= width {
				return Justify(s, width, left), false
			}
		}
	}
	return overflow(width, left)
}

// FitMem renders a KiB amount, starting at unit start and escalating
// with decreasing precision until the text fits.
func FitMem(kib uint64, start Unit, width int, left bool) (string, bool) {
	if start < KiB {
		start = KiB
	}
	f := float64(kib)
	for u := KiB; u < unitCount; u++ {
		if u >= start {
			if u == KiB {
				s := strconv.FormatUint(kib, 10)
				if len(s) <= width {
					return Justify(s, width, left), false
				}
			} else {
				for _, prec := range []int{3, 2, 1, 0} {
					s := strconv.FormatFloat(f, 'f', prec, 64) + string(unitSuffix[u])
					if len(s) <= width {
						return Justify(s, width, left), false
					}
				}
			}
		}
		f /= 1024
	}
	return overflow(width, left)
}

// FitPct renders a percentage with one decimal, then none.
func FitPct(p float64, width int, left bool) (string, bool) {
	for _, prec := range []int{1, 0} {
		s := strconv.FormatFloat(p, 'f', prec, 64)
		if len(s) <= width {
			return Justify(s, width, left), false
		}
	}
	return overflow(width, left)
}

// FitTics renders cpu time as m:ss.hh, m:ss, h,mm, Dd+Hh or Ww+Dd,
// whichever is the most precise form that fits.
func FitTics(tics uint64, hertz, width int, left bool) (string, bool) {
	if hertz <= 0 {
		hertz = 100
	}
	secs := tics / uint64(hertz)
	hund := (tics % uint64(hertz)) * 100 / uint64(hertz)
	mins := secs / 60
	hours := mins / 60
	days := hours / 24
	weeks := days / 7
	candidates := []string{
		fmt.Sprintf("%d:%02d.%02d", mins, secs%60, hund),
		fmt.Sprintf("%d:%02d", mins, secs%60),
		fmt.Sprintf("%d,%02d", hours, mins%60),
		fmt.Sprintf("%dd+%dh", days, hours%24),
		fmt.Sprintf("%dw+%dd", weeks, days%7),
	}
	for _, s := range candidates {
		if len(s) <= width {
			return Justify(s, width, left), false
		}
	}
	return overflow(width, left)
}

// FitText truncates s by display column, marking a cut with Overflow.
func FitText(s string, width int, left bool) (string, bool) {
	if width <= 0 {
		return "", s != ""
	}
	if runewidth.StringWidth(s) <= width {
		return Justify(s, width, left), false
	}
	return Justify(runewidth.Truncate(s, width, Overflow), width, left), true
}

// TTYName decodes a tty_nr device number.
func TTYName(dev int) string {
	if dev == 0 {
		return "?"
	}
	major := (dev >> 8) & 0xfff
	minor := (dev & 0xff) | ((dev >> 12) & 0xfff00)
	switch {
	case major >= 136 && major <= 143:
		return "pts/" + strconv.Itoa(minor+(major-136)*256)
	case major == 4 && minor < 64:
		return "tty" + strconv.Itoa(minor)
	case major == 4:
		return "ttyS" + strconv.Itoa(minor-64)
	}
	return strconv.Itoa(major) + ":" + strconv.Itoa(minor)
}

// HeaderCell renders a field's header into its column.
func HeaderCell(id ID, width int, o *Options) string {
	sp := &specs[id]
	left := sp.Left
	if sp.Scale == ScaleText {
		left = left && !o.TextRight
	} else {
		left = o.NumLeft
	}
	h := sp.Header
	if runewidth.StringWidth(h) > width {
		h = runewidth.Truncate(h, width, "")
	}
	return Justify(h, width, left)
}

// Describe lists field names for messages, e.g. "PID, %CPU".
func Describe(ids []ID) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.String()
	}
	return strings.Join(names, ", ")
}
