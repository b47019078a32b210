// Package fields describes every column the monitor can show: its
// header, width, scaling, sort order and the raw data it depends on.
package fields

import (
	"strings"

	"github.com/ftahirops/ptop/model"
)

// ID identifies a field. The letter code of field i is 'a'+i; in a
// window's field string an upper-case letter means the field is shown.
type ID int

const (
	PID ID = iota
	PPID
	TGID
	UID
	User
	Group
	TTY
	Priority
	Nice
	Threads
	LastCPU
	CPU
	TimePlus
	Mem
	Virt
	Res
	Shr
	Swap
	MajFaults
	MajDelta
	MinDelta
	State
	NsPID
	Command
	Environ
	SupGroups
	Count
)

// Scale is how a field's value is turned into text.
type Scale int

const (
	ScaleNum  Scale = iota // plain integer, never shortened
	ScaleCnt               // counter, shortened with k/m/g/t
	ScaleMem               // KiB amount, escalated through units
	ScalePct               // percentage, decreasing precision
	ScaleTime              // tics as m:ss.hh and up
	ScaleText              // display-column truncation
)

// Comparator orders two tasks ascending. Derived values (like %CPU)
// are passed alongside the samples.
type Comparator func(a, b *Value) int

// Value is what a comparator or formatter sees for one task.
type Value struct {
	S        *model.ProcessSample
	PCPU     float64
	Tics     uint64 // tics shown in TIME+ (cumulative mode applied)
	MajDelta uint64
	MinDelta uint64
	PMem     float64
}

// Spec is the static descriptor for one field.
type Spec struct {
	ID       ID
	Header   string
	Width    int // 0 = variable width
	Scale    Scale
	Left     bool // text justified left by default
	Sections model.Sections
	Desc     string
	Compare  Comparator
}

// Variable reports whether the field shares the leftover row width.
func (s *Spec) Variable() bool { return s.Width == 0 }

// Code returns the field's letter, upper-case when shown.
func (id ID) Code(on bool) byte {
	if on {
		return byte('A' + int(id))
	}
	return byte('a' + int(id))
}

// FromCode maps a field letter back to its id.
func FromCode(c byte) (id ID, on bool, ok bool) {
	switch {
	case c >= 'A' && c < 'A'+byte(Count):
		return ID(c - 'A'), true, true
	case c >= 'a' && c < 'a'+byte(Count):
		return ID(c - 'a'), false, true
	}
	return 0, false, false
}

func (id ID) Valid() bool { return id >= 0 && id < Count }

func (id ID) String() string {
	if !id.Valid() {
		return "?"
	}
	return specs[id].Header
}

// Lookup returns the spec for id.
func Lookup(id ID) *Spec {
	return &specs[id]
}

// ByName resolves a header name such as "%CPU" or "pid", ignoring case.
func ByName(name string) (ID, bool) {
	for i := range specs {
		if strings.EqualFold(specs[i].Header, name) {
			return ID(i), true
		}
	}
	return 0, false
}

// DefaultString is the field string a fresh window starts with.
func DefaultString() string {
	on := map[ID]bool{PID: true, User: true, Priority: true, Nice: true, Virt: true,
		Res: true, Shr: true, State: true, CPU: true, Mem: true, TimePlus: true, Command: true}
	order := []ID{PID, User, Priority, Nice, Virt, Res, Shr, State, CPU, Mem, TimePlus, Command,
		PPID, TGID, UID, Group, TTY, Threads, LastCPU, Swap, MajFaults, MajDelta, MinDelta,
		NsPID, Environ, SupGroups}
	var sb strings.Builder
	for _, id := range order {
		sb.WriteByte(id.Code(on[id]))
	}
	return sb.String()
}

// RequiredSections unions the raw-data needs of ids.
func RequiredSections(ids ...ID) model.Sections {
	var s model.Sections
	for _, id := range ids {
		if id.Valid() {
			s |= specs[id].Sections
		}
	}
	return s
}

// Catalog holds the run-time column widths. Widths start at the static
// spec and only ever grow, when a value did not fit. A cut field grows
// by one column per recalibration however many rows it was cut in.
type Catalog struct {
	widths  [Count]int
	pending [Count]bool
	dirty   bool
}

// NewCatalog returns a catalog at the static widths.
func NewCatalog() *Catalog {
	c := &Catalog{}
	for i := range specs {
		c.widths[i] = specs[i].Width
	}
	return c
}

// Width returns the current width of a fixed field; 0 for variable ones.
func (c *Catalog) Width(id ID) int { return c.widths[id] }

// Widen marks a truncated fixed-width field to grow at the next
// TakeDirty. Variable and auto-scaled fields never widen.
func (c *Catalog) Widen(id ID) bool {
	sp := &specs[id]
	if sp.Variable() || sp.Scale == ScaleMem {
		return false
	}
	c.pending[id] = true
	c.dirty = true
	return true
}

// TakeDirty grows every marked field by one column, then reports and
// clears the recalibration flag.
func (c *Catalog) TakeDirty() bool {
	for i, p := range c.pending {
		if p {
			c.widths[i]++
			c.pending[i] = false
		}
	}
	d := c.dirty
	c.dirty = false
	return d
}

// Reset restores every width to the static spec.
func (c *Catalog) Reset() {
	for i := range specs {
		c.widths[i] = specs[i].Width
	}
	c.pending = [Count]bool{}
	c.dirty = true
}
