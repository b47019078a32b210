package model

import "time"

// CPUTimes holds one /proc/stat cpu line, in tics.
type CPUTimes struct {
	User      uint64 `json:"user"`
	Nice      uint64 `json:"nice"`
	System    uint64 `json:"system"`
	Idle      uint64 `json:"idle"`
	IOWait    uint64 `json:"iowait"`
	IRQ       uint64 `json:"irq"`
	SoftIRQ   uint64 `json:"softirq"`
	Steal     uint64 `json:"steal"`
	Guest     uint64 `json:"guest"`
	GuestNice uint64 `json:"guest_nice"`
}

// Total returns total tics.
func (c CPUTimes) Total() uint64 {
	return c.User + c.Nice + c.System + c.Idle + c.IOWait +
		c.IRQ + c.SoftIRQ + c.Steal + c.Guest + c.GuestNice
}

// Sub returns the per-counter difference c-prev, clamping each to zero.
func (c CPUTimes) Sub(prev CPUTimes) CPUTimes {
	d := func(a, b uint64) uint64 {
		if a < b {
			return 0
		}
		return a - b
	}
	return CPUTimes{
		User:      d(c.User, prev.User),
		Nice:      d(c.Nice, prev.Nice),
		System:    d(c.System, prev.System),
		Idle:      d(c.Idle, prev.Idle),
		IOWait:    d(c.IOWait, prev.IOWait),
		IRQ:       d(c.IRQ, prev.IRQ),
		SoftIRQ:   d(c.SoftIRQ, prev.SoftIRQ),
		Steal:     d(c.Steal, prev.Steal),
		Guest:     d(c.Guest, prev.Guest),
		GuestNice: d(c.GuestNice, prev.GuestNice),
	}
}

// LoadAvg holds /proc/loadavg data.
type LoadAvg struct {
	Load1   float64 `json:"load1"`
	Load5   float64 `json:"load5"`
	Load15  float64 `json:"load15"`
	Running uint64  `json:"running"`
	Total   uint64  `json:"total"`
}

// MemoryStats holds the /proc/meminfo values the summary shows, in KiB.
type MemoryStats struct {
	Total     uint64 `json:"total"`
	Free      uint64 `json:"free"`
	Available uint64 `json:"available"`
	Buffers   uint64 `json:"buffers"`
	Cached    uint64 `json:"cached"`
	SReclaim  uint64 `json:"sreclaimable"`
	SwapTotal uint64 `json:"swap_total"`
	SwapFree  uint64 `json:"swap_free"`
}

// Used returns memory not free, buffered or cached.
func (m MemoryStats) Used() uint64 {
	bc := m.Buffers + m.Cached + m.SReclaim
	if m.Total < m.Free+bc {
		return 0
	}
	return m.Total - m.Free - bc
}

// SystemStats is what the summary source reports once per frame.
type SystemStats struct {
	Timestamp time.Time   `json:"timestamp"`
	CPU       CPUTimes    `json:"cpu"`
	PerCPU    []CPUTimes  `json:"per_cpu"`
	Load      LoadAvg     `json:"load"`
	Memory    MemoryStats `json:"memory"`
	Uptime    uint64      `json:"uptime"` // seconds
	Users     int         `json:"users"`
}

// NumCPUs returns the number of online CPUs, at least 1.
func (s *SystemStats) NumCPUs() int {
	if len(s.PerCPU) == 0 {
		return 1
	}
	return len(s.PerCPU)
}

// FrameState holds the per-frame aggregates derived from a frame.
type FrameState struct {
	Elapsed  time.Duration
	Total    int
	Running  int
	Sleeping int
	Stopped  int
	Zombie   int
	Idle     int

	CPU    CPUTimes   // aggregate tic deltas
	PerCPU []CPUTimes // per-cpu tic deltas
	Stats  SystemStats
}

// CountState tallies one task state letter.
func (f *FrameState) CountState(state byte) {
	f.Total++
	switch state {
	case 'R':
		f.Running++
	case 'S', 'D':
		f.Sleeping++
	case 'T', 't':
		f.Stopped++
	case 'Z':
		f.Zombie++
	case 'I':
		f.Idle++
	default:
		f.Sleeping++
	}
}
