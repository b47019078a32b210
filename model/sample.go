package model

// ProcessSample holds one task's attributes for the current frame.
// Memory sizes are in KiB; times are in clock tics.
type ProcessSample struct {
	PID   int  `json:"pid"`
	PPID  int  `json:"ppid"`
	TGID  int  `json:"tgid"`
	PGRP  int  `json:"pgrp"`
	SID   int  `json:"sid"`
	TTY   int  `json:"tty"` // encoded device number, 0 = none
	State byte `json:"state"`

	UTime  uint64 `json:"utime"`
	STime  uint64 `json:"stime"`
	CUTime uint64 `json:"cutime"`
	CSTime uint64 `json:"cstime"`

	StartTime  uint64 `json:"start_time"` // tics after boot
	Priority   int    `json:"priority"`
	Nice       int    `json:"nice"`
	NumThreads int    `json:"num_threads"`
	Processor  int    `json:"processor"`

	MajFault uint64 `json:"maj_flt"`
	MinFault uint64 `json:"min_flt"`

	VirtKB  uint64 `json:"virt_kb"`
	ResKB   uint64 `json:"res_kb"`
	ShareKB uint64 `json:"share_kb"`
	SwapKB  uint64 `json:"swap_kb"`

	EUID      uint32   `json:"euid"`
	RUID      uint32   `json:"ruid"`
	EGID      uint32   `json:"egid"`
	EUser     string   `json:"euser,omitempty"`
	RUser     string   `json:"ruser,omitempty"`
	EGroup    string   `json:"egroup,omitempty"`
	SupGroups []string `json:"sup_groups,omitempty"`

	Comm    string   `json:"comm"`
	CmdLine []string `json:"cmdline,omitempty"`
	Environ []string `json:"environ,omitempty"`
	NsPID   uint64   `json:"ns_pid,omitempty"` // pid namespace inode
}

// Tics returns the task's cumulative user+system tics, optionally
// including those of its waited-for children.
func (p *ProcessSample) Tics(cumulative bool) uint64 {
	t := p.UTime + p.STime
	if cumulative {
		t += p.CUTime + p.CSTime
	}
	return t
}

// IsLeader reports whether the task is its thread group's leader.
func (p *ProcessSample) IsLeader() bool {
	return p.TGID == 0 || p.PID == p.TGID
}

// Reset clears the sample for reuse, keeping slice capacity.
func (p *ProcessSample) Reset() {
	cmd, env, sup := p.CmdLine[:0], p.Environ[:0], p.SupGroups[:0]
	*p = ProcessSample{CmdLine: cmd, Environ: env, SupGroups: sup}
}
