package fields

import (
	"strings"

	"github.com/ftahirops/ptop/model"
)

func cmpInt[T ~int | ~int64 | ~uint32 | ~uint64 | ~byte](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

var specs = [Count]Spec{
	PID: {Header: "PID", Width: 7, Scale: ScaleNum, Desc: "Process Id",
		Compare: func(a, b *Value) int { return cmpInt(a.S.PID, b.S.PID) }},
	PPID: {Header: "PPID", Width: 7, Scale: ScaleNum, Desc: "Parent Process pid",
		Compare: func(a, b *Value) int { return cmpInt(a.S.PPID, b.S.PPID) }},
	TGID: {Header: "TGID", Width: 7, Scale: ScaleNum, Desc: "Thread Group Id",
		Compare: func(a, b *Value) int { return cmpInt(a.S.TGID, b.S.TGID) }},
	UID: {Header: "UID", Width: 5, Scale: ScaleNum, Sections: model.SecStatus, Desc: "Effective User Id",
		Compare: func(a, b *Value) int { return cmpInt(a.S.EUID, b.S.EUID) }},
	User: {Header: "USER", Width: 8, Scale: ScaleText, Left: true, Sections: model.SecStatus | model.SecUser,
		Desc:    "Effective User Name",
		Compare: func(a, b *Value) int { return strings.Compare(a.S.EUser, b.S.EUser) }},
	Group: {Header: "GROUP", Width: 8, Scale: ScaleText, Left: true, Sections: model.SecStatus | model.SecGroup,
		Desc:    "Group Name",
		Compare: func(a, b *Value) int { return strings.Compare(a.S.EGroup, b.S.EGroup) }},
	TTY: {Header: "TTY", Width: 8, Scale: ScaleText, Left: true, Desc: "Controlling Tty",
		Compare: func(a, b *Value) int { return cmpInt(a.S.TTY, b.S.TTY) }},
	Priority: {Header: "PR", Width: 3, Scale: ScaleNum, Desc: "Priority",
		Compare: func(a, b *Value) int { return cmpInt(a.S.Priority, b.S.Priority) }},
	Nice: {Header: "NI", Width: 3, Scale: ScaleNum, Desc: "Nice Value",
		Compare: func(a, b *Value) int { return cmpInt(a.S.Nice, b.S.Nice) }},
	Threads: {Header: "nTH", Width: 3, Scale: ScaleNum, Desc: "Number of Threads",
		Compare: func(a, b *Value) int { return cmpInt(a.S.NumThreads, b.S.NumThreads) }},
	LastCPU: {Header: "P", Width: 3, Scale: ScaleNum, Desc: "Last Used Cpu (SMP)",
		Compare: func(a, b *Value) int { return cmpInt(a.S.Processor, b.S.Processor) }},
	CPU: {Header: "%CPU", Width: 5, Scale: ScalePct, Desc: "CPU Usage",
		Compare: func(a, b *Value) int { return cmpFloat(a.PCPU, b.PCPU) }},
	TimePlus: {Header: "TIME+", Width: 9, Scale: ScaleTime, Desc: "CPU Time, hundredths",
		Compare: func(a, b *Value) int { return cmpInt(a.Tics, b.Tics) }},
	Mem: {Header: "%MEM", Width: 4, Scale: ScalePct, Desc: "Memory Usage (RES)",
		Compare: func(a, b *Value) int { return cmpFloat(a.PMem, b.PMem) }},
	Virt: {Header: "VIRT", Width: 7, Scale: ScaleMem, Desc: "Virtual Image (KiB)",
		Compare: func(a, b *Value) int { return cmpInt(a.S.VirtKB, b.S.VirtKB) }},
	Res: {Header: "RES", Width: 6, Scale: ScaleMem, Desc: "Resident Size (KiB)",
		Compare: func(a, b *Value) int { return cmpInt(a.S.ResKB, b.S.ResKB) }},
	Shr: {Header: "SHR", Width: 6, Scale: ScaleMem, Sections: model.SecStatm, Desc: "Shared Memory (KiB)",
		Compare: func(a, b *Value) int { return cmpInt(a.S.ShareKB, b.S.ShareKB) }},
	Swap: {Header: "SWAP", Width: 6, Scale: ScaleMem, Sections: model.SecStatus, Desc: "Swapped Size (KiB)",
		Compare: func(a, b *Value) int { return cmpInt(a.S.SwapKB, b.S.SwapKB) }},
	MajFaults: {Header: "nMaj", Width: 4, Scale: ScaleCnt, Desc: "Major Page Faults",
		Compare: func(a, b *Value) int { return cmpInt(a.S.MajFault, b.S.MajFault) }},
	MajDelta: {Header: "vMj", Width: 4, Scale: ScaleCnt, Desc: "Major Faults delta",
		Compare: func(a, b *Value) int { return cmpInt(a.MajDelta, b.MajDelta) }},
	MinDelta: {Header: "vMn", Width: 4, Scale: ScaleCnt, Desc: "Minor Faults delta",
		Compare: func(a, b *Value) int { return cmpInt(a.MinDelta, b.MinDelta) }},
	State: {Header: "S", Width: 1, Scale: ScaleText, Desc: "Process Status",
		Compare: func(a, b *Value) int { return cmpInt(a.S.State, b.S.State) }},
	NsPID: {Header: "nsPID", Width: 10, Scale: ScaleNum, Sections: model.SecNamespace, Desc: "PID namespace Inode",
		Compare: func(a, b *Value) int { return cmpInt(a.S.NsPID, b.S.NsPID) }},
	Command: {Header: "COMMAND", Scale: ScaleText, Left: true, Sections: model.SecCmdline,
		Desc:    "Command Name/Line",
		Compare: func(a, b *Value) int { return strings.Compare(commandText(a.S, true), commandText(b.S, true)) }},
	Environ: {Header: "ENVIRON", Scale: ScaleText, Left: true, Sections: model.SecEnviron,
		Desc:    "Environment variables",
		Compare: func(a, b *Value) int { return strings.Compare(environText(a.S), environText(b.S)) }},
	SupGroups: {Header: "SUPGRPS", Scale: ScaleText, Left: true, Sections: model.SecStatus | model.SecGroup,
		Desc:    "Supp Groups Names",
		Compare: func(a, b *Value) int { return strings.Compare(supText(a.S), supText(b.S)) }},
}

func init() {
	for i := range specs {
		specs[i].ID = ID(i)
	}
}

func commandText(s *model.ProcessSample, full bool) string {
	if full && len(s.CmdLine) > 0 {
		return strings.Join(s.CmdLine, " ")
	}
	return s.Comm
}

func environText(s *model.ProcessSample) string {
	if len(s.Environ) == 0 {
		return "-"
	}
	return strings.Join(s.Environ, " ")
}

func supText(s *model.ProcessSample) string {
	if len(s.SupGroups) == 0 {
		return "n/a"
	}
	return strings.Join(s.SupGroups, ",")
}
