package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ftahirops/ptop/fields"
	"github.com/ftahirops/ptop/model"
	"github.com/ftahirops/ptop/util"
)

// SummaryFlags select which summary areas are drawn.
type SummaryFlags uint8

const (
	SumLoad   SummaryFlags = 1 << iota // clock, uptime, users, load
	SumTasks                           // task counts and CPU states
	SumMemory                          // physical and swap memory
	SumPerCPU                          // one CPU line per processor
)

// DefaultSummary is the summary shown by a fresh configuration.
const DefaultSummary = SumLoad | SumTasks | SumMemory

func (f SummaryFlags) Has(x SummaryFlags) bool { return f&x != 0 }

// summarize fills fs from the frame's stats against the previous ones.
func summarize(fs *model.FrameState, cur, prev *model.SystemStats) {
	fs.Stats = *cur
	fs.CPU = cur.CPU.Sub(prev.CPU)
	fs.PerCPU = fs.PerCPU[:0]
	for i, c := range cur.PerCPU {
		var p model.CPUTimes
		if i < len(prev.PerCPU) {
			p = prev.PerCPU[i]
		}
		fs.PerCPU = append(fs.PerCPU, c.Sub(p))
	}
}

// SummaryLines renders the summary area for the enabled flags.
func SummaryLines(fs *model.FrameState, flags SummaryFlags, unit fields.Unit, threads bool, now time.Time) []string {
	var out []string
	st := &fs.Stats
	if flags.Has(SumLoad) {
		out = append(out, fmt.Sprintf("ptop - %s up %s, %2d user%s,  load average: %.2f, %.2f, %.2f",
			now.Format("15:04:05"), uptimeText(st.Uptime), st.Users, plural(st.Users),
			st.Load.Load1, st.Load.Load5, st.Load.Load15))
	}
	if flags.Has(SumTasks) {
		noun := "Tasks"
		if threads {
			noun = "Threads"
		}
		out = append(out, fmt.Sprintf("%s: %4d total, %4d running, %4d sleeping, %4d stopped, %4d zombie",
			noun, fs.Total, fs.Running, fs.Sleeping+fs.Idle, fs.Stopped, fs.Zombie))
		if flags.Has(SumPerCPU) && len(fs.PerCPU) > 0 {
			for i := range fs.PerCPU {
				out = append(out, cpuLine(fmt.Sprintf("%%Cpu%-3d:", i), fs.PerCPU[i]))
			}
		} else {
			out = append(out, cpuLine("%Cpu(s):", fs.CPU))
		}
	}
	if flags.Has(SumMemory) {
		m := &st.Memory
		bc := m.Buffers + m.Cached + m.SReclaim
		swapUsed := util.Delta(m.SwapFree, m.SwapTotal)
		if unit == fields.AutoUnit {
			out = append(out,
				fmt.Sprintf("Mem : %9s total, %9s free, %9s used, %9s buff/cache",
					autoMem(m.Total), autoMem(m.Free), autoMem(m.Used()), autoMem(bc)),
				fmt.Sprintf("Swap: %9s total, %9s free, %9s used. %9s avail Mem",
					autoMem(m.SwapTotal), autoMem(m.SwapFree), autoMem(swapUsed), autoMem(m.Available)))
		} else {
			out = append(out,
				fmt.Sprintf("%s Mem : %9.1f total, %9.1f free, %9.1f used, %9.1f buff/cache",
					unit, scaleMem(m.Total, unit), scaleMem(m.Free, unit), scaleMem(m.Used(), unit), scaleMem(bc, unit)),
				fmt.Sprintf("%s Swap: %9.1f total, %9.1f free, %9.1f used. %9.1f avail Mem",
					unit, scaleMem(m.SwapTotal, unit), scaleMem(m.SwapFree, unit), scaleMem(swapUsed, unit),
					scaleMem(m.Available, unit)))
		}
	}
	return out
}

func cpuLine(label string, d model.CPUTimes) string {
	total := d.Total()
	pct := func(v uint64) float64 { return util.Pct(v, total) }
	idle := pct(d.Idle)
	if total == 0 {
		idle = 100
	}
	return fmt.Sprintf("%s %5.1f us, %5.1f sy, %5.1f ni, %5.1f id, %5.1f wa, %5.1f hi, %5.1f si, %5.1f st",
		label, pct(d.User), pct(d.System), pct(d.Nice), idle, pct(d.IOWait),
		pct(d.IRQ), pct(d.SoftIRQ), pct(d.Steal))
}

func scaleMem(kib uint64, u fields.Unit) float64 {
	return float64(kib) / math.Pow(1024, float64(u))
}

func autoMem(kib uint64) string {
	return humanize.IBytes(kib * 1024)
}

func uptimeText(secs uint64) string {
	days := secs / 86400
	h := (secs % 86400) / 3600
	m := (secs % 3600) / 60
	var s string
	if days > 0 {
		s = fmt.Sprintf("%d day%s, ", days, plural(int(days)))
	}
	if h > 0 {
		return s + fmt.Sprintf("%2d:%02d", h, m)
	}
	return s + fmt.Sprintf("%d min", m)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
