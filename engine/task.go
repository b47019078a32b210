package engine

import (
	"time"

	"github.com/ftahirops/ptop/fields"
	"github.com/ftahirops/ptop/model"
)

// Task is one row of the frame: the sample as read plus the values
// derived from it. The frame's tasks are not modified after they are
// built; windows only reorder pointers to them.
type Task struct {
	model.ProcessSample
	Delta Delta
	PCPU  float64
	PMem  float64
}

// value builds the formatter's view of t. extra is %CPU folded in from
// collapsed children.
func (t *Task) value(cumulative bool, extra float64) fields.Value {
	return fields.Value{
		S:        &t.ProcessSample,
		PCPU:     t.PCPU + extra,
		Tics:     t.Tics(cumulative),
		MajDelta: t.Delta.Maj,
		MinDelta: t.Delta.Min,
		PMem:     t.PMem,
	}
}

// copySample copies src into dst reusing dst's slice storage, so the
// stream may recycle src.
func copySample(dst, src *model.ProcessSample) {
	cmd := append(dst.CmdLine[:0], src.CmdLine...)
	env := append(dst.Environ[:0], src.Environ...)
	sup := append(dst.SupGroups[:0], src.SupGroups...)
	*dst = *src
	dst.CmdLine, dst.Environ, dst.SupGroups = cmd, env, sup
}

// CPUPercent turns a tic delta over elapsed into a percentage. In
// Solaris mode (irix false) the result is divided across ncpu. A task
// never exceeds 100% per thread, nor the global ceiling.
func CPUPercent(tics uint64, elapsed time.Duration, hertz, ncpu, threads int, irix bool) float64 {
	secs := elapsed.Seconds()
	if secs <= 0 || hertz <= 0 {
		return 0
	}
	if ncpu < 1 {
		ncpu = 1
	}
	pct := float64(tics) * 100 / (secs * float64(hertz))
	ceiling := 100 * float64(ncpu)
	if !irix {
		pct /= float64(ncpu)
		ceiling = 100
	}
	if threads < 1 {
		threads = 1
	}
	if lim := 100 * float64(threads); pct > lim {
		pct = lim
	}
	if pct > ceiling {
		pct = ceiling
	}
	return pct
}
