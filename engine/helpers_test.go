package engine

import (
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ftahirops/ptop/collector"
	"github.com/ftahirops/ptop/model"
)

// fakeSource serves scripted frames; the last one repeats.
type fakeSource struct {
	frames     [][]model.ProcessSample
	idx        int
	stats      model.SystemStats
	sections   []model.Sections
	pids       [][]int
	openErr    error
	summaryErr error
}

func (f *fakeSource) ReadSummary(st *model.SystemStats) error {
	if f.summaryErr != nil {
		return f.summaryErr
	}
	*st = f.stats
	st.PerCPU = append([]model.CPUTimes(nil), f.stats.PerCPU...)
	return nil
}

func (f *fakeSource) Open(sec model.Sections, pids []int) (collector.Stream, error) {
	f.sections = append(f.sections, sec)
	f.pids = append(f.pids, pids)
	if f.openErr != nil {
		return nil, f.openErr
	}
	i := f.idx
	if i >= len(f.frames) {
		i = len(f.frames) - 1
	}
	f.idx++
	return &fakeStream{samples: f.frames[i]}, nil
}

type fakeStream struct {
	samples []model.ProcessSample
	pos     int
	buf     model.ProcessSample
}

func (s *fakeStream) Next() (*model.ProcessSample, error) {
	if s.pos >= len(s.samples) {
		return nil, io.EOF
	}
	// hand out a recycled buffer like the real source does
	s.buf.Reset()
	copySample(&s.buf, &s.samples[s.pos])
	s.pos++
	return &s.buf, nil
}

func (s *fakeStream) Close() error { return nil }

func proc(pid, ppid int, tics uint64) model.ProcessSample {
	return model.ProcessSample{
		PID: pid, PPID: ppid, TGID: pid, State: 'S',
		UTime: tics, NumThreads: 1, StartTime: uint64(pid),
		Comm: fmt.Sprintf("proc%d", pid), ResKB: 1000,
		EUser: "root", CmdLine: []string{fmt.Sprintf("/bin/proc%d", pid), "--flag"},
	}
}

func procs(n int, tics uint64) []model.ProcessSample {
	out := make([]model.ProcessSample, n)
	for i := range out {
		out[i] = proc(i+1, 0, tics)
	}
	return out
}

func testStats() model.SystemStats {
	return model.SystemStats{
		PerCPU: []model.CPUTimes{{}},
		Memory: model.MemoryStats{Total: 1000000, Free: 500000, Available: 600000},
		Uptime: 3600,
	}
}

func newTestScheduler(t *testing.T, src *fakeSource, width, height int) (*Scheduler, *clockwork.FakeClock) {
	t.Helper()
	fc := clockwork.NewFakeClockAt(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	st := NewEngineState(DefaultSettings())
	s := NewScheduler(st, Options{Source: src, Clock: fc, PrimeDelay: -1, Width: width, Height: height})
	s.signal = func(int, int) error { return nil }
	s.renice = func(int, int) error { return nil }
	return s, fc
}

// taskRows returns the screen lines that show a task.
func taskRows(s *Scheduler) []string {
	var out []string
	for _, l := range s.Screen().Lines() {
		if strings.Contains(l, "proc") {
			out = append(out, l)
		}
	}
	return out
}

// cell cuts field column i of line using the window's layout.
func cell(w *Window, line string, col int) string {
	c := w.Layout().Columns[col]
	return strings.TrimSpace(line[c.Start : c.Start+c.Width])
}

func colIndex(w *Window, name string) int {
	for i, c := range w.Layout().Columns {
		if c.ID.String() == name {
			return i
		}
	}
	return -1
}

func typeKeys(s *Scheduler, text string) {
	for _, r := range text {
		s.HandleKey(string(r))
	}
}
