package engine

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftahirops/ptop/config"
	"github.com/ftahirops/ptop/fields"
	"github.com/ftahirops/ptop/model"
	"github.com/ftahirops/ptop/screen"
)

func TestRowCapLimitsRows(t *testing.T) {
	src := &fakeSource{frames: [][]model.ProcessSample{procs(200, 10)}, stats: testStats()}
	s, _ := newTestScheduler(t, src, 120, 80)
	s.Engine().Windows.Current().MaxRows = 5

	require.NoError(t, s.Frame())
	assert.Len(t, taskRows(s), 5)
	assert.Equal(t, 200, s.Engine().Windows.Current().Matched())
}

func TestTruncatedColumnWidensOncePerFrame(t *testing.T) {
	frame := make([]model.ProcessSample, 30)
	for i := range frame {
		frame[i] = proc(100000000+i, 1, 10) // nine digits, PID holds seven
	}
	src := &fakeSource{frames: [][]model.ProcessSample{frame}, stats: testStats()}
	s, _ := newTestScheduler(t, src, 200, 60)
	cat := s.Engine().Catalog
	before := cat.Width(fields.PID)

	require.NoError(t, s.Frame())
	assert.Equal(t, before, cat.Width(fields.PID), "cut rows only mark the field")

	require.NoError(t, s.Frame())
	assert.Equal(t, before+1, cat.Width(fields.PID))

	s.HandleKey("L")
	typeKeys(s, "proc")
	s.HandleKey("enter")
	assert.Equal(t, before+1, cat.Width(fields.PID), "searching does not widen")

	require.NoError(t, s.Frame())
	assert.Equal(t, before+2, cat.Width(fields.PID))
}

func TestResizeConsumesWidenMark(t *testing.T) {
	src := &fakeSource{frames: [][]model.ProcessSample{procs(3, 1)}, stats: testStats()}
	s, _ := newTestScheduler(t, src, 120, 40)
	require.NoError(t, s.Frame())
	cat := s.Engine().Catalog
	before := cat.Width(fields.TGID)

	cat.Widen(fields.TGID)
	s.Resize(100, 40)
	s.Render()
	assert.Equal(t, before+1, cat.Width(fields.TGID))
	assert.False(t, cat.TakeDirty(), "one recalibration clears the mark")
}

func TestPrimingThenSteady(t *testing.T) {
	src := &fakeSource{frames: [][]model.ProcessSample{procs(3, 10)}, stats: testStats()}
	s, _ := newTestScheduler(t, src, 100, 30)
	assert.Equal(t, StatePriming, s.State())

	require.NoError(t, s.Frame())
	assert.Equal(t, StateSteady, s.State())
	assert.Len(t, src.sections, 2, "priming samples twice")

	require.NoError(t, s.Frame())
	assert.Len(t, src.sections, 3)
}

func TestUnchangedTicsRenderZeroCPU(t *testing.T) {
	f0 := []model.ProcessSample{proc(1, 0, 1000), proc(2, 0, 500)}
	f2 := []model.ProcessSample{proc(1, 0, 1300), proc(2, 0, 500)}
	src := &fakeSource{frames: [][]model.ProcessSample{f0, f0, f2}, stats: testStats()}
	s, fc := newTestScheduler(t, src, 120, 30)

	require.NoError(t, s.Frame())
	fc.Advance(3 * time.Second)
	require.NoError(t, s.Frame())

	w := s.Engine().Windows.Current()
	pidCol, cpuCol := colIndex(w, "PID"), colIndex(w, "%CPU")
	require.GreaterOrEqual(t, cpuCol, 0)
	got := map[string]string{}
	for _, line := range taskRows(s) {
		got[cell(w, line, pidCol)] = cell(w, line, cpuCol)
	}
	assert.Equal(t, "100.0", got["1"], "300 tics in 3s at 100Hz")
	assert.Equal(t, "0.0", got["2"])
	assert.Equal(t, 3*time.Second, s.Engine().Frame.Elapsed)
}

func TestSortKeyToggles(t *testing.T) {
	src := &fakeSource{frames: [][]model.ProcessSample{procs(20, 10)}, stats: testStats()}
	s, _ := newTestScheduler(t, src, 120, 40)
	require.NoError(t, s.Frame())
	w := s.Engine().Windows.Current()

	assert.True(t, s.HandleKey("N"))
	require.NoError(t, s.Frame())
	assert.Equal(t, "20", cell(w, taskRows(s)[0], colIndex(w, "PID")))

	s.HandleKey("N")
	require.NoError(t, s.Frame())
	assert.Equal(t, "1", cell(w, taskRows(s)[0], colIndex(w, "PID")))
}

func TestIterationsDrain(t *testing.T) {
	src := &fakeSource{frames: [][]model.ProcessSample{procs(2, 1)}, stats: testStats()}
	s, _ := newTestScheduler(t, src, 80, 24)
	s.Engine().Iterations = 2
	require.NoError(t, s.Frame())
	assert.False(t, s.Done())
	require.NoError(t, s.Frame())
	assert.True(t, s.Done())
	assert.NoError(t, s.Err())
	assert.False(t, s.HandleKey("N"), "keys are ignored once draining")
}

func TestSourceFailuresAreFatal(t *testing.T) {
	tests := []struct {
		name string
		src  *fakeSource
	}{
		{"summary", &fakeSource{frames: [][]model.ProcessSample{procs(1, 1)}, summaryErr: errors.New("no /proc/stat")}},
		{"open", &fakeSource{frames: [][]model.ProcessSample{procs(1, 1)}, openErr: errors.New("no /proc")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestScheduler(t, tt.src, 80, 24)
			err := s.Frame()
			require.Error(t, err)
			assert.Equal(t, KindFatal, KindOf(err))
			assert.True(t, s.Done())
			assert.Equal(t, err, s.Err())
		})
	}
}

func TestFilterThroughKeys(t *testing.T) {
	src := &fakeSource{frames: [][]model.ProcessSample{procs(30, 1)}, stats: testStats()}
	s, _ := newTestScheduler(t, src, 120, 60)
	require.NoError(t, s.Frame())

	s.HandleKey("O")
	typeKeys(s, "COMMAND==proc7")
	assert.True(t, s.HandleKey("enter"))
	require.NoError(t, s.Frame())
	rows := taskRows(s)
	require.Len(t, rows, 1)
	assert.Contains(t, rows[0], "proc7")

	s.HandleKey("O")
	typeKeys(s, "NOPE=1")
	s.HandleKey("enter")
	assert.Contains(t, s.Message(), "unknown field")
	assert.Equal(t, 1, s.Engine().Windows.Current().Filters.Len())

	s.HandleKey("O")
	typeKeys(s, "COMMAND==proc7")
	s.HandleKey("enter")
	assert.Contains(t, s.Message(), "duplicate")
	assert.Equal(t, 1, s.Engine().Windows.Current().Filters.Len())

	s.HandleKey("=")
	assert.Zero(t, s.Engine().Windows.Current().Filters.Len())
}

func TestPromptEditing(t *testing.T) {
	src := &fakeSource{frames: [][]model.ProcessSample{procs(3, 1)}, stats: testStats()}
	s, _ := newTestScheduler(t, src, 120, 40)
	require.NoError(t, s.Frame())

	assert.False(t, s.HandleKey("n"))
	assert.False(t, s.HandleKey("4"))
	assert.False(t, s.HandleKey("x"))
	assert.False(t, s.HandleKey("backspace"))
	s.Render()
	assert.Contains(t, s.Screen().String(), "Maximum tasks = 0")
	assert.True(t, s.HandleKey("enter"))
	assert.Equal(t, 4, s.Engine().Windows.Current().MaxRows)

	s.HandleKey("n")
	typeKeys(s, "-3")
	s.HandleKey("enter")
	assert.Equal(t, 4, s.Engine().Windows.Current().MaxRows, "invalid input leaves state alone")
	assert.NotEmpty(t, s.Message())

	s.HandleKey("n")
	s.HandleKey("esc")
	assert.Nil(t, s.prompt)
}

func TestSecureModeRefusesCommands(t *testing.T) {
	src := &fakeSource{frames: [][]model.ProcessSample{procs(3, 1)}, stats: testStats()}
	s, _ := newTestScheduler(t, src, 120, 40)
	s.Engine().Secure = true
	require.NoError(t, s.Frame())
	for _, k := range []string{"k", "r", "d", "s", "W", "Y"} {
		s.HandleKey(k)
		assert.Nil(t, s.prompt, k)
		assert.Equal(t, "unavailable in secure mode", s.Message(), k)
	}
}

func TestKillAndRenicePrompts(t *testing.T) {
	src := &fakeSource{frames: [][]model.ProcessSample{procs(3, 1)}, stats: testStats()}
	s, _ := newTestScheduler(t, src, 120, 40)
	var sent [2]int
	var niced [2]int
	s.signal = func(pid, sig int) error { sent = [2]int{pid, sig}; return nil }
	s.renice = func(pid, nice int) error { niced = [2]int{pid, nice}; return nil }
	require.NoError(t, s.Frame())

	s.HandleKey("k")
	s.HandleKey("ctrl+u")
	typeKeys(s, "2")
	s.HandleKey("enter")
	typeKeys(s, "kill")
	s.HandleKey("enter")
	assert.Equal(t, [2]int{2, 9}, sent)

	s.HandleKey("k")
	s.HandleKey("enter") // default pid is the top row
	s.HandleKey("enter") // default signal
	assert.Equal(t, 15, sent[1])
	assert.NotZero(t, sent[0])

	s.HandleKey("k")
	s.HandleKey("ctrl+u")
	typeKeys(s, "abc")
	s.HandleKey("enter")
	assert.Contains(t, s.Message(), "invalid pid")

	s.HandleKey("r")
	s.HandleKey("ctrl+u")
	typeKeys(s, "3")
	s.HandleKey("enter")
	typeKeys(s, "10")
	s.HandleKey("enter")
	assert.Equal(t, [2]int{3, 10}, niced)
}

func TestParseSignal(t *testing.T) {
	for in, want := range map[string]int{"9": 9, "kill": 9, "SIGTERM": 15, "hup": 1} {
		got, err := parseSignal(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"0", "99", "sigfoo"} {
		_, err := parseSignal(in)
		assert.Error(t, err, in)
	}
}

func TestForestCollapseThroughKeys(t *testing.T) {
	f0 := []model.ProcessSample{proc(1, 0, 0), proc(2, 1, 0), proc(3, 2, 0)}
	f2 := []model.ProcessSample{proc(1, 0, 0), proc(2, 1, 300), proc(3, 2, 300)}
	src := &fakeSource{frames: [][]model.ProcessSample{f0, f0, f2}, stats: testStats()}
	s, fc := newTestScheduler(t, src, 120, 40)
	require.NoError(t, s.Frame())

	s.HandleKey("V")
	s.Render()
	require.Len(t, taskRows(s), 3)
	s.HandleKey("v")
	fc.Advance(3 * time.Second)
	require.NoError(t, s.Frame())

	rows := taskRows(s)
	require.Len(t, rows, 1)
	w := s.Engine().Windows.Current()
	assert.Equal(t, "200.0", cell(w, rows[0], colIndex(w, "%CPU")), "children's CPU shows on the root")
	assert.Contains(t, rows[0], "+ proc1")

	s.HandleKey("v")
	require.NoError(t, s.Frame())
	assert.Len(t, taskRows(s), 3)
	assert.Equal(t, []int{-1}, w.Collapsed)
}

func TestCollapseNeedsForest(t *testing.T) {
	src := &fakeSource{frames: [][]model.ProcessSample{procs(3, 1)}, stats: testStats()}
	s, _ := newTestScheduler(t, src, 120, 40)
	require.NoError(t, s.Frame())
	s.HandleKey("v")
	assert.Contains(t, s.Message(), "forest")
}

func TestSectionsFollowFields(t *testing.T) {
	src := &fakeSource{frames: [][]model.ProcessSample{procs(3, 1)}, stats: testStats()}
	s, _ := newTestScheduler(t, src, 120, 40)
	require.NoError(t, s.Frame())
	last := src.sections[len(src.sections)-1]
	assert.False(t, last.Has(model.SecEnviron))
	assert.False(t, last.Has(model.SecCmdline))
	assert.False(t, last.Has(model.SecThreads))

	s.HandleKey("c")
	s.HandleKey("H")
	require.NoError(t, s.Engine().Windows.Wins[2].ToggleField(fields.Environ)) // hidden window
	require.NoError(t, s.Frame())
	last = src.sections[len(src.sections)-1]
	assert.True(t, last.Has(model.SecCmdline))
	assert.True(t, last.Has(model.SecThreads))
	assert.True(t, last.Has(model.SecEnviron))
}

func TestPIDAllowListReachesSource(t *testing.T) {
	src := &fakeSource{frames: [][]model.ProcessSample{procs(3, 1)}, stats: testStats()}
	s, _ := newTestScheduler(t, src, 120, 40)
	s.Engine().PIDs = []int{2, 3}
	require.NoError(t, s.Frame())
	assert.Equal(t, []int{2, 3}, src.pids[len(src.pids)-1])
}

func TestLocate(t *testing.T) {
	src := &fakeSource{frames: [][]model.ProcessSample{procs(30, 1)}, stats: testStats()}
	s, _ := newTestScheduler(t, src, 120, 60)
	require.NoError(t, s.Frame())
	s.HandleKey("N")
	s.HandleKey("N") // ascending pid
	require.NoError(t, s.Frame())

	s.HandleKey("L")
	typeKeys(s, "proc2")
	s.HandleKey("enter")
	w := s.Engine().Windows.Current()
	assert.Equal(t, 1, w.Top, "proc2 is the second row")
	s.HandleKey("&")
	assert.Equal(t, 19, w.Top, "next match is proc20")
	s.HandleKey("L")
	s.HandleKey("ctrl+u")
	typeKeys(s, "nothing")
	s.HandleKey("enter")
	assert.Contains(t, s.Message(), "not found")
}

func TestWriteConfigAndReload(t *testing.T) {
	src := &fakeSource{frames: [][]model.ProcessSample{procs(3, 1)}, stats: testStats()}
	s, _ := newTestScheduler(t, src, 120, 40)
	path := filepath.Join(t.TempDir(), "ptoprc")
	st := s.Engine()
	st.ConfigPath = path
	require.NoError(t, s.Frame())

	s.HandleKey("V")
	s.HandleKey("M")
	s.HandleKey("o")
	typeKeys(s, "USER=ro")
	s.HandleKey("enter")
	s.HandleKey("a")
	s.HandleKey("O")
	typeKeys(s, "%CPU>1")
	s.HandleKey("enter")
	s.HandleKey("W")
	require.FileExists(t, path)
	assert.Contains(t, s.Message(), path)

	fresh := NewEngineState(DefaultSettings())
	rc := fresh.RC()
	require.NoError(t, config.Load(path, &rc))
	require.NoError(t, fresh.ApplyRC(&rc))

	assert.Equal(t, st.Windows.Cur, fresh.Windows.Cur)
	for i := range st.Windows.Wins {
		a, b := st.Windows.Wins[i], fresh.Windows.Wins[i]
		assert.Equal(t, a.FieldStr, b.FieldStr)
		assert.Equal(t, a.Sort, b.Sort)
		assert.Equal(t, a.Ascending, b.Ascending)
		assert.Equal(t, a.Flags, b.Flags)
		assert.Equal(t, a.Colors, b.Colors)
		assert.Equal(t, a.Filters.Predicates(), b.Filters.Predicates())
	}
}

func TestApplyRCRejectsBadValues(t *testing.T) {
	st := NewEngineState(DefaultSettings())
	rc := st.RC()
	rc.Windows[1].Colors[2] = 9
	err := st.ApplyRC(&rc)
	require.Error(t, err)
	assert.Equal(t, KindConfig, KindOf(err))

	rc = st.RC()
	rc.Windows[0].Fields = "abc"
	assert.Error(t, st.ApplyRC(&rc))
	rc = st.RC()
	rc.Windows[3].Sort = "NOPE"
	assert.Error(t, st.ApplyRC(&rc))
	assert.Equal(t, "Def", st.Windows.Wins[0].Name, "state untouched")
}

func TestInspectFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "status-2"), []byte("Name:\tproc2\nState:\tS\n"), 0600))
	src := &fakeSource{frames: [][]model.ProcessSample{procs(3, 1)}, stats: testStats()}
	s, _ := newTestScheduler(t, src, 120, 40)
	s.Engine().Inspect = []config.Inspect{{Type: "file", Label: "Status", Command: filepath.Join(dir, "status-%d")}}
	require.NoError(t, s.Frame())

	s.HandleKey("Y")
	s.HandleKey("ctrl+u")
	typeKeys(s, "2")
	s.HandleKey("enter")
	s.HandleKey("enter")
	require.NotNil(t, s.overlay)
	s.Render()
	out := s.Screen().String()
	assert.Contains(t, out, "Status for pid 2")
	assert.Contains(t, out, "State:\tS")

	assert.True(t, s.HandleKey("q"))
	assert.Nil(t, s.overlay)
}

func TestFieldManager(t *testing.T) {
	src := &fakeSource{frames: [][]model.ProcessSample{procs(3, 1)}, stats: testStats()}
	s, _ := newTestScheduler(t, src, 120, 60)
	require.NoError(t, s.Frame())
	w := s.Engine().Windows.Current()
	before := len(w.Visible())

	s.HandleKey("f")
	s.Render()
	assert.Contains(t, s.Screen().String(), "Fields Management for window 1:Def")
	s.HandleKey("down") // USER
	s.HandleKey("d")
	assert.Len(t, w.Visible(), before-1)
	s.HandleKey("s")
	assert.Equal(t, "USER", w.Sort.String())
	s.HandleKey("right")
	s.HandleKey("up")
	assert.Equal(t, byte('f'-1), w.FieldStr[0], "USER moved to the front, hidden")
	s.HandleKey("q")
	assert.Nil(t, s.overlay)
}

type fakeTerm struct {
	events   []Event
	presents int
	restored bool
	width    int
	height   int
}

func (f *fakeTerm) Size() (int, int) { return f.width, f.height }

func (f *fakeTerm) Present(b *screen.Buffer) error {
	f.presents++
	_, err := b.Flush(&bytes.Buffer{})
	return err
}

func (f *fakeTerm) Wait(ctx context.Context, d time.Duration) Event {
	if len(f.events) == 0 {
		return Event{Kind: EventQuit}
	}
	ev := f.events[0]
	f.events = f.events[1:]
	return ev
}

func (f *fakeTerm) Restore() error {
	f.restored = true
	return nil
}

func TestRunLoop(t *testing.T) {
	src := &fakeSource{frames: [][]model.ProcessSample{procs(3, 1)}, stats: testStats()}
	s, _ := newTestScheduler(t, src, 0, 0)
	term := &fakeTerm{width: 100, height: 30, events: []Event{
		{Kind: EventTimeout},
		{Kind: EventResize},
		{Kind: EventKey, Key: "n"}, // opens a prompt: redraw only
		{Kind: EventKey, Key: "esc"},
		{Kind: EventKey, Key: "q"},
	}}
	require.NoError(t, s.Run(context.Background(), term))
	assert.True(t, term.restored)
	assert.Equal(t, 5, term.presents)
	assert.Len(t, src.sections, 3, "prime, first frame, timeout frame")
	w, h := s.Screen().Size()
	assert.Equal(t, 100, w)
	assert.Equal(t, 30, h)
	assert.True(t, s.Done())
}

func TestRunStopsOnCancel(t *testing.T) {
	src := &fakeSource{frames: [][]model.ProcessSample{procs(3, 1)}, stats: testStats()}
	s, _ := newTestScheduler(t, src, 0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	term := &fakeTerm{width: 80, height: 24, events: []Event{{Kind: EventTimeout}}}
	require.NoError(t, s.Run(ctx, term))
	assert.True(t, term.restored)
}

func TestRunReportsFatal(t *testing.T) {
	src := &fakeSource{frames: [][]model.ProcessSample{procs(3, 1)}, openErr: errors.New("boom")}
	s, _ := newTestScheduler(t, src, 0, 0)
	term := &fakeTerm{width: 80, height: 24}
	err := s.Run(context.Background(), term)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "boom"))
	assert.True(t, term.restored)
}
