package engine

import (
	"context"
	"io"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mattn/go-runewidth"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ftahirops/ptop/collector"
	"github.com/ftahirops/ptop/screen"
	"github.com/ftahirops/ptop/util"
)

// State is where the scheduler is in its life.
type State int

const (
	// StatePriming takes the first two samples so %CPU has a baseline.
	StatePriming State = iota
	StateSteady
	// StateDraining is terminal: output is final and the run ends.
	StateDraining
)

func (s State) String() string {
	switch s {
	case StatePriming:
		return "priming"
	case StateSteady:
		return "steady"
	}
	return "draining"
}

// EventKind is what ended a Terminal wait.
type EventKind int

const (
	EventTimeout EventKind = iota
	EventKey
	EventResize
	EventResume
	EventQuit
)

// Event is one wake-up of the main loop.
type Event struct {
	Kind EventKind
	Key  string
}

// Terminal is the output device and event source of a pull-mode run.
type Terminal interface {
	Size() (width, height int)
	Present(b *screen.Buffer) error
	// Wait blocks until d passes, a key arrives or a signal is noted.
	Wait(ctx context.Context, d time.Duration) Event
	Restore() error
}

// Unmasker is implemented by terminals that can hand interrupt handling
// back to the kernel while a child command runs.
type Unmasker interface {
	Unmask() (restore func())
}

// defaultPrime is the gap between the two priming samples.
const defaultPrime = 250 * time.Millisecond

// Options configure a Scheduler.
type Options struct {
	Source  collector.Collector
	Clock   clockwork.Clock
	Painter Painter
	// PrimeDelay overrides the gap between priming samples; negative
	// means none.
	PrimeDelay time.Duration
	Width      int
	Height     int
}

// Scheduler runs the refresh cycle: sample, update history, render
// every shown window and hand the screen to the terminal.
type Scheduler struct {
	st      *EngineState
	src     collector.Collector
	clock   clockwork.Clock
	painter Painter
	screen  *screen.Buffer
	render  RowRenderer
	prime   time.Duration

	state       State
	err         error
	msg         string
	layoutDirty bool
	resample    bool
	topPID      int

	prompt  *prompt
	overlay overlay
	cmds    map[string]*command
	unmask  func() func()

	signal func(pid, sig int) error
	renice func(pid, nice int) error
}

// NewScheduler returns a scheduler in the priming state.
func NewScheduler(st *EngineState, o Options) *Scheduler {
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Painter == nil {
		o.Painter = PlainPainter{}
	}
	if o.PrimeDelay == 0 {
		o.PrimeDelay = defaultPrime
	}
	s := &Scheduler{
		st:          st,
		src:         o.Source,
		clock:       o.Clock,
		painter:     o.Painter,
		prime:       o.PrimeDelay,
		screen:      screen.New(o.Width, o.Height),
		render:      RowRenderer{Catalog: st.Catalog},
		layoutDirty: true,
		signal:      signalTask,
		renice:      reniceTask,
	}
	s.cmds = commandTable()
	return s
}

// State returns the current scheduler state.
func (s *Scheduler) State() State { return s.state }

// Done reports whether the run is over.
func (s *Scheduler) Done() bool { return s.state == StateDraining }

// Err returns the error that ended the run, if any.
func (s *Scheduler) Err() error { return s.err }

// Screen returns the frame buffer.
func (s *Scheduler) Screen() *screen.Buffer { return s.screen }

// Engine returns the state the scheduler owns.
func (s *Scheduler) Engine() *EngineState { return s.st }

// Delay is the time to wait between frames.
func (s *Scheduler) Delay() time.Duration { return s.st.Delay }

// Message returns the transient status line text.
func (s *Scheduler) Message() string { return s.msg }

// SetUnmask installs the hook used around child commands.
func (s *Scheduler) SetUnmask(f func() func()) { s.unmask = f }

// Resize adopts new terminal dimensions.
func (s *Scheduler) Resize(width, height int) {
	w, h := s.screen.Size()
	if w == width && h == height {
		return
	}
	s.screen.Resize(width, height)
	s.layoutDirty = true
}

// Invalidate forces the next present to repaint everything.
func (s *Scheduler) Invalidate() { s.screen.Invalidate() }

// Quit moves to draining without error.
func (s *Scheduler) Quit() { s.state = StateDraining }

func (s *Scheduler) fail(err error) error {
	util.Log.WithError(err).Error("frame failed")
	s.err = err
	s.state = StateDraining
	return err
}

// Frame samples and renders one frame. The first call primes history
// with an extra sample. Errors are fatal and leave the scheduler
// draining.
func (s *Scheduler) Frame() error {
	switch s.state {
	case StateDraining:
		return s.err
	case StatePriming:
		if err := s.sample(); err != nil {
			return s.fail(err)
		}
		if s.prime > 0 {
			s.clock.Sleep(s.prime)
		}
		s.state = StateSteady
	}
	if err := s.sample(); err != nil {
		return s.fail(err)
	}
	s.resample = false
	s.st.FrameNo++
	s.Render()
	if s.st.Iterations > 0 && s.st.FrameNo >= s.st.Iterations {
		s.state = StateDraining
	}
	return nil
}

// sample reads one frame from the source and derives per-task values.
func (s *Scheduler) sample() error {
	st := s.st
	st.prevStats, st.stats = st.stats, st.prevStats
	if err := s.src.ReadSummary(&st.stats); err != nil {
		return errors.Wrap(err, "read summary")
	}
	if st.stats.Timestamp.IsZero() {
		st.stats.Timestamp = s.clock.Now()
	}
	var elapsed time.Duration
	if !st.prevStats.Timestamp.IsZero() {
		elapsed = st.stats.Timestamp.Sub(st.prevStats.Timestamp)
	}

	stream, err := s.src.Open(st.RequiredSections(), st.PIDs)
	if err != nil {
		return errors.Wrap(err, "open process source")
	}
	fs := &st.Frame
	fs.Total, fs.Running, fs.Sleeping, fs.Stopped, fs.Zombie, fs.Idle = 0, 0, 0, 0, 0, 0
	st.History.BeginFrame()
	n := 0
	for {
		p, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			stream.Close()
			return errors.Wrap(err, "read process")
		}
		if n == len(st.tasks) {
			st.tasks = append(st.tasks, Task{})
		}
		t := &st.tasks[n]
		copySample(&t.ProcessSample, p)
		t.Delta = st.History.Observe(p)
		fs.CountState(p.State)
		n++
	}
	if err := stream.Close(); err != nil {
		return errors.Wrap(err, "close process source")
	}
	st.tasks = st.tasks[:n]

	summarize(fs, &st.stats, &st.prevStats)
	fs.Elapsed = elapsed
	ncpu := st.stats.NumCPUs()
	memTotal := st.stats.Memory.Total
	for i := range st.tasks {
		t := &st.tasks[i]
		t.PCPU = CPUPercent(t.Delta.Tics, elapsed, st.Hertz, ncpu, t.NumThreads, st.Irix)
		t.PMem = 0
		if memTotal > 0 {
			t.PMem = float64(t.ResKB) * 100 / float64(memTotal)
		}
	}
	util.Log.WithFields(logrus.Fields{"tasks": n, "elapsed": elapsed}).Debug("frame sampled")
	return nil
}

// Render lays out and draws the current frame into the screen buffer
// without sampling.
func (s *Scheduler) Render() {
	st := s.st
	width, height := s.screen.Size()
	widened := st.Catalog.TakeDirty()
	if s.layoutDirty || widened {
		s.calibrate(width)
	}
	s.render.Hertz = st.Hertz
	s.render.MemUnit = st.TaskScale

	buf := s.screen
	buf.Clear()
	cur := st.Windows.Current()
	row := 0
	for _, line := range SummaryLines(&st.Frame, st.Summary, st.MemScale, st.Threads, st.stats.Timestamp) {
		if row >= height {
			return
		}
		buf.Set(row, s.painter.Summary(cur, fit(line, width)))
		row++
	}
	if row >= height {
		return
	}
	buf.Set(row, s.painter.Message(cur, fit(s.statusLine(), width)))
	row++

	if s.overlay != nil {
		for i, line := range s.overlay.lines(s, height-row) {
			buf.Set(row+i, fit(line, width))
		}
		return
	}
	st.Windows.Apportion(height - row)
	s.topPID = 0
	for _, w := range st.Windows.Shown() {
		if w.lines == 0 {
			continue
		}
		buf.Set(row, s.painter.Header(w, w.layout.Header))
		s.renderWindow(w, row+1)
		row += w.lines
	}
}

func (s *Scheduler) calibrate(width int) {
	for _, w := range s.st.Windows.Wins {
		opts := s.render.options(w)
		w.calibrate(s.st.Catalog, width, &opts)
	}
	s.layoutDirty = false
}

// renderWindow sorts the window's view of the frame and writes up to its
// row budget of admitted rows starting at screen row top.
func (s *Scheduler) renderWindow(w *Window, top int) {
	st := s.st
	w.sortTasks(st.tasks, w.Flags.Has(FlagCumulative))
	entries := w.buildEntries()
	matched, shown := 0, 0
	for i := range entries {
		e := &entries[i]
		if !s.render.Admit(w, e) {
			continue
		}
		matched++
		if matched <= w.Top || shown >= w.rows {
			continue
		}
		r := s.render.Format(w, e)
		s.screen.Set(top+shown, s.painter.Row(w, &r))
		if shown == 0 && w == st.Windows.Current() {
			s.topPID = e.Task.PID
		}
		shown++
	}
	w.matched = matched
	if w.Top > 0 && w.Top >= matched {
		w.ScrollRows(0)
	}
}

func (s *Scheduler) statusLine() string {
	if s.prompt != nil {
		return s.prompt.label + " " + s.prompt.input
	}
	msg := s.msg
	if s.st.Windows.AltScreen {
		lbl := s.st.Windows.Current().Label()
		if msg == "" {
			return lbl
		}
		return lbl + " " + msg
	}
	return msg
}

func fit(line string, width int) string {
	if runewidth.StringWidth(line) > width {
		return runewidth.Truncate(line, width, "")
	}
	return line
}

// HandleKey dispatches one keystroke. It reports whether a new frame
// should be sampled; otherwise only a redraw is needed.
func (s *Scheduler) HandleKey(key string) bool {
	if s.state == StateDraining {
		return false
	}
	s.resample = false
	switch {
	case s.prompt != nil:
		s.promptKey(key)
	case s.overlay != nil:
		s.msg = ""
		if err := s.overlay.key(s, key); err != nil {
			s.report(err)
		}
	default:
		s.msg = ""
		s.dispatch(key)
	}
	return s.resample && s.state != StateDraining
}

func (s *Scheduler) report(err error) {
	if err == nil {
		return
	}
	if KindOf(err) != KindInput {
		util.Log.WithError(err).Warn("command failed")
	}
	s.msg = err.Error()
}

// Run drives a pull-mode terminal until quit, iteration exhaustion, a
// fatal error or ctx cancellation. The terminal is restored on return.
func (s *Scheduler) Run(ctx context.Context, term Terminal) (err error) {
	defer func() {
		if rerr := term.Restore(); rerr != nil && err == nil {
			err = errors.Wrap(rerr, "restore terminal")
		}
	}()
	if u, ok := term.(Unmasker); ok {
		s.SetUnmask(u.Unmask)
	}
	s.Resize(term.Size())
	if err := s.Frame(); err != nil {
		return err
	}
	for {
		if err := term.Present(s.screen); err != nil {
			return s.fail(errors.Wrap(err, "write terminal"))
		}
		if s.Done() {
			return s.err
		}
		ev := term.Wait(ctx, s.st.Delay)
		if ctx.Err() != nil {
			s.Quit()
			return nil
		}
		sample := true
		switch ev.Kind {
		case EventKey:
			sample = s.HandleKey(ev.Key)
		case EventResize:
			s.Resize(term.Size())
			s.Invalidate()
			sample = false
		case EventResume:
			s.Invalidate()
			sample = false
		case EventQuit:
			s.Quit()
			return nil
		}
		if s.Done() {
			return s.err
		}
		if !sample {
			s.Render()
			continue
		}
		if err := s.Frame(); err != nil {
			return err
		}
	}
}
