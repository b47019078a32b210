// Package cmd is the ptop command line: flags, rc file, and the choice
// between the full-screen, plain-terminal and batch run modes.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/jonboulle/clockwork"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"

	"github.com/ftahirops/ptop/collector"
	"github.com/ftahirops/ptop/config"
	"github.com/ftahirops/ptop/engine"
	"github.com/ftahirops/ptop/fields"
	"github.com/ftahirops/ptop/tty"
	"github.com/ftahirops/ptop/ui"
	"github.com/ftahirops/ptop/util"
)

// Version is set at build time via ldflags.
var Version = "0.1.0"

// Options is the parsed command line.
type Options struct {
	Delay      float64
	DelayArg   string
	Iterations int
	Batch      bool
	PIDs       []string
	Sort       string
	Secure     bool
	Threads    bool
	Width      int
	Plain      bool
	ConfigPath string
	LogFile    string
	Debug      bool
	RecordPath string
	ReplayPath string

	delaySet bool
}

func newApp(o *Options) *kingpin.Application {
	app := kingpin.New("ptop", "Interactive process monitor for Linux.")
	app.Version("ptop " + Version)
	app.HelpFlag.Short('h')
	app.Flag("delay", "Seconds between refreshes.").Short('d').
		IsSetByUser(&o.delaySet).Float64Var(&o.Delay)
	app.Flag("iterations", "Exit after this many frames (0 = run until quit).").Short('n').
		IntVar(&o.Iterations)
	app.Flag("batch", "Write plain frames to stdout without reading keys.").Short('b').
		BoolVar(&o.Batch)
	app.Flag("pid", "Only monitor these pids; repeat or separate with commas.").Short('p').
		StringsVar(&o.PIDs)
	app.Flag("sort", "Sort field name; prefix + for high to low, - for low to high.").Short('o').
		StringVar(&o.Sort)
	app.Flag("secure", "Disable kill, renice, delay changes, config writes and inspect.").Short('s').
		BoolVar(&o.Secure)
	app.Flag("threads", "Show individual threads.").Short('H').
		BoolVar(&o.Threads)
	app.Flag("width", "Output width in batch mode.").Short('w').
		IntVar(&o.Width)
	app.Flag("plain", "Drive the terminal directly instead of the full-screen UI.").
		BoolVar(&o.Plain)
	app.Flag("config", "Configuration file (default $XDG_CONFIG_HOME/ptop/ptoprc).").
		StringVar(&o.ConfigPath)
	app.Flag("log-file", "Write the log here.").StringVar(&o.LogFile)
	app.Flag("debug", "Log at debug level.").BoolVar(&o.Debug)
	app.Flag("record", "Record every sampled frame to this file.").StringVar(&o.RecordPath)
	app.Flag("replay", "Replay frames recorded with --record instead of reading /proc.").
		StringVar(&o.ReplayPath)
	app.Arg("delay", "Seconds between refreshes, same as -d.").StringVar(&o.DelayArg)
	return app
}

// Run parses args and runs ptop until it quits.
func Run(args []string) error {
	var o Options
	app := newApp(&o)
	if _, err := app.Parse(args); err != nil {
		return err
	}
	if !o.Batch && !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		o.Batch = true
	}

	closer, err := util.SetupLogging(o.LogFile, o.Batch, o.Debug)
	if err != nil {
		return err
	}
	defer closer.Close()

	st, err := settings(&o)
	if err != nil {
		return err
	}

	var src collector.Collector = collector.NewProc("")
	if o.ReplayPath != "" {
		f, err := os.Open(o.ReplayPath)
		if err != nil {
			return errors.Wrap(err, "open replay file")
		}
		p, err := collector.NewPlayer(f)
		f.Close()
		if err != nil {
			return err
		}
		util.Log.WithField("path", o.ReplayPath).Infof("replaying %d frames", p.Len())
		src = p
	}
	var rec *collector.Recorder
	if o.RecordPath != "" {
		f, err := os.Create(o.RecordPath)
		if err != nil {
			return errors.Wrap(err, "create record file")
		}
		defer f.Close()
		rec = collector.NewRecorder(src, f)
		src = rec
	}

	err = run(context.Background(), &o, st, src)
	if rec != nil {
		reportRecording(o.RecordPath, rec.Frames())
	}
	return err
}

// settings resolves defaults, then the rc file, then flags.
func settings(o *Options) (*engine.EngineState, error) {
	st := engine.NewEngineState(engine.DefaultSettings())
	path := o.ConfigPath
	if path == "" {
		path = config.Path()
	}
	st.ConfigPath = path
	rc := st.RC()
	if err := config.Load(path, &rc); err != nil {
		util.Log.WithError(err).WithField("path", path).Warn("ignoring configuration file")
	} else if err := st.ApplyRC(&rc); err != nil {
		util.Log.WithError(err).WithField("path", path).Warn("ignoring configuration file")
	}

	if o.DelayArg != "" && !o.delaySet {
		d, err := strconv.ParseFloat(o.DelayArg, 64)
		if err != nil {
			return nil, errors.Errorf("bad delay %q", o.DelayArg)
		}
		o.Delay, o.delaySet = d, true
	}
	if o.delaySet {
		if o.Delay <= 0 {
			return nil, errors.Errorf("delay must be positive, got %v", o.Delay)
		}
		st.Delay = time.Duration(o.Delay * float64(time.Second))
	}
	if o.Iterations < 0 {
		return nil, errors.Errorf("iterations must not be negative, got %d", o.Iterations)
	}
	st.Iterations = o.Iterations
	st.Batch = o.Batch
	st.Secure = st.Secure || o.Secure
	st.Threads = st.Threads || o.Threads

	pids, err := parsePIDs(o.PIDs)
	if err != nil {
		return nil, err
	}
	st.PIDs = pids

	if o.Sort != "" {
		if err := applySort(st.Windows.Current(), o.Sort); err != nil {
			return nil, err
		}
	}
	return st, nil
}

func parsePIDs(lists []string) ([]int, error) {
	var pids []int
	for _, list := range lists {
		for _, s := range strings.Split(list, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			pid, err := strconv.Atoi(s)
			if err != nil || pid <= 0 {
				return nil, errors.Errorf("bad pid %q", s)
			}
			pids = append(pids, pid)
		}
	}
	return pids, nil
}

func applySort(w *engine.Window, spec string) error {
	asc := false
	switch {
	case strings.HasPrefix(spec, "+"):
		spec = spec[1:]
	case strings.HasPrefix(spec, "-"):
		spec, asc = spec[1:], true
	}
	id, ok := fields.ByName(spec)
	if !ok {
		return errors.Errorf("unknown sort field %q", spec)
	}
	w.Sort, w.Ascending = id, asc
	return nil
}

func run(ctx context.Context, o *Options, st *engine.EngineState, src collector.Collector) error {
	clock := clockwork.NewRealClock()
	opts := engine.Options{Source: src, Clock: clock}
	switch {
	case o.Batch:
		b := tty.NewBatch(os.Stdout, clock, o.Width)
		opts.Width, opts.Height = b.Size()
		return engine.NewScheduler(st, opts).Run(ctx, b)
	case o.Plain:
		t, err := tty.Open(os.Stdin, os.Stdout, true, clock)
		if err != nil {
			return err
		}
		opts.Width, opts.Height = t.Size()
		opts.Painter = ui.NewPainter(nil)
		return engine.NewScheduler(st, opts).Run(ctx, t)
	}
	opts.Width, opts.Height = 80, 24
	opts.Painter = ui.NewPainter(nil)
	return ui.Run(ctx, engine.NewScheduler(st, opts), true)
}

func reportRecording(path string, frames int) {
	size := "?"
	if fi, err := os.Stat(path); err == nil {
		size = humanize.IBytes(uint64(fi.Size()))
	}
	fmt.Fprintf(os.Stderr, "recorded %d frames to %s (%s)\n", frames, path, size)
}
