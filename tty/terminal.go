// Package tty drives a real terminal for the scheduler's pull-mode loop:
// raw keyboard input, job-control and resize signals, and frame output.
package tty

import (
	"context"
	"io"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/input"
	"github.com/jonboulle/clockwork"
	"github.com/muesli/cancelreader"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/ftahirops/ptop/engine"
	"github.com/ftahirops/ptop/screen"
	"github.com/ftahirops/ptop/util"
)

var watched = []os.Signal{
	unix.SIGWINCH, unix.SIGCONT, unix.SIGTSTP,
	unix.SIGTERM, unix.SIGHUP, unix.SIGINT, unix.SIGQUIT,
}

// Terminal is a raw-mode interactive terminal.
type Terminal struct {
	in, out *os.File
	fd      int
	alt     bool
	clock   clockwork.Clock

	mu    sync.Mutex
	saved *term.State

	reader *input.Reader
	keys   chan string
	sigs   chan os.Signal
	done   chan struct{}
	once   sync.Once
}

// Open puts in into raw mode and starts reading keys. With alt set the
// alternate screen is used and the shell's screen comes back on exit.
func Open(in, out *os.File, alt bool, clock clockwork.Clock) (*Terminal, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("standard input is not a terminal")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	t := &Terminal{
		in:    in,
		out:   out,
		fd:    fd,
		alt:   alt,
		clock: clock,
		keys:  make(chan string, 64),
		sigs:  make(chan os.Signal, 8),
		done:  make(chan struct{}),
	}
	r, err := input.NewReader(in, os.Getenv("TERM"), inputFlags)
	if err != nil {
		return nil, errors.Wrap(err, "stdin reader")
	}
	t.reader = r
	if err := t.enter(); err != nil {
		r.Close()
		return nil, err
	}
	signal.Notify(t.sigs, watched...)
	go t.readKeys()
	return t, nil
}

func (t *Terminal) enter() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, err := term.MakeRaw(t.fd)
	if err != nil {
		return errors.Wrap(err, "enter raw mode")
	}
	t.saved = st
	seq := ansi.HideCursor
	if t.alt {
		seq = ansi.SetAltScreenSaveCursorMode + seq
	}
	_, err = io.WriteString(t.out, seq)
	return errors.Wrap(err, "write terminal")
}

func (t *Terminal) leave() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	seq := ansi.ShowCursor
	if t.alt {
		seq += ansi.ResetAltScreenSaveCursorMode
	} else {
		seq += "\r\n"
	}
	_, werr := io.WriteString(t.out, seq)
	if t.saved != nil {
		if err := term.Restore(t.fd, t.saved); err != nil {
			return errors.Wrap(err, "restore terminal modes")
		}
		t.saved = nil
	}
	return errors.Wrap(werr, "write terminal")
}

func (t *Terminal) readKeys() {
	var names []string
	for {
		evs, err := t.reader.ReadEvents()
		if err != nil {
			if !errors.Is(err, cancelreader.ErrCanceled) {
				util.Log.WithError(err).Debug("stdin closed")
			}
			close(t.keys)
			return
		}
		names = keyNames(evs, names[:0])
		for _, k := range names {
			select {
			case t.keys <- k:
			case <-t.done:
				return
			}
		}
	}
}

// Size returns the output size, 80x24 when it cannot be read.
func (t *Terminal) Size() (int, int) {
	w, h, err := term.GetSize(int(t.out.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		return 80, 24
	}
	return w, h
}

// Present writes the rows that changed since the last frame.
func (t *Terminal) Present(b *screen.Buffer) error {
	_, err := b.Flush(t.out)
	return err
}

// Wait blocks for a key, a signal, the delay or ctx, whichever is first.
func (t *Terminal) Wait(ctx context.Context, d time.Duration) engine.Event {
	timer := t.clock.NewTimer(d)
	defer timer.Stop()
	keys := t.keys
	for {
		select {
		case <-ctx.Done():
			return engine.Event{Kind: engine.EventQuit}
		case <-timer.Chan():
			return engine.Event{Kind: engine.EventTimeout}
		case k, ok := <-keys:
			if !ok {
				// stdin is gone; keep refreshing on the timer
				keys = nil
				continue
			}
			if k == "ctrl+z" {
				t.suspend()
				return engine.Event{Kind: engine.EventResume}
			}
			return engine.Event{Kind: engine.EventKey, Key: k}
		case sig := <-t.sigs:
			switch sig {
			case unix.SIGWINCH:
				return engine.Event{Kind: engine.EventResize}
			case unix.SIGCONT:
				return engine.Event{Kind: engine.EventResume}
			case unix.SIGTSTP:
				t.suspend()
				return engine.Event{Kind: engine.EventResume}
			}
			util.Log.Infof("quitting on %v", sig)
			return engine.Event{Kind: engine.EventQuit}
		}
	}
}

// suspend hands the terminal back to the shell and stops the process
// until it is continued.
func (t *Terminal) suspend() {
	if err := t.leave(); err != nil {
		util.Log.WithError(err).Warn("suspend")
	}
	if err := unix.Kill(unix.Getpid(), unix.SIGSTOP); err != nil {
		util.Log.WithError(err).Warn("stop self")
	}
	if err := t.enter(); err != nil {
		util.Log.WithError(err).Warn("resume")
	}
}

// Unmask returns the terminal to cooked mode and stops catching
// signals, so a child command can be interrupted with ^C.
func (t *Terminal) Unmask() func() {
	signal.Stop(t.sigs)
	t.mu.Lock()
	if t.saved != nil {
		if err := term.Restore(t.fd, t.saved); err != nil {
			util.Log.WithError(err).Debug("unmask")
		}
	}
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		if st, err := term.MakeRaw(t.fd); err == nil {
			t.saved = st
		}
		t.mu.Unlock()
		signal.Notify(t.sigs, watched...)
	}
}

// Restore undoes Open. Calling it more than once is harmless.
func (t *Terminal) Restore() error {
	var err error
	t.once.Do(func() {
		close(t.done)
		signal.Stop(t.sigs)
		t.reader.Cancel()
		err = t.leave()
		t.reader.Close()
	})
	return err
}
