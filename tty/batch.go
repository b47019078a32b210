package tty

import (
	"context"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/ftahirops/ptop/engine"
	"github.com/ftahirops/ptop/screen"
)

// BatchWidth is the row width used when output is not a terminal.
const BatchWidth = 512

// BatchHeight bounds a batch frame; the task list is not trimmed to a
// screen.
const BatchHeight = 1 << 14

// Batch writes each frame as plain text, one after another. Keys are
// never read.
type Batch struct {
	out    io.Writer
	clock  clockwork.Clock
	width  int
	height int
	sigs   chan os.Signal
}

// NewBatch returns a batch terminal writing to out. A zero width takes
// the output's terminal width, or BatchWidth.
func NewBatch(out io.Writer, clock clockwork.Clock, width int) *Batch {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if width <= 0 {
		width = BatchWidth
		if f, ok := out.(*os.File); ok {
			if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
				width = w
			}
		}
	}
	b := &Batch{out: out, clock: clock, width: width, height: BatchHeight, sigs: make(chan os.Signal, 4)}
	signal.Notify(b.sigs, unix.SIGTERM, unix.SIGHUP, unix.SIGINT, unix.SIGPIPE)
	return b
}

func (b *Batch) Size() (int, int) { return b.width, b.height }

func (b *Batch) Present(buf *screen.Buffer) error { return buf.WritePlain(b.out) }

func (b *Batch) Wait(ctx context.Context, d time.Duration) engine.Event {
	select {
	case <-ctx.Done():
	case <-b.sigs:
	case <-b.clock.After(d):
		return engine.Event{Kind: engine.EventTimeout}
	}
	return engine.Event{Kind: engine.EventQuit}
}

func (b *Batch) Restore() error {
	signal.Stop(b.sigs)
	return nil
}
