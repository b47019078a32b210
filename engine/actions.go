package engine

import (
	"context"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/ftahirops/ptop/config"
	"github.com/ftahirops/ptop/util"
)

// inspectTimeout bounds an inspect command that is not interrupted.
const inspectTimeout = 30 * time.Second

// inspectMaxLines caps the captured output.
const inspectMaxLines = 10000

func signalTask(pid, sig int) error {
	if err := unix.Kill(pid, unix.Signal(sig)); err != nil {
		return errors.Wrapf(err, "kill pid %d", pid)
	}
	return nil
}

func reniceTask(pid, nice int) error {
	if err := unix.Setpriority(unix.PRIO_PROCESS, pid, nice); err != nil {
		return errors.Wrapf(err, "renice pid %d", pid)
	}
	return nil
}

// parseSignal accepts a number or a name with or without the SIG
// prefix, in any case.
func parseSignal(text string) (int, error) {
	if n, err := strconv.Atoi(text); err == nil {
		if n <= 0 || n > 64 {
			return 0, inputErrorf("signal %d out of range", n)
		}
		return n, nil
	}
	name := strings.ToUpper(text)
	if !strings.HasPrefix(name, "SIG") {
		name = "SIG" + name
	}
	sig := unix.SignalNum(name)
	if sig == 0 {
		return 0, inputErrorf("unknown signal %q", text)
	}
	return int(sig), nil
}

// inspect runs entry for pid and shows its output in a pager. A pipe
// entry may be interrupted with ^C without ending the monitor.
func (s *Scheduler) inspect(entry config.Inspect, pid int) error {
	target := strings.ReplaceAll(entry.Command, "%d", strconv.Itoa(pid))
	var out []byte
	var err error
	switch entry.Type {
	case "file":
		out, err = os.ReadFile(target)
	case "pipe":
		out, err = s.runInterruptible(target)
	default:
		return inputErrorf("inspect entry %q: unknown type %q", entry.Label, entry.Type)
	}
	if err != nil && len(out) == 0 {
		return errors.Wrapf(err, "inspect %s", entry.Label)
	}
	text := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	if len(text) > inspectMaxLines {
		text = text[:inspectMaxLines]
	}
	s.overlay = &textView{title: entry.Label + " for pid " + strconv.Itoa(pid), text: text}
	return nil
}

func (s *Scheduler) runInterruptible(cmdline string) ([]byte, error) {
	argv, err := shlex.Split(cmdline)
	if err != nil {
		return nil, inputErrorf("inspect command %q: %v", cmdline, err)
	}
	if len(argv) == 0 {
		return nil, inputErrorf("empty inspect command")
	}
	ctx, cancel := context.WithTimeout(context.Background(), inspectTimeout)
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	go func() {
		select {
		case <-sigs:
			cancel()
		case <-ctx.Done():
		}
	}()
	if s.unmask != nil {
		restore := s.unmask()
		defer restore()
	}

	util.Log.WithField("argv", argv).Debug("inspect")
	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
	if ctx.Err() == context.Canceled {
		return append(out, "\n[interrupted]"...), nil
	}
	return out, err
}
