package util

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. The interactive modes own the
// terminal, so it discards output until SetupLogging points it somewhere.
var Log = newLogger(io.Discard)

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetupLogging directs the logger to path, or to stderr when toStderr is
// set and no path is given. The returned closer must be called on exit.
func SetupLogging(path string, toStderr, debug bool) (io.Closer, error) {
	if debug {
		Log.SetLevel(logrus.DebugLevel)
	}
	if path == "" {
		if toStderr {
			Log.SetOutput(os.Stderr)
		}
		return io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, errors.Wrapf(err, "open log file %s", path)
	}
	Log.SetOutput(f)
	return f, nil
}
