package engine

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an error by how the scheduler reacts to it.
type Kind int

const (
	// KindFatal ends the run: the collector or summary source failed.
	KindFatal Kind = iota
	// KindInput is a rejected command; shown on the status line.
	KindInput
	// KindConfig is a bad rc file; defaults are used instead.
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindConfig:
		return "config"
	}
	return "fatal"
}

// InputError is a recoverable user-input rejection. State is unchanged.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

func inputErrorf(format string, args ...interface{}) error {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind of err; anything unclassified is fatal.
func KindOf(err error) Kind {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return KindConfig
	}
	var ie *InputError
	if errors.As(err, &ie) {
		return KindInput
	}
	return KindFatal
}

// ConfigError wraps a persisted-configuration failure.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return "config: " + e.Err.Error() }

func (e *ConfigError) Unwrap() error { return e.Err }
