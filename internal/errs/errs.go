// Package errs defines the error kinds that cross package boundaries and the
// process exit codes they map to at the command line.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig is a bad CLI, environment or config file value.
	ErrConfig = errors.New("configuration error")

	// ErrWindowSystem is a failure to open the display, select a window or grab pixels.
	ErrWindowSystem = errors.New("window system error")

	// ErrNoFrames is returned when an animation has nothing left to encode.
	ErrNoFrames = errors.New("no frames")

	// ErrIO is a failure writing or creating output.
	ErrIO = errors.New("i/o error")

	// ErrUserInterrupt is the cancel chord or Ctrl-C.
	ErrUserInterrupt = errors.New("user interrupt")
)

// Exit codes returned by the snapreel binary.
const (
	ExitOK        = 0
	ExitCancelled = 1
	ExitConfig    = 2
	ExitFailure   = 3
)

const maxPanicMessage = 256

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUserInterrupt):
		return ExitCancelled
	case errors.Is(err, ErrConfig):
		return ExitConfig
	default:
		return ExitFailure
	}
}

// Config wraps a formatted message as a configuration error.
func Config(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// IO wraps err as an output error, keeping the original in the chain.
func IO(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}

// FromPanic converts a recovered panic value into an ErrIO with a bounded message.
func FromPanic(v any) error {
	msg := fmt.Sprint(v)
	if len(msg) > maxPanicMessage {
		msg = msg[:maxPanicMessage] + "..."
	}
	return fmt.Errorf("%w: panic during encode: %s", ErrIO, msg)
}
