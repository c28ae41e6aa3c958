package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// Logger is the global logger instance
	Logger zerolog.Logger
)

func init() {
	// Default to warnings on stderr until Init runs with the parsed flags
	Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().
		Timestamp().
		Logger()
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	log.Logger = Logger
}

// LogLevel represents the logging level
type LogLevel string

const (
	TraceLevel LogLevel = "trace"
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
)

// Options configures the global logger.
type Options struct {
	// Level is an explicit level name; it wins over Verbosity when set.
	Level string
	// Verbosity is the number of -v flags.
	Verbosity int
	// Quiet only lets errors through.
	Quiet bool
	// JSON switches from the console writer to structured JSON lines.
	JSON bool
	// Output defaults to stderr.
	Output io.Writer
}

// LevelFor resolves the zerolog level for the given options.
func LevelFor(opts Options) zerolog.Level {
	if opts.Quiet {
		return zerolog.ErrorLevel
	}
	switch strings.ToLower(opts.Level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	}
	switch {
	case opts.Verbosity <= 0:
		return zerolog.WarnLevel
	case opts.Verbosity == 1:
		return zerolog.InfoLevel
	case opts.Verbosity == 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// Init initializes the global logger from the CLI options
func Init(opts Options) {
	zerolog.SetGlobalLevel(LevelFor(opts))

	var output io.Writer = opts.Output
	if output == nil {
		output = os.Stderr
	}
	if !opts.JSON {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "15:04:05.000",
		}
	}

	Logger = zerolog.New(output).
		With().
		Timestamp().
		Logger()

	log.Logger = Logger
}

// Get returns the global logger instance
func Get() *zerolog.Logger {
	return &Logger
}

// WithComponent returns a logger with a component field set
func WithComponent(component string) *zerolog.Logger {
	l := Logger.With().Str("component", component).Logger()
	return &l
}
