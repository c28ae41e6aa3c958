package commands

import (
	"errors"

	"github.com/bryanchriswhite/snapreel/internal/config"
	"github.com/bryanchriswhite/snapreel/internal/errs"
	"github.com/bryanchriswhite/snapreel/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	cfgFile  string
	logLevel string
	logJSON  bool
	verbose  int
	quiet    bool

	// loader is ready once setup has run.
	loader *config.Loader

	rootCmd = &cobra.Command{
		Use:   "snapreel",
		Short: "snapreel - screen recorder and GIF/APNG toolbox for X11",
		Long: `snapreel records a window or screen area of an X11 display into an
animated GIF or APNG, takes screenshots, and edits, splits, assembles,
analyzes and views images in the terminal.

Settings resolve in the order: command line flag, environment variable
(SNAPREEL_<SECTION>_<NAME>), config file, built-in default.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// commands that parse their own flag chain call setup themselves
			if cmd.DisableFlagParsing {
				return nil
			}
			return setup()
		},
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/snapreel/snapreel.conf)")
	flags.CountVarP(&verbose, "verbose", "v", "increase logging verbosity (repeatable)")
	flags.BoolVarP(&quiet, "quiet", "q", false, "only log errors")
	flags.StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	flags.BoolVar(&logJSON, "log-json", false, "log JSON lines instead of console output")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return errs.Config("%v", err)
	})
}

// globalFlags returns the persistent flags for commands that parse their
// arguments themselves.
func globalFlags() *pflag.FlagSet {
	return rootCmd.PersistentFlags()
}

// setup initializes logging and loads the config file.
func setup() error {
	opts := logger.Options{Level: logLevel, Verbosity: verbose, Quiet: quiet, JSON: logJSON}
	logger.Init(opts)

	l, err := config.NewLoader(cfgFile)
	if err != nil {
		return err
	}
	loader = l

	if logLevel == "" {
		if level := l.String("general.log-level"); level != "" {
			opts.Level = level
			logger.Init(opts)
		}
	}
	return nil
}

// Execute runs the root command. Errors that carry no kind are usage errors
// and reported as configuration errors.
func Execute() error {
	err := rootCmd.Execute()
	if err == nil {
		return nil
	}
	for _, kind := range []error{errs.ErrConfig, errs.ErrWindowSystem, errs.ErrNoFrames, errs.ErrIO, errs.ErrUserInterrupt} {
		if errors.Is(err, kind) {
			return err
		}
	}
	return errs.Config("%v", err)
}
