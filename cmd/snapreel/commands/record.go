package commands

import (
	"errors"
	"fmt"

	"github.com/bryanchriswhite/snapreel/internal/input"
	"github.com/bryanchriswhite/snapreel/internal/logger"
	"github.com/bryanchriswhite/snapreel/internal/session"
	"github.com/spf13/cobra"
)

const recordUse = "snapreel record [flags] [COMMAND...] [gif|apng [flags] [save [flags] [OUTPUT]]]"

var recordCmd = &cobra.Command{
	Use:   "record [flags] [COMMAND...] [gif|apng [flags] [save [flags] [OUTPUT]]]",
	Short: "Record a window into a GIF or APNG",
	Long: `Record a window or screen area into an animated GIF or APNG.

Select a window by clicking on it (or use --root / --focus), then press the
action keys to start recording. Release them, press them again and recording
stops when they are released. The cancel keys (Escape or Ctrl+D) and Ctrl-C
abort.

When COMMAND is given it runs through the shell, recording starts right away
and stops when the command exits.`,
	Example: `  # Record the clicked window into t.gif
  snapreel record

  # Record the focused window for 5 seconds at 30 fps as an APNG
  snapreel record -w -d 5 -f 30 apng save demo.png

  # Record a terminal command with a timestamp in the file name
  snapreel record -r htop gif -q 90 save -t htop.gif`,
	DisableFlagParsing: true,
	RunE:               runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
}

func recordChain(cmd *cobra.Command) chainLayout {
	out := cmd.ErrOrStderr()
	return chainLayout{
		first:   []segment{recordFlags("record", true, out), editFlags(out)},
		formats: encoderSegments([]string{"gif", "apng"}, out),
		save:    saveFlags(out),
	}
}

func runRecord(cmd *cobra.Command, args []string) error {
	layout := recordChain(cmd)
	c, err := layout.parse("record", args, cmd.ErrOrStderr())
	if errors.Is(err, errHelp) {
		fmt.Fprintln(cmd.OutOrStdout(), cmd.Long)
		layout.usage(cmd.OutOrStdout(), recordUse)
		return nil
	}
	if err != nil {
		return err
	}
	if err := setup(); err != nil {
		return err
	}
	if err := layout.bind(loader); err != nil {
		return err
	}
	if c.format == "" {
		c.format = "gif"
	}

	rs, err := loader.Record("record", c.args)
	if err != nil {
		return err
	}
	enc, err := newEncoding(c.format, c.output, nil)
	if err != nil {
		return err
	}
	if _, err := loader.Anim(c.format); err != nil {
		return err
	}

	d, err := openDisplay(rs)
	if err != nil {
		return err
	}
	defer d.Close()

	sess := session.New(rs, d.window, d.input)
	defer func() {
		if err := sess.Close(); err != nil {
			logger.WithComponent("record").Warn().Err(err).Msg("Cleanup failed")
		}
	}()

	stream, err := sess.Run()
	if err != nil {
		return err
	}
	// take the border down while encoding; Release is idempotent
	if err := d.window.Release(); err != nil {
		logger.WithComponent("record").Debug().Err(err).Msg("Release before encoding failed")
	}

	enc.cancel = input.CancelPoll(d.input)
	return sess.Encode(func() error {
		path, err := enc.writeAnimation(stream.Frames, d.window.HasAlpha())
		if err == nil {
			fmt.Fprintln(cmd.OutOrStdout(), path)
		}
		return err
	})
}
