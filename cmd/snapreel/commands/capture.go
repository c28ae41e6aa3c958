package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bryanchriswhite/snapreel/internal/input"
	"github.com/bryanchriswhite/snapreel/internal/logger"
	"github.com/bryanchriswhite/snapreel/internal/output"
	"github.com/bryanchriswhite/snapreel/internal/session"
	"github.com/spf13/cobra"
)

var captureUse = fmt.Sprintf("snapreel capture [flags] [COMMAND...] [%s [flags] [save [flags] [OUTPUT]]]",
	strings.Join(output.StillFormats(), "|"))

var captureCmd = &cobra.Command{
	Use:   "capture [flags] [COMMAND...] [FORMAT [flags] [save [flags] [OUTPUT]]]",
	Short: "Take a screenshot of a window",
	Long: `Take a single frame screenshot of a window or screen area.

Select a window by clicking on it (or use --root / --focus), then press the
action keys to capture. With COMMAND the frame is taken when the command
exits. Formats: ` + strings.Join(output.StillFormats(), ", ") + ".",
	Example: `  # Capture the root window as t.png
  snapreel capture -r --no-keys

  # Capture the focused window as a JPEG with a date suffix
  snapreel capture -w jpg -q 80 save -d %Y%m%d shot.jpg`,
	DisableFlagParsing: true,
	RunE:               runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)
}

func runCapture(cmd *cobra.Command, args []string) error {
	out := cmd.ErrOrStderr()
	layout := chainLayout{
		first:   []segment{recordFlags("capture", false, out), editFlags(out)},
		formats: encoderSegments(output.StillFormats(), out),
		save:    saveFlags(out),
	}
	c, err := layout.parse("capture", args, out)
	if errors.Is(err, errHelp) {
		fmt.Fprintln(cmd.OutOrStdout(), cmd.Long)
		layout.usage(cmd.OutOrStdout(), captureUse)
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
		c.format = "png"
	}

	rs, err := loader.Record("capture", c.args)
	if err != nil {
		return err
	}
	enc, err := newEncoding(c.format, c.output, nil)
	if err != nil {
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
			logger.WithComponent("capture").Warn().Err(err).Msg("Cleanup failed")
		}
	}()

	frame, err := sess.Capture()
	if err != nil {
		return err
	}
	if err := d.window.Release(); err != nil {
		logger.WithComponent("capture").Debug().Err(err).Msg("Release before encoding failed")
	}

	enc.cancel = input.CancelPoll(d.input)
	return sess.Encode(func() error {
		path, err := enc.writeStill(frame.ToNRGBA())
		if err == nil {
			fmt.Fprintln(cmd.OutOrStdout(), path)
		}
		return err
	})
}
