package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bryanchriswhite/snapreel/internal/errs"
	"github.com/bryanchriswhite/snapreel/internal/logger"
	"github.com/bryanchriswhite/snapreel/internal/output"
	"github.com/bryanchriswhite/snapreel/internal/session"
	"github.com/bryanchriswhite/snapreel/internal/split"
	"github.com/spf13/cobra"
)

const editUse = "snapreel edit <FILE> [flags] [FORMAT [flags] [save [flags] [OUTPUT]]]"

var editCmd = &cobra.Command{
	Use:   "edit <FILE> [flags] [FORMAT [flags] [save [flags] [OUTPUT]]]",
	Short: "Edit an image or animation",
	Long: `Apply crop, resize, flip, rotate, blur and color adjustments to an image.

Animated GIF and APNG input is edited frame by frame and written as an
animation unless a single image FORMAT is chosen, which takes the first
frame. FORMAT defaults to the format of FILE.`,
	Example: `  # Shrink a recording to half its size
  snapreel edit t.gif --ratio 0.5 gif save small.gif

  # Rotate a screenshot and save it as a JPEG
  snapreel edit shot.png --rotate 90 jpg save`,
	DisableFlagParsing: true,
	RunE:               runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)
}

// allFormats lists the animation formats followed by the single image ones.
func allFormats() []string {
	return append([]string{"gif", "apng"}, output.StillFormats()...)
}

func runEdit(cmd *cobra.Command, args []string) error {
	out := cmd.ErrOrStderr()
	layout := chainLayout{
		first:        []segment{editFlags(out)},
		formats:      encoderSegments(allFormats(), out),
		save:         saveFlags(out),
		interspersed: true,
	}
	c, err := layout.parse("edit", args, out)
	if errors.Is(err, errHelp) {
		fmt.Fprintln(cmd.OutOrStdout(), cmd.Long)
		layout.usage(cmd.OutOrStdout(), editUse)
		return nil
	}
	if err != nil {
		return err
	}
	if len(c.args) != 1 {
		return errs.Config("edit takes exactly one input file, got %d", len(c.args))
	}
	if err := setup(); err != nil {
		return err
	}
	if err := layout.bind(loader); err != nil {
		return err
	}
	log := logger.WithComponent("edit")

	input := c.args[0]
	a, err := split.DecodeFile(input)
	if err != nil {
		return err
	}
	animated := len(a.Frames) > 1
	if c.format == "" {
		if c.format, err = output.FormatFromExtension(filepath.Ext(input)); err != nil {
			return err
		}
		if c.format == "png" && animated {
			c.format = "apng"
		}
	}

	intr, stop := session.NotifyInterrupt()
	defer stop()
	enc, err := newEncoding(c.format, c.output, intr.CheckCancelKeys)
	if err != nil {
		return err
	}

	var path string
	if output.Animated(c.format) {
		path, err = enc.writeAnimation(a.RasterFrames(), true)
	} else {
		if animated {
			log.Warn().
				Int("frames", len(a.Frames)).
				Str("format", strings.ToUpper(c.format)).
				Msg("Single image format, keeping the first frame only")
		}
		path, err = enc.writeStill(a.Frames[0].Image)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
