package commands

import (
	"errors"
	"fmt"
	"image"

	"github.com/bryanchriswhite/snapreel/internal/anim"
	"github.com/bryanchriswhite/snapreel/internal/errs"
	"github.com/bryanchriswhite/snapreel/internal/logger"
	"github.com/bryanchriswhite/snapreel/internal/session"
	"github.com/bryanchriswhite/snapreel/internal/split"
	"github.com/spf13/cobra"
)

const makeUse = "snapreel make <FRAMES...> [flags] [gif|apng [flags] [save [flags] [OUTPUT]]]"

var makeCmd = &cobra.Command{
	Use:   "make <FRAMES...> [flags] [gif|apng [flags] [save [flags] [OUTPUT]]]",
	Short: "Assemble image files into an animation",
	Long: `Assemble the listed image files, in order, into an animated GIF or APNG.

Every frame is shown for 1/fps seconds, using the fps of the chosen format.
All frames must have the same size. The edit flags apply to every frame.`,
	Example: `  # Turn split frames back into a GIF at 10 fps
  snapreel make frames/frame_*.png gif -f 10 save out.gif`,
	DisableFlagParsing: true,
	RunE:               runMake,
}

func init() {
	rootCmd.AddCommand(makeCmd)
}

func runMake(cmd *cobra.Command, args []string) error {
	out := cmd.ErrOrStderr()
	layout := chainLayout{
		first:        []segment{editFlags(out)},
		formats:      encoderSegments([]string{"gif", "apng"}, out),
		save:         saveFlags(out),
		interspersed: true,
	}
	c, err := layout.parse("make", args, out)
	if errors.Is(err, errHelp) {
		fmt.Fprintln(cmd.OutOrStdout(), cmd.Long)
		layout.usage(cmd.OutOrStdout(), makeUse)
		return nil
	}
	if err != nil {
		return err
	}
	if len(c.args) == 0 {
		return errs.Config("make needs at least one frame file")
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
	settings, err := loader.Anim(c.format)
	if err != nil {
		return err
	}

	images, err := loadFrames(c.args)
	if err != nil {
		return err
	}
	delay := uint16(max(1, 100/settings.FPS))
	frames := anim.FramesFromImages(images, delay)

	intr, stop := session.NotifyInterrupt()
	defer stop()
	enc, err := newEncoding(c.format, c.output, intr.CheckCancelKeys)
	if err != nil {
		return err
	}
	path, err := enc.writeAnimation(frames, true)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

// loadFrames decodes the first frame of every file and checks that all
// frames share one size.
func loadFrames(paths []string) ([]image.Image, error) {
	log := logger.WithComponent("make")
	images := make([]image.Image, 0, len(paths))
	var size image.Point
	for i, path := range paths {
		a, err := split.DecodeFile(path)
		if err != nil {
			return nil, err
		}
		img := a.Frames[0].Image
		if i == 0 {
			size = img.Bounds().Size()
		} else if got := img.Bounds().Size(); got != size {
			return nil, errs.Config("%s is %dx%d, expected %dx%d like the first frame", path, got.X, got.Y, size.X, size.Y)
		}
		images = append(images, img)
		log.Debug().Str("path", path).Msg("Frame loaded")
	}
	log.Info().Int("frames", len(images)).Msg("Frames loaded")
	return images, nil
}
