package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bryanchriswhite/snapreel/internal/session"
	"github.com/bryanchriswhite/snapreel/internal/split"
	"github.com/spf13/cobra"
)

var splitCmd = &cobra.Command{
	Use:   "split <FILE>",
	Short: "Split an animation into PNG frames",
	Long: `Decode an animated GIF or APNG and write every frame, fully composed, as
frame_NNN.png. The directory defaults to <FILE without extension>_frames.`,
	Example: `  # Split a recording into ./t_frames
  snapreel split t.gif

  # Split into a chosen directory
  snapreel split t.gif -d /tmp/frames`,
	Args: cobra.ExactArgs(1),
	RunE: runSplit,
}

func init() {
	rootCmd.AddCommand(splitCmd)
	splitCmd.Flags().StringP("dir", "d", "", "output directory")
}

func runSplit(cmd *cobra.Command, args []string) error {
	if err := loader.BindFlags("split", cmd.Flags()); err != nil {
		return err
	}
	path := args[0]
	dir := loader.String("split.dir")
	if dir == "" {
		dir = strings.TrimSuffix(path, filepath.Ext(path)) + "_frames"
	}

	a, err := split.DecodeFile(path)
	if err != nil {
		return err
	}
	intr, stop := session.NotifyInterrupt()
	defer stop()
	paths, err := split.Write(dir, a, intr.CheckCancelKeys)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d frames written to %s\n", len(paths), dir)
	return nil
}
