package commands

import (
	"github.com/bryanchriswhite/snapreel/internal/split"
	"github.com/bryanchriswhite/snapreel/internal/view"
	"github.com/spf13/cobra"
)

var viewCmd = &cobra.Command{
	Use:   "view <FILE>",
	Short: "Show an image in the terminal",
	Long: `Print an image to a truecolor terminal using half block characters.
Animations show their first frame.`,
	Example: `  snapreel view shot.png -w 120`,
	Args:    cobra.ExactArgs(1),
	RunE:    runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)
	viewCmd.Flags().IntP("width", "w", view.DefaultWidth, "maximum width in columns")
}

func runView(cmd *cobra.Command, args []string) error {
	if err := loader.BindFlags("view", cmd.Flags()); err != nil {
		return err
	}
	a, err := split.DecodeFile(args[0])
	if err != nil {
		return err
	}
	return view.Print(cmd.OutOrStdout(), a.Frames[0].Image, view.Options{Width: loader.Int("view.width")})
}
