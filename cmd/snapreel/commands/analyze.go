package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/bryanchriswhite/snapreel/internal/analyze"
	"github.com/bryanchriswhite/snapreel/internal/errs"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <FILE>",
	Short: "Print information about an image",
	Long: `Print the size, modification time, format, dimensions, EXIF tags and
dominant colors of an image file.`,
	Example: `  # Report on a screenshot
  snapreel analyze shot.jpg

  # Top 3 colors as JSON
  snapreel analyze t.gif -c 3 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var analyzeFormat string

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().IntP("colors", "c", analyze.DefaultColors, "number of dominant colors")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "text", "output format (text, yaml or json)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := loader.BindFlags("analyze", cmd.Flags()); err != nil {
		return err
	}
	report, err := analyze.File(args[0], loader.Int("analyze.colors"))
	if err != nil {
		return err
	}
	return printReport(cmd.OutOrStdout(), report, analyzeFormat)
}

func printReport(w io.Writer, report any, format string) error {
	switch format {
	case "text":
		if r, ok := report.(*analyze.Report); ok {
			return r.Write(w)
		}
		fallthrough
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return errs.IO("encode yaml", err)
		}
		return enc.Close()
	case "json":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return errs.IO("encode json", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	return errs.Config("unsupported format %q (use text, yaml or json)", format)
}
