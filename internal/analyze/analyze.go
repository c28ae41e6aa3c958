// Package analyze reports what is known about an image file: its size and
// modification time, format and dimensions, EXIF tags and dominant colors.
package analyze

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/bryanchriswhite/snapreel/internal/errs"
	"github.com/bryanchriswhite/snapreel/internal/logger"
	"github.com/bryanchriswhite/snapreel/internal/output"
	"github.com/bryanchriswhite/snapreel/internal/split"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// DefaultColors is the number of dominant colors reported.
const DefaultColors = 5

// paletteQuality samples every pixel of the analyzed frame.
const paletteQuality = 100

// Tag is one EXIF field.
type Tag struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Report describes one image file.
type Report struct {
	Path     string          `json:"path" yaml:"path"`
	Size     int64           `json:"size" yaml:"size"`
	Modified time.Time       `json:"modified" yaml:"modified"`
	Format   string          `json:"format" yaml:"format"`
	Width    int             `json:"width" yaml:"width"`
	Height   int             `json:"height" yaml:"height"`
	Frames   int             `json:"frames" yaml:"frames"`
	Duration time.Duration   `json:"duration" yaml:"duration"`
	Exif     []Tag           `json:"exif,omitempty" yaml:"exif,omitempty"`
	Colors   []output.Swatch `json:"colors,omitempty" yaml:"colors,omitempty"`
}

// File analyzes the image at path and reports up to colors dominant colors
// of its first frame.
func File(path string, colors int) (*Report, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errs.IO("stat "+path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.IO("read "+path, err)
	}

	anim, err := split.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	r := &Report{
		Path:     path,
		Size:     info.Size(),
		Modified: info.ModTime(),
		Format:   anim.Format,
		Width:    anim.Width,
		Height:   anim.Height,
		Frames:   len(anim.Frames),
		Exif:     readExif(data),
	}
	for _, f := range anim.Frames {
		r.Duration += f.Delay
	}
	if len(anim.Frames) > 0 {
		r.Colors = output.DominantColors(anim.Frames[0].Image, colors, paletteQuality)
	}
	return r, nil
}

// tagWalker collects every field visited by exif.Walk.
type tagWalker struct {
	tags []Tag
}

func (w *tagWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	w.tags = append(w.tags, Tag{Name: string(name), Value: tag.String()})
	return nil
}

// readExif returns the EXIF tags in data sorted by name, or nil when there
// are none.
func readExif(data []byte) []Tag {
	x, err := exif.Decode(bytes.NewReader(data))
	if x == nil {
		logger.WithComponent("analyze").Debug().Err(err).Msg("No EXIF data")
		return nil
	}
	if err != nil {
		logger.WithComponent("analyze").Debug().Err(err).Msg("EXIF data partially decoded")
	}
	w := &tagWalker{}
	if err := x.Walk(w); err != nil {
		return nil
	}
	sort.Slice(w.tags, func(i, j int) bool { return w.tags[i].Name < w.tags[j].Name })
	return w.tags
}

// Write prints the report as aligned key/value lines.
func (r *Report) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "File:\t%s\n", r.Path)
	fmt.Fprintf(tw, "Size:\t%s (%d bytes)\n", humanSize(r.Size), r.Size)
	fmt.Fprintf(tw, "Modified:\t%s\n", r.Modified.Format(time.RFC3339))
	fmt.Fprintf(tw, "Format:\t%s\n", r.Format)
	fmt.Fprintf(tw, "Dimensions:\t%dx%d\n", r.Width, r.Height)
	if r.Frames > 1 {
		fmt.Fprintf(tw, "Frames:\t%d\n", r.Frames)
		fmt.Fprintf(tw, "Duration:\t%s\n", r.Duration)
	}
	if len(r.Colors) > 0 {
		fmt.Fprintf(tw, "Colors:\t\n")
		for _, c := range r.Colors {
			fmt.Fprintf(tw, "  #%02X%02X%02X\t%5.1f%%\n", c.Color.R, c.Color.G, c.Color.B, c.Share*100)
		}
	}
	if len(r.Exif) > 0 {
		fmt.Fprintf(tw, "EXIF:\t\n")
		for _, t := range r.Exif {
			fmt.Fprintf(tw, "  %s\t%s\n", t.Name, t.Value)
		}
	}
	if err := tw.Flush(); err != nil {
		return errs.IO("write report", err)
	}
	return nil
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
