package commands

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/bryanchriswhite/snapreel/internal/config"
	"github.com/bryanchriswhite/snapreel/internal/errs"
	"github.com/bryanchriswhite/snapreel/internal/input"
	"github.com/spf13/pflag"
)

// errHelp stops a command after a segment printed its usage.
var errHelp = errors.New("help requested")

// segment is one link of a command chain: the flags of a section and the
// config section they resolve under.
type segment struct {
	section string
	flags   *pflag.FlagSet
}

// chainLayout describes the chain `<command> [ARGS] [FORMAT [flags] [save [flags] [OUTPUT]]]`.
type chainLayout struct {
	// first holds the command's own flag groups.
	first []segment
	// formats maps every encoder name to its flags.
	formats map[string]segment
	save    segment
	// interspersed lets flags follow the positional arguments of the
	// command. Without it parsing stops at the first positional so a child
	// command keeps its own flags.
	interspersed bool
}

// chain is the parsed command line.
type chain struct {
	args   []string
	format string
	output string
}

func newFlagSet(name string, out io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false
	fs.SetOutput(out)
	// the chain prints its own usage on -h
	fs.Usage = func() {}
	return fs
}

// parse splits args into the command, encoder and save links and parses
// each with its own flags. Global flags are accepted in the first link.
func (s chainLayout) parse(name string, args []string, out io.Writer) (chain, error) {
	var c chain

	first := newFlagSet(name, out)
	for _, seg := range s.first {
		first.AddFlagSet(seg.flags)
	}
	first.AddFlagSet(globalFlags())
	first.SetInterspersed(s.interspersed)

	var rest []string
	if s.interspersed {
		i := s.formatIndex(args)
		if err := parseFlags(first, args[:i]); err != nil {
			return c, err
		}
		c.args, rest = first.Args(), args[i:]
	} else {
		if err := parseFlags(first, args); err != nil {
			return c, err
		}
		positional := first.Args()
		i := s.formatIndex(positional)
		c.args, rest = positional[:i], positional[i:]
	}
	if len(rest) == 0 {
		return c, nil
	}

	c.format = rest[0]
	enc := s.formats[c.format].flags
	enc.SetInterspersed(false)
	if err := parseFlags(enc, rest[1:]); err != nil {
		return c, err
	}
	rest = enc.Args()
	if len(rest) == 0 {
		return c, nil
	}
	if rest[0] != "save" {
		return c, errs.Config("unexpected argument %q after %s (expected save)", rest[0], c.format)
	}

	if err := parseFlags(s.save.flags, rest[1:]); err != nil {
		return c, err
	}
	switch outputs := s.save.flags.Args(); len(outputs) {
	case 0:
	case 1:
		c.output = outputs[0]
	default:
		return c, errs.Config("save takes a single output file, got %d", len(outputs))
	}
	return c, nil
}

// formatIndex returns the index of the first encoder name in args, or
// len(args).
func (s chainLayout) formatIndex(args []string) int {
	for i, arg := range args {
		if _, ok := s.formats[arg]; ok {
			return i
		}
	}
	return len(args)
}

func parseFlags(fs *pflag.FlagSet, args []string) error {
	err := fs.Parse(args)
	switch {
	case errors.Is(err, pflag.ErrHelp):
		return errHelp
	case err != nil:
		return errs.Config("%s: %v", fs.Name(), err)
	}
	return nil
}

// bind registers every segment's flags with the loader.
func (s chainLayout) bind(l *config.Loader) error {
	segments := slices.Clone(s.first)
	for _, seg := range s.formats {
		segments = append(segments, seg)
	}
	segments = append(segments, s.save)
	for _, seg := range segments {
		if seg.section == "" {
			continue
		}
		if err := l.BindFlags(seg.section, seg.flags); err != nil {
			return errs.Config("%v", err)
		}
	}
	return nil
}

// recordFlags are the selection and session flags of record and capture.
func recordFlags(section string, recording bool, out io.Writer) segment {
	fs := newFlagSet(section, out)
	if recording {
		fs.Uint32P("fps", "f", 20, "frames per second")
		fs.StringP("duration", "d", "", "recording duration in seconds (default infinite)")
	}
	fs.StringP("action-keys", "k", input.DefaultActionKeys, "action keys chord MAIN-ALT1/ALT2")
	fs.StringP("color", "x", "FF00FF", "selection border color as RRGGBB")
	fs.Uint32P("border", "b", 1, "selection border width in pixels")
	fs.StringP("padding", "p", "", "area padding T:R:B:L")
	fs.StringP("size", "s", "", "area size WxH")
	fs.Uint32P("countdown", "c", 3, "countdown in seconds (0 when a command is given)")
	fs.StringP("timeout", "t", "60", "window selection timeout in seconds")
	fs.Int64P("interval", "i", 10, "window selection polling interval in milliseconds")
	fs.BoolP("root", "r", false, "use the root window")
	fs.BoolP("focus", "w", false, "use the focused window")
	fs.BoolP("alpha", "a", false, "keep the alpha channel")
	fs.Bool("no-border", false, "do not draw the selection border")
	fs.Bool("no-keys", false, "disable the action keys")
	return segment{section: section, flags: fs}
}

// editFlags are the frame editor flags.
func editFlags(out io.Writer) segment {
	fs := newFlagSet("edit", out)
	fs.String("crop", "", "crop padding T:R:B:L")
	fs.String("resize", "", "resize to WxH")
	fs.Float64("ratio", 1, "scale ratio")
	fs.String("flip", "", "flip horizontal or vertical")
	fs.Int("rotate", 0, "rotate by 90, 180 or 270 degrees")
	fs.Float64("blur", 0, "gaussian blur sigma")
	fs.Bool("grayscale", false, "convert to grayscale")
	fs.Bool("invert", false, "invert colors")
	fs.Int32("brightness", 0, "brightness offset")
	fs.Int32("hue", 0, "hue rotation in degrees")
	fs.Float64("contrast", 0, "contrast adjustment")
	return segment{section: "edit", flags: fs}
}

// animFlags are the animation encoder flags of gif and apng.
func animFlags(section string, out io.Writer) segment {
	fs := newFlagSet(section, out)
	anim := config.DefaultAnimSettings()
	fs.Uint32P("fps", "f", anim.FPS, "frames per second")
	fs.IntP("quality", "q", int(anim.Quality), "encoding quality (1-100)")
	fs.Int32P("repeat", "r", anim.Repeat, "repeat count, -1 loops forever")
	fs.Float64P("speed", "s", float64(anim.Speed), "playback speed multiplier")
	fs.Float64("cut-beginning", 0, "milliseconds to cut from the beginning")
	fs.Float64("cut-end", 0, "milliseconds to cut from the end")
	if section == "gif" {
		fs.Bool("fast", false, "encode with per frame palettes, faster but lower quality")
	}
	return segment{section: section, flags: fs}
}

// stillFlags are the flags of one single image encoder.
func stillFlags(format string, out io.Writer) segment {
	fs := newFlagSet(format, out)
	switch format {
	case "png":
		fs.String("compression", "default", "compression level (default, none, fast, best)")
	case "jpg":
		fs.IntP("quality", "q", 90, "JPEG quality (1-100)")
	case "pnm":
		fs.String("format", "pixmap", "PNM subtype (pixmap, graymap, arbitrary)")
	}
	return segment{section: format, flags: fs}
}

// saveFlags name the output file.
func saveFlags(out io.Writer) segment {
	fs := newFlagSet("save", out)
	fs.StringP("date", "d", "", "append the date formatted with FMT (%Y %m %d %H %M %S)")
	fs.BoolP("timestamp", "t", false, "append the unix timestamp")
	fs.BoolP("prompt", "p", false, "prompt for the file name")
	return segment{section: "save", flags: fs}
}

// encoderSegments returns the flags for each of formats.
func encoderSegments(formats []string, out io.Writer) map[string]segment {
	m := make(map[string]segment, len(formats))
	for _, f := range formats {
		if f == "gif" || f == "apng" {
			m[f] = animFlags(f, out)
		} else {
			m[f] = stillFlags(f, out)
		}
	}
	return m
}

// usage prints the flags of every link of the chain.
func (s chainLayout) usage(w io.Writer, use string) {
	fmt.Fprintf(w, "Usage:\n  %s\n", use)
	for _, seg := range s.first {
		fmt.Fprintf(w, "\n%s flags:\n%s", seg.flags.Name(), seg.flags.FlagUsages())
	}
	fmt.Fprintf(w, "\nGlobal flags:\n%s", globalFlags().FlagUsages())
	names := make([]string, 0, len(s.formats))
	for name := range s.formats {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if usages := s.formats[name].flags.FlagUsages(); usages != "" {
			fmt.Fprintf(w, "\n%s flags:\n%s", name, usages)
		}
	}
	fmt.Fprintf(w, "\nsave [OUTPUT] flags:\n%s", s.save.flags.FlagUsages())
}
