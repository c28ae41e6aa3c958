package commands

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/BurntSushi/xgb"
	"github.com/bryanchriswhite/snapreel/internal/anim"
	"github.com/bryanchriswhite/snapreel/internal/capture"
	"github.com/bryanchriswhite/snapreel/internal/config"
	"github.com/bryanchriswhite/snapreel/internal/editor"
	"github.com/bryanchriswhite/snapreel/internal/errs"
	"github.com/bryanchriswhite/snapreel/internal/input"
	"github.com/bryanchriswhite/snapreel/internal/logger"
	"github.com/bryanchriswhite/snapreel/internal/output"
	"github.com/bryanchriswhite/snapreel/internal/raster"
	"github.com/bryanchriswhite/snapreel/internal/session"
	"github.com/bryanchriswhite/snapreel/internal/window"
	"github.com/hashicorp/go-multierror"
)

// display is an open X connection with the selected capture target.
type display struct {
	conn   *xgb.Conn
	input  input.State
	window *capture.X11Window
	stop   func()
}

// openDisplay connects to the X server, lets the user select a window and
// prepares it for capture. Ctrl-C acts as the cancel chord from here on.
func openDisplay(rs config.RecordSettings) (*display, error) {
	log := logger.WithComponent("display")
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open display: %v", errs.ErrWindowSystem, err)
	}

	keys, err := input.NewX11State(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", errs.ErrWindowSystem, err)
	}
	intr, stop := session.NotifyInterrupt()
	d := &display{conn: conn, input: input.Any(keys, intr), stop: stop}

	selector := &window.Selector{
		Backend:  window.NewX11Backend(conn),
		Input:    d.input,
		Settings: rs.Select,
	}
	if !rs.NoKeys {
		selector.Keys = &rs.ActionKeys
	}
	if !rs.Select.Root && !rs.Select.Focus {
		log.Info().Msg("Click on a window to select it")
	}
	sel, err := selector.Select()
	if err != nil {
		d.Close()
		return nil, err
	}

	d.window, err = capture.NewX11Window(conn, sel, capture.Options{
		Alpha:       rs.Alpha,
		BorderWidth: rs.Select.Border,
		NoBorder:    rs.Select.NoBorder,
		Color:       rs.Select.Color,
	})
	if err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// Close stops listening for signals and closes the connection. The window
// is released by the session.
func (d *display) Close() {
	d.stop()
	d.conn.Close()
}

// encoding holds everything needed to write a result.
type encoding struct {
	format string
	edit   config.EditSettings
	namer  output.Namer
	cancel output.CancelFunc
}

// newEncoding resolves the edit and save settings for format. output
// overrides the configured file name.
func newEncoding(format, out string, cancel output.CancelFunc) (encoding, error) {
	edit, err := loader.Edit()
	if err != nil {
		return encoding{}, err
	}
	save := loader.Save()
	if out != "" {
		save.Output = out
	}
	return encoding{
		format: format,
		edit:   edit,
		namer:  output.Namer{Settings: save, In: os.Stdin, Out: os.Stderr},
		cancel: cancel,
	}, nil
}

func stillOptions() output.StillOptions {
	return output.StillOptions{
		PNGCompression: loader.String("png.compression"),
		JPEGQuality:    loader.Int("jpg.quality"),
		PNMFormat:      loader.String("pnm.format"),
	}
}

// writeAnimation edits frames and encodes them as a GIF or APNG.
func (e encoding) writeAnimation(frames []raster.Frame, hasAlpha bool) (string, error) {
	settings, err := loader.Anim(e.format)
	if err != nil {
		return "", err
	}
	dec := anim.NewDecoder(settings, e.edit)
	images, fps, err := dec.UpdateFrames(frames)
	if err != nil {
		return "", err
	}

	var enc output.AnimEncoder
	switch e.format {
	case "gif":
		enc = output.NewGifEncoder(dec.Geometry(), fps, settings, hasAlpha)
	case "apng":
		enc = output.NewApngEncoder(dec.Geometry(), fps, settings, hasAlpha)
	default:
		return "", errs.Config("%s is not an animation format", e.format)
	}
	return e.write(enc.Ext(), func(w io.Writer) error {
		return enc.Save(w, images, e.cancel)
	})
}

// writeStill edits img and encodes it with a single image encoder.
func (e encoding) writeStill(img *image.NRGBA) (string, error) {
	enc, err := output.NewStill(e.format, stillOptions())
	if err != nil {
		return "", err
	}
	ed := editor.New(e.edit)
	b := img.Bounds()
	if g := ed.Init(b.Dx(), b.Dy()); g.Width == 0 || g.Height == 0 {
		return "", errs.Config("edit settings leave an empty %s image", g)
	}
	edited := ed.Apply(img)
	return e.write(enc.Ext(), func(w io.Writer) error {
		return enc.Encode(w, edited)
	})
}

// write creates the output file and runs encode on it. A file interrupted
// by the cancel chord is still flushed and closed.
func (e encoding) write(ext string, encode func(io.Writer) error) (string, error) {
	log := logger.WithComponent("output")
	path, err := e.namer.Path(ext)
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", errs.IO("create "+path, err)
	}

	bw := bufio.NewWriter(f)
	encErr := encode(bw)
	var result *multierror.Error
	if err := bw.Flush(); err != nil {
		result = multierror.Append(result, errs.IO("write "+path, err))
	}
	if err := f.Close(); err != nil {
		result = multierror.Append(result, errs.IO("close "+path, err))
	}
	if encErr != nil {
		return path, encErr
	}
	if err := result.ErrorOrNil(); err != nil {
		return path, err
	}

	log.Info().Str("path", path).Msg("Output written")
	return path, nil
}
