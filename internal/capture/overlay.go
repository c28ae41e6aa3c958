package capture

import (
	"fmt"
	"image"
	"image/color"
	"strconv"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/snapreel/internal/logger"
	"github.com/bryanchriswhite/snapreel/internal/raster"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	countdownScale   = 4
	countdownPadding = 3
)

// borderRects returns the four strips of width w framing area from outside.
func borderRects(area raster.Geometry, w uint32) []image.Rectangle {
	r := area.Rect()
	b := int(w)
	return []image.Rectangle{
		image.Rect(r.Min.X-b, r.Min.Y-b, r.Max.X+b, r.Min.Y), // top
		image.Rect(r.Min.X-b, r.Max.Y, r.Max.X+b, r.Max.Y+b), // bottom
		image.Rect(r.Min.X-b, r.Min.Y, r.Min.X, r.Max.Y),     // left
		image.Rect(r.Max.X, r.Min.Y, r.Max.X+b, r.Max.Y),     // right
	}
}

// createOverlay maps an override-redirect window filled with pixel so the
// window manager leaves it alone.
func (w *X11Window) createOverlay(r image.Rectangle, pixel uint32) (xproto.Window, error) {
	id, err := xproto.NewWindowId(w.conn)
	if err != nil {
		return 0, fmt.Errorf("failed to create window ID: %w", err)
	}
	mask := uint32(xproto.CwBackPixel | xproto.CwOverrideRedirect)
	values := []uint32{pixel, 1}
	err = xproto.CreateWindowChecked(
		w.conn,
		w.screen.RootDepth,
		id,
		w.screen.Root,
		int16(r.Min.X), int16(r.Min.Y),
		uint16(r.Dx()), uint16(r.Dy()),
		0, // border width
		xproto.WindowClassInputOutput,
		w.screen.RootVisual,
		mask,
		values,
	).Check()
	if err != nil {
		return 0, fmt.Errorf("failed to create window: %w", err)
	}
	if err := xproto.MapWindowChecked(w.conn, id).Check(); err != nil {
		xproto.DestroyWindow(w.conn, id)
		return 0, fmt.Errorf("failed to map window: %w", err)
	}
	return id, nil
}

func (w *X11Window) showBorder() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, r := range borderRects(w.Geometry(), w.opts.BorderWidth) {
		if r.Empty() {
			continue
		}
		id, err := w.createOverlay(r, w.opts.Color)
		if err != nil {
			return err
		}
		w.borders = append(w.borders, id)
	}
	w.conn.Sync()
	return nil
}

// ShowCountdown draws n in a small window at the top-left corner of the area.
// Zero removes the window.
func (w *X11Window) ShowCountdown(n uint32) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	log := logger.WithComponent("x11-capturer")
	if n == 0 {
		return w.hideCountdown()
	}
	log.Info().Msgf("Recording in %d...", n)

	img := renderCountdown(n, w.opts.Color)
	if w.countdown != 0 {
		xproto.DestroyWindow(w.conn, w.countdown)
		w.countdown = 0
	}
	area := w.Geometry()
	r := img.Bounds().Add(image.Pt(int(area.X), int(area.Y)))
	id, err := w.createOverlay(r, w.opts.Color)
	if err != nil {
		return err
	}
	w.countdown = id
	return w.putImage(id, img)
}

func (w *X11Window) hideCountdown() error {
	var err error
	if w.gc != 0 {
		xproto.FreeGC(w.conn, w.gc)
		w.gc = 0
	}
	if w.countdown != 0 {
		if e := xproto.DestroyWindowChecked(w.conn, w.countdown).Check(); e != nil {
			err = fmt.Errorf("destroy countdown window: %w", e)
		}
		w.countdown = 0
	}
	return err
}

// renderCountdown draws the number in white on the given background,
// scaled up from the 7x13 bitmap font.
func renderCountdown(n uint32, bg uint32) *image.RGBA {
	text := strconv.FormatUint(uint64(n), 10)
	face := basicfont.Face7x13

	d := &font.Drawer{Face: face}
	width := d.MeasureString(text).Ceil() + 2*countdownPadding
	height := face.Height + 2*countdownPadding

	small := image.NewRGBA(image.Rect(0, 0, width, height))
	background := color.RGBA{R: uint8(bg >> 16), G: uint8(bg >> 8), B: uint8(bg), A: 0xff}
	xdraw.Draw(small, small.Bounds(), image.NewUniform(background), image.Point{}, xdraw.Src)
	d.Dst = small
	d.Src = image.NewUniform(color.White)
	d.Dot = fixed.P(countdownPadding, countdownPadding+face.Ascent)
	d.DrawString(text)

	big := image.NewRGBA(image.Rect(0, 0, width*countdownScale, height*countdownScale))
	xdraw.NearestNeighbor.Scale(big, big.Bounds(), small, small.Bounds(), xdraw.Src, nil)
	return big
}

// packZPixmap converts img to ZPixmap bytes for a drawable of the given depth.
// Rows are padded to scanlinePad bits.
func packZPixmap(img *image.RGBA, depth byte, bpp, scanlinePad int) ([]byte, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	bytesPerPixel := bpp / 8
	if bytesPerPixel != 3 && bytesPerPixel != 4 {
		return nil, fmt.Errorf("unsupported bytes per pixel: %d", bytesPerPixel)
	}
	padBytes := max(scanlinePad/8, 1)
	unpadded := width * bytesPerPixel
	stride := ((unpadded + padBytes - 1) / padBytes) * padBytes

	data := make([]byte, stride*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			src := img.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			dst := y*stride + x*bytesPerPixel
			data[dst] = img.Pix[src+2]
			data[dst+1] = img.Pix[src+1]
			data[dst+2] = img.Pix[src]
			if bytesPerPixel == 4 && depth == 32 {
				data[dst+3] = img.Pix[src+3]
			}
		}
	}
	return data, nil
}

func (w *X11Window) putImage(win xproto.Window, img *image.RGBA) error {
	depth := w.screen.RootDepth
	var format xproto.Format
	for _, f := range xproto.Setup(w.conn).PixmapFormats {
		if f.Depth == depth {
			format = f
			break
		}
	}
	data, err := packZPixmap(img, depth, int(format.BitsPerPixel), int(format.ScanlinePad))
	if err != nil {
		return err
	}

	if w.gc == 0 {
		gc, err := xproto.NewGcontextId(w.conn)
		if err != nil {
			return fmt.Errorf("failed to create graphics context ID: %w", err)
		}
		if err := xproto.CreateGCChecked(w.conn, gc, xproto.Drawable(win), 0, nil).Check(); err != nil {
			return fmt.Errorf("failed to create GC: %w", err)
		}
		w.gc = gc
	}

	bounds := img.Bounds()
	err = xproto.PutImageChecked(
		w.conn,
		xproto.ImageFormatZPixmap,
		xproto.Drawable(win),
		w.gc,
		uint16(bounds.Dx()),
		uint16(bounds.Dy()),
		0, 0, // dst x, y
		0,    // left pad
		depth,
		data,
	).Check()
	if err != nil {
		return fmt.Errorf("failed to put image: %w", err)
	}
	w.conn.Sync()
	return nil
}
