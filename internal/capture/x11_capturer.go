package capture

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/composite"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/snapreel/internal/errs"
	"github.com/bryanchriswhite/snapreel/internal/logger"
	"github.com/bryanchriswhite/snapreel/internal/raster"
	"github.com/bryanchriswhite/snapreel/internal/window"
	"github.com/hashicorp/go-multierror"
)

// X11Window captures an area of a window using X11/XWayland
type X11Window struct {
	conn   *xgb.Conn
	screen *xproto.ScreenInfo
	sel    window.Selection
	opts   Options

	win      xproto.Window
	drawable xproto.Drawable
	pixmap   xproto.Pixmap
	// redirected is set while the window is redirected through Composite
	redirected bool

	depth    byte
	format   xproto.Format
	hasAlpha bool

	mu        sync.Mutex
	borders   []xproto.Window
	countdown xproto.Window
	gc        xproto.Gcontext
}

// NewX11Window prepares sel for capture. The connection stays owned by the
// caller and must outlive Release.
func NewX11Window(conn *xgb.Conn, sel window.Selection, opts Options) (*X11Window, error) {
	log := logger.WithComponent("x11-capturer")
	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)

	w := &X11Window{
		conn:     conn,
		screen:   screen,
		sel:      sel,
		opts:     opts,
		win:      xproto.Window(sel.Window.ID),
		drawable: xproto.Drawable(sel.Window.ID),
	}

	geom, err := xproto.GetGeometry(conn, w.drawable).Reply()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get window geometry: %w", errs.ErrWindowSystem, err)
	}
	w.depth = geom.Depth
	for _, f := range setup.PixmapFormats {
		if f.Depth == w.depth {
			w.format = f
			break
		}
	}
	if w.format.BitsPerPixel == 0 {
		return nil, fmt.Errorf("%w: no pixmap format for depth %d", errs.ErrWindowSystem, w.depth)
	}

	w.hasAlpha = opts.Alpha && w.depth == 32
	if opts.Alpha && !w.hasAlpha {
		log.Warn().
			Uint8("depth", w.depth).
			Msg("Window has no alpha channel, recording opaque frames")
	}

	if w.win != screen.Root {
		w.redirect()
	}

	if !opts.NoBorder && opts.BorderWidth > 0 {
		if err := w.showBorder(); err != nil {
			log.Warn().Err(err).Msg("Failed to draw selection border")
		}
	}

	log.Debug().
		Uint32("window_id", sel.Window.ID).
		Stringer("area", sel.Area).
		Uint8("depth", w.depth).
		Uint8("bpp", w.format.BitsPerPixel).
		Bool("composite", w.redirected).
		Bool("alpha", w.hasAlpha).
		Msg("Capture target ready")
	return w, nil
}

// redirect names an offscreen pixmap for the window through the Composite
// extension so obscured parts are still captured. Failures fall back to
// reading the window directly.
func (w *X11Window) redirect() {
	log := logger.WithComponent("x11-capturer")

	if err := composite.Init(w.conn); err != nil {
		log.Debug().Err(err).Msg("Composite extension not available, capturing window directly")
		return
	}
	if err := composite.RedirectWindowChecked(w.conn, w.win, composite.RedirectAutomatic).Check(); err != nil {
		log.Warn().
			Err(err).
			Uint32("window_id", uint32(w.win)).
			Msg("Failed to redirect window via Composite, falling back to direct capture")
		return
	}
	w.redirected = true

	pixmap, err := xproto.NewPixmapId(w.conn)
	if err != nil {
		return
	}
	if err := composite.NameWindowPixmapChecked(w.conn, w.win, pixmap).Check(); err != nil {
		log.Debug().Err(err).Msg("Failed to name window pixmap")
		return
	}
	w.pixmap = pixmap
	w.drawable = xproto.Drawable(pixmap)
}

// Geometry returns the recorded area in root coordinates.
func (w *X11Window) Geometry() raster.Geometry {
	return w.sel.Absolute()
}

// HasAlpha reports whether grabbed frames carry alpha.
func (w *X11Window) HasAlpha() bool {
	return w.hasAlpha
}

// Grab reads the area with GetImage. Each call allocates a fresh buffer.
func (w *X11Window) Grab() (*raster.Bgra8Image, bool) {
	area := w.sel.Area
	reply, err := xproto.GetImage(
		w.conn,
		xproto.ImageFormatZPixmap,
		w.drawable,
		int16(area.X), int16(area.Y),
		uint16(area.Width), uint16(area.Height),
		0xffffffff,
	).Reply()
	if err != nil {
		logger.WithComponent("x11-capturer").Debug().Err(err).Msg("GetImage failed")
		return nil, false
	}

	width, height := area.Size()
	pix, err := bgraFromZPixmap(reply.Data, width, height, int(w.format.BitsPerPixel), int(w.format.ScanlinePad))
	if err != nil {
		logger.WithComponent("x11-capturer").Debug().Err(err).Msg("Unexpected image data")
		return nil, false
	}
	return &raster.Bgra8Image{
		Geometry: raster.NewGeometry(0, 0, area.Width, area.Height),
		Pix:      pix,
		HasAlpha: w.hasAlpha,
	}, true
}

// bgraFromZPixmap converts little-endian ZPixmap data of 24 or 32 bits per
// pixel to tightly packed BGRA.
func bgraFromZPixmap(data []byte, width, height, bpp, scanlinePad int) ([]byte, error) {
	bytesPerPixel := bpp / 8
	if bytesPerPixel != 3 && bytesPerPixel != 4 {
		return nil, fmt.Errorf("unsupported bits per pixel: %d", bpp)
	}
	padBytes := max(scanlinePad/8, 1)
	unpadded := width * bytesPerPixel
	stride := ((unpadded + padBytes - 1) / padBytes) * padBytes
	if len(data) < stride*height {
		return nil, fmt.Errorf("image data is %d bytes, want %d", len(data), stride*height)
	}

	// the common case is already laid out as BGRA
	if bytesPerPixel == 4 && stride == unpadded {
		return data[:unpadded*height], nil
	}

	out := make([]byte, 4*width*height)
	for y := 0; y < height; y++ {
		row := data[y*stride:]
		for x := 0; x < width; x++ {
			src := row[x*bytesPerPixel:]
			dst := out[(y*width+x)*4:]
			dst[0], dst[1], dst[2] = src[0], src[1], src[2]
			if bytesPerPixel == 4 {
				dst[3] = src[3]
			} else {
				dst[3] = 0xff
			}
		}
	}
	return out, nil
}

// Release destroys the border and countdown windows and undoes the
// Composite redirect.
func (w *X11Window) Release() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var result *multierror.Error
	for _, b := range w.borders {
		if err := xproto.DestroyWindowChecked(w.conn, b).Check(); err != nil {
			result = multierror.Append(result, fmt.Errorf("destroy border window: %w", err))
		}
	}
	w.borders = nil
	if err := w.hideCountdown(); err != nil {
		result = multierror.Append(result, err)
	}
	if w.pixmap != 0 {
		if err := xproto.FreePixmapChecked(w.conn, w.pixmap).Check(); err != nil {
			result = multierror.Append(result, fmt.Errorf("free pixmap: %w", err))
		}
		w.pixmap = 0
	}
	if w.redirected {
		if err := composite.UnredirectWindowChecked(w.conn, w.win, composite.RedirectAutomatic).Check(); err != nil {
			result = multierror.Append(result, fmt.Errorf("unredirect window: %w", err))
		}
		w.redirected = false
	}
	w.conn.Sync()

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrWindowSystem, err)
	}
	return nil
}
