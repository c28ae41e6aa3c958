package window

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/snapreel/internal/errs"
	"github.com/bryanchriswhite/snapreel/internal/logger"
	"github.com/bryanchriswhite/snapreel/internal/raster"
)

// X11Backend implements the Backend interface using X11
type X11Backend struct {
	conn   *xgb.Conn
	root   xproto.Window
	screen *xproto.ScreenInfo
	atoms  map[string]xproto.Atom
}

// NewX11Backend wraps an open connection. The connection stays owned by the
// caller.
func NewX11Backend(conn *xgb.Conn) *X11Backend {
	screen := xproto.Setup(conn).DefaultScreen(conn)
	return &X11Backend{
		conn:   conn,
		root:   screen.Root,
		screen: screen,
		atoms:  make(map[string]xproto.Atom),
	}
}

// Name returns the backend name
func (b *X11Backend) Name() string {
	return "x11"
}

// Root returns the root window spanning the whole screen.
func (b *X11Backend) Root() (Info, error) {
	return b.getWindowInfo(b.root)
}

// Focused returns the window holding input focus. PointerRoot and None map
// to the root window.
func (b *X11Backend) Focused() (Info, error) {
	reply, err := xproto.GetInputFocus(b.conn).Reply()
	if err != nil {
		return Info{}, fmt.Errorf("%w: failed to get input focus: %w", errs.ErrWindowSystem, err)
	}
	win := reply.Focus
	if win == xproto.InputFocusNone || win == xproto.InputFocusPointerRoot {
		win = b.root
	}
	return b.getWindowInfo(win)
}

// UnderPointer returns the root child below the pointer, or the root window
// when the pointer is over the desktop.
func (b *X11Backend) UnderPointer() (Info, error) {
	reply, err := xproto.QueryPointer(b.conn, b.root).Reply()
	if err != nil {
		return Info{}, fmt.Errorf("%w: failed to query pointer: %w", errs.ErrWindowSystem, err)
	}
	win := reply.Child
	if win == 0 {
		win = b.root
	}
	return b.getWindowInfo(win)
}

// getWindowInfo reads the geometry, translated to root coordinates, and the
// title and class of win.
func (b *X11Backend) getWindowInfo(win xproto.Window) (Info, error) {
	log := logger.WithComponent("x11-backend")
	info := Info{ID: uint32(win)}

	geom, err := xproto.GetGeometry(b.conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return info, fmt.Errorf("%w: failed to get geometry of window 0x%x: %w", errs.ErrWindowSystem, uint32(win), err)
	}
	info.Geometry = raster.NewGeometry(int32(geom.X), int32(geom.Y), uint32(geom.Width), uint32(geom.Height))
	if win != b.root {
		pos, err := xproto.TranslateCoordinates(b.conn, win, b.root, 0, 0).Reply()
		if err != nil {
			return info, fmt.Errorf("%w: failed to translate coordinates: %w", errs.ErrWindowSystem, err)
		}
		info.Geometry.X, info.Geometry.Y = int32(pos.DstX), int32(pos.DstY)
	}

	if title, err := b.getProperty(win, "_NET_WM_NAME"); err == nil {
		info.Title = title
	}
	if info.Title == "" {
		if title, err := b.getProperty(win, "WM_NAME"); err == nil {
			info.Title = title
		}
	}

	// WM_CLASS format is: instance\0class\0
	if classRaw, err := b.getProperty(win, "WM_CLASS"); err == nil {
		parts := strings.Split(classRaw, "\x00")
		if len(parts) >= 2 && parts[1] != "" {
			info.Class = parts[1]
		} else if parts[0] != "" {
			info.Class = parts[0]
		}
	}

	log.Debug().
		Uint32("window_id", info.ID).
		Str("title", info.Title).
		Str("class", info.Class).
		Stringer("geometry", info.Geometry).
		Msg("Window info")
	return info, nil
}

// getAtom interns name once per backend.
func (b *X11Backend) getAtom(name string) (xproto.Atom, error) {
	if atom, ok := b.atoms[name]; ok {
		return atom, nil
	}
	reply, err := xproto.InternAtom(b.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	b.atoms[name] = reply.Atom
	return reply.Atom, nil
}

// getProperty gets a property value as a string
func (b *X11Backend) getProperty(win xproto.Window, name string) (string, error) {
	atom, err := b.getAtom(name)
	if err != nil {
		return "", err
	}
	reply, err := xproto.GetProperty(
		b.conn,
		false,
		win,
		atom,
		xproto.GetPropertyTypeAny,
		0,
		(1<<32)-1,
	).Reply()
	if err != nil {
		return "", err
	}
	if reply.ValueLen == 0 {
		return "", fmt.Errorf("empty property %s", name)
	}
	return string(reply.Value), nil
}
