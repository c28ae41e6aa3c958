// Package capture grabs pixels from a selected window and decorates the
// recorded area on screen.
package capture

import (
	"github.com/bryanchriswhite/snapreel/internal/raster"
)

// WindowHandle is an open window-system capture target.
type WindowHandle interface {
	// Geometry returns the recorded area in root coordinates
	Geometry() raster.Geometry

	// Grab returns the pixels of the area. A false return means this grab
	// failed and the caller may retry on the next tick.
	Grab() (*raster.Bgra8Image, bool)

	// ShowCountdown displays n seconds remaining; 0 hides the countdown
	ShowCountdown(n uint32) error

	// Release removes every window created for the session and frees the
	// server-side resources
	Release() error
}

// Options decorate and configure a capture target.
type Options struct {
	// Alpha keeps the alpha channel when the window has a 32-bit visual.
	Alpha bool

	// BorderWidth is the width of the frame drawn around the area; 0 or
	// NoBorder disables it.
	BorderWidth uint32
	NoBorder    bool

	// Color is the 0xRRGGBB color of the border and the countdown.
	Color uint32
}
