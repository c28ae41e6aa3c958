// Package window picks the window and area to record.
package window

import (
	"fmt"

	"github.com/bryanchriswhite/snapreel/internal/raster"
)

// Info describes a top-level window. Geometry is in root coordinates.
type Info struct {
	ID       uint32
	Title    string
	Class    string
	Geometry raster.Geometry
}

func (i Info) String() string {
	name := i.Title
	if name == "" {
		name = i.Class
	}
	if name == "" {
		return fmt.Sprintf("0x%x %s", i.ID, i.Geometry)
	}
	return fmt.Sprintf("0x%x %q %s", i.ID, name, i.Geometry)
}

// Backend looks up windows on the display server.
type Backend interface {
	// Root returns the root window
	Root() (Info, error)

	// Focused returns the window holding input focus
	Focused() (Info, error)

	// UnderPointer returns the top-level window below the mouse pointer
	UnderPointer() (Info, error)

	// Name returns the backend name (e.g., "x11")
	Name() string
}
