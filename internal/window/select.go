package window

import (
	"fmt"
	"time"

	"github.com/bryanchriswhite/snapreel/internal/config"
	"github.com/bryanchriswhite/snapreel/internal/errs"
	"github.com/bryanchriswhite/snapreel/internal/input"
	"github.com/bryanchriswhite/snapreel/internal/logger"
	"github.com/bryanchriswhite/snapreel/internal/raster"
)

// Selection is the chosen window and the area to record inside it. Area is
// relative to the window origin.
type Selection struct {
	Window Info
	Area   raster.Geometry
}

// Absolute returns the area in root coordinates.
func (s Selection) Absolute() raster.Geometry {
	g := s.Area
	g.X += s.Window.Geometry.X
	g.Y += s.Window.Geometry.Y
	return g
}

// Selector chooses a window from settings or by user interaction.
type Selector struct {
	Backend  Backend
	Input    input.State
	Settings config.SelectSettings

	// Keys also confirm the focused window when set.
	Keys *input.ActionKeys

	// Now and Sleep default to the time package.
	Now   func() time.Time
	Sleep func(time.Duration)
}

// Select returns the root window, the focused window, or waits for a click
// on a window. Waiting polls every Settings.Interval until Settings.Timeout;
// the cancel chord aborts.
func (s *Selector) Select() (Selection, error) {
	log := logger.WithComponent("select")

	var (
		info Info
		err  error
	)
	switch {
	case s.Settings.Root:
		info, err = s.Backend.Root()
	case s.Settings.Focus:
		info, err = s.Backend.Focused()
	default:
		info, err = s.wait()
	}
	if err != nil {
		return Selection{}, err
	}

	area, err := Area(info.Geometry, s.Settings.Size, s.Settings.Padding)
	if err != nil {
		return Selection{}, err
	}
	sel := Selection{Window: info, Area: area}
	log.Info().
		Stringer("window", info).
		Stringer("area", sel.Absolute()).
		Msg("Window selected")
	return sel, nil
}

func (s *Selector) wait() (Info, error) {
	log := logger.WithComponent("select")
	now, sleep := time.Now, time.Sleep
	if s.Now != nil {
		now = s.Now
	}
	if s.Sleep != nil {
		sleep = s.Sleep
	}
	interval := s.Settings.Interval
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}

	log.Info().Msg("Click on a window to select it")
	start := now()
	for {
		if s.Input.CheckCancelKeys() {
			return Info{}, errs.ErrUserInterrupt
		}
		if s.Input.CheckMouseClick() {
			return s.Backend.UnderPointer()
		}
		if s.Keys != nil && s.Input.CheckActionKeys(*s.Keys) {
			info, err := s.Backend.Focused()
			if err != nil {
				return info, err
			}
			// let go of the chord so it does not start the recording too
			for s.Input.CheckActionKeys(*s.Keys) {
				sleep(interval)
			}
			return info, nil
		}
		if s.Settings.Timeout > 0 && now().Sub(start) >= s.Settings.Timeout {
			return Info{}, fmt.Errorf("%w: no window selected within %s", errs.ErrWindowSystem, s.Settings.Timeout)
		}
		sleep(interval)
	}
}

// Area computes the recorded area inside a window of geometry win. A
// non-zero size replaces the window size and its offset moves the area;
// padding then shrinks it. The area is clipped to the window.
func Area(win, size raster.Geometry, padding raster.Padding) (raster.Geometry, error) {
	area := raster.NewGeometry(0, 0, win.Width, win.Height)
	if !size.IsZero() {
		area = size
	}
	area = area.WithPadding(padding)

	clipped := area.Rect().Intersect(raster.NewGeometry(0, 0, win.Width, win.Height).Rect())
	if clipped.Empty() {
		return raster.Geometry{}, errs.Config("selected area %s is empty inside window %dx%d", area, win.Width, win.Height)
	}
	return raster.NewGeometry(int32(clipped.Min.X), int32(clipped.Min.Y), uint32(clipped.Dx()), uint32(clipped.Dy())), nil
}
