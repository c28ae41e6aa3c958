package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bryanchriswhite/snapreel/internal/errs"
	"github.com/bryanchriswhite/snapreel/internal/input"
	"github.com/bryanchriswhite/snapreel/internal/raster"
)

// Flip selects a mirror axis.
type Flip int

const (
	FlipNone Flip = iota
	FlipHorizontal
	FlipVertical
)

func (f Flip) String() string {
	switch f {
	case FlipHorizontal:
		return "horizontal"
	case FlipVertical:
		return "vertical"
	}
	return "none"
}

// ParseFlip accepts "", "none", "h", "horizontal", "v" and "vertical".
func ParseFlip(s string) (Flip, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return FlipNone, nil
	case "h", "horizontal":
		return FlipHorizontal, nil
	case "v", "vertical":
		return FlipVertical, nil
	}
	return FlipNone, fmt.Errorf("invalid flip %q (use horizontal or vertical)", s)
}

// EditSettings are the per-frame transforms applied by the editor.
type EditSettings struct {
	Crop       raster.Padding  `json:"crop" yaml:"crop"`
	Resize     raster.Geometry `json:"resize" yaml:"resize"`
	Ratio      float32         `json:"ratio" yaml:"ratio"`
	Flip       Flip            `json:"flip" yaml:"flip"`
	Rotate     int             `json:"rotate" yaml:"rotate"`
	Blur       float32         `json:"blur" yaml:"blur"`
	Grayscale  bool            `json:"grayscale" yaml:"grayscale"`
	Invert     bool            `json:"invert" yaml:"invert"`
	Brightness int32           `json:"brightness" yaml:"brightness"`
	Hue        int32           `json:"hue" yaml:"hue"`
	Contrast   float32         `json:"contrast" yaml:"contrast"`
}

// DefaultEditSettings leaves every frame untouched.
func DefaultEditSettings() EditSettings {
	return EditSettings{Ratio: 1}
}

// Validate checks the ratio and rotation.
func (s EditSettings) Validate() error {
	if !(s.Ratio > 0) {
		return errs.Config("ratio must be greater than 0, got %v", s.Ratio)
	}
	switch s.Rotate {
	case 0, 90, 180, 270:
	default:
		return errs.Config("rotate must be one of 0, 90, 180, 270, got %d", s.Rotate)
	}
	if s.Blur < 0 || math.IsNaN(float64(s.Blur)) {
		return errs.Config("blur sigma must not be negative, got %v", s.Blur)
	}
	return nil
}

// Cut trims milliseconds from the start and end of an animation.
type Cut struct {
	Begin float32 `json:"begin" yaml:"begin"`
	End   float32 `json:"end" yaml:"end"`
}

// AnimSettings drive the animation decoder and encoders.
type AnimSettings struct {
	FPS     uint32  `json:"fps" yaml:"fps"`
	Quality uint8   `json:"quality" yaml:"quality"`
	Repeat  int32   `json:"repeat" yaml:"repeat"`
	Speed   float32 `json:"speed" yaml:"speed"`
	Cut     Cut     `json:"cut" yaml:"cut"`
	Fast    bool    `json:"fast" yaml:"fast"`
}

// DefaultAnimSettings loop forever at 20 fps with quality 75.
func DefaultAnimSettings() AnimSettings {
	return AnimSettings{FPS: 20, Quality: 75, Repeat: -1, Speed: 1}
}

// Validate checks fps, quality and speed bounds.
func (s AnimSettings) Validate() error {
	if s.FPS < 1 {
		return errs.Config("fps must be at least 1")
	}
	if s.Quality < 1 || s.Quality > 100 {
		return errs.Config("quality must be within 1..100, got %d", s.Quality)
	}
	if !(s.Speed > 0) {
		return errs.Config("speed must be greater than 0, got %v", s.Speed)
	}
	if s.Cut.Begin < 0 || s.Cut.End < 0 {
		return errs.Config("cut values must not be negative")
	}
	if s.Repeat < -1 {
		return errs.Config("repeat must be -1 (infinite) or greater, got %d", s.Repeat)
	}
	return nil
}

// SelectSettings describe how the capture area is chosen and decorated.
type SelectSettings struct {
	Root     bool            `json:"root" yaml:"root"`
	Focus    bool            `json:"focus" yaml:"focus"`
	Size     raster.Geometry `json:"size" yaml:"size"`
	Padding  raster.Padding  `json:"padding" yaml:"padding"`
	Color    uint32          `json:"color" yaml:"color"`
	Border   uint32          `json:"border" yaml:"border"`
	NoBorder bool            `json:"no_border" yaml:"no_border"`
	Timeout  time.Duration   `json:"timeout" yaml:"timeout"`
	Interval time.Duration   `json:"interval" yaml:"interval"`
}

// RecordSettings drive a recording or capture session.
type RecordSettings struct {
	FPS        uint32           `json:"fps" yaml:"fps"`
	ActionKeys input.ActionKeys `json:"action_keys" yaml:"action_keys"`
	NoKeys     bool             `json:"no_keys" yaml:"no_keys"`
	Duration   time.Duration    `json:"duration" yaml:"duration"`
	Countdown  uint32           `json:"countdown" yaml:"countdown"`
	Alpha      bool             `json:"alpha" yaml:"alpha"`
	Command    []string         `json:"command,omitempty" yaml:"command,omitempty"`
	Select     SelectSettings   `json:"select" yaml:"select"`
}

// Validate checks the recording bounds.
func (s RecordSettings) Validate() error {
	if s.FPS < 1 {
		return errs.Config("fps must be at least 1")
	}
	if s.Duration < 0 {
		return errs.Config("duration must not be negative")
	}
	if s.Select.Interval <= 0 {
		return errs.Config("selection interval must be positive")
	}
	if s.Select.Root && s.Select.Focus {
		return errs.Config("--root and --focus are mutually exclusive")
	}
	return nil
}

// SaveSettings name the output file.
type SaveSettings struct {
	Output     string `json:"output" yaml:"output"`
	DateFormat string `json:"date" yaml:"date"`
	Timestamp  bool   `json:"timestamp" yaml:"timestamp"`
	Prompt     bool   `json:"prompt" yaml:"prompt"`
}

// ParseHexColor parses "RRGGBB" with an optional leading '#'.
func ParseHexColor(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return 0, fmt.Errorf("invalid color %q: expected RRGGBB", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return uint32(v), nil
}

// ParseSeconds parses a seconds value. "", "inf" and values <= 0 mean no limit.
func ParseSeconds(s string) (time.Duration, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "inf" || s == "infinite" || s == "∞" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seconds %q: %w", s, err)
	}
	if v <= 0 || math.IsInf(v, 1) {
		return 0, nil
	}
	return time.Duration(v * float64(time.Second)), nil
}
