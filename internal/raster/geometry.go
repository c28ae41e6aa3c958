package raster

import (
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"
)

// Geometry is a rectangle with a signed origin and unsigned size.
type Geometry struct {
	X      int32  `json:"x" yaml:"x"`
	Y      int32  `json:"y" yaml:"y"`
	Width  uint32 `json:"width" yaml:"width"`
	Height uint32 `json:"height" yaml:"height"`
}

// Padding holds four inward insets.
type Padding struct {
	Top    uint32 `json:"top" yaml:"top"`
	Right  uint32 `json:"right" yaml:"right"`
	Bottom uint32 `json:"bottom" yaml:"bottom"`
	Left   uint32 `json:"left" yaml:"left"`
}

// NewGeometry returns a geometry at (x, y) with the given size.
func NewGeometry(x, y int32, width, height uint32) Geometry {
	return Geometry{X: x, Y: y, Width: width, Height: height}
}

// IsZero reports whether both dimensions are zero.
func (g Geometry) IsZero() bool {
	return g.Width == 0 && g.Height == 0
}

// WithPadding shrinks g by p. Sizes saturate at zero.
func (g Geometry) WithPadding(p Padding) Geometry {
	return Geometry{
		X:      saturatingOffset(g.X, p.Left),
		Y:      saturatingOffset(g.Y, p.Top),
		Width:  saturatingSub(saturatingSub(g.Width, p.Left), p.Right),
		Height: saturatingSub(saturatingSub(g.Height, p.Top), p.Bottom),
	}
}

// Rect returns g as an image.Rectangle.
func (g Geometry) Rect() image.Rectangle {
	return image.Rect(int(g.X), int(g.Y), int(g.X)+int(g.Width), int(g.Y)+int(g.Height))
}

// Size returns width and height as ints.
func (g Geometry) Size() (int, int) {
	return int(g.Width), int(g.Height)
}

func (g Geometry) String() string {
	if g.X == 0 && g.Y == 0 {
		return fmt.Sprintf("%dx%d", g.Width, g.Height)
	}
	return fmt.Sprintf("%dx%d%+d%+d", g.Width, g.Height, g.X, g.Y)
}

func saturatingSub(v, d uint32) uint32 {
	if d >= v {
		return 0
	}
	return v - d
}

// saturatingOffset moves v by d, stopping at math.MaxInt32.
func saturatingOffset(v int32, d uint32) int32 {
	return int32(min(int64(v)+int64(d), math.MaxInt32))
}

// ParseGeometry parses "WxH" or "WxH+X+Y". An empty string is the zero geometry.
func ParseGeometry(s string) (Geometry, error) {
	var g Geometry
	s = strings.TrimSpace(s)
	if s == "" {
		return g, nil
	}
	size, offset := s, ""
	if i := strings.IndexAny(s, "+-"); i >= 0 {
		size, offset = s[:i], s[i:]
	}
	w, h, ok := strings.Cut(strings.ToLower(size), "x")
	if !ok {
		return g, fmt.Errorf("invalid geometry %q: expected WxH", s)
	}
	width, err := strconv.ParseUint(w, 10, 32)
	if err != nil {
		return g, fmt.Errorf("invalid geometry width %q: %w", w, err)
	}
	height, err := strconv.ParseUint(h, 10, 32)
	if err != nil {
		return g, fmt.Errorf("invalid geometry height %q: %w", h, err)
	}
	g.Width, g.Height = uint32(width), uint32(height)
	if offset == "" {
		return g, nil
	}
	// offset is "+X+Y", "-X+Y" and so on
	j := strings.IndexAny(offset[1:], "+-")
	if j < 0 {
		return g, fmt.Errorf("invalid geometry offset %q: expected +X+Y", offset)
	}
	x, err := strconv.ParseInt(offset[:j+1], 10, 32)
	if err != nil {
		return g, fmt.Errorf("invalid geometry x offset: %w", err)
	}
	y, err := strconv.ParseInt(offset[j+1:], 10, 32)
	if err != nil {
		return g, fmt.Errorf("invalid geometry y offset: %w", err)
	}
	g.X, g.Y = int32(x), int32(y)
	return g, nil
}

// ParsePadding parses "T:R:B:L". Missing trailing components default to 0.
func ParsePadding(s string) (Padding, error) {
	var p Padding
	s = strings.TrimSpace(s)
	if s == "" {
		return p, nil
	}
	parts := strings.Split(s, ":")
	if len(parts) > 4 {
		return p, fmt.Errorf("invalid padding %q: expected T:R:B:L", s)
	}
	fields := []*uint32{&p.Top, &p.Right, &p.Bottom, &p.Left}
	for i, part := range parts {
		if part == "" {
			continue
		}
		v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil {
			return p, fmt.Errorf("invalid padding component %q: %w", part, err)
		}
		*fields[i] = uint32(v)
	}
	return p, nil
}

// IsZero reports whether all insets are zero.
func (p Padding) IsZero() bool {
	return p == Padding{}
}

func (p Padding) String() string {
	return fmt.Sprintf("%d:%d:%d:%d", p.Top, p.Right, p.Bottom, p.Left)
}
