// Package editor applies the per-frame transforms: resize, crop, flip,
// rotate, blur and color adjustments.
package editor

import (
	"image"
	"math"

	"github.com/bryanchriswhite/snapreel/internal/config"
	"github.com/bryanchriswhite/snapreel/internal/raster"
	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

const ratioEpsilon = 1e-6

// Editor transforms frames of a single stream. Init must run once with the
// source size before frames are applied; every output has the same geometry.
type Editor struct {
	settings config.EditSettings

	ready    bool
	source   image.Point
	scaled   image.Point
	crop     image.Rectangle
	geometry raster.Geometry
}

// New returns an editor for settings.
func New(settings config.EditSettings) *Editor {
	return &Editor{settings: settings}
}

// Settings returns the settings the editor was built with.
func (e *Editor) Settings() config.EditSettings { return e.settings }

// Init computes the output geometry for frames of width x height.
//
// The size is the resize target (or the source size), scaled by ratio,
// swapped for quarter rotations and finally shrunk by the crop padding.
// Crop padding is expressed in output orientation.
func (e *Editor) Init(width, height int) raster.Geometry {
	s := e.settings
	w, h := uint32(width), uint32(height)
	if !s.Resize.IsZero() {
		w, h = s.Resize.Width, s.Resize.Height
	}
	if s.Ratio > 0 && math.Abs(float64(s.Ratio)-1) > ratioEpsilon {
		w = uint32(math.Floor(float64(w) * float64(s.Ratio)))
		h = uint32(math.Floor(float64(h) * float64(s.Ratio)))
	}
	e.source = image.Pt(width, height)
	e.scaled = image.Pt(int(w), int(h))

	rotated := raster.NewGeometry(0, 0, w, h)
	if quarterTurn(s.Rotate) {
		rotated = raster.NewGeometry(0, 0, h, w)
	}
	e.geometry = rotated.WithPadding(s.Crop)

	// the crop runs before flip and rotate, so map the padding back
	in := unflipPadding(unrotatePadding(s.Crop, s.Rotate), s.Flip)
	pre := raster.NewGeometry(0, 0, w, h).WithPadding(in)
	e.crop = pre.Rect()
	e.ready = true
	return e.geometry
}

// Geometry returns the output geometry computed by Init.
func (e *Editor) Geometry() raster.Geometry { return e.geometry }

// Apply runs the edit pipeline on img. The order is fixed: resize, crop,
// flip, rotate, blur, then color ops. With identity settings img is
// returned as is.
func (e *Editor) Apply(img *image.NRGBA) *image.NRGBA {
	if !e.ready {
		b := img.Bounds()
		e.Init(b.Dx(), b.Dy())
	}
	s := e.settings

	out := toNRGBA(img)
	if b := out.Bounds(); b.Dx() != e.scaled.X || b.Dy() != e.scaled.Y {
		out = resizeLanczos(out, e.scaled.X, e.scaled.Y)
	}
	if e.crop != out.Bounds() {
		out = crop(out, e.crop)
	}
	out = flip(out, s.Flip)
	out = rotate(out, s.Rotate)
	if s.Blur > 0 {
		out = imaging.Blur(out, float64(s.Blur))
	}
	return adjustColors(out, s)
}

// ApplyBgra converts a grabbed frame and runs the pipeline on it.
func (e *Editor) ApplyBgra(img *raster.Bgra8Image) *image.NRGBA {
	return e.Apply(img.ToNRGBA())
}

// resizeLanczos scales img to width x height with a Lanczos3 filter.
func resizeLanczos(img *image.NRGBA, width, height int) *image.NRGBA {
	if width <= 0 || height <= 0 {
		return image.NewNRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))
	}
	return toNRGBA(resize.Resize(uint(width), uint(height), img, resize.Lanczos3))
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
