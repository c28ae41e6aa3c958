// Package raster holds the pixel containers shared by the capture, edit and
// encode stages.
package raster

import (
	"fmt"
	"image"
	"image/draw"
	"time"

	"github.com/kovidgoyal/go-parallel"
)

// Bgra8Image is a grabbed pixel buffer in BGRA byte order.
type Bgra8Image struct {
	Geometry Geometry
	Pix      []byte
	HasAlpha bool
}

// NewBgra8Image allocates a zeroed buffer of 4*w*h bytes.
func NewBgra8Image(g Geometry, hasAlpha bool) *Bgra8Image {
	return &Bgra8Image{
		Geometry: g,
		Pix:      make([]byte, 4*int(g.Width)*int(g.Height)),
		HasAlpha: hasAlpha,
	}
}

// Validate checks that the buffer holds exactly width*height pixels.
func (b *Bgra8Image) Validate() error {
	want := 4 * int(b.Geometry.Width) * int(b.Geometry.Height)
	if len(b.Pix) != want {
		return fmt.Errorf("bgra buffer is %d bytes, want %d for %s", len(b.Pix), want, b.Geometry)
	}
	return nil
}

// ToNRGBA converts to non-premultiplied RGBA. Alpha is forced opaque when
// the image has no alpha channel.
func (b *Bgra8Image) ToNRGBA() *image.NRGBA {
	w, h := b.Geometry.Size()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}
	rows := func(start, limit int) {
		for y := start; y < limit; y++ {
			src := b.Pix[y*w*4 : (y+1)*w*4]
			dst := out.Pix[y*out.Stride : y*out.Stride+w*4]
			for i := 0; i < len(src); i += 4 {
				dst[i+0] = src[i+2]
				dst[i+1] = src[i+1]
				dst[i+2] = src[i+0]
				if b.HasAlpha {
					dst[i+3] = src[i+3]
				} else {
					dst[i+3] = 0xff
				}
			}
		}
	}
	Rows(h, rows)
	return out
}

// Rows runs f over [0, height) split into row ranges across CPUs. A panic in
// any worker is re-raised on the calling goroutine.
func Rows(height int, f func(start, limit int)) {
	if height <= 0 {
		return
	}
	if err := parallel.Run_in_parallel_over_range(0, f, 0, height); err != nil {
		panic(err)
	}
}

// FromImage builds a Bgra8Image from any image, placing it at the origin.
func FromImage(img image.Image, hasAlpha bool) *Bgra8Image {
	bounds := img.Bounds()
	nrgba, ok := img.(*image.NRGBA)
	if !ok || bounds.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)
	}
	w, h := bounds.Dx(), bounds.Dy()
	out := NewBgra8Image(NewGeometry(0, 0, uint32(w), uint32(h)), hasAlpha)
	for y := 0; y < h; y++ {
		src := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
		dst := out.Pix[y*w*4 : (y+1)*w*4]
		for i := 0; i < len(src); i += 4 {
			dst[i+0] = src[i+2]
			dst[i+1] = src[i+1]
			dst[i+2] = src[i+0]
			dst[i+3] = src[i+3]
		}
	}
	return out
}

// Frame is one captured image plus its display delay in centiseconds.
type Frame struct {
	Image *Bgra8Image
	Delay uint16
}

// DelayDuration returns the frame delay as a duration.
func (f Frame) DelayDuration() time.Duration {
	return time.Duration(f.Delay) * 10 * time.Millisecond
}

// DelayMillis returns the frame delay in milliseconds.
func (f Frame) DelayMillis() float64 {
	return float64(f.Delay) * 10
}

// FrameStream is an ordered list of frames and the fps they represent.
type FrameStream struct {
	Frames []Frame
	FPS    uint32
}

// Len returns the number of frames.
func (s *FrameStream) Len() int { return len(s.Frames) }

// Duration sums every frame delay.
func (s *FrameStream) Duration() time.Duration {
	var d time.Duration
	for _, f := range s.Frames {
		d += f.DelayDuration()
	}
	return d
}
