// Package split decodes animated GIF and APNG files into full frames and
// writes them out as numbered PNG files.
package split

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/bryanchriswhite/snapreel/internal/errs"
	"github.com/bryanchriswhite/snapreel/internal/logger"
	"github.com/bryanchriswhite/snapreel/internal/raster"
	"github.com/kettek/apng"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

var (
	gifMagic = []byte("GIF8")
	pngMagic = []byte("\x89PNG\r\n\x1a\n")
)

// Frame is one fully composed animation frame.
type Frame struct {
	Image *image.NRGBA
	Delay time.Duration
}

// Animation is a decoded animation with every frame drawn onto the full
// canvas.
type Animation struct {
	Format string
	Width  int
	Height int
	Frames []Frame
}

// disposal is what happens to the canvas after a frame was shown.
type disposal int

const (
	disposeNone disposal = iota
	disposeBackground
	disposePrevious
)

// part is a frame as stored in the file, before composition.
type part struct {
	img     image.Image
	at      image.Point
	delay   time.Duration
	dispose disposal
	replace bool
}

// Decode reads a GIF, PNG or APNG from r. Any other format decodable by the
// registered image codecs becomes a single frame animation.
func Decode(r io.Reader) (*Animation, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(pngMagic))

	switch {
	case bytes.HasPrefix(head, gifMagic):
		g, err := gif.DecodeAll(br)
		if err != nil {
			return nil, fmt.Errorf("%w: decode gif: %v", errs.ErrIO, err)
		}
		return nonEmpty(fromGIF(g))
	case bytes.Equal(head, pngMagic):
		a, err := apng.DecodeAll(br)
		if err != nil {
			return nil, fmt.Errorf("%w: decode png: %v", errs.ErrIO, err)
		}
		return nonEmpty(fromAPNG(&a))
	}

	img, format, err := image.Decode(br)
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %v", errs.ErrIO, err)
	}
	b := img.Bounds()
	return &Animation{
		Format: format,
		Width:  b.Dx(),
		Height: b.Dy(),
		Frames: []Frame{{Image: toNRGBA(img)}},
	}, nil
}

func nonEmpty(a *Animation) (*Animation, error) {
	if len(a.Frames) == 0 {
		return nil, errs.ErrNoFrames
	}
	return a, nil
}

// DecodeFile opens and decodes path.
func DecodeFile(path string) (*Animation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.IO("open "+path, err)
	}
	defer f.Close()
	return Decode(f)
}

func fromGIF(g *gif.GIF) *Animation {
	parts := make([]part, 0, len(g.Image))
	for i, img := range g.Image {
		p := part{img: img, delay: time.Duration(g.Delay[i]) * 10 * time.Millisecond}
		switch g.Disposal[i] {
		case gif.DisposalBackground:
			p.dispose = disposeBackground
		case gif.DisposalPrevious:
			p.dispose = disposePrevious
		}
		parts = append(parts, p)
	}
	w, h := g.Config.Width, g.Config.Height
	if w == 0 || h == 0 {
		for _, img := range g.Image {
			w = max(w, img.Rect.Max.X)
			h = max(h, img.Rect.Max.Y)
		}
	}
	return coalesce("gif", w, h, parts)
}

func fromAPNG(a *apng.APNG) *Animation {
	parts := make([]part, 0, len(a.Frames))
	w, h := 0, 0
	for _, f := range a.Frames {
		b := f.Image.Bounds()
		w = max(w, f.XOffset+b.Dx())
		h = max(h, f.YOffset+b.Dy())
		// the default image of an APNG is not part of the animation
		if f.IsDefault && len(a.Frames) > 1 {
			continue
		}
		den := float64(f.DelayDenominator)
		if den == 0 {
			den = 100
		}
		p := part{
			img:     f.Image,
			at:      image.Pt(f.XOffset, f.YOffset),
			delay:   time.Duration(float64(time.Second) * float64(f.DelayNumerator) / den),
			replace: f.BlendOp == apng.BLEND_OP_SOURCE,
		}
		switch f.DisposeOp {
		case apng.DISPOSE_OP_BACKGROUND:
			p.dispose = disposeBackground
		case apng.DISPOSE_OP_PREVIOUS:
			p.dispose = disposePrevious
		}
		parts = append(parts, p)
	}
	format := "png"
	if len(parts) > 1 {
		format = "apng"
	}
	return coalesce(format, w, h, parts)
}

// coalesce draws every part onto a shared canvas and snapshots the result,
// applying each part's disposal afterwards.
func coalesce(format string, w, h int, parts []part) *Animation {
	anim := &Animation{Format: format, Width: w, Height: h, Frames: make([]Frame, 0, len(parts))}
	canvas := image.NewNRGBA(image.Rect(0, 0, w, h))
	for _, p := range parts {
		b := p.img.Bounds()
		dst := b.Add(p.at)

		var saved *image.NRGBA
		if p.dispose == disposePrevious {
			saved = cloneNRGBA(canvas)
		}
		op := draw.Over
		if p.replace {
			op = draw.Src
		}
		draw.Draw(canvas, dst, p.img, b.Min, op)
		anim.Frames = append(anim.Frames, Frame{Image: cloneNRGBA(canvas), Delay: p.delay})

		switch p.dispose {
		case disposeBackground:
			draw.Draw(canvas, dst, image.Transparent, image.Point{}, draw.Src)
		case disposePrevious:
			canvas = saved
		}
	}
	return anim
}

// RasterFrames converts the animation to recorder frames with centisecond delays.
func (a *Animation) RasterFrames() []raster.Frame {
	frames := make([]raster.Frame, 0, len(a.Frames))
	for _, f := range a.Frames {
		delay := uint16(max(1, f.Delay/(10*time.Millisecond)))
		frames = append(frames, raster.Frame{Image: raster.FromImage(f.Image, true), Delay: delay})
	}
	return frames
}

// FrameName returns the file name of the i-th frame, counting from zero.
func FrameName(i int) string {
	return fmt.Sprintf("frame_%03d.png", i)
}

// Write stores every frame of a as a PNG file in dir, creating it when
// needed, and returns the written paths. cancel is polled before each frame.
func Write(dir string, a *Animation, cancel func() bool) ([]string, error) {
	log := logger.WithComponent("split")
	if len(a.Frames) == 0 {
		return nil, errs.ErrNoFrames
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.IO("create "+dir, err)
	}

	paths := make([]string, 0, len(a.Frames))
	for i, f := range a.Frames {
		if cancel != nil && cancel() {
			log.Warn().Int("written", len(paths)).Msg("Split cancelled")
			return paths, errs.ErrUserInterrupt
		}
		path := filepath.Join(dir, FrameName(i))
		if err := writePNG(path, f.Image); err != nil {
			return paths, err
		}
		paths = append(paths, path)
		log.Debug().
			Str("path", path).
			Dur("delay", f.Delay).
			Msg("Frame written")
	}
	log.Info().
		Int("frames", len(paths)).
		Str("dir", dir).
		Msg("Animation split")
	return paths, nil
}

func writePNG(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errs.IO("create "+path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errs.IO("close "+path, cerr)
		}
	}()
	w := bufio.NewWriter(f)
	if err := png.Encode(w, img); err != nil {
		return errs.IO("encode "+path, err)
	}
	if err := w.Flush(); err != nil {
		return errs.IO("write "+path, err)
	}
	return nil
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	return dst
}

func cloneNRGBA(img *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(img.Rect)
	copy(dst.Pix, img.Pix)
	return dst
}
