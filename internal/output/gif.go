package output

import (
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"io"
	"runtime"

	"github.com/bryanchriswhite/snapreel/internal/config"
	"github.com/bryanchriswhite/snapreel/internal/errs"
	"github.com/bryanchriswhite/snapreel/internal/logger"
	"github.com/bryanchriswhite/snapreel/internal/raster"
	"golang.org/x/sync/errgroup"
)

// GifEncoder writes GIF89a animations.
type GifEncoder struct {
	config   Config
	settings config.AnimSettings
	hasAlpha bool
}

// NewGifEncoder returns an encoder for frames of geometry played at fps.
func NewGifEncoder(geometry raster.Geometry, fps uint32, settings config.AnimSettings, hasAlpha bool) *GifEncoder {
	w, h := geometry.Size()
	return &GifEncoder{
		config:   Config{Width: w, Height: h, FPS: max(fps, 1)},
		settings: settings,
		hasAlpha: hasAlpha,
	}
}

// Name returns "gif".
func (e *GifEncoder) Name() string { return "gif" }

// Ext returns "gif".
func (e *GifEncoder) Ext() string { return "gif" }

// Delay returns the per-frame delay in centiseconds.
func (e *GifEncoder) Delay() int {
	return max(1, 100/int(e.config.FPS))
}

// LoopCount translates the repeat setting to image/gif's convention:
// -1 forever becomes 0, 0 (play once) becomes -1, n stays n.
func LoopCount(repeat int32) int {
	switch {
	case repeat < 0:
		return 0
	case repeat == 0:
		return -1
	default:
		return int(repeat)
	}
}

// Save quantizes and writes images. The fast path builds a palette per
// frame; otherwise a global palette is built first and frames are dithered
// against it in parallel.
func (e *GifEncoder) Save(w io.Writer, images []*image.NRGBA, cancel CancelFunc) (err error) {
	defer recoverEncode("gif", &err)
	log := logger.WithComponent("gif")

	if len(images) == 0 {
		return errs.ErrNoFrames
	}

	var (
		frames []*image.Paletted
		global image.Config
		n      int
	)
	if e.settings.Fast {
		frames, n = e.quantizeFast(images, cancel)
	} else {
		frames, global, n, err = e.quantizeGlobal(images, cancel)
		if err != nil {
			return err
		}
	}
	if n < len(images) {
		log.Warn().
			Int("frame", n).
			Int("total", len(images)).
			Msg("Encoding cancelled, writing frames so far")
	}

	g := &gif.GIF{
		Image:     frames,
		Delay:     make([]int, len(frames)),
		Disposal:  make([]byte, len(frames)),
		LoopCount: LoopCount(e.settings.Repeat),
		Config:    image.Config{Width: e.config.Width, Height: e.config.Height, ColorModel: global.ColorModel},
	}
	disposal := byte(gif.DisposalNone)
	if e.hasAlpha {
		disposal = gif.DisposalBackground
	}
	for i := range frames {
		g.Delay[i] = e.Delay()
		g.Disposal[i] = disposal
	}

	if len(frames) > 0 {
		if err := gif.EncodeAll(w, g); err != nil {
			return errs.IO("write gif", err)
		}
	}
	log.Debug().
		Int("frames", len(frames)).
		Int("delay_cs", e.Delay()).
		Int("loop", g.LoopCount).
		Bool("fast", e.settings.Fast).
		Msg("GIF written")

	if n < len(images) {
		return errs.ErrUserInterrupt
	}
	return nil
}

// quantizeFast builds a palette per frame. It returns the frames and how
// many images were consumed before cancel fired.
func (e *GifEncoder) quantizeFast(images []*image.NRGBA, cancel CancelFunc) ([]*image.Paletted, int) {
	log := logger.WithComponent("gif")
	q := newQuantizer(e.settings.Quality, e.hasAlpha)
	frames := make([]*image.Paletted, 0, len(images))
	for i, img := range images {
		if cancelled(cancel) {
			return frames, i
		}
		h := make(histogram)
		q.sample(h, img)
		frames = append(frames, remap(img, q.palette(h), e.hasAlpha))
		log.Debug().Msgf("Encoding frames: %d/%d", i+1, len(images))
	}
	return frames, len(images)
}

// quantizeGlobal samples every frame into one palette, then dithers the
// frames against it with Floyd-Steinberg error diffusion in parallel.
func (e *GifEncoder) quantizeGlobal(images []*image.NRGBA, cancel CancelFunc) ([]*image.Paletted, image.Config, int, error) {
	log := logger.WithComponent("gif")
	q := newQuantizer(e.settings.Quality, e.hasAlpha)
	h := make(histogram)
	n := len(images)
	for i, img := range images {
		if cancelled(cancel) {
			n = i
			break
		}
		q.sample(h, img)
	}
	images = images[:n]
	pal := q.palette(h)
	log.Debug().
		Int("colors", len(pal)).
		Int("frames", n).
		Msg("Global palette built")

	frames := make([]*image.Paletted, n)
	var group errgroup.Group
	group.SetLimit(runtime.NumCPU())
	for i, img := range images {
		group.Go(func() (err error) {
			defer func() {
				if v := recover(); v != nil {
					err = fmt.Errorf("dither frame %d: %w", i, errs.FromPanic(v))
				}
			}()
			src := img
			if !e.hasAlpha {
				src = opaqueCopy(img)
			}
			dst := image.NewPaletted(image.Rect(0, 0, src.Rect.Dx(), src.Rect.Dy()), pal)
			draw.FloydSteinberg.Draw(dst, dst.Bounds(), src, src.Rect.Min)
			frames[i] = dst
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, image.Config{}, 0, err
	}
	return frames, image.Config{ColorModel: pal}, n, nil
}
