package output

import (
	"image"
	"io"
	"math"

	"github.com/bryanchriswhite/snapreel/internal/config"
	"github.com/bryanchriswhite/snapreel/internal/errs"
	"github.com/bryanchriswhite/snapreel/internal/logger"
	"github.com/bryanchriswhite/snapreel/internal/raster"
	"github.com/kettek/apng"
)

// ApngEncoder writes animated PNGs. Every frame covers the full canvas and
// replaces the previous one.
type ApngEncoder struct {
	config   Config
	settings config.AnimSettings
	hasAlpha bool
}

// NewApngEncoder returns an encoder for frames of geometry played at fps.
func NewApngEncoder(geometry raster.Geometry, fps uint32, settings config.AnimSettings, hasAlpha bool) *ApngEncoder {
	w, h := geometry.Size()
	return &ApngEncoder{
		config:   Config{Width: w, Height: h, FPS: max(fps, 1)},
		settings: settings,
		hasAlpha: hasAlpha,
	}
}

// Name returns "apng".
func (e *ApngEncoder) Name() string { return "apng" }

// Ext returns "png".
func (e *ApngEncoder) Ext() string { return "png" }

// NumPlays translates the repeat setting to the acTL num_plays field, where
// 0 loops forever: -1 becomes 0, n becomes n+1 total plays.
func NumPlays(repeat int32) uint {
	if repeat < 0 {
		return 0
	}
	return uint(repeat) + 1
}

// Save writes images as APNG frames of 1/fps seconds each.
func (e *ApngEncoder) Save(w io.Writer, images []*image.NRGBA, cancel CancelFunc) (err error) {
	defer recoverEncode("apng", &err)
	log := logger.WithComponent("apng")

	if len(images) == 0 {
		return errs.ErrNoFrames
	}

	den := uint16(min(e.config.FPS, math.MaxUint16))
	a := apng.APNG{
		Frames:    make([]apng.Frame, 0, len(images)),
		LoopCount: NumPlays(e.settings.Repeat),
	}
	interrupted := false
	for i, img := range images {
		if cancelled(cancel) {
			log.Warn().
				Int("frame", i).
				Int("total", len(images)).
				Msg("Encoding cancelled, writing frames so far")
			interrupted = true
			break
		}
		src := img
		if !e.hasAlpha {
			src = opaqueCopy(img)
		}
		a.Frames = append(a.Frames, apng.Frame{
			Image:            src,
			DelayNumerator:   1,
			DelayDenominator: den,
			DisposeOp:        apng.DISPOSE_OP_NONE,
			BlendOp:          apng.BLEND_OP_SOURCE,
		})
		log.Debug().Msgf("Encoding frames: %d/%d", i+1, len(images))
	}

	if len(a.Frames) > 0 {
		if err := apng.Encode(w, a); err != nil {
			return errs.IO("write apng", err)
		}
	}
	log.Debug().
		Int("frames", len(a.Frames)).
		Uint("plays", a.LoopCount).
		Uint16("delay_den", den).
		Msg("APNG written")

	if interrupted {
		return errs.ErrUserInterrupt
	}
	return nil
}
