// Package anim turns a captured frame stream into edited images ready for an
// animation encoder.
package anim

import (
	"fmt"
	"image"
	"math"

	"github.com/bryanchriswhite/snapreel/internal/config"
	"github.com/bryanchriswhite/snapreel/internal/editor"
	"github.com/bryanchriswhite/snapreel/internal/errs"
	"github.com/bryanchriswhite/snapreel/internal/logger"
	"github.com/bryanchriswhite/snapreel/internal/raster"
)

// Decoder applies the edit settings to every frame, trims the cut and
// derives the playback fps.
type Decoder struct {
	settings config.AnimSettings
	editor   *editor.Editor
}

// NewDecoder returns a decoder for one stream.
func NewDecoder(anim config.AnimSettings, edit config.EditSettings) *Decoder {
	return &Decoder{
		settings: anim,
		editor:   editor.New(edit),
	}
}

// Geometry returns the output geometry once UpdateFrames has seen a frame.
func (d *Decoder) Geometry() raster.Geometry { return d.editor.Geometry() }

// EffectiveFPS returns the playback rate for frames of delayMs milliseconds
// at the configured speed. It never drops below 1.
func (d *Decoder) EffectiveFPS(delayMs float64) uint32 {
	base := float64(d.settings.FPS)
	if delayMs > 0 {
		base = 1000 / delayMs
	}
	fps := math.Floor(base * float64(d.settings.Speed))
	if fps < 1 {
		return 1
	}
	return uint32(fps)
}

// Trim returns the [start, end) range left after cutting begin and end
// milliseconds at fps.
func (d *Decoder) Trim(count int, fps uint32) (int, int) {
	frameMs := 1000 / float64(fps)
	front := int(math.Floor(float64(d.settings.Cut.Begin) / frameMs))
	back := int(math.Floor(float64(d.settings.Cut.End) / frameMs))
	if front+back >= count {
		return 0, 0
	}
	return front, count - back
}

// UpdateFrames edits frames and returns the images with their playback fps.
func (d *Decoder) UpdateFrames(frames []raster.Frame) ([]*image.NRGBA, uint32, error) {
	log := logger.WithComponent("anim")
	if len(frames) == 0 {
		return nil, 0, errs.ErrNoFrames
	}

	first := frames[0].Image
	w, h := first.Geometry.Size()
	geometry := d.editor.Init(w, h)
	if geometry.Width == 0 || geometry.Height == 0 {
		return nil, 0, errs.Config("edit settings leave an empty %s animation", geometry)
	}

	fps := d.EffectiveFPS(frames[0].DelayMillis())
	start, end := d.Trim(len(frames), fps)
	if start == end {
		return nil, fps, fmt.Errorf("%w: cut %.0fms+%.0fms removes all %d frames",
			errs.ErrNoFrames, d.settings.Cut.Begin, d.settings.Cut.End, len(frames))
	}
	kept := frames[start:end]

	log.Debug().
		Int("frames", len(kept)).
		Int("dropped_front", start).
		Int("dropped_back", len(frames)-end).
		Uint32("fps", fps).
		Str("geometry", geometry.String()).
		Msg("Editing frames")

	images := make([]*image.NRGBA, 0, len(kept))
	for i, f := range kept {
		images = append(images, d.editor.ApplyBgra(f.Image))
		log.Info().Msgf("Editing frames: %d%%", (i+1)*100/len(kept))
	}
	return images, fps, nil
}

// FramesFromImages wraps decoded still images into frames shown for delay
// centiseconds each.
func FramesFromImages(images []image.Image, delay uint16) []raster.Frame {
	if delay < 1 {
		delay = 1
	}
	frames := make([]raster.Frame, 0, len(images))
	for _, img := range images {
		frames = append(frames, raster.Frame{Image: raster.FromImage(img, true), Delay: delay})
	}
	return frames
}
