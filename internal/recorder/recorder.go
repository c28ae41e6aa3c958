// Package recorder drives a pixel grabber at a fixed frame rate and collects
// the frames.
package recorder

import (
	"fmt"
	"math"
	"time"

	"github.com/bryanchriswhite/snapreel/internal/clock"
	"github.com/bryanchriswhite/snapreel/internal/errs"
	"github.com/bryanchriswhite/snapreel/internal/input"
	"github.com/bryanchriswhite/snapreel/internal/logger"
	"github.com/bryanchriswhite/snapreel/internal/raster"
)

// Grabber produces one frame worth of pixels. A false return drops the tick.
type Grabber interface {
	Grab() (*raster.Bgra8Image, bool)
}

// GrabberFunc adapts a function to Grabber.
type GrabberFunc func() (*raster.Bgra8Image, bool)

// Grab calls f.
func (f GrabberFunc) Grab() (*raster.Bgra8Image, bool) { return f() }

// Options configure a recording.
type Options struct {
	// FPS is the capture rate.
	FPS uint32
	// Duration stops the recording once elapsed. Zero records until stopped.
	Duration time.Duration
	// Input is polled for the cancel chord on every tick. May be nil.
	Input input.State
}

// Recorder captures frames at a fixed cadence.
type Recorder struct {
	opts  Options
	clock *clock.Clock
}

// New returns a recorder for opts.
func New(opts Options) (*Recorder, error) {
	c, err := clock.New(opts.FPS)
	if err != nil {
		return nil, errs.Config("%v", err)
	}
	return &Recorder{opts: opts, clock: c}, nil
}

// Clock exposes the pacing clock.
func (r *Recorder) Clock() *clock.Clock { return r.clock }

// Record runs the capture loop on the calling goroutine until stop is closed
// or receives, the duration elapses, or the cancel chord is held. The frames
// captured so far are always returned, also alongside an error.
func (r *Recorder) Record(g Grabber, stop <-chan struct{}) ([]raster.Frame, error) {
	var frames []raster.Frame
	err := r.record(g, stop, &frames)
	return frames, err
}

// record appends to *out so a panicking grabber still leaves every complete
// frame behind.
func (r *Recorder) record(g Grabber, stop <-chan struct{}, out *[]raster.Frame) error {
	log := logger.WithComponent("recorder")

	fps := r.opts.FPS
	periodMs := r.clock.Period(time.Millisecond)
	maxMisses := 2 * int(fps)

	var (
		carry   float64
		slackMs float64
		misses  int
	)

	r.clock.Reset()
	start := r.clock.Now()

	log.Info().
		Uint32("fps", fps).
		Dur("duration", r.opts.Duration).
		Msg("Recording started")

	for {
		select {
		case <-stop:
			log.Info().Int("frames", len(*out)).Msg("Recording stopped")
			return nil
		default:
		}
		if r.opts.Duration > 0 && r.clock.Now().Sub(start) >= r.opts.Duration {
			log.Info().Int("frames", len(*out)).Msg("Recording duration reached")
			return nil
		}
		if r.opts.Input != nil && r.opts.Input.CheckCancelKeys() {
			log.Warn().Int("frames", len(*out)).Msg("Recording cancelled")
			return errs.ErrUserInterrupt
		}

		img, ok := g.Grab()
		if ok && img != nil {
			misses = 0
			want := periodMs + slackMs + carry
			delay := math.Max(1, math.Round(want/10))
			carry = want - 10*delay
			*out = append(*out, raster.Frame{Image: img, Delay: uint16(math.Min(delay, math.MaxUint16))})
			log.Trace().
				Int("frame", len(*out)).
				Float64("slack_ms", slackMs).
				Float64("delay_cs", delay).
				Msg("Frame captured")
		} else {
			misses++
			// the dropped tick is shown by the next frame
			carry += periodMs + slackMs
			log.Debug().Int("misses", misses).Msg("Grab failed, tick dropped")
			if misses >= maxMisses {
				return fmt.Errorf("%w: %d consecutive grabs failed", errs.ErrWindowSystem, misses)
			}
		}

		slackMs = r.clock.Tick() / 1e6
	}
}

// Handle controls a recording running on its own goroutine.
type Handle struct {
	stop chan struct{}
	done chan struct{}

	frames []raster.Frame
	err    error
}

// RecordAsync starts Record on a worker goroutine. The grabber is only used
// from that goroutine.
func (r *Recorder) RecordAsync(g Grabber) *Handle {
	h := &Handle{
		stop: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go func() {
		defer close(h.done)
		defer func() {
			if v := recover(); v != nil {
				logger.WithComponent("recorder").Error().
					Interface("panic", v).
					Msg("Recording worker panicked")
				h.err = errs.FromPanic(v)
			}
		}()
		h.err = r.record(g, h.stop, &h.frames)
	}()
	return h
}

// Stop asks the worker to finish after its current grab. It never blocks.
func (h *Handle) Stop() {
	select {
	case h.stop <- struct{}{}:
	default:
	}
}

// Done is closed once the worker has returned.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the worker returns and hands over its frames.
func (h *Handle) Wait() ([]raster.Frame, error) {
	<-h.done
	return h.frames, h.err
}
