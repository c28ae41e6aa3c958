package session

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanchriswhite/snapreel/internal/capture"
	"github.com/bryanchriswhite/snapreel/internal/config"
	"github.com/bryanchriswhite/snapreel/internal/errs"
	"github.com/bryanchriswhite/snapreel/internal/input"
	"github.com/bryanchriswhite/snapreel/internal/logger"
	"github.com/bryanchriswhite/snapreel/internal/raster"
	"github.com/bryanchriswhite/snapreel/internal/recorder"
	"github.com/hashicorp/go-multierror"
)

const defaultPollInterval = 10 * time.Millisecond

// Session records one animation from a window.
type Session struct {
	settings config.RecordSettings
	window   capture.WindowHandle
	input    input.State

	// Sleep is used between input polls and countdown steps.
	Sleep func(time.Duration)
	// PollInterval is the delay between input polls.
	PollInterval time.Duration
	// OnState is called after every transition.
	OnState func(State)

	state State
	child *Child
}

// New returns an idle session recording from window. in is polled for the
// action and cancel chords and may combine several sources.
func New(settings config.RecordSettings, window capture.WindowHandle, in input.State) *Session {
	return &Session{
		settings:     settings,
		window:       window,
		input:        in,
		Sleep:        time.Sleep,
		PollInterval: defaultPollInterval,
	}
}

// State returns the current state.
func (s *Session) State() State { return s.state }

func (s *Session) transition(to State) {
	if !CanTransition(s.state, to) {
		panic(fmt.Sprintf("session: invalid transition %s -> %s", s.state, to))
	}
	logger.WithComponent("session").Debug().
		Stringer("from", s.state).
		Stringer("to", to).
		Msg("Session state changed")
	s.state = to
	if s.OnState != nil {
		s.OnState(to)
	}
}

func (s *Session) abort(err error) error {
	if s.state != StateAborted {
		s.transition(StateAborted)
	}
	if errors.Is(err, errs.ErrUserInterrupt) {
		logger.WithComponent("session").Warn().Msg("Recording cancelled")
	}
	return err
}

// Run goes through the countdown, waits for the start trigger and records
// until a stop condition. It returns the captured frames in StateStopped, or
// an error in StateAborted. Frames captured before a failure are returned
// alongside the error.
func (s *Session) Run() (*raster.FrameStream, error) {
	log := logger.WithComponent("session")
	stream := &raster.FrameStream{FPS: s.settings.FPS}

	if err := s.countdown(); err != nil {
		return stream, s.abort(err)
	}

	s.transition(StateArmed)
	keysMode := len(s.settings.Command) == 0 && !s.settings.NoKeys
	if len(s.settings.Command) > 0 {
		child, err := StartChild(s.settings.Command)
		if err != nil {
			return stream, s.abort(err)
		}
		s.child = child
	} else if keysMode {
		log.Info().Msgf("Press %s to start recording", s.settings.ActionKeys)
		if err := s.waitFor(func() bool { return s.input.CheckActionKeys(s.settings.ActionKeys) }); err != nil {
			return stream, s.abort(err)
		}
	}

	rec, err := recorder.New(recorder.Options{
		FPS:      s.settings.FPS,
		Duration: s.settings.Duration,
		Input:    s.input,
	})
	if err != nil {
		return stream, s.abort(err)
	}
	s.transition(StateRecording)
	if keysMode {
		log.Info().Msgf("Recording, press %s again to stop", s.settings.ActionKeys)
	} else {
		log.Info().Msg("Recording")
	}
	h := rec.RecordAsync(s.window)
	cancelled := s.watch(h, keysMode)

	frames, err := h.Wait()
	stream.Frames = frames
	if s.child != nil {
		if stopErr := s.child.Stop(); stopErr != nil {
			log.Warn().Err(stopErr).Msg("Failed to stop command")
		}
		s.child = nil
	}
	if cancelled && err == nil {
		err = errs.ErrUserInterrupt
	}
	if err != nil {
		return stream, s.abort(err)
	}

	s.transition(StateStopped)
	log.Info().
		Int("frames", len(frames)).
		Dur("duration", stream.Duration()).
		Msg("Recording stopped")
	return stream, nil
}

// Capture goes through the countdown and grabs a single frame once the
// action chord is pressed, or once the command has exited. Failed grabs are
// retried for up to a second.
func (s *Session) Capture() (*raster.Bgra8Image, error) {
	log := logger.WithComponent("session")
	if err := s.countdown(); err != nil {
		return nil, s.abort(err)
	}

	s.transition(StateArmed)
	switch {
	case len(s.settings.Command) > 0:
		child, err := StartChild(s.settings.Command)
		if err != nil {
			return nil, s.abort(err)
		}
		s.child = child
		err = s.waitFor(func() bool {
			select {
			case <-child.Done():
				return true
			default:
				return false
			}
		})
		if stopErr := child.Stop(); stopErr != nil {
			log.Warn().Err(stopErr).Msg("Failed to stop command")
		}
		s.child = nil
		if err != nil {
			return nil, s.abort(err)
		}
	case !s.settings.NoKeys:
		log.Info().Msgf("Press %s to capture", s.settings.ActionKeys)
		if err := s.waitFor(func() bool { return s.input.CheckActionKeys(s.settings.ActionKeys) }); err != nil {
			return nil, s.abort(err)
		}
	}

	s.transition(StateRecording)
	for left := time.Second; ; left -= s.PollInterval {
		if img, ok := s.window.Grab(); ok && img != nil {
			s.transition(StateStopped)
			log.Info().Stringer("geometry", img.Geometry).Msg("Frame captured")
			return img, nil
		}
		if left <= 0 {
			return nil, s.abort(fmt.Errorf("%w: failed to grab window pixels", errs.ErrWindowSystem))
		}
		s.Sleep(s.PollInterval)
	}
}

// countdown shows n..1 once per second.
func (s *Session) countdown() error {
	s.transition(StateCountdown)
	for n := s.settings.Countdown; n > 0; n-- {
		if err := s.window.ShowCountdown(n); err != nil {
			logger.WithComponent("session").Warn().Err(err).Msg("Failed to show countdown")
		}
		if err := s.pause(time.Second); err != nil {
			s.window.ShowCountdown(0)
			return err
		}
	}
	if s.settings.Countdown > 0 {
		if err := s.window.ShowCountdown(0); err != nil {
			logger.WithComponent("session").Warn().Err(err).Msg("Failed to hide countdown")
		}
	}
	return nil
}

// pause sleeps for d in poll steps, returning early on the cancel chord.
func (s *Session) pause(d time.Duration) error {
	for left := d; left > 0; left -= s.PollInterval {
		if s.input.CheckCancelKeys() {
			return errs.ErrUserInterrupt
		}
		s.Sleep(min(left, s.PollInterval))
	}
	return nil
}

// waitFor polls until cond holds or the cancel chord is pressed.
func (s *Session) waitFor(cond func() bool) error {
	for {
		if s.input.CheckCancelKeys() {
			return errs.ErrUserInterrupt
		}
		if cond() {
			return nil
		}
		s.Sleep(s.PollInterval)
	}
}

// watch polls the stop triggers while the worker records. With keysMode the
// chord that started the recording must be released, pressed again and
// released to stop. It reports whether the cancel chord stopped it.
func (s *Session) watch(h *recorder.Handle, keysMode bool) bool {
	log := logger.WithComponent("session")
	var childDone <-chan struct{}
	if s.child != nil {
		childDone = s.child.Done()
	}

	const (
		awaitRelease = iota
		awaitPress
		awaitStop
	)
	phase := awaitRelease
	for {
		select {
		case <-h.Done():
			return false
		case <-childDone:
			log.Info().Msg("Command exited, stopping recording")
			h.Stop()
			return false
		default:
		}
		if s.input.CheckCancelKeys() {
			h.Stop()
			return true
		}
		if keysMode {
			held := s.input.CheckActionKeys(s.settings.ActionKeys)
			switch {
			case phase == awaitRelease && !held:
				phase = awaitPress
			case phase == awaitPress && held:
				phase = awaitStop
			case phase == awaitStop && !held:
				h.Stop()
				return false
			}
		}
		s.Sleep(s.PollInterval)
	}
}

// Encode runs write as the encoding step and finishes the session.
func (s *Session) Encode(write func() error) error {
	s.transition(StateEncoding)
	if err := write(); err != nil {
		return s.abort(err)
	}
	s.transition(StateDone)
	return nil
}

// Close stops a running command and releases the window.
func (s *Session) Close() error {
	var result *multierror.Error
	if s.child != nil {
		result = multierror.Append(result, s.child.Stop())
		s.child = nil
	}
	if s.window != nil {
		result = multierror.Append(result, s.window.Release())
	}
	return result.ErrorOrNil()
}

// NotifyInterrupt returns an Interrupt that fires on SIGINT or SIGTERM and a
// function that stops listening.
func NotifyInterrupt() (*input.Interrupt, func()) {
	intr := &input.Interrupt{}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-ch:
				logger.WithComponent("session").Warn().
					Str("signal", sig.String()).
					Msg("Interrupted")
				intr.Trigger()
			case <-done:
				return
			}
		}
	}()
	return intr, func() {
		signal.Stop(ch)
		close(done)
	}
}
