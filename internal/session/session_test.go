package session

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bryanchriswhite/snapreel/internal/config"
	"github.com/bryanchriswhite/snapreel/internal/errs"
	"github.com/bryanchriswhite/snapreel/internal/input"
	"github.com/bryanchriswhite/snapreel/internal/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWindow struct {
	mu         sync.Mutex
	countdowns []uint32
	released   bool
	releaseErr error
	failGrab   bool
	grabs      atomic.Int32
}

func (w *fakeWindow) Geometry() raster.Geometry { return raster.NewGeometry(0, 0, 2, 2) }

func (w *fakeWindow) Grab() (*raster.Bgra8Image, bool) {
	w.grabs.Add(1)
	if w.failGrab {
		return nil, false
	}
	return raster.NewBgra8Image(w.Geometry(), false), true
}

func (w *fakeWindow) ShowCountdown(n uint32) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.countdowns = append(w.countdowns, n)
	return nil
}

func (w *fakeWindow) Release() error {
	w.released = true
	return w.releaseErr
}

// chord replays a script of action key reads; cancel is never held.
type chord struct {
	script []bool
	calls  int
}

func (c *chord) CheckActionKeys(input.ActionKeys) bool {
	i := min(c.calls, len(c.script)-1)
	c.calls++
	return c.script[i]
}
func (c *chord) CheckCancelKeys() bool { return false }
func (c *chord) CheckMouseClick() bool { return false }

func settings() config.RecordSettings {
	keys, _ := input.ParseActionKeys(input.DefaultActionKeys)
	return config.RecordSettings{
		FPS:        100,
		ActionKeys: keys,
		NoKeys:     true,
		Duration:   50 * time.Millisecond,
	}
}

func newSession(s config.RecordSettings, w *fakeWindow, in input.State) (*Session, *[]State) {
	var states []State
	sess := New(s, w, in)
	sess.PollInterval = time.Millisecond
	sess.OnState = func(st State) { states = append(states, st) }
	return sess, &states
}

func TestRunDuration(t *testing.T) {
	w := &fakeWindow{}
	sess, states := newSession(settings(), w, &input.Interrupt{})

	stream, err := sess.Run()
	require.NoError(t, err)
	assert.Equal(t, StateStopped, sess.State())
	assert.Equal(t, uint32(100), stream.FPS)
	// 50ms at 100 fps; a loaded machine stretches delays instead of adding frames
	assert.NotZero(t, stream.Len())
	assert.LessOrEqual(t, stream.Len(), 6)
	assert.Empty(t, w.countdowns)

	require.NoError(t, sess.Encode(func() error { return nil }))
	assert.Equal(t, []State{StateCountdown, StateArmed, StateRecording, StateStopped, StateEncoding, StateDone}, *states)
}

func TestCountdown(t *testing.T) {
	s := settings()
	s.Countdown = 3
	s.Duration = 20 * time.Millisecond
	w := &fakeWindow{}
	sess, _ := newSession(s, w, &input.Interrupt{})
	var slept time.Duration
	sess.Sleep = func(d time.Duration) { slept += d }
	sess.PollInterval = 100 * time.Millisecond

	_, err := sess.Run()
	require.NoError(t, err)
	assert.Equal(t, []uint32{3, 2, 1, 0}, w.countdowns)
	assert.Equal(t, 3*time.Second, slept)
}

func TestCancelDuringCountdown(t *testing.T) {
	s := settings()
	s.Countdown = 3
	w := &fakeWindow{}
	intr := &input.Interrupt{}
	intr.Trigger()
	sess, _ := newSession(s, w, intr)

	_, err := sess.Run()
	require.ErrorIs(t, err, errs.ErrUserInterrupt)
	assert.Equal(t, StateAborted, sess.State())
	assert.Equal(t, []uint32{3, 0}, w.countdowns, "countdown hidden on cancel")
	assert.Zero(t, w.grabs.Load())
}

func TestCancelDuringRecording(t *testing.T) {
	s := settings()
	s.Duration = 0
	w := &fakeWindow{}
	intr := &input.Interrupt{}
	sess, _ := newSession(s, w, intr)
	time.AfterFunc(30*time.Millisecond, intr.Trigger)

	_, err := sess.Run()
	require.ErrorIs(t, err, errs.ErrUserInterrupt)
	assert.Equal(t, errs.ExitCancelled, errs.ExitCode(err))
	assert.Equal(t, StateAborted, sess.State())
}

func TestActionKeysStartAndStop(t *testing.T) {
	s := settings()
	s.NoKeys = false
	s.Duration = 0
	// armed: idle, pressed; recording: still held, released, pressed, released
	in := &chord{script: []bool{false, true, true, false, true, false}}
	sess, states := newSession(s, &fakeWindow{}, in)

	_, err := sess.Run()
	require.NoError(t, err)
	assert.Equal(t, 6, in.calls)
	assert.Equal(t, []State{StateCountdown, StateArmed, StateRecording, StateStopped}, *states)
}

func TestRecordingStopsOnSecondRelease(t *testing.T) {
	s := settings()
	s.NoKeys = false
	s.Duration = 0
	// the second press is held for three polls before it is released
	in := &chord{script: []bool{false, true, false, true, true, true, false}}
	sess, _ := newSession(s, &fakeWindow{}, in)

	_, err := sess.Run()
	require.NoError(t, err)
	assert.Equal(t, 7, in.calls)
	assert.Equal(t, StateStopped, sess.State())
}

func TestChildCommandStopsRecording(t *testing.T) {
	s := settings()
	s.Duration = 0
	s.NoKeys = false
	s.Command = []string{"sleep", "0.05"}
	w := &fakeWindow{}
	sess, _ := newSession(s, w, &input.Interrupt{})

	start := time.Now()
	stream, err := sess.Run()
	require.NoError(t, err)
	assert.Equal(t, StateStopped, sess.State())
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.NotZero(t, stream.Len())
}

func TestCapture(t *testing.T) {
	w := &fakeWindow{}
	sess, states := newSession(settings(), w, &input.Interrupt{})

	img, err := sess.Capture()
	require.NoError(t, err)
	assert.Equal(t, raster.NewGeometry(0, 0, 2, 2), img.Geometry)
	assert.Equal(t, int32(1), w.grabs.Load())
	assert.Equal(t, []State{StateCountdown, StateArmed, StateRecording, StateStopped}, *states)
}

func TestCaptureWaitsForActionKeys(t *testing.T) {
	s := settings()
	s.NoKeys = false
	in := &chord{script: []bool{false, false, true}}
	w := &fakeWindow{}
	sess, _ := newSession(s, w, in)

	_, err := sess.Capture()
	require.NoError(t, err)
	assert.Equal(t, 3, in.calls)
	assert.Equal(t, int32(1), w.grabs.Load())
}

func TestCaptureAfterCommand(t *testing.T) {
	s := settings()
	s.Command = []string{"true"}
	sess, _ := newSession(s, &fakeWindow{}, &input.Interrupt{})

	_, err := sess.Capture()
	require.NoError(t, err)
	assert.Equal(t, StateStopped, sess.State())
}

func TestCaptureGrabFails(t *testing.T) {
	w := &fakeWindow{failGrab: true}
	sess, _ := newSession(settings(), w, &input.Interrupt{})
	sess.Sleep = func(time.Duration) {}
	sess.PollInterval = 100 * time.Millisecond

	_, err := sess.Capture()
	require.ErrorIs(t, err, errs.ErrWindowSystem)
	assert.Equal(t, StateAborted, sess.State())
	assert.Equal(t, int32(11), w.grabs.Load())
}

func TestEncodeInterrupted(t *testing.T) {
	sess, _ := newSession(settings(), &fakeWindow{}, &input.Interrupt{})
	_, err := sess.Run()
	require.NoError(t, err)

	err = sess.Encode(func() error { return errs.ErrUserInterrupt })
	require.ErrorIs(t, err, errs.ErrUserInterrupt)
	assert.Equal(t, StateAborted, sess.State())
}

func TestClose(t *testing.T) {
	w := &fakeWindow{releaseErr: errors.New("boom")}
	sess, _ := newSession(settings(), w, &input.Interrupt{})
	err := sess.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.True(t, w.released)

	w = &fakeWindow{}
	sess, _ = newSession(settings(), w, &input.Interrupt{})
	require.NoError(t, sess.Close())
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateIdle, StateCountdown, true},
		{StateCountdown, StateArmed, true},
		{StateArmed, StateRecording, true},
		{StateRecording, StateStopped, true},
		{StateStopped, StateEncoding, true},
		{StateEncoding, StateDone, true},
		{StateRecording, StateAborted, true},
		{StateIdle, StateRecording, false},
		{StateDone, StateAborted, false},
		{StateStopped, StateRecording, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
	assert.Equal(t, "recording", StateRecording.String())
	assert.Equal(t, "unknown", State(42).String())
}
