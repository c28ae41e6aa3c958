package window

import (
	"testing"
	"time"

	"github.com/bryanchriswhite/snapreel/internal/config"
	"github.com/bryanchriswhite/snapreel/internal/errs"
	"github.com/bryanchriswhite/snapreel/internal/input"
	"github.com/bryanchriswhite/snapreel/internal/raster"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	root, focused, pointer Info
}

func (f fakeBackend) Root() (Info, error)         { return f.root, nil }
func (f fakeBackend) Focused() (Info, error)      { return f.focused, nil }
func (f fakeBackend) UnderPointer() (Info, error) { return f.pointer, nil }
func (f fakeBackend) Name() string                { return "fake" }

var backend = fakeBackend{
	root:    Info{ID: 1, Geometry: raster.NewGeometry(0, 0, 1920, 1080)},
	focused: Info{ID: 2, Title: "term", Geometry: raster.NewGeometry(100, 50, 640, 480)},
	pointer: Info{ID: 3, Class: "Browser", Geometry: raster.NewGeometry(10, 20, 800, 600)},
}

// scripted answers each poll from a list; the last entry repeats.
type scripted struct {
	clicks  []bool
	keys    []bool
	cancel  []bool
	polls   int
	keyPoll int
}

func at(v []bool, i int) bool {
	if len(v) == 0 {
		return false
	}
	if i >= len(v) {
		return v[len(v)-1]
	}
	return v[i]
}

func (s *scripted) CheckCancelKeys() bool {
	return at(s.cancel, s.polls)
}

func (s *scripted) CheckMouseClick() bool {
	v := at(s.clicks, s.polls)
	s.polls++
	return v
}

func (s *scripted) CheckActionKeys(input.ActionKeys) bool {
	v := at(s.keys, s.keyPoll)
	s.keyPoll++
	return v
}

type fakeTime struct{ now time.Time }

func (f *fakeTime) Now() time.Time        { return f.now }
func (f *fakeTime) Sleep(d time.Duration) { f.now = f.now.Add(d) }

func newSelector(st input.State, s config.SelectSettings) (*Selector, *fakeTime) {
	ft := &fakeTime{now: time.Unix(0, 0)}
	if s.Interval == 0 {
		s.Interval = 10 * time.Millisecond
	}
	return &Selector{Backend: backend, Input: st, Settings: s, Now: ft.Now, Sleep: ft.Sleep}, ft
}

func TestSelectRootAndFocus(t *testing.T) {
	sel, _ := newSelector(&scripted{}, config.SelectSettings{Root: true})
	got, err := sel.Select()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), got.Window.ID)
	assert.Equal(t, raster.NewGeometry(0, 0, 1920, 1080), got.Area)

	sel, _ = newSelector(&scripted{}, config.SelectSettings{Focus: true, Padding: raster.Padding{Top: 10, Left: 5}})
	got, err = sel.Select()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), got.Window.ID)
	assert.Empty(t, cmp.Diff(raster.NewGeometry(5, 10, 635, 470), got.Area))
	assert.Empty(t, cmp.Diff(raster.NewGeometry(105, 60, 635, 470), got.Absolute()))
}

func TestSelectByClick(t *testing.T) {
	st := &scripted{clicks: []bool{false, false, false, true}}
	sel, ft := newSelector(st, config.SelectSettings{})
	got, err := sel.Select()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), got.Window.ID)
	assert.Equal(t, 30*time.Millisecond, ft.now.Sub(time.Unix(0, 0)))
}

func TestSelectByActionKeys(t *testing.T) {
	keys := input.ActionKeys{Main: "LAlt", Alternatives: []input.Key{"S"}}
	// pressed on the second poll, held for two more, then released
	st := &scripted{keys: []bool{false, true, true, true, false}}
	sel, _ := newSelector(st, config.SelectSettings{})
	sel.Keys = &keys
	got, err := sel.Select()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), got.Window.ID)
	assert.Equal(t, 5, st.keyPoll)
}

func TestSelectTimeout(t *testing.T) {
	sel, ft := newSelector(&scripted{}, config.SelectSettings{Timeout: time.Second, Interval: 100 * time.Millisecond})
	_, err := sel.Select()
	require.ErrorIs(t, err, errs.ErrWindowSystem)
	assert.Equal(t, time.Second, ft.now.Sub(time.Unix(0, 0)))
}

func TestSelectCancel(t *testing.T) {
	sel, _ := newSelector(&scripted{cancel: []bool{false, true}}, config.SelectSettings{})
	_, err := sel.Select()
	require.ErrorIs(t, err, errs.ErrUserInterrupt)
}

func TestArea(t *testing.T) {
	win := raster.NewGeometry(300, 300, 200, 100)
	tests := []struct {
		name    string
		size    raster.Geometry
		padding raster.Padding
		want    raster.Geometry
	}{
		{"whole window", raster.Geometry{}, raster.Padding{}, raster.NewGeometry(0, 0, 200, 100)},
		{"padding", raster.Geometry{}, raster.Padding{Top: 10, Right: 20, Bottom: 30, Left: 40}, raster.NewGeometry(40, 10, 140, 60)},
		{"size", raster.NewGeometry(0, 0, 50, 40), raster.Padding{}, raster.NewGeometry(0, 0, 50, 40)},
		{"size with offset", raster.NewGeometry(20, 10, 50, 40), raster.Padding{Left: 5}, raster.NewGeometry(25, 10, 45, 40)},
		{"clipped", raster.NewGeometry(150, 0, 100, 500), raster.Padding{}, raster.NewGeometry(150, 0, 50, 100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Area(win, tt.size, tt.padding)
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.want, got))
		})
	}

	_, err := Area(win, raster.Geometry{}, raster.Padding{Left: 200})
	require.ErrorIs(t, err, errs.ErrConfig)
}

func TestInfoString(t *testing.T) {
	assert.Equal(t, `0x2 "term" 640x480+100+50`, backend.focused.String())
	assert.Equal(t, "0x1 1920x1080", backend.root.String())
}
