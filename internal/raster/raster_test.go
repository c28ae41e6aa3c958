package raster

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestWithPadding(t *testing.T) {
	g := NewGeometry(0, 0, 200, 200)
	got := g.WithPadding(Padding{Top: 10, Right: 20, Bottom: 30, Left: 40})
	if diff := cmp.Diff(NewGeometry(40, 10, 140, 160), got); diff != "" {
		t.Errorf("WithPadding mismatch (-want +got):\n%s", diff)
	}
}

func TestWithZeroPaddingIsIdentity(t *testing.T) {
	for _, g := range []Geometry{
		{},
		NewGeometry(5, -3, 10, 20),
		NewGeometry(-100, 7, 1, 1),
	} {
		require.Equal(t, g, g.WithPadding(Padding{}))
	}
}

func TestWithPaddingSaturates(t *testing.T) {
	g := NewGeometry(0, 0, 10, 10)
	got := g.WithPadding(Padding{Top: 8, Right: 9, Bottom: 8, Left: 9})
	require.Equal(t, uint32(0), got.Width)
	require.Equal(t, uint32(0), got.Height)
	require.True(t, got.IsZero())

	got = g.WithPadding(Padding{Left: 4000000000})
	require.Equal(t, uint32(0), got.Width)
	require.Equal(t, uint32(10), got.Height)

	// insets whose sum wraps around uint32 still consume the whole side
	p, err := ParsePadding("0:1:0:4294967295")
	require.NoError(t, err)
	got = NewGeometry(0, 0, 200, 200).WithPadding(p)
	require.Equal(t, uint32(0), got.Width)
	require.Equal(t, uint32(200), got.Height)
	require.Equal(t, int32(math.MaxInt32), got.X)

	got = NewGeometry(-5, 0, 200, 200).WithPadding(Padding{Left: 3e9, Right: 3e9})
	require.Equal(t, uint32(0), got.Width)
	require.Positive(t, got.X)
}

func TestParseGeometry(t *testing.T) {
	tests := []struct {
		in      string
		want    Geometry
		wantErr bool
	}{
		{in: "", want: Geometry{}},
		{in: "200x100", want: NewGeometry(0, 0, 200, 100)},
		{in: "200X100", want: NewGeometry(0, 0, 200, 100)},
		{in: "20x10+5+6", want: NewGeometry(5, 6, 20, 10)},
		{in: "20x10-5+6", want: NewGeometry(-5, 6, 20, 10)},
		{in: "200", wantErr: true},
		{in: "ax1", wantErr: true},
		{in: "1x1+5", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGeometry(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParsePadding(t *testing.T) {
	p, err := ParsePadding("1:2:3:4")
	require.NoError(t, err)
	require.Equal(t, Padding{1, 2, 3, 4}, p)

	p, err = ParsePadding("7:8")
	require.NoError(t, err)
	require.Equal(t, Padding{Top: 7, Right: 8}, p)
	require.Equal(t, "7:8:0:0", p.String())

	_, err = ParsePadding("1:2:3:4:5")
	require.Error(t, err)
	_, err = ParsePadding("a")
	require.Error(t, err)
}

func TestToNRGBAForcesOpaqueWithoutAlpha(t *testing.T) {
	img := NewBgra8Image(NewGeometry(0, 0, 2, 1), false)
	copy(img.Pix, []byte{1, 2, 3, 0, 10, 20, 30, 40})
	out := img.ToNRGBA()
	require.Equal(t, color.NRGBA{R: 3, G: 2, B: 1, A: 0xff}, out.NRGBAAt(0, 0))
	require.Equal(t, color.NRGBA{R: 30, G: 20, B: 10, A: 0xff}, out.NRGBAAt(1, 0))

	img.HasAlpha = true
	out = img.ToNRGBA()
	require.Equal(t, uint8(0), out.NRGBAAt(0, 0).A)
	require.Equal(t, uint8(40), out.NRGBAAt(1, 0).A)
}

func TestFromImageRoundTrip(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	src.SetNRGBA(2, 1, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	b := FromImage(src, true)
	require.NoError(t, b.Validate())
	require.Equal(t, src.Pix, b.ToNRGBA().Pix)
}

func TestFrameDelay(t *testing.T) {
	f := Frame{Delay: 7}
	require.Equal(t, 70.0, f.DelayMillis())
	s := FrameStream{Frames: []Frame{f, f}, FPS: 14}
	require.Equal(t, 2, s.Len())
	require.Equal(t, int64(140), s.Duration().Milliseconds())
}
