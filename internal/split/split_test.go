package split

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bryanchriswhite/snapreel/internal/errs"
	"github.com/kettek/apng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red  = color.NRGBA{R: 0xff, A: 0xff}
	blue = color.NRGBA{B: 0xff, A: 0xff}
	none = color.NRGBA{}
)

func paletted(r image.Rectangle, c color.Color) *image.Paletted {
	img := image.NewPaletted(r, color.Palette{color.NRGBA{}, red, blue})
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodeGIF(t *testing.T, g *gif.GIF) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, g))
	return buf.Bytes()
}

func TestDecodeGIFCoalesces(t *testing.T) {
	data := encodeGIF(t, &gif.GIF{
		Image: []*image.Paletted{
			paletted(image.Rect(0, 0, 4, 4), red),
			paletted(image.Rect(2, 2, 4, 4), blue),
			paletted(image.Rect(0, 0, 1, 1), blue),
		},
		Delay:    []int{10, 20, 5},
		Disposal: []byte{gif.DisposalNone, gif.DisposalBackground, gif.DisposalNone},
		Config:   image.Config{Width: 4, Height: 4},
	})

	anim, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "gif", anim.Format)
	assert.Equal(t, 4, anim.Width)
	assert.Equal(t, 4, anim.Height)
	require.Len(t, anim.Frames, 3)

	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 50 * time.Millisecond},
		[]time.Duration{anim.Frames[0].Delay, anim.Frames[1].Delay, anim.Frames[2].Delay})

	second := anim.Frames[1].Image
	assert.Equal(t, image.Rect(0, 0, 4, 4), second.Bounds(), "partial frame drawn on the full canvas")
	assert.Equal(t, red, second.NRGBAAt(0, 0))
	assert.Equal(t, blue, second.NRGBAAt(3, 3))

	third := anim.Frames[2].Image
	assert.Equal(t, blue, third.NRGBAAt(0, 0))
	assert.Equal(t, red, third.NRGBAAt(1, 1))
	assert.Equal(t, none, third.NRGBAAt(3, 3), "area of the second frame cleared by its disposal")
}

func TestDecodeGIFDisposePrevious(t *testing.T) {
	data := encodeGIF(t, &gif.GIF{
		Image: []*image.Paletted{
			paletted(image.Rect(0, 0, 2, 1), red),
			paletted(image.Rect(0, 0, 1, 1), blue),
			paletted(image.Rect(1, 0, 2, 1), blue),
		},
		Delay:    []int{1, 1, 1},
		Disposal: []byte{gif.DisposalNone, gif.DisposalPrevious, gif.DisposalNone},
		Config:   image.Config{Width: 2, Height: 1},
	})

	anim, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, anim.Frames, 3)
	assert.Equal(t, blue, anim.Frames[1].Image.NRGBAAt(0, 0))
	assert.Equal(t, red, anim.Frames[2].Image.NRGBAAt(0, 0), "restored to the canvas before frame 2")
	assert.Equal(t, blue, anim.Frames[2].Image.NRGBAAt(1, 0))
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestDecodeAPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, apng.Encode(&buf, apng.APNG{
		Frames: []apng.Frame{
			{Image: solid(2, 2, red), DelayNumerator: 1, DelayDenominator: 4, BlendOp: apng.BLEND_OP_SOURCE},
			{Image: solid(2, 2, blue), DelayNumerator: 1, DelayDenominator: 2, BlendOp: apng.BLEND_OP_SOURCE},
		},
	}))

	anim, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, "apng", anim.Format)
	require.Len(t, anim.Frames, 2)
	assert.Equal(t, 250*time.Millisecond, anim.Frames[0].Delay)
	assert.Equal(t, 500*time.Millisecond, anim.Frames[1].Delay)
	assert.Equal(t, red, anim.Frames[0].Image.NRGBAAt(1, 1))
	assert.Equal(t, blue, anim.Frames[1].Image.NRGBAAt(1, 1))

	frames := anim.RasterFrames()
	require.Len(t, frames, 2)
	assert.Equal(t, uint16(25), frames[0].Delay)
	assert.Equal(t, uint16(50), frames[1].Delay)
}

func TestDecodeStill(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(3, 2, red)))

	anim, err := Decode(&buf)
	require.NoError(t, err)
	require.Len(t, anim.Frames, 1)
	assert.Equal(t, 3, anim.Width)
	assert.Equal(t, 2, anim.Height)
	assert.Equal(t, red, anim.Frames[0].Image.NRGBAAt(2, 1))

	frames := anim.RasterFrames()
	assert.Equal(t, uint16(1), frames[0].Delay, "still frames get the minimum delay")
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("not an image")))
	require.ErrorIs(t, err, errs.ErrIO)

	_, err = Decode(bytes.NewReader([]byte("GIF89a truncated")))
	require.ErrorIs(t, err, errs.ErrIO)
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	anim := &Animation{Width: 1, Height: 1, Frames: []Frame{
		{Image: solid(1, 1, red)},
		{Image: solid(1, 1, blue)},
	}}

	paths, err := Write(dir, anim, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "frame_000.png"), filepath.Join(dir, "frame_001.png")}, paths)

	f, err := os.Open(paths[1])
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, []uint32{0, 0, 0xffff}, []uint32{r, g, b})
}

func TestWriteCancel(t *testing.T) {
	anim := &Animation{Frames: []Frame{{Image: solid(1, 1, red)}, {Image: solid(1, 1, red)}}}
	calls := 0
	paths, err := Write(t.TempDir(), anim, func() bool {
		calls++
		return calls > 1
	})
	require.ErrorIs(t, err, errs.ErrUserInterrupt)
	assert.Len(t, paths, 1)

	_, err = Write(t.TempDir(), &Animation{}, nil)
	require.ErrorIs(t, err, errs.ErrNoFrames)
}

func TestFrameName(t *testing.T) {
	assert.Equal(t, "frame_007.png", FrameName(7))
	assert.Equal(t, "frame_1234.png", FrameName(1234))
}
