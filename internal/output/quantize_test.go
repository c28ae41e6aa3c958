package output

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaletteSpeed(t *testing.T) {
	assert.Equal(t, 30, paletteSpeed(0))
	assert.Equal(t, 30, paletteSpeed(1))
	assert.Equal(t, 16, paletteSpeed(50))
	assert.Equal(t, 9, paletteSpeed(75))
	assert.Equal(t, 1, paletteSpeed(100))
}

func TestPaletteKeepsFewColors(t *testing.T) {
	img := fill(4, 1, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(3, 0, color.NRGBA{B: 255, A: 255})

	q := quantizer{stride: 1}
	h := make(histogram)
	q.sample(h, img)
	pal := q.palette(h)
	require.Len(t, pal, 2)
	assert.Contains(t, pal, color.Color(color.RGBA{R: 255, A: 255}))
	assert.Contains(t, pal, color.Color(color.RGBA{B: 255, A: 255}))

	out := remap(img, pal, false)
	assert.Equal(t, pal[out.Pix[0]], color.Color(color.RGBA{R: 255, A: 255}))
	assert.Equal(t, pal[out.Pix[3]], color.Color(color.RGBA{B: 255, A: 255}))
}

func TestPaletteLimit(t *testing.T) {
	img := fill(64, 64, color.NRGBA{A: 255})
	for i := 0; i < 64*64; i++ {
		img.Pix[i*4] = uint8(i)
		img.Pix[i*4+1] = uint8(i >> 4)
		img.Pix[i*4+2] = uint8(i * 7)
	}
	for _, transparent := range []bool{false, true} {
		q := quantizer{stride: 1, transparent: transparent}
		h := make(histogram)
		q.sample(h, img)
		pal := q.palette(h)
		assert.Len(t, pal, maxPaletteColors)
		_, _, _, a := pal[len(pal)-1].RGBA()
		assert.Equal(t, transparent, a == 0)
	}
}

func TestPaletteReproducible(t *testing.T) {
	img := fill(16, 16, color.NRGBA{A: 255})
	for i := 0; i < 256; i++ {
		img.Pix[i*4], img.Pix[i*4+1] = uint8(i), uint8(255-i)
	}
	q := quantizer{stride: 3}
	first := make(histogram)
	q.sample(first, img)
	second := make(histogram)
	q.sample(second, img)
	assert.Equal(t, q.palette(first), q.palette(second))
}

func TestEmptyPaletteHasEntry(t *testing.T) {
	q := quantizer{stride: 1}
	require.Len(t, q.palette(make(histogram)), 1)
}

func TestOpaqueCopy(t *testing.T) {
	img := fill(2, 1, color.NRGBA{R: 9, A: 3})
	out := opaqueCopy(img)
	assert.Equal(t, uint8(255), out.Pix[3])
	assert.Equal(t, uint8(3), img.Pix[3], "source untouched")

	opaque := fill(1, 1, color.NRGBA{A: 255})
	assert.Same(t, opaque, opaqueCopy(opaque))
}

func TestDominantColors(t *testing.T) {
	img := fill(5, 1, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(3, 0, color.NRGBA{B: 255, A: 255})
	img.SetNRGBA(4, 0, color.NRGBA{G: 255})

	got := DominantColors(img, 2, 100)
	require.Len(t, got, 2)
	assert.Equal(t, Swatch{Color: color.RGBA{R: 255, A: 255}, Share: 0.75}, got[0])
	assert.Equal(t, Swatch{Color: color.RGBA{B: 255, A: 255}, Share: 0.25}, got[1])

	assert.Len(t, DominantColors(img, 8, 100), 2, "never more swatches than colors")
	assert.Nil(t, DominantColors(img, 0, 100))
}
