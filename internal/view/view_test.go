package view

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFit(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		width        int
		wantW, wantH int
	}{
		{"small image kept", 10, 4, 80, 10, 4},
		{"odd height rounded up", 10, 5, 80, 10, 6},
		{"scaled to width", 160, 100, 80, 80, 50},
		{"default width", 160, 40, 0, 80, 20},
		{"wide strip keeps one row", 200, 1, 80, 80, 2},
		{"empty", 0, 10, 80, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := Fit(image.Rect(0, 0, tt.w, tt.h), tt.width)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestPrint(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(0, 1, color.NRGBA{B: 255, A: 255})
	img.SetNRGBA(1, 1, color.NRGBA{G: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, Print(&buf, img, Options{Width: 80}))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 1)
	line := lines[0]
	assert.True(t, strings.HasPrefix(line, "\x1b[38;2;255;0;0m\x1b[48;2;0;0;255m▀"), "red over blue: %q", line)
	assert.Contains(t, line, reset+"\x1b[38;2;0;255;0m▄", "transparent over green")
	assert.True(t, strings.HasSuffix(line, reset))
}

func TestPrintTransparent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, image.NewNRGBA(image.Rect(0, 0, 3, 2)), Options{}))
	assert.Equal(t, strings.Repeat(reset+" ", 3)+reset+"\n", buf.String())
}

func TestPrintScales(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}

	var buf bytes.Buffer
	require.NoError(t, Print(&buf, img, Options{Width: 10}))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 3, "10x5 pixels, padded to 6 rows")
	assert.Equal(t, 10, strings.Count(lines[0], upperHalf))
}

func TestPrintEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, image.NewNRGBA(image.Rectangle{}), Options{}))
	assert.Empty(t, buf.String())
}
