package output

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/bryanchriswhite/snapreel/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func sample() *image.NRGBA {
	img := fill(3, 2, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 128})
	return img
}

func encodeStill(t *testing.T, name string, opts StillOptions, img image.Image) []byte {
	t.Helper()
	enc, err := NewStill(name, opts)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, enc.Encode(&buf, img))
	return buf.Bytes()
}

func TestStillFormats(t *testing.T) {
	require.Equal(t, []string{"bmp", "ff", "ico", "jpg", "png", "pnm", "tga", "tiff"}, StillFormats())
}

func TestNewStillUnknown(t *testing.T) {
	_, err := NewStill("webp", DefaultStillOptions())
	require.ErrorIs(t, err, errs.ErrConfig)
}

func TestFormatFromExtension(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{".gif", "gif"},
		{"apng", "apng"},
		{".JPEG", "jpg"},
		{"tif", "tiff"},
		{"farbfeld", "ff"},
		{"pgm", "pnm"},
		{".png", "png"},
		{"ico", "ico"},
	}
	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			got, err := FormatFromExtension(tt.ext)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	_, err := FormatFromExtension(".xyz")
	require.ErrorIs(t, err, errs.ErrConfig)
}

func TestAnimated(t *testing.T) {
	assert.True(t, Animated("GIF"))
	assert.True(t, Animated("apng"))
	assert.False(t, Animated("png"))
}

func TestEncodePNG(t *testing.T) {
	for _, level := range []string{"default", "none", "fast", "best"} {
		opts := DefaultStillOptions()
		opts.PNGCompression = level
		b := encodeStill(t, "png", opts, sample())
		require.Equal(t, pngSignature, b[:8])
		img, err := png.Decode(bytes.NewReader(b))
		require.NoError(t, err)
		assert.Equal(t, color.NRGBAModel.Convert(sample().At(0, 0)), color.NRGBAModel.Convert(img.At(0, 0)), level)
	}
}

func TestEncodeJPEG(t *testing.T) {
	b := encodeStill(t, "jpg", DefaultStillOptions(), fill(8, 8, color.NRGBA{R: 255, A: 255}))
	require.Equal(t, []byte{0xff, 0xd8}, b[:2])
	img, err := jpeg.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 8, 8), img.Bounds())
	r, g, _, _ := img.At(4, 4).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Less(t, g>>8, uint32(16))
}

func TestEncodeBMPAndTIFF(t *testing.T) {
	src := fill(3, 2, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	b := encodeStill(t, "bmp", DefaultStillOptions(), src)
	require.Equal(t, "BM", string(b[:2]))
	img, err := bmp.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())

	b = encodeStill(t, "tiff", DefaultStillOptions(), src)
	img, err = tiff.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	r, g, bl, _ := img.At(2, 1).RGBA()
	assert.Equal(t, []uint32{1, 2, 3}, []uint32{r >> 8, g >> 8, bl >> 8})
}

func TestEncodeFarbfeld(t *testing.T) {
	b := encodeStill(t, "ff", DefaultStillOptions(), sample())
	require.Equal(t, "farbfeld", string(b[:8]))
	require.Equal(t, uint32(3), binary.BigEndian.Uint32(b[8:]))
	require.Equal(t, uint32(2), binary.BigEndian.Uint32(b[12:]))
	require.Len(t, b, 16+3*2*8)
	// first pixel, 16 bits per channel
	assert.Equal(t, uint16(200*0x101), binary.BigEndian.Uint16(b[16:]))
	assert.Equal(t, uint16(128*0x101), binary.BigEndian.Uint16(b[22:]))
}

func TestEncodePNM(t *testing.T) {
	tests := []struct {
		format string
		ext    string
		header string
		size   int
	}{
		{"pixmap", "ppm", "P6\n3 2\n255\n", 3 * 2 * 3},
		{"graymap", "pgm", "P5\n3 2\n255\n", 3 * 2},
		{"arbitrary", "pam", "P7\nWIDTH 3\nHEIGHT 2\nDEPTH 4\nMAXVAL 255\nTUPLTYPE RGB_ALPHA\nENDHDR\n", 3 * 2 * 4},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			opts := DefaultStillOptions()
			opts.PNMFormat = tt.format
			enc, err := NewStill("pnm", opts)
			require.NoError(t, err)
			assert.Equal(t, tt.ext, enc.Ext())

			b := encodeStill(t, "pnm", opts, sample())
			require.True(t, bytes.HasPrefix(b, []byte(tt.header)))
			assert.Len(t, b, len(tt.header)+tt.size)
		})
	}

	opts := DefaultStillOptions()
	opts.PNMFormat = "bogus"
	enc, err := NewStill("pnm", opts)
	require.NoError(t, err)
	require.ErrorIs(t, enc.Encode(&bytes.Buffer{}, sample()), errs.ErrIO)
}

func TestEncodeTGA(t *testing.T) {
	b := encodeStill(t, "tga", DefaultStillOptions(), sample())
	require.Len(t, b, 18+3*2*4)
	assert.Equal(t, byte(2), b[2])
	assert.Equal(t, uint16(3), binary.LittleEndian.Uint16(b[12:]))
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(b[14:]))
	assert.Equal(t, byte(32), b[16])
	assert.Equal(t, byte(0x28), b[17])
	// top-left pixel first, stored as BGRA
	assert.Equal(t, []byte{50, 100, 200, 128}, b[18:22])
}

func TestEncodeICO(t *testing.T) {
	b := encodeStill(t, "ico", DefaultStillOptions(), sample())
	assert.Equal(t, []byte{0, 0, 1, 0, 1, 0}, b[:6])
	assert.Equal(t, byte(3), b[6])
	assert.Equal(t, byte(2), b[7])
	size := binary.LittleEndian.Uint32(b[14:])
	offset := binary.LittleEndian.Uint32(b[18:])
	require.Equal(t, uint32(22), offset)
	require.Len(t, b, int(offset+size))
	img, err := png.Decode(bytes.NewReader(b[offset:]))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
}

func TestEncodeICOScalesLargeImages(t *testing.T) {
	b := encodeStill(t, "ico", DefaultStillOptions(), fill(512, 512, color.NRGBA{G: 255, A: 255}))
	// 256 is stored as 0
	assert.Equal(t, byte(0), b[6])
	assert.Equal(t, byte(0), b[7])
	img, err := png.Decode(bytes.NewReader(b[22:]))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 256, 256), img.Bounds())
}
