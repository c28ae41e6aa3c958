package output

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/bryanchriswhite/snapreel/internal/errs"
	"github.com/nfnt/resize"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// StillOptions tune the single image encoders.
type StillOptions struct {
	// PNGCompression is one of default, none, fast or best.
	PNGCompression string
	// JPEGQuality ranges 1..100.
	JPEGQuality int
	// PNMFormat is one of pixmap, graymap or arbitrary.
	PNMFormat string
}

// DefaultStillOptions match the built-in config defaults.
func DefaultStillOptions() StillOptions {
	return StillOptions{PNGCompression: "default", JPEGQuality: 90, PNMFormat: "pixmap"}
}

type stillEncoder struct {
	name, ext string
	encode    func(w io.Writer, img image.Image, opts StillOptions) error
}

var stillFormats = map[string]stillEncoder{
	"png":  {"png", "png", encodePNG},
	"jpg":  {"jpg", "jpg", encodeJPEG},
	"bmp":  {"bmp", "bmp", func(w io.Writer, img image.Image, _ StillOptions) error { return bmp.Encode(w, img) }},
	"tiff": {"tiff", "tiff", encodeTIFF},
	"ff":   {"ff", "ff", encodeFarbfeld},
	"pnm":  {"pnm", "pnm", encodePNM},
	"tga":  {"tga", "tga", encodeTGA},
	"ico":  {"ico", "ico", encodeICO},
}

// Still is an ImageEncoder for one of the single image formats.
type Still struct {
	enc  stillEncoder
	opts StillOptions
}

var _ ImageEncoder = (*Still)(nil)

// NewStill returns the encoder registered under name.
func NewStill(name string, opts StillOptions) (*Still, error) {
	enc, ok := stillFormats[strings.ToLower(name)]
	if !ok {
		return nil, errs.Config("unknown image format %q (use one of %s)", name, strings.Join(StillFormats(), ", "))
	}
	return &Still{enc: enc, opts: opts}, nil
}

// Name returns the format name.
func (s *Still) Name() string { return s.enc.name }

// Ext returns the file extension.
func (s *Still) Ext() string {
	if s.enc.name == "pnm" {
		switch s.opts.PNMFormat {
		case "graymap":
			return "pgm"
		case "arbitrary":
			return "pam"
		}
		return "ppm"
	}
	return s.enc.ext
}

// Encode writes img.
func (s *Still) Encode(w io.Writer, img image.Image) (err error) {
	defer recoverEncode(s.enc.name, &err)
	if err := s.enc.encode(w, img, s.opts); err != nil {
		return errs.IO("write "+s.enc.name, err)
	}
	return nil
}

func encodePNG(w io.Writer, img image.Image, opts StillOptions) error {
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	switch strings.ToLower(opts.PNGCompression) {
	case "none":
		enc.CompressionLevel = png.NoCompression
	case "fast":
		enc.CompressionLevel = png.BestSpeed
	case "best":
		enc.CompressionLevel = png.BestCompression
	}
	return enc.Encode(w, img)
}

func encodeJPEG(w io.Writer, img image.Image, opts StillOptions) error {
	quality := opts.JPEGQuality
	if quality < 1 || quality > 100 {
		quality = 90
	}
	// JPEG has no alpha channel; an opaque NRGBA can be reinterpreted as RGBA
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Opaque() {
		img = &image.RGBA{Pix: nrgba.Pix, Stride: nrgba.Stride, Rect: nrgba.Rect}
	}
	return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
}

func encodeTIFF(w io.Writer, img image.Image, _ StillOptions) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
}

func asNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// encodeFarbfeld writes the "farbfeld" magic, the big-endian size and
// 16-bit RGBA pixels.
func encodeFarbfeld(w io.Writer, img image.Image, _ StillOptions) error {
	n := asNRGBA(img)
	bw := bufio.NewWriter(w)
	bw.WriteString("farbfeld")
	binary.Write(bw, binary.BigEndian, uint32(n.Rect.Dx()))
	binary.Write(bw, binary.BigEndian, uint32(n.Rect.Dy()))
	px := make([]byte, 8)
	for i := 0; i < len(n.Pix); i += 4 {
		for ch := 0; ch < 4; ch++ {
			binary.BigEndian.PutUint16(px[ch*2:], uint16(n.Pix[i+ch])*0x101)
		}
		bw.Write(px)
	}
	return bw.Flush()
}

// encodePNM writes binary P6 (pixmap), P5 (graymap) or P7 with alpha
// (arbitrary).
func encodePNM(w io.Writer, img image.Image, opts StillOptions) error {
	n := asNRGBA(img)
	width, height := n.Rect.Dx(), n.Rect.Dy()
	bw := bufio.NewWriter(w)
	switch strings.ToLower(opts.PNMFormat) {
	case "graymap":
		fmt.Fprintf(bw, "P5\n%d %d\n255\n", width, height)
		for i := 0; i < len(n.Pix); i += 4 {
			y := color.GrayModel.Convert(color.NRGBA{R: n.Pix[i], G: n.Pix[i+1], B: n.Pix[i+2], A: 0xff}).(color.Gray).Y
			bw.WriteByte(y)
		}
	case "arbitrary":
		fmt.Fprintf(bw, "P7\nWIDTH %d\nHEIGHT %d\nDEPTH 4\nMAXVAL 255\nTUPLTYPE RGB_ALPHA\nENDHDR\n", width, height)
		bw.Write(n.Pix)
	case "", "pixmap":
		fmt.Fprintf(bw, "P6\n%d %d\n255\n", width, height)
		for i := 0; i < len(n.Pix); i += 4 {
			bw.Write(n.Pix[i : i+3])
		}
	default:
		return fmt.Errorf("unknown pnm format %q", opts.PNMFormat)
	}
	return bw.Flush()
}

// encodeTGA writes an uncompressed 32-bit true-color image with a top-left
// origin.
func encodeTGA(w io.Writer, img image.Image, _ StillOptions) error {
	n := asNRGBA(img)
	width, height := n.Rect.Dx(), n.Rect.Dy()
	if width > 0xffff || height > 0xffff {
		return fmt.Errorf("tga: image %dx%d too large", width, height)
	}
	header := make([]byte, 18)
	header[2] = 2 // uncompressed true-color
	binary.LittleEndian.PutUint16(header[12:], uint16(width))
	binary.LittleEndian.PutUint16(header[14:], uint16(height))
	header[16] = 32
	header[17] = 0x28 // 8 alpha bits, top-left origin

	bw := bufio.NewWriter(w)
	bw.Write(header)
	for i := 0; i < len(n.Pix); i += 4 {
		bw.Write([]byte{n.Pix[i+2], n.Pix[i+1], n.Pix[i], n.Pix[i+3]})
	}
	return bw.Flush()
}

const maxIconSize = 256

// encodeICO writes a single PNG-compressed icon entry. Images larger than
// 256 pixels are scaled down to fit.
func encodeICO(w io.Writer, img image.Image, _ StillOptions) error {
	b := img.Bounds()
	if b.Dx() > maxIconSize || b.Dy() > maxIconSize {
		img = resize.Thumbnail(maxIconSize, maxIconSize, img, resize.Lanczos3)
		b = img.Bounds()
	}
	var payload bytes.Buffer
	if err := png.Encode(&payload, img); err != nil {
		return err
	}

	// a size of 256 is stored as 0
	dim := func(v int) byte { return byte(v % maxIconSize) }
	header := make([]byte, 6+16)
	binary.LittleEndian.PutUint16(header[2:], 1) // icon
	binary.LittleEndian.PutUint16(header[4:], 1) // one image
	entry := header[6:]
	entry[0] = dim(b.Dx())
	entry[1] = dim(b.Dy())
	binary.LittleEndian.PutUint16(entry[4:], 1)  // color planes
	binary.LittleEndian.PutUint16(entry[6:], 32) // bits per pixel
	binary.LittleEndian.PutUint32(entry[8:], uint32(payload.Len()))
	binary.LittleEndian.PutUint32(entry[12:], uint32(len(header)))

	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err := payload.WriteTo(w)
	return err
}
