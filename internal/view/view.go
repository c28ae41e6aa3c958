// Package view prints images to a truecolor terminal with half block
// characters, two pixel rows per text line.
package view

import (
	"bufio"
	"fmt"
	"image"
	"image/draw"
	"io"

	"github.com/bryanchriswhite/snapreel/internal/errs"
	"github.com/nfnt/resize"
)

// DefaultWidth is the output width in columns when none is given.
const DefaultWidth = 80

const (
	upperHalf = "▀"
	lowerHalf = "▄"
	reset     = "\x1b[0m"

	alphaThreshold = 128
)

// Options control the printed size.
type Options struct {
	// Width is the maximum number of columns. Images narrower than this are
	// not enlarged.
	Width int
}

// Fit returns the pixel size img is scaled to for the given column width,
// keeping the aspect ratio. The height is rounded up to an even number of
// rows.
func Fit(bounds image.Rectangle, width int) (int, int) {
	if width <= 0 {
		width = DefaultWidth
	}
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return 0, 0
	}
	if w > width {
		h = max(1, h*width/w)
		w = width
	}
	return w, h + h%2
}

// Print writes img to w as rows of colored half blocks.
func Print(w io.Writer, img image.Image, opts Options) error {
	width, height := Fit(img.Bounds(), opts.Width)
	if width == 0 {
		return nil
	}

	src := img
	b := img.Bounds()
	if width != b.Dx() || height != b.Dy() {
		src = resize.Resize(uint(width), uint(height), img, resize.Lanczos3)
	}
	pix := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(pix, pix.Rect, src, src.Bounds().Min, draw.Src)

	out := bufio.NewWriter(w)
	for y := 0; y < height; y += 2 {
		for x := 0; x < width; x++ {
			writeCell(out, pix, x, y)
		}
		out.WriteString(reset + "\n")
	}
	if err := out.Flush(); err != nil {
		return errs.IO("write terminal", err)
	}
	return nil
}

// writeCell prints the pixels (x, y) and (x, y+1) as one character.
func writeCell(out *bufio.Writer, img *image.NRGBA, x, y int) {
	top := img.PixOffset(x, y)
	bottom := img.PixOffset(x, y+1)
	topOn := img.Pix[top+3] >= alphaThreshold
	bottomOn := img.Pix[bottom+3] >= alphaThreshold

	switch {
	case topOn && bottomOn:
		fmt.Fprintf(out, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm%s",
			img.Pix[top], img.Pix[top+1], img.Pix[top+2],
			img.Pix[bottom], img.Pix[bottom+1], img.Pix[bottom+2],
			upperHalf)
	case topOn:
		fmt.Fprintf(out, "%s\x1b[38;2;%d;%d;%dm%s", reset, img.Pix[top], img.Pix[top+1], img.Pix[top+2], upperHalf)
	case bottomOn:
		fmt.Fprintf(out, "%s\x1b[38;2;%d;%d;%dm%s", reset, img.Pix[bottom], img.Pix[bottom+1], img.Pix[bottom+2], lowerHalf)
	default:
		out.WriteString(reset + " ")
	}
}
