package editor

import (
	"image"

	"github.com/bryanchriswhite/snapreel/internal/config"
	"github.com/bryanchriswhite/snapreel/internal/raster"
	"github.com/disintegration/imaging"
)

// crop cuts r out of img. An r outside img yields a blank image of r's size
// so the output geometry holds even when the crop swallows the frame.
func crop(img *image.NRGBA, r image.Rectangle) *image.NRGBA {
	if r.Intersect(img.Bounds()).Empty() {
		return image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	}
	return imaging.Crop(img, r)
}

func flip(img *image.NRGBA, f config.Flip) *image.NRGBA {
	switch f {
	case config.FlipHorizontal:
		return imaging.FlipH(img)
	case config.FlipVertical:
		return imaging.FlipV(img)
	}
	return img
}

// rotate turns img clockwise by degrees. imaging rotates counter-clockwise.
func rotate(img *image.NRGBA, degrees int) *image.NRGBA {
	switch degrees {
	case 90:
		return imaging.Rotate270(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate90(img)
	}
	return img
}

func quarterTurn(rotate int) bool {
	return rotate == 90 || rotate == 270
}

// unrotatePadding maps padding given in rotated orientation back to the
// orientation before a clockwise rotation.
func unrotatePadding(p raster.Padding, rotate int) raster.Padding {
	switch rotate {
	case 90:
		return raster.Padding{Top: p.Right, Right: p.Bottom, Bottom: p.Left, Left: p.Top}
	case 180:
		return raster.Padding{Top: p.Bottom, Right: p.Left, Bottom: p.Top, Left: p.Right}
	case 270:
		return raster.Padding{Top: p.Left, Right: p.Top, Bottom: p.Right, Left: p.Bottom}
	}
	return p
}

func unflipPadding(p raster.Padding, f config.Flip) raster.Padding {
	switch f {
	case config.FlipHorizontal:
		p.Left, p.Right = p.Right, p.Left
	case config.FlipVertical:
		p.Top, p.Bottom = p.Bottom, p.Top
	}
	return p
}
