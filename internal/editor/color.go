package editor

import (
	"image"
	"image/color"
	"math"

	"github.com/bryanchriswhite/snapreel/internal/config"
	"github.com/disintegration/imaging"
)

// adjustColors applies grayscale, invert, brightness, hue rotation and
// contrast in that order. Alpha is never touched.
func adjustColors(img *image.NRGBA, s config.EditSettings) *image.NRGBA {
	if s.Grayscale {
		img = imaging.Grayscale(img)
	}
	if s.Invert {
		img = imaging.Invert(img)
	}
	if s.Brightness != 0 {
		d := float64(s.Brightness)
		img = imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
			c.R = clampByte(float64(c.R) + d)
			c.G = clampByte(float64(c.G) + d)
			c.B = clampByte(float64(c.B) + d)
			return c
		})
	}
	if s.Hue%360 != 0 {
		m := hueMatrix(float64(s.Hue))
		img = imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
			r, g, b := float64(c.R), float64(c.G), float64(c.B)
			c.R = clampByte(m[0]*r + m[1]*g + m[2]*b)
			c.G = clampByte(m[3]*r + m[4]*g + m[5]*b)
			c.B = clampByte(m[6]*r + m[7]*g + m[8]*b)
			return c
		})
	}
	if s.Contrast != 0 {
		img = imaging.AdjustContrast(img, float64(s.Contrast))
	}
	return img
}

// hueMatrix returns the luminance-preserving hue rotation matrix for degrees.
func hueMatrix(degrees float64) [9]float64 {
	rad := degrees * math.Pi / 180
	c, s := math.Cos(rad), math.Sin(rad)
	return [9]float64{
		0.213 + c*0.787 - s*0.213, 0.715 - c*0.715 - s*0.715, 0.072 - c*0.072 + s*0.928,
		0.213 - c*0.213 + s*0.143, 0.715 + c*0.285 + s*0.140, 0.072 - c*0.072 - s*0.283,
		0.213 - c*0.213 - s*0.787, 0.715 - c*0.715 + s*0.715, 0.072 + c*0.928 + s*0.072,
	}
}

func clampByte(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
