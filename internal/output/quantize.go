package output

import (
	"image"
	"image/color"
	"sort"

	"github.com/bryanchriswhite/snapreel/internal/raster"
)

const (
	maxPaletteColors = 256
	alphaThreshold   = 128
)

// paletteSpeed maps quality 1..100 to a sampling stride 30..1. Higher quality
// samples more pixels.
func paletteSpeed(quality uint8) int {
	speed := 30 - int(quality)*29/100
	return clamp(speed, 1, 30)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// histogram counts sampled RGB colors packed as 0xRRGGBB.
type histogram map[uint32]int

// quantizer builds median-cut palettes.
type quantizer struct {
	stride      int
	transparent bool
}

func newQuantizer(quality uint8, transparent bool) quantizer {
	return quantizer{stride: paletteSpeed(quality), transparent: transparent}
}

// sample adds every stride-th pixel of img to h. Transparent pixels are left
// out when the palette reserves a transparent entry.
func (q quantizer) sample(h histogram, img *image.NRGBA) {
	w, ht := img.Rect.Dx(), img.Rect.Dy()
	n := w * ht
	if n == 0 {
		return
	}
	for p := 0; p < n; p += q.stride {
		i := img.PixOffset(p%w, p/w)
		if q.transparent && img.Pix[i+3] < alphaThreshold {
			continue
		}
		h[packRGB(img.Pix[i], img.Pix[i+1], img.Pix[i+2])]++
	}
}

func packRGB(r, g, b uint8) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

type colorCount struct {
	rgb [3]uint8
	n   int
}

type colorBox []colorCount

// widest returns the channel with the largest range and that range.
func (b colorBox) widest() (int, int) {
	lo := [3]int{255, 255, 255}
	var hi [3]int
	for _, c := range b {
		for ch := 0; ch < 3; ch++ {
			v := int(c.rgb[ch])
			lo[ch] = min(lo[ch], v)
			hi[ch] = max(hi[ch], v)
		}
	}
	axis, span := 0, -1
	for ch := 0; ch < 3; ch++ {
		if d := hi[ch] - lo[ch]; d > span {
			axis, span = ch, d
		}
	}
	return axis, span
}

func (b colorBox) average() color.RGBA {
	var sum [3]int
	var total int
	for _, c := range b {
		for ch := 0; ch < 3; ch++ {
			sum[ch] += int(c.rgb[ch]) * c.n
		}
		total += c.n
	}
	if total == 0 {
		return color.RGBA{A: 0xff}
	}
	return color.RGBA{
		R: uint8((sum[0] + total/2) / total),
		G: uint8((sum[1] + total/2) / total),
		B: uint8((sum[2] + total/2) / total),
		A: 0xff,
	}
}

// split cuts the box at the weighted median of its widest channel.
func (b colorBox) split() (colorBox, colorBox) {
	axis, _ := b.widest()
	sort.Slice(b, func(i, j int) bool { return b[i].rgb[axis] < b[j].rgb[axis] })
	var total int
	for _, c := range b {
		total += c.n
	}
	cut, acc := 1, 0
	for i, c := range b {
		acc += c.n
		if acc >= total/2 {
			cut = i + 1
			break
		}
	}
	cut = clamp(cut, 1, len(b)-1)
	return b[:cut], b[cut:]
}

// palette reduces h to at most 256 colors, one of which is fully transparent
// when the quantizer keeps alpha.
func (q quantizer) palette(h histogram) color.Palette {
	limit := maxPaletteColors
	if q.transparent {
		limit--
	}

	boxes := medianCut(h, limit)
	pal := make(color.Palette, 0, len(boxes)+1)
	for _, b := range boxes {
		pal = append(pal, b.average())
	}
	if q.transparent || len(pal) == 0 {
		pal = append(pal, color.RGBA{})
	}
	return pal
}

// medianCut splits the colors of h into at most limit boxes, always cutting
// the box with the widest channel range.
func medianCut(h histogram, limit int) []colorBox {
	all := make(colorBox, 0, len(h))
	for packed, n := range h {
		all = append(all, colorCount{rgb: [3]uint8{uint8(packed >> 16), uint8(packed >> 8), uint8(packed)}, n: n})
	}
	// map iteration order is random; keep palettes reproducible
	sort.Slice(all, func(i, j int) bool {
		return packRGB(all[i].rgb[0], all[i].rgb[1], all[i].rgb[2]) < packRGB(all[j].rgb[0], all[j].rgb[1], all[j].rgb[2])
	})

	var boxes []colorBox
	if len(all) > 0 {
		boxes = append(boxes, all)
	}
	for len(boxes) < limit {
		best, bestSpan := -1, 0
		for i, b := range boxes {
			if len(b) < 2 {
				continue
			}
			if _, span := b.widest(); span > bestSpan {
				best, bestSpan = i, span
			}
		}
		if best < 0 {
			break
		}
		left, right := boxes[best].split()
		boxes[best] = left
		boxes = append(boxes, right)
	}
	return boxes
}

func (b colorBox) population() int {
	var total int
	for _, c := range b {
		total += c.n
	}
	return total
}

// Swatch is a representative color and the share of sampled pixels it
// stands for.
type Swatch struct {
	Color color.RGBA
	Share float64
}

// DominantColors returns up to n colors of img, most common first. Pixels
// below half opacity are ignored.
func DominantColors(img *image.NRGBA, n int, quality uint8) []Swatch {
	if n <= 0 {
		return nil
	}
	q := newQuantizer(quality, true)
	h := make(histogram)
	q.sample(h, img)

	boxes := medianCut(h, n)
	var total int
	for _, b := range boxes {
		total += b.population()
	}
	swatches := make([]Swatch, 0, len(boxes))
	for _, b := range boxes {
		swatches = append(swatches, Swatch{Color: b.average(), Share: float64(b.population()) / float64(total)})
	}
	sort.SliceStable(swatches, func(i, j int) bool { return swatches[i].Share > swatches[j].Share })
	return swatches
}

// remap assigns every pixel of img its nearest palette entry.
func remap(img *image.NRGBA, pal color.Palette, transparent bool) *image.Paletted {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := image.NewPaletted(image.Rect(0, 0, w, h), pal)

	trIndex := -1
	opaque := make([][4]int32, 0, len(pal))
	for i, c := range pal {
		r, g, b, a := c.RGBA()
		if a == 0 {
			if trIndex < 0 {
				trIndex = i
			}
			continue
		}
		opaque = append(opaque, [4]int32{int32(r >> 8), int32(g >> 8), int32(b >> 8), int32(i)})
	}

	raster.Rows(h, func(start, limit int) {
		cache := make(map[uint32]uint8)
		for y := start; y < limit; y++ {
			for x := 0; x < w; x++ {
				i := img.PixOffset(x, y)
				o := out.PixOffset(x, y)
				if transparent && trIndex >= 0 && img.Pix[i+3] < alphaThreshold {
					out.Pix[o] = uint8(trIndex)
					continue
				}
				key := packRGB(img.Pix[i], img.Pix[i+1], img.Pix[i+2])
				idx, ok := cache[key]
				if !ok {
					idx = nearest(opaque, img.Pix[i], img.Pix[i+1], img.Pix[i+2])
					cache[key] = idx
				}
				out.Pix[o] = idx
			}
		}
	})
	return out
}

func nearest(entries [][4]int32, r, g, b uint8) uint8 {
	best, bestDist := int32(0), int32(-1)
	for _, e := range entries {
		dr, dg, db := e[0]-int32(r), e[1]-int32(g), e[2]-int32(b)
		d := dr*dr + dg*dg + db*db
		if bestDist < 0 || d < bestDist {
			best, bestDist = e[3], d
			if d == 0 {
				break
			}
		}
	}
	return uint8(best)
}

// opaqueCopy returns img with every alpha forced to 0xff.
func opaqueCopy(img *image.NRGBA) *image.NRGBA {
	if img.Opaque() {
		return img
	}
	out := image.NewNRGBA(img.Rect)
	copy(out.Pix, img.Pix)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out
}
