package dither

import (
	"fmt"
	"image"
	"image/color"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// BuildPalette produces a fixed palette for dithering.
//
// If explicit is non-empty it becomes the palette unchanged, after
// validating that every entry is usable; entry order is preserved so
// callers control index-based tie-breaking. Otherwise up to targetCount
// representative colors are derived from img with median cut: the RGB
// cube is recursively split along the channel with the widest range, at
// the pixel-count-weighted median, and each final box averages to one
// palette color. An image with fewer distinct colors than targetCount
// yields exactly those colors.
//
// Derived palettes are ordered darkest to brightest so that identical
// inputs always produce identical palettes. BuildPalette keeps no state
// between calls.
func BuildPalette(img image.Image, targetCount int, explicit []color.Color) ([]color.NRGBA, error) {
	if len(explicit) > 0 {
		palette := make([]color.NRGBA, len(explicit))
		for i, c := range explicit {
			if c == nil {
				return nil, fmt.Errorf("%w: entry %d is nil", ErrInvalidPaletteEntry, i)
			}
			palette[i] = color.NRGBAModel.Convert(c).(color.NRGBA)
		}
		return palette, nil
	}

	if targetCount < 1 {
		return nil, ErrInvalidColorCount
	}
	if img == nil || img.Bounds().Dx() <= 0 || img.Bounds().Dy() <= 0 {
		return nil, ErrDimensionMismatch
	}

	entries := histogram(img)

	var palette []color.NRGBA
	if len(entries) <= targetCount {
		// The image already has few enough colors, use them directly.
		palette = make([]color.NRGBA, len(entries))
		for i, e := range entries {
			palette[i] = e.c
		}
	} else {
		palette = medianCut(entries, targetCount)
	}

	sortByLuminance(palette)
	return palette, nil
}

// histEntry is one distinct source color and how many pixels hold it.
type histEntry struct {
	c color.NRGBA
	n uint32
}

// histogram collects the distinct colors of img in row-major first-seen
// order. Alpha is dropped: palette derivation works on RGB only. The
// slice order is what makes the whole builder deterministic, so nothing
// here may depend on map iteration order.
func histogram(img image.Image) []histEntry {
	bounds := img.Bounds()
	index := make(map[uint32]int)
	entries := make([]histEntry, 0, 256)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			key := uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
			if i, ok := index[key]; ok {
				entries[i].n++
				continue
			}
			index[key] = len(entries)
			entries = append(entries, histEntry{c: color.NRGBA{c.R, c.G, c.B, 255}, n: 1})
		}
	}
	return entries
}

// colorBox is a contiguous range of histogram entries forming one box of
// the RGB cube.
type colorBox struct {
	lo, hi int // entries[lo:hi]
}

func (b colorBox) size() int { return b.hi - b.lo }

// span returns the box's widest channel (0=R, 1=G, 2=B) and its range.
func (b colorBox) span(entries []histEntry) (channel int, width int) {
	minC := [3]int{255, 255, 255}
	maxC := [3]int{0, 0, 0}
	for _, e := range entries[b.lo:b.hi] {
		ch := [3]int{int(e.c.R), int(e.c.G), int(e.c.B)}
		for i := 0; i < 3; i++ {
			if ch[i] < minC[i] {
				minC[i] = ch[i]
			}
			if ch[i] > maxC[i] {
				maxC[i] = ch[i]
			}
		}
	}
	channel, width = 0, maxC[0]-minC[0]
	for i := 1; i < 3; i++ {
		if maxC[i]-minC[i] > width {
			channel, width = i, maxC[i]-minC[i]
		}
	}
	return channel, width
}

func channelValue(c color.NRGBA, channel int) uint8 {
	switch channel {
	case 0:
		return c.R
	case 1:
		return c.G
	default:
		return c.B
	}
}

// medianCut splits the histogram into targetCount boxes and averages
// each box into one palette color. Every step is deterministic: the box
// with the widest channel range splits first (lowest box index on ties),
// in-box sorting orders by the split channel with full RGB tie-breaking,
// and the split point is the pixel-count-weighted median.
func medianCut(entries []histEntry, targetCount int) []color.NRGBA {
	boxes := []colorBox{{0, len(entries)}}

	for len(boxes) < targetCount {
		// Pick the splittable box with the widest channel range.
		splitIdx, splitCh, widest := -1, 0, 0
		for i, b := range boxes {
			if b.size() < 2 {
				continue
			}
			ch, width := b.span(entries)
			if width > widest {
				splitIdx, splitCh, widest = i, ch, width
			}
		}
		if splitIdx == -1 {
			break
		}

		b := boxes[splitIdx]
		region := entries[b.lo:b.hi]
		sort.Slice(region, func(i, j int) bool {
			a, c := region[i].c, region[j].c
			if va, vc := channelValue(a, splitCh), channelValue(c, splitCh); va != vc {
				return va < vc
			}
			if a.R != c.R {
				return a.R < c.R
			}
			if a.G != c.G {
				return a.G < c.G
			}
			return a.B < c.B
		})

		// Split at the weighted median, keeping both halves non-empty.
		var total uint64
		for _, e := range region {
			total += uint64(e.n)
		}
		var acc uint64
		mid := 0
		for i, e := range region {
			acc += uint64(e.n)
			if acc*2 >= total {
				mid = i + 1
				break
			}
		}
		if mid >= len(region) {
			// Keep the right half non-empty.
			mid = len(region) - 1
		}

		boxes[splitIdx] = colorBox{b.lo, b.lo + mid}
		boxes = append(boxes, colorBox{b.lo + mid, b.hi})
	}

	palette := make([]color.NRGBA, len(boxes))
	for i, b := range boxes {
		var rSum, gSum, bSum, n uint64
		for _, e := range entries[b.lo:b.hi] {
			rSum += uint64(e.c.R) * uint64(e.n)
			gSum += uint64(e.c.G) * uint64(e.n)
			bSum += uint64(e.c.B) * uint64(e.n)
			n += uint64(e.n)
		}
		palette[i] = color.NRGBA{
			R: uint8(rSum / n),
			G: uint8(gSum / n),
			B: uint8(bSum / n),
			A: 255,
		}
	}
	return palette
}

// sortByLuminance orders colors darkest to brightest, tie-breaking on
// raw RGB so equal-luminance colors still sort stably.
func sortByLuminance(palette []color.NRGBA) {
	sort.Slice(palette, func(i, j int) bool {
		if li, lj := luminance(palette[i]), luminance(palette[j]); li != lj {
			return li < lj
		}
		a, b := palette[i], palette[j]
		if a.R != b.R {
			return a.R < b.R
		}
		if a.G != b.G {
			return a.G < b.G
		}
		return a.B < b.B
	})
}

// luminance is the Rec. 709 luma of c in linear RGB.
func luminance(c color.NRGBA) float64 {
	col, _ := colorful.MakeColor(color.NRGBA{c.R, c.G, c.B, 255})
	r, g, b := col.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}
