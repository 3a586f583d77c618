package dither

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// Dither maps every pixel of img onto the nearest palette entry while
// diffusing the quantization error to not-yet-processed neighbors
// according to matrix. With serpentine set, rows alternate scan
// direction (even rows left to right) and the matrix is mirrored
// horizontally on right-to-left rows so diffusion stays ahead of the
// scan; this changes the exact output, not just its look.
//
// Working colors and error terms are float32. The working color is the
// source pixel plus its accumulated error, clamped once to [0, 255] and
// truncated to integer channels for the palette comparison. Nearest is
// squared Euclidean distance over RGB, ties going to the lowest palette
// index. Alpha is copied from the source pixel. Error diffused past the
// image boundary is dropped, not redistributed.
//
// Dither is deterministic and keeps no state across calls.
func Dither(img image.Image, palette []color.NRGBA, matrix ErrorDiffusionMatrix, serpentine bool) (*image.NRGBA, error) {
	if err := checkDitherArgs(img, palette, matrix); err != nil {
		return nil, err
	}

	src := toNRGBA(img)
	indices := diffuse(src, palette, matrix, serpentine)

	w, h := src.Rect.Dx(), src.Rect.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i, pi := range indices {
		p := palette[pi]
		off := i * 4
		out.Pix[off+0] = p.R
		out.Pix[off+1] = p.G
		out.Pix[off+2] = p.B
		out.Pix[off+3] = src.Pix[off+3] // alpha passes through
	}
	return out, nil
}

// DitherPaletted is Dither for indexed output: it runs the same
// diffusion pass but returns an *image.Paletted over the given palette,
// which indexed encoders like image/gif use as-is. The palette must fit
// in 256 entries. Alpha is not representable in the indexed form and is
// dropped.
func DitherPaletted(img image.Image, palette []color.NRGBA, matrix ErrorDiffusionMatrix, serpentine bool) (*image.Paletted, error) {
	if err := checkDitherArgs(img, palette, matrix); err != nil {
		return nil, err
	}
	if len(palette) > 256 {
		return nil, fmt.Errorf("dither: palette has %d entries, indexed output allows at most 256", len(palette))
	}

	src := toNRGBA(img)
	indices := diffuse(src, palette, matrix, serpentine)

	cp := make(color.Palette, len(palette))
	for i, p := range palette {
		cp[i] = p
	}
	out := image.NewPaletted(image.Rect(0, 0, src.Rect.Dx(), src.Rect.Dy()), cp)
	for i, pi := range indices {
		out.Pix[i] = uint8(pi)
	}
	return out, nil
}

func checkDitherArgs(img image.Image, palette []color.NRGBA, matrix ErrorDiffusionMatrix) error {
	if len(palette) == 0 {
		return ErrEmptyPalette
	}
	if len(matrix) == 0 || len(matrix[0]) == 0 {
		return ErrEmptyMatrix
	}
	if img == nil || img.Bounds().Dx() <= 0 || img.Bounds().Dy() <= 0 {
		return ErrDimensionMismatch
	}
	return nil
}

// diffuse is the sequential error diffusion pass. It returns the chosen
// palette index per pixel in row-major order. The error accumulator
// lives only for this call; its values may exceed the byte range until
// the single clamp when a pixel is finalized.
func diffuse(src *image.NRGBA, palette []color.NRGBA, matrix ErrorDiffusionMatrix, serpentine bool) []int {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	cur := matrix.CurrentPixel()

	acc := make([]float32, w*h*3)
	indices := make([]int, w*h)

	for y := 0; y < h; y++ {
		dir := 1
		if serpentine && y%2 == 1 {
			dir = -1
		}

		for step := 0; step < w; step++ {
			x := step
			if dir == -1 {
				x = w - 1 - step
			}
			i := y*w + x

			// Working color: source plus accumulated error, clamped once.
			var work [3]float32
			for ch := 0; ch < 3; ch++ {
				v := float32(src.Pix[i*4+ch]) + acc[i*3+ch]
				if v < 0 {
					v = 0
				} else if v > 255 {
					v = 255
				}
				work[ch] = v
			}

			// Truncate for the palette comparison only.
			wr, wg, wb := int(work[0]), int(work[1]), int(work[2])
			best, bestDist := 0, 1<<30
			for pi, p := range palette {
				dr := wr - int(p.R)
				dg := wg - int(p.G)
				db := wb - int(p.B)
				// Strict less keeps the lowest index among ties.
				if d := dr*dr + dg*dg + db*db; d < bestDist {
					best, bestDist = pi, d
				}
			}
			indices[i] = best

			chosen := palette[best]
			er := work[0] - float32(chosen.R)
			eg := work[1] - float32(chosen.G)
			eb := work[2] - float32(chosen.B)

			for row := range matrix {
				for col, wgt := range matrix[row] {
					if wgt == 0 {
						continue
					}
					if row == 0 && col <= cur {
						// Finalized pixels never receive error.
						continue
					}
					nx := x + (col-cur)*dir
					ny := y + row
					if nx < 0 || nx >= w || ny >= h {
						// Out-of-bounds contributions are dropped.
						continue
					}
					j := (ny*w + nx) * 3
					acc[j+0] += er * wgt
					acc[j+1] += eg * wgt
					acc[j+2] += eb * wgt
				}
			}
		}
	}
	return indices
}

// toNRGBA returns img as an *image.NRGBA with bounds anchored at the
// origin, copying only when necessary.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) && n.Stride == n.Rect.Dx()*4 {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	return dst
}
