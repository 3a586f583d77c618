package main

import (
	"image"
	"image/color"
)

// fixedPaletteQuantizer implements draw.Quantizer. It ignores the
// provided image and just returns the configured palette each time. The
// image/gif encoder only accepts a palette through a draw.Quantizer, and
// the dithered frames already use exactly this palette, so the encoder
// keeps them as-is.
type fixedPaletteQuantizer struct {
	p []color.NRGBA
}

func (fq *fixedPaletteQuantizer) Quantize(p color.Palette, m image.Image) color.Palette {
	out := make(color.Palette, len(fq.p))
	for i, c := range fq.p {
		out[i] = c
	}
	return out
}
