package dither

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
)

var bwPalette = []color.NRGBA{
	{0, 0, 0, 255},
	{255, 255, 255, 255},
}

func TestDitherPaletteMembership(t *testing.T) {
	img := gradientImage(24, 24)
	palette, err := BuildPalette(img, 6, nil)
	if err != nil {
		t.Fatal(err)
	}

	out, err := Dither(img, palette, FloydSteinberg, false)
	if err != nil {
		t.Fatal(err)
	}

	members := make(map[color.NRGBA]bool, len(palette))
	for _, p := range palette {
		members[color.NRGBA{p.R, p.G, p.B, 255}] = true
	}
	for y := 0; y < 24; y++ {
		for x := 0; x < 24; x++ {
			c := out.NRGBAAt(x, y)
			if !members[color.NRGBA{c.R, c.G, c.B, 255}] {
				t.Fatalf("pixel (%d,%d) = %v not in palette %v", x, y, c, palette)
			}
		}
	}
}

func TestDitherDeterminism(t *testing.T) {
	img := gradientImage(16, 16)
	for _, serpentine := range []bool{false, true} {
		a, err := Dither(img, bwPalette, FloydSteinberg, serpentine)
		if err != nil {
			t.Fatal(err)
		}
		b, err := Dither(img, bwPalette, FloydSteinberg, serpentine)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(a.Pix, b.Pix) {
			t.Errorf("serpentine=%v: repeated runs differ", serpentine)
		}
	}
}

func TestDitherUniformColor(t *testing.T) {
	// A uniform image dithered against a palette containing its exact
	// color must come back unchanged: zero quantization error means zero
	// diffusion.
	c := color.NRGBA{40, 90, 160, 255}
	img := uniformImage(12, 9, c)
	palette := []color.NRGBA{
		{0, 0, 0, 255},
		c,
		{255, 255, 255, 255},
	}

	out, err := Dither(img, palette, FloydSteinberg, false)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 9; y++ {
		for x := 0; x < 12; x++ {
			if got := out.NRGBAAt(x, y); got != c {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, c)
			}
		}
	}
}

func TestDitherMidGrayDensity(t *testing.T) {
	// Mid-gray against black and white must dither into a roughly even
	// mix, not collapse to the single nearest color.
	img := uniformImage(64, 64, color.NRGBA{128, 128, 128, 255})

	out, err := Dither(img, bwPalette, FloydSteinberg, false)
	if err != nil {
		t.Fatal(err)
	}

	var white int
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if out.NRGBAAt(x, y).R == 255 {
				white++
			}
		}
	}
	total := 64 * 64
	if white == 0 || white == total {
		t.Fatalf("output is uniform (%d/%d white), diffusion is not happening", white, total)
	}
	frac := float64(white) / float64(total)
	if frac < 0.35 || frac > 0.65 {
		t.Errorf("white fraction = %.3f, want roughly 0.5", frac)
	}
}

func TestDitherSerpentineChangesOutput(t *testing.T) {
	img := gradientImage(16, 8)
	raster, err := Dither(img, bwPalette, FloydSteinberg, false)
	if err != nil {
		t.Fatal(err)
	}
	serp, err := Dither(img, bwPalette, FloydSteinberg, true)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(raster.Pix, serp.Pix) {
		t.Error("serpentine scan produced identical output to raster scan")
	}
}

func TestDitherSinglePixel(t *testing.T) {
	img := uniformImage(1, 1, color.NRGBA{200, 10, 10, 255})
	out, err := Dither(img, bwPalette, FloydSteinberg, true)
	if err != nil {
		t.Fatal(err)
	}
	// (200,10,10) is nearer black than white.
	if got := out.NRGBAAt(0, 0); got != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("pixel = %v, want black", got)
	}
}

func TestDitherErrors(t *testing.T) {
	img := gradientImage(4, 4)
	tests := []struct {
		name    string
		img     image.Image
		palette []color.NRGBA
		matrix  ErrorDiffusionMatrix
		want    error
	}{
		{"empty palette", img, nil, FloydSteinberg, ErrEmptyPalette},
		{"empty matrix", img, bwPalette, ErrorDiffusionMatrix{}, ErrEmptyMatrix},
		{"empty matrix row", img, bwPalette, ErrorDiffusionMatrix{{}}, ErrEmptyMatrix},
		{"nil image", nil, bwPalette, FloydSteinberg, ErrDimensionMismatch},
		{"zero area", image.NewNRGBA(image.Rect(0, 0, 0, 0)), bwPalette, FloydSteinberg, ErrDimensionMismatch},
		{"zero height", image.NewNRGBA(image.Rect(0, 0, 3, 0)), bwPalette, FloydSteinberg, ErrDimensionMismatch},
	}
	for _, tt := range tests {
		if _, err := Dither(tt.img, tt.palette, tt.matrix, false); !errors.Is(err, tt.want) {
			t.Errorf("Dither %s: err = %v, want %v", tt.name, err, tt.want)
		}
		if _, err := DitherPaletted(tt.img, tt.palette, tt.matrix, false); !errors.Is(err, tt.want) {
			t.Errorf("DitherPaletted %s: err = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestDitherAlphaPassthrough(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{128, 128, 128, 77})
	img.SetNRGBA(1, 0, color.NRGBA{128, 128, 128, 255})

	out, err := Dither(img, bwPalette, FloydSteinberg, false)
	if err != nil {
		t.Fatal(err)
	}
	if a := out.NRGBAAt(0, 0).A; a != 77 {
		t.Errorf("alpha = %d, want 77", a)
	}
	if a := out.NRGBAAt(1, 0).A; a != 255 {
		t.Errorf("alpha = %d, want 255", a)
	}
}

func TestDitherPaletted(t *testing.T) {
	img := gradientImage(10, 10)
	palette, err := BuildPalette(img, 4, nil)
	if err != nil {
		t.Fatal(err)
	}

	paletted, err := DitherPaletted(img, palette, FloydSteinberg, true)
	if err != nil {
		t.Fatal(err)
	}
	full, err := Dither(img, palette, FloydSteinberg, true)
	if err != nil {
		t.Fatal(err)
	}

	// Both forms run the same pass, so the indexed image must agree with
	// the full-color one pixel for pixel.
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			idx := paletted.ColorIndexAt(x, y)
			if int(idx) >= len(palette) {
				t.Fatalf("index (%d,%d) = %d out of range", x, y, idx)
			}
			want := full.NRGBAAt(x, y)
			got := palette[idx]
			if got.R != want.R || got.G != want.G || got.B != want.B {
				t.Fatalf("pixel (%d,%d): paletted %v, full %v", x, y, got, want)
			}
		}
	}
}

func TestDitherPalettedTooLarge(t *testing.T) {
	big := make([]color.NRGBA, 257)
	for i := range big {
		big[i] = color.NRGBA{uint8(i), uint8(i / 2), uint8(i % 127), 255}
	}
	if _, err := DitherPaletted(gradientImage(2, 2), big, FloydSteinberg, false); err == nil {
		t.Error("expected error for palette over 256 entries")
	}
}

func TestDitherSubImageOffsetBounds(t *testing.T) {
	// Non-origin bounds must not change the result.
	base := gradientImage(20, 20)
	sub := base.SubImage(image.Rect(4, 4, 16, 16)).(*image.NRGBA)

	fromSub, err := Dither(sub, bwPalette, FloydSteinberg, false)
	if err != nil {
		t.Fatal(err)
	}

	crop := image.NewNRGBA(image.Rect(0, 0, 12, 12))
	for y := 0; y < 12; y++ {
		for x := 0; x < 12; x++ {
			crop.SetNRGBA(x, y, base.NRGBAAt(x+4, y+4))
		}
	}
	fromCrop, err := Dither(crop, bwPalette, FloydSteinberg, false)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(fromSub.Pix, fromCrop.Pix) {
		t.Error("sub-image input dithered differently than an equivalent copy")
	}
}
