package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mccutchen/palettor"
	"github.com/urfave/cli/v2"
	"golang.org/x/image/colornames"

	"github.com/nikolaiwarner/dither"
)

// parsePercentArg takes a string like "0.5" or "50%" and will return a float
// like 50 or 0.5, depending on the second argument. An empty string returns 0.
//
// If `maxOne` is true, then "50%" will return 0.5. Otherwise it will return 50.
func parsePercentArg(arg string, maxOne bool) (float64, error) {
	if arg == "" {
		return 0, nil
	}
	if strings.HasSuffix(arg, "%") {
		arg = arg[:len(arg)-1]
		f64, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return 0, err
		}
		if maxOne {
			f64 /= 100.0
		}
		return f64, nil
	}
	f64, err := strconv.ParseFloat(arg, 64)
	if !maxOne {
		f64 *= 100.0
	}
	return f64, err
}

// parseArgs takes arguments and splits them using the provided split characters.
func parseArgs(args []string, splitRunes string) []string {
	finalArgs := make([]string, 0)
	for _, arg := range args {
		finalArgs = append(finalArgs, strings.FieldsFunc(arg, func(c rune) bool {
			for _, c2 := range splitRunes {
				if c == c2 {
					return true
				}
			}
			return false
		})...)
	}
	return finalArgs
}

func hexToColor(hex string) (color.NRGBA, error) {
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	c, err := colorful.Hex(strings.ToLower(hex))
	if err != nil {
		return color.NRGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.NRGBA{r, g, b, 255}, nil
}

func rgbToColor(s string) (color.NRGBA, error) {
	format := "%d,%d,%d"
	var r, g, b uint8
	n, err := fmt.Sscanf(s, format, &r, &g, &b)
	if err != nil {
		return color.NRGBA{}, err
	}
	if n != 3 {
		return color.NRGBA{}, fmt.Errorf("%s is not an RGB tuple", s)
	}
	return color.NRGBA{r, g, b, 255}, nil
}

func rgbaToColor(s string) (color.NRGBA, error) {
	format := "%d,%d,%d,%d"
	var r, g, b, a uint8
	n, err := fmt.Sscanf(s, format, &r, &g, &b, &a)
	if err != nil {
		return color.NRGBA{}, err
	}
	if n != 4 {
		return color.NRGBA{}, fmt.Errorf("%s is not an RGBA tuple", s)
	}
	// Parse as non-premult, as that's more user-friendly
	return color.NRGBA{r, g, b, a}, nil
}

// parsePalette resolves the --palette flag: a preset name, "auto" for a
// derived median cut palette, "sample" for k-means extraction from the
// first input, or an explicit color list.
func parsePalette(c *cli.Context) ([]color.NRGBA, error) {
	val := c.String("palette")
	args := parseArgs([]string{val}, " ")

	if len(args) == 1 {
		switch args[0] {
		case "auto":
			return buildInputPalette(c)
		case "sample":
			return sampleInputPalette(c)
		default:
			if preset, err := dither.Preset(args[0]); err == nil {
				return preset, nil
			}
		}
	}

	return parseColorList("palette", val)
}

// buildInputPalette derives a palette from the first input image using
// the deterministic median cut builder.
func buildInputPalette(c *cli.Context) ([]color.NRGBA, error) {
	img, err := getInputImage(inputImages[0], c)
	if err != nil {
		return nil, fmt.Errorf("error loading image for palette derivation '%s': %w", inputImages[0], err)
	}

	p, err := dither.BuildPalette(img, int(c.Uint("colors")), nil)
	if err != nil {
		return nil, err
	}
	log.Printf("Derived palette: %v", p)
	return p, nil
}

// sampleInputPalette extracts a 5-color palette from the first input image
// using palettor. Unlike "auto" this is k-means clustering, so repeated
// runs can give slightly different colors.
func sampleInputPalette(c *cli.Context) ([]color.NRGBA, error) {
	img, err := getInputImage(inputImages[0], c)
	if err != nil {
		return nil, fmt.Errorf("error loading image for palette extraction '%s': %w", inputImages[0], err)
	}

	// Resize: keep palettor.Extract fast. See the palettor CLI source:
	// https://github.com/mccutchen/palettor/blob/3eaed180/cmd/palettor/palettor.go#L57
	thumbnail := imaging.Resize(img, 200, 200, imaging.NearestNeighbor)

	extracted, err := palettor.Extract(5, 500, thumbnail)
	if err != nil {
		return nil, fmt.Errorf("error extracting image palette: %w", err)
	}

	p, err := dither.BuildPalette(nil, 0, extracted.Colors())
	if err != nil {
		return nil, err
	}

	// palettor returns clusters in no particular order. Sort darkest to
	// brightest so palette indices are stable for the same extraction.
	sort.Slice(p, func(i, j int) bool {
		return luminance(p[i]) < luminance(p[j])
	})
	log.Printf("Extracted palette: %v", p)
	return p, nil
}

func luminance(c color.NRGBA) float64 {
	col, _ := colorful.MakeColor(color.NRGBA{c.R, c.G, c.B, 255})
	r, g, b := col.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// parseColorList turns a color list argument into a palette. Each entry
// can be an RGB tuple, a hex code, a number 0-255 for gray, or an SVG
// color name. The recolor flag additionally allows RGBA tuples.
func parseColorList(flag, val string) ([]color.NRGBA, error) {
	args := parseArgs([]string{val}, " ")
	colors := make([]color.NRGBA, len(args))

	for i, arg := range args {
		if strings.Count(arg, ",") == 2 {
			rgbColor, err := rgbToColor(arg)
			if err != nil {
				return nil, fmt.Errorf("%s: %s is not a valid RGB tuple. Example: 25,200,150", flag, arg)
			}
			colors[i] = rgbColor
			continue
		}

		if flag == "recolor" && strings.Count(arg, ",") == 3 {
			rgbaColor, err := rgbaToColor(arg)
			if err != nil {
				return nil, fmt.Errorf("%s: %s is not a valid RGBA tuple. Example: 25,200,150,100", flag, arg)
			}
			colors[i] = rgbaColor
			continue
		}

		// Only short numbers are gray values. Longer all-digit args
		// like 204080 are hex codes and fall through below.
		n, err := strconv.Atoi(arg)
		if err == nil && len(arg) <= 3 {
			if n > 255 || n < 0 {
				return nil, fmt.Errorf("%s: single numbers like %d must be in the range 0-255", flag, n)
			}
			colors[i] = color.NRGBA{uint8(n), uint8(n), uint8(n), 255}
			continue
		}

		hexColor, err := hexToColor(arg)
		if err == nil {
			colors[i] = hexColor
			continue
		}

		htmlColor, ok := colornames.Map[strings.ToLower(arg)]
		if ok {
			colors[i] = color.NRGBAModel.Convert(htmlColor).(color.NRGBA)
			continue
		}

		return nil, fmt.Errorf("%s: %s not recognized as an RGB tuple, hex code, number 0-255, or SVG color name", flag, arg)
	}

	return colors, nil
}

// getInputImage takes an input image arg and returns an image that has
// modifications applied.
func getInputImage(arg string, c *cli.Context) (image.Image, error) {
	var img image.Image
	var err error

	if arg == "-" {
		img, err = imaging.Decode(os.Stdin, autoOrientation)
	} else {
		img, err = imaging.Open(arg, autoOrientation)
	}
	if err != nil {
		return nil, err
	}

	if width != 0 || height != 0 {
		// Box sampling is quick and fast, and better then others at downscaling
		// Downscaling will be a much more common use case for pre-dither scaling
		// then upscaling
		// https://pkg.go.dev/github.com/disintegration/imaging#ResampleFilter
		// https://en.wikipedia.org/wiki/Image_scaling#Box_sampling
		img = imaging.Resize(img, width, height, imaging.Box)
	}

	if grayscale {
		img = imaging.Grayscale(img)
	}
	if saturation != 0 {
		img = imaging.AdjustSaturation(img, saturation)
	}
	if contrast != 0 {
		img = imaging.AdjustContrast(img, contrast)
	}
	if brightness != 0 {
		img = imaging.AdjustBrightness(img, brightness)
	}

	return img, nil
}

func copyImage(dst draw.Image, src image.Image) {
	draw.Draw(dst, src.Bounds(), src, src.Bounds().Min, draw.Src)
}

// recolor swaps each dither palette color for its recolor counterpart.
// It should only be given a dithered image. Since the ditherer's output
// indices line up with the palette, paletted images just swap their
// palette entries.
//
// If the input image is *image.Paletted, the output will always be of that type too.
func recolor(src image.Image) image.Image {
	if len(recolorPalette) == 0 {
		return src
	}

	// Fast path for paletted images: indices already match the palette.
	if p, ok := src.(*image.Paletted); ok {
		for i := range p.Palette {
			if i < len(recolorPalette) {
				p.Palette[i] = recolorPalette[i]
			}
		}
		return p
	}

	// getRecolor takes a dithered color and returns the recolor one
	getRecolor := func(a color.Color) color.Color {
		c := color.NRGBAModel.Convert(a).(color.NRGBA)
		for i := range palette {
			pc := palette[i]
			if pc.R == c.R && pc.G == c.G && pc.B == c.B {
				// Colors match. Alpha is ignored because palette colors aren't
				// allowed alpha, so theirs will always be 255. While the image
				// might have a different alpha at that point
				return recolorPalette[i]
			}
		}
		// This should never happen
		return recolorPalette[0]
	}

	var img draw.Image
	var ok bool
	if img, ok = src.(draw.Image); !ok {
		// Can't be changed
		// Instead make a copy and recolor and return that
		cp := image.NewRGBA(src.Bounds())
		copyImage(cp, src)
		img = cp
	}

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.Set(x, y, getRecolor(img.At(x, y)))
		}
	}
	return img
}

// postProcImage post-processes the image, applying recolor and upscaling.
//
// If the input image is *image.Paletted, the output will always be of that type too.
func postProcImage(img image.Image) image.Image {
	img = recolor(img)

	if upscale == 1 {
		return img
	}

	var pal color.Palette
	if p, ok := img.(*image.Paletted); ok {
		pal = p.Palette
	}

	img = imaging.Resize(
		img,
		img.Bounds().Dx()*upscale,
		0,
		imaging.NearestNeighbor,
	)

	if len(pal) == 0 {
		return img
	}

	pi := image.NewPaletted(img.Bounds(), pal)
	copyImage(pi, img)
	return pi
}
