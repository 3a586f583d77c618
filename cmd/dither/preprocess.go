package main

import (
	"errors"
	"fmt"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/urfave/cli/v2"
)

const (
	unsupportedFormat string = "'%s' is an unsupported format, only 'png', 'gif' or 'webp' are accepted"
)

var (
	// palette stores the dithering palette. It's set after pre-processing.
	palette []color.NRGBA

	// recolorPalette stores the substitute output palette, same length as
	// palette. Empty when --recolor isn't used.
	recolorPalette []color.NRGBA

	grayscale bool

	// Range -100,100

	saturation float64
	brightness float64
	contrast   float64

	autoOrientation imaging.DecodeOption

	inputImages []string
	outFormat   string // "png", "gif" or "webp"
	outIsDir    bool

	compLevel png.CompressionLevel

	webpQuality  float32
	webpLossless bool

	outFileFlags int // For os.OpenFile

	width  int
	height int
	// upscale will always be 1 or above
	upscale int

	serpentine bool

	// range [-1, 1]
	strength float32

	// Is post-processing needed?
	postProcNeeded bool
)

// preProcess is automatically called by the app before the action. It
// validates the global flags and fills in the package-level state.
func preProcess(c *cli.Context) error {
	var err error

	saturation, err = parsePercentArg(c.String("saturation"), false)
	if err != nil {
		return fmt.Errorf("saturation: %w", err)
	}
	if saturation <= -100 {
		grayscale = true
		saturation = 0
	}
	brightness, err = parsePercentArg(c.String("brightness"), false)
	if err != nil {
		return fmt.Errorf("brightness: %w", err)
	}
	contrast, err = parsePercentArg(c.String("contrast"), false)
	if err != nil {
		return fmt.Errorf("contrast: %w", err)
	}

	autoOrientation = imaging.AutoOrientation(!c.Bool("no-exif-rotation"))

	inputImages = make([]string, 0)
	for _, path := range c.StringSlice("in") {
		if strings.Contains(path, "*") {
			// Parse as glob
			paths, err := filepath.Glob(path)
			if err != nil {
				return fmt.Errorf("bad glob pattern '%s': %w", path, err)
			}
			inputImages = append(inputImages, paths...)
		} else {
			inputImages = append(inputImages, path)
		}
	}
	if len(inputImages) == 0 {
		return errors.New("no input images")
	}

	// Set early, the palette flag may need to load an input image.
	width = int(c.Uint("width"))
	height = int(c.Uint("height"))
	upscale = int(c.Uint("upscale"))
	if upscale == 0 {
		// Invalid
		upscale = 1
	}

	// Resolved before the palette: "auto" and "sample" load an input
	// image, which must see the same grayscale conversion as the dither.
	if c.Bool("grayscale") {
		grayscale = true
	}

	palette, err = parsePalette(c)
	if err != nil {
		return err
	}
	if len(palette) < 2 {
		return errors.New("the palette must have at least two colors")
	}

	if c.String("recolor") != "" {
		recolorPalette, err = parseColorList("recolor", c.String("recolor"))
		if err != nil {
			return err
		}
		if len(recolorPalette) != len(palette) {
			return errors.New("recolor palette must have the same number of colors as the initial palette")
		}
	}

	// A fully gray palette implies grayscale conversion
	if !grayscale {
		grayscale = true
		for _, pc := range palette {
			if pc.R != pc.G || pc.G != pc.B {
				grayscale = false
				break
			}
		}
	}

	serpentine = c.Bool("serpentine")

	formatVal := c.String("format")
	if formatVal != "png" && formatVal != "gif" && formatVal != "webp" {
		return fmt.Errorf(unsupportedFormat, formatVal)
	}

	// Figure out output format

	outVal := c.String("out")

	if outVal == "-" {
		// Outputting to stdout, so just use whatever the flag is
		outFormat = formatVal
	} else {
		// Outputting to dir or file

		outFI, err := os.Stat(outVal)

		if err == nil && outFI.IsDir() {
			// Exists and is a directory
			// Just use what the flag is
			outFormat = formatVal
			outIsDir = true

		} else {
			// Outputting to file, that already exists
			// Or something that doesn't exist - assumed to be a file

			if !c.IsSet("format") {
				// Format wasn't set, so ignore default value of "png"
				// Try to figure out format from output filename
				ext := strings.TrimPrefix(filepath.Ext(outVal), ".")
				switch ext {
				case "png", "gif", "webp":
					outFormat = ext
				case "":
					// No extension, use default format
					outFormat = "png"
				default:
					// Unsupported extension and no format flag override
					return fmt.Errorf(unsupportedFormat, ext)
				}
			} else {
				// Format flag was set, so ignore what the file looks like
				outFormat = formatVal
			}
		}

	}

	// Multiple input images become an animation (GIF or WebP), or separate
	// files inside an output directory.
	if len(inputImages) > 1 && outFormat == "png" && !outIsDir {
		return errors.New("multiple input images need a GIF or WebP output, or an existing directory")
	}
	if c.Bool("anim") && outFormat == "png" {
		return errors.New("--anim needs a GIF or WebP output format")
	}
	if c.Bool("anim") && outIsDir {
		return errors.New("--anim output must be a single file, not a directory")
	}
	if outFormat == "gif" && len(palette) > 256 {
		return errors.New("the GIF format only supports 256 colors or less in the palette")
	}

	// Set PNG compression type

	switch c.String("compression") {
	case "default":
		compLevel = png.DefaultCompression
	case "no":
		compLevel = png.NoCompression
	case "speed":
		compLevel = png.BestSpeed
	case "size":
		compLevel = png.BestCompression
	default:
		return fmt.Errorf("invalid compression type '%s'", c.String("compression"))
	}

	webpQuality = float32(c.Float64("quality"))
	if webpQuality < 0 || webpQuality > 100 {
		return fmt.Errorf("quality must be in the range 0-100, got %v", webpQuality)
	}
	webpLossless = c.Bool("lossless")

	if c.Bool("no-overwrite") {
		outFileFlags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	} else {
		outFileFlags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}

	tmp, err := parsePercentArg(c.String("strength"), true)
	if err != nil {
		return fmt.Errorf("strength: %w", err)
	}
	strength = float32(tmp)
	if strength == 0 {
		// Ignore
		strength = 1
	}

	if len(recolorPalette) != 0 || upscale > 1 {
		postProcNeeded = true
	}

	return nil
}
