package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/deepteams/webp"
	"github.com/deepteams/webp/animation"
	"github.com/urfave/cli/v2"

	"github.com/nikolaiwarner/dither"
)

// countingWriter tracks how many bytes pass through, so the resulting
// size can be reported for any destination, stdout included.
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// outputPalette is the palette of the written image: the recolor palette
// when set, the dither palette otherwise.
func outputPalette() []color.NRGBA {
	if len(recolorPalette) != 0 {
		return recolorPalette
	}
	return palette
}

// openOutput opens the destination for one input image. For a directory
// destination the file keeps the input's name with the output format's
// extension. "-" means stdout.
func openOutput(outPath, inputPath string) (io.WriteCloser, string, error) {
	if outPath == "-" {
		return os.Stdout, "stdout", nil
	}

	path := outPath
	if outIsDir {
		// Inside output directory
		// Same name as input file but potentially different extension
		path = filepath.Join(
			outPath,
			strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))+"."+outFormat,
		)
	}

	file, err := os.OpenFile(path, outFileFlags, 0644)
	if err != nil {
		return nil, "", fmt.Errorf("'%s': %w", path, err)
	}
	return file, path, nil
}

// frameDuration returns the display time of one animation frame.
func frameDuration(c *cli.Context) (time.Duration, error) {
	if !c.IsSet("fps") {
		if len(inputImages) > 1 {
			return 0, errors.New("output will be animated, but --fps flag is not set")
		}
		// Single wrapped frame, the duration barely matters.
		return time.Second, nil
	}
	fps := c.Float64("fps")
	if fps <= 0 {
		return 0, errors.New("fps must be above zero")
	}
	return time.Duration(float64(time.Second) / fps), nil
}

// processImages dithers all the input images and writes them.
// It handles all image I/O.
func processImages(matrix dither.ErrorDiffusionMatrix, c *cli.Context) error {
	outPath := c.String("out")

	isAnim := (c.Bool("anim") || len(inputImages) > 1) && !outIsDir &&
		(outFormat == "gif" || outFormat == "webp")
	if isAnim {
		return writeAnimation(matrix, c, outPath)
	}

	for _, inputPath := range inputImages {
		img, err := getInputImage(inputPath, c)
		if err != nil {
			return fmt.Errorf("error loading '%s': %w", inputPath, err)
		}

		file, path, err := openOutput(outPath, inputPath)
		if err != nil {
			return err
		}
		cw := &countingWriter{w: file}

		switch outFormat {
		case "png":
			out, err := dither.Dither(img, palette, matrix, serpentine)
			if err != nil {
				file.Close()
				return err
			}
			err = (&png.Encoder{CompressionLevel: compLevel}).Encode(cw, postProcImage(out))
			if err != nil {
				defer file.Close() // Keep (possibly stdout) open to write error messages then close
				return fmt.Errorf("error writing PNG to '%s': %w", path, err)
			}
		case "gif":
			out, err := dither.DitherPaletted(img, palette, matrix, serpentine)
			if err != nil {
				file.Close()
				return err
			}
			op := outputPalette()
			err = gif.Encode(cw, postProcImage(out), &gif.Options{
				NumColors: len(op),
				Quantizer: &fixedPaletteQuantizer{op},
			})
			if err != nil {
				defer file.Close()
				return fmt.Errorf("error writing GIF to '%s': %w", path, err)
			}
		case "webp":
			out, err := dither.Dither(img, palette, matrix, serpentine)
			if err != nil {
				file.Close()
				return err
			}
			err = webp.Encode(cw, postProcImage(out), &webp.EncoderOptions{
				Lossless: webpLossless,
				Quality:  webpQuality,
				Method:   4,
			})
			if err != nil {
				defer file.Close()
				return fmt.Errorf("error writing WebP to '%s': %w", path, err)
			}
		}

		file.Close()
		log.Printf("wrote %s (%d bytes)", path, cw.n)
	}

	return nil
}

// writeAnimation writes all input images as frames of one animated GIF
// or WebP. A single input with --anim becomes a single-frame animation.
func writeAnimation(matrix dither.ErrorDiffusionMatrix, c *cli.Context, outPath string) error {
	duration, err := frameDuration(c)
	if err != nil {
		return err
	}

	file, path, err := openOutput(outPath, "")
	if err != nil {
		return err
	}
	cw := &countingWriter{w: file}

	if outFormat == "gif" {
		err = writeAnimatedGIF(matrix, c, cw, duration)
	} else {
		err = writeAnimatedWebP(matrix, c, cw, duration)
	}
	if err != nil {
		defer file.Close()
		return fmt.Errorf("error writing animation to '%s': %w", path, err)
	}

	file.Close()
	log.Printf("wrote %s (%d bytes)", path, cw.n)
	return nil
}

func writeAnimatedGIF(matrix dither.ErrorDiffusionMatrix, c *cli.Context, w io.Writer, duration time.Duration) error {
	// Round to the nearest possible frame rate supported by the GIF format
	// See for details: https://superuser.com/a/1449370
	//
	// Lowest allowed delay is 1, or 100 FPS.
	delay := int(math.Max(math.Round(duration.Seconds()*100), 1))

	frames := make([]*image.Paletted, len(inputImages))
	delays := make([]int, len(inputImages))

	for i, inputPath := range inputImages {
		img, err := getInputImage(inputPath, c)
		if err != nil {
			return fmt.Errorf("error loading '%s': %w", inputPath, err)
		}
		frame, err := dither.DitherPaletted(img, palette, matrix, serpentine)
		if err != nil {
			return err
		}
		frames[i] = postProcImage(frame).(*image.Paletted)
		delays[i] = delay

		if !frames[i].Bounds().Eq(frames[0].Bounds()) {
			return fmt.Errorf(
				"image '%s' isn't the same size as '%s', all sizes must match to create an animation",
				inputPath, inputImages[0],
			)
		}
	}

	loopCount := int(c.Uint("loop"))
	if loopCount == 1 {
		// Looping once is set using -1 in the image/gif library
		loopCount = -1
	} else if loopCount != 0 {
		// The CLI flag is equal to the number of times looped
		// But for gif.GIF.LoopCount, "the animation is looped LoopCount+1 times."
		loopCount -= 1
	}

	op := make(color.Palette, len(outputPalette()))
	for i, pc := range outputPalette() {
		op[i] = pc
	}

	return gif.EncodeAll(w, &gif.GIF{
		Image:     frames,
		Delay:     delays,
		LoopCount: loopCount,
		Config: image.Config{
			ColorModel: op,
			Width:      frames[0].Bounds().Dx(),
			Height:     frames[0].Bounds().Dy(),
		},
	})
}

func writeAnimatedWebP(matrix dither.ErrorDiffusionMatrix, c *cli.Context, w io.Writer, duration time.Duration) error {
	var enc *animation.AnimEncoder
	var canvas image.Rectangle

	for i, inputPath := range inputImages {
		img, err := getInputImage(inputPath, c)
		if err != nil {
			return fmt.Errorf("error loading '%s': %w", inputPath, err)
		}
		out, err := dither.Dither(img, palette, matrix, serpentine)
		if err != nil {
			return err
		}
		frame := postProcImage(out)

		if i == 0 {
			canvas = image.Rect(0, 0, frame.Bounds().Dx(), frame.Bounds().Dy())
			enc = animation.NewEncoder(w, canvas.Dx(), canvas.Dy(), &animation.EncodeOptions{
				LoopCount: int(c.Uint("loop")),
				Quality:   int(webpQuality),
				Lossless:  webpLossless,
			})
		} else if frame.Bounds().Dx() != canvas.Dx() || frame.Bounds().Dy() != canvas.Dy() {
			return fmt.Errorf(
				"image '%s' isn't the same size as '%s', all sizes must match to create an animation",
				inputPath, inputImages[0],
			)
		}

		if err := enc.AddFrame(frame, duration); err != nil {
			return fmt.Errorf("error adding frame '%s': %w", inputPath, err)
		}
	}

	return enc.Close()
}
