package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Set at release build time with -ldflags
var (
	version = "v1.0.0"
	commit  = "unknown"
	builtBy = "unknown"
)

func newApp() *cli.App {
	return &cli.App{
		Name:      "dither",
		Usage:     "reduce images to a fixed color palette with error-diffusion dithering.",
		ArgsUsage: "[matrix]",
		Description: "dither quantizes images against a preset, explicit, or derived palette\n" +
			"and writes the result as PNG, GIF, or WebP -- optionally wrapped in an\n" +
			"animated container.\n\n" +
			"The optional argument selects the diffusion matrix by name (default\n" +
			"floyd-steinberg), or as inline JSON, or as a path to a JSON file.",
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "palette",
				Aliases:  []string{"p"},
				Required: true,
				Usage:    "preset name, explicit color list, 'auto', or 'sample'",
			},
			&cli.UintFlag{
				Name:    "colors",
				Aliases: []string{"n"},
				Value:   16,
				Usage:   "target color count for --palette auto",
			},
			&cli.BoolFlag{
				Name:    "serpentine",
				Aliases: []string{"s"},
				Usage:   "alternate scan direction per row",
			},
			&cli.StringFlag{
				Name:  "strength",
				Usage: "error diffusion strength, like 0.8 or 80%",
			},
			&cli.StringFlag{
				Name:    "recolor",
				Aliases: []string{"r"},
				Usage:   "substitute palette applied after dithering",
			},
			&cli.BoolFlag{
				Name:    "grayscale",
				Aliases: []string{"g"},
			},
			&cli.StringFlag{
				Name: "saturation",
			},
			&cli.StringFlag{
				Name: "brightness",
			},
			&cli.StringFlag{
				Name: "contrast",
			},
			&cli.BoolFlag{
				Name: "no-exif-rotation",
			},
			&cli.StringSliceFlag{
				Name:     "in",
				Aliases:  []string{"i"},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "out",
				Aliases:  []string{"o"},
				Required: true,
			},
			&cli.BoolFlag{
				Name: "no-overwrite",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "png",
				Usage:   "png, gif, or webp",
			},
			&cli.StringFlag{
				Name:    "compression",
				Aliases: []string{"c"},
				Value:   "default",
				Usage:   "PNG compression: default, no, speed, or size",
			},
			&cli.Float64Flag{
				Name:    "quality",
				Aliases: []string{"q"},
				Value:   75,
				Usage:   "WebP quality 0-100",
			},
			&cli.BoolFlag{
				Name:  "lossless",
				Usage: "lossless WebP encoding",
			},
			&cli.BoolFlag{
				Name:  "anim",
				Usage: "wrap output in an animated container, even for one frame",
			},
			&cli.Float64Flag{
				Name: "fps",
			},
			&cli.UintFlag{
				Name:    "loop",
				Aliases: []string{"l"},
			},
			&cli.UintFlag{
				Name:    "width",
				Aliases: []string{"x"},
			},
			&cli.UintFlag{
				Name:    "height",
				Aliases: []string{"y"},
			},
			&cli.UintFlag{
				Name:    "upscale",
				Aliases: []string{"u"},
				Value:   1,
			},
			&cli.BoolFlag{
				Name:    "version",
				Aliases: []string{"v"},
			},
		},
		Before: preProcess,
		Action: run,
	}
}

func main() {
	// Handle version flag
	if len(os.Args) == 2 && (os.Args[1] == "-v" || os.Args[1] == "--version") {
		fmt.Println("dither", version)
		fmt.Println("Commit:", commit)
		fmt.Println("Built by:", builtBy)
		return
	}

	err := newApp().Run(os.Args)
	if err != nil {
		if len(os.Args) == 1 {
			// Just ran the command with no flags
			return
		}
		fmt.Println(err)
		os.Exit(1)
	}
}
