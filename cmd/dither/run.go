package main

import (
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/nikolaiwarner/dither"
)

var matrixName = map[string]dither.ErrorDiffusionMatrix{
	"simple2d":            dither.Simple2D,
	"floydsteinberg":      dither.FloydSteinberg,
	"falsefloydsteinberg": dither.FalseFloydSteinberg,
	"jarvisjudiceninke":   dither.JarvisJudiceNinke,
	"atkinson":            dither.Atkinson,
	"stucki":              dither.Stucki,
	"burkes":              dither.Burkes,
	"sierra":              dither.Sierra,
	"tworowsierra":        dither.TwoRowSierra,
	"sierralite":          dither.SierraLite,
}

// resolveMatrix turns the positional argument into a diffusion matrix:
// a known name (case and hyphen insensitive), inline JSON, or a path to
// a JSON file. An empty argument means Floyd-Steinberg.
func resolveMatrix(arg string) (dither.ErrorDiffusionMatrix, error) {
	if arg == "" {
		return dither.FloydSteinberg, nil
	}

	matrix, ok := matrixName[strings.ReplaceAll(strings.ToLower(arg), "-", "")]
	if ok {
		return matrix, nil
	}

	// Either inline JSON, path to file, or an error
	err := json.Unmarshal([]byte(arg), &matrix)
	if err != nil {
		bytes, err := os.ReadFile(arg)
		if err != nil {
			return nil, errors.New("couldn't process argument as matrix name, inline JSON, or path to accessible JSON file")
		}
		err = json.Unmarshal(bytes, &matrix)
		if err != nil {
			return nil, errors.New("couldn't process argument as matrix name, inline JSON, or path to accessible JSON file")
		}
	}

	// Validate matrix

	if len(matrix) == 0 {
		return nil, errors.New("matrix is empty")
	}
	// Is it rectangular?
	width := len(matrix[0])
	if width == 0 {
		return nil, errors.New("matrix has empty row")
	}
	for _, row := range matrix {
		if len(row) != width {
			return nil, errors.New("matrix is not rectangular, all rows must be the same length")
		}
	}
	// Weights left of the scan position would spill error onto finalized
	// pixels.
	for col := 0; col <= matrix.CurrentPixel(); col++ {
		if matrix[0][col] != 0 {
			return nil, errors.New("matrix weights at or before the current pixel must be zero")
		}
	}

	return matrix, nil
}

func run(c *cli.Context) error {
	args := c.Args().Slice()
	if len(args) > 1 {
		return errors.New("only one matrix argument is accepted")
	}

	var arg string
	if len(args) == 1 {
		arg = args[0]
	}

	matrix, err := resolveMatrix(arg)
	if err != nil {
		return err
	}
	if strength != 1 {
		matrix = dither.ErrorDiffusionStrength(matrix, strength)
	}

	return processImages(matrix, c)
}
