package dither

// ErrorDiffusionMatrix holds the weights for an error diffusion kernel.
// The rows are scanlines: the first row is the one being processed, and
// the current pixel sits in the middle of it. Weights at or before the
// current pixel in the first row must be zero, since those pixels are
// already finalized. For the classic kernels the weights sum to 1, which
// diffuses the full quantization error.
type ErrorDiffusionMatrix [][]float32

// Predefined error diffusion matrices.
var (
	Simple2D = ErrorDiffusionMatrix{
		{0, 0, 1.0 / 2},
		{0, 1.0 / 2, 0},
	}

	FloydSteinberg = ErrorDiffusionMatrix{
		{0, 0, 7.0 / 16},
		{3.0 / 16, 5.0 / 16, 1.0 / 16},
	}

	FalseFloydSteinberg = ErrorDiffusionMatrix{
		{0, 0, 3.0 / 8},
		{0, 3.0 / 8, 2.0 / 8},
	}

	JarvisJudiceNinke = ErrorDiffusionMatrix{
		{0, 0, 0, 7.0 / 48, 5.0 / 48},
		{3.0 / 48, 5.0 / 48, 7.0 / 48, 5.0 / 48, 3.0 / 48},
		{1.0 / 48, 3.0 / 48, 5.0 / 48, 3.0 / 48, 1.0 / 48},
	}

	Atkinson = ErrorDiffusionMatrix{
		{0, 0, 0, 1.0 / 8, 1.0 / 8},
		{0, 1.0 / 8, 1.0 / 8, 1.0 / 8, 0},
		{0, 0, 1.0 / 8, 0, 0},
	}

	Stucki = ErrorDiffusionMatrix{
		{0, 0, 0, 8.0 / 42, 4.0 / 42},
		{2.0 / 42, 4.0 / 42, 8.0 / 42, 4.0 / 42, 2.0 / 42},
		{1.0 / 42, 2.0 / 42, 4.0 / 42, 2.0 / 42, 1.0 / 42},
	}

	Burkes = ErrorDiffusionMatrix{
		{0, 0, 0, 8.0 / 32, 4.0 / 32},
		{2.0 / 32, 4.0 / 32, 8.0 / 32, 4.0 / 32, 2.0 / 32},
	}

	Sierra = ErrorDiffusionMatrix{
		{0, 0, 0, 5.0 / 32, 3.0 / 32},
		{2.0 / 32, 4.0 / 32, 5.0 / 32, 4.0 / 32, 2.0 / 32},
		{0, 2.0 / 32, 3.0 / 32, 2.0 / 32, 0},
	}

	TwoRowSierra = ErrorDiffusionMatrix{
		{0, 0, 0, 4.0 / 16, 3.0 / 16},
		{1.0 / 16, 2.0 / 16, 3.0 / 16, 2.0 / 16, 1.0 / 16},
	}

	SierraLite = ErrorDiffusionMatrix{
		{0, 0, 2.0 / 4},
		{1.0 / 4, 1.0 / 4, 0},
	}
)

// CurrentPixel returns the column of the current pixel within the first
// row of the matrix.
func (m ErrorDiffusionMatrix) CurrentPixel() int {
	return len(m[0]) / 2
}

// ErrorDiffusionStrength returns a copy of m with every weight scaled by
// strength. A strength of 1.0 leaves the matrix unchanged; lower values
// diffuse only part of the quantization error, reducing the dithering
// effect without touching the nearest-color mapping.
func ErrorDiffusionStrength(m ErrorDiffusionMatrix, strength float32) ErrorDiffusionMatrix {
	scaled := make(ErrorDiffusionMatrix, len(m))
	for i, row := range m {
		scaled[i] = make([]float32, len(row))
		for j, w := range row {
			scaled[i][j] = w * strength
		}
	}
	return scaled
}
