package dither

import "errors"

// Errors returned by the palette builder and the ditherer. All of them
// indicate a caller mistake rather than a transient condition, so there
// is nothing to retry.
var (
	// ErrInvalidColorCount is returned by BuildPalette when the target
	// color count is less than one.
	ErrInvalidColorCount = errors.New("dither: target color count must be at least 1")

	// ErrInvalidPaletteEntry is returned by BuildPalette when an explicit
	// palette entry is malformed.
	ErrInvalidPaletteEntry = errors.New("dither: invalid palette entry")

	// ErrEmptyPalette is returned by Dither and DitherPaletted when the
	// palette has no entries.
	ErrEmptyPalette = errors.New("dither: palette is empty")

	// ErrDimensionMismatch is returned by Dither and DitherPaletted when
	// the image has a zero dimension.
	ErrDimensionMismatch = errors.New("dither: image has zero width or height")

	// ErrEmptyMatrix is returned by Dither and DitherPaletted when the
	// diffusion matrix has no rows or an empty first row.
	ErrEmptyMatrix = errors.New("dither: diffusion matrix is empty")

	// ErrUnknownPreset is returned by Preset for names with no registered
	// palette.
	ErrUnknownPreset = errors.New("dither: unknown palette preset")
)
