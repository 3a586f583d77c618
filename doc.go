// Package dither reduces images to a constrained color palette using
// error-diffusion dithering.
//
// The package exposes two pieces: a palette builder and a ditherer.
// BuildPalette derives a fixed palette from an image with deterministic
// median cut, or validates an explicit color list. Dither (and
// DitherPaletted, for indexed output) maps every pixel to its nearest
// palette entry while diffusing the quantization error to neighboring
// pixels with a weighted kernel such as Floyd-Steinberg, optionally
// alternating scan direction per row.
//
// Both operations are pure functions of their inputs: identical inputs
// always produce byte-identical output, and no state is kept between
// calls. Error diffusion itself is inherently sequential (each pixel
// depends on previously scanned neighbors), so a single call runs on one
// goroutine, but calls for independent images can run concurrently.
package dither
