package dither

import (
	"fmt"
	"image/color"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// presets maps a preset name to its ordered hex color list. Order
// matters: it fixes palette indices and nearest-color tie-breaking.
var presets = map[string][]string{
	// 1-bit black and white.
	"bw": {"#000000", "#ffffff"},

	// 2-bit grayscale ramp.
	"gray4": {"#000000", "#555555", "#aaaaaa", "#ffffff"},

	// Original Game Boy greens, darkest first.
	"gameboy": {"#0f380f", "#306230", "#8bac0f", "#9bbc0f"},

	// CGA palette 1, high intensity.
	"cga": {"#000000", "#55ffff", "#ff55ff", "#ffffff"},

	// Commodore 64 (Pepto).
	"c64": {
		"#000000", "#626262", "#898989", "#adadad", "#ffffff",
		"#9f4e44", "#cb7e75", "#6d5412", "#a1683c", "#c9d487",
		"#9ae29b", "#5cab5e", "#6abfc6", "#887ecb", "#50459b",
		"#a057a3",
	},

	// Four-color e-ink displays (black/white/yellow/red).
	"eink4": {"#000000", "#ffffff", "#ffff00", "#ff0000"},
}

// Preset returns the named fixed palette. Names are looked up as-is; an
// unrecognized name returns ErrUnknownPreset.
func Preset(name string) ([]color.NRGBA, error) {
	hexes, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	palette := make([]color.NRGBA, len(hexes))
	for i, hex := range hexes {
		c, err := colorful.Hex(hex)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPaletteEntry, hex, err)
		}
		r, g, b := c.RGB255()
		palette[i] = color.NRGBA{r, g, b, 255}
	}
	return palette, nil
}

// PresetNames lists the available preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
