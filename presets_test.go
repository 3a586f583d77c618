package dither

import (
	"errors"
	"image/color"
	"reflect"
	"sort"
	"testing"
)

func TestPreset(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"bw", 2},
		{"gray4", 4},
		{"gameboy", 4},
		{"cga", 4},
		{"c64", 16},
		{"eink4", 4},
	}
	for _, tt := range tests {
		p, err := Preset(tt.name)
		if err != nil {
			t.Errorf("Preset(%q): %v", tt.name, err)
			continue
		}
		if len(p) != tt.size {
			t.Errorf("Preset(%q) has %d colors, want %d", tt.name, len(p), tt.size)
		}
		for i, c := range p {
			if c.A != 255 {
				t.Errorf("Preset(%q)[%d] alpha = %d, want 255", tt.name, i, c.A)
			}
		}
	}
}

func TestPresetBW(t *testing.T) {
	p, err := Preset("bw")
	if err != nil {
		t.Fatal(err)
	}
	want := []color.NRGBA{{0, 0, 0, 255}, {255, 255, 255, 255}}
	if !reflect.DeepEqual(p, want) {
		t.Errorf("bw = %v, want %v", p, want)
	}
}

func TestPresetUnknown(t *testing.T) {
	for _, name := range []string{"", "BW", "vga", "game boy"} {
		if _, err := Preset(name); !errors.Is(err, ErrUnknownPreset) {
			t.Errorf("Preset(%q): err = %v, want ErrUnknownPreset", name, err)
		}
	}
}

func TestPresetNames(t *testing.T) {
	names := PresetNames()
	if !sort.StringsAreSorted(names) {
		t.Errorf("names not sorted: %v", names)
	}
	if len(names) != len(presets) {
		t.Errorf("got %d names, want %d", len(names), len(presets))
	}
	for _, name := range names {
		if _, err := Preset(name); err != nil {
			t.Errorf("listed preset %q does not resolve: %v", name, err)
		}
	}
}
