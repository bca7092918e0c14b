// Package enhance applies post-processing to generated frames: histogram
// stretch, denoise, despeckle, sharpen and colour scaling.
//
// Two interchangeable backends do the work. InProcess uses raster filters in
// this process. ExternalEditor drives a batch-mode image editor (GIMP) and is
// always bounded by a timeout; when it fails for any reason the Enhancer
// downgrades to InProcess and reports which backend produced the file.
package enhance

import (
	"fmt"
	"sort"

	"github.com/fpang/storyboard-gen/internal/status"
)

// Operations is one bundle of enhancement parameters. Zero values and
// factors of exactly 1.0 disable the corresponding step.
//
// Brightness, Contrast and Saturation are multiplicative factors where 0
// means unset, so a zero-valued bundle is a no-op rather than a black frame.
// Use a small positive factor to darken.
type Operations struct {
	AutoLevels bool    `json:"auto_levels"`
	Denoise    int     `json:"denoise"` // median passes, 0..3
	Sharpen    float64 `json:"sharpen"`
	Despeckle  bool    `json:"despeckle"`  // external editor only
	Brightness float64 `json:"brightness"` // 0 = unset
	Contrast   float64 `json:"contrast"`   // 0 = unset
	Saturation float64 `json:"saturation"` // 0 = unset
}

// MaxDenoise caps the number of denoise passes.
const MaxDenoise = 3

// Preset names.
const (
	PresetLight      = "light"
	PresetMedium     = "medium"
	PresetAggressive = "aggressive"
)

// DefaultPreset is used when no preset or custom operations are given.
const DefaultPreset = PresetMedium

var presets = map[string]Operations{
	PresetLight: {
		AutoLevels: true,
		Denoise:    1,
		Sharpen:    0.3,
		Despeckle:  false,
		Brightness: 1.05,
		Contrast:   1.05,
		Saturation: 1.0,
	},
	PresetMedium: {
		AutoLevels: true,
		Denoise:    2,
		Sharpen:    0.5,
		Despeckle:  true,
		Brightness: 1.1,
		Contrast:   1.1,
		Saturation: 1.05,
	},
	PresetAggressive: {
		AutoLevels: true,
		Denoise:    3,
		Sharpen:    0.8,
		Despeckle:  true,
		Brightness: 1.15,
		Contrast:   1.15,
		Saturation: 1.1,
	},
}

// LookupPreset returns a copy of the named preset. Modifying the copy never
// affects later lookups.
func LookupPreset(name string) (Operations, error) {
	ops, ok := presets[name]
	if !ok {
		return Operations{}, status.New(status.CodeInvalidPreset, "unknown preset: %s (valid: %v)", name, PresetNames())
	}
	return ops, nil
}

// PresetNames lists the valid preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate rejects out-of-range parameters.
func (o Operations) Validate() error {
	if o.Denoise < 0 || o.Denoise > MaxDenoise {
		return status.New(status.CodeInvalidInput, "denoise must be between 0 and %d, got %d", MaxDenoise, o.Denoise)
	}
	if o.Sharpen < 0 {
		return status.New(status.CodeInvalidInput, "sharpen must not be negative, got %.2f", o.Sharpen)
	}
	for name, f := range map[string]float64{"brightness": o.Brightness, "contrast": o.Contrast, "saturation": o.Saturation} {
		if f < 0 {
			return status.New(status.CodeInvalidInput, "%s factor must not be negative, got %.2f", name, f)
		}
	}
	return nil
}

// IsNoop reports whether applying o in-process leaves pixels unchanged.
func (o Operations) IsNoop() bool {
	return !o.AutoLevels && o.Denoise == 0 && o.Sharpen == 0 &&
		!active(o.Brightness) && !active(o.Contrast) && !active(o.Saturation)
}

// String summarises the enabled steps for logs.
func (o Operations) String() string {
	return fmt.Sprintf("auto_levels=%t denoise=%d sharpen=%.2f despeckle=%t brightness=%.2f contrast=%.2f saturation=%.2f",
		o.AutoLevels, o.Denoise, o.Sharpen, o.Despeckle, o.Brightness, o.Contrast, o.Saturation)
}

// active reports whether a multiplicative factor changes anything.
func active(f float64) bool {
	return f != 0 && f != 1
}
