// Image kernels used as node transforms, with a name-based registry
package kernels

import (
	"errors"
	"fmt"
	"sort"

	"gocv.io/x/gocv"

	"image-tree/internal/core"
)

var (
	ErrEmptyInput       = errors.New("input image is empty")
	ErrUnsupportedShape = errors.New("unsupported image shape")
	ErrUnknownKernel    = errors.New("unknown kernel")
)

// Kernel is a pixel transform with a fixed set of integer knobs.
type Kernel interface {
	Name() string
	Description() string
	Params() []core.ParamSpec
	Apply(input gocv.Mat, params core.Params) (gocv.Mat, error)
}

var registry = make(map[string]Kernel)

func Register(k Kernel) {
	registry[k.Name()] = k
}

func Get(name string) (Kernel, error) {
	k, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKernel, name)
	}
	return k, nil
}

// Names returns every registered kernel name, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Categories groups kernel names for listings. Every registered kernel
// appears in exactly one group.
func Categories() map[string][]string {
	return map[string][]string{
		"Colour":     {"hue"},
		"Threshold":  {"hue_band", "otsu"},
		"Morphology": {"noise_remover", "hole_remover"},
		"Filters":    {"gaussian", "median"},
	}
}

// Transform adapts k to a node transform. Empty or closed inputs are
// reported as ErrEmptyInput before k runs.
func Transform(k Kernel) core.Transform[gocv.Mat] {
	return func(input gocv.Mat, params core.Params) (gocv.Mat, error) {
		if !Valid(input) {
			return gocv.NewMat(), fmt.Errorf("%s: %w", k.Name(), ErrEmptyInput)
		}
		return k.Apply(input, params)
	}
}

func init() {
	Register(NewHue())
	Register(NewHueBand())
	Register(NewOtsu())
	Register(NewNoiseRemover())
	Register(NewHoleRemover())
	Register(NewGaussian())
	Register(NewMedian())
}
