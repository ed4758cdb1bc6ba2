package kernels

import (
	"image"

	"gocv.io/x/gocv"

	"image-tree/internal/core"
)

// Gaussian implements a Gaussian blur. Even kernel sizes are rounded up.
type Gaussian struct{}

func NewGaussian() *Gaussian { return &Gaussian{} }

func (g *Gaussian) Name() string { return "gaussian" }

func (g *Gaussian) Description() string {
	return "Gaussian blur for general noise reduction"
}

func (g *Gaussian) Params() []core.ParamSpec {
	return []core.ParamSpec{
		{Name: "kernel_size", Initial: 5, Min: 1, Max: 21},
	}
}

func (g *Gaussian) Apply(input gocv.Mat, params core.Params) (gocv.Mat, error) {
	size := oddSize(params.Int("kernel_size", 5))

	out := gocv.NewMat()
	gocv.GaussianBlur(input, &out, image.Pt(size, size), 0, 0, gocv.BorderDefault)
	return out, nil
}

// Median implements a median blur. Even kernel sizes are rounded up.
type Median struct{}

func NewMedian() *Median { return &Median{} }

func (m *Median) Name() string { return "median" }

func (m *Median) Description() string {
	return "Median filter to remove salt-and-pepper noise"
}

func (m *Median) Params() []core.ParamSpec {
	return []core.ParamSpec{
		{Name: "kernel_size", Initial: 5, Min: 1, Max: 21},
	}
}

func (m *Median) Apply(input gocv.Mat, params core.Params) (gocv.Mat, error) {
	size := oddSize(params.Int("kernel_size", 5))
	// OpenCV only accepts apertures above 5 on 8-bit images.
	if size > 5 {
		if err := requireDepth8U(m.Name(), input); err != nil {
			return gocv.NewMat(), err
		}
	}

	out := gocv.NewMat()
	gocv.MedianBlur(input, &out, size)
	return out, nil
}
