package kernels

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"image-tree/internal/core"
)

// NoiseRemover runs a morphological opening (erode then dilate) with an
// elliptical element of size 2r-1. Radius 0 passes the input through.
type NoiseRemover struct{}

func NewNoiseRemover() *NoiseRemover { return &NoiseRemover{} }

func (n *NoiseRemover) Name() string { return "noise_remover" }

func (n *NoiseRemover) Description() string {
	return "Erosion followed by dilation to remove small specks"
}

func (n *NoiseRemover) Params() []core.ParamSpec {
	return []core.ParamSpec{
		{Name: "radius", Initial: 0, Min: 0, Max: 5},
	}
}

func (n *NoiseRemover) Apply(input gocv.Mat, params core.Params) (gocv.Mat, error) {
	radius := params.Int("radius", 0)
	if radius <= 0 {
		return input.Clone(), nil
	}

	size := 2*radius - 1
	ellipse := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(size, size))
	defer ellipse.Close()

	eroded := gocv.NewMat()
	defer eroded.Close()
	gocv.Erode(input, &eroded, ellipse)

	out := gocv.NewMat()
	gocv.Dilate(eroded, &out, ellipse)
	return out, nil
}

// HoleRemover draws the contours of a binary mask in green on a black
// three-channel image. With remove_holes set the contours are filled, which
// closes holes inside blobs; otherwise they are outlined.
type HoleRemover struct{}

func NewHoleRemover() *HoleRemover { return &HoleRemover{} }

func (h *HoleRemover) Name() string { return "hole_remover" }

func (h *HoleRemover) Description() string {
	return "Filled or outlined contours of a binary mask"
}

func (h *HoleRemover) Params() []core.ParamSpec {
	return []core.ParamSpec{
		{Name: "remove_holes", Initial: 1, Min: 0, Max: 1},
	}
}

var contourColor = color.RGBA{R: 0, G: 255, B: 0, A: 0}

func (h *HoleRemover) Apply(input gocv.Mat, params core.Params) (gocv.Mat, error) {
	if err := requireChannels(h.Name(), input, 1); err != nil {
		return gocv.NewMat(), err
	}
	if err := requireDepth8U(h.Name(), input); err != nil {
		return gocv.NewMat(), err
	}

	contours := gocv.FindContours(input, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer contours.Close()

	out := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), input.Rows(), input.Cols(), gocv.MatTypeCV8UC3)

	thickness := 1
	if params.Int("remove_holes", 1) == 1 {
		thickness = -1
	}
	if contours.Size() > 0 {
		gocv.DrawContours(&out, contours, -1, contourColor, thickness)
	}
	return out, nil
}
