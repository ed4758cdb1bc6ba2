package kernels

import (
	"fmt"

	"gocv.io/x/gocv"

	"image-tree/internal/core"
)

// HueBand selects pixels strictly between hue_min and hue_max. Selected
// pixels become 255, everything else 0.
type HueBand struct{}

func NewHueBand() *HueBand { return &HueBand{} }

func (b *HueBand) Name() string { return "hue_band" }

func (b *HueBand) Description() string {
	return "Binary mask of pixels inside an open hue interval"
}

func (b *HueBand) Params() []core.ParamSpec {
	return []core.ParamSpec{
		{Name: "hue_min", Initial: 126, Min: 0, Max: 255},
		{Name: "hue_max", Initial: 141, Min: 0, Max: 255},
	}
}

func (b *HueBand) Apply(input gocv.Mat, params core.Params) (gocv.Mat, error) {
	if err := requireChannels(b.Name(), input, 1); err != nil {
		return gocv.NewMat(), err
	}

	lo := params.Int("hue_min", 126) + 1
	hi := params.Int("hue_max", 141) - 1

	out := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), input.Rows(), input.Cols(), gocv.MatTypeCV8UC1)
	if lo > hi {
		return out, nil
	}
	gocv.InRangeWithScalar(input,
		gocv.NewScalar(float64(lo), 0, 0, 0),
		gocv.NewScalar(float64(hi), 0, 0, 0),
		&out)
	return out, nil
}

// Otsu binarizes at the global level that maximizes between-class variance.
// Colour inputs are converted to gray first.
type Otsu struct{}

func NewOtsu() *Otsu { return &Otsu{} }

func (o *Otsu) Name() string { return "otsu" }

func (o *Otsu) Description() string {
	return "Global Otsu binarization"
}

func (o *Otsu) Params() []core.ParamSpec {
	return []core.ParamSpec{
		{Name: "max_value", Initial: 255, Min: 1, Max: 255},
		{Name: "invert", Initial: 0, Min: 0, Max: 1},
	}
}

func (o *Otsu) Apply(input gocv.Mat, params core.Params) (gocv.Mat, error) {
	if err := requireDepth8U(o.Name(), input); err != nil {
		return gocv.NewMat(), err
	}

	gray := input
	if input.Channels() == 3 {
		gray = gocv.NewMat()
		defer gray.Close()
		gocv.CvtColor(input, &gray, gocv.ColorBGRToGray)
	} else if err := requireChannels(o.Name(), input, 1); err != nil {
		return gocv.NewMat(), err
	}

	data, err := gray.DataPtrUint8()
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("%s: %w", o.Name(), err)
	}
	var hist [256]int
	for _, v := range data {
		hist[v]++
	}

	typ := gocv.ThresholdBinary
	if params.Int("invert", 0) == 1 {
		typ = gocv.ThresholdBinaryInv
	}
	out := gocv.NewMat()
	gocv.Threshold(gray, &out, float32(otsuLevel(hist[:])), float32(params.Int("max_value", 255)), typ)
	return out, nil
}

// otsuLevel returns the last intensity of the background class.
func otsuLevel(hist []int) int {
	total := 0
	sum := 0.0
	for i, c := range hist {
		total += c
		sum += float64(i * c)
	}
	if total == 0 {
		return 0
	}

	var sumB, wB, best float64
	level := 0
	for t, c := range hist {
		wB += float64(c)
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * c)
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			level = t
		}
	}
	return level
}
