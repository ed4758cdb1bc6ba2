package kernels

import (
	"fmt"

	"gocv.io/x/gocv"

	"image-tree/internal/core"
)

// Hue extracts the hue channel of a BGR image and stretches it from
// OpenCV's 0..179 to 0..255. The discontinuity knob rotates the wheel so the
// wrap-around can be moved away from the colours of interest.
type Hue struct{}

func NewHue() *Hue { return &Hue{} }

func (h *Hue) Name() string { return "hue" }

func (h *Hue) Description() string {
	return "Hue channel rescaled to 0..255 and rotated by the discontinuity"
}

func (h *Hue) Params() []core.ParamSpec {
	return []core.ParamSpec{
		{Name: "discontinuity", Initial: 128, Min: 0, Max: 255},
	}
}

func (h *Hue) Apply(input gocv.Mat, params core.Params) (gocv.Mat, error) {
	if err := requireChannels(h.Name(), input, 3); err != nil {
		return gocv.NewMat(), err
	}
	if err := requireDepth8U(h.Name(), input); err != nil {
		return gocv.NewMat(), err
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(input, &hsv, gocv.ColorBGRToHSV)

	channels := gocv.Split(hsv)
	defer func() {
		for i := range channels {
			channels[i].Close()
		}
	}()
	hue := channels[0]

	data, err := hue.DataPtrUint8()
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("%s: read hue channel: %w", h.Name(), err)
	}
	out := rotateHue(data, params.Int("discontinuity", 128))

	result, err := gocv.NewMatFromBytes(hue.Rows(), hue.Cols(), gocv.MatTypeCV8U, out)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("%s: build output: %w", h.Name(), err)
	}
	// NewMatFromBytes shares out; clone so the Mat owns its pixels.
	defer result.Close()
	return result.Clone(), nil
}

// rotateHue maps OpenCV hue (0..179) onto 0..255 and adds shift, wrapping
// modulo 256.
func rotateHue(hue []uint8, shift int) []uint8 {
	out := make([]uint8, len(hue))
	for i, v := range hue {
		out[i] = uint8(int(float64(v)*256/180) + shift)
	}
	return out
}
