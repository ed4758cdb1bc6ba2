package kernels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"image-tree/internal/core"
)

func grayMat(t *testing.T, rows, cols int, pixels ...uint8) gocv.Mat {
	t.Helper()
	shared, err := gocv.NewMatFromBytes(rows, cols, gocv.MatTypeCV8U, pixels)
	require.NoError(t, err)
	defer shared.Close()
	return shared.Clone()
}

func defaults(k Kernel) core.Params {
	p := core.Params{}
	for _, s := range k.Params() {
		p[s.Name] = s.Initial
	}
	return p
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"gaussian", "hole_remover", "hue", "hue_band", "median", "noise_remover", "otsu"}, Names())

	_, err := Get("lanczos")
	assert.ErrorIs(t, err, ErrUnknownKernel)

	for _, name := range Names() {
		k, err := Get(name)
		require.NoError(t, err)
		assert.Equal(t, name, k.Name())
		assert.NotEmpty(t, k.Description())
		for _, s := range k.Params() {
			assert.True(t, s.Contains(s.Initial), "%s.%s initial out of bounds", name, s.Name)
		}
	}
}

func TestRotateHue(t *testing.T) {
	assert.Equal(t, []uint8{0, 128, 254}, rotateHue([]uint8{0, 90, 179}, 0))
	assert.Equal(t, []uint8{128, 0, 126}, rotateHue([]uint8{0, 90, 179}, 128))
}

func TestOddSize(t *testing.T) {
	assert.Equal(t, 1, oddSize(1))
	assert.Equal(t, 5, oddSize(4))
	assert.Equal(t, 21, oddSize(21))
}

func TestTransform_EmptyInput(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()

	out, err := Transform(NewHueBand())(empty, defaults(NewHueBand()))
	defer out.Close()
	assert.ErrorIs(t, err, ErrEmptyInput)

	var closed gocv.Mat
	_, err = Transform(NewMedian())(closed, defaults(NewMedian()))
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestHueBand_OpenInterval(t *testing.T) {
	in := grayMat(t, 1, 5, 100, 112, 120, 144, 150)
	defer in.Close()

	out, err := NewHueBand().Apply(in, core.Params{"hue_min": 112, "hue_max": 144})
	require.NoError(t, err)
	defer out.Close()

	got := make([]uint8, 5)
	for c := range got {
		got[c] = out.GetUCharAt(0, c)
	}
	assert.Equal(t, []uint8{0, 0, 255, 0, 0}, got)
}

func TestHueBand_DefaultBand(t *testing.T) {
	in := grayMat(t, 1, 4, 126, 127, 140, 141)
	defer in.Close()

	out, err := NewHueBand().Apply(in, defaults(NewHueBand()))
	require.NoError(t, err)
	defer out.Close()
	assert.Equal(t, []uint8{0, 255, 255, 0}, []uint8{out.GetUCharAt(0, 0), out.GetUCharAt(0, 1), out.GetUCharAt(0, 2), out.GetUCharAt(0, 3)})
}

func TestHueBand_EmptyBand(t *testing.T) {
	in := grayMat(t, 1, 2, 10, 11)
	defer in.Close()

	out, err := NewHueBand().Apply(in, core.Params{"hue_min": 10, "hue_max": 11})
	require.NoError(t, err)
	defer out.Close()
	assert.Equal(t, 0, gocv.CountNonZero(out))
}

func TestHue_RequiresColour(t *testing.T) {
	in := grayMat(t, 2, 2, 1, 2, 3, 4)
	defer in.Close()

	_, err := NewHue().Apply(in, defaults(NewHue()))
	assert.ErrorIs(t, err, ErrUnsupportedShape)
}

func TestHue_RequiresEightBit(t *testing.T) {
	in := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0.5, 0.2, 0.1, 0), 2, 2, gocv.MatTypeCV32FC3)
	defer in.Close()

	_, err := NewHue().Apply(in, defaults(NewHue()))
	assert.ErrorIs(t, err, ErrUnsupportedShape)
}

func TestHue_ProducesSingleChannel(t *testing.T) {
	in := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), 4, 4, gocv.MatTypeCV8UC3)
	defer in.Close()

	out, err := NewHue().Apply(in, core.Params{"discontinuity": 0})
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, 1, out.Channels())
	// pure blue is hue 120 in OpenCV units
	assert.Equal(t, uint8(170), out.GetUCharAt(0, 0))
}

func TestNoiseRemover(t *testing.T) {
	in := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 9, 9, gocv.MatTypeCV8UC1)
	defer in.Close()
	in.SetUCharAt(4, 4, 255)

	same, err := NewNoiseRemover().Apply(in, core.Params{"radius": 0})
	require.NoError(t, err)
	defer same.Close()
	assert.Equal(t, 1, gocv.CountNonZero(same))

	opened, err := NewNoiseRemover().Apply(in, core.Params{"radius": 2})
	require.NoError(t, err)
	defer opened.Close()
	assert.Equal(t, 0, gocv.CountNonZero(opened), "a single speck does not survive opening")
}

func TestHoleRemover(t *testing.T) {
	in := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 10, 10, gocv.MatTypeCV8UC1)
	defer in.Close()

	out, err := NewHoleRemover().Apply(in, defaults(NewHoleRemover()))
	require.NoError(t, err)
	defer out.Close()
	assert.Equal(t, 3, out.Channels())
	assert.Equal(t, 10, out.Rows())

	colour := gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8UC3)
	defer colour.Close()
	_, err = NewHoleRemover().Apply(colour, defaults(NewHoleRemover()))
	assert.ErrorIs(t, err, ErrUnsupportedShape)
}

func TestMatOps(t *testing.T) {
	var closed gocv.Mat
	clone := MatOps.Clone(closed)
	defer clone.Close()
	assert.True(t, clone.Empty())
	assert.NotPanics(t, func() { MatOps.Release(closed) })

	m := grayMat(t, 1, 1, 7)
	c := MatOps.Clone(m)
	MatOps.Release(m)
	defer c.Close()
	assert.Equal(t, uint8(7), c.GetUCharAt(0, 0))
	assert.False(t, Valid(closed))
	assert.True(t, Valid(c))
}

func TestOtsuLevel(t *testing.T) {
	hist := make([]int, 256)
	hist[10] = 2
	hist[200] = 2
	assert.Equal(t, 10, otsuLevel(hist))
	assert.Equal(t, 0, otsuLevel(make([]int, 256)))
}

func TestOtsu_Bimodal(t *testing.T) {
	in := grayMat(t, 1, 4, 10, 200, 10, 200)
	defer in.Close()

	out, err := NewOtsu().Apply(in, defaults(NewOtsu()))
	require.NoError(t, err)
	defer out.Close()
	assert.Equal(t, []uint8{0, 255, 0, 255}, []uint8{out.GetUCharAt(0, 0), out.GetUCharAt(0, 1), out.GetUCharAt(0, 2), out.GetUCharAt(0, 3)})

	inv, err := NewOtsu().Apply(in, core.Params{"max_value": 100, "invert": 1})
	require.NoError(t, err)
	defer inv.Close()
	assert.Equal(t, uint8(100), inv.GetUCharAt(0, 0))
	assert.Equal(t, uint8(0), inv.GetUCharAt(0, 1))
}

func TestOtsu_AcceptsColour(t *testing.T) {
	in := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(30, 60, 90, 0), 3, 3, gocv.MatTypeCV8UC3)
	defer in.Close()

	out, err := NewOtsu().Apply(in, defaults(NewOtsu()))
	require.NoError(t, err)
	defer out.Close()
	assert.Equal(t, 1, out.Channels())
}

func TestCategories_CoverRegistry(t *testing.T) {
	seen := map[string]int{}
	for _, names := range Categories() {
		for _, name := range names {
			_, err := Get(name)
			require.NoError(t, err, name)
			seen[name]++
		}
	}
	for _, name := range Names() {
		assert.Equal(t, 1, seen[name], name)
	}
}
