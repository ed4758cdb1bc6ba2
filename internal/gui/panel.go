package gui

import (
	"fmt"
	"image"
	"image/color"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"image-tree/internal/core"
	"image-tree/internal/kernels"
)

const errorTitle = "Error displaying image"

// NodePanel is the card for one node: its image and a slider per knob.
type NodePanel struct {
	node   *core.Node[gocv.Mat]
	label  string
	logger logrus.FieldLogger

	card    *widget.Card
	image   *canvas.Image
	sliders map[string]*widget.Slider
}

// frame is one node's output converted for display, or the reason it could
// not be shown.
type frame struct {
	img image.Image
	err error
}

func NewNodePanel(node *core.Node[gocv.Mat], label string, logger logrus.FieldLogger) *NodePanel {
	p := &NodePanel{
		node:    node,
		label:   label,
		logger:  logger.WithField("node", node.Name()),
		sliders: make(map[string]*widget.Slider),
	}

	p.image = canvas.NewImageFromImage(placeholder())
	p.image.FillMode = canvas.ImageFillContain
	p.image.ScaleMode = canvas.ImageScalePixels
	p.image.SetMinSize(fyne.NewSize(200, 150))

	controls := container.NewVBox()
	for _, spec := range node.ParamSpecs() {
		controls.Add(p.sliderRow(spec))
	}

	p.card = widget.NewCard(p.Title(), "", container.NewBorder(nil, controls, nil, nil, p.image))
	return p
}

func (p *NodePanel) sliderRow(spec core.ParamSpec) fyne.CanvasObject {
	value := widget.NewLabel(strconv.Itoa(spec.Initial))
	slider := widget.NewSlider(float64(spec.Min), float64(spec.Max))
	slider.Step = 1
	slider.SetValue(float64(spec.Initial))
	slider.OnChanged = func(v float64) {
		value.SetText(strconv.Itoa(int(v)))
		if err := p.node.SetParameter(spec.Name, int(v)); err != nil {
			p.logger.WithError(err).Warn("Parameter rejected")
		}
	}
	p.sliders[spec.Name] = slider
	return container.NewBorder(nil, nil, widget.NewLabel(spec.Name), value, slider)
}

func (p *NodePanel) Object() fyne.CanvasObject {
	return p.card
}

// Title is the node name followed by its lineage label.
func (p *NodePanel) Title() string {
	return p.node.Name() + " " + p.label
}

func (p *NodePanel) snapshot() frame {
	if err := p.node.LastError(); err != nil {
		return frame{err: err}
	}
	out := p.node.ReadOutput()
	defer kernels.MatOps.Release(out)
	if !kernels.Valid(out) {
		return frame{err: kernels.ErrEmptyInput}
	}
	img, err := out.ToImage()
	if err != nil {
		return frame{err: fmt.Errorf("convert output: %w", err)}
	}
	return frame{img: img}
}

// show must run on the fyne thread.
func (p *NodePanel) show(f frame) {
	if f.err != nil {
		p.card.SetTitle(errorTitle + " " + p.label)
		p.image.Image = placeholder()
	} else {
		p.card.SetTitle(p.Title())
		p.image.Image = f.img
	}
	p.image.Refresh()
}

func placeholder() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 200, 150))
	grey := color.RGBA{R: 240, G: 240, B: 240, A: 255}
	for y := 0; y < 150; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, grey)
		}
	}
	return img
}
