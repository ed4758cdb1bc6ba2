// Tree viewer: one card per node, placed by the tree layout
package gui

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"image-tree/internal/core"
	"image-tree/internal/io"
	"image-tree/internal/kernels"
	"image-tree/internal/metrics"
)

// Application shows every node of a tree in one window and drives the tree
// from user input: sliders set parameters, r refreshes from the root,
// s saves every output, q quits.
type Application struct {
	app     fyne.App
	window  fyne.Window
	logger  logrus.FieldLogger
	tree    *core.Tree[gocv.Mat]
	loader  *io.ImageLoader
	refresh time.Duration
	saveDir string

	panels []*NodePanel
	status *widget.Label

	nthRefresh int
	saving     atomic.Bool
	saves      sync.WaitGroup
	stop       chan struct{}
	closeOnce  sync.Once
}

// Options tunes the viewer.
type Options struct {
	Title   string
	Refresh time.Duration
	SaveDir string
}

func NewApplication(app fyne.App, tree *core.Tree[gocv.Mat], opts Options, logger logrus.FieldLogger) (*Application, error) {
	if opts.Title == "" {
		opts.Title = "Image Tree"
	}
	if opts.Refresh <= 0 {
		opts.Refresh = 100 * time.Millisecond
	}
	if opts.SaveDir == "" {
		opts.SaveDir = "."
	}

	a := &Application{
		app:     app,
		window:  app.NewWindow(opts.Title),
		logger:  logger,
		tree:    tree,
		loader:  io.NewImageLoader(logger),
		refresh: opts.Refresh,
		saveDir: opts.SaveDir,
		status:  widget.NewLabel("Starting"),
		stop:    make(chan struct{}),
	}
	if err := a.setupLayout(); err != nil {
		return nil, err
	}
	a.setupCallbacks()
	return a, nil
}

func (a *Application) setupLayout() error {
	res, err := a.tree.Layout()
	if err != nil {
		return fmt.Errorf("layout tree: %w", err)
	}

	origin, _ := res.Bounds()
	board := container.NewWithoutLayout()
	for _, node := range a.tree.Nodes() {
		panel := NewNodePanel(node, res.Labels[node.Name()], a.logger)
		obj := panel.Object()
		obj.Resize(TileSize)
		obj.Move(tilePosition(res.Positions[node.Name()], origin))
		board.Add(obj)
		a.panels = append(a.panels, panel)
	}

	// The free-form board has no min size of its own; the spacer gives the
	// scroll container something to scroll.
	spacer := canvas.NewRectangle(color.Transparent)
	spacer.SetMinSize(boardSize(res))

	a.window.SetContent(container.NewBorder(
		nil,
		a.status,
		nil,
		nil,
		container.NewScroll(container.NewStack(spacer, board)),
	))
	a.window.Resize(fyne.NewSize(1600, 900))
	return nil
}

func (a *Application) setupCallbacks() {
	a.window.Canvas().SetOnTypedRune(a.handleRune)
	a.window.SetCloseIntercept(func() {
		a.cleanup()
		a.app.Quit()
	})
}

func (a *Application) handleRune(r rune) {
	switch r {
	case 'q':
		a.cleanup()
		a.app.Quit()
	case 'r':
		a.nthRefresh++
		a.logger.Infof("%d manual refresh", a.nthRefresh)
		a.tree.Root().ForceRefresh()
	case 's':
		a.startSave()
	}
}

// startSave writes the outputs off the event goroutine. A press while a save
// is still running is ignored.
func (a *Application) startSave() bool {
	if !a.saving.CompareAndSwap(false, true) {
		a.logger.Debug("Save already running")
		return false
	}
	a.saves.Add(1)
	go func() {
		defer a.saves.Done()
		defer a.saving.Store(false)
		if err := a.SaveOutputs(); err != nil {
			a.logger.WithError(err).Error("Saving outputs failed")
		}
	}()
	return true
}

// ShowAndRun starts the refresh loop and blocks in the fyne event loop.
func (a *Application) ShowAndRun() {
	a.logger.WithField("nodes", len(a.panels)).Info("Showing tree window")
	go a.refreshLoop()
	a.window.ShowAndRun()
	a.cleanup()
}

func (a *Application) refreshLoop() {
	ticker := time.NewTicker(a.refresh)
	defer ticker.Stop()
	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			a.RefreshOnce()
		}
	}
}

// RefreshOnce reads every node output off the UI thread and hands the
// converted images to fyne.
func (a *Application) RefreshOnce() {
	frames := make([]frame, len(a.panels))
	for i, p := range a.panels {
		frames[i] = p.snapshot()
	}
	summary := metrics.Summarize(a.tree.Stats())

	fyne.Do(func() {
		for i, p := range a.panels {
			p.show(frames[i])
		}
		a.status.SetText(summary.String())
	})
}

// SaveOutputs writes every node's current output as a PNG named after its
// lineage label and name.
func (a *Application) SaveOutputs() error {
	for _, p := range a.panels {
		out := p.node.ReadOutput()
		if !kernels.Valid(out) {
			kernels.MatOps.Release(out)
			a.logger.WithField("node", p.node.Name()).Warn("Nothing to save")
			continue
		}
		err := a.loader.SaveImage(out, filepath.Join(a.saveDir, outputFileName(p.label, p.node.Name())))
		out.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func outputFileName(label, name string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, name)
	return label + "_" + safe + ".png"
}

func (a *Application) cleanup() {
	a.closeOnce.Do(func() {
		a.logger.Info("Shutting down tree")
		close(a.stop)
		a.saves.Wait()
		a.tree.Close()
	})
}
