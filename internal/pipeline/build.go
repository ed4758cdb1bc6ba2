// Package pipeline assembles a processing tree from a config.
package pipeline

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"image-tree/internal/config"
	"image-tree/internal/core"
	"image-tree/internal/kernels"
)

// Tree is a processing tree over OpenCV images.
type Tree = core.Tree[gocv.Mat]

// Build creates the root from source and attaches every configured node in
// order. The tree takes ownership of source. On error the partial tree is
// closed and source released.
func Build(cfg config.Config, source gocv.Mat, logger logrus.FieldLogger) (*Tree, error) {
	tree, err := core.NewTree(cfg.Root, source, kernels.MatOps,
		core.WithPollInterval(cfg.PollInterval),
		core.WithLogger(logger),
	)
	if err != nil {
		kernels.MatOps.Release(source)
		return nil, err
	}

	for _, nc := range cfg.Nodes {
		if err := attach(tree, cfg, nc); err != nil {
			tree.Close()
			return nil, err
		}
	}

	logger.WithFields(logrus.Fields{
		"root":  cfg.Root,
		"nodes": tree.Len(),
	}).Info("Processing tree built")
	return tree, nil
}

func attach(tree *Tree, cfg config.Config, nc config.NodeConfig) error {
	kernel, err := kernels.Get(nc.Kernel)
	if err != nil {
		return fmt.Errorf("node %q: %w", nc.Name, err)
	}
	specs, err := WithOverrides(kernel.Params(), nc.Params)
	if err != nil {
		return fmt.Errorf("node %q: %w", nc.Name, err)
	}

	parentName := cfg.ParentOf(nc)
	parent, ok := tree.Node(parentName)
	if !ok {
		return fmt.Errorf("node %q: parent %q not found", nc.Name, parentName)
	}

	var opts []core.NodeOption
	if nc.LogDuration {
		opts = append(opts, core.WithDurationLogging())
	}
	_, err = parent.Attach(nc.Name, kernels.Transform(kernel), specs, opts...)
	return err
}

// WithOverrides returns a copy of specs whose initial values are replaced by
// overrides. Unknown names and out-of-range values are rejected.
func WithOverrides(specs []core.ParamSpec, overrides map[string]int) ([]core.ParamSpec, error) {
	out := append([]core.ParamSpec(nil), specs...)
	for name, value := range overrides {
		found := false
		for i := range out {
			if out[i].Name != name {
				continue
			}
			if !out[i].Contains(value) {
				return nil, &core.ParamError{Name: name, Value: value, Min: out[i].Min, Max: out[i].Max, Err: core.ErrOutOfBounds}
			}
			out[i].Initial = value
			found = true
		}
		if !found {
			return nil, &core.ParamError{Name: name, Value: value, Err: core.ErrUnknownParameter}
		}
	}
	return out, nil
}
