package kernels

import (
	"fmt"

	"gocv.io/x/gocv"

	"image-tree/internal/core"
)

// MatOps clones Mats on read and closes them on replacement, so every reader
// owns the Mat it gets and must Close it.
var MatOps = core.ArtifactOps[gocv.Mat]{
	Clone: func(m gocv.Mat) gocv.Mat {
		if m.Ptr() == nil {
			return gocv.NewMat()
		}
		return m.Clone()
	},
	Release: func(m gocv.Mat) {
		if m.Ptr() != nil {
			m.Close()
		}
	},
}

// Valid reports whether m is open and holds pixels.
func Valid(m gocv.Mat) bool {
	return m.Ptr() != nil && !m.Empty()
}

func requireChannels(name string, m gocv.Mat, want int) error {
	if m.Channels() != want {
		return fmt.Errorf("%s: %w: want %d channel(s), got %d", name, ErrUnsupportedShape, want, m.Channels())
	}
	return nil
}

func requireDepth8U(name string, m gocv.Mat) error {
	if m.Type()&7 != gocv.MatTypeCV8U {
		return fmt.Errorf("%s: %w: want 8-bit pixels, got type %v", name, ErrUnsupportedShape, m.Type())
	}
	return nil
}

// oddSize rounds an even kernel size up to the next odd one.
func oddSize(n int) int {
	if n%2 == 0 {
		return n + 1
	}
	return n
}
