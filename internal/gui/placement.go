package gui

import (
	"fyne.io/fyne/v2"

	"image-tree/internal/layout"
)

// TileSize is the space one node card occupies on the board.
var TileSize = fyne.NewSize(320, 300)

const tileGap = 20

// tilePosition maps layout units to board pixels, shifting so the leftmost
// and topmost tiles touch the origin.
func tilePosition(p, origin layout.Point) fyne.Position {
	return fyne.NewPos(
		float32(p.X-origin.X)*(TileSize.Width+tileGap),
		float32(p.Y-origin.Y)*(TileSize.Height+tileGap),
	)
}

func boardSize(res *layout.Result) fyne.Size {
	lo, hi := res.Bounds()
	corner := tilePosition(hi, lo)
	return fyne.NewSize(corner.X+TileSize.Width, corner.Y+TileSize.Height)
}
