// Package render draws maze layouts, the paths agents take through
// them and the learning curves of experiments as PNG images.
package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/samuelfneumann/mazeper/environment/maze"
)

// Colours of the cells of a maze
var (
	FreeColour  = color.White
	WallColour  = color.Black
	StartColour = color.RGBA{0, 200, 0, 255}
	GoalColour  = color.RGBA{220, 0, 0, 255}
	KeyColour   = color.RGBA{255, 200, 0, 255}
	TrapColour  = color.RGBA{128, 0, 128, 255}
	GridColour  = color.RGBA{180, 180, 180, 255}
	PathColour  = color.RGBA{0, 90, 255, 255}
)

// DefaultCellSize is the width of each cell in pixels
const DefaultCellSize = 40

// Options adjust how a maze is drawn
type Options struct {
	// CellSize is the width of each cell in pixels. If 0,
	// DefaultCellSize is used.
	CellSize int

	// Title is written above the maze if not empty
	Title string
}

func (o Options) cellSize() float64 {
	if o.CellSize <= 0 {
		return DefaultCellSize
	}
	return float64(o.CellSize)
}

// Maze draws layout with path drawn over it as a polyline through the
// centres of the visited cells
func Maze(layout *maze.Layout, path []maze.Point, opts Options) image.Image {
	size := opts.cellSize()
	top := 0.0
	if opts.Title != "" {
		top = 20
	}

	dc := gg.NewContext(int(size)*layout.Width,
		int(size)*layout.Height+int(top))
	dc.SetColor(FreeColour)
	dc.Clear()

	if opts.Title != "" {
		dc.SetColor(color.Black)
		dc.DrawStringAnchored(opts.Title, float64(dc.Width())/2, top/2, 0.5,
			0.5)
	}

	key, keyed := layout.Key()
	for x := 0; x < layout.Width; x++ {
		for y := 0; y < layout.Height; y++ {
			p := maze.Point{X: x, Y: y}

			var c color.Color
			switch {
			case p == layout.Start:
				c = StartColour
			case p == layout.Goal:
				c = GoalColour
			case keyed && p == key:
				c = KeyColour
			case layout.At(p) == maze.Wall:
				c = WallColour
			case layout.At(p) == maze.Trap:
				c = TrapColour
			default:
				c = FreeColour
			}

			dc.DrawRectangle(float64(x)*size, top+float64(y)*size, size, size)
			dc.SetColor(c)
			dc.FillPreserve()
			dc.SetColor(GridColour)
			dc.SetLineWidth(1)
			dc.Stroke()
		}
	}

	if len(path) == 0 {
		return dc.Image()
	}

	centre := func(p maze.Point) (float64, float64) {
		return (float64(p.X) + 0.5) * size, top + (float64(p.Y)+0.5)*size
	}

	dc.SetColor(PathColour)
	dc.SetLineWidth(size / 8)
	dc.MoveTo(centre(path[0]))
	for _, p := range path[1:] {
		dc.LineTo(centre(p))
	}
	dc.Stroke()

	for _, p := range path {
		x, y := centre(p)
		dc.DrawCircle(x, y, size/8)
		dc.Fill()
	}

	return dc.Image()
}

// SaveMaze draws a maze as Maze does and saves it as a PNG to filename
func SaveMaze(filename string, layout *maze.Layout, path []maze.Point,
	opts Options) error {
	img := Maze(layout, path, opts)
	if err := gg.SavePNG(filename, img); err != nil {
		return fmt.Errorf("saveMaze: %w", err)
	}
	return nil
}
