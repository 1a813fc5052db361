package levels

import (
	"github.com/milk9111/ldtkimport/common"
)

// cellBytes is the resident size of one grid cell.
const cellBytes = 4

// IntGrid is a per-cell integer table for collision or logic data. Value 0
// means empty. Identity and dimensions are always available; the cells are
// only resident between Load and ClearCache.
type IntGrid struct {
	id       common.FixedString
	file     string
	width    uint32
	height   uint32
	cellSize uint32
	cells    []int32
	loaded   bool
}

// NewIntGrid creates an unloaded grid of width x height cells.
func NewIntGrid(id common.FixedString, width, height, cellSize uint32) IntGrid {
	return IntGrid{id: id, file: id.String() + ".csv", width: width, height: height, cellSize: cellSize}
}

// WithFile sets the grid-value file the grid loads from.
func (g IntGrid) WithFile(file string) IntGrid {
	g.file = file
	return g
}

func (g *IntGrid) Identifier() common.FixedString { return g.id }
func (g *IntGrid) Name() string                   { return g.id.String() }
func (g *IntGrid) File() string                   { return g.file }
func (g *IntGrid) Width() uint32                  { return g.width }
func (g *IntGrid) Height() uint32                 { return g.height }
func (g *IntGrid) CellSize() uint32               { return g.cellSize }
func (g *IntGrid) IsLoaded() bool                 { return g.loaded }

// Dimensions returns the grid size in cells.
func (g *IntGrid) Dimensions() common.Size {
	return common.Size{Width: g.width, Height: g.height}
}

// Load populates the cells from src. It is a no-op when already loaded. On
// failure the grid stays unloaded.
func (g *IntGrid) Load(src GridSource) error {
	if g.loaded {
		return nil
	}
	if g.width == 0 || g.height == 0 {
		return common.Errorf(common.CodeInvalidGridDimensions, "load grid", g.file, "declared size %dx%d", g.width, g.height)
	}
	cells := make([]int32, int(g.width)*int(g.height))
	if err := src.ReadGrid(g.file, int(g.width), int(g.height), cells); err != nil {
		return err
	}
	g.cells = cells
	g.loaded = true
	return nil
}

// ClearCache drops the cells. Dimensions and identity stay valid.
func (g *IntGrid) ClearCache() {
	g.cells = nil
	g.loaded = false
}

// MemoryUsage is the resident size of the cells, 0 when unloaded.
func (g *IntGrid) MemoryUsage() int {
	if !g.loaded {
		return 0
	}
	return len(g.cells) * cellBytes
}

func (g *IntGrid) IsValidCoordinate(x, y int) bool {
	return x >= 0 && y >= 0 && x < int(g.width) && y < int(g.height)
}

// Value returns the cell at (x, y). Coordinates outside the grid, or an
// unloaded grid, read as 0; use IsValidCoordinate to tell the two apart.
func (g *IntGrid) Value(x, y int) int32 {
	if !g.loaded || !g.IsValidCoordinate(x, y) {
		return 0
	}
	return g.cells[y*int(g.width)+x]
}

// ValueAtPixel returns the value of the cell containing the pixel.
func (g *IntGrid) ValueAtPixel(px, py int32) int32 {
	c := g.PixelToGrid(px, py)
	return g.Value(int(c.X), int(c.Y))
}

func (g *IntGrid) IsEmpty(x, y int) bool {
	return g.Value(x, y) == 0
}

func (g *IntGrid) IsEmptyAtPixel(px, py int32) bool {
	return g.ValueAtPixel(px, py) == 0
}

// Positions writes the coordinates of cells holding value into buf in
// row-major order and returns how many were written. truncated is true when
// buf was too small to hold every match.
func (g *IntGrid) Positions(value int32, buf []common.Point) (n int, truncated bool) {
	if !g.loaded {
		return 0, false
	}
	w := int(g.width)
	for i, v := range g.cells {
		if v != value {
			continue
		}
		if n == len(buf) {
			return n, true
		}
		buf[n] = common.Point{X: int32(i % w), Y: int32(i / w)}
		n++
	}
	return n, false
}

// HasValuesInRegion reports whether any non-zero cell lies in the region.
// The region is clipped to the grid rather than rejected.
func (g *IntGrid) HasValuesInRegion(x, y, w, h int) bool {
	if !g.loaded || w <= 0 || h <= 0 {
		return false
	}
	x0, y0 := max(x, 0), max(y, 0)
	x1, y1 := min(x+w, int(g.width)), min(y+h, int(g.height))
	gw := int(g.width)
	for yy := y0; yy < y1; yy++ {
		row := g.cells[yy*gw : yy*gw+gw]
		for xx := x0; xx < x1; xx++ {
			if row[xx] != 0 {
				return true
			}
		}
	}
	return false
}

func (g *IntGrid) GridToPixel(gx, gy int32) common.Point {
	return common.GridToPixel(gx, gy, g.cellSize)
}

func (g *IntGrid) PixelToGrid(px, py int32) common.Point {
	return common.PixelToGrid(px, py, g.cellSize)
}

// CellBounds returns the pixel rectangle covered by a cell.
func (g *IntGrid) CellBounds(gx, gy int32) common.Rect {
	p := g.GridToPixel(gx, gy)
	return common.Rect{X: p.X, Y: p.Y, Width: g.cellSize, Height: g.cellSize}
}

// Cell is a grid position with its value.
type Cell struct {
	X     uint32
	Y     uint32
	Value int32
}

// PixelPosition is the top-left pixel of the cell.
func (c Cell) PixelPosition(cellSize uint32) common.Point {
	return common.Point{X: int32(c.X * cellSize), Y: int32(c.Y * cellSize)}
}
