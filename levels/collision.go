package levels

import "github.com/milk9111/ldtkimport/common"

// MergedRects greedily merges cells accepted by match into pixel rectangles:
// each rectangle grows right as far as it can, then down while every cell of
// the next row matches. It writes at most len(buf) rectangles and reports
// whether some were left out.
func (g *IntGrid) MergedRects(match func(v int32) bool, buf []common.Rect) (n int, truncated bool) {
	if !g.loaded || len(g.cells) == 0 {
		return 0, false
	}
	width, height := int(g.width), int(g.height)
	visited := make([]bool, len(g.cells))
	solid := func(idx int) bool {
		return !visited[idx] && match(g.cells[idx])
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !solid(y*width + x) {
				continue
			}

			w := 0
			for x2 := x; x2 < width && solid(y*width+x2); x2++ {
				w++
			}

			h := 1
		rows:
			for y2 := y + 1; y2 < height; y2++ {
				for x2 := x; x2 < x+w; x2++ {
					if !solid(y2*width + x2) {
						break rows
					}
				}
				h++
			}

			for yy := y; yy < y+h; yy++ {
				for xx := x; xx < x+w; xx++ {
					visited[yy*width+xx] = true
				}
			}

			if n == len(buf) {
				return n, true
			}
			origin := g.GridToPixel(int32(x), int32(y))
			buf[n] = common.Rect{
				X:      origin.X,
				Y:      origin.Y,
				Width:  uint32(w) * g.cellSize,
				Height: uint32(h) * g.cellSize,
			}
			n++
		}
	}
	return n, false
}

// NonZero matches every non-empty cell.
func NonZero(v int32) bool { return v != 0 }
