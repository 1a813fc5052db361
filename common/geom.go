package common

// Point is a signed position in pixels or cells.
type Point struct {
	X, Y int32
}

// Size is an unsigned extent.
type Size struct {
	Width, Height uint32
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X, Y          int32
	Width, Height uint32
}

func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

func (s Size) Area() uint64 {
	return uint64(s.Width) * uint64(s.Height)
}

// Max returns the exclusive bottom-right corner.
func (r Rect) Max() Point {
	return Point{X: r.X + int32(r.Width), Y: r.Y + int32(r.Height)}
}

func (r Rect) Area() uint64 {
	return uint64(r.Width) * uint64(r.Height)
}

func (r Rect) Empty() bool {
	return r.Width == 0 || r.Height == 0
}

// Contains reports whether p lies inside r. The right and bottom edges are
// exclusive.
func (r Rect) Contains(p Point) bool {
	return PointInRect(p, r)
}

// Overlaps reports whether r and o share interior area. Touching edges and
// empty rectangles never overlap.
func (r Rect) Overlaps(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	rm, om := r.Max(), o.Max()
	return r.X < om.X && o.X < rm.X && r.Y < om.Y && o.Y < rm.Y
}

// Intersect returns the shared area of r and o.
func (r Rect) Intersect(o Rect) (Rect, bool) {
	if !r.Overlaps(o) {
		return Rect{}, false
	}
	rm, om := r.Max(), o.Max()
	x0, y0 := max(r.X, o.X), max(r.Y, o.Y)
	x1, y1 := min(rm.X, om.X), min(rm.Y, om.Y)
	return Rect{X: x0, Y: y0, Width: uint32(x1 - x0), Height: uint32(y1 - y0)}, true
}

// PixelToGrid converts pixel coordinates to the cell containing them.
// Division floors toward negative infinity so pixel -1 maps to cell -1.
// A zero cellSize maps everything to the origin.
func PixelToGrid(px, py int32, cellSize uint32) Point {
	if cellSize == 0 {
		return Point{}
	}
	c := int64(cellSize)
	return Point{X: int32(floorDiv(int64(px), c)), Y: int32(floorDiv(int64(py), c))}
}

// GridToPixel returns the top-left pixel of a cell.
func GridToPixel(gx, gy int32, cellSize uint32) Point {
	c := int32(cellSize)
	return Point{X: gx * c, Y: gy * c}
}

// DistanceSquared avoids floating point. Deltas are widened before squaring
// so each square fits in a uint64 for any pair of int32 points.
func DistanceSquared(a, b Point) uint64 {
	dx := absDelta(a.X, b.X)
	dy := absDelta(a.Y, b.Y)
	return dx*dx + dy*dy
}

func PointInRect(p Point, r Rect) bool {
	m := r.Max()
	return p.X >= r.X && p.X < m.X && p.Y >= r.Y && p.Y < m.Y
}

// Lerp moves a toward b by the fraction t.
func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func absDelta(a, b int32) uint64 {
	d := int64(b) - int64(a)
	if d < 0 {
		d = -d
	}
	return uint64(d)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
