package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGridPixelRoundTrip(t *testing.T) {
	for _, cell := range []uint32{1, 8, 16, 24} {
		for gy := int32(0); gy < 20; gy++ {
			for gx := int32(0); gx < 20; gx++ {
				px := GridToPixel(gx, gy, cell)
				assert.Equal(t, Point{X: gx, Y: gy}, PixelToGrid(px.X, px.Y, cell))
			}
		}
	}
}

func TestPixelToGridFloorsNegatives(t *testing.T) {
	cases := []struct {
		px, py int32
		want   Point
	}{
		{0, 0, Point{0, 0}},
		{15, 15, Point{0, 0}},
		{16, 17, Point{1, 1}},
		{-1, -1, Point{-1, -1}},
		{-16, -17, Point{-1, -2}},
		{32, 48, Point{2, 3}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, PixelToGrid(c.px, c.py, 16), "pixel (%d,%d)", c.px, c.py)
	}
	assert.Equal(t, Point{}, PixelToGrid(40, 40, 0))
}

func TestDistanceSquared(t *testing.T) {
	assert.Equal(t, uint64(800), DistanceSquared(Point{10, 20}, Point{30, 40}))
	assert.Equal(t, uint64(0), DistanceSquared(Point{5, 5}, Point{5, 5}))

	far := DistanceSquared(Point{math.MinInt32, 0}, Point{math.MaxInt32, 0})
	assert.Equal(t, uint64(math.MaxUint32)*uint64(math.MaxUint32), far)
}

func TestRectQueries(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 100, Height: 100}
	assert.True(t, PointInRect(Point{10, 20}, r))
	assert.True(t, r.Contains(Point{99, 99}))
	assert.False(t, r.Contains(Point{100, 50}), "right edge is exclusive")

	assert.True(t, r.Overlaps(Rect{X: 50, Y: 50, Width: 100, Height: 100}))
	assert.False(t, r.Overlaps(Rect{X: 100, Y: 0, Width: 10, Height: 10}), "touching edges")
	assert.False(t, r.Overlaps(Rect{X: 10, Y: 10}), "empty rect")

	in, ok := r.Intersect(Rect{X: -10, Y: 90, Width: 30, Height: 30})
	assert.True(t, ok)
	assert.Equal(t, Rect{X: 0, Y: 90, Width: 20, Height: 10}, in)
}
