package physics

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/ldtkimport/common"
	"github.com/milk9111/ldtkimport/levels"
)

const (
	CollisionSolid cp.CollisionType = iota + 1
	CollisionEntity
)

const defaultFriction = 0.8

// Options selects what becomes a collision shape.
type Options struct {
	// Grids names the grids to collide with; empty means every grid.
	Grids []string
	// Solid picks the cell values that block; nil means any non-zero value.
	Solid func(v int32) bool
	// Bounds adds segments around the level edges.
	Bounds bool
	// Entities adds a sensor box per entity.
	Entities bool
	Friction float64
}

// World is a Chipmunk space holding the static shapes of one level, in
// level pixel coordinates.
type World struct {
	space     *cp.Space
	solids    int
	sensors   int
	truncated bool
}

// Build loads the selected grids of lvl and turns merged runs of solid
// cells into static boxes.
func Build(lvl *levels.Level, opts Options) (*World, error) {
	if opts.Solid == nil {
		opts.Solid = levels.NonZero
	}
	if opts.Friction == 0 {
		opts.Friction = defaultFriction
	}

	w := &World{space: cp.NewSpace()}
	w.space.Iterations = 20

	var rects [common.Capacity * common.Capacity]common.Rect
	for i := 0; i < lvl.IntGridCount(); i++ {
		info, _ := lvl.GridInfo(i)
		if !selected(opts.Grids, info.Name()) {
			continue
		}
		grid, err := lvl.GridAt(i)
		if err != nil {
			return nil, err
		}
		n, truncated := grid.MergedRects(opts.Solid, rects[:])
		w.truncated = w.truncated || truncated
		for _, r := range rects[:n] {
			w.addBox(r, opts.Friction)
		}
	}

	if opts.Bounds {
		w.addBounds(lvl.Size(), opts.Friction)
	}

	if opts.Entities {
		var ents [common.Capacity]levels.Entity
		n, _ := lvl.AllEntities(ents[:])
		for i := range ents[:n] {
			w.addSensor(ents[i].Bounds())
		}
	}
	return w, nil
}

func selected(names []string, name string) bool {
	if len(names) == 0 {
		return true
	}
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func bb(r common.Rect) cp.BB {
	x0, y0 := float64(r.X), float64(r.Y)
	return cp.BB{L: x0, B: y0, R: x0 + float64(r.Width), T: y0 + float64(r.Height)}
}

func (w *World) addBox(r common.Rect, friction float64) {
	shape := cp.NewBox2(w.space.StaticBody, bb(r), 0)
	shape.SetFriction(friction)
	shape.SetCollisionType(CollisionSolid)
	w.space.AddShape(shape)
	w.solids++
}

func (w *World) addBounds(size common.Size, friction float64) {
	worldW, worldH := float64(size.Width), float64(size.Height)
	if worldW <= 0 || worldH <= 0 {
		return
	}
	segments := []struct {
		a cp.Vector
		b cp.Vector
	}{
		{a: cp.Vector{X: 0, Y: 0}, b: cp.Vector{X: worldW, Y: 0}},
		{a: cp.Vector{X: 0, Y: worldH}, b: cp.Vector{X: worldW, Y: worldH}},
		{a: cp.Vector{X: 0, Y: 0}, b: cp.Vector{X: 0, Y: worldH}},
		{a: cp.Vector{X: worldW, Y: 0}, b: cp.Vector{X: worldW, Y: worldH}},
	}
	for _, seg := range segments {
		shape := cp.NewSegment(w.space.StaticBody, seg.a, seg.b, 1)
		shape.SetFriction(friction)
		shape.SetCollisionType(CollisionSolid)
		w.space.AddShape(shape)
		w.solids++
	}
}

func (w *World) addSensor(r common.Rect) {
	if r.Empty() {
		return
	}
	shape := cp.NewBox2(w.space.StaticBody, bb(r), 0)
	shape.SetSensor(true)
	shape.SetCollisionType(CollisionEntity)
	w.space.AddShape(shape)
	w.sensors++
}

// Space returns the underlying Chipmunk space.
func (w *World) Space() *cp.Space {
	return w.space
}

func (w *World) Step(dt float64) {
	w.space.Step(dt)
}

// SolidCount is the number of blocking shapes.
func (w *World) SolidCount() int { return w.solids }

// SensorCount is the number of entity sensors.
func (w *World) SensorCount() int { return w.sensors }

// Truncated reports that some solid cells were left without a shape.
func (w *World) Truncated() bool { return w.truncated }

// IsSolid reports whether the pixel lies inside a blocking shape.
func (w *World) IsSolid(x, y float64) bool {
	info := w.space.PointQueryNearest(cp.Vector{X: x, Y: y}, 0, cp.SHAPE_FILTER_ALL)
	return info.Shape != nil && !info.Shape.Sensor()
}
