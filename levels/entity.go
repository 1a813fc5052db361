package levels

import (
	"unsafe"

	"github.com/google/uuid"
	"github.com/milk9111/ldtkimport/common"
)

// PivotMax is the pivot value for the right or bottom edge.
const PivotMax = 255

// Entity is one placed entity instance. Geometry is fixed at construction;
// only the custom field table can change afterwards.
type Entity struct {
	typeID     uint16
	instanceID uint32
	iid        uuid.UUID
	position   common.Point
	size       common.Size
	pivot      common.Point
	color      uint32
	zIndex     int16
	tile       TileInfo
	hasTile    bool
	fields     common.FieldTable
}

// EntityOptions carries the optional parts of an entity.
type EntityOptions struct {
	IID    uuid.UUID
	Pivot  common.Point
	Color  uint32
	ZIndex int16
	Tile   *TileInfo // nil when the entity has no sprite
}

// NewEntity builds an entity. position is the pivot point; pivot components
// are clamped to [0, PivotMax].
func NewEntity(typeID uint16, instanceID uint32, position common.Point, size common.Size, opts EntityOptions) Entity {
	e := Entity{
		typeID:     typeID,
		instanceID: instanceID,
		iid:        opts.IID,
		position:   position,
		size:       size,
		pivot:      common.Point{X: clampPivot(opts.Pivot.X), Y: clampPivot(opts.Pivot.Y)},
		color:      opts.Color,
		zIndex:     opts.ZIndex,
	}
	if opts.Tile != nil {
		e.tile, e.hasTile = *opts.Tile, true
	}
	return e
}

func clampPivot(v int32) int32 {
	return min(max(v, 0), PivotMax)
}

func (e *Entity) TypeID() uint16            { return e.typeID }
func (e *Entity) InstanceID() uint32        { return e.instanceID }
func (e *Entity) IID() uuid.UUID            { return e.iid }
func (e *Entity) Position() common.Point    { return e.position }
func (e *Entity) Size() common.Size         { return e.size }
func (e *Entity) Pivot() common.Point       { return e.pivot }
func (e *Entity) Color() uint32             { return e.color }
func (e *Entity) ZIndex() int16             { return e.zIndex }
func (e *Entity) Fields() common.FieldTable { return e.fields }

// Bounds is the pixel rectangle the entity covers, shifted from its
// position by the pivot-weighted size.
func (e *Entity) Bounds() common.Rect {
	dx := int64(e.pivot.X) * int64(e.size.Width) / PivotMax
	dy := int64(e.pivot.Y) * int64(e.size.Height) / PivotMax
	return common.Rect{
		X:      int32(int64(e.position.X) - dx),
		Y:      int32(int64(e.position.Y) - dy),
		Width:  e.size.Width,
		Height: e.size.Height,
	}
}

// Center is the middle of Bounds.
func (e *Entity) Center() common.Point {
	b := e.Bounds()
	return common.Point{
		X: int32(int64(b.X) + int64(b.Width/2)),
		Y: int32(int64(b.Y) + int64(b.Height/2)),
	}
}

func (e *Entity) Overlaps(other *Entity) bool {
	return e.Bounds().Overlaps(other.Bounds())
}

func (e *Entity) Contains(p common.Point) bool {
	return e.Bounds().Contains(p)
}

// DistanceSquared is the squared distance between the two centers.
func (e *Entity) DistanceSquared(other *Entity) uint64 {
	return common.DistanceSquared(e.Center(), other.Center())
}

// WorldPosition offsets the position by the owning level's world origin.
func (e *Entity) WorldPosition(levelWorld common.Point) common.Point {
	return e.position.Add(levelWorld)
}

// AddCustomField inserts or overwrites a field. It returns false when the
// table is full.
func (e *Entity) AddCustomField(pair common.FieldPair) bool {
	return e.fields.Add(pair)
}

func (e *Entity) CustomField(key string) (common.FieldValue, bool) {
	return e.fields.Get(key)
}

func (e *Entity) HasField(key string) bool {
	return e.fields.Has(key)
}

// entityFootprint is the resident size of one entity, fields included.
const entityFootprint = int(unsafe.Sizeof(Entity{}))

// Footprint is the fixed per-entity cost used by memory accounting.
func (e *Entity) Footprint() int {
	return entityFootprint
}

// Tile returns the tileset rectangle the entity is drawn with, if any.
func (e *Entity) Tile() (TileInfo, bool) {
	return e.tile, e.hasTile
}

// TileInfo points at the tileset rectangle an entity is drawn with.
type TileInfo struct {
	TilesetID uint16
	Source    common.Rect
	FlipX     bool
	FlipY     bool
}
