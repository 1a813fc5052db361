package levels

import (
	"sort"

	"github.com/google/uuid"
	"github.com/milk9111/ldtkimport/assets"
	"github.com/milk9111/ldtkimport/common"
	"go.uber.org/zap"
)

// Level is one exported level. Load fills the cheap parts (geometry, layer
// and grid metadata, entities, fields) and the composite image. Layer images
// and grid cells load on first access.
type Level struct {
	id         common.FixedString
	size       common.Size
	world      common.Point
	background uint32

	composite     assets.Image
	hasComposite  bool
	compositeFile string

	layers    common.Seq[Layer]
	entities  common.Seq[Entity]
	grids     common.Seq[IntGrid]
	fields    common.FieldTable
	typeNames common.Seq[common.FixedString]

	loaded bool
	mem    MemoryStats
	src    Source
	log    *zap.Logger
}

// NewLevel creates an empty, unloaded level.
func NewLevel(id common.FixedString, size common.Size, world common.Point, background uint32) *Level {
	return &Level{
		id:         id,
		size:       size,
		world:      world,
		background: background,
		log:        zap.NewNop(),
	}
}

// SetLogger replaces the no-op logger.
func (l *Level) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	l.log = log.With(zap.String("level", l.id.String()))
}

func (l *Level) Identifier() common.FixedString { return l.id }
func (l *Level) Name() string                   { return l.id.String() }
func (l *Level) Size() common.Size              { return l.size }
func (l *Level) WorldPosition() common.Point    { return l.world }
func (l *Level) Background() uint32             { return l.background }
func (l *Level) IsLoaded() bool                 { return l.loaded }

// MemoryUsage is the running total of resident payload bytes.
func (l *Level) MemoryUsage() int { return l.mem.Total }

func (l *Level) MemoryBreakdown() MemoryStats { return l.mem }

// Load reads the level from src. It is a no-op when already loaded. Either
// everything is committed or, on error, the level is left as it was.
func (l *Level) Load(src Source) error {
	if l.loaded {
		return nil
	}
	name := l.id.String()
	md, err := src.Metadata(name)
	if err != nil {
		return err
	}

	var (
		layers    common.Seq[Layer]
		grids     common.Seq[IntGrid]
		entities  common.Seq[Entity]
		fields    common.FieldTable
		typeNames common.Seq[common.FixedString]
	)

	for _, rec := range md.Layers {
		id, err := common.NewFixedString(rec.Name)
		if err != nil {
			return err
		}
		if !layers.Append(NewLayer(id, rec.Meta)) {
			return common.Errorf(common.CodeMemory, "load level", name, "more than %d layers", common.Capacity)
		}
	}

	for _, rec := range md.Grids {
		id, err := common.NewFixedString(rec.Name)
		if err != nil {
			return err
		}
		g := NewIntGrid(id, rec.Width, rec.Height, rec.CellSize)
		if rec.File != "" {
			g = g.WithFile(rec.File)
		}
		if !grids.Append(g) {
			return common.Errorf(common.CodeMemory, "load level", name, "more than %d grid layers", common.Capacity)
		}
	}

	names, err := sortedTypeNames(md.Entities)
	if err != nil {
		return err
	}
	for _, n := range names {
		typeNames.Append(n)
	}

	for i, rec := range md.Entities {
		e, err := entityFromRecord(&typeNames, uint32(i+1), rec)
		if err != nil {
			return err
		}
		if !entities.Append(e) {
			return common.Errorf(common.CodeMemory, "load level", name, "more than %d entities", common.Capacity)
		}
	}

	for _, p := range md.Fields {
		if !fields.Add(p) {
			return common.Errorf(common.CodeMemory, "load level", name, "more than %d custom fields", common.Capacity)
		}
	}

	var composite assets.Image
	if md.Composite != "" {
		composite, err = src.ReadImage(name, md.Composite)
		if err != nil {
			return err
		}
	}

	l.size = md.Size
	l.world = md.World
	l.background = md.Background
	l.compositeFile = md.Composite
	l.composite = composite
	l.hasComposite = !composite.IsZero()
	l.layers = layers
	l.grids = grids
	l.entities = entities
	l.fields = fields
	l.typeNames = typeNames
	l.src = src
	l.loaded = true

	l.mem = MemoryStats{}
	l.mem.addImages(composite.Bytes())
	l.mem.addEntities(entities.Len() * entityFootprint)

	l.log.Debug("level loaded",
		zap.Int("layers", layers.Len()),
		zap.Int("grids", grids.Len()),
		zap.Int("entities", entities.Len()),
		zap.Int("bytes", l.mem.Total),
	)
	return nil
}

func sortedTypeNames(recs []EntityRecord) ([]common.FixedString, error) {
	seen := make(map[string]struct{}, len(recs))
	var names []string
	for _, r := range recs {
		if _, ok := seen[r.Type]; ok {
			continue
		}
		seen[r.Type] = struct{}{}
		names = append(names, r.Type)
	}
	if len(names) > common.Capacity {
		return nil, common.Errorf(common.CodeMemory, "entity types", "", "%d types exceeds limit of %d", len(names), common.Capacity)
	}
	sort.Strings(names)
	out := make([]common.FixedString, 0, len(names))
	for _, n := range names {
		fs, err := common.NewFixedString(n)
		if err != nil {
			return nil, err
		}
		out = append(out, fs)
	}
	return out, nil
}

func entityFromRecord(types *common.Seq[common.FixedString], instance uint32, rec EntityRecord) (Entity, error) {
	typeID, ok := typeIndex(types, rec.Type)
	if !ok {
		return Entity{}, common.Errorf(common.CodeJSONParsing, "entity", rec.Type, "unknown entity type")
	}
	var iid uuid.UUID
	if rec.IID != "" {
		parsed, err := uuid.Parse(rec.IID)
		if err != nil {
			return Entity{}, common.NewError(common.CodeJSONParsing, "entity iid", rec.Type, err)
		}
		iid = parsed
	}
	e := NewEntity(typeID, instance, rec.Position, rec.Size, EntityOptions{
		IID:    iid,
		Pivot:  rec.Pivot,
		Color:  rec.Color,
		ZIndex: rec.ZIndex,
		Tile:   rec.Tile,
	})
	for _, p := range rec.Fields {
		if !e.AddCustomField(p) {
			return Entity{}, common.Errorf(common.CodeMemory, "entity", rec.Type, "more than %d custom fields", common.Capacity)
		}
	}
	return e, nil
}

func typeIndex(types *common.Seq[common.FixedString], name string) (uint16, bool) {
	idx := -1
	types.Each(func(i int, n common.FixedString) bool {
		if n.EqualString(name) {
			idx = i
			return false
		}
		return true
	})
	if idx < 0 {
		return 0, false
	}
	return uint16(idx), true
}

// ensureLoaded reloads a level that was cleared while its source is known.
func (l *Level) ensureLoaded() bool {
	if l.loaded {
		return true
	}
	if l.src == nil {
		return false
	}
	if err := l.Load(l.src); err != nil {
		l.log.Warn("reload failed", zap.Error(err))
		return false
	}
	return true
}

// CompositeImage returns the pre-merged image of all visible layers.
func (l *Level) CompositeImage() (assets.Image, bool) {
	l.ensureLoaded()
	return l.composite, l.hasComposite
}

// SetCompositeImage installs a decoded composite. It refuses an empty image.
func (l *Level) SetCompositeImage(img assets.Image) bool {
	if img.IsZero() {
		return false
	}
	l.mem.addImages(img.Bytes() - l.composite.Bytes())
	l.composite = img
	l.hasComposite = true
	return true
}

// CompositeFile is the composite image file name from the metadata.
func (l *Level) CompositeFile() string {
	return l.compositeFile
}

// MarkLoaded flags a manually assembled level as complete.
func (l *Level) MarkLoaded() {
	l.loaded = true
}

// Layers

func (l *Level) LayerCount() int {
	return l.layers.Len()
}

// Layer returns a copy of the layer at i.
func (l *Level) Layer(i int) (Layer, bool) {
	return l.layers.Get(i)
}

// LayerIndex finds a layer by name.
func (l *Level) LayerIndex(name string) (int, bool) {
	idx := -1
	l.layers.Each(func(i int, ly Layer) bool {
		if ly.id.EqualString(name) {
			idx = i
			return false
		}
		return true
	})
	return idx, idx >= 0
}

// AddLayer appends a layer, counting any image it already holds.
func (l *Level) AddLayer(layer Layer) bool {
	if !l.layers.Append(layer) {
		return false
	}
	l.mem.addImages(layer.MemoryUsage())
	return true
}

// LayerImage returns the image of layer i, decoding it on first use.
func (l *Level) LayerImage(i int) (assets.Image, error) {
	l.ensureLoaded()
	ly := l.layers.At(i)
	if ly == nil {
		return assets.Image{}, common.Errorf(common.CodeInvalidPath, "layer image", l.id.String(), "no layer %d", i)
	}
	if img, ok := ly.Image(); ok {
		return img, nil
	}
	if l.src == nil {
		return assets.Image{}, common.Errorf(common.CodeFileNotFound, "layer image", ly.meta.File, "level has no source")
	}
	if err := ly.LoadImage(levelImages{src: l.src, level: l.id.String()}); err != nil {
		l.log.Debug("layer image failed", zap.String("layer", ly.Name()), zap.Error(err))
		return assets.Image{}, err
	}
	l.mem.addImages(ly.MemoryUsage())
	l.log.Debug("layer image loaded", zap.String("layer", ly.Name()), zap.Int("bytes", ly.MemoryUsage()))
	img, _ := ly.Image()
	return img, nil
}

// ClearLayerImage drops the image of layer i.
func (l *Level) ClearLayerImage(i int) bool {
	ly := l.layers.At(i)
	if ly == nil {
		return false
	}
	l.mem.addImages(-ly.MemoryUsage())
	ly.ClearImageCache()
	return true
}

// Grids

func (l *Level) IntGridCount() int {
	return l.grids.Len()
}

// AddIntGrid appends a grid, counting any cells it already holds.
func (l *Level) AddIntGrid(g IntGrid) bool {
	if !l.grids.Append(g) {
		return false
	}
	l.mem.addGrids(g.MemoryUsage())
	return true
}

// GridInfo returns the grid at i without loading its cells.
func (l *Level) GridInfo(i int) (IntGrid, bool) {
	return l.grids.Get(i)
}

// Grid returns the named grid with its cells loaded.
func (l *Level) Grid(name string) (IntGrid, error) {
	l.ensureLoaded()
	idx := -1
	l.grids.Each(func(i int, g IntGrid) bool {
		if g.id.EqualString(name) {
			idx = i
			return false
		}
		return true
	})
	if idx < 0 {
		return IntGrid{}, common.Errorf(common.CodeFileNotFound, "grid", l.id.String(), "no grid %q", name)
	}
	return l.GridAt(idx)
}

// GridAt returns grid i with its cells loaded.
func (l *Level) GridAt(i int) (IntGrid, error) {
	l.ensureLoaded()
	g := l.grids.At(i)
	if g == nil {
		return IntGrid{}, common.Errorf(common.CodeInvalidPath, "grid", l.id.String(), "no grid %d", i)
	}
	if g.IsLoaded() {
		return *g, nil
	}
	if l.src == nil {
		return IntGrid{}, common.Errorf(common.CodeFileNotFound, "grid", g.file, "level has no source")
	}
	if err := g.Load(levelGrids{src: l.src, level: l.id.String()}); err != nil {
		return IntGrid{}, err
	}
	l.mem.addGrids(g.MemoryUsage())
	l.log.Debug("grid loaded", zap.String("grid", g.Name()), zap.Int("bytes", g.MemoryUsage()))
	return *g, nil
}

// ClearGrid drops the cells of grid i.
func (l *Level) ClearGrid(i int) bool {
	g := l.grids.At(i)
	if g == nil {
		return false
	}
	l.mem.addGrids(-g.MemoryUsage())
	g.ClearCache()
	return true
}

// Entities

func (l *Level) EntityCount() int {
	return l.entities.Len()
}

// Entity returns a copy of entity i.
func (l *Level) Entity(i int) (Entity, bool) {
	return l.entities.Get(i)
}

// AddEntity appends an entity.
func (l *Level) AddEntity(e Entity) bool {
	if !l.entities.Append(e) {
		return false
	}
	l.mem.addEntities(entityFootprint)
	return true
}

// RegisterEntityType returns the id for name, assigning the next one when
// it is new.
func (l *Level) RegisterEntityType(name common.FixedString) (uint16, bool) {
	if id, ok := typeIndex(&l.typeNames, name.String()); ok {
		return id, true
	}
	if !l.typeNames.Append(name) {
		return 0, false
	}
	return uint16(l.typeNames.Len() - 1), true
}

func (l *Level) EntityTypeID(name string) (uint16, bool) {
	return typeIndex(&l.typeNames, name)
}

func (l *Level) EntityTypeName(id uint16) (common.FixedString, bool) {
	return l.typeNames.Get(int(id))
}

func (l *Level) EntityTypeCount() int {
	return l.typeNames.Len()
}

// EntitiesOfType copies entities of a type into buf. truncated reports that
// more matched than buf could hold.
func (l *Level) EntitiesOfType(typeID uint16, buf []Entity) (n int, truncated bool) {
	return l.collect(buf, func(e *Entity) bool { return e.typeID == typeID })
}

// AllEntities copies every entity into buf.
func (l *Level) AllEntities(buf []Entity) (n int, truncated bool) {
	return l.collect(buf, func(*Entity) bool { return true })
}

// EntitiesAt copies the entities whose bounds contain p into buf.
func (l *Level) EntitiesAt(p common.Point, buf []Entity) (n int, truncated bool) {
	return l.collect(buf, func(e *Entity) bool { return e.Contains(p) })
}

func (l *Level) collect(buf []Entity, match func(*Entity) bool) (n int, truncated bool) {
	l.ensureLoaded()
	for i := 0; i < l.entities.Len(); i++ {
		e := l.entities.At(i)
		if !match(e) {
			continue
		}
		if n == len(buf) {
			return n, true
		}
		buf[n] = *e
		n++
	}
	return n, false
}

// Fields

func (l *Level) AddCustomField(pair common.FieldPair) bool {
	return l.fields.Add(pair)
}

func (l *Level) CustomField(key string) (common.FieldValue, bool) {
	return l.fields.Get(key)
}

func (l *Level) HasField(key string) bool {
	return l.fields.Has(key)
}

func (l *Level) Fields() common.FieldTable {
	return l.fields
}

// ClearCache drops the composite, layer images, grid cells and the entity
// table. Identity, size, layer and grid metadata, entity type names and
// custom fields stay. A later query reloads from the source.
func (l *Level) ClearCache() {
	l.composite = assets.Image{}
	l.hasComposite = false
	for i := 0; i < l.layers.Len(); i++ {
		l.layers.At(i).ClearImageCache()
	}
	for i := 0; i < l.grids.Len(); i++ {
		l.grids.At(i).ClearCache()
	}
	l.entities.Clear()
	l.loaded = false
	l.mem = MemoryStats{}
}
