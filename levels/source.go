package levels

import (
	"github.com/milk9111/ldtkimport/assets"
	"github.com/milk9111/ldtkimport/common"
)

// Source is everything a Level needs from the exported files. The export
// package implements it over a directory tree.
type Source interface {
	// Metadata returns the parsed data file of a level.
	Metadata(level string) (Metadata, error)
	// ReadGrid parses a grid-value file into dst, which holds exactly
	// width*height cells in row-major order.
	ReadGrid(level, file string, width, height int, dst []int32) error
	// ReadImage decodes an image file of a level.
	ReadImage(level, file string) (assets.Image, error)
}

// GridSource fills the cells of one IntGrid.
type GridSource interface {
	ReadGrid(file string, width, height int, dst []int32) error
}

// ImageSource decodes one image file.
type ImageSource interface {
	ReadImage(file string) (assets.Image, error)
}

// Metadata is the cheap part of a level: everything except pixel and cell
// payloads. Slices here are parser output; Load copies them into bounded
// storage and rejects anything over capacity.
type Metadata struct {
	Size       common.Size
	World      common.Point
	Background uint32
	Composite  string
	Layers     []LayerRecord
	Grids      []GridRecord
	Entities   []EntityRecord
	Fields     []common.FieldPair
}

type LayerRecord struct {
	Name string
	Meta LayerMeta
}

type GridRecord struct {
	Name     string
	File     string
	Width    uint32
	Height   uint32
	CellSize uint32
}

type EntityRecord struct {
	Type     string
	IID      string
	Layer    string
	Position common.Point
	Size     common.Size
	Pivot    common.Point
	Color    uint32
	ZIndex   int16
	Tile     *TileInfo
	Fields   []common.FieldPair
}

// levelGrids binds a Source to one level so IntGrid can load itself.
type levelGrids struct {
	src   Source
	level string
}

func (g levelGrids) ReadGrid(file string, width, height int, dst []int32) error {
	return g.src.ReadGrid(g.level, file, width, height, dst)
}

type levelImages struct {
	src   Source
	level string
}

func (g levelImages) ReadImage(file string) (assets.Image, error) {
	return g.src.ReadImage(g.level, file)
}
