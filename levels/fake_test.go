package levels

import (
	"fmt"

	"github.com/milk9111/ldtkimport/assets"
	"github.com/milk9111/ldtkimport/common"
)

// fakeSource serves canned metadata, cells and images and counts reads.
type fakeSource struct {
	meta   map[string]Metadata
	grids  map[string][]int32
	images map[string]assets.Image

	metaReads  int
	gridReads  int
	imageReads int
	failImage  string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		meta:   map[string]Metadata{},
		grids:  map[string][]int32{},
		images: map[string]assets.Image{},
	}
}

func (f *fakeSource) Metadata(level string) (Metadata, error) {
	f.metaReads++
	md, ok := f.meta[level]
	if !ok {
		return Metadata{}, common.Errorf(common.CodeFileNotFound, "metadata", level, "missing")
	}
	return md, nil
}

func (f *fakeSource) ReadGrid(level, file string, width, height int, dst []int32) error {
	f.gridReads++
	cells, ok := f.grids[level+"/"+file]
	if !ok {
		return common.Errorf(common.CodeFileNotFound, "grid", file, "missing")
	}
	if len(cells) != width*height {
		return common.Errorf(common.CodeInvalidGridDimensions, "grid", file, "got %d cells", len(cells))
	}
	copy(dst, cells)
	return nil
}

func (f *fakeSource) ReadImage(level, file string) (assets.Image, error) {
	f.imageReads++
	if file == f.failImage {
		return assets.Image{}, common.Errorf(common.CodeImageLoading, "image", file, "corrupt")
	}
	img, ok := f.images[level+"/"+file]
	if !ok {
		return assets.Image{}, common.Errorf(common.CodeFileNotFound, "image", file, "missing")
	}
	return img, nil
}

// gridOnly adapts a cell slice to GridSource.
type gridOnly []int32

func (g gridOnly) ReadGrid(file string, width, height int, dst []int32) error {
	if len(g) != width*height {
		return common.Errorf(common.CodeInvalidGridDimensions, "grid", file, "got %d cells, want %d", len(g), width*height)
	}
	copy(dst, g)
	return nil
}

// solidImage is a w x h image filled with one alpha value.
func solidImage(w, h int, alpha byte) assets.Image {
	pix := make([]byte, w*h*assets.BytesPerPixel)
	for i := 3; i < len(pix); i += assets.BytesPerPixel {
		pix[i] = alpha
	}
	return assets.Image{Width: uint32(w), Height: uint32(h), Pix: pix}
}

func fixed(s string) common.FixedString {
	return common.MustFixedString(s)
}

// sampleLevel registers a level with two layers, one grid and three entities.
func sampleLevel(src *fakeSource, name string) {
	src.meta[name] = Metadata{
		Size:       common.Size{Width: 64, Height: 48},
		World:      common.Point{X: 256, Y: 0},
		Background: 0x40465b,
		Composite:  "_composite.png",
		Layers: []LayerRecord{
			{Name: "Entities", Meta: LayerMeta{File: "Entities.png", Visible: true, Opacity: 255, Kind: LayerEntities, ZIndex: 2}},
			{Name: "Collisions", Meta: LayerMeta{File: "Collisions.png", Visible: true, Opacity: 255, Kind: LayerIntGrid, ZIndex: 1}},
		},
		Grids: []GridRecord{
			{Name: "Collisions", File: "Collisions.csv", Width: 4, Height: 3, CellSize: 16},
		},
		Entities: []EntityRecord{
			{Type: "Player", IID: "a3b2c1d0-1111-4222-8333-444455556666", Position: common.Point{X: 8, Y: 16}, Size: common.Size{Width: 16, Height: 16}, Pivot: common.Point{X: 128, Y: 255},
				Tile: &TileInfo{TilesetID: 3, Source: common.Rect{X: 32, Width: 16, Height: 16}, FlipX: true}},
			{Type: "Coin", Position: common.Point{X: 40, Y: 8}, Size: common.Size{Width: 8, Height: 8}},
			{Type: "Coin", Position: common.Point{X: 48, Y: 8}, Size: common.Size{Width: 8, Height: 8},
				Fields: []common.FieldPair{{Key: fixed("value"), Value: common.IntField(5)}}},
		},
		Fields: []common.FieldPair{
			{Key: fixed("music"), Value: common.StringField(fixed("cave"))},
		},
	}
	src.grids[name+"/Collisions.csv"] = []int32{1, 0, 0, 0, 0, 2, 0, 0, 0, 0, 0, 3}
	src.images[name+"/_composite.png"] = solidImage(64, 48, 255)
	src.images[name+"/Entities.png"] = solidImage(64, 48, 0)
	src.images[name+"/Collisions.png"] = solidImage(64, 48, 255)
}

func levelName(i int) string {
	return fmt.Sprintf("Level_%d", i)
}
