package levels

import (
	"fmt"

	"github.com/milk9111/ldtkimport/assets"
	"github.com/milk9111/ldtkimport/common"
)

// LayerKind is what the editor layer held before it was flattened.
type LayerKind uint8

const (
	LayerTiles LayerKind = iota
	LayerAutoLayer
	LayerEntities
	LayerIntGrid
)

func (k LayerKind) String() string {
	switch k {
	case LayerTiles:
		return "tiles"
	case LayerAutoLayer:
		return "autolayer"
	case LayerEntities:
		return "entities"
	case LayerIntGrid:
		return "intgrid"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// LayerMeta is the rendering metadata of a layer.
type LayerMeta struct {
	File     string
	Visible  bool
	Opacity  uint8
	Kind     LayerKind
	ZIndex   int16
	Offset   common.Point
	FileSize uint32
}

// Layer is one flattened layer image plus how to draw it. The image is
// optional and loaded on demand.
type Layer struct {
	id      common.FixedString
	meta    LayerMeta
	image   assets.Image
	loaded  bool
	loadErr error
}

func NewLayer(id common.FixedString, meta LayerMeta) Layer {
	return Layer{id: id, meta: meta}
}

func (l *Layer) Identifier() common.FixedString { return l.id }
func (l *Layer) Name() string                   { return l.id.String() }
func (l *Layer) Meta() LayerMeta                { return l.meta }
func (l *Layer) Kind() LayerKind                { return l.meta.Kind }
func (l *Layer) Visible() bool                  { return l.meta.Visible }
func (l *Layer) Opacity() uint8                 { return l.meta.Opacity }
func (l *Layer) ZIndex() int16                  { return l.meta.ZIndex }
func (l *Layer) Offset() common.Point           { return l.meta.Offset }
func (l *Layer) IsLoaded() bool                 { return l.loaded }

// LoadErr is the error from the last failed LoadImage, nil otherwise.
func (l *Layer) LoadErr() error { return l.loadErr }

// LoadImage decodes the layer image from src. It is a no-op once loaded. A
// failure leaves the layer metadata-only and is kept for LoadErr.
func (l *Layer) LoadImage(src ImageSource) error {
	if l.loaded {
		return nil
	}
	if l.meta.File == "" {
		l.loadErr = common.Errorf(common.CodeInvalidPath, "load layer", l.id.String(), "no image file")
		return l.loadErr
	}
	img, err := src.ReadImage(l.meta.File)
	if err != nil {
		l.loadErr = err
		return err
	}
	if img.IsZero() {
		l.loadErr = common.Errorf(common.CodeImageLoading, "load layer", l.meta.File, "empty image")
		return l.loadErr
	}
	l.image = img
	l.loaded = true
	l.loadErr = nil
	return nil
}

// SetImage installs an already decoded image. It refuses an empty one.
func (l *Layer) SetImage(img assets.Image) bool {
	if img.IsZero() {
		return false
	}
	l.image = img
	l.loaded = true
	l.loadErr = nil
	return true
}

func (l *Layer) Image() (assets.Image, bool) {
	return l.image, l.loaded
}

func (l *Layer) ImageSize() (common.Size, bool) {
	if !l.loaded {
		return common.Size{}, false
	}
	return l.image.Size(), true
}

// ClearImageCache drops the image and any remembered load error.
func (l *Layer) ClearImageCache() {
	l.image = assets.Image{}
	l.loaded = false
	l.loadErr = nil
}

func (l *Layer) MemoryUsage() int {
	if !l.loaded {
		return 0
	}
	return l.image.Bytes()
}

// HasTransparency reports whether drawing the layer can show what is below
// it: either the layer opacity is partial or the resident image has a
// pixel with alpha below 255.
func (l *Layer) HasTransparency() bool {
	if l.meta.Opacity < 255 {
		return true
	}
	if !l.loaded {
		return false
	}
	pix := l.image.Pix
	for i := 3; i < len(pix); i += assets.BytesPerPixel {
		if pix[i] < 255 {
			return true
		}
	}
	return false
}

// Validate checks the metadata is internally consistent.
func (l *Layer) Validate() error {
	if l.id.IsEmpty() {
		return common.Errorf(common.CodeInvalidExportStructure, "validate layer", l.meta.File, "empty identifier")
	}
	if l.meta.Kind > LayerIntGrid {
		return common.Errorf(common.CodeInvalidExportStructure, "validate layer", l.id.String(), "unknown kind %d", l.meta.Kind)
	}
	if l.loaded && l.image.IsZero() {
		return common.Errorf(common.CodeImageLoading, "validate layer", l.id.String(), "loaded without pixels")
	}
	return nil
}

// EffectiveOpacity is 0 for a hidden layer, the layer opacity otherwise.
func (l *Layer) EffectiveOpacity() uint8 {
	if !l.meta.Visible {
		return 0
	}
	return l.meta.Opacity
}

func (l *Layer) ShouldRender() bool {
	return l.EffectiveOpacity() > 0
}

func (l *Layer) RenderPosition(base common.Point) common.Point {
	return base.Add(l.meta.Offset)
}
