package assets

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"path"
	"strings"

	"github.com/milk9111/ldtkimport/common"
	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// BytesPerPixel is the size of one NRGBA pixel.
const BytesPerPixel = 4

// Image is a decoded raster: non-premultiplied RGBA rows, tightly packed.
type Image struct {
	Width  uint32
	Height uint32
	Pix    []byte
}

type decodeFunc func(io.Reader) (image.Image, error)

// Decoders are picked by file extension only. The export names its files
// with fixed conventions so there is no content sniffing.
var decoders = map[string]decodeFunc{
	".png":  png.Decode,
	".bmp":  bmp.Decode,
	".tif":  tiff.Decode,
	".tiff": tiff.Decode,
	".webp": webp.Decode,
}

// Supported reports whether name has an extension Decode understands.
func Supported(name string) bool {
	_, ok := decoders[strings.ToLower(path.Ext(name))]
	return ok
}

// Decode turns encoded image bytes into an Image. name is only used to pick
// the decoder and to label errors.
func Decode(name string, data []byte) (Image, error) {
	dec, ok := decoders[strings.ToLower(path.Ext(name))]
	if !ok {
		return Image{}, common.Errorf(common.CodeImageLoading, "decode image", name, "unsupported format %q", path.Ext(name))
	}
	src, err := dec(bytes.NewReader(data))
	if err != nil {
		return Image{}, common.NewError(common.CodeImageLoading, "decode image", name, err)
	}
	return FromImage(src), nil
}

// FromImage converts any image.Image into an Image. A tightly packed NRGBA
// source is used as is.
func FromImage(src image.Image) Image {
	b := src.Bounds()
	dst, ok := src.(*image.NRGBA)
	if !ok || dst.Stride != b.Dx()*BytesPerPixel || b.Min != (image.Point{}) {
		dst = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		xdraw.Draw(dst, dst.Bounds(), src, b.Min, xdraw.Src)
	}
	return Image{Width: uint32(b.Dx()), Height: uint32(b.Dy()), Pix: dst.Pix}
}

// Bytes is the resident size of the pixel buffer.
func (img Image) Bytes() int {
	return len(img.Pix)
}

func (img Image) IsZero() bool {
	return img.Width == 0 || img.Height == 0 || len(img.Pix) == 0
}

func (img Image) Size() common.Size {
	return common.Size{Width: img.Width, Height: img.Height}
}

// NRGBA wraps the pixel buffer without copying.
func (img Image) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    img.Pix,
		Stride: int(img.Width) * BytesPerPixel,
		Rect:   image.Rect(0, 0, int(img.Width), int(img.Height)),
	}
}

func (img Image) String() string {
	return fmt.Sprintf("%dx%d (%d bytes)", img.Width, img.Height, img.Bytes())
}
