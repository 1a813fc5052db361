// Package exporttest builds in-memory super simple exports for tests.
package exporttest

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"path"
	"testing/fstest"
)

// GridCSV is a 4x3 grid matching a 64x48 level with 16px cells.
const GridCSV = "1,0,0,0,\n0,2,0,0,\n0,0,0,3,\n"

// PNG encodes a w x h image filled with c.
func PNG(w, h int, c color.NRGBA) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// DataJSON is a level data file with a grid layer, a tile layer, an entity
// layer and two entity types.
func DataJSON(name string) string {
	return fmt.Sprintf(`{
  "identifier": %q,
  "uniqueIdentifer": "5e0b4e30-66b0-11ee-8fd6-23c8ee3a8a5b",
  "x": 256,
  "y": 0,
  "width": 64,
  "height": 48,
  "bgColor": "#40465B",
  "customFields": {"music": "cave", "dark": true, "depth": 3, "ratio": 0.5, "tags": ["a"], "none": null},
  "layers": ["Entities.png", "Collisions.png", "Background.png"],
  "entities": {
    "Player": [
      {"id": "Player", "iid": "a3b2c1d0-1111-4222-8333-444455556666", "layer": "Entities", "x": 8, "y": 16, "width": 16, "height": 16, "color": 16711680, "pivotX": 0.5, "pivotY": 1, "tile": {"tilesetUid": 3, "x": 32, "y": 0, "w": 16, "h": 16, "flipX": true}, "customFields": {"hp": 3}}
    ],
    "Coin": [
      {"id": "Coin", "iid": "b3b2c1d0-1111-4222-8333-444455556666", "layer": "Entities", "x": 40, "y": 8, "width": 8, "height": 8, "color": "#FFCC00", "customFields": {}},
      {"id": "Coin", "iid": "c3b2c1d0-1111-4222-8333-444455556666", "layer": "Entities", "x": 48, "y": 8, "width": 8, "height": 8, "color": "#FFCC00", "customFields": {"value": 5}}
    ]
  }
}`, name)
}

// AddLevel writes a complete level directory into fsys.
func AddLevel(fsys fstest.MapFS, name string) {
	file := func(n string, data []byte) {
		fsys[path.Join(name, n)] = &fstest.MapFile{Data: data}
	}
	file("_composite.png", PNG(64, 48, color.NRGBA{R: 64, G: 70, B: 91, A: 255}))
	file("data.json", []byte(DataJSON(name)))
	file("Entities.png", PNG(64, 48, color.NRGBA{}))
	file("Collisions.png", PNG(64, 48, color.NRGBA{R: 255, A: 255}))
	file("Collisions.csv", []byte(GridCSV))
	file("Background.png", PNG(64, 48, color.NRGBA{B: 255, A: 255}))
}

// Project is an export holding complete levels with the given names.
func Project(names ...string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for _, n := range names {
		AddLevel(fsys, n)
	}
	return fsys
}
