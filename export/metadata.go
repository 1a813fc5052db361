package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/milk9111/ldtkimport/common"
	"github.com/milk9111/ldtkimport/levels"
	"go.uber.org/zap"
)

// levelFile is the data file written next to each level's images.
type levelFile struct {
	Identifier       string                  `json:"identifier"`
	UniqueIdentifier string                  `json:"uniqueIdentifer"`
	X                int32                   `json:"x"`
	Y                int32                   `json:"y"`
	Width            uint32                  `json:"width"`
	Height           uint32                  `json:"height"`
	BgColor          string                  `json:"bgColor"`
	CustomFields     map[string]any          `json:"customFields"`
	Layers           []string                `json:"layers"`
	Entities         map[string][]entityFile `json:"entities"`
}

type entityFile struct {
	ID           string          `json:"id"`
	IID          string          `json:"iid"`
	Layer        string          `json:"layer"`
	X            int32           `json:"x"`
	Y            int32           `json:"y"`
	Width        uint32          `json:"width"`
	Height       uint32          `json:"height"`
	Color        json.RawMessage `json:"color"`
	PivotX       *float64        `json:"pivotX"`
	PivotY       *float64        `json:"pivotY"`
	ZIndex       int16           `json:"zIndex"`
	Tile         *tileFile       `json:"tile"`
	CustomFields map[string]any  `json:"customFields"`
}

// tileFile is the editor's tileset rectangle for an entity sprite.
type tileFile struct {
	TilesetUID uint16 `json:"tilesetUid"`
	X          int32  `json:"x"`
	Y          int32  `json:"y"`
	W          uint32 `json:"w"`
	H          uint32 `json:"h"`
	FlipX      bool   `json:"flipX"`
	FlipY      bool   `json:"flipY"`
}

func (t *tileFile) info() *levels.TileInfo {
	if t == nil {
		return nil
	}
	return &levels.TileInfo{
		TilesetID: t.TilesetUID,
		Source:    common.Rect{X: t.X, Y: t.Y, Width: t.W, Height: t.H},
		FlipX:     t.FlipX,
		FlipY:     t.FlipY,
	}
}

// Metadata parses the data file of a level and resolves layer kinds and
// grid sizes against the files present in the level directory.
func (d *Dir) Metadata(level string) (levels.Metadata, error) {
	data, err := d.ReadFile(level, d.cfg.MetadataFile)
	if err != nil {
		return levels.Metadata{}, err
	}
	p := path.Join(level, d.cfg.MetadataFile)

	var lf levelFile
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&lf); err != nil {
		return levels.Metadata{}, common.NewError(common.CodeJSONParsing, "parse metadata", p, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return levels.Metadata{}, common.Errorf(common.CodeJSONParsing, "parse metadata", p, "trailing data")
	}
	if lf.Width == 0 || lf.Height == 0 {
		return levels.Metadata{}, common.Errorf(common.CodeJSONParsing, "parse metadata", p, "level size %dx%d", lf.Width, lf.Height)
	}
	if lf.Identifier != "" && lf.Identifier != level {
		d.log.Debug("identifier differs from directory", zap.String("level", level), zap.String("identifier", lf.Identifier))
	}

	bg, err := parseColor(lf.BgColor)
	if err != nil {
		return levels.Metadata{}, common.NewError(common.CodeJSONParsing, "parse metadata", p, err)
	}

	files, err := d.ListLevel(level)
	if err != nil {
		return levels.Metadata{}, err
	}
	present := make(map[string]bool, len(files))
	for _, f := range files {
		present[f] = true
	}

	md := levels.Metadata{
		Size:       common.Size{Width: lf.Width, Height: lf.Height},
		World:      common.Point{X: lf.X, Y: lf.Y},
		Background: bg,
		Composite:  d.cfg.CompositeFile,
	}

	if md.Fields, err = d.fields(p, lf.CustomFields); err != nil {
		return levels.Metadata{}, err
	}
	if md.Entities, err = d.entities(p, lf.Entities); err != nil {
		return levels.Metadata{}, err
	}
	if md.Layers, err = d.layers(level, lf.Layers, present, md.Entities); err != nil {
		return levels.Metadata{}, err
	}
	md.Grids = d.grids(files, md.Size)
	return md, nil
}

// layers keeps the listed order; the first listed layer is drawn on top.
// Auto-layers are flattened to plain images by the export, so they come back
// as LayerTiles and LayerAutoLayer is only set by manual assembly.
func (d *Dir) layers(level string, names []string, present map[string]bool, ents []levels.EntityRecord) ([]levels.LayerRecord, error) {
	entityLayers := make(map[string]bool)
	for _, e := range ents {
		entityLayers[e.Layer] = true
	}
	out := make([]levels.LayerRecord, 0, len(names))
	for i, file := range names {
		if !present[file] {
			return nil, common.Errorf(common.CodeInvalidExportStructure, "layers", path.Join(level, file), "listed layer image is missing")
		}
		stem := strings.TrimSuffix(file, path.Ext(file))
		kind := levels.LayerTiles
		switch {
		case present[stem+d.cfg.GridExtension]:
			kind = levels.LayerIntGrid
		case entityLayers[stem]:
			kind = levels.LayerEntities
		}
		out = append(out, levels.LayerRecord{
			Name: stem,
			Meta: levels.LayerMeta{
				File:     file,
				Visible:  true,
				Opacity:  255,
				Kind:     kind,
				ZIndex:   int16(len(names) - 1 - i),
				FileSize: d.size(path.Join(level, file)),
			},
		})
	}
	return out, nil
}

// grids declares one grid per grid-value file, sized to cover the level.
func (d *Dir) grids(files []string, size common.Size) []levels.GridRecord {
	cell := uint32(d.cfg.GridCellSize)
	var out []levels.GridRecord
	for _, f := range files {
		if !strings.EqualFold(path.Ext(f), d.cfg.GridExtension) {
			continue
		}
		out = append(out, levels.GridRecord{
			Name:     strings.TrimSuffix(f, path.Ext(f)),
			File:     f,
			Width:    (size.Width + cell - 1) / cell,
			Height:   (size.Height + cell - 1) / cell,
			CellSize: cell,
		})
	}
	return out
}

// entities flattens the per-type lists, types in name order and instances
// in file order.
func (d *Dir) entities(p string, byType map[string][]entityFile) ([]levels.EntityRecord, error) {
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)

	var out []levels.EntityRecord
	for _, t := range types {
		for _, ef := range byType[t] {
			color, err := parseEntityColor(ef.Color)
			if err != nil {
				return nil, common.NewError(common.CodeJSONParsing, "entities", p, err)
			}
			fields, err := d.fields(p, ef.CustomFields)
			if err != nil {
				return nil, err
			}
			out = append(out, levels.EntityRecord{
				Type:     t,
				IID:      ef.IID,
				Layer:    ef.Layer,
				Position: common.Point{X: ef.X, Y: ef.Y},
				Size:     common.Size{Width: ef.Width, Height: ef.Height},
				Pivot:    common.Point{X: pivot(ef.PivotX), Y: pivot(ef.PivotY)},
				Color:    color,
				ZIndex:   ef.ZIndex,
				Tile:     ef.Tile.info(),
				Fields:   fields,
			})
		}
	}
	return out, nil
}

// fields keeps int, bool and string values in key order. Anything else is
// skipped and does not count toward the field limit.
func (d *Dir) fields(p string, raw map[string]any) ([]common.FieldPair, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]common.FieldPair, 0, len(keys))
	for _, k := range keys {
		var v common.FieldValue
		switch val := raw[k].(type) {
		case bool:
			v = common.BoolField(val)
		case string:
			s, err := common.NewFixedString(val)
			if err != nil {
				return nil, err
			}
			v = common.StringField(s)
		case json.Number:
			n, err := strconv.ParseInt(val.String(), 10, 32)
			if err != nil {
				d.log.Debug("field skipped", zap.String("file", p), zap.String("key", k), zap.String("value", val.String()))
				continue
			}
			v = common.IntField(int32(n))
		default:
			d.log.Debug("field skipped", zap.String("file", p), zap.String("key", k), zap.Any("value", val))
			continue
		}
		if len(out) == common.Capacity {
			return nil, common.Errorf(common.CodeMemory, "fields", p, "more than %d custom fields", common.Capacity)
		}
		key, err := common.NewFixedString(k)
		if err != nil {
			return nil, err
		}
		out = append(out, common.FieldPair{Key: key, Value: v})
	}
	return out, nil
}

// parseColor reads "#rrggbb". An empty string is black.
func parseColor(s string) (uint32, error) {
	if s == "" {
		return 0, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || len(hex) != 6 {
		return 0, errors.New("color " + strconv.Quote(s) + " is not #rrggbb")
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, errors.New("color " + strconv.Quote(s) + " is not #rrggbb")
	}
	return uint32(v), nil
}

// parseEntityColor accepts a packed integer or a "#rrggbb" string.
func parseEntityColor(raw json.RawMessage) (uint32, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return parseColor(s)
	}
	var n uint32
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, err
	}
	return n & 0xffffff, nil
}

// pivot maps a 0..1 anchor to 0..255.
func pivot(v *float64) int32 {
	if v == nil {
		return 0
	}
	return int32(math.Round(min(max(*v, 0), 1) * 255))
}
