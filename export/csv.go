package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/milk9111/ldtkimport/common"
)

// ParseCSV reads grid-value text: one integer per cell, columns separated by
// commas, rows by newlines. A trailing comma on a row is allowed. dst must
// hold width*height cells and is filled in row-major order.
func ParseCSV(data []byte, width, height int, dst []int32) error {
	if width <= 0 || height <= 0 || len(dst) != width*height {
		return common.Errorf(common.CodeInvalidGridDimensions, "parse csv", "", "declared %dx%d for %d cells", width, height, len(dst))
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.ReuseRecord = true

	cols := -1
	row := 0
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return common.NewError(common.CodeCSVParsing, "parse csv", "", err)
		}
		if n := len(rec); n > 1 && rec[n-1] == "" {
			rec = rec[:n-1]
		}
		if cols < 0 {
			cols = len(rec)
		} else if len(rec) != cols {
			return common.Errorf(common.CodeCSVParsing, "parse csv", "", "row %d has %d values, want %d", row+1, len(rec), cols)
		}
		if cols != width {
			return common.Errorf(common.CodeInvalidGridDimensions, "parse csv", "", "%d columns, want %d", cols, width)
		}
		if row >= height {
			return common.Errorf(common.CodeInvalidGridDimensions, "parse csv", "", "more than %d rows", height)
		}
		for x, field := range rec {
			v, err := strconv.ParseInt(strings.TrimSpace(field), 10, 32)
			if err != nil {
				return common.Errorf(common.CodeCSVParsing, "parse csv", "", "row %d column %d: %q is not an integer", row+1, x+1, field)
			}
			dst[row*width+x] = int32(v)
		}
		row++
	}
	if row != height {
		return common.Errorf(common.CodeInvalidGridDimensions, "parse csv", "", "%d rows, want %d", row, height)
	}
	return nil
}
