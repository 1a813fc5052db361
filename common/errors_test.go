package common

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCodes(t *testing.T) {
	err := NewError(CodeFileNotFound, "read level", "Level_0/data.json", fs.ErrNotExist)
	wrapped := fmt.Errorf("load: %w", err)

	code, ok := CodeOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, CodeFileNotFound, code)
	assert.True(t, errors.Is(wrapped, CodeFileNotFound))
	assert.False(t, errors.Is(wrapped, CodeMemory))
	assert.True(t, errors.Is(wrapped, fs.ErrNotExist), "cause stays reachable")
	assert.Equal(t, "ldtk: read level Level_0/data.json: file not found: file does not exist", err.Error())

	_, ok = CodeOf(errors.New("plain"))
	assert.False(t, ok)
}
