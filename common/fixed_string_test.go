package common

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFixedString(t *testing.T) {
	cases := []struct {
		name string
		in   string
		code Code
	}{
		{"empty", "", CodeNone},
		{"short", "Level_0", CodeNone},
		{"at_limit", strings.Repeat("a", MaxStringLen), CodeNone},
		{"too_long", strings.Repeat("a", MaxStringLen+1), CodeMemory},
		{"embedded_nul", "lev\x00el", CodeInvalidPath},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			fs, err := NewFixedString(c.in)
			if c.code == CodeNone {
				require.NoError(t, err)
				assert.Equal(t, c.in, fs.String())
				assert.Equal(t, len(c.in), fs.Len())
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, c.code), "got %v", err)
			assert.True(t, fs.IsEmpty())
		})
	}
}

func TestFixedStringEquality(t *testing.T) {
	a := MustFixedString("Entities")
	b := MustFixedString("Entities")
	c := MustFixedString("entities")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c), "comparison is byte-exact")
	assert.True(t, a.EqualString("Entities"))
	assert.False(t, a.EqualString("Entities "))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), c.Hash())
	assert.Equal(t, a.Hash(), HashString(a.String()))
}

func TestMustFixedStringPanics(t *testing.T) {
	assert.Panics(t, func() { MustFixedString(strings.Repeat("x", 100)) })
}
