package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeqCapacity(t *testing.T) {
	var s Seq[int]
	for i := 0; i < Capacity; i++ {
		require.True(t, s.Append(i), "append %d", i)
	}
	assert.True(t, s.IsFull())
	assert.False(t, s.Append(99), "append past capacity must fail")
	assert.Equal(t, Capacity, s.Len())

	last, ok := s.Get(Capacity - 1)
	require.True(t, ok)
	assert.Equal(t, Capacity-1, last)
}

func TestSeqAccess(t *testing.T) {
	cases := []struct {
		name  string
		fill  int
		index int
		ok    bool
	}{
		{"empty", 0, 0, false},
		{"first", 3, 0, true},
		{"last", 3, 2, true},
		{"past_count", 3, 3, false},
		{"negative", 3, -1, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var s Seq[string]
			for i := 0; i < c.fill; i++ {
				s.Append("v")
			}
			_, ok := s.Get(c.index)
			assert.Equal(t, c.ok, ok)
			assert.Equal(t, c.ok, s.Set(c.index, "w"))
			assert.Equal(t, c.ok, s.At(c.index) != nil)
			assert.Equal(t, c.fill, s.Len(), "set must not change count")
		})
	}
}

func TestSeqClear(t *testing.T) {
	var s Seq[*int]
	v := 7
	s.Append(&v)
	s.Append(&v)
	s.Clear()

	assert.Equal(t, 0, s.Len())
	_, ok := s.Get(0)
	assert.False(t, ok)
	assert.Nil(t, s.items[0], "cleared slots should drop references")

	require.True(t, s.Append(&v))
	assert.Equal(t, 1, s.Len())
}

func TestSeqAtMutatesInPlace(t *testing.T) {
	var s Seq[Point]
	s.Append(Point{X: 1})
	s.At(0).Y = 5
	p, _ := s.Get(0)
	assert.Equal(t, Point{X: 1, Y: 5}, p)
}

func TestSeqEachStops(t *testing.T) {
	var s Seq[int]
	for i := 0; i < 5; i++ {
		s.Append(i)
	}
	var seen []int
	s.Each(func(i int, v int) bool {
		seen = append(seen, v)
		return v < 2
	})
	assert.Equal(t, []int{0, 1, 2}, seen)
}
