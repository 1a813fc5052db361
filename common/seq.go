package common

// Capacity is the fixed number of slots in every Seq.
const Capacity = 32

// Seq is an append-only ordered container with Capacity inline slots.
// It never grows; Append reports false once full. The zero value is an
// empty sequence ready to use.
type Seq[T any] struct {
	items [Capacity]T
	n     int
}

// Append stores v in the next free slot. It returns false, leaving the
// sequence untouched, when all slots are in use.
func (s *Seq[T]) Append(v T) bool {
	if s.n >= Capacity {
		return false
	}
	s.items[s.n] = v
	s.n++
	return true
}

// Get returns the element at i, or false when i is not in [0, Len()).
func (s *Seq[T]) Get(i int) (T, bool) {
	if i < 0 || i >= s.n {
		var zero T
		return zero, false
	}
	return s.items[i], true
}

// At returns a pointer to the slot at i, or nil when i is out of range.
// The pointer is only valid until the next Clear.
func (s *Seq[T]) At(i int) *T {
	if i < 0 || i >= s.n {
		return nil
	}
	return &s.items[i]
}

// Set replaces the element at i. It returns false when i is out of range.
func (s *Seq[T]) Set(i int, v T) bool {
	if i < 0 || i >= s.n {
		return false
	}
	s.items[i] = v
	return true
}

// Clear makes every slot logically absent. Occupied slots are zeroed so
// that any payload they referenced can be collected.
func (s *Seq[T]) Clear() {
	clear(s.items[:s.n])
	s.n = 0
}

func (s *Seq[T]) Len() int {
	return s.n
}

func (s *Seq[T]) Cap() int {
	return Capacity
}

func (s *Seq[T]) IsFull() bool {
	return s.n >= Capacity
}

// Each calls fn for every element in order until fn returns false.
func (s *Seq[T]) Each(fn func(i int, v T) bool) {
	for i := 0; i < s.n; i++ {
		if !fn(i, s.items[i]) {
			return
		}
	}
}
