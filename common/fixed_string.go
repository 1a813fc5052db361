package common

import (
	"bytes"

	"github.com/cespare/xxhash/v2"
)

// MaxStringLen is the byte capacity of a FixedString.
const MaxStringLen = 64

// FixedString is an inline, allocation-free string of at most MaxStringLen
// bytes. The zero value is the empty string.
type FixedString struct {
	buf [MaxStringLen]byte
	n   uint8
}

// NewFixedString copies s into a FixedString. It never truncates: a string
// longer than MaxStringLen fails with CodeMemory and an embedded NUL fails
// with CodeInvalidPath.
func NewFixedString(s string) (FixedString, error) {
	var fs FixedString
	if len(s) > MaxStringLen {
		return fs, Errorf(CodeMemory, "fixed string", "", "%d bytes exceeds limit of %d", len(s), MaxStringLen)
	}
	if bytes.IndexByte([]byte(s), 0) >= 0 {
		return fs, Errorf(CodeInvalidPath, "fixed string", "", "embedded NUL in %q", s)
	}
	fs.n = uint8(copy(fs.buf[:], s))
	return fs, nil
}

// MustFixedString is NewFixedString for known-good literals.
func MustFixedString(s string) FixedString {
	fs, err := NewFixedString(s)
	if err != nil {
		panic(err)
	}
	return fs
}

func (s FixedString) String() string {
	return string(s.buf[:s.n])
}

func (s FixedString) Len() int {
	return int(s.n)
}

func (s FixedString) IsEmpty() bool {
	return s.n == 0
}

// Equal compares byte-exact.
func (s FixedString) Equal(other FixedString) bool {
	return s.n == other.n && s.buf == other.buf
}

func (s FixedString) EqualString(other string) bool {
	return int(s.n) == len(other) && string(s.buf[:s.n]) == other
}

// Hash is a fast fingerprint of the logical bytes.
func (s FixedString) Hash() uint64 {
	return xxhash.Sum64(s.buf[:s.n])
}

// HashString matches Hash for a plain string.
func HashString(s string) uint64 {
	return xxhash.Sum64String(s)
}
