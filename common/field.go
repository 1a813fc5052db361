package common

import "fmt"

// FieldKind tags a FieldValue. The set is closed.
type FieldKind uint8

const (
	FieldInt FieldKind = iota
	FieldBool
	FieldString
)

func (k FieldKind) String() string {
	switch k {
	case FieldInt:
		return "int"
	case FieldBool:
		return "bool"
	case FieldString:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// FieldValue is a custom field value from the editor: an int, a bool or a
// string. The tag is fixed at construction.
type FieldValue struct {
	kind FieldKind
	i    int32
	b    bool
	s    FixedString
}

func IntField(v int32) FieldValue {
	return FieldValue{kind: FieldInt, i: v}
}

func BoolField(v bool) FieldValue {
	return FieldValue{kind: FieldBool, b: v}
}

func StringField(v FixedString) FieldValue {
	return FieldValue{kind: FieldString, s: v}
}

func (v FieldValue) Kind() FieldKind {
	return v.kind
}

// AsInt returns the value only when it was built as an int.
func (v FieldValue) AsInt() (int32, bool) {
	if v.kind != FieldInt {
		return 0, false
	}
	return v.i, true
}

// AsBool returns the value only when it was built as a bool.
func (v FieldValue) AsBool() (bool, bool) {
	if v.kind != FieldBool {
		return false, false
	}
	return v.b, true
}

// AsString returns the value only when it was built as a string.
func (v FieldValue) AsString() (FixedString, bool) {
	if v.kind != FieldString {
		return FixedString{}, false
	}
	return v.s, true
}

func (v FieldValue) String() string {
	switch v.kind {
	case FieldInt:
		return fmt.Sprint(v.i)
	case FieldBool:
		return fmt.Sprint(v.b)
	default:
		return fmt.Sprintf("%q", v.s.String())
	}
}

// FieldPair binds a key to a value.
type FieldPair struct {
	Key   FixedString
	Value FieldValue
}

// FieldTable is a bounded key/value table. Keys are unique: adding an
// existing key overwrites its value in place (last write wins).
type FieldTable struct {
	pairs Seq[FieldPair]
}

// Add inserts or overwrites pair. It returns false only when the key is new
// and the table is full.
func (t *FieldTable) Add(pair FieldPair) bool {
	if i := t.index(pair.Key.String()); i >= 0 {
		return t.pairs.Set(i, pair)
	}
	return t.pairs.Append(pair)
}

func (t *FieldTable) Get(key string) (FieldValue, bool) {
	i := t.index(key)
	if i < 0 {
		return FieldValue{}, false
	}
	p, _ := t.pairs.Get(i)
	return p.Value, true
}

func (t *FieldTable) Has(key string) bool {
	return t.index(key) >= 0
}

func (t *FieldTable) Len() int {
	return t.pairs.Len()
}

func (t *FieldTable) Pair(i int) (FieldPair, bool) {
	return t.pairs.Get(i)
}

func (t *FieldTable) Each(fn func(i int, p FieldPair) bool) {
	t.pairs.Each(fn)
}

func (t *FieldTable) Clear() {
	t.pairs.Clear()
}

func (t *FieldTable) index(key string) int {
	found := -1
	t.pairs.Each(func(i int, p FieldPair) bool {
		if p.Key.EqualString(key) {
			found = i
			return false
		}
		return true
	})
	return found
}
