package recast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
)

// Map is an ordered string-keyed mapping. It is the mapping node of a tree
// value; the other nodes are []any sequences and scalars (nil, bool, int64,
// uint64, float64, string).
//
// Key order is insertion order and survives every codec in this module.
// A nil *Map behaves as an empty mapping for reads.
type Map struct {
	keys   []string
	values map[string]any
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{values: make(map[string]any)}
}

// MapOf builds a Map from alternating key/value arguments.
// It panics if a key is not a string or a value is missing.
func MapOf(kv ...any) *Map {
	if len(kv)%2 != 0 {
		panic("recast: MapOf requires key/value pairs")
	}
	m := NewMap()
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("recast: MapOf key %v is %T, not string", kv[i], kv[i]))
		}
		m.Set(key, kv[i+1])
	}
	return m
}

// FromMap converts a Go map into a Map, recursively converting nested
// map[string]any values. Go maps carry no order, so keys are sorted.
func FromMap(src map[string]any) *Map {
	if src == nil {
		return nil
	}
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	m := NewMap()
	for _, k := range keys {
		m.Set(k, normalizeNode(src[k]))
	}
	return m
}

func normalizeNode(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return FromMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalizeNode(item)
		}
		return out
	default:
		return v
	}
}

// Len returns the number of keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores value under key. An existing key keeps its position.
func (m *Map) Set(key string, value any) {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Delete removes key and reports whether it was present.
func (m *Map) Delete(key string) bool {
	_, ok := m.Pop(key)
	return ok
}

// Pop removes key and returns its value.
func (m *Map) Pop(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	if !ok {
		return nil, false
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return v, true
}

// Range calls fn for each entry in order until fn returns false.
func (m *Map) Range(fn func(key string, value any) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// Clone returns a shallow copy. Nested nodes are shared.
func (m *Map) Clone() *Map {
	out := NewMap()
	m.Range(func(k string, v any) bool {
		out.Set(k, v)
		return true
	})
	return out
}

// ToMap converts the Map back into nested Go maps and slices.
func (m *Map) ToMap() map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, m.Len())
	m.Range(func(k string, v any) bool {
		out[k] = plainNode(v)
		return true
	})
	return out
}

func plainNode(v any) any {
	switch t := v.(type) {
	case *Map:
		return t.ToMap()
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = plainNode(item)
		}
		return out
	default:
		return v
	}
}

// MarshalJSON encodes the Map as a JSON object in key order.
func (m *Map) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// String renders the Map as JSON for debugging.
func (m *Map) String() string {
	data, err := m.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<map: %v>", err)
	}
	return string(data)
}

// asMap views a tree node as a Map. Plain Go maps are accepted so callers
// can hand in trees built without this package.
func asMap(v any) (*Map, bool) {
	switch t := v.(type) {
	case *Map:
		if t == nil {
			return nil, false
		}
		return t, true
	case map[string]any:
		return FromMap(t), true
	default:
		return nil, false
	}
}

// asSlice views a tree node as a sequence.
func asSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// Equal reports whether two trees are structurally equal. Mapping key order
// is significant and numbers compare by value across int64, uint64 and float64.
func Equal(a, b any) bool {
	switch x := a.(type) {
	case *Map:
		y, ok := asMap(b)
		if !ok || x.Len() != y.Len() {
			return x == nil && b == nil
		}
		for i, k := range x.keys {
			if y.keys[i] != k {
				return false
			}
			if !Equal(x.values[k], y.values[k]) {
				return false
			}
		}
		return true
	case map[string]any:
		return Equal(FromMap(x), b)
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	}
	if eq, ok := numericEqual(a, b); ok {
		return eq
	}
	return reflect.DeepEqual(a, b)
}

// number is a tree number. Integers keep their exact magnitude.
type number struct {
	isFloat bool
	f       float64
	neg     bool
	mag     uint64
}

func toNumber(v any) (number, bool) {
	switch n := v.(type) {
	case int:
		return intNumber(int64(n)), true
	case int64:
		return intNumber(n), true
	case uint64:
		return number{mag: n}, true
	case float64:
		return number{isFloat: true, f: n}, true
	}
	return number{}, false
}

func intNumber(n int64) number {
	if n < 0 {
		return number{neg: true, mag: uint64(-(n + 1)) + 1}
	}
	return number{mag: uint64(n)}
}

// equalsFloat compares an integer with f without rounding the integer.
func (n number) equalsFloat(f float64) bool {
	if math.IsInf(f, 0) || f != math.Trunc(f) {
		return false
	}
	if (f < 0) != n.neg {
		return false
	}
	abs := math.Abs(f)
	if abs >= maxUint64Float {
		return false
	}
	return uint64(abs) == n.mag
}

// numericEqual compares two numbers across kinds. Two integers compare
// exactly; a float equals an integer only when it holds that exact value.
// ok is false when a is not a number.
func numericEqual(a, b any) (equal, ok bool) {
	x, ok := toNumber(a)
	if !ok {
		return false, false
	}
	y, ok := toNumber(b)
	switch {
	case !ok:
		return false, true
	case x.isFloat && y.isFloat:
		return x.f == y.f, true
	case x.isFloat:
		return y.equalsFloat(x.f), true
	case y.isFloat:
		return x.equalsFloat(y.f), true
	}
	return x.neg == y.neg && x.mag == y.mag, true
}
