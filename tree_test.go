package recast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_Order(t *testing.T) {
	m := NewMap()
	m.Set("b", 1)
	m.Set("a", 2)
	m.Set("c", 3)
	m.Set("a", 4)

	assert.Equal(t, []string{"b", "a", "c"}, m.Keys())
	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, 4, v)
	assert.Equal(t, 3, m.Len())
}

func TestMap_Pop(t *testing.T) {
	m := MapOf("a", 1, "b", 2, "c", 3)

	v, ok := m.Pop("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, []string{"a", "c"}, m.Keys())

	_, ok = m.Pop("b")
	assert.False(t, ok)
	assert.True(t, m.Delete("a"))
	assert.False(t, m.Has("a"))
	assert.Equal(t, []string{"c"}, m.Keys())
}

func TestMap_Nil(t *testing.T) {
	var m *Map

	assert.Equal(t, 0, m.Len())
	assert.Nil(t, m.Keys())
	assert.False(t, m.Has("x"))
	assert.Nil(t, m.ToMap())
	assert.Equal(t, "null", m.String())

	calls := 0
	m.Range(func(string, any) bool { calls++; return true })
	assert.Zero(t, calls)
}

func TestMap_RangeStops(t *testing.T) {
	m := MapOf("a", 1, "b", 2, "c", 3)

	var seen []string
	m.Range(func(k string, _ any) bool {
		seen = append(seen, k)
		return k != "b"
	})
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestMap_CloneIsShallow(t *testing.T) {
	inner := MapOf("x", 1)
	m := MapOf("inner", inner, "n", 2)

	c := m.Clone()
	c.Set("n", 3)
	c.Pop("inner")

	assert.Equal(t, []string{"inner", "n"}, m.Keys())
	got, _ := m.Get("n")
	assert.Equal(t, 2, got)
	assert.Same(t, inner, func() *Map { v, _ := m.Get("inner"); return v.(*Map) }())
}

func TestMapOf_Panics(t *testing.T) {
	assert.Panics(t, func() { MapOf("a") })
	assert.Panics(t, func() { MapOf(1, "a") })
}

func TestFromMap(t *testing.T) {
	m := FromMap(map[string]any{
		"z": 1,
		"a": map[string]any{"y": true, "b": nil},
		"m": []any{map[string]any{"k": "v"}},
	})

	assert.Equal(t, []string{"a", "m", "z"}, m.Keys())
	a, _ := m.Get("a")
	require.IsType(t, &Map{}, a)
	assert.Equal(t, []string{"b", "y"}, a.(*Map).Keys())

	seq, _ := m.Get("m")
	require.IsType(t, []any{}, seq)
	assert.IsType(t, &Map{}, seq.([]any)[0])

	assert.Nil(t, FromMap(nil))
}

func TestMap_ToMap(t *testing.T) {
	m := MapOf("a", MapOf("b", int64(1)), "c", []any{MapOf("d", "e")})

	assert.Equal(t, map[string]any{
		"a": map[string]any{"b": int64(1)},
		"c": []any{map[string]any{"d": "e"}},
	}, m.ToMap())
}

func TestMap_MarshalJSON(t *testing.T) {
	m := MapOf("z", int64(1), "a", []any{"x", nil}, "m", MapOf("q", true), "f", 1.5)

	data, err := m.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":["x",null],"m":{"q":true},"f":1.5}`, string(data))

	data, err = NewMap().MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"same map", MapOf("a", int64(1)), MapOf("a", int64(1)), true},
		{"order matters", MapOf("a", 1, "b", 2), MapOf("b", 2, "a", 1), false},
		{"go map", MapOf("a", int64(1)), map[string]any{"a": int64(1)}, true},
		{"numbers across kinds", int64(2), 2.0, true},
		{"uint vs int", uint64(7), int64(7), true},
		{"different numbers", int64(2), int64(3), false},
		{"number vs string", int64(2), "2", false},
		{"sequences", []any{int64(1), "a"}, []any{1.0, "a"}, true},
		{"sequence length", []any{1}, []any{1, 2}, false},
		{"nested", MapOf("a", []any{MapOf("b", nil)}), MapOf("a", []any{MapOf("b", nil)}), true},
		{"nil", nil, nil, true},
		{"nil vs empty", NewMap(), nil, false},
		{"strings", "x", "x", true},
		{"bools", true, false, false},
		{"large ints differ by one", int64(1<<53 + 1), int64(1 << 53), false},
		{"large uints differ by one", uint64(math.MaxUint64), uint64(math.MaxUint64 - 1), false},
		{"uint above int64", uint64(1 << 63), int64(math.MinInt64), false},
		{"negative ints", int64(-5), -5, true},
		{"int vs rounded float", int64(1<<53 + 1), float64(1 << 53), false},
		{"int vs exact float", int64(1 << 60), float64(1 << 60), true},
		{"int vs fraction", int64(2), 2.5, false},
		{"uint vs negative float", uint64(1), -1.0, false},
		{"nan", math.NaN(), math.NaN(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestAsSlice(t *testing.T) {
	got, ok := asSlice([]string{"a", "b"})
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b"}, got)

	_, ok = asSlice(nil)
	assert.False(t, ok)
	_, ok = asSlice("abc")
	assert.False(t, ok)
}
