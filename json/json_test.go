package json

import (
	"testing"

	"github.com/zoobzio/recast"
)

func TestNew(t *testing.T) {
	c := New()
	if c == nil {
		t.Error("New() should return non-nil codec")
	}
}

func TestContentType(t *testing.T) {
	c := New()
	if c.ContentType() != "application/json" {
		t.Errorf("ContentType() = %q, want %q", c.ContentType(), "application/json")
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	c := New()

	original := recast.MapOf(
		"name", "test",
		"value", int64(42),
		"ratio", 0.5,
		"tags", []any{"a", "b"},
		"nested", recast.MapOf("z", true, "a", nil),
	)

	data, err := c.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	restored, err := c.Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	if !recast.Equal(original, restored) {
		t.Errorf("round-trip failed: got %v, want %v", restored, original)
	}
}

func TestMarshalKeyOrder(t *testing.T) {
	c := New()

	data, err := c.Marshal(recast.MapOf("b", int64(1), "a", int64(2)))
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if string(data) != `{"b":1,"a":2}` {
		t.Errorf("Marshal() = %s, want insertion order", data)
	}
}

func TestUnmarshalKeyOrder(t *testing.T) {
	c := New()

	v, err := c.Unmarshal([]byte(`{"zeta": 1, "alpha": {"y": 2, "x": 3}}`))
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	m, ok := v.(*recast.Map)
	if !ok {
		t.Fatalf("Unmarshal() returned %T, want *recast.Map", v)
	}
	if keys := m.Keys(); len(keys) != 2 || keys[0] != "zeta" || keys[1] != "alpha" {
		t.Errorf("keys = %v, want [zeta alpha]", keys)
	}
	inner, _ := m.Get("alpha")
	if keys := inner.(*recast.Map).Keys(); keys[0] != "y" || keys[1] != "x" {
		t.Errorf("nested keys = %v, want [y x]", keys)
	}
}

func TestUnmarshalNumbers(t *testing.T) {
	c := New()

	v, err := c.Unmarshal([]byte(`[1, -2, 2.5, 18446744073709551615, 1e3]`))
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	items := v.([]any)
	if _, ok := items[0].(int64); !ok {
		t.Errorf("items[0] is %T, want int64", items[0])
	}
	if items[1] != int64(-2) {
		t.Errorf("items[1] = %v, want -2", items[1])
	}
	if items[2] != 2.5 {
		t.Errorf("items[2] = %v, want 2.5", items[2])
	}
	if items[3] != uint64(18446744073709551615) {
		t.Errorf("items[3] = %v (%T), want max uint64", items[3], items[3])
	}
	if items[4] != 1000.0 {
		t.Errorf("items[4] = %v (%T), want float64 1000", items[4], items[4])
	}
}

func TestMarshalNil(t *testing.T) {
	c := New()

	data, err := c.Marshal(nil)
	if err != nil {
		t.Fatalf("Marshal(nil) error: %v", err)
	}
	if string(data) != "null" {
		t.Errorf("Marshal(nil) = %q, want %q", string(data), "null")
	}

	v, err := c.Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal(null) error: %v", err)
	}
	if v != nil {
		t.Errorf("Unmarshal(null) = %v, want nil", v)
	}
}

func TestUnmarshalEmptyContainers(t *testing.T) {
	c := New()

	v, err := c.Unmarshal([]byte(`{"items": [], "meta": {}}`))
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	m := v.(*recast.Map)
	items, _ := m.Get("items")
	if s, ok := items.([]any); !ok || len(s) != 0 {
		t.Errorf("items = %#v, want empty slice", items)
	}
	meta, _ := m.Get("meta")
	if mm, ok := meta.(*recast.Map); !ok || mm.Len() != 0 {
		t.Errorf("meta = %#v, want empty map", meta)
	}
}

func TestUnmarshalInvalid(t *testing.T) {
	c := New()

	for _, input := range []string{`{invalid`, ``, `{"a": 1} {"b": 2}`, `[1, 2`} {
		if _, err := c.Unmarshal([]byte(input)); err == nil {
			t.Errorf("Unmarshal(%q) should fail", input)
		}
	}
}
