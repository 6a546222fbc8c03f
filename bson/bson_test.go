package bson

import (
	"errors"
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
	if c.ContentType() != "application/bson" {
		t.Errorf("ContentType() = %q, want %q", c.ContentType(), "application/bson")
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	c := New()

	original := recast.MapOf(
		"name", "test",
		"value", int64(42),
		"ratio", 0.75,
		"ok", true,
		"none", nil,
		"points", []any{
			recast.MapOf("y", int64(2), "x", int64(1)),
			recast.MapOf("y", int64(4), "x", int64(3)),
		},
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

func TestKeyOrder(t *testing.T) {
	c := New()

	data, err := c.Marshal(recast.MapOf("zeta", "z", "alpha", "a"))
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	v, err := c.Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	keys := v.(*recast.Map).Keys()
	if len(keys) != 2 || keys[0] != "zeta" || keys[1] != "alpha" {
		t.Errorf("keys = %v, want [zeta alpha]", keys)
	}
}

func TestMarshalNonDocument(t *testing.T) {
	c := New()

	for _, v := range []any{[]any{int64(1)}, "scalar", nil} {
		if _, err := c.Marshal(v); !errors.Is(err, ErrNotDocument) {
			t.Errorf("Marshal(%v) error = %v, want ErrNotDocument", v, err)
		}
	}
}

func TestMarshalUintOverflow(t *testing.T) {
	c := New()

	if _, err := c.Marshal(recast.MapOf("n", uint64(1<<63))); err == nil {
		t.Error("Marshal() should reject uint64 beyond int64")
	}
	data, err := c.Marshal(recast.MapOf("n", uint64(7)))
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	v, _ := c.Unmarshal(data)
	if n, _ := v.(*recast.Map).Get("n"); n != int64(7) {
		t.Errorf("n = %v (%T), want int64 7", n, n)
	}
}

func TestUnmarshalInvalid(t *testing.T) {
	c := New()

	if _, err := c.Unmarshal([]byte("invalid bson")); err == nil {
		t.Error("Unmarshal(invalid) should return error")
	}
}
