// Package testing provides fixture records and helpers for recast tests.
package testing

import (
	"reflect"
	"sync"
	"testing"

	"github.com/zoobzio/recast"
	"github.com/zoobzio/recast/json"
)

// Point is a flat record with no subtypes.
type Point struct {
	X int `recast:"x"`
	Y int `recast:"y"`
}

// Figure is implemented by every record in the Shape hierarchy.
type Figure interface {
	Label() string
}

// Shape is the root of a subtype hierarchy that decodes into subtypes.
type Shape struct {
	Name string `recast:"name"`
}

// Label implements Figure.
func (s *Shape) Label() string { return s.Name }

// Circle is a Shape with a radius.
type Circle struct {
	Shape
	Radius float64 `recast:"radius"`
}

// Square is a Shape with a side.
type Square struct {
	Shape
	Side float64 `recast:"side"`
}

// ColoredCircle is a Circle with a color.
type ColoredCircle struct {
	Circle
	Color string `recast:"color"`
}

// Drawing holds polymorphic figures and plain nested records.
type Drawing struct {
	Title   string            `recast:"title"`
	Origin  Point             `recast:"origin"`
	Figures []Figure          `recast:"figures"`
	Tags    map[string]string `recast:"tags"`
}

// Node is a recursive record whose children are resolved by name.
type Node struct {
	Value    int     `recast:"value"`
	Children []*Node `recast:"children,ref=Node"`
}

// Config mixes optional, deferred and unencoded fields.
type Config struct {
	Name    string  `json:"name"`
	Retries *int    `recast:"retries"`
	Version int     `recast:"version,noinit"`
	Secret  string  `recast:"secret,noencode"`
	Ignored string  `recast:"-"`
	Parent  *Config `recast:"parent"`
}

// NewRegistry returns a registry with every fixture registered. Shape and
// its subtypes decode into subtypes; Point and Config do not.
func NewRegistry(tb testing.TB) *recast.Registry {
	tb.Helper()
	r := recast.NewRegistry()
	Register[Point](tb, r)
	Register[Shape](tb, r, recast.WithDecodeIntoSubtypes(true))
	Register[Circle](tb, r)
	Register[Square](tb, r)
	Register[ColoredCircle](tb, r)
	Register[Drawing](tb, r)
	Register[Node](tb, r)
	Register[Config](tb, r)
	return r
}

// Register adds T to r, failing the test on error.
func Register[T any](tb testing.TB, r *recast.Registry, opts ...recast.RegisterOption) *recast.Schema {
	tb.Helper()
	s, err := recast.RegisterIn[T](r, opts...)
	if err != nil {
		tb.Fatalf("Register[%s]() error: %v", reflect.TypeFor[T](), err)
	}
	return s
}

// Tree parses a JSON document into a tree, failing the test on error.
func Tree(tb testing.TB, doc string) any {
	tb.Helper()
	v, err := json.New().Unmarshal([]byte(doc))
	if err != nil {
		tb.Fatalf("parse %q: %v", doc, err)
	}
	return v
}

// Warnings collects the warnings of decode calls made with its Option.
type Warnings struct {
	mu   sync.Mutex
	list []recast.Warning
}

// Option returns a decode option recording into w.
func (w *Warnings) Option() recast.DecodeOption {
	return recast.OnWarning(func(warn recast.Warning) {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.list = append(w.list, warn)
	})
}

// Codes returns the recorded warning codes in order.
func (w *Warnings) Codes() []recast.WarningCode {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]recast.WarningCode, len(w.list))
	for i, warn := range w.list {
		out[i] = warn.Code
	}
	return out
}

// All returns the recorded warnings.
func (w *Warnings) All() []recast.Warning {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]recast.Warning, len(w.list))
	copy(out, w.list)
	return out
}
