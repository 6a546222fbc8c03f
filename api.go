// Package recast rebuilds typed record graphs from loosely typed trees and
// encodes records back into trees.
//
// A tree is the neutral form every codec reads and writes: an ordered *Map
// for mappings, []any for sequences, and nil, bool, int64, uint64, float64
// or string for scalars. Records are Go structs registered with a Registry.
//
// # Inheritance
//
// Embedding a struct makes the embedding type a subtype of it. Embedded
// fields are flattened ahead of the type's own fields:
//
//	type Shape struct {
//	    Name string `recast:"name"`
//	}
//
//	type Circle struct {
//	    Shape
//	    Radius float64 `recast:"radius"`
//	}
//
//	recast.MustRegister[Shape](recast.WithDecodeIntoSubtypes(true))
//	recast.MustRegister[Circle]()
//
// Decoding a mapping into Shape that carries an undeclared "radius" key
// yields a *Circle: the registered subtype with the fewest constructor
// fields that still declares every key is chosen. Records that leave
// DecodeIntoSubtypes off drop undeclared keys instead, with a warning.
//
// Interfaces act as abstract records. Decoding into an interface considers
// every registered record whose pointer implements it, and decoding into
// Base considers every registered record.
//
// # Tag Syntax
//
//	recast:"name,noinit,noencode,required,ref=TypeName"
//
//   - name: tree key; defaults to the json tag name, then the Go field name
//   - noinit: assigned after construction instead of passed to the constructor
//   - noencode: omitted by the encoder
//   - required: the default constructor fails when the key is absent
//   - ref=TypeName: the field's record type is resolved by registered name
//     at decode time; several matches decode as their common ancestor
//
// A tag of "-" removes the field.
//
// # Basic Usage
//
//	tree, _ := recast.ToDict(circle)
//	data, _ := json.New().Marshal(tree)
//
//	raw, _ := json.New().Unmarshal(data)
//	shape, _ := recast.FromDict[*Shape](raw)
//
// Serializer bundles both halves with a Codec:
//
//	s, _ := recast.Use[*Shape](yaml.New())
//	data, _ := s.Dumps(circle)
//	back, _ := s.Loads(data)
//
// # Codec Providers
//
// The following codec implementations are available as sub-packages, each
// preserving mapping key order:
//
//   - json - JSON encoding (application/json)
//   - yaml - YAML encoding (application/yaml)
//   - msgpack - MessagePack encoding (application/msgpack)
//   - bson - BSON encoding (application/bson)
//
// The file package picks one of them by file extension.
//
// # Observability
//
// Decode and encode operations emit capitan signals (see signals.go).
// Warnings are also written to the zap logger installed with SetLogger and
// passed to the OnWarning hook of the call.
package recast

import (
	"context"
	"reflect"
)

// ToDict encodes a record into a tree mapping using the default registry.
func ToDict(v any) (*Map, error) {
	return defaultRegistry.EncodeRecord(v)
}

// Encode encodes any supported value into a tree using the default registry.
func Encode(v any) (any, error) {
	return defaultRegistry.Encode(v)
}

// Decode decodes tree into a record of type rt using the default registry.
// The result is a pointer to the concrete record chosen.
func Decode(ctx context.Context, rt reflect.Type, tree any, opts ...DecodeOption) (any, error) {
	return defaultRegistry.DecodeRecord(ctx, rt, tree, opts...)
}

// FromDict decodes tree into T using the default registry. T may be a
// struct, a pointer to one, or an interface records implement.
func FromDict[T any](tree any, opts ...DecodeOption) (T, error) {
	return DecodeAs[T](context.Background(), defaultRegistry, tree, opts...)
}

// DecodeAs decodes tree into T using r.
//
// When T is a struct or struct pointer and a subtype was chosen, the result
// keeps only T's part of it. Decode into an interface the records implement,
// or call Registry.DecodeRecord, to keep the subtype.
func DecodeAs[T any](ctx context.Context, r *Registry, tree any, opts ...DecodeOption) (T, error) {
	v, err := r.DecodeRecord(ctx, reflect.TypeFor[T](), tree, opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	return convertResult[T](v)
}
