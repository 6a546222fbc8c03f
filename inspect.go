package recast

import (
	"encoding"
	"fmt"
	"reflect"
)

var (
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
)

// Inspect builds the TypeRef for a Go type.
//
// Pointers become optional, slices and arrays sequences, maps mappings,
// structs records and non-empty interfaces abstract records. Types whose
// pointer implements encoding.TextUnmarshaler are text scalars. The empty
// interface and everything else is opaque.
func Inspect(rt reflect.Type) TypeRef {
	return inspect(rt, "")
}

// inspect substitutes a ForwardRef named ref for the innermost
// non-container position of rt when ref is non-empty.
func inspect(rt reflect.Type, ref string) TypeRef {
	if rt == nil {
		return &OpaqueRef{}
	}

	switch rt.Kind() {
	case reflect.Pointer:
		return &OptionalRef{Members: []TypeRef{inspect(rt.Elem(), ref)}, Type: rt}
	case reflect.Slice, reflect.Array:
		return &SequenceRef{Elem: inspect(rt.Elem(), ref), Type: rt}
	case reflect.Map:
		return &MappingRef{Key: Inspect(rt.Key()), Value: inspect(rt.Elem(), ref), Type: rt}
	}

	if ref != "" {
		return &ForwardRef{Name: ref, Type: rt}
	}

	if rt.Kind() != reflect.Interface && reflect.PointerTo(rt).Implements(textUnmarshalerType) {
		return &ScalarRef{Scalar: ScalarText, Type: rt}
	}
	if kind := scalarKind(rt); kind != ScalarInvalid {
		return &ScalarRef{Scalar: kind, Type: rt}
	}

	switch rt.Kind() {
	case reflect.Struct:
		return &RecordRef{Type: rt}
	case reflect.Interface:
		if rt.NumMethod() == 0 {
			return &OpaqueRef{Type: rt}
		}
		return &RecordRef{Type: rt}
	default:
		return &OpaqueRef{Type: rt}
	}
}

func scalarKind(rt reflect.Type) ScalarKind {
	switch rt.Kind() {
	case reflect.Bool:
		return ScalarBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return ScalarInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return ScalarUint
	case reflect.Float32, reflect.Float64:
		return ScalarFloat
	case reflect.String:
		return ScalarString
	default:
		return ScalarInvalid
	}
}

// Shape is the structural class a TypeRef decodes as.
type Shape int

const (
	ShapePassthrough Shape = iota
	ShapeScalar
	ShapeSequence
	ShapeMapping
	ShapeRecord
)

func (s Shape) String() string {
	switch s {
	case ShapeScalar:
		return "scalar"
	case ShapeSequence:
		return "sequence"
	case ShapeMapping:
		return "mapping"
	case ShapeRecord:
		return "record"
	default:
		return "passthrough"
	}
}

// Classification is the result of classifying a TypeRef.
type Classification struct {
	Shape Shape

	// Ref is the actual type after optional and forward-reference unwrapping.
	Ref TypeRef

	// Record is the decode target for ShapeRecord: a struct, an interface,
	// or Base for ambiguous references.
	Record reflect.Type

	// Elem is the element of a sequence; Key and Value those of a mapping.
	// Optional elements and values are collapsed to their first member.
	Elem  TypeRef
	Key   TypeRef
	Value TypeRef

	// Unresolved is set when a forward reference matched nothing.
	Unresolved bool

	Warnings []Warning
}

// Classify resolves ref into the shape the decoder handles it as.
//
// Rules apply in order: optional types unwrap to their first non-nil member;
// forward references resolve by record name (no match passes the value
// through, several matches fall back to their nearest common ancestor);
// everything else classifies by its structure.
func (r *Registry) Classify(ref TypeRef) Classification {
	var c Classification

	for {
		switch t := ref.(type) {
		case *OptionalRef:
			first := t.First()
			if first == nil {
				c.Ref = ref
				c.Shape = ShapePassthrough
				return c
			}
			ref = first
			continue

		case *ForwardRef:
			target, w := r.resolveName(t.Name)
			if w != nil {
				c.Warnings = append(c.Warnings, *w)
			}
			if target == nil {
				c.Ref = ref
				c.Shape = ShapePassthrough
				c.Unresolved = true
				return c
			}
			c.Ref = &RecordRef{Type: target}
			c.Shape = ShapeRecord
			c.Record = target
			return c

		case *ScalarRef:
			c.Ref = t
			c.Shape = ShapeScalar
			return c

		case *SequenceRef:
			c.Ref = t
			c.Shape = ShapeSequence
			c.Elem = collapse(t.Elem)
			return c

		case *MappingRef:
			c.Ref = t
			c.Shape = ShapeMapping
			c.Key = t.Key
			c.Value = collapse(t.Value)
			return c

		case *RecordRef:
			c.Ref = t
			c.Shape = ShapeRecord
			c.Record = t.Type
			return c

		default:
			c.Ref = ref
			c.Shape = ShapePassthrough
			return c
		}
	}
}

// collapse reduces an optional element to its first non-nil member.
func collapse(ref TypeRef) TypeRef {
	for {
		opt, ok := ref.(*OptionalRef)
		if !ok {
			return ref
		}
		first := opt.First()
		if first == nil {
			return ref
		}
		ref = first
	}
}

// resolveName finds the record registered under name.
func (r *Registry) resolveName(name string) (reflect.Type, *Warning) {
	matches := r.Lookup(name)

	switch len(matches) {
	case 0:
		return nil, &Warning{
			Code:    WarnUnresolvedReference,
			Message: fmt.Sprintf("no registered record named %q; value passed through", name),
		}
	case 1:
		return matches[0].Type, nil
	}

	common := r.commonAncestor(matches)
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.Type.String()
	}
	return common, &Warning{
		Code:    WarnAmbiguousReference,
		Message: fmt.Sprintf("%d records named %q %v; decoding as %s", len(matches), name, names, common),
	}
}

// commonAncestor returns the nearest registered type that every schema is
// or descends from, or Base when there is none.
func (r *Registry) commonAncestor(schemas []*Schema) reflect.Type {
	first := schemas[0]
	lineage := append([]reflect.Type{first.Type}, first.Ancestors...)

	for _, candidate := range lineage {
		if !r.IsRegistered(candidate) {
			continue
		}
		shared := true
		for _, other := range schemas[1:] {
			if !other.is(candidate) {
				shared = false
				break
			}
		}
		if shared {
			return candidate
		}
	}
	return baseType
}
