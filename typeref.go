package recast

import (
	"fmt"
	"reflect"
)

// RefKind identifies a TypeRef variant.
type RefKind int

const (
	RefUnknown  RefKind = iota
	RefScalar           // bool, integers, floats, strings, text-marshaled types
	RefOptional         // pointer; decoded as its first non-nil member
	RefSequence         // slice or array
	RefMapping          // map
	RefForward          // record named by string, resolved at decode time
	RefRecord           // struct record, or an interface records implement
	RefOpaque           // anything else; decoded by pass-through
)

// String returns a human-readable representation of the RefKind.
func (k RefKind) String() string {
	switch k {
	case RefScalar:
		return "scalar"
	case RefOptional:
		return "optional"
	case RefSequence:
		return "sequence"
	case RefMapping:
		return "mapping"
	case RefForward:
		return "forward"
	case RefRecord:
		return "record"
	case RefOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// ScalarKind is the terminal kind of a ScalarRef.
type ScalarKind int

const (
	ScalarInvalid ScalarKind = iota
	ScalarBool
	ScalarInt
	ScalarUint
	ScalarFloat
	ScalarString
	ScalarText // encoding.TextMarshaler / TextUnmarshaler types
)

func (k ScalarKind) String() string {
	switch k {
	case ScalarBool:
		return "bool"
	case ScalarInt:
		return "int"
	case ScalarUint:
		return "uint"
	case ScalarFloat:
		return "float"
	case ScalarString:
		return "string"
	case ScalarText:
		return "text"
	default:
		return "invalid"
	}
}

// TypeRef is the declared type of a field, built once when a schema is
// built. The variant set is closed: *ScalarRef, *OptionalRef,
// *SequenceRef, *MappingRef, *ForwardRef, *RecordRef and *OpaqueRef.
type TypeRef interface {
	Kind() RefKind
	GoType() reflect.Type
	String() string
}

// ScalarRef is a terminal scalar type.
type ScalarRef struct {
	Scalar ScalarKind
	Type   reflect.Type
}

func (r *ScalarRef) Kind() RefKind        { return RefScalar }
func (r *ScalarRef) GoType() reflect.Type { return r.Type }
func (r *ScalarRef) String() string       { return r.Type.String() }

// Builtin reports whether the scalar is a predeclared Go type such as int
// or string, as opposed to a named type built on one.
func (r *ScalarRef) Builtin() bool {
	return r.Scalar != ScalarText && r.Type.PkgPath() == "" && r.Type.Name() == r.Type.Kind().String()
}

// OptionalRef is a type that may be absent. Members lists the non-nil
// alternatives in order; decoding uses the first.
type OptionalRef struct {
	Members []TypeRef
	Type    reflect.Type
}

func (r *OptionalRef) Kind() RefKind        { return RefOptional }
func (r *OptionalRef) GoType() reflect.Type { return r.Type }
func (r *OptionalRef) String() string {
	if len(r.Members) == 0 {
		return "optional[]"
	}
	return fmt.Sprintf("optional[%s]", r.Members[0])
}

// First returns the first non-nil member, or nil if there is none.
func (r *OptionalRef) First() TypeRef {
	if len(r.Members) == 0 {
		return nil
	}
	return r.Members[0]
}

// SequenceRef is a slice or array of Elem.
type SequenceRef struct {
	Elem TypeRef
	Type reflect.Type
}

func (r *SequenceRef) Kind() RefKind        { return RefSequence }
func (r *SequenceRef) GoType() reflect.Type { return r.Type }
func (r *SequenceRef) String() string       { return fmt.Sprintf("sequence[%s]", r.Elem) }

// MappingRef is a map from Key to Value.
type MappingRef struct {
	Key   TypeRef
	Value TypeRef
	Type  reflect.Type
}

func (r *MappingRef) Kind() RefKind        { return RefMapping }
func (r *MappingRef) GoType() reflect.Type { return r.Type }
func (r *MappingRef) String() string {
	return fmt.Sprintf("mapping[%s]%s", r.Key, r.Value)
}

// ForwardRef names a record type that is looked up in the registry when a
// value is decoded. Type is the Go type of the field position it fills,
// usually an interface.
type ForwardRef struct {
	Name string
	Type reflect.Type
}

func (r *ForwardRef) Kind() RefKind        { return RefForward }
func (r *ForwardRef) GoType() reflect.Type { return r.Type }
func (r *ForwardRef) String() string       { return fmt.Sprintf("ref[%s]", r.Name) }

// RecordRef is a nested record. An interface Type is abstract: any
// registered record implementing it is a candidate.
type RecordRef struct {
	Type reflect.Type
}

func (r *RecordRef) Kind() RefKind        { return RefRecord }
func (r *RecordRef) GoType() reflect.Type { return r.Type }
func (r *RecordRef) String() string       { return fmt.Sprintf("record[%s]", r.Type) }

// Abstract reports whether the record is an interface type.
func (r *RecordRef) Abstract() bool {
	return r.Type.Kind() == reflect.Interface
}

// OpaqueRef is a type with no structural meaning, such as any.
type OpaqueRef struct {
	Type reflect.Type
}

func (r *OpaqueRef) Kind() RefKind { return RefOpaque }
func (r *OpaqueRef) GoType() reflect.Type {
	return r.Type
}
func (r *OpaqueRef) String() string {
	if r.Type == nil {
		return "opaque"
	}
	return fmt.Sprintf("opaque[%s]", r.Type)
}
