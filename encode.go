package recast

import (
	"context"
	"encoding"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/spf13/cast"
)

// EncodeRecord encodes a record into a tree mapping holding its encodable
// fields in declaration order. v may be a struct or a pointer to one.
// Encoding never mutates v.
func (r *Registry) EncodeRecord(v any) (*Map, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("%w: nil %T", ErrNotRecord, v)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %T", ErrNotRecord, v)
	}

	ctx := context.Background()
	typeName := rv.Type().String()
	start := time.Now()
	emitEncodeStart(ctx, typeName)

	m, err := r.encodeRecord(rv)
	emitEncodeComplete(ctx, typeName, m.Len(), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Encode converts any supported value into a tree. Records become
// mappings, slices and arrays sequences, maps mappings with string keys,
// and scalars their canonical tree form. Values implementing
// encoding.TextMarshaler encode as their text.
func (r *Registry) Encode(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return r.encodeValue(reflect.ValueOf(v))
}

func (r *Registry) encodeRecord(rv reflect.Value) (*Map, error) {
	schema, _, err := r.schemaFor(rv.Type())
	if err != nil {
		return nil, err
	}

	out := NewMap()
	for _, f := range schema.Fields {
		if !f.Encode {
			continue
		}
		value, err := r.encodeValue(rv.FieldByIndex(f.Index))
		if err != nil {
			return nil, fmt.Errorf("field %s of %s: %w", f.Name, schema.Name, err)
		}
		out.Set(f.Name, value)
	}
	return out, nil
}

func (r *Registry) encodeValue(rv reflect.Value) (any, error) {
	if !rv.IsValid() {
		return nil, nil
	}
	if fn, ok := r.encoder(rv.Type()); ok {
		return fn(rv.Interface())
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		if rv.Kind() == reflect.Pointer {
			if m, ok := rv.Interface().(*Map); ok {
				return r.encodeMap(m)
			}
		}
		return r.encodeValue(rv.Elem())
	}

	if rv.Type().Implements(textMarshalerType) {
		text, err := rv.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnencodable, rv.Type(), err)
		}
		return string(text), nil
	}

	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.String:
		return rv.String(), nil

	case reflect.Struct:
		return r.encodeRecord(rv)

	case reflect.Slice:
		if rv.IsNil() {
			return nil, nil
		}
		return r.encodeSequence(rv)
	case reflect.Array:
		return r.encodeSequence(rv)

	case reflect.Map:
		if rv.IsNil() {
			return nil, nil
		}
		return r.encodeGoMap(rv)
	}

	return nil, fmt.Errorf("%w: %s", ErrUnencodable, rv.Type())
}

func (r *Registry) encodeSequence(rv reflect.Value) ([]any, error) {
	out := make([]any, rv.Len())
	for i := range out {
		v, err := r.encodeValue(rv.Index(i))
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (r *Registry) encodeMap(m *Map) (*Map, error) {
	out := NewMap()
	var err error
	m.Range(func(k string, v any) bool {
		var enc any
		enc, err = r.Encode(v)
		if err != nil {
			err = fmt.Errorf("key %q: %w", k, err)
			return false
		}
		out.Set(k, enc)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// encodeGoMap converts a Go map. Go maps carry no order, so keys are
// sorted by their string form.
func (r *Registry) encodeGoMap(rv reflect.Value) (*Map, error) {
	type entry struct {
		key   string
		value reflect.Value
	}
	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key, err := mapKey(iter.Key())
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{key: key, value: iter.Value()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	out := NewMap()
	for _, e := range entries {
		v, err := r.encodeValue(e.value)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", e.key, err)
		}
		out.Set(e.key, v)
	}
	return out, nil
}

func mapKey(k reflect.Value) (string, error) {
	if k.Kind() == reflect.String {
		return k.String(), nil
	}
	if tm, ok := k.Interface().(encoding.TextMarshaler); ok {
		text, err := tm.MarshalText()
		if err != nil {
			return "", fmt.Errorf("%w: map key %s: %v", ErrUnencodable, k.Type(), err)
		}
		return string(text), nil
	}
	if scalarKind(k.Type()) == ScalarInvalid {
		return "", fmt.Errorf("%w: map key %s", ErrUnencodable, k.Type())
	}
	s, err := cast.ToStringE(k.Interface())
	if err != nil {
		// cast does not know named scalar types; reduce to the builtin kind.
		s, err = cast.ToStringE(k.Convert(builtinOf(k.Type())).Interface())
		if err != nil {
			return "", fmt.Errorf("%w: map key %s: %v", ErrUnencodable, k.Type(), err)
		}
	}
	return s, nil
}

func builtinOf(rt reflect.Type) reflect.Type {
	switch rt.Kind() {
	case reflect.Bool:
		return reflect.TypeFor[bool]()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return reflect.TypeFor[int64]()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return reflect.TypeFor[uint64]()
	case reflect.Float32, reflect.Float64:
		return reflect.TypeFor[float64]()
	default:
		return reflect.TypeFor[string]()
	}
}
