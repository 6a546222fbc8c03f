package recast

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// assign stores a decoded value into dst, converting tree shapes into the
// destination's Go type: scalars are coerced, sequences and mappings are
// rebuilt element by element, pointers are taken or followed, and a
// decoded subtype is narrowed to an embedded ancestor when dst is a
// concrete struct.
func assign(dst reflect.Value, v any) error {
	dt := dst.Type()
	if v == nil {
		dst.Set(reflect.Zero(dt))
		return nil
	}

	src := reflect.ValueOf(v)
	if src.Type().AssignableTo(dt) {
		dst.Set(src)
		return nil
	}

	switch dt.Kind() {
	case reflect.Pointer:
		if src.Kind() == reflect.Pointer && src.IsNil() {
			dst.Set(reflect.Zero(dt))
			return nil
		}
		p := reflect.New(dt.Elem())
		if err := assign(p.Elem(), v); err != nil {
			return err
		}
		dst.Set(p)
		return nil

	case reflect.Interface:
		if src.Kind() == reflect.Pointer && !src.IsNil() && src.Elem().Type().AssignableTo(dt) {
			dst.Set(src.Elem())
			return nil
		}
		return fmt.Errorf("%T does not implement %s", v, dt)

	case reflect.Struct:
		if src.Kind() == reflect.Pointer && !src.IsNil() {
			if src.Elem().Type() == dt {
				dst.Set(src.Elem())
				return nil
			}
			if part, ok := embedded(src.Elem(), dt); ok {
				Logger().Warn("narrowed decoded record",
					zap.String("from", src.Elem().Type().String()),
					zap.String("to", dt.String()),
					zap.String("code", string(WarnNarrowed)))
				dst.Set(part)
				return nil
			}
		}
	}

	if reflect.PointerTo(dt).Implements(textUnmarshalerType) || scalarKind(dt) != ScalarInvalid {
		out, err := coerce(dt, v)
		if err != nil {
			return &CoercionError{Kind: dt.String(), Value: v, Cause: err}
		}
		dst.Set(out)
		return nil
	}

	switch dt.Kind() {
	case reflect.Slice:
		items, ok := asSlice(v)
		if !ok {
			break
		}
		out := reflect.MakeSlice(dt, len(items), len(items))
		for i, item := range items {
			if err := assign(out.Index(i), item); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
		dst.Set(out)
		return nil

	case reflect.Array:
		items, ok := asSlice(v)
		if !ok {
			break
		}
		if len(items) > dt.Len() {
			return fmt.Errorf("%d items overflow %s", len(items), dt)
		}
		out := reflect.New(dt).Elem()
		for i, item := range items {
			if err := assign(out.Index(i), item); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
		dst.Set(out)
		return nil

	case reflect.Map:
		m, ok := asMap(v)
		if !ok {
			break
		}
		out := reflect.MakeMapWithSize(dt, m.Len())
		var err error
		m.Range(func(key string, value any) bool {
			k, kerr := coerce(dt.Key(), key)
			if kerr != nil {
				err = &CoercionError{Field: key, Kind: dt.Key().String(), Value: key, Cause: kerr}
				return false
			}
			elem := reflect.New(dt.Elem()).Elem()
			if verr := assign(elem, value); verr != nil {
				err = fmt.Errorf("key %q: %w", key, verr)
				return false
			}
			out.SetMapIndex(k, elem)
			return true
		})
		if err != nil {
			return err
		}
		dst.Set(out)
		return nil
	}

	return &CoercionError{Kind: dt.String(), Value: v, Cause: fmt.Errorf("cannot assign %T", v)}
}

// embedded finds the value of type want embedded, at any depth, in the
// struct value v.
func embedded(v reflect.Value, want reflect.Type) (reflect.Value, bool) {
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	queue := []reflect.Value{v}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for i := 0; i < cur.NumField(); i++ {
			sf := cur.Type().Field(i)
			if !sf.Anonymous || sf.Type.Kind() != reflect.Struct {
				continue
			}
			if sf.Type == want && sf.IsExported() {
				return cur.Field(i), true
			}
			queue = append(queue, cur.Field(i))
		}
	}
	return reflect.Value{}, false
}

// convertResult turns a decoded value into T.
func convertResult[T any](v any) (T, error) {
	var out T
	if v == nil {
		return out, nil
	}
	if typed, ok := v.(T); ok {
		return typed, nil
	}
	dst := reflect.ValueOf(&out).Elem()
	if err := assign(dst, v); err != nil {
		return out, err
	}
	return out, nil
}
