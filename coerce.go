package recast

import (
	"encoding"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// coerce converts a raw scalar to rt the way a kind's constructor would:
// numbers parse from strings, floats truncate to integers, and so on.
// nil yields the zero value.
func coerce(rt reflect.Type, raw any) (reflect.Value, error) {
	out := reflect.New(rt).Elem()
	if raw == nil {
		return out, nil
	}

	if reflect.PointerTo(rt).Implements(textUnmarshalerType) && rt.Kind() != reflect.Interface {
		return unmarshalText(rt, raw)
	}

	switch scalarKind(rt) {
	case ScalarBool:
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return out, err
		}
		out.SetBool(b)

	case ScalarInt:
		n, err := toInt64(raw)
		if err != nil {
			return out, err
		}
		if out.OverflowInt(n) {
			return out, fmt.Errorf("%d overflows %s", n, rt)
		}
		out.SetInt(n)

	case ScalarUint:
		n, err := toUint64(raw)
		if err != nil {
			return out, err
		}
		if out.OverflowUint(n) {
			return out, fmt.Errorf("%d overflows %s", n, rt)
		}
		out.SetUint(n)

	case ScalarFloat:
		f, err := cast.ToFloat64E(raw)
		if err != nil {
			return out, err
		}
		if out.OverflowFloat(f) {
			return out, fmt.Errorf("%g overflows %s", f, rt)
		}
		out.SetFloat(f)

	case ScalarString:
		if isComposite(raw) {
			return out, fmt.Errorf("%T is not a scalar", raw)
		}
		s, err := cast.ToStringE(raw)
		if err != nil {
			return out, err
		}
		out.SetString(s)

	default:
		return out, fmt.Errorf("%s is not a scalar type", rt)
	}
	return out, nil
}

// Bounds of the integer ranges as floats. 1<<63 and 1<<64 are exact.
const (
	minInt64Float  = -(1 << 63)
	maxInt64Float  = 1 << 63
	maxUint64Float = 1 << 64
)

// toInt64 converts raw to an integer without wrapping: strings parse in
// base 10 only, floats truncate but must fit, and uint64 values above
// math.MaxInt64 are rejected.
func toInt64(raw any) (int64, error) {
	switch v := raw.(type) {
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", v)
		}
		return int64(v), nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", v)
		}
		return int64(v), nil
	case float32:
		return floatToInt64(float64(v))
	case float64:
		return floatToInt64(v)
	}
	if isComposite(raw) {
		return 0, fmt.Errorf("%T is not a scalar", raw)
	}
	return cast.ToInt64E(raw)
}

func floatToInt64(f float64) (int64, error) {
	if math.IsNaN(f) || f < minInt64Float || f >= maxInt64Float {
		return 0, fmt.Errorf("%g overflows int64", f)
	}
	return int64(f), nil
}

// toUint64 is toInt64 for unsigned targets. Negative values are rejected.
func toUint64(raw any) (uint64, error) {
	switch v := raw.(type) {
	case string:
		return strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	case float32:
		return floatToUint64(float64(v))
	case float64:
		return floatToUint64(v)
	}
	if isComposite(raw) {
		return 0, fmt.Errorf("%T is not a scalar", raw)
	}
	return cast.ToUint64E(raw)
}

func floatToUint64(f float64) (uint64, error) {
	if math.IsNaN(f) || f < 0 || f >= maxUint64Float {
		return 0, fmt.Errorf("%g is out of range for uint64", f)
	}
	return uint64(f), nil
}

func unmarshalText(rt reflect.Type, raw any) (reflect.Value, error) {
	ptr := reflect.New(rt)
	text, err := cast.ToStringE(raw)
	if err != nil {
		return ptr.Elem(), err
	}
	if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text)); err != nil {
		return ptr.Elem(), err
	}
	return ptr.Elem(), nil
}

// isComposite reports tree mappings and sequences, which cast would
// otherwise stringify or reject inconsistently.
func isComposite(v any) bool {
	switch v.(type) {
	case *Map, map[string]any, []any:
		return true
	}
	return false
}

// coerceField converts raw for a scalar field, wrapping failures. A null
// is rejected; optional fields never reach here with one.
func coerceField(owner *Schema, f *Field, rt reflect.Type, raw any) (any, error) {
	if raw == nil {
		ce := &CoercionError{Field: f.Name, Kind: rt.String(), Cause: errors.New("null is not a value")}
		if owner != nil {
			ce.Type = owner.Name
		}
		return nil, ce
	}
	v, err := coerce(rt, raw)
	if err != nil {
		ce := &CoercionError{Field: f.Name, Kind: rt.String(), Value: raw, Cause: err}
		if owner != nil {
			ce.Type = owner.Name
		}
		return nil, ce
	}
	return v.Interface(), nil
}
