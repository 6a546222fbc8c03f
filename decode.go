package recast

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"time"

	"go.uber.org/zap"
)

// DecodeOption configures a single decode call.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	drop      *bool
	strict    bool
	onWarning func(Warning)
}

// DropExtraFields sets whether undeclared keys are discarded (true) or
// drive subtype selection (false). When unset, each record uses
// !DecodeIntoSubtypes, and Base uses false.
func DropExtraFields(drop bool) DecodeOption {
	return func(c *decodeConfig) {
		c.drop = &drop
	}
}

// Strict turns an unresolved forward reference into an error instead of
// passing the raw value through.
func Strict() DecodeOption {
	return func(c *decodeConfig) {
		c.strict = true
	}
}

// OnWarning registers a callback receiving every warning of the call.
func OnWarning(fn func(Warning)) DecodeOption {
	return func(c *decodeConfig) {
		c.onWarning = fn
	}
}

// decodeState is the per-call state. Nothing in it is shared between calls.
type decodeState struct {
	ctx      context.Context
	reg      *Registry
	cfg      decodeConfig
	warnings int
}

// DecodeRecord decodes raw into a record of type rt, or of a registered
// subtype chosen from the keys raw carries. The result is a pointer to the
// concrete record, or nil when raw is nil.
func (r *Registry) DecodeRecord(ctx context.Context, rt reflect.Type, raw any, opts ...DecodeOption) (any, error) {
	st := &decodeState{ctx: ctx, reg: r}
	for _, opt := range opts {
		opt(&st.cfg)
	}
	for rt != nil && rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt == nil {
		return nil, fmt.Errorf("%w: nil type", ErrNotRecord)
	}

	start := time.Now()
	emitDecodeStart(ctx, rt.String())
	v, err := st.decodeRecord(rt, raw, st.cfg.drop)
	emitDecodeComplete(ctx, rt.String(), resultType(v), time.Since(start), st.warnings, err)
	return v, err
}

func resultType(v any) string {
	if v == nil {
		return ""
	}
	return reflect.TypeOf(v).String()
}

func (st *decodeState) warn(w Warning) {
	st.warnings++
	Logger().Warn(w.Message,
		zap.String("code", string(w.Code)),
		zap.String("type", w.Type),
		zap.String("field", w.Field))
	emitWarning(st.ctx, w)
	if st.cfg.onWarning != nil {
		st.cfg.onWarning(w)
	}
}

// decodeRecord rebuilds a record of type rt from raw. drop nil means the
// caller left the extra-field policy unset.
func (st *decodeState) decodeRecord(rt reflect.Type, raw any, drop *bool) (any, error) {
	if raw == nil {
		return nil, nil
	}

	schema, participates, err := st.reg.schemaFor(rt)
	if err != nil {
		return nil, err
	}

	src, ok := asMap(raw)
	if !ok {
		return nil, &CoercionError{Type: schema.Name, Kind: "record " + schema.Name, Value: raw,
			Cause: fmt.Errorf("expected a mapping, got %T", raw)}
	}
	obj := src.Clone()

	dropExtra := false
	switch {
	case drop != nil:
		dropExtra = *drop
	case schema.Abstract():
		dropExtra = false
	default:
		dropExtra = !schema.DecodeIntoSubtypes
	}

	initArgs := NewMap()
	deferred := NewMap()
	for i := range schema.Fields {
		f := &schema.Fields[i]
		value, ok := obj.Pop(f.Name)
		if !ok {
			st.warn(Warning{
				Code:    WarnMissingField,
				Type:    schema.Name,
				Field:   f.Name,
				Message: fmt.Sprintf("field %q not found in keys %v", f.Name, src.Keys()),
			})
			continue
		}

		decoded, err := st.decodeField(schema, f, value)
		if err != nil {
			return nil, err
		}
		if f.Init {
			initArgs.Set(f.Name, decoded)
		} else {
			deferred.Set(f.Name, decoded)
		}
	}

	extra := obj
	if extra.Len() > 0 {
		switch {
		case dropExtra:
			st.warn(Warning{
				Code:    WarnExtraFieldsDropped,
				Type:    schema.Name,
				Message: fmt.Sprintf("dropped undeclared keys %v", extra.Keys()),
			})
			extra = NewMap()

		case participates:
			required := append(initArgs.Keys(), extra.Keys()...)
			if sub := st.selectSubtype(schema, required); sub != nil {
				emitSubtypeSelected(st.ctx, schema.Name, sub.Name, len(required))
				Logger().Debug("decoding into subtype",
					zap.String("type", schema.Name),
					zap.String("subtype", sub.Name),
					zap.Strings("keys", required))
				keep := false
				return st.decodeRecord(sub.Type, raw, &keep)
			}

		default:
			return nil, &SchemaMismatchError{Type: schema.Name, Keys: extra.Keys()}
		}
	}

	extra.Range(func(k string, v any) bool {
		initArgs.Set(k, v)
		return true
	})

	instance, err := schema.construct(initArgs)
	if err != nil {
		return nil, &ReconstructionError{Type: schema.Name, Args: initArgs.Keys(), Cause: err}
	}

	if deferred.Len() > 0 {
		target := reflect.ValueOf(instance)
		if target.Kind() != reflect.Pointer || target.Elem().Kind() != reflect.Struct {
			return nil, &ReconstructionError{Type: schema.Name, Args: deferred.Keys(),
				Cause: fmt.Errorf("constructor returned %T, not a struct pointer", instance)}
		}
		var err error
		deferred.Range(func(k string, v any) bool {
			f, _ := schema.Field(k)
			if aerr := assign(target.Elem().FieldByIndex(f.Index), v); aerr != nil {
				err = withField(aerr, schema.Name, k)
				return false
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return instance, nil
}

// selectSubtype picks the registered descendant with the fewest
// constructor fields that still declares every required name. Ties keep
// registration order.
func (st *decodeState) selectSubtype(schema *Schema, required []string) *Schema {
	candidates := st.reg.Subtypes(schema.Type)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].InitFields() < candidates[j].InitFields()
	})
	for _, c := range candidates {
		if c.covers(required) {
			return c
		}
	}
	return nil
}

// decodeField decodes the raw value of one field.
func (st *decodeState) decodeField(owner *Schema, f *Field, raw any) (any, error) {
	if sr, ok := f.Ref.(*ScalarRef); ok && sr.Builtin() {
		return coerceField(owner, f, sr.Type, raw)
	}

	if fn, ok := st.reg.decoder(f.Ref.GoType()); ok {
		v, err := fn(raw)
		if err != nil {
			return nil, withField(err, owner.Name, f.Name)
		}
		return v, nil
	}

	return st.decodeRef(owner, f, f.Ref, raw)
}

// decodeRef decodes raw against the actual type behind ref.
func (st *decodeState) decodeRef(owner *Schema, f *Field, ref TypeRef, raw any) (any, error) {
	c, err := st.classify(owner, f, ref)
	if err != nil {
		return nil, err
	}

	switch c.Shape {
	case ShapeScalar:
		if _, optional := ref.(*OptionalRef); optional && raw == nil {
			return nil, nil
		}
		return coerceField(owner, f, c.Ref.GoType(), raw)

	case ShapeRecord:
		v, err := st.decodeRecord(c.Record, raw, nil)
		if err != nil {
			return nil, withField(err, owner.Name, f.Name)
		}
		return v, nil

	case ShapeSequence:
		items, ok := asSlice(raw)
		if !ok {
			return st.passthrough(owner, f, c, raw)
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := st.decodeElem(owner, f, c.Elem, item)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case ShapeMapping:
		m, ok := asMap(raw)
		if !ok {
			return st.passthrough(owner, f, c, raw)
		}
		out := NewMap()
		var err error
		m.Range(func(k string, item any) bool {
			var v any
			v, err = st.decodeElem(owner, f, c.Value, item)
			if err != nil {
				return false
			}
			out.Set(k, v)
			return true
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	}

	return raw, nil
}

// passthrough keeps a value whose shape does not match its container
// type. Strict decoding rejects it instead.
func (st *decodeState) passthrough(owner *Schema, f *Field, c Classification, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if st.cfg.strict {
		return nil, &CoercionError{Type: owner.Name, Field: f.Name, Kind: c.Shape.String(), Value: raw,
			Cause: fmt.Errorf("got %T", raw)}
	}
	st.warn(Warning{
		Code:    WarnPassthrough,
		Type:    owner.Name,
		Field:   f.Name,
		Message: fmt.Sprintf("expected a %s, kept %T as is", c.Shape, raw),
	})
	return raw, nil
}

// decodeElem decodes one element of a sequence or mapping. Record elements
// decode only when the item is a mapping; anything else passes through so
// already-decoded values can be mixed in.
func (st *decodeState) decodeElem(owner *Schema, f *Field, ref TypeRef, item any) (any, error) {
	if fn, ok := st.reg.decoder(ref.GoType()); ok {
		v, err := fn(item)
		if err != nil {
			return nil, withField(err, owner.Name, f.Name)
		}
		return v, nil
	}

	switch c := st.reg.Classify(ref); c.Shape {
	case ShapeRecord:
		if _, ok := asMap(item); !ok {
			return item, nil
		}
		if _, err := st.classify(owner, f, ref); err != nil {
			return nil, err
		}
		return st.decodeRecord(c.Record, item, nil)
	case ShapeSequence, ShapeMapping:
		return st.decodeRef(owner, f, ref, item)
	}

	if _, err := st.classify(owner, f, ref); err != nil {
		return nil, err
	}
	return item, nil
}

// classify resolves ref, reporting its warnings against the field. In
// strict mode an unresolved forward reference is an error.
func (st *decodeState) classify(owner *Schema, f *Field, ref TypeRef) (Classification, error) {
	c := st.reg.Classify(ref)
	for _, w := range c.Warnings {
		w.Type = owner.Name
		w.Field = f.Name
		st.warn(w)
	}
	if c.Unresolved && st.cfg.strict {
		name := ""
		if fwd, ok := c.Ref.(*ForwardRef); ok {
			name = fwd.Name
		}
		return c, &ReferenceError{Name: name, Field: f.Name}
	}
	return c, nil
}

// withField attaches the owning record and field to a coercion error.
func withField(err error, typeName, field string) error {
	if ce, ok := err.(*CoercionError); ok && ce.Field == "" {
		ce.Type = typeName
		ce.Field = field
	}
	return err
}
