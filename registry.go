package recast

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/zoobzio/sentinel"
	"go.uber.org/zap"
)

// DecodeFunc converts a raw tree value into a typed value.
type DecodeFunc func(raw any) (any, error)

// EncodeFunc converts a typed value into a tree value.
type EncodeFunc func(v any) (any, error)

// Registry holds record schemas, their subtype relations and custom
// per-type codecs. Registration is safe for concurrent use; lookups take a
// read lock and share nothing else, so decodes over independent trees may
// run in parallel.
type Registry struct {
	mu       sync.RWMutex
	records  []*Schema
	byType   map[reflect.Type]*Schema
	decoders map[reflect.Type]DecodeFunc
	encoders map[reflect.Type]EncodeFunc

	// Schemas for unregistered structs and interfaces, built on first use.
	scanned map[reflect.Type]*Schema
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byType:   make(map[reflect.Type]*Schema),
		decoders: make(map[reflect.Type]DecodeFunc),
		encoders: make(map[reflect.Type]EncodeFunc),
		scanned:  make(map[reflect.Type]*Schema),
	}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry used by the package functions.
func Default() *Registry {
	return defaultRegistry
}

// RegisterOption configures a record registration.
type RegisterOption func(*registerConfig)

type registerConfig struct {
	decodeIntoSubtypes *bool
	name               string
	constructor        Constructor
}

// WithDecodeIntoSubtypes sets the record's DecodeIntoSubtypes flag instead
// of inheriting it from the nearest registered ancestor.
func WithDecodeIntoSubtypes(enabled bool) RegisterOption {
	return func(c *registerConfig) {
		c.decodeIntoSubtypes = &enabled
	}
}

// WithName registers the record under name rather than its Go type name.
// Forward references resolve against this name.
func WithName(name string) RegisterOption {
	return func(c *registerConfig) {
		c.name = name
	}
}

// WithConstructor replaces the default field-assigning constructor.
func WithConstructor(fn Constructor) RegisterOption {
	return func(c *registerConfig) {
		c.constructor = fn
	}
}

// Register adds a record type. Pointer types register their element.
// Registering a type twice returns the existing schema unchanged.
//
// Unless overridden, DecodeIntoSubtypes is inherited from the nearest
// ancestor already registered, and defaults to false.
func (r *Registry) Register(rt reflect.Type, opts ...RegisterOption) (*Schema, error) {
	for rt != nil && rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt == nil || rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %v", ErrNotRecord, rt)
	}
	if rt == baseType {
		return nil, fmt.Errorf("%w: %s is the universal base", ErrNotRecord, rt)
	}

	cfg := registerConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	schema, err := buildSchema(rt)
	if err != nil {
		return nil, err
	}
	if cfg.name != "" {
		schema.Name = cfg.name
	}
	schema.constructor = cfg.constructor

	r.mu.Lock()
	if existing, ok := r.byType[rt]; ok {
		r.mu.Unlock()
		return existing, nil
	}

	if cfg.decodeIntoSubtypes != nil {
		schema.DecodeIntoSubtypes = *cfg.decodeIntoSubtypes
	} else {
		for _, ancestor := range schema.Ancestors {
			if parent, ok := r.byType[ancestor]; ok {
				schema.DecodeIntoSubtypes = parent.DecodeIntoSubtypes
				Logger().Debug("inherited decode flag",
					zap.String("type", schema.Name),
					zap.String("parent", parent.Name),
					zap.Bool("decode_into_subtypes", parent.DecodeIntoSubtypes))
				break
			}
		}
	}

	r.records = append(r.records, schema)
	r.byType[rt] = schema
	delete(r.scanned, rt)
	r.mu.Unlock()

	emitRecordRegistered(context.Background(), schema.Name, len(schema.Fields), schema.DecodeIntoSubtypes)
	return schema, nil
}

// RegisterDecoder installs a custom decoder for exactly rt. It takes
// precedence over structural decoding of fields declared as rt.
func (r *Registry) RegisterDecoder(rt reflect.Type, fn DecodeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[rt] = fn
}

// RegisterEncoder installs a custom encoder for exactly rt.
func (r *Registry) RegisterEncoder(rt reflect.Type, fn EncodeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.encoders[rt] = fn
}

func (r *Registry) decoder(rt reflect.Type) (DecodeFunc, bool) {
	if rt == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.decoders[rt]
	return fn, ok
}

func (r *Registry) encoder(rt reflect.Type) (EncodeFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.encoders[rt]
	return fn, ok
}

// DecoderFor returns the decode function generic dispatch uses for rt: the
// custom decoder if one is installed, otherwise record decoding for a
// registered record.
func (r *Registry) DecoderFor(rt reflect.Type) (DecodeFunc, bool) {
	if fn, ok := r.decoder(rt); ok {
		return fn, true
	}
	if !r.IsRegistered(rt) {
		return nil, false
	}
	return func(raw any) (any, error) {
		return r.DecodeRecord(context.Background(), rt, raw)
	}, true
}

// IsRegistered reports whether rt (or the struct it points to) is a
// registered record.
func (r *Registry) IsRegistered(rt reflect.Type) bool {
	for rt != nil && rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byType[rt]
	return ok
}

// Schema returns the registered schema for rt.
func (r *Registry) Schema(rt reflect.Type) (*Schema, bool) {
	for rt != nil && rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byType[rt]
	return s, ok
}

// Records returns every registered schema in registration order.
func (r *Registry) Records() []*Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Schema, len(r.records))
	copy(out, r.records)
	return out
}

// Lookup returns the registered schemas named name, in registration order.
func (r *Registry) Lookup(name string) []*Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Schema
	for _, s := range r.records {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

// FindAssignableSubtypes returns the registered records that are rt or
// descend from it, in registration order. For an interface, records whose
// pointer implements it qualify; for Base, every record does.
func (r *Registry) FindAssignableSubtypes(rt reflect.Type) []*Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Schema
	for _, s := range r.records {
		if s.is(rt) {
			out = append(out, s)
		}
	}
	return out
}

// Subtypes returns the registered descendants of rt, excluding rt itself.
func (r *Registry) Subtypes(rt reflect.Type) []*Schema {
	var out []*Schema
	for _, s := range r.FindAssignableSubtypes(rt) {
		if s.Type != rt {
			out = append(out, s)
		}
	}
	return out
}

// schemaFor returns the schema decoding and encoding use for rt and
// whether it takes part in subtype resolution. Registered records, Base
// and interfaces do; other structs get a scanned schema that does not.
func (r *Registry) schemaFor(rt reflect.Type) (*Schema, bool, error) {
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}

	// Fast path: read-lock cache check
	r.mu.RLock()
	if s, ok := r.byType[rt]; ok {
		r.mu.RUnlock()
		return s, true, nil
	}
	if s, ok := r.scanned[rt]; ok {
		r.mu.RUnlock()
		return s, s.Abstract(), nil
	}
	r.mu.RUnlock()

	var (
		schema *Schema
		err    error
	)
	switch {
	case rt == baseType, rt.Kind() == reflect.Interface:
		schema = &Schema{
			Name:      rt.Name(),
			Type:      rt,
			byName:    map[string]int{},
			initNames: map[string]struct{}{},
		}
	default:
		schema, err = buildSchema(rt)
		if err != nil {
			return nil, false, err
		}
	}

	// Slow path: cache with write-lock
	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check pattern
	if s, ok := r.byType[rt]; ok {
		return s, true, nil
	}
	if s, ok := r.scanned[rt]; ok {
		return s, s.Abstract(), nil
	}
	r.scanned[rt] = schema
	return schema, schema.Abstract(), nil
}

// Reset clears every registration. This is primarily useful for test isolation.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
	r.byType = make(map[reflect.Type]*Schema)
	r.decoders = make(map[reflect.Type]DecodeFunc)
	r.encoders = make(map[reflect.Type]EncodeFunc)
	r.scanned = make(map[reflect.Type]*Schema)
}

// Register adds T to the default registry.
func Register[T any](opts ...RegisterOption) (*Schema, error) {
	return RegisterIn[T](defaultRegistry, opts...)
}

// RegisterIn adds T to r. T and the struct types it references are scanned
// into sentinel's metadata cache first, so their schemas are built from it.
func RegisterIn[T any](r *Registry, opts ...RegisterOption) (*Schema, error) {
	rt := reflect.TypeFor[T]()
	if rt.Kind() == reflect.Struct || rt.Kind() == reflect.Pointer && rt.Elem().Kind() == reflect.Struct {
		// Anything else is rejected by Register with ErrNotRecord.
		_, _ = sentinel.TryScan[T]()
	}
	return r.Register(rt, opts...)
}

// MustRegister is Register that panics on error, for package init blocks.
func MustRegister[T any](opts ...RegisterOption) *Schema {
	s, err := Register[T](opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// RegisterDecoder installs a typed custom decoder on the default registry.
func RegisterDecoder[T any](fn func(raw any) (T, error)) {
	defaultRegistry.RegisterDecoder(reflect.TypeFor[T](), func(raw any) (any, error) {
		return fn(raw)
	})
}

// RegisterEncoder installs a typed custom encoder on the default registry.
func RegisterEncoder[T any](fn func(v T) (any, error)) {
	defaultRegistry.RegisterEncoder(reflect.TypeFor[T](), func(v any) (any, error) {
		typed, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("%w: encoder for %s got %T", ErrUnencodable, reflect.TypeFor[T](), v)
		}
		return fn(typed)
	})
}

// IsRegistered reports whether T is registered in the default registry.
func IsRegistered[T any]() bool {
	return defaultRegistry.IsRegistered(reflect.TypeFor[T]())
}

// Subtypes lists T's registered descendants in the default registry.
func Subtypes[T any]() []*Schema {
	return defaultRegistry.Subtypes(reflect.TypeFor[T]())
}
