package recast

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"time"

	"go.uber.org/zap"
)

// Serializer binds a record type to a registry and a Codec.
//
// Serializers hold no per-call state and are safe for concurrent use.
type Serializer[T any] struct {
	codec    Codec
	registry *Registry
	typeName string
}

// SerializerOption configures a Serializer.
type SerializerOption func(*serializerConfig)

type serializerConfig struct {
	registry *Registry
}

// WithRegistry makes the serializer use r instead of the default registry.
func WithRegistry(r *Registry) SerializerOption {
	return func(c *serializerConfig) {
		c.registry = r
	}
}

func newSerializerConfig(opts []SerializerOption) serializerConfig {
	cfg := serializerConfig{registry: defaultRegistry}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.registry == nil {
		cfg.registry = defaultRegistry
	}
	return cfg
}

// NewSerializer creates a Serializer for T. T must be a struct, a pointer
// to one, or an interface.
func NewSerializer[T any](codec Codec, opts ...SerializerOption) (*Serializer[T], error) {
	cfg := newSerializerConfig(opts)

	rt := reflect.TypeFor[T]()
	base := rt
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if base.Kind() != reflect.Struct && base.Kind() != reflect.Interface {
		return nil, fmt.Errorf("%w: %s", ErrNotRecord, rt)
	}

	Logger().Debug("serializer created",
		zap.String("type", rt.String()),
		zap.String("content_type", codec.ContentType()))

	return &Serializer[T]{
		codec:    codec,
		registry: cfg.registry,
		typeName: rt.String(),
	}, nil
}

// Codec returns the codec the serializer writes with.
func (s *Serializer[T]) Codec() Codec {
	return s.codec
}

// ToDict encodes v into a tree mapping.
func (s *Serializer[T]) ToDict(v T) (*Map, error) {
	return s.registry.EncodeRecord(v)
}

// FromDict decodes a tree into T.
func (s *Serializer[T]) FromDict(tree any, opts ...DecodeOption) (T, error) {
	return DecodeAs[T](context.Background(), s.registry, tree, opts...)
}

// Dumps encodes v and marshals it with the serializer's codec.
func (s *Serializer[T]) Dumps(v T) ([]byte, error) {
	return s.DumpsContext(context.Background(), v)
}

// DumpsContext is Dumps with a context for the emitted signals.
func (s *Serializer[T]) DumpsContext(ctx context.Context, v T) ([]byte, error) {
	start := time.Now()

	data, err := s.dumps(v)
	emitMarshalComplete(ctx, s.codec.ContentType(), s.typeName, len(data), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Serializer[T]) dumps(v T) ([]byte, error) {
	tree, err := s.registry.EncodeRecord(v)
	if err != nil {
		return nil, err
	}
	data, err := s.codec.Marshal(tree)
	if err != nil {
		return nil, newCodecError(ErrMarshal, err)
	}
	return data, nil
}

// Dump writes the marshaled form of v to w.
func (s *Serializer[T]) Dump(w io.Writer, v T) error {
	data, err := s.Dumps(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Loads unmarshals data with the serializer's codec and decodes it into T.
func (s *Serializer[T]) Loads(data []byte, opts ...DecodeOption) (T, error) {
	return s.LoadsContext(context.Background(), data, opts...)
}

// LoadsContext is Loads with a context for the emitted signals.
func (s *Serializer[T]) LoadsContext(ctx context.Context, data []byte, opts ...DecodeOption) (T, error) {
	start := time.Now()

	v, err := s.loads(ctx, data, opts)
	emitUnmarshalComplete(ctx, s.codec.ContentType(), s.typeName, len(data), time.Since(start), err)
	return v, err
}

func (s *Serializer[T]) loads(ctx context.Context, data []byte, opts []DecodeOption) (T, error) {
	var zero T
	tree, err := s.codec.Unmarshal(data)
	if err != nil {
		return zero, newCodecError(ErrUnmarshal, err)
	}
	return DecodeAs[T](ctx, s.registry, tree, opts...)
}

// Load reads all of r and decodes it like Loads.
func (s *Serializer[T]) Load(r io.Reader, opts ...DecodeOption) (T, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		var zero T
		return zero, err
	}
	return s.Loads(data, opts...)
}
