package recast

import (
	"reflect"
	"sync"
)

// cacheKey combines type, codec and registry for cache lookup.
type cacheKey struct {
	typ         reflect.Type
	contentType string
	registry    *Registry
}

var (
	serializers   = make(map[cacheKey]any)
	serializersMu sync.RWMutex
)

// Use returns a cached serializer or builds a new one.
// The serializer is cached by type, codec content type and registry.
func Use[T any](codec Codec, opts ...SerializerOption) (*Serializer[T], error) {
	cfg := newSerializerConfig(opts)
	key := cacheKey{typ: reflect.TypeFor[T](), contentType: codec.ContentType(), registry: cfg.registry}

	// Fast path: read-lock cache check
	serializersMu.RLock()
	if cached, ok := serializers[key]; ok {
		serializersMu.RUnlock()
		return cached.(*Serializer[T]), nil
	}
	serializersMu.RUnlock()

	// Slow path: build and cache with write-lock
	serializersMu.Lock()
	defer serializersMu.Unlock()

	// Double-check pattern
	if cached, ok := serializers[key]; ok {
		return cached.(*Serializer[T]), nil
	}

	s, err := NewSerializer[T](codec, opts...)
	if err != nil {
		return nil, err
	}

	serializers[key] = s
	return s, nil
}

// Reset clears the serializer cache and the default registry.
// This is primarily useful for test isolation.
func Reset() {
	serializersMu.Lock()
	serializers = make(map[cacheKey]any)
	serializersMu.Unlock()

	defaultRegistry.Reset()
}
