// Package bson provides a BSON codec implementation.
package bson

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/zoobzio/recast"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotDocument is returned when the top-level tree is not a mapping.
// BSON can only hold documents at the top level.
var ErrNotDocument = errors.New("bson: top-level value must be a mapping")

// bsonCodec implements recast.Codec for BSON.
type bsonCodec struct{}

// New returns a BSON codec.
func New() recast.Codec {
	return &bsonCodec{}
}

// ContentType returns the MIME type for BSON.
func (c *bsonCodec) ContentType() string {
	return "application/bson"
}

// Marshal encodes a tree mapping as a BSON document. Mappings become
// ordered bson.D values so key order survives.
func (c *bsonCodec) Marshal(tree any) ([]byte, error) {
	m, ok := tree.(*recast.Map)
	if !ok || m == nil {
		if plain, isPlain := tree.(map[string]any); isPlain {
			m = recast.FromMap(plain)
		} else {
			return nil, ErrNotDocument
		}
	}
	doc, err := toD(m)
	if err != nil {
		return nil, err
	}
	return bson.Marshal(doc)
}

func toD(m *recast.Map) (bson.D, error) {
	doc := make(bson.D, 0, m.Len())
	var err error
	m.Range(func(k string, v any) bool {
		var bv any
		bv, err = toBSON(v)
		if err != nil {
			err = fmt.Errorf("key %q: %w", k, err)
			return false
		}
		doc = append(doc, bson.E{Key: k, Value: bv})
		return true
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func toBSON(v any) (any, error) {
	switch t := v.(type) {
	case *recast.Map:
		if t == nil {
			return nil, nil
		}
		return toD(t)
	case map[string]any:
		return toD(recast.FromMap(t))
	case []any:
		arr := make(bson.A, len(t))
		for i, item := range t {
			bv, err := toBSON(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			arr[i] = bv
		}
		return arr, nil
	case uint64:
		if t > math.MaxInt64 {
			return nil, fmt.Errorf("bson: %d overflows int64", t)
		}
		return int64(t), nil
	}
	return v, nil
}

// Unmarshal decodes a BSON document into a tree, keeping key order.
func (c *bsonCodec) Unmarshal(data []byte) (any, error) {
	var doc bson.D
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return fromBSON(doc)
}

func fromD(doc bson.D) (*recast.Map, error) {
	m := recast.NewMap()
	for _, e := range doc {
		v, err := fromBSON(e.Value)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", e.Key, err)
		}
		m.Set(e.Key, v)
	}
	return m, nil
}

func fromSlice(items []any) ([]any, error) {
	out := make([]any, len(items))
	for i, item := range items {
		v, err := fromBSON(item)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func fromBSON(v any) (any, error) {
	switch t := v.(type) {
	case nil, bool, int64, float64, string:
		return t, nil
	case int32:
		return int64(t), nil
	case bson.D:
		return fromD(t)
	case bson.M:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		doc := make(bson.D, 0, len(t))
		for _, k := range keys {
			doc = append(doc, bson.E{Key: k, Value: t[k]})
		}
		return fromD(doc)
	case bson.A:
		return fromSlice(t)
	case []any:
		return fromSlice(t)
	case primitive.DateTime:
		return t.Time().UTC().Format(time.RFC3339Nano), nil
	case primitive.ObjectID:
		return t.Hex(), nil
	case primitive.Binary:
		return string(t.Data), nil
	case primitive.Null, primitive.Undefined:
		return nil, nil
	case fmt.Stringer:
		return t.String(), nil
	}
	return nil, fmt.Errorf("bson: unsupported value %T", v)
}
