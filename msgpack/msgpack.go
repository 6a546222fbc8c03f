// Package msgpack provides a MessagePack codec implementation.
package msgpack

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cast"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
	"github.com/zoobzio/recast"
)

// msgpackCodec implements recast.Codec for MessagePack.
type msgpackCodec struct{}

// New returns a MessagePack codec.
func New() recast.Codec {
	return &msgpackCodec{}
}

// ContentType returns the MIME type for MessagePack.
func (c *msgpackCodec) ContentType() string {
	return "application/msgpack"
}

// Marshal encodes a tree as MessagePack. Mappings are written entry by
// entry so their key order survives.
func (c *msgpackCodec) Marshal(tree any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := writeValue(enc, tree); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(enc *msgpack.Encoder, v any) error {
	switch t := v.(type) {
	case nil:
		return enc.EncodeNil()
	case *recast.Map:
		if t == nil {
			return enc.EncodeNil()
		}
		if err := enc.EncodeMapLen(t.Len()); err != nil {
			return err
		}
		var err error
		t.Range(func(k string, item any) bool {
			if err = enc.EncodeString(k); err != nil {
				return false
			}
			err = writeValue(enc, item)
			return err == nil
		})
		return err
	case []any:
		if err := enc.EncodeArrayLen(len(t)); err != nil {
			return err
		}
		for _, item := range t {
			if err := writeValue(enc, item); err != nil {
				return err
			}
		}
		return nil
	}
	return enc.Encode(v)
}

// Unmarshal decodes MessagePack data into a tree, keeping map key order.
func (c *msgpackCodec) Unmarshal(data []byte) (any, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))

	v, err := readValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.PeekCode(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("msgpack: unexpected data after top-level value")
	}
	return v, nil
}

func readValue(dec *msgpack.Decoder) (any, error) {
	code, err := dec.PeekCode()
	if err != nil {
		return nil, err
	}

	switch {
	case msgpcode.IsFixedMap(code) || code == msgpcode.Map16 || code == msgpcode.Map32:
		n, err := dec.DecodeMapLen()
		if err != nil {
			return nil, err
		}
		m := recast.NewMap()
		for i := 0; i < n; i++ {
			k, err := dec.DecodeInterfaceLoose()
			if err != nil {
				return nil, err
			}
			key, err := cast.ToStringE(k)
			if err != nil {
				return nil, fmt.Errorf("msgpack: map key: %w", err)
			}
			v, err := readValue(dec)
			if err != nil {
				return nil, err
			}
			m.Set(key, v)
		}
		return m, nil

	case msgpcode.IsFixedArray(code) || code == msgpcode.Array16 || code == msgpcode.Array32:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		items := make([]any, 0, n)
		for i := 0; i < n; i++ {
			v, err := readValue(dec)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	}

	v, err := dec.DecodeInterfaceLoose()
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case nil, bool, int64, uint64, float64, string:
		return t, nil
	case []byte:
		return string(t), nil
	case time.Time:
		return t.Format(time.RFC3339Nano), nil
	}
	return nil, fmt.Errorf("msgpack: unsupported value %T", v)
}
