// Package file saves records to and loads records from files, choosing the
// codec by file extension.
//
//	.json          application/json
//	.yaml, .yml    application/yaml
//	.msgpack, .mpk application/msgpack
//	.bson          application/bson
//
// Any other extension needs an explicit codec passed with WithCodec.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/recast"
	"github.com/zoobzio/recast/bson"
	"github.com/zoobzio/recast/json"
	"github.com/zoobzio/recast/msgpack"
	"github.com/zoobzio/recast/yaml"
	"go.uber.org/zap"
)

// ErrUnknownFormat is returned when no codec is registered for a file's
// extension and none was given.
var ErrUnknownFormat = errors.New("unknown file format")

// Signals for file events.
var (
	SignalSaveComplete = capitan.NewSignal("recast.file.save", "Record written to file")
	SignalLoadComplete = capitan.NewSignal("recast.file.load", "Record read from file")
)

// Keys for typed event data.
var (
	KeyPath        = capitan.NewStringKey("path")
	KeyContentType = capitan.NewStringKey("content_type")
	KeySize        = capitan.NewIntKey("size")
	KeyDuration    = capitan.NewDurationKey("duration")
	KeyError       = capitan.NewErrorKey("error")
)

// CodecFor returns the codec for path's extension.
func CodecFor(path string) (recast.Codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return json.New(), nil
	case ".yaml", ".yml":
		return yaml.New(), nil
	case ".msgpack", ".mpk":
		return msgpack.New(), nil
	case ".bson":
		return bson.New(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, path)
}

// Option configures Save and Load.
type Option func(*config)

type config struct {
	codec    recast.Codec
	registry *recast.Registry
	decode   []recast.DecodeOption
	perm     os.FileMode
}

// WithCodec overrides extension-based codec selection.
func WithCodec(c recast.Codec) Option {
	return func(cfg *config) {
		cfg.codec = c
	}
}

// WithRegistry uses r instead of the default registry.
func WithRegistry(r *recast.Registry) Option {
	return func(cfg *config) {
		cfg.registry = r
	}
}

// WithDecodeOptions passes decode options through to Load.
func WithDecodeOptions(opts ...recast.DecodeOption) Option {
	return func(cfg *config) {
		cfg.decode = append(cfg.decode, opts...)
	}
}

// WithPerm sets the permission bits of files created by Save. The default
// is 0644.
func WithPerm(perm os.FileMode) Option {
	return func(cfg *config) {
		cfg.perm = perm
	}
}

func resolve(path string, opts []Option) (config, error) {
	cfg := config{registry: recast.Default(), perm: 0o644}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.codec == nil {
		c, err := CodecFor(path)
		if err != nil {
			return cfg, err
		}
		cfg.codec = c
	}
	return cfg, nil
}

// Save encodes v and writes it to path.
func Save(ctx context.Context, path string, v any, opts ...Option) error {
	cfg, err := resolve(path, opts)
	if err != nil {
		return err
	}

	start := time.Now()
	size, err := save(path, v, cfg)
	emitSaveComplete(ctx, path, cfg.codec.ContentType(), size, time.Since(start), err)
	return err
}

func save(path string, v any, cfg config) (int, error) {
	tree, err := cfg.registry.EncodeRecord(v)
	if err != nil {
		return 0, err
	}
	data, err := cfg.codec.Marshal(tree)
	if err != nil {
		return 0, &recast.CodecError{Err: recast.ErrMarshal, Cause: err}
	}
	if err := os.WriteFile(path, data, cfg.perm); err != nil {
		return 0, err
	}
	recast.Logger().Debug("saved record",
		zap.String("path", path),
		zap.String("content_type", cfg.codec.ContentType()),
		zap.Int("size", len(data)))
	return len(data), nil
}

// Load reads path and decodes its contents into T.
func Load[T any](ctx context.Context, path string, opts ...Option) (T, error) {
	var zero T
	cfg, err := resolve(path, opts)
	if err != nil {
		return zero, err
	}

	start := time.Now()
	v, size, err := load[T](ctx, path, cfg)
	emitLoadComplete(ctx, path, cfg.codec.ContentType(), size, time.Since(start), err)
	return v, err
}

func load[T any](ctx context.Context, path string, cfg config) (T, int, error) {
	var zero T
	data, err := os.ReadFile(path)
	if err != nil {
		return zero, 0, err
	}
	tree, err := cfg.codec.Unmarshal(data)
	if err != nil {
		return zero, len(data), &recast.CodecError{Err: recast.ErrUnmarshal, Cause: err}
	}
	v, err := recast.DecodeAs[T](ctx, cfg.registry, tree, cfg.decode...)
	return v, len(data), err
}

func emitSaveComplete(ctx context.Context, path, contentType string, size int, duration time.Duration, err error) {
	fields := fileFields(path, contentType, size, duration)
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalSaveComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalSaveComplete, fields...)
	}
}

func emitLoadComplete(ctx context.Context, path, contentType string, size int, duration time.Duration, err error) {
	fields := fileFields(path, contentType, size, duration)
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalLoadComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalLoadComplete, fields...)
	}
}

func fileFields(path, contentType string, size int, duration time.Duration) []capitan.Field {
	return []capitan.Field{
		KeyPath.Field(path),
		KeyContentType.Field(contentType),
		KeySize.Field(size),
		KeyDuration.Field(duration),
	}
}
