package recast_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoobzio/recast"
	rtest "github.com/zoobzio/recast/testing"
)

func registerDefaults(t *testing.T) {
	t.Helper()
	recast.Reset()
	t.Cleanup(recast.Reset)

	recast.MustRegister[rtest.Shape](recast.WithDecodeIntoSubtypes(true))
	recast.MustRegister[rtest.Circle]()
	recast.MustRegister[rtest.Square]()
}

func TestToDictFromDict(t *testing.T) {
	registerDefaults(t)

	tree, err := recast.ToDict(&rtest.Circle{Shape: rtest.Shape{Name: "c"}, Radius: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "radius"}, tree.Keys())

	back, err := recast.FromDict[rtest.Figure](tree)
	require.NoError(t, err)
	assert.Equal(t, &rtest.Circle{Shape: rtest.Shape{Name: "c"}, Radius: 2}, back)
}

func TestFromDict_NarrowsToStructTarget(t *testing.T) {
	registerDefaults(t)

	got, err := recast.FromDict[*rtest.Shape](recast.MapOf("name", "c", "radius", 2.0))
	require.NoError(t, err)
	assert.Equal(t, &rtest.Shape{Name: "c"}, got)
}

func TestDecode_KeepsSubtype(t *testing.T) {
	registerDefaults(t)

	v, err := recast.Decode(context.Background(), reflect.TypeFor[rtest.Shape](), recast.MapOf("name", "s", "side", int64(4)))
	require.NoError(t, err)
	assert.Equal(t, &rtest.Square{Shape: rtest.Shape{Name: "s"}, Side: 4}, v)
}

func TestFromDict_PlainGoMap(t *testing.T) {
	registerDefaults(t)

	got, err := recast.FromDict[rtest.Figure](map[string]any{"name": "c", "radius": 1.0})
	require.NoError(t, err)
	assert.IsType(t, &rtest.Circle{}, got)
}

func TestEncode_Package(t *testing.T) {
	registerDefaults(t)

	v, err := recast.Encode([]any{&rtest.Shape{Name: "a"}, int8(3)})
	require.NoError(t, err)
	assert.True(t, recast.Equal([]any{recast.MapOf("name", "a"), int64(3)}, v))
}

func TestToDict_NotRecord(t *testing.T) {
	_, err := recast.ToDict("nope")
	assert.True(t, errors.Is(err, recast.ErrNotRecord))
}
