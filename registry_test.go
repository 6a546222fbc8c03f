package recast_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/sentinel"

	"github.com/zoobzio/recast"
	rtest "github.com/zoobzio/recast/testing"
)

func names(schemas []*recast.Schema) []string {
	out := make([]string, len(schemas))
	for i, s := range schemas {
		out[i] = s.Name
	}
	return out
}

func TestRegister_Schema(t *testing.T) {
	r := recast.NewRegistry()

	s := rtest.Register[rtest.ColoredCircle](t, r)

	assert.Equal(t, "ColoredCircle", s.Name)
	assert.Equal(t, reflect.TypeFor[rtest.ColoredCircle](), s.Type)
	assert.Equal(t, []reflect.Type{reflect.TypeFor[rtest.Circle](), reflect.TypeFor[rtest.Shape]()}, s.Ancestors)
	assert.Equal(t, 3, s.InitFields())

	f, ok := s.Field("radius")
	require.True(t, ok)
	assert.Equal(t, "Radius", f.GoName)
	assert.Equal(t, []int{0, 1}, f.Index)
}

func TestRegisterIn_ScansIntoSentinel(t *testing.T) {
	r := recast.NewRegistry()

	type sentinelCircle struct {
		rtest.Shape
		Radius float64 `recast:"radius"`
	}
	s, err := recast.RegisterIn[sentinelCircle](r)
	require.NoError(t, err)

	spec, ok := sentinel.Lookup("sentinelCircle")
	require.True(t, ok)
	assert.Equal(t, "sentinelCircle", spec.TypeName)

	assert.Equal(t, 2, s.InitFields())
	assert.Equal(t, []reflect.Type{reflect.TypeFor[rtest.Shape]()}, s.Ancestors)
}

func TestRegisterIn_SameNamedTypesKeepTheirFields(t *testing.T) {
	r := recast.NewRegistry()

	first := func() *recast.Schema {
		type twin struct {
			A int `recast:"a"`
		}
		s, err := recast.RegisterIn[twin](r)
		require.NoError(t, err)
		return s
	}()
	second := func() *recast.Schema {
		type twin struct {
			B string `recast:"b"`
			C bool   `recast:"c"`
		}
		s, err := recast.RegisterIn[twin](r)
		require.NoError(t, err)
		return s
	}()

	_, ok := first.Field("a")
	assert.True(t, ok)
	_, ok = second.Field("a")
	assert.False(t, ok)
	assert.Equal(t, 2, second.InitFields())
}

func TestRegister_TagOptions(t *testing.T) {
	r := recast.NewRegistry()
	s := rtest.Register[rtest.Config](t, r)

	var got []string
	for _, f := range s.Fields {
		got = append(got, f.Name)
	}
	assert.Equal(t, []string{"name", "retries", "version", "secret", "parent"}, got)

	version, _ := s.Field("version")
	assert.False(t, version.Init)
	secret, _ := s.Field("secret")
	assert.False(t, secret.Encode)
	_, ok := s.Field("Ignored")
	assert.False(t, ok)
}

func TestRegister_Idempotent(t *testing.T) {
	r := recast.NewRegistry()

	first := rtest.Register[rtest.Point](t, r)
	second := rtest.Register[*rtest.Point](t, r)

	assert.Same(t, first, second)
	assert.Len(t, r.Records(), 1)
}

func TestRegister_Rejects(t *testing.T) {
	r := recast.NewRegistry()

	for _, rt := range []reflect.Type{
		reflect.TypeFor[int](),
		reflect.TypeFor[[]rtest.Point](),
		reflect.TypeFor[rtest.Figure](),
		reflect.TypeFor[recast.Base](),
	} {
		_, err := r.Register(rt)
		assert.True(t, errors.Is(err, recast.ErrNotRecord), "Register(%s) = %v", rt, err)
	}
}

func TestRegister_InheritsDecodeFlag(t *testing.T) {
	r := recast.NewRegistry()

	rtest.Register[rtest.Shape](t, r, recast.WithDecodeIntoSubtypes(true))
	circle := rtest.Register[rtest.Circle](t, r)
	colored := rtest.Register[rtest.ColoredCircle](t, r, recast.WithDecodeIntoSubtypes(false))
	point := rtest.Register[rtest.Point](t, r)

	assert.True(t, circle.DecodeIntoSubtypes)
	assert.False(t, colored.DecodeIntoSubtypes)
	assert.False(t, point.DecodeIntoSubtypes)
}

func TestRegistry_Subtypes(t *testing.T) {
	r := rtest.NewRegistry(t)

	assert.Equal(t, []string{"Circle", "Square", "ColoredCircle"}, names(r.Subtypes(reflect.TypeFor[rtest.Shape]())))
	assert.Equal(t, []string{"ColoredCircle"}, names(r.Subtypes(reflect.TypeFor[rtest.Circle]())))
	assert.Empty(t, r.Subtypes(reflect.TypeFor[rtest.Point]()))
	assert.Equal(t, []string{"Shape", "Circle", "Square", "ColoredCircle"}, names(r.Subtypes(reflect.TypeFor[rtest.Figure]())))
	assert.Len(t, r.Subtypes(reflect.TypeFor[recast.Base]()), len(r.Records()))
}

func TestRegistry_FindAssignableSubtypesIncludesSelf(t *testing.T) {
	r := rtest.NewRegistry(t)

	got := names(r.FindAssignableSubtypes(reflect.TypeFor[rtest.Circle]()))
	assert.Equal(t, []string{"Circle", "ColoredCircle"}, got)
}

func TestRegistry_Lookup(t *testing.T) {
	r := recast.NewRegistry()
	rtest.Register[rtest.Point](t, r, recast.WithName("Vec"))
	rtest.Register[rtest.Node](t, r, recast.WithName("Vec"))

	assert.Len(t, r.Lookup("Vec"), 2)
	assert.Empty(t, r.Lookup("Point"))
}

func TestRegistry_IsRegistered(t *testing.T) {
	r := recast.NewRegistry()
	rtest.Register[rtest.Point](t, r)

	assert.True(t, r.IsRegistered(reflect.TypeFor[rtest.Point]()))
	assert.True(t, r.IsRegistered(reflect.TypeFor[*rtest.Point]()))
	assert.False(t, r.IsRegistered(reflect.TypeFor[rtest.Shape]()))
}

func TestRegistry_DecoderFor(t *testing.T) {
	r := rtest.NewRegistry(t)

	fn, ok := r.DecoderFor(reflect.TypeFor[rtest.Point]())
	require.True(t, ok)
	v, err := fn(recast.MapOf("x", int64(1), "y", int64(2)))
	require.NoError(t, err)
	assert.Equal(t, &rtest.Point{X: 1, Y: 2}, v)

	_, ok = r.DecoderFor(reflect.TypeFor[string]())
	assert.False(t, ok)
}

func TestRegistry_Reset(t *testing.T) {
	r := rtest.NewRegistry(t)
	require.NotEmpty(t, r.Records())

	r.Reset()

	assert.Empty(t, r.Records())
	assert.False(t, r.IsRegistered(reflect.TypeFor[rtest.Point]()))
}

func TestDefaultRegistry_Generics(t *testing.T) {
	recast.Reset()
	t.Cleanup(recast.Reset)

	recast.MustRegister[rtest.Shape](recast.WithDecodeIntoSubtypes(true))
	recast.MustRegister[rtest.Circle]()
	recast.RegisterDecoder(func(raw any) (rtest.Point, error) {
		return rtest.Point{X: 99}, nil
	})

	assert.True(t, recast.IsRegistered[rtest.Circle]())
	assert.Equal(t, []string{"Circle"}, names(recast.Subtypes[rtest.Shape]()))

	fn, ok := recast.Default().DecoderFor(reflect.TypeFor[rtest.Point]())
	require.True(t, ok)
	v, err := fn(nil)
	require.NoError(t, err)
	assert.Equal(t, rtest.Point{X: 99}, v)
}

func TestMustRegister_Panics(t *testing.T) {
	recast.Reset()
	t.Cleanup(recast.Reset)

	assert.Panics(t, func() { recast.MustRegister[int]() })
}
