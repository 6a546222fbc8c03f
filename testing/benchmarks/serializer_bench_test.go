package benchmarks

import (
	"context"
	"testing"

	"github.com/zoobzio/recast"
	"github.com/zoobzio/recast/bson"
	"github.com/zoobzio/recast/json"
	"github.com/zoobzio/recast/msgpack"
	rtest "github.com/zoobzio/recast/testing"
	"github.com/zoobzio/recast/yaml"
)

func drawing() *rtest.Drawing {
	figures := make([]rtest.Figure, 0, 16)
	for i := 0; i < 8; i++ {
		figures = append(figures,
			&rtest.Circle{Shape: rtest.Shape{Name: "c"}, Radius: float64(i)},
			&rtest.ColoredCircle{Circle: rtest.Circle{Shape: rtest.Shape{Name: "cc"}, Radius: 1}, Color: "red"},
		)
	}
	return &rtest.Drawing{
		Title:   "bench",
		Origin:  rtest.Point{X: 1, Y: 2},
		Figures: figures,
		Tags:    map[string]string{"k": "v"},
	}
}

func BenchmarkEncodeRecord_Flat(b *testing.B) {
	r := rtest.NewRegistry(b)
	p := &rtest.Point{X: 1, Y: 2}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = r.EncodeRecord(p)
	}
}

func BenchmarkEncodeRecord_Nested(b *testing.B) {
	r := rtest.NewRegistry(b)
	d := drawing()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = r.EncodeRecord(d)
	}
}

func BenchmarkDecodeRecord_Flat(b *testing.B) {
	r := rtest.NewRegistry(b)
	tree := rtest.Tree(b, `{"x": 1, "y": 2}`)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = recast.DecodeAs[*rtest.Point](ctx, r, tree)
	}
}

func BenchmarkDecodeRecord_SubtypeSelection(b *testing.B) {
	r := rtest.NewRegistry(b)
	tree := rtest.Tree(b, `{"name": "cc", "radius": 1, "color": "red"}`)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = recast.DecodeAs[rtest.Figure](ctx, r, tree)
	}
}

func BenchmarkDecodeRecord_Nested(b *testing.B) {
	r := rtest.NewRegistry(b)
	tree, _ := r.EncodeRecord(drawing())
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = recast.DecodeAs[*rtest.Drawing](ctx, r, tree)
	}
}

func BenchmarkSerializer_RoundTrip(b *testing.B) {
	r := rtest.NewRegistry(b)
	d := drawing()

	for _, c := range []recast.Codec{json.New(), yaml.New(), msgpack.New(), bson.New()} {
		b.Run(c.ContentType(), func(b *testing.B) {
			s, err := recast.NewSerializer[*rtest.Drawing](c, recast.WithRegistry(r))
			if err != nil {
				b.Fatalf("NewSerializer() error: %v", err)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				data, _ := s.Dumps(d)
				_, _ = s.Loads(data)
			}
		})
	}
}

func BenchmarkFingerprint(b *testing.B) {
	r := rtest.NewRegistry(b)
	d := drawing()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = r.Fingerprint(d)
	}
}
