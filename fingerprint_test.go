package recast_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoobzio/recast"
	rtest "github.com/zoobzio/recast/testing"
)

func TestFingerprint(t *testing.T) {
	r := rtest.NewRegistry(t)

	a, err := r.Fingerprint(&rtest.Point{X: 1, Y: 2})
	require.NoError(t, err)
	b, err := r.Fingerprint(rtest.Point{X: 1, Y: 2})
	require.NoError(t, err)
	c, err := r.Fingerprint(&rtest.Point{X: 2, Y: 1})
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestFingerprint_IgnoresUnencodedFields(t *testing.T) {
	r := rtest.NewRegistry(t)

	a, err := r.Fingerprint(&rtest.Config{Name: "svc", Secret: "one"})
	require.NoError(t, err)
	b, err := r.Fingerprint(&rtest.Config{Name: "svc", Secret: "two"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestFingerprint_NotRecord(t *testing.T) {
	_, err := recast.Fingerprint(42)
	assert.True(t, errors.Is(err, recast.ErrNotRecord))
}
