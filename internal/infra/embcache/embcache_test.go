package embcache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()

	got, err := cache.Lookup(ctx, "m", []string{"a"})
	require.NoError(t, err)
	require.Empty(t, got)

	vec := []float32{1, 2}
	require.NoError(t, cache.Store(ctx, "m", map[string][]float32{"a": vec, "b": {3}}))
	vec[0] = 99

	got, err = cache.Lookup(ctx, "m", []string{"a", "c"})
	require.NoError(t, err)
	require.Equal(t, map[string][]float32{"a": {1, 2}}, got)

	other, err := cache.Lookup(ctx, "other-model", []string{"a"})
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestParseVector(t *testing.T) {
	vec, err := parseVector("[0.5, -1,2]")
	require.NoError(t, err)
	require.Equal(t, []float32{0.5, -1, 2}, vec)

	vec, err = parseVector("[]")
	require.NoError(t, err)
	require.Nil(t, vec)

	_, err = parseVector("[x]")
	require.Error(t, err)
}
