package embedcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.vec, nil
}

func (c *countingEmbedder) ModelName() string { return "test-model" }

func TestLruEmbedderCachesByContent(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{0.1, 0.2}}
	cached := WrapLruCacheToEmbedder(inner, 16, time.Minute)

	first, err := cached.Embed(context.Background(), "same text")
	require.NoError(t, err)
	second, err := cached.Embed(context.Background(), "same text")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, inner.calls)

	_, err = cached.Embed(context.Background(), "other text")
	require.NoError(t, err)
	require.Equal(t, 2, inner.calls)
}

func TestLruEmbedderReturnsCopy(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{1, 2, 3}}
	cached := WrapLruCacheToEmbedder(inner, 16, time.Minute)

	first, err := cached.Embed(context.Background(), "text")
	require.NoError(t, err)
	first[0] = 99

	second, err := cached.Embed(context.Background(), "text")
	require.NoError(t, err)
	require.Equal(t, float32(1), second[0])
}

func TestLruEmbedderErrorNotCached(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("provider down")}
	cached := WrapLruCacheToEmbedder(inner, 16, time.Minute)

	_, err := cached.Embed(context.Background(), "text")
	require.Error(t, err)

	inner.err = nil
	inner.vec = []float32{1}
	_, err = cached.Embed(context.Background(), "text")
	require.NoError(t, err)
	require.Equal(t, 2, inner.calls)
}

func TestWrapDisabledPassThrough(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{1}}
	require.Equal(t, inner, WrapLruCacheToEmbedder(inner, 0, time.Minute))
	require.Equal(t, inner, WrapLruCacheToEmbedder(inner, 16, 0))
}

func TestBuildCacheKeyStable(t *testing.T) {
	key1, hash1 := buildCacheKey("model-a", "hello")
	key2, hash2 := buildCacheKey("model-a", "hello")
	require.Equal(t, key1, key2)
	require.Equal(t, hash1, hash2)

	key3, _ := buildCacheKey("model-b", "hello")
	require.NotEqual(t, key1, key3)

	key4, _ := buildCacheKey("", "hello")
	require.Contains(t, key4, "unknown")
}
