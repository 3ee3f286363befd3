package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKV struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (f *fakeKV) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.data[key] = value.([]byte)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

type countingEmbedder struct {
	calls  int
	vector []float64
	err    error
}

func (c *countingEmbedder) Embed(context.Context, string) ([]float64, error) {
	c.calls++
	return c.vector, c.err
}

func TestCache_MissThenHit(t *testing.T) {
	kv := newFakeKV()
	next := &countingEmbedder{vector: []float64{1, 2, 3}}
	cache := NewCache(next, kv, "m1", time.Hour, discardLogger())
	ctx := context.Background()

	first, err := cache.Embed(ctx, "launch plan")
	require.NoError(t, err)
	second, err := cache.Embed(ctx, "  launch plan  ")
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 2, 3}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, next.calls)
	require.Len(t, kv.ttls, 1)
	for key, ttl := range kv.ttls {
		assert.Contains(t, key, "embedding:m1:")
		assert.Equal(t, time.Hour, ttl)
	}
}

func TestCache_RedisDownFallsThrough(t *testing.T) {
	kv := newFakeKV()
	kv.getErr = errors.New("connection refused")
	next := &countingEmbedder{vector: []float64{1}}

	got, err := NewCache(next, kv, "m1", time.Hour, discardLogger()).Embed(context.Background(), "x")

	require.NoError(t, err)
	assert.Equal(t, []float64{1}, got)
	assert.Equal(t, 1, next.calls)
}

func TestCache_ErrorsAndEmptyVectorsAreNotCached(t *testing.T) {
	kv := newFakeKV()
	next := &countingEmbedder{err: errors.New("quota")}
	cache := NewCache(next, kv, "m1", time.Hour, discardLogger())

	_, err := cache.Embed(context.Background(), "x")
	require.Error(t, err)

	next.err = nil
	got, err := cache.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, kv.data)

	got, err = cache.Embed(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 2, next.calls)
}

func TestCache_CorruptEntryIsRecomputed(t *testing.T) {
	kv := newFakeKV()
	next := &countingEmbedder{vector: []float64{4}}
	cache := NewCache(next, kv, "m1", time.Hour, discardLogger())
	kv.data[cache.key("x")] = []byte("not json")

	got, err := cache.Embed(context.Background(), "x")

	require.NoError(t, err)
	assert.Equal(t, []float64{4}, got)
	assert.Equal(t, 1, next.calls)
}
