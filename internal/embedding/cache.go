package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// KV is the subset of the redis client the cache needs.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Cache memoizes vectors in redis, keyed by model and text digest. Redis
// failures fall through to the wrapped embedder.
type Cache struct {
	next   Embedder
	kv     KV
	model  string
	ttl    time.Duration
	logger *slog.Logger
}

func NewCache(next Embedder, kv KV, model string, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		next:   next,
		kv:     kv,
		model:  model,
		ttl:    ttl,
		logger: logger.With("component", "embedding_cache"),
	}
}

func (c *Cache) Embed(ctx context.Context, text string) ([]float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	key := c.key(text)

	raw, err := c.kv.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var vector []float64
		if err := json.Unmarshal(raw, &vector); err == nil && len(vector) > 0 {
			return vector, nil
		}
		c.logger.Warn("discarding corrupt cached embedding", "key", key)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("embedding cache read failed", "error", err)
	}

	vector, err := c.next.Embed(ctx, text)
	if err != nil || len(vector) == 0 {
		return vector, err
	}

	if data, err := json.Marshal(vector); err == nil {
		if err := c.kv.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("embedding cache write failed", "error", err)
		}
	}
	return vector, nil
}

func (c *Cache) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "embedding:" + c.model + ":" + hex.EncodeToString(sum[:])
}
