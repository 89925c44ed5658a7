package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/kataras/golog"

	"github.com/Divas-Gupta30/support-triage/internal/graph"
)

// CachedRetriever is a read-through redis cache in front of a Retriever. The
// passage collection is fixed, so identical queries return identical results
// until the TTL lapses. Redis failures are logged and bypassed.
type CachedRetriever struct {
	next   graph.Retriever
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

var _ graph.Retriever = (*CachedRetriever)(nil)

// NewCachedRetriever wraps next. A zero ttl caches for ten minutes.
func NewCachedRetriever(next graph.Retriever, client redis.UniversalClient, ttl time.Duration) *CachedRetriever {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedRetriever{next: next, client: client, ttl: ttl, prefix: "retrieval:"}
}

func (c *CachedRetriever) key(query string) string {
	sum := sha256.Sum256([]byte(query))
	return c.prefix + hex.EncodeToString(sum[:])
}

// Retrieve implements graph.Retriever.
func (c *CachedRetriever) Retrieve(ctx context.Context, query string) ([]graph.Passage, error) {
	key := c.key(query)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []graph.Passage
		if jerr := json.Unmarshal(data, &cached); jerr == nil {
			cacheHitsTotal.Inc()
			return cached, nil
		}
		golog.Warnf("dropping unreadable cache entry %s", key)
	case err != redis.Nil:
		golog.Warnf("retrieval cache unavailable: %v", err)
	}
	cacheMissesTotal.Inc()

	passages, err := c.next.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(passages); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			golog.Warnf("failed to cache retrieval: %v", err)
		}
	}
	return passages, nil
}
