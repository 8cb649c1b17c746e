package extraction

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/imrishuroy/go-order-intake/internal/orders"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const cachePrefix = "order-intake:extraction:"

// RedisAPI is the part of *redis.Client used by the cache.
type RedisAPI interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedExtractor memoizes extractions in Redis, keyed by the email text.
// Redis failures never fail an extraction; the call goes to next instead.
type CachedExtractor struct {
	next   Extractor
	client RedisAPI
	ttl    time.Duration
	logger *log.Entry
}

// NewCachedExtractor wraps next with a Redis cache.
func NewCachedExtractor(next Extractor, client RedisAPI, ttl time.Duration) *CachedExtractor {
	return &CachedExtractor{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: log.WithField("component", "extraction_cache"),
	}
}

// CacheKey is the Redis key for an email.
func CacheKey(emailText string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(emailText)))
	return cachePrefix + hex.EncodeToString(sum[:])
}

func (c *CachedExtractor) Extract(ctx context.Context, emailText string) (orders.Order, error) {
	key := CacheKey(emailText)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var o orders.Order
		uerr := json.Unmarshal(data, &o)
		if uerr == nil {
			return o, nil
		}
		c.logger.WithError(uerr).Warn("discarding unreadable cache entry")
	case errors.Is(err, redis.Nil):
		// miss
	default:
		c.logger.WithError(err).Warn("cache get failed")
	}

	o, err := c.next.Extract(ctx, emailText)
	if err != nil {
		return orders.Order{}, err
	}

	if b, merr := json.Marshal(o); merr == nil {
		if serr := c.client.Set(ctx, key, b, c.ttl).Err(); serr != nil {
			c.logger.WithError(serr).Warn("cache set failed")
		}
	}
	return o, nil
}
