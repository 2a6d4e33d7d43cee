package merchant

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const cacheKeyPrefix = "merchant:domains:"

// DomainCache caches the account-domain list per access token in Redis for a
// short TTL, so repeated classifications within one session hit the Content
// API at most once. A nil redis client disables the cache.
type DomainCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewDomainCache creates a domain cache. client may be nil.
func NewDomainCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *DomainCache {
	return &DomainCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "DomainCache").Logger(),
	}
}

// cacheKey derives a fixed-length key from the token. Tokens are bearer
// credentials and must never appear in Redis verbatim.
func cacheKey(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached domain list for the token, if present.
func (c *DomainCache) Get(ctx context.Context, accessToken string) ([]AccountDomain, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	payload, err := c.client.Get(ctx, cacheKey(accessToken)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug().Err(err).Msg("Cache read failed")
		}
		return nil, false
	}

	var domains []AccountDomain
	if err := json.Unmarshal(payload, &domains); err != nil {
		c.logger.Debug().Err(err).Msg("Cache entry unmarshal failed")
		return nil, false
	}
	return domains, true
}

// Set stores the domain list for the token. Best effort.
func (c *DomainCache) Set(ctx context.Context, accessToken string, domains []AccountDomain) {
	if c == nil || c.client == nil {
		return
	}

	payload, err := json.Marshal(domains)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(accessToken), payload, c.ttl).Err(); err != nil {
		c.logger.Debug().Err(err).Msg("Cache write failed")
	}
}
