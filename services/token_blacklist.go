package services

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

// RevokedTokens remembers access tokens that were signed out so a cached
// copy is never restored. Entries expire with the token.
type RevokedTokens interface {
	Revoke(ctx context.Context, token string, until time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// defaultRevocationTTL applies when the token carries no usable expiry.
const defaultRevocationTTL = 24 * time.Hour

// tokenDigest keys a token without storing the token itself.
func tokenDigest(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func revocationTTL(until time.Time) time.Duration {
	if until.IsZero() {
		return defaultRevocationTTL
	}
	if ttl := time.Until(until); ttl > 0 {
		return ttl
	}
	return 0
}

type RedisTokenBlacklist struct {
	client *redis.Client
}

func NewRedisTokenBlacklist(client *redis.Client) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{client: client}
}

func (tb *RedisTokenBlacklist) Revoke(ctx context.Context, token string, until time.Time) error {
	if token == "" {
		return nil
	}
	ttl := revocationTTL(until)
	if ttl == 0 {
		// already expired, nothing to remember
		return nil
	}

	key := fmt.Sprintf("revoked:%s", tokenDigest(token))
	if err := tb.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token in Redis: %w", err)
	}
	return nil
}

func (tb *RedisTokenBlacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	n, err := tb.client.Exists(ctx, fmt.Sprintf("revoked:%s", tokenDigest(token))).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revoked tokens: %w", err)
	}
	return n > 0, nil
}

type MemoryTokenBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryTokenBlacklist() *MemoryTokenBlacklist {
	return &MemoryTokenBlacklist{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (tb *MemoryTokenBlacklist) Revoke(ctx context.Context, token string, until time.Time) error {
	if token == "" {
		return nil
	}
	ttl := revocationTTL(until)
	if ttl == 0 {
		return nil
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.entries[tokenDigest(token)] = tb.now().Add(ttl)
	return nil
}

func (tb *MemoryTokenBlacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()

	key := tokenDigest(token)
	expiry, ok := tb.entries[key]
	if !ok {
		return false, nil
	}
	if !tb.now().Before(expiry) {
		delete(tb.entries, key)
		return false, nil
	}
	return true, nil
}
