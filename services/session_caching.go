package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"notespace/model"
	"notespace/utils"

	"github.com/redis/go-redis/v9"
)

// SessionCacheTTL bounds how long a persisted session may be restored from.
// The refresh token is what really decides whether it is still usable.
const SessionCacheTTL = 30 * 24 * time.Hour

// SessionCache persists the current session across restarts. Load returns
// nil, nil on a miss.
type SessionCache interface {
	Load(ctx context.Context) (*model.Session, error)
	Save(ctx context.Context, session *model.Session) error
	Clear(ctx context.Context) error
}

type RedisSessionCache struct {
	client *redis.Client
	key    string
}

func NewRedisSessionCache(client *redis.Client, clientID string) *RedisSessionCache {
	return &RedisSessionCache{
		client: client,
		key:    fmt.Sprintf("session:%s", clientID),
	}
}

func (sc *RedisSessionCache) Save(ctx context.Context, session *model.Session) error {
	if session == nil {
		return fmt.Errorf("cannot cache nil session")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := sc.client.Set(ctx, sc.key, data, SessionCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache session: %w", err)
	}
	return nil
}

func (sc *RedisSessionCache) Load(ctx context.Context) (*model.Session, error) {
	data, err := sc.client.Get(ctx, sc.key).Bytes()
	if errors.Is(err, redis.Nil) {
		utils.TrackCacheOperation("session", false)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session from cache: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		// unreadable entry, drop it
		sc.client.Del(ctx, sc.key)
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	utils.TrackCacheOperation("session", true)
	return &session, nil
}

func (sc *RedisSessionCache) Clear(ctx context.Context) error {
	if err := sc.client.Del(ctx, sc.key).Err(); err != nil {
		return fmt.Errorf("failed to delete session from cache: %w", err)
	}
	return nil
}

// MemorySessionCache keeps the session for the lifetime of the process only.
type MemorySessionCache struct {
	mu      sync.RWMutex
	session *model.Session
}

func NewMemorySessionCache() *MemorySessionCache {
	return &MemorySessionCache{}
}

func (sc *MemorySessionCache) Save(ctx context.Context, session *model.Session) error {
	if session == nil {
		return fmt.Errorf("cannot cache nil session")
	}
	copied := *session

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.session = &copied
	return nil
}

func (sc *MemorySessionCache) Load(ctx context.Context) (*model.Session, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	utils.TrackCacheOperation("session", sc.session != nil)
	if sc.session == nil {
		return nil, nil
	}
	copied := *sc.session
	return &copied, nil
}

func (sc *MemorySessionCache) Clear(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.session = nil
	return nil
}
