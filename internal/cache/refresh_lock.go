package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/farmrisk/internal/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	lockKeyPrefix     = keyPrefix + "lock:"
	defaultLockTTL    = time.Minute
	AlertsRefreshLock = "alerts_refresh"
)

// releaseScript deletes the lock only if we still own it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// ReleaseFunc gives a held lock back.
type ReleaseFunc func(ctx context.Context) error

type RefreshLocker interface {
	// TryLock does not wait; acquired is false when someone else holds name.
	TryLock(ctx context.Context, name string) (release ReleaseFunc, acquired bool, err error)
}

type redisRefreshLocker struct {
	client *redis.Client
	ttl    time.Duration
}

type noopRefreshLocker struct{}

func NewRefreshLocker(client *redis.Client, cfg config.CacheConfig) RefreshLocker {
	if client == nil {
		return NewNoopRefreshLocker()
	}

	ttl := time.Duration(cfg.RefreshLockTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &redisRefreshLocker{client: client, ttl: ttl}
}

func NewNoopRefreshLocker() RefreshLocker {
	return &noopRefreshLocker{}
}

func (l *redisRefreshLocker) TryLock(ctx context.Context, name string) (ReleaseFunc, bool, error) {
	key := lockKey(name)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis setnx failed: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
			return fmt.Errorf("redis release lock failed: %w", err)
		}
		return nil
	}
	return release, true, nil
}

func (n *noopRefreshLocker) TryLock(ctx context.Context, name string) (ReleaseFunc, bool, error) {
	return func(context.Context) error { return nil }, true, nil
}

func lockKey(name string) string {
	return lockKeyPrefix + name
}
