// Package redis provides the Redis-backed run lock.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Liad-hossain/test-voice-export/internal/ports"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces run lock keys.
const DefaultPrefix = "vaultsync:run:"

// releaseScript deletes the key only while it still holds our token, so a run whose
// lock expired never removes the lock of the run that took over.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RunLock implements ports.RunLock with SET NX PX.
type RunLock struct {
	client redis.UniversalClient
	prefix string
}

var _ ports.RunLock = (*RunLock)(nil)

// NewRunLock creates a lock using the default key prefix.
func NewRunLock(client redis.UniversalClient) *RunLock {
	return NewRunLockWithPrefix(client, DefaultPrefix)
}

// NewRunLockWithPrefix creates a lock with a custom key prefix.
func NewRunLockWithPrefix(client redis.UniversalClient, prefix string) *RunLock {
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultPrefix
	}
	return &RunLock{client: client, prefix: prefix}
}

// Acquire takes the lock for key. ok is false when another holder owns it.
func (l *RunLock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	if key == "" {
		return nil, false, errors.New("lock key cannot be empty")
	}
	if ttl <= 0 {
		ttl = time.Second
	}

	fullKey := l.prefix + key
	token := uuid.NewString()

	// SET NX with TTL in one command; SETNX followed by EXPIRE is not atomic.
	status, err := l.client.SetArgs(ctx, fullKey, token, redis.SetArgs{Mode: "NX", TTL: ttl}).Result()
	if err != nil {
		// NX not met comes back as a nil reply.
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis SET NX: %w", err)
	}
	if status != "OK" {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{fullKey}, token).Err(); err != nil &&
			!errors.Is(err, redis.Nil) {
			return fmt.Errorf("release run lock %s: %w", fullKey, err)
		}
		return nil
	}
	return release, true, nil
}

// Holder returns the token currently stored for key, or "" when unlocked.
func (l *RunLock) Holder(ctx context.Context, key string) (string, error) {
	v, err := l.client.Get(ctx, l.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get: %w", err)
	}
	return v, nil
}

// Remaining returns the time left before the lock on key expires, or 0 when unlocked.
func (l *RunLock) Remaining(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := l.client.PTTL(ctx, l.prefix+key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis pttl: %w", err)
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}
