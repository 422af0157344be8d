// Package lock provides a minimal Redis-backed mutual exclusion primitive.
// It is used to make sure only one actor runs the expiry handler for a given
// booking at a time, across timers, sweeps and instances.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNotAcquired = errors.New("lock not acquired")

// releaseScript deletes the key only when the caller still owns it, so an
// expired lock that was re-acquired by someone else is never released by the
// previous holder.
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

type Manager struct {
	client redis.UniversalClient
}

func NewManager(client redis.UniversalClient) *Manager {
	return &Manager{client: client}
}

type Lock struct {
	client redis.UniversalClient
	key    string
	value  string
}

// Acquire takes the named lock for at most ttl. It fails fast with
// ErrNotAcquired when another holder exists.
func (m *Manager) Acquire(ctx context.Context, name string, ttl time.Duration) (*Lock, error) {
	key := fmt.Sprintf("lock:%s", name)
	value := uuid.New().String()

	ok, err := m.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}

	if !ok {
		return nil, ErrNotAcquired
	}

	return &Lock{client: m.client, key: key, value: value}, nil
}

func (l *Lock) Release(ctx context.Context) error {
	err := releaseScript.Run(ctx, l.client, []string{l.key}, l.value).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to release lock: %w", err)
	}

	return nil
}
