package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v7"

	"budgetify/internal/uuid"
)

// ErrLockHeld is returned by TryLock when another run owns the lock.
var ErrLockHeld = errors.New("scheduler: run lock is held")

// Locker guarantees that at most one posting run is active at a time.
type Locker interface {
	// TryLock acquires the lock without waiting. It returns ErrLockHeld when
	// the lock is taken; unlock must be called once the run is over.
	TryLock(ctx context.Context) (unlock func(), err error)
}

// MemoryLocker serializes runs within one process.
type MemoryLocker struct {
	mu sync.Mutex
}

// NewMemoryLocker creates a process-local Locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{}
}

func (l *MemoryLocker) TryLock(ctx context.Context) (func(), error) {
	if !l.mu.TryLock() {
		return nil, ErrLockHeld
	}
	return l.mu.Unlock, nil
}

// releaseScript deletes the lock key only if it still carries our token.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisLocker serializes runs across every instance sharing a Redis server.
// The key expires after ttl so a crashed holder cannot block posting forever.
type RedisLocker struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// DefaultLockKey is the Redis key guarding posting runs.
const DefaultLockKey = "budgetify:scheduler:posting-run"

// NewRedisLocker creates a Locker backed by client.
func NewRedisLocker(client *redis.Client, key string, ttl time.Duration) *RedisLocker {
	if key == "" {
		key = DefaultLockKey
	}
	return &RedisLocker{client: client, key: key, ttl: ttl}
}

func (l *RedisLocker) TryLock(ctx context.Context) (func(), error) {
	token := uuid.New()
	ok, err := l.client.WithContext(ctx).SetNX(l.key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}

	unlock := func() {
		// The run context may already be cancelled; release on a fresh one.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = l.client.WithContext(releaseCtx).Eval(releaseScript, []string{l.key}, token).Err()
	}
	return unlock, nil
}
