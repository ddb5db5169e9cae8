// Package lock serializes scheduling runs per user.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrLockTimeout is returned when a lock could not be taken in time
var ErrLockTimeout = errors.New("lock: timed out waiting for lock")

// Locker hands out exclusive per-key locks. The returned release func must
// be called exactly once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// UserKey is the lock key guarding one user's calendar
func UserKey(userID uint) string {
	return fmt.Sprintf("schedule:user:%d", userID)
}

// MemoryLocker is a process-local Locker. A key's slot lives only while
// someone holds or waits for it.
type MemoryLocker struct {
	timeout time.Duration

	mu    sync.Mutex
	slots map[string]*memorySlot
}

type memorySlot struct {
	ch   chan struct{}
	refs int
}

// NewMemoryLocker creates a locker that waits at most timeout per Acquire
func NewMemoryLocker(timeout time.Duration) *MemoryLocker {
	return &MemoryLocker{timeout: timeout, slots: make(map[string]*memorySlot)}
}

func (l *MemoryLocker) join(key string) *memorySlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &memorySlot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *MemoryLocker) leave(key string, s *memorySlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// Acquire blocks until the key is free, the timeout passes or ctx is done
func (l *MemoryLocker) Acquire(ctx context.Context, key string) (func(), error) {
	s := l.join(key)

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.leave(key, s)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrLockTimeout
		}
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.leave(key, s)
		})
	}, nil
}

const (
	redisKeyPrefix = "lock:"
	redisRetry     = 50 * time.Millisecond
)

// releaseScript deletes the key only while it still holds our token
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every replica using the same Redis
type RedisLocker struct {
	rdb     goredis.UniversalClient
	timeout time.Duration
	ttl     time.Duration
	logger  *zap.Logger
}

// NewRedisLocker creates a Redis-backed locker. Keys expire after ttl so a
// crashed holder cannot block a user forever.
func NewRedisLocker(rdb goredis.UniversalClient, timeout, ttl time.Duration, logger *zap.Logger) *RedisLocker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{rdb: rdb, timeout: timeout, ttl: ttl, logger: logger}
}

// Acquire polls SET NX until it wins, the timeout passes or ctx is done
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	key = redisKeyPrefix + key
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	ticker := time.NewTicker(redisRetry)
	defer ticker.Stop()

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		switch {
		case err == nil && ok:
			return l.releaser(key, token), nil
		case err != nil && ctx.Err() == nil:
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrLockTimeout
			}
			return nil, ctx.Err()
		}
	}
}

func (l *RedisLocker) releaser(key, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
				l.logger.Warn("release lock failed", zap.String("key", key), zap.Error(err))
			}
		})
	}
}

// NewRedisClient connects and pings Redis
func NewRedisClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return rdb, nil
}
