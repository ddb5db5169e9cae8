package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUserKey(t *testing.T) {
	assert.Equal(t, "schedule:user:42", UserKey(42))
}

func TestMemoryLocker_Exclusive(t *testing.T) {
	l := NewMemoryLocker(time.Second)
	ctx := context.Background()

	var active, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(ctx, UserKey(1))
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			n := atomic.AddInt32(&active, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), peak)
}

func TestMemoryLocker_Timeout(t *testing.T) {
	l := NewMemoryLocker(20 * time.Millisecond)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "k")
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "k")
	assert.ErrorIs(t, err, ErrLockTimeout)

	// other keys are independent
	releaseOther, err := l.Acquire(ctx, "other")
	require.NoError(t, err)
	releaseOther()

	release()
	release()

	again, err := l.Acquire(ctx, "k")
	require.NoError(t, err)
	again()
}

func TestMemoryLocker_Canceled(t *testing.T) {
	l := NewMemoryLocker(time.Second)
	release, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Acquire(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryLocker_DropsIdleSlots(t *testing.T) {
	l := NewMemoryLocker(20 * time.Millisecond)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "k")
	require.NoError(t, err)
	_, err = l.Acquire(ctx, "k")
	require.ErrorIs(t, err, ErrLockTimeout)

	l.mu.Lock()
	assert.Equal(t, 1, l.slots["k"].refs)
	l.mu.Unlock()

	release()
	for i := 0; i < 100; i++ {
		r, err := l.Acquire(ctx, UserKey(uint(i)))
		require.NoError(t, err)
		r()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.slots)
}

func newRedisLocker(t *testing.T, timeout, ttl time.Duration) (*RedisLocker, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisLocker(rdb, timeout, ttl, zap.NewNop()), mr
}

func TestRedisLocker_Exclusive(t *testing.T) {
	l, mr := newRedisLocker(t, 150*time.Millisecond, time.Minute)
	ctx := context.Background()

	release, err := l.Acquire(ctx, UserKey(1))
	require.NoError(t, err)
	assert.True(t, mr.Exists("lock:schedule:user:1"))
	assert.Equal(t, time.Minute, mr.TTL("lock:schedule:user:1"))

	_, err = l.Acquire(ctx, UserKey(1))
	assert.ErrorIs(t, err, ErrLockTimeout)

	other, err := l.Acquire(ctx, UserKey(2))
	require.NoError(t, err)
	other()

	release()
	release()
	assert.False(t, mr.Exists("lock:schedule:user:1"))

	again, err := l.Acquire(ctx, UserKey(1))
	require.NoError(t, err)
	again()
}

func TestRedisLocker_WaitsForRelease(t *testing.T) {
	l, _ := newRedisLocker(t, 2*time.Second, time.Minute)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "k")
	require.NoError(t, err)

	go func() {
		time.Sleep(100 * time.Millisecond)
		release()
	}()

	start := time.Now()
	second, err := l.Acquire(ctx, "k")
	require.NoError(t, err)
	defer second()
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestRedisLocker_StaleReleaseKeepsNewHolder(t *testing.T) {
	l, mr := newRedisLocker(t, 150*time.Millisecond, time.Second)
	ctx := context.Background()

	stale, err := l.Acquire(ctx, "k")
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)
	require.False(t, mr.Exists("lock:k"))

	current, err := l.Acquire(ctx, "k")
	require.NoError(t, err)
	holder, err := mr.Get("lock:k")
	require.NoError(t, err)

	stale()
	assert.True(t, mr.Exists("lock:k"))
	v, err := mr.Get("lock:k")
	require.NoError(t, err)
	assert.Equal(t, holder, v)

	current()
	assert.False(t, mr.Exists("lock:k"))
}

func TestRedisLocker_Canceled(t *testing.T) {
	l, _ := newRedisLocker(t, time.Second, time.Minute)
	release, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Acquire(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := NewRedisClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	assert.NoError(t, rdb.Close())

	mr.Close()
	_, err = NewRedisClient(context.Background(), mr.Addr(), "", 0)
	assert.Error(t, err)
}
