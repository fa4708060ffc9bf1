package cache

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"reimburse/internal/calculator"
)

func TestKey(t *testing.T) {
	trip := calculator.Trip{Days: 3, Miles: 93, Receipts: 1.42}
	fp := calculator.Optimized().Fingerprint()
	assert.Equal(t, "reimburse:"+fp+":3_93_1.42", Key(fp, trip))
	assert.NotEqual(t, Key(fp, trip), Key(calculator.Baseline().Fingerprint(), trip))
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2, 0)

	_, ok := m.Get(ctx, "a")
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "a", 1.5))
	v, ok := m.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, 1.5, v)

	require.NoError(t, m.Set(ctx, "b", 2))
	require.NoError(t, m.Set(ctx, "b", 3))
	assert.Equal(t, 2, m.Len())

	require.NoError(t, m.Set(ctx, "c", 4))
	assert.Equal(t, 2, m.Len())
	_, ok = m.Get(ctx, "a")
	assert.False(t, ok, "least recently used entry is evicted")
	v, ok = m.Get(ctx, "b")
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)
	v, ok = m.Get(ctx, "c")
	assert.True(t, ok)
	assert.Equal(t, 4.0, v)

	require.NoError(t, m.Close())
	assert.Zero(t, m.Len())
}

func TestMemoryTTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0, 50*time.Millisecond)

	require.NoError(t, m.Set(ctx, "k", 9))
	_, ok := m.Get(ctx, "k")
	assert.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := m.Get(ctx, "k")
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMemoryConcurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(50, 0)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		g := g
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := Key("fp", calculator.Trip{Days: i % 14, Miles: float64(g)})
				_ = m.Set(ctx, key, float64(i))
				m.Get(ctx, key)
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, m.Len(), 50)
}

func TestRedisUnavailableIsAMiss(t *testing.T) {
	r := NewRedis(RedisConfig{Addr: "127.0.0.1:1", Timeout: 50 * time.Millisecond}, zap.NewNop())
	defer r.Close()
	ctx := context.Background()

	assert.Error(t, r.Ping(ctx))
	_, ok := r.Get(ctx, "any")
	assert.False(t, ok)
	assert.Error(t, r.Set(ctx, "any", 1))
}

func TestRedisRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedis(RedisConfig{Addr: mr.Addr(), TTL: time.Minute}, zap.NewNop())
	defer r.Close()
	ctx := context.Background()

	require.NoError(t, r.Ping(ctx))
	key := Key(calculator.Optimized().Fingerprint(), calculator.Trip{Days: 1, Miles: 300, Receipts: 100})
	_, ok := r.Get(ctx, key)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, key, 159.06))
	raw, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "159.06", raw)
	assert.Equal(t, time.Minute, mr.TTL(key))

	v, ok := r.Get(ctx, key)
	assert.True(t, ok)
	assert.Equal(t, 159.06, v)

	require.NoError(t, r.Set(ctx, "whole", 2000))
	raw, err = mr.Get("whole")
	require.NoError(t, err)
	assert.Equal(t, "2000.00", raw)

	mr.FastForward(2 * time.Minute)
	_, ok = r.Get(ctx, key)
	assert.False(t, ok, "expired entry is a miss")

	require.NoError(t, mr.Set("garbage", "abc"))
	_, ok = r.Get(ctx, "garbage")
	assert.False(t, ok)

	assert.Error(t, r.Set(ctx, "nan", math.NaN()))
}

func TestRedisWithoutTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedis(RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	defer r.Close()

	require.NoError(t, r.Set(context.Background(), "k", 1.5))
	assert.Zero(t, mr.TTL("k"))
	raw, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "1.50", raw)
}
