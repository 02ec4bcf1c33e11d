package dataset

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func countingSource(calls *atomic.Int32) Source {
	return SourceFunc(func(ctx context.Context) (*SalesRecordSet, error) {
		calls.Add(1)
		return EmbeddedSource{}.Load(ctx)
	})
}

func TestCacheBuildKeyFollowsVersion(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(newTestRedis(t), time.Minute)

	key, err := cache.BuildKey(ctx, "embedded")
	require.NoError(t, err)
	require.Equal(t, "salesdash:dataset:embedded:v1", key)

	ver, err := cache.Bump(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), ver)

	key, err = cache.BuildKey(ctx, "embedded")
	require.NoError(t, err)
	require.Equal(t, "salesdash:dataset:embedded:v2", key)
}

func TestServiceCachesUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	svc := NewService(countingSource(&calls), "embedded", NewCache(newTestRedis(t), time.Minute), nil)

	first, err := svc.Load(ctx)
	require.NoError(t, err)
	second, err := svc.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, int32(1), calls.Load())
	require.True(t, first.TotalSales.Equal(second.TotalSales))
	require.Equal(t, first.SalesByStore[0].StoreName, second.SalesByStore[0].StoreName)

	require.NoError(t, svc.Invalidate(ctx))
	_, err = svc.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, int32(2), calls.Load())
}

func TestServiceWithoutRedisHitsSource(t *testing.T) {
	var calls atomic.Int32
	svc := NewService(countingSource(&calls), "embedded", nil, nil)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Load(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	require.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestListenForInvalidationDeliversVersion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cache := NewCache(newTestRedis(t), time.Minute)

	got := make(chan int64, 1)
	require.NoError(t, cache.ListenForInvalidation(ctx, func(v int64) { got <- v }))
	_, err := cache.Bump(ctx)
	require.NoError(t, err)

	select {
	case v := <-got:
		require.Equal(t, int64(2), v)
	case <-time.After(2 * time.Second):
		t.Fatal("bump not delivered")
	}
}
