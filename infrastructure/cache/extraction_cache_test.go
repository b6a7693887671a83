package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"subtube/domain/repository"
	"subtube/infrastructure/cache"
)

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "UC123", repository.CacheKey("UC123", ""))
	assert.Equal(t, "UC123|page2", repository.CacheKey("UC123", "page2"))
}

func TestGetOrFetch_DedupesWithinTTL(t *testing.T) {
	c := cache.NewExtractionCache()
	var calls int32
	fetch := func(ctx context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte(`{"videos":[]}`), nil
	}

	first, err := c.GetOrFetch(context.Background(), "UC1", time.Minute, fetch)
	require.NoError(t, err)

	second, err := c.GetOrFetch(context.Background(), "UC1", time.Minute, fetch)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, first, second)
}

func TestGetOrFetch_RefetchesAfterTTL(t *testing.T) {
	c := cache.NewExtractionCache()
	var calls int32
	fetch := func(ctx context.Context) ([]byte, error) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			return []byte("old"), nil
		}
		return []byte("new"), nil
	}

	ttl := 20 * time.Millisecond
	first, err := c.GetOrFetch(context.Background(), "UC1", ttl, fetch)
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), first)

	time.Sleep(ttl + 10*time.Millisecond)

	second, err := c.GetOrFetch(context.Background(), "UC1", ttl, fetch)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), second)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetOrFetch_DistinctKeysFetchSeparately(t *testing.T) {
	c := cache.NewExtractionCache()
	var calls int32
	fetch := func(ctx context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte("x"), nil
	}

	_, err := c.GetOrFetch(context.Background(), repository.CacheKey("UC1", ""), time.Minute, fetch)
	require.NoError(t, err)
	_, err = c.GetOrFetch(context.Background(), repository.CacheKey("UC1", "page2"), time.Minute, fetch)
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetOrFetch_ConcurrentMissesCollapse(t *testing.T) {
	c := cache.NewExtractionCache()
	var calls int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []byte("shared"), nil
	}

	const goroutines = 16
	results := make([][]byte, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payload, err := c.GetOrFetch(context.Background(), "UC1", time.Minute, fetch)
			assert.NoError(t, err)
			results[i] = payload
		}(i)
	}

	// Let the goroutines pile up on the key before the fetch returns.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, payload := range results {
		assert.Equal(t, []byte("shared"), payload)
	}
}

func TestGetOrFetch_FetchErrorNotCached(t *testing.T) {
	c := cache.NewExtractionCache()
	var calls int32
	fetch := func(ctx context.Context) ([]byte, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, errors.New("boom")
		}
		return []byte("ok"), nil
	}

	_, err := c.GetOrFetch(context.Background(), "UC1", time.Minute, fetch)
	require.Error(t, err)

	payload, err := c.GetOrFetch(context.Background(), "UC1", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), payload)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetOrFetch_RedisTierSurvivesRestart(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	var calls int32
	fetch := func(ctx context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte("page"), nil
	}

	ttl := time.Minute
	first := cache.NewExtractionCache().WithRedis(client)
	_, err := first.GetOrFetch(context.Background(), "UC1", ttl, fetch)
	require.NoError(t, err)

	// A new cache stands in for a restarted process; the payload comes back
	// from Redis without another fetch.
	second := cache.NewExtractionCache().WithRedis(client)
	payload, err := second.GetOrFetch(context.Background(), "UC1", ttl, fetch)
	require.NoError(t, err)
	assert.Equal(t, []byte("page"), payload)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetOrFetch_RedisHitKeepsRemainingLifetime(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	var calls int32
	fetch := func(ctx context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte("page"), nil
	}

	ttl := 100 * time.Millisecond
	first := cache.NewExtractionCache().WithRedis(client)
	_, err := first.GetOrFetch(context.Background(), "UC1", ttl, fetch)
	require.NoError(t, err)

	// Most of the lifetime has elapsed by the time a restarted process sees
	// the key.
	mr.FastForward(80 * time.Millisecond)

	second := cache.NewExtractionCache().WithRedis(client)
	_, err = second.GetOrFetch(context.Background(), "UC1", ttl, fetch)
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// The promoted entry expires when the original window does, not a full
	// ttl after the promotion.
	mr.FastForward(30 * time.Millisecond)
	time.Sleep(40 * time.Millisecond)

	_, err = second.GetOrFetch(context.Background(), "UC1", ttl, fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
