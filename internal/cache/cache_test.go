package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStoreGetOrFetch(t *testing.T) {
	key := Key{Ticker: "TCS.NS", Kind: KindMarket}

	t.Run("fetches once then serves from cache", func(t *testing.T) {
		s := New[string](time.Minute, zap.NewNop())
		calls := 0
		fetch := func(ctx context.Context) (string, error) {
			calls++
			return "snapshot", nil
		}

		v, err := s.GetOrFetch(context.Background(), key, fetch)
		require.NoError(t, err)
		assert.Equal(t, "snapshot", v)

		v, err = s.GetOrFetch(context.Background(), key, fetch)
		require.NoError(t, err)
		assert.Equal(t, "snapshot", v)
		assert.Equal(t, 1, calls)
	})

	t.Run("expired entry is refetched", func(t *testing.T) {
		s := New[string](time.Minute, zap.NewNop())
		current := time.Now()
		s.now = func() time.Time { return current }

		calls := 0
		fetch := func(ctx context.Context) (string, error) {
			calls++
			return "snapshot", nil
		}

		_, err := s.GetOrFetch(context.Background(), key, fetch)
		require.NoError(t, err)

		current = current.Add(2 * time.Minute)
		_, err = s.GetOrFetch(context.Background(), key, fetch)
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("failed fetch is not cached", func(t *testing.T) {
		s := New[string](time.Minute, zap.NewNop())
		calls := 0
		_, err := s.GetOrFetch(context.Background(), key, func(ctx context.Context) (string, error) {
			calls++
			return "", errors.New("upstream down")
		})
		require.Error(t, err)

		v, err := s.GetOrFetch(context.Background(), key, func(ctx context.Context) (string, error) {
			calls++
			return "recovered", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "recovered", v)
		assert.Equal(t, 2, calls)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("concurrent callers share one fetch", func(t *testing.T) {
		s := New[string](time.Minute, zap.NewNop())
		var calls atomic.Int32
		release := make(chan struct{})
		fetch := func(ctx context.Context) (string, error) {
			calls.Add(1)
			<-release
			return "snapshot", nil
		}

		const workers = 10
		var wg sync.WaitGroup
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := s.GetOrFetch(context.Background(), key, fetch)
				assert.NoError(t, err)
				assert.Equal(t, "snapshot", v)
			}()
		}

		// let the workers pile up behind the in-flight fetch
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("distinct kinds do not collide", func(t *testing.T) {
		s := New[string](time.Minute, zap.NewNop())
		_, err := s.GetOrFetch(context.Background(), Key{Ticker: "TCS.NS", Kind: KindMarket}, func(ctx context.Context) (string, error) {
			return "market", nil
		})
		require.NoError(t, err)

		v, err := s.GetOrFetch(context.Background(), Key{Ticker: "TCS.NS", Kind: KindFinancials}, func(ctx context.Context) (string, error) {
			return "financials", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "financials", v)
		assert.Equal(t, 2, s.Len())
	})
}

func TestStorePurge(t *testing.T) {
	s := New[int](time.Minute, zap.NewNop())
	current := time.Now()
	s.now = func() time.Time { return current }

	for _, ticker := range []string{"TCS.NS", "INFY.NS", "WIPRO.NS"} {
		_, err := s.GetOrFetch(context.Background(), Key{Ticker: ticker, Kind: KindMarket}, func(ctx context.Context) (int, error) {
			return 1, nil
		})
		require.NoError(t, err)
	}
	require.Equal(t, 3, s.Len())

	assert.Equal(t, 0, s.Purge(), "fresh entries must survive a sweep")

	current = current.Add(2 * time.Minute)
	assert.Equal(t, 3, s.Purge())
	assert.Equal(t, 0, s.Len())
}
