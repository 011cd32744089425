package cache_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acquisitions/internal/core/cache"
	"acquisitions/internal/core/cache/cachetest"
)

type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestGetOrLoadJSON_CachesAfterFirstLoad(t *testing.T) {
	fake := cachetest.New()
	c := cache.New(fake, "acq")
	ctx := context.Background()

	var loads int32
	load := func(context.Context) (*item, error) {
		atomic.AddInt32(&loads, 1)
		return &item{ID: "1", Name: "Ann"}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := cache.GetOrLoadJSON(c, ctx, c.Key("user", "1"), time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, "Ann", got.Name)
	}
	assert.EqualValues(t, 1, loads)
	assert.True(t, fake.Has("acq:user:1"))
}

func TestGetOrLoad_LoadErrorIsNotCached(t *testing.T) {
	fake := cachetest.New()
	c := cache.New(fake, "")
	boom := errors.New("boom")

	_, err := c.GetOrLoad(context.Background(), "k", time.Minute, func(context.Context) ([]byte, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, fake.Has("k"))
}

func TestGetOrLoad_RedisDownFallsBackToLoad(t *testing.T) {
	fake := cachetest.New()
	fake.Down = true
	c := cache.New(fake, "")

	b, err := c.GetOrLoad(context.Background(), "k", time.Minute, func(context.Context) ([]byte, error) {
		return []byte("v"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "v", string(b))
}

func TestDelete(t *testing.T) {
	fake := cachetest.New()
	c := cache.New(fake, "acq")
	ctx := context.Background()
	require.NoError(t, fake.Set(ctx, "acq:user:1", "x", 0).Err())

	require.NoError(t, c.Delete(ctx, c.Key("user", "1")))
	assert.False(t, fake.Has("acq:user:1"))
	assert.NoError(t, c.Delete(ctx))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "acq:user:42", cache.New(nil, "acq").Key("user", "42"))
	assert.Equal(t, "user:42", cache.New(nil, "").Key("user", "42"))
}

func TestGetOrLoad_DeleteDuringLoadIsNotOverwritten(t *testing.T) {
	fake := cachetest.New()
	c := cache.New(fake, "")
	ctx := context.Background()

	started, release := make(chan struct{}), make(chan struct{})
	done := make(chan []byte, 1)
	go func() {
		b, _ := c.GetOrLoad(ctx, "k", time.Minute, func(context.Context) ([]byte, error) {
			close(started)
			<-release
			return []byte("old"), nil
		})
		done <- b
	}()

	<-started
	require.NoError(t, c.Delete(ctx, "k"))
	close(release)
	assert.Equal(t, "old", string(<-done))
	assert.False(t, fake.Has("k"), "value loaded before the delete must not be cached")

	// 之后的回源正常回写
	_, err := c.GetOrLoad(ctx, "k", time.Minute, func(context.Context) ([]byte, error) {
		return []byte("new"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new", fake.Raw("k"))
}

func TestGetOrLoad_LoadOutlivesCallerCancellation(t *testing.T) {
	fake := cachetest.New()
	c := cache.New(fake, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b, err := c.GetOrLoad(ctx, "k", time.Minute, func(lctx context.Context) ([]byte, error) {
		if err := lctx.Err(); err != nil {
			return nil, err
		}
		_, hasDeadline := lctx.Deadline()
		assert.True(t, hasDeadline)
		return []byte("v"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "v", string(b))
	assert.True(t, fake.Has("k"))
}
