package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Client Cache 用到的最小 redis 子集，*redis.Client 直接满足
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// 回源脱离调用方 ctx 后的上限
const loadTimeout = 5 * time.Second

type Cache struct {
	RDB    Client
	Prefix string
	sf     singleflight.Group

	mu  sync.Mutex
	gen map[string]uint64 // Delete 时递增，回源期间被删则不回写
}

func New(rdb Client, prefix string) *Cache {
	return &Cache{RDB: rdb, Prefix: prefix}
}

// Dial 建立连接并 Ping，失败时关闭客户端
func Dial(ctx context.Context, addr, pass string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "ping redis %s", addr)
	}
	return rdb, nil
}

func (c *Cache) Key(parts ...string) string {
	k := c.Prefix
	for _, p := range parts {
		if k != "" {
			k += ":"
		}
		k += p
	}
	return k
}

func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	// 先读缓存；redis 故障时直接回源
	if b, err := c.RDB.Get(ctx, key).Bytes(); err == nil {
		return b, nil
	}
	// single flight 合并回源；合并进来的调用方不应被首个请求的取消牵连
	v, err, _ := c.sf.Do(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		g := c.generation(key)
		b, e := load(lctx)
		if e != nil {
			return nil, e
		}
		if c.generation(key) == g {
			_ = c.RDB.Set(lctx, key, b, ttl).Err()
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	c.mu.Lock()
	if c.gen == nil {
		c.gen = map[string]uint64{}
	}
	for _, k := range keys {
		c.gen[k]++
		c.sf.Forget(k)
	}
	c.mu.Unlock()
	return c.RDB.Del(ctx, keys...).Err()
}

func (c *Cache) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen[key]
}
