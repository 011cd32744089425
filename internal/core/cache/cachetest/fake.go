// Package cachetest 内存版 cache.Client，给单测用
package cachetest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type Fake struct {
	mu   sync.Mutex
	data map[string]string
	// Down 为 true 时所有命令返回错误，模拟 redis 不可用
	Down bool

	Gets, Sets, Dels int
}

func New() *Fake { return &Fake{data: map[string]string{}} }

var errDown = fmt.Errorf("redis: connection refused")

func (f *Fake) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Gets++
	cmd := redis.NewStringCmd(ctx, "get", key)
	if f.Down {
		cmd.SetErr(errDown)
		return cmd
	}
	v, ok := f.data[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(v)
	return cmd
}

func (f *Fake) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sets++
	cmd := redis.NewStatusCmd(ctx, "set", key)
	if f.Down {
		cmd.SetErr(errDown)
		return cmd
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	default:
		f.data[key] = fmt.Sprint(v)
	}
	cmd.SetVal("OK")
	return cmd
}

func (f *Fake) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Dels++
	cmd := redis.NewIntCmd(ctx, "del")
	if f.Down {
		cmd.SetErr(errDown)
		return cmd
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func (f *Fake) Has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok
}

func (f *Fake) Raw(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data[key]
}
