package repo

import (
	"context"
	"time"

	"go.uber.org/zap"

	"acquisitions/internal/core/cache"
	"acquisitions/internal/domain"
)

// CachedUserRepo 按 id 读走 redis；缓存值不含密码摘要
// 写前写后各删一次 key，避免并发回源把旧值写回
type CachedUserRepo struct {
	domain.UserRepository
	c   *cache.Cache
	ttl time.Duration
	log *zap.Logger
}

var _ domain.UserRepository = (*CachedUserRepo)(nil)

func NewCachedUserRepo(next domain.UserRepository, c *cache.Cache, ttl time.Duration, l *zap.Logger) *CachedUserRepo {
	return &CachedUserRepo{UserRepository: next, c: c, ttl: ttl, log: l}
}

func (r *CachedUserRepo) key(id string) string { return r.c.Key("user", id) }

func (r *CachedUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return cache.GetOrLoadJSON(r.c, ctx, r.key(id), r.ttl, func(ctx context.Context) (*domain.User, error) {
		return r.UserRepository.FindByID(ctx, id)
	})
}

func (r *CachedUserRepo) Update(ctx context.Context, id string, upd domain.UserUpdate, at time.Time) (*domain.User, error) {
	r.evict(ctx, id)
	u, err := r.UserRepository.Update(ctx, id, upd, at)
	if err != nil {
		return nil, err
	}
	r.evict(ctx, id)
	return u, nil
}

func (r *CachedUserRepo) Delete(ctx context.Context, id string) (*domain.User, error) {
	r.evict(ctx, id)
	u, err := r.UserRepository.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	r.evict(ctx, id)
	return u, nil
}

func (r *CachedUserRepo) evict(ctx context.Context, id string) {
	if err := r.c.Delete(ctx, r.key(id)); err != nil {
		r.log.Warn("cache evict failed", zap.String("id", id), zap.Error(err))
	}
}
