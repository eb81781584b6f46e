package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"resume-ai-credits/internal/domain/model"
	"resume-ai-credits/internal/domain/ports/repository"
	"resume-ai-credits/internal/infra/metrics"
	red "resume-ai-credits/internal/infra/redis"
)

var _ repository.CoinPackageRepository = (*packageRepoCacheDecorator)(nil)

// packageRepoCacheDecorator caches the read-mostly coin-package catalog in
// Redis. The catalog changes only through admin seeding, so writes simply
// invalidate.
type packageRepoCacheDecorator struct {
	inner repository.CoinPackageRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewPackageRepoCacheDecorator(inner repository.CoinPackageRepository, cache red.RedisClient, ttl time.Duration) repository.CoinPackageRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &packageRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *packageRepoCacheDecorator) fetch(ctx context.Context, key string) (*model.CoinPackage, bool) {
	val, err := d.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var p model.CoinPackage
	if json.Unmarshal([]byte(val), &p) != nil {
		return nil, false
	}
	return &p, true
}

func (d *packageRepoCacheDecorator) store(ctx context.Context, key string, p *model.CoinPackage) {
	if raw, err := json.Marshal(p); err == nil {
		_ = d.cache.Set(ctx, key, raw, d.ttl)
	}
}

func (d *packageRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.CoinPackage, error) {
	key := fmt.Sprintf("coin_package:%s", id)
	if p, ok := d.fetch(ctx, key); ok {
		metrics.IncCacheRequest("coin_package", "hit")
		return p, nil
	}
	metrics.IncCacheRequest("coin_package", "miss")
	p, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	d.store(ctx, key, p)
	return p, nil
}

func (d *packageRepoCacheDecorator) FindFreePackage(ctx context.Context, tx repository.Tx) (*model.CoinPackage, error) {
	const key = "coin_package:free"
	if p, ok := d.fetch(ctx, key); ok {
		metrics.IncCacheRequest("coin_package", "hit")
		return p, nil
	}
	metrics.IncCacheRequest("coin_package", "miss")
	p, err := d.inner.FindFreePackage(ctx, tx)
	if err != nil {
		return nil, err
	}
	d.store(ctx, key, p)
	return p, nil
}

func (d *packageRepoCacheDecorator) ListAll(ctx context.Context, tx repository.Tx) ([]*model.CoinPackage, error) {
	const key = "coin_packages:all"
	if val, err := d.cache.Get(ctx, key); err == nil {
		var out []*model.CoinPackage
		if json.Unmarshal([]byte(val), &out) == nil {
			metrics.IncCacheRequest("coin_package_list", "hit")
			return out, nil
		}
	}
	metrics.IncCacheRequest("coin_package_list", "miss")
	out, err := d.inner.ListAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	if raw, merr := json.Marshal(out); merr == nil {
		_ = d.cache.Set(ctx, key, raw, d.ttl)
	}
	return out, nil
}

func (d *packageRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, p *model.CoinPackage) error {
	_ = d.cache.Del(ctx, fmt.Sprintf("coin_package:%s", p.ID), "coin_package:free", "coin_packages:all")
	return d.inner.Save(ctx, tx, p)
}
