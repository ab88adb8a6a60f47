// Package cache provides a read-through caching decorator for any
// repository.Repository, backed by an in-process TTL cache. Point lookups
// are cached; listings always go to the inner repository so pages and
// totals stay fresh.
package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/castlebit/storekit/entity"
	"github.com/castlebit/storekit/repository"
	"github.com/castlebit/storekit/result"
)

// Repository wraps an inner repository with a TTL cache keyed by entity id.
// Writes keep the cache coherent: Create and Update store the new snapshot,
// Delete evicts.
type Repository[T entity.Entity] struct {
	inner repository.Repository[T]
	desc  entity.Descriptor[T]
	cache *gocache.Cache
}

// NewRepository creates a caching decorator around inner. Cached entries
// expire after ttl; cleanupInterval controls how often expired entries are
// purged.
func NewRepository[T entity.Entity](inner repository.Repository[T], desc entity.Descriptor[T], ttl, cleanupInterval time.Duration) *Repository[T] {
	return &Repository[T]{
		inner: inner,
		desc:  desc,
		cache: gocache.New(ttl, cleanupInterval),
	}
}

// FindByID serves from cache when possible, falling back to the inner
// repository and caching a hit. Cached values are cloned on the way out so
// callers can never mutate a cached snapshot.
func (r *Repository[T]) FindByID(ctx context.Context, id string) result.Result[T] {
	if v, found := r.cache.Get(id); found {
		return result.Ok(r.desc.Clone(v.(T)))
	}

	res := r.inner.FindByID(ctx, id)
	if res.IsOk() && !entity.IsZero(res.Value()) {
		r.cache.SetDefault(id, r.desc.Clone(res.Value()))
	}
	return res
}

// FindAll always delegates; listings are not cached.
func (r *Repository[T]) FindAll(ctx context.Context, opts repository.ListOptions) result.Result[repository.Page[T]] {
	return r.inner.FindAll(ctx, opts)
}

// FindBy always delegates; listings are not cached.
func (r *Repository[T]) FindBy(ctx context.Context, criteria repository.Criteria, opts repository.ListOptions) result.Result[repository.Page[T]] {
	return r.inner.FindBy(ctx, criteria, opts)
}

// FindOneBy always delegates; criteria lookups are not cached.
func (r *Repository[T]) FindOneBy(ctx context.Context, criteria repository.Criteria) result.Result[T] {
	return r.inner.FindOneBy(ctx, criteria)
}

// Create delegates and caches the stored snapshot.
func (r *Repository[T]) Create(ctx context.Context, e T) result.Result[T] {
	res := r.inner.Create(ctx, e)
	if res.IsOk() {
		r.cache.SetDefault(res.Value().Meta().ID, r.desc.Clone(res.Value()))
	}
	return res
}

// Update delegates and caches the new snapshot.
func (r *Repository[T]) Update(ctx context.Context, id string, mutate func(T) error) result.Result[T] {
	res := r.inner.Update(ctx, id, mutate)
	if res.IsOk() {
		r.cache.SetDefault(id, r.desc.Clone(res.Value()))
	}
	return res
}

// Delete delegates and evicts the cached entry.
func (r *Repository[T]) Delete(ctx context.Context, id string) result.Result[result.Unit] {
	res := r.inner.Delete(ctx, id)
	if res.IsOk() {
		r.cache.Delete(id)
	}
	return res
}

// Exists answers from cache when the entity is cached, otherwise delegates.
func (r *Repository[T]) Exists(ctx context.Context, id string) result.Result[bool] {
	if _, found := r.cache.Get(id); found {
		return result.Ok(true)
	}
	return r.inner.Exists(ctx, id)
}

// Count always delegates; totals are not cached.
func (r *Repository[T]) Count(ctx context.Context, criteria repository.Criteria) result.Result[int64] {
	return r.inner.Count(ctx, criteria)
}

// Flush drops every cached entry. The factory calls it when configuration
// changes.
func (r *Repository[T]) Flush() {
	r.cache.Flush()
}
