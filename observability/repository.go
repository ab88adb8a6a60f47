package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/castlebit/storekit/entity"
	"github.com/castlebit/storekit/repository"
	"github.com/castlebit/storekit/result"
)

// instrumentedRepository records a counter and a duration histogram around
// every operation of the wrapped repository.
type instrumentedRepository[T entity.Entity] struct {
	inner   repository.Repository[T]
	metrics *Metrics
	name    string
}

// InstrumentRepository wraps inner so every operation is counted and timed
// under the given collection name.
func InstrumentRepository[T entity.Entity](inner repository.Repository[T], metrics *Metrics, name string) repository.Repository[T] {
	return &instrumentedRepository[T]{inner: inner, metrics: metrics, name: name}
}

// observe runs op, then records its duration and outcome.
func observe[R any](ctx context.Context, m *Metrics, name, operation string, op func() result.Result[R]) result.Result[R] {
	start := time.Now()
	res := op()

	outcome := "success"
	if res.IsErr() {
		outcome = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("collection", name),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	)
	m.RepositoryOperationsTotal.Add(ctx, 1, attrs)
	m.RepositoryOperationDuration.Record(ctx, time.Since(start).Seconds(), attrs)

	return res
}

func (r *instrumentedRepository[T]) FindByID(ctx context.Context, id string) result.Result[T] {
	return observe(ctx, r.metrics, r.name, "find_by_id", func() result.Result[T] {
		return r.inner.FindByID(ctx, id)
	})
}

func (r *instrumentedRepository[T]) FindAll(ctx context.Context, opts repository.ListOptions) result.Result[repository.Page[T]] {
	return observe(ctx, r.metrics, r.name, "find_all", func() result.Result[repository.Page[T]] {
		return r.inner.FindAll(ctx, opts)
	})
}

func (r *instrumentedRepository[T]) FindBy(ctx context.Context, criteria repository.Criteria, opts repository.ListOptions) result.Result[repository.Page[T]] {
	return observe(ctx, r.metrics, r.name, "find_by", func() result.Result[repository.Page[T]] {
		return r.inner.FindBy(ctx, criteria, opts)
	})
}

func (r *instrumentedRepository[T]) FindOneBy(ctx context.Context, criteria repository.Criteria) result.Result[T] {
	return observe(ctx, r.metrics, r.name, "find_one_by", func() result.Result[T] {
		return r.inner.FindOneBy(ctx, criteria)
	})
}

func (r *instrumentedRepository[T]) Create(ctx context.Context, e T) result.Result[T] {
	return observe(ctx, r.metrics, r.name, "create", func() result.Result[T] {
		return r.inner.Create(ctx, e)
	})
}

func (r *instrumentedRepository[T]) Update(ctx context.Context, id string, mutate func(T) error) result.Result[T] {
	return observe(ctx, r.metrics, r.name, "update", func() result.Result[T] {
		return r.inner.Update(ctx, id, mutate)
	})
}

func (r *instrumentedRepository[T]) Delete(ctx context.Context, id string) result.Result[result.Unit] {
	return observe(ctx, r.metrics, r.name, "delete", func() result.Result[result.Unit] {
		return r.inner.Delete(ctx, id)
	})
}

func (r *instrumentedRepository[T]) Exists(ctx context.Context, id string) result.Result[bool] {
	return observe(ctx, r.metrics, r.name, "exists", func() result.Result[bool] {
		return r.inner.Exists(ctx, id)
	})
}

func (r *instrumentedRepository[T]) Count(ctx context.Context, criteria repository.Criteria) result.Result[int64] {
	return observe(ctx, r.metrics, r.name, "count", func() result.Result[int64] {
		return r.inner.Count(ctx, criteria)
	})
}
