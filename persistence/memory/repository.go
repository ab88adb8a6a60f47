// Package memory provides the in-memory reference implementation of
// repository.Repository. It is a deterministic development and test
// substitute: no persistence, single-process only.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/castlebit/storekit/entity"
	"github.com/castlebit/storekit/repository"
	"github.com/castlebit/storekit/result"
)

// Repository stores entities in a map keyed by identifier, guarded by a
// mutex so a single process can share one instance. Identifiers come from a
// monotonically increasing counter unless overridden.
type Repository[T entity.Entity] struct {
	mu    sync.RWMutex
	desc  entity.Descriptor[T]
	items map[string]T
	seq   uint64
	now   func() time.Time
	newID func() string
}

// Option configures a Repository.
type Option[T entity.Entity] func(*Repository[T])

// WithClock overrides the time source, for tests.
func WithClock[T entity.Entity](now func() time.Time) Option[T] {
	return func(r *Repository[T]) { r.now = now }
}

// WithIDGenerator overrides identifier generation, for tests or for parity
// with a SQL backend.
func WithIDGenerator[T entity.Entity](gen func() string) Option[T] {
	return func(r *Repository[T]) { r.newID = gen }
}

// NewRepository creates an empty in-memory repository for the described
// entity type.
func NewRepository[T entity.Entity](desc entity.Descriptor[T], opts ...Option[T]) *Repository[T] {
	r := &Repository[T]{
		desc:  desc,
		items: make(map[string]T),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository[T]) nextID() string {
	if r.newID != nil {
		return r.newID()
	}
	r.seq++
	return fmt.Sprintf("id_%d", r.seq)
}

// touch returns the current time, nudged forward if the clock has not moved
// past prev so UpdatedAt always strictly increases.
func (r *Repository[T]) touch(prev time.Time) time.Time {
	now := r.now().UTC()
	if !now.After(prev) {
		now = prev.Add(time.Nanosecond)
	}
	return now
}

// FindByID retrieves an entity by id. Absence is a success with a zero T.
func (r *Repository[T]) FindByID(ctx context.Context, id string) result.Result[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.items[id]
	if !ok {
		var zero T
		return result.Ok(zero)
	}
	return result.Ok(r.desc.Clone(e))
}

// FindAll returns one page of the collection per opts.
func (r *Repository[T]) FindAll(ctx context.Context, opts repository.ListOptions) result.Result[repository.Page[T]] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches, err := r.matching(opts.Filter)
	if err != nil {
		return result.Err[repository.Page[T]](err)
	}

	if opts.SortBy != "" {
		if _, ok := r.desc.Value(r.desc.New(), opts.SortBy); !ok {
			return result.Err[repository.Page[T]](&repository.ValidationError{
				Field:   opts.SortBy,
				Message: "unknown sort field",
			})
		}
		desc := opts.Order == repository.SortDesc
		sort.SliceStable(matches, func(i, j int) bool {
			a, _ := r.desc.Value(matches[i], opts.SortBy)
			b, _ := r.desc.Value(matches[j], opts.SortBy)
			cmp, ok := compareValues(a, b)
			if !ok || cmp == 0 {
				// Deterministic tie-break on the identifier.
				cmp = compareStrings(matches[i].Meta().ID, matches[j].Meta().ID)
			}
			if desc {
				return cmp > 0
			}
			return cmp < 0
		})
	} else {
		// Map iteration order is random; listings are stable by id.
		sort.Slice(matches, func(i, j int) bool {
			return compareStrings(matches[i].Meta().ID, matches[j].Meta().ID) < 0
		})
	}

	total := int64(len(matches))
	window := matches
	if opts.Offset > 0 {
		if opts.Offset >= len(window) {
			window = nil
		} else {
			window = window[opts.Offset:]
		}
	}
	if opts.Limit > 0 && len(window) > opts.Limit {
		window = window[:opts.Limit]
	}

	items := make([]T, 0, len(window))
	for _, e := range window {
		items = append(items, r.desc.Clone(e))
	}

	return result.Ok(repository.Page[T]{
		Items:  items,
		Total:  total,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	})
}

// FindBy is FindAll narrowed to an exact-match filter.
func (r *Repository[T]) FindBy(ctx context.Context, criteria repository.Criteria, opts repository.ListOptions) result.Result[repository.Page[T]] {
	opts.Filter = opts.Filter.Merge(criteria)
	return r.FindAll(ctx, opts)
}

// FindOneBy returns the first entity matching criteria, or a zero T.
func (r *Repository[T]) FindOneBy(ctx context.Context, criteria repository.Criteria) result.Result[T] {
	page := r.FindBy(ctx, criteria, repository.ListOptions{Limit: 1})
	if page.IsErr() {
		return result.Err[T](page.Error())
	}
	if len(page.Value().Items) == 0 {
		var zero T
		return result.Ok(zero)
	}
	return result.Ok(page.Value().Items[0])
}

// Create stores a copy of e under a fresh identifier with both timestamps
// set, and returns the stored snapshot.
func (r *Repository[T]) Create(ctx context.Context, e T) result.Result[T] {
	if entity.IsZero(e) {
		return result.Err[T](&repository.ValidationError{Field: "entity", Message: "must not be nil"})
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.desc.Clone(e)
	meta := stored.Meta()
	meta.ID = r.nextID()
	now := r.now().UTC()
	meta.CreatedAt = now
	meta.UpdatedAt = now

	r.items[meta.ID] = stored
	return result.Ok(r.desc.Clone(stored))
}

// Update applies mutate to a copy of the stored entity, restores the
// protected metadata, bumps UpdatedAt and persists.
func (r *Repository[T]) Update(ctx context.Context, id string, mutate func(T) error) result.Result[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[id]
	if !ok {
		return result.Err[T](&repository.NotFoundError{Resource: r.desc.Name(), ID: id})
	}

	updated := r.desc.Clone(existing)
	if err := mutate(updated); err != nil {
		return result.Err[T](err)
	}

	prev := existing.Meta()
	meta := updated.Meta()
	meta.ID = prev.ID
	meta.CreatedAt = prev.CreatedAt
	meta.UpdatedAt = r.touch(prev.UpdatedAt)

	r.items[id] = updated
	return result.Ok(r.desc.Clone(updated))
}

// Delete removes the entity. Fails with a NotFoundError if absent.
func (r *Repository[T]) Delete(ctx context.Context, id string) result.Result[result.Unit] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return result.Err[result.Unit](&repository.NotFoundError{Resource: r.desc.Name(), ID: id})
	}
	delete(r.items, id)
	return result.OkUnit()
}

// Exists reports whether an entity with the given id is stored.
func (r *Repository[T]) Exists(ctx context.Context, id string) result.Result[bool] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.items[id]
	return result.Ok(ok)
}

// Count returns the number of entities matching criteria.
func (r *Repository[T]) Count(ctx context.Context, criteria repository.Criteria) result.Result[int64] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches, err := r.matching(criteria)
	if err != nil {
		return result.Err[int64](err)
	}
	return result.Ok(int64(len(matches)))
}

// matching collects stored entities satisfying the exact-match filter.
// Callers hold at least the read lock.
func (r *Repository[T]) matching(criteria repository.Criteria) ([]T, error) {
	probe := r.desc.New()
	for field := range criteria {
		if _, ok := r.desc.Value(probe, field); !ok {
			return nil, &repository.ValidationError{Field: field, Message: "unknown filter field"}
		}
	}

	matches := make([]T, 0, len(r.items))
	for _, e := range r.items {
		if matchesCriteria(r.desc, e, criteria) {
			matches = append(matches, e)
		}
	}
	return matches, nil
}

func matchesCriteria[T entity.Entity](desc entity.Descriptor[T], e T, criteria repository.Criteria) bool {
	for field, want := range criteria {
		got, ok := desc.Value(e, field)
		if !ok || !equalValues(got, want) {
			return false
		}
	}
	return true
}
