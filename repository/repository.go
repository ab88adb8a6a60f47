// Package repository defines the generic CRUD contract storekit backends
// implement, along with its listing options, page shape and error taxonomy.
package repository

import (
	"context"

	"github.com/castlebit/storekit/entity"
	"github.com/castlebit/storekit/result"
)

// Criteria is an exact-match filter over named entity fields. Values must be
// comparable scalars (strings, numbers, booleans, time.Time). A field the
// entity's Descriptor does not expose is a validation failure.
type Criteria map[string]any

// Merge returns a copy of c with every entry of override applied on top.
// Either side may be nil.
func (c Criteria) Merge(override Criteria) Criteria {
	if len(c) == 0 {
		return override
	}
	merged := make(Criteria, len(c)+len(override))
	for k, v := range c {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

// SortOrder selects the direction of a sorted listing.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ListOptions narrows and orders a listing. The zero value means "everything,
// unsorted": a Limit of zero or below disables windowing.
type ListOptions struct {
	Limit  int
	Offset int
	SortBy string
	Order  SortOrder
	Filter Criteria
}

// Page is one window of a listing plus the total match count across all
// windows.
type Page[T entity.Entity] struct {
	Items  []T
	Total  int64
	Limit  int
	Offset int
}

// HasNext reports whether another window follows this one.
func (p Page[T]) HasNext() bool {
	return p.Limit > 0 && int64(p.Offset+p.Limit) < p.Total
}

// HasPrev reports whether a window precedes this one.
func (p Page[T]) HasPrev() bool { return p.Offset > 0 }

// Repository is the storage contract for one entity collection. Every
// operation wraps its outcome in a Result instead of returning a bare error;
// unexpected backing-store faults arrive as StorageError failures, never as
// panics or raw driver errors.
type Repository[T entity.Entity] interface {
	// FindByID retrieves an entity by its identifier. Absence is a success
	// wrapping the zero value of T, not a failure.
	FindByID(ctx context.Context, id string) result.Result[T]

	// FindAll returns one page of the collection per opts.
	FindAll(ctx context.Context, opts ListOptions) result.Result[Page[T]]

	// FindBy is FindAll narrowed to an exact-match filter. Filter fields in
	// criteria take precedence over opts.Filter.
	FindBy(ctx context.Context, criteria Criteria, opts ListOptions) result.Result[Page[T]]

	// FindOneBy returns the first entity matching criteria, or the zero
	// value of T if none does.
	FindOneBy(ctx context.Context, criteria Criteria) result.Result[T]

	// Create stores e under a freshly assigned identifier with both
	// timestamps set, and returns the stored snapshot. Metadata supplied by
	// the caller is overwritten, never trusted.
	Create(ctx context.Context, e T) result.Result[T]

	// Update loads the entity, applies mutate to a private copy, restores
	// the protected metadata, refreshes UpdatedAt to a strictly greater
	// value, persists and returns the new snapshot. Fails with a
	// NotFoundError if the id is absent; an error returned by mutate aborts
	// the update and is propagated unchanged.
	Update(ctx context.Context, id string, mutate func(T) error) result.Result[T]

	// Delete removes the entity. Fails with a NotFoundError if absent.
	Delete(ctx context.Context, id string) result.Result[result.Unit]

	// Exists reports whether an entity with the given id is stored. Absence
	// is not a failure.
	Exists(ctx context.Context, id string) result.Result[bool]

	// Count returns the number of entities matching criteria, or the size of
	// the whole collection for a nil criteria.
	Count(ctx context.Context, criteria Criteria) result.Result[int64]
}
