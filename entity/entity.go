// Package entity defines the base record shape shared by everything a
// repository manages, plus the Descriptor that wires a concrete type into
// the generic repositories.
package entity

import (
	"reflect"
	"time"
)

// Metadata carries the fields a repository owns on every stored record.
// Domain types embed it; the identifier and both timestamps are assigned by
// the repository on Create and are never taken from the caller. Update
// refreshes UpdatedAt, CreatedAt is immutable for the life of the record.
type Metadata struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Meta returns the embedded metadata, satisfying Entity.
func (m *Metadata) Meta() *Metadata { return m }

// Entity is any domain record managed by a repository. In practice T is a
// pointer to a struct embedding Metadata.
type Entity interface {
	Meta() *Metadata
}

// Descriptor wires a concrete entity type into a generic repository.
// Implementations are stateless values shared across repositories.
type Descriptor[T Entity] interface {
	// Name is the collection name, e.g. "users". It doubles as the backing
	// table name for SQL-backed repositories and must be a plain lowercase
	// identifier.
	Name() string

	// New returns an empty instance ready to be populated, e.g. by a row
	// decoder.
	New() T

	// Clone returns a deep copy. Repositories never hand out or retain
	// caller-visible instances.
	Clone(e T) T

	// Value reports the named filterable/sortable field of e. The second
	// return is false for fields the type does not expose; repositories turn
	// that into a validation failure.
	Value(e T, field string) (any, bool)
}

// IsZero reports whether e is the absent value of its type (a nil pointer).
// Repositories represent "not found" as a success wrapping this value.
func IsZero[T Entity](e T) bool {
	v := reflect.ValueOf(e)
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return v.IsNil()
	}
	return false
}
