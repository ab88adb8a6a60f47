package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/castlebit/storekit/entity"
	"github.com/castlebit/storekit/repository"
	"github.com/castlebit/storekit/result"
)

// Repository provides the MySQL implementation of repository.Repository.
type Repository[T entity.Entity] struct {
	db    *DB
	desc  entity.Descriptor[T]
	table string
	now   func() time.Time
	newID func() string
}

// Option configures a Repository.
type Option[T entity.Entity] func(*Repository[T])

// WithClock overrides the time source, for tests.
func WithClock[T entity.Entity](now func() time.Time) Option[T] {
	return func(r *Repository[T]) { r.now = now }
}

// WithIDGenerator overrides identifier generation, for tests.
func WithIDGenerator[T entity.Entity](gen func() string) Option[T] {
	return func(r *Repository[T]) { r.newID = gen }
}

// NewRepository creates a MySQL-backed repository for the described entity
// type. The collection table must exist; run DB.Migrate first.
func NewRepository[T entity.Entity](db *DB, desc entity.Descriptor[T], opts ...Option[T]) *Repository[T] {
	r := &Repository[T]{
		db:    db,
		desc:  desc,
		table: desc.Name(),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// fieldExpr resolves a filter field to a SQL expression plus its bound
// argument. Metadata fields map to real columns, everything else to a JSON
// path into data compared textually.
func (r *Repository[T]) fieldExpr(field string, value any) (string, any, error) {
	switch field {
	case "id":
		return "id", value, nil
	case "created_at", "updated_at":
		if t, ok := value.(time.Time); ok {
			value = t.UTC()
		}
		return field, value, nil
	}
	if _, ok := r.desc.Value(r.desc.New(), field); !ok {
		return "", nil, &repository.ValidationError{Field: field, Message: "unknown field"}
	}
	if err := validateIdent(field); err != nil {
		return "", nil, &repository.ValidationError{Field: field, Message: "invalid field name"}
	}
	scalar, err := jsonScalar(value)
	if err != nil {
		return "", nil, &repository.ValidationError{Field: field, Message: "unsupported criteria value"}
	}
	return fmt.Sprintf("JSON_UNQUOTE(JSON_EXTRACT(data, '$.%s'))", field), scalar, nil
}

// sortExpr resolves a sort field to an ORDER BY expression.
func (r *Repository[T]) sortExpr(field string) (string, error) {
	switch field {
	case "id", "created_at", "updated_at":
		return field, nil
	}
	if _, ok := r.desc.Value(r.desc.New(), field); !ok {
		return "", &repository.ValidationError{Field: field, Message: "unknown sort field"}
	}
	if err := validateIdent(field); err != nil {
		return "", &repository.ValidationError{Field: field, Message: "invalid field name"}
	}
	return fmt.Sprintf("JSON_EXTRACT(data, '$.%s')", field), nil
}

func (r *Repository[T]) buildWhere(criteria repository.Criteria) (string, []any, error) {
	if len(criteria) == 0 {
		return "", nil, nil
	}

	fields := make([]string, 0, len(criteria))
	for field := range criteria {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	clause := " WHERE "
	args := make([]any, 0, len(fields))
	for i, field := range fields {
		expr, arg, err := r.fieldExpr(field, criteria[field])
		if err != nil {
			return "", nil, err
		}
		if i > 0 {
			clause += " AND "
		}
		clause += expr + " = ?"
		args = append(args, arg)
	}
	return clause, args, nil
}

func (r *Repository[T]) decode(data []byte) (T, error) {
	e := r.desc.New()
	if err := json.Unmarshal(data, e); err != nil {
		var zero T
		return zero, err
	}
	return e, nil
}

// FindByID retrieves an entity by id. Absence is a success with a zero T.
func (r *Repository[T]) FindByID(ctx context.Context, id string) result.Result[T] {
	var data []byte
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT data FROM %s WHERE id = ?", r.table), id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		var zero T
		return result.Ok(zero)
	}
	if err != nil {
		return result.Err[T](repository.NewStorageError("find_by_id", err))
	}

	e, err := r.decode(data)
	if err != nil {
		return result.Err[T](repository.NewStorageError("decode", err))
	}
	return result.Ok(e)
}

// FindAll returns one page of the collection per opts.
func (r *Repository[T]) FindAll(ctx context.Context, opts repository.ListOptions) result.Result[repository.Page[T]] {
	where, args, err := r.buildWhere(opts.Filter)
	if err != nil {
		return result.Err[repository.Page[T]](err)
	}

	var total int64
	err = r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s%s", r.table, where), args...,
	).Scan(&total)
	if err != nil {
		return result.Err[repository.Page[T]](repository.NewStorageError("count", err))
	}

	order := " ORDER BY id ASC"
	if opts.SortBy != "" {
		expr, err := r.sortExpr(opts.SortBy)
		if err != nil {
			return result.Err[repository.Page[T]](err)
		}
		dir := "ASC"
		if opts.Order == repository.SortDesc {
			dir = "DESC"
		}
		order = fmt.Sprintf(" ORDER BY %s %s, id ASC", expr, dir)
	}

	window := ""
	if opts.Limit > 0 {
		window = " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, opts.Offset)
	} else if opts.Offset > 0 {
		// MySQL has no unbounded OFFSET; use the documented huge-limit idiom.
		window = " LIMIT 18446744073709551615 OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf("SELECT data FROM %s%s%s%s", r.table, where, order, window), args...,
	)
	if err != nil {
		return result.Err[repository.Page[T]](repository.NewStorageError("find_all", err))
	}
	defer rows.Close()

	var items []T
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return result.Err[repository.Page[T]](repository.NewStorageError("scan", err))
		}
		e, err := r.decode(data)
		if err != nil {
			return result.Err[repository.Page[T]](repository.NewStorageError("decode", err))
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return result.Err[repository.Page[T]](repository.NewStorageError("find_all", err))
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

// Create stores e under a freshly assigned identifier with both timestamps
// set, and returns the stored snapshot.
func (r *Repository[T]) Create(ctx context.Context, e T) result.Result[T] {
	if entity.IsZero(e) {
		return result.Err[T](&repository.ValidationError{Field: "entity", Message: "must not be nil"})
	}

	stored := r.desc.Clone(e)
	meta := stored.Meta()
	meta.ID = r.newID()
	now := r.now().UTC()
	meta.CreatedAt = now
	meta.UpdatedAt = now

	data, err := json.Marshal(stored)
	if err != nil {
		return result.Err[T](repository.NewStorageError("encode", err))
	}

	_, err = r.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (id, data, created_at, updated_at) VALUES (?, ?, ?, ?)", r.table),
		meta.ID, data, meta.CreatedAt, meta.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return result.Err[T](&repository.ValidationError{Field: "id", Message: "already exists"})
		}
		return result.Err[T](repository.NewStorageError("create", err))
	}

	return result.Ok(stored)
}

// Update loads the entity inside a transaction with a row lock, applies
// mutate, restores the protected metadata, bumps UpdatedAt and writes the
// row back.
func (r *Repository[T]) Update(ctx context.Context, id string, mutate func(T) error) result.Result[T] {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return result.Err[T](repository.NewStorageError("begin", err))
	}
	defer tx.Rollback()

	var data []byte
	err = tx.QueryRowContext(ctx,
		fmt.Sprintf("SELECT data FROM %s WHERE id = ? FOR UPDATE", r.table), id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return result.Err[T](&repository.NotFoundError{Resource: r.table, ID: id})
	}
	if err != nil {
		return result.Err[T](repository.NewStorageError("update", err))
	}

	e, err := r.decode(data)
	if err != nil {
		return result.Err[T](repository.NewStorageError("decode", err))
	}

	prev := *e.Meta()
	if err := mutate(e); err != nil {
		return result.Err[T](err)
	}

	meta := e.Meta()
	meta.ID = prev.ID
	meta.CreatedAt = prev.CreatedAt
	meta.UpdatedAt = touch(r.now, prev.UpdatedAt)

	updated, err := json.Marshal(e)
	if err != nil {
		return result.Err[T](repository.NewStorageError("encode", err))
	}

	_, err = tx.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET data = ?, updated_at = ? WHERE id = ?", r.table),
		updated, meta.UpdatedAt, id,
	)
	if err != nil {
		return result.Err[T](repository.NewStorageError("update", err))
	}

	if err := tx.Commit(); err != nil {
		return result.Err[T](repository.NewStorageError("commit", err))
	}
	return result.Ok(e)
}

// Delete removes the entity. Fails with a NotFoundError if absent.
func (r *Repository[T]) Delete(ctx context.Context, id string) result.Result[result.Unit] {
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = ?", r.table), id,
	)
	if err != nil {
		return result.Err[result.Unit](repository.NewStorageError("delete", err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return result.Err[result.Unit](repository.NewStorageError("delete", err))
	}
	if affected == 0 {
		return result.Err[result.Unit](&repository.NotFoundError{Resource: r.table, ID: id})
	}
	return result.OkUnit()
}

// Exists reports whether an entity with the given id is stored.
func (r *Repository[T]) Exists(ctx context.Context, id string) result.Result[bool] {
	var found bool
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE id = ?)", r.table), id,
	).Scan(&found)
	if err != nil {
		return result.Err[bool](repository.NewStorageError("exists", err))
	}
	return result.Ok(found)
}

// Count returns the number of entities matching criteria.
func (r *Repository[T]) Count(ctx context.Context, criteria repository.Criteria) result.Result[int64] {
	where, args, err := r.buildWhere(criteria)
	if err != nil {
		return result.Err[int64](err)
	}

	var total int64
	err = r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s%s", r.table, where), args...,
	).Scan(&total)
	if err != nil {
		return result.Err[int64](repository.NewStorageError("count", err))
	}
	return result.Ok(total)
}

// touch returns the current time, nudged forward if the clock has not moved
// past prev so UpdatedAt always strictly increases.
func touch(now func() time.Time, prev time.Time) time.Time {
	t := now().UTC()
	if !t.After(prev) {
		t = prev.Add(time.Nanosecond)
	}
	return t
}
