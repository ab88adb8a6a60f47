package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlebit/storekit/repository"
	"github.com/castlebit/storekit/storekittest"
)

func setupTest(t *testing.T, opts ...Option[*storekittest.User]) *Repository[*storekittest.User] {
	t.Helper()
	return NewRepository(storekittest.Users, opts...)
}

func seedUsers(t *testing.T, repo *Repository[*storekittest.User], n int) []*storekittest.User {
	t.Helper()
	users := make([]*storekittest.User, 0, n)
	for i := 0; i < n; i++ {
		res := repo.Create(context.Background(), &storekittest.User{
			Name:  fmt.Sprintf("user-%d", i),
			Email: fmt.Sprintf("user-%d@example.com", i),
			Age:   20 + i,
		})
		require.True(t, res.IsOk())
		users = append(users, res.Value())
	}
	return users
}

func TestRepository_Create(t *testing.T) {
	repo := setupTest(t)
	ctx := context.Background()

	t.Run("assigns sequential ids and timestamps", func(t *testing.T) {
		res := repo.Create(ctx, &storekittest.User{Name: "Ada"})
		require.True(t, res.IsOk())

		created := res.Value()
		assert.Equal(t, "id_1", created.ID)
		assert.False(t, created.CreatedAt.IsZero())
		assert.Equal(t, created.CreatedAt, created.UpdatedAt)

		res = repo.Create(ctx, &storekittest.User{Name: "Grace"})
		require.True(t, res.IsOk())
		assert.Equal(t, "id_2", res.Value().ID)
	})

	t.Run("overwrites caller-supplied metadata", func(t *testing.T) {
		forged := &storekittest.User{Name: "Mallory"}
		forged.ID = "forged"
		forged.CreatedAt = time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)

		res := repo.Create(ctx, forged)
		require.True(t, res.IsOk())
		assert.NotEqual(t, "forged", res.Value().ID)
		assert.NotEqual(t, 1999, res.Value().CreatedAt.Year())
	})

	t.Run("rejects nil entities", func(t *testing.T) {
		res := repo.Create(ctx, nil)
		require.True(t, res.IsErr())
		assert.ErrorIs(t, res.Error(), repository.ErrValidation)
	})
}

func TestRepository_FindByID(t *testing.T) {
	repo := setupTest(t)
	ctx := context.Background()

	t.Run("round-trips a created entity", func(t *testing.T) {
		created := repo.Create(ctx, &storekittest.User{Name: "Ada", Email: "ada@example.com", Age: 36}).Value()

		res := repo.FindByID(ctx, created.ID)
		require.True(t, res.IsOk())
		assert.Equal(t, created, res.Value())
	})

	t.Run("absence is a success with a nil payload", func(t *testing.T) {
		res := repo.FindByID(ctx, "missing")
		require.True(t, res.IsOk())
		assert.Nil(t, res.Value())
	})

	t.Run("returned entities are private copies", func(t *testing.T) {
		created := repo.Create(ctx, &storekittest.User{Name: "Ada"}).Value()

		found := repo.FindByID(ctx, created.ID).Value()
		found.Name = "mutated"

		again := repo.FindByID(ctx, created.ID).Value()
		assert.Equal(t, "Ada", again.Name)
	})
}

func TestRepository_Update(t *testing.T) {
	repo := setupTest(t)
	ctx := context.Background()

	t.Run("merges mutated fields and bumps UpdatedAt", func(t *testing.T) {
		created := repo.Create(ctx, &storekittest.User{Name: "Ada", Email: "ada@example.com", Age: 36}).Value()

		res := repo.Update(ctx, created.ID, func(u *storekittest.User) error {
			u.Name = "Ada L."
			return nil
		})
		require.True(t, res.IsOk())

		updated := res.Value()
		assert.Equal(t, "Ada L.", updated.Name)
		assert.Equal(t, "ada@example.com", updated.Email)
		assert.Equal(t, 36, updated.Age)
		assert.Equal(t, created.CreatedAt, updated.CreatedAt)
		assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	})

	t.Run("protects metadata from the mutator", func(t *testing.T) {
		created := repo.Create(ctx, &storekittest.User{Name: "Grace"}).Value()

		updated := repo.Update(ctx, created.ID, func(u *storekittest.User) error {
			u.ID = "forged"
			u.CreatedAt = time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
			return nil
		}).Value()

		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	})

	t.Run("missing id is a not-found failure", func(t *testing.T) {
		res := repo.Update(ctx, "missing", func(u *storekittest.User) error { return nil })
		require.True(t, res.IsErr())
		assert.ErrorIs(t, res.Error(), repository.ErrNotFound)

		var notFound *repository.NotFoundError
		require.ErrorAs(t, res.Error(), &notFound)
		assert.Equal(t, "users", notFound.Resource)
		assert.Equal(t, "missing", notFound.ID)
	})

	t.Run("mutator error aborts the update", func(t *testing.T) {
		created := repo.Create(ctx, &storekittest.User{Name: "Linus"}).Value()

		boom := errors.New("boom")
		res := repo.Update(ctx, created.ID, func(u *storekittest.User) error {
			u.Name = "never stored"
			return boom
		})
		require.True(t, res.IsErr())
		assert.Same(t, boom, res.Error())

		assert.Equal(t, "Linus", repo.FindByID(ctx, created.ID).Value().Name)
	})

	t.Run("UpdatedAt strictly increases with a frozen clock", func(t *testing.T) {
		frozen := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		repo := setupTest(t, WithClock[*storekittest.User](func() time.Time { return frozen }))

		created := repo.Create(ctx, &storekittest.User{Name: "Ada"}).Value()
		first := repo.Update(ctx, created.ID, func(u *storekittest.User) error { return nil }).Value()
		second := repo.Update(ctx, created.ID, func(u *storekittest.User) error { return nil }).Value()

		assert.True(t, first.UpdatedAt.After(created.UpdatedAt))
		assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	})
}

func TestRepository_Delete(t *testing.T) {
	repo := setupTest(t)
	ctx := context.Background()

	t.Run("removes the entity", func(t *testing.T) {
		created := repo.Create(ctx, &storekittest.User{Name: "Ada"}).Value()

		res := repo.Delete(ctx, created.ID)
		require.True(t, res.IsOk())

		found := repo.FindByID(ctx, created.ID)
		require.True(t, found.IsOk())
		assert.Nil(t, found.Value())
	})

	t.Run("missing id is a not-found failure", func(t *testing.T) {
		res := repo.Delete(ctx, "missing")
		require.True(t, res.IsErr())
		assert.ErrorIs(t, res.Error(), repository.ErrNotFound)
	})
}

func TestRepository_FindAll(t *testing.T) {
	ctx := context.Background()

	t.Run("pages the collection", func(t *testing.T) {
		repo := setupTest(t)
		seedUsers(t, repo, 5)

		page := repo.FindAll(ctx, repository.ListOptions{Limit: 2, Offset: 0}).Value()
		assert.Len(t, page.Items, 2)
		assert.Equal(t, int64(5), page.Total)
		assert.True(t, page.HasNext())
		assert.False(t, page.HasPrev())

		last := repo.FindAll(ctx, repository.ListOptions{Limit: 2, Offset: 4}).Value()
		assert.Len(t, last.Items, 1)
		assert.False(t, last.HasNext())
		assert.True(t, last.HasPrev())
	})

	t.Run("offset past the end yields an empty page", func(t *testing.T) {
		repo := setupTest(t)
		seedUsers(t, repo, 3)

		page := repo.FindAll(ctx, repository.ListOptions{Limit: 2, Offset: 10}).Value()
		assert.Empty(t, page.Items)
		assert.Equal(t, int64(3), page.Total)
	})

	t.Run("sorts by a named field both ways", func(t *testing.T) {
		repo := setupTest(t)
		for _, name := range []string{"carol", "alice", "bob"} {
			repo.Create(ctx, &storekittest.User{Name: name})
		}

		asc := repo.FindAll(ctx, repository.ListOptions{SortBy: "name"}).Value()
		require.Len(t, asc.Items, 3)
		assert.Equal(t, "alice", asc.Items[0].Name)
		assert.Equal(t, "carol", asc.Items[2].Name)

		desc := repo.FindAll(ctx, repository.ListOptions{SortBy: "name", Order: repository.SortDesc}).Value()
		assert.Equal(t, "carol", desc.Items[0].Name)
		assert.Equal(t, "alice", desc.Items[2].Name)
	})

	t.Run("sorts by a numeric field", func(t *testing.T) {
		repo := setupTest(t)
		for _, age := range []int{40, 20, 30} {
			repo.Create(ctx, &storekittest.User{Name: "u", Age: age})
		}

		page := repo.FindAll(ctx, repository.ListOptions{SortBy: "age"}).Value()
		require.Len(t, page.Items, 3)
		assert.Equal(t, 20, page.Items[0].Age)
		assert.Equal(t, 40, page.Items[2].Age)
	})

	t.Run("filters by exact match", func(t *testing.T) {
		repo := setupTest(t)
		repo.Create(ctx, &storekittest.User{Name: "alice", Age: 30})
		repo.Create(ctx, &storekittest.User{Name: "bob", Age: 30})
		repo.Create(ctx, &storekittest.User{Name: "carol", Age: 40})

		page := repo.FindAll(ctx, repository.ListOptions{Filter: repository.Criteria{"age": 30}}).Value()
		assert.Len(t, page.Items, 2)
		assert.Equal(t, int64(2), page.Total)
	})

	t.Run("unknown filter field is a validation failure", func(t *testing.T) {
		repo := setupTest(t)
		res := repo.FindAll(ctx, repository.ListOptions{Filter: repository.Criteria{"nope": 1}})
		require.True(t, res.IsErr())
		assert.ErrorIs(t, res.Error(), repository.ErrValidation)
	})

	t.Run("unknown sort field is a validation failure", func(t *testing.T) {
		repo := setupTest(t)
		res := repo.FindAll(ctx, repository.ListOptions{SortBy: "nope"})
		require.True(t, res.IsErr())
		assert.ErrorIs(t, res.Error(), repository.ErrValidation)
	})
}

func TestRepository_FindBy(t *testing.T) {
	repo := setupTest(t)
	ctx := context.Background()

	repo.Create(ctx, &storekittest.User{Name: "alice", Email: "alice@example.com"})
	repo.Create(ctx, &storekittest.User{Name: "bob", Email: "bob@example.com"})

	t.Run("FindBy narrows to matching entities", func(t *testing.T) {
		page := repo.FindBy(ctx, repository.Criteria{"name": "alice"}, repository.ListOptions{}).Value()
		require.Len(t, page.Items, 1)
		assert.Equal(t, "alice@example.com", page.Items[0].Email)
	})

	t.Run("FindOneBy returns the first match", func(t *testing.T) {
		res := repo.FindOneBy(ctx, repository.Criteria{"email": "bob@example.com"})
		require.True(t, res.IsOk())
		require.NotNil(t, res.Value())
		assert.Equal(t, "bob", res.Value().Name)
	})

	t.Run("FindOneBy absence is a success with a nil payload", func(t *testing.T) {
		res := repo.FindOneBy(ctx, repository.Criteria{"name": "nobody"})
		require.True(t, res.IsOk())
		assert.Nil(t, res.Value())
	})
}

func TestRepository_ExistsAndCount(t *testing.T) {
	repo := setupTest(t)
	ctx := context.Background()

	users := seedUsers(t, repo, 4)

	t.Run("exists never fails", func(t *testing.T) {
		assert.True(t, repo.Exists(ctx, users[0].ID).Value())
		res := repo.Exists(ctx, "missing")
		require.True(t, res.IsOk())
		assert.False(t, res.Value())
	})

	t.Run("count matches findAll total", func(t *testing.T) {
		count := repo.Count(ctx, nil).Value()
		total := repo.FindAll(ctx, repository.ListOptions{}).Value().Total
		assert.Equal(t, total, count)
		assert.Equal(t, int64(4), count)
	})

	t.Run("count honors criteria", func(t *testing.T) {
		count := repo.Count(ctx, repository.Criteria{"name": "user-0"}).Value()
		assert.Equal(t, int64(1), count)
	})
}
