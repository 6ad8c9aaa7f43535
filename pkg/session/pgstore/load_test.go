package pgstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/sessionguard/pkg/session"
	"github.com/dmitrymomot/sessionguard/pkg/session/pgstore"
)

type failingDB struct {
	err error
}

func (f failingDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, f.err
}

func (f failingDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, f.err
}

func TestStore_LoadErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing table", func(t *testing.T) {
		t.Parallel()
		store := pgstore.New(failingDB{err: &pgconn.PgError{Code: "42P01", Message: `relation "sessions" does not exist`}})

		_, err := store.Load(context.Background())
		assert.ErrorIs(t, err, pgstore.ErrSchemaMissing)
	})

	t.Run("other failures pass through", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("connection reset")
		store := pgstore.New(failingDB{err: boom})

		_, err := store.Load(context.Background())
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, pgstore.ErrSchemaMissing)
	})

	t.Run("registry reports storage init", func(t *testing.T) {
		t.Parallel()
		store := pgstore.New(failingDB{err: &pgconn.PgError{Code: "42P01"}})

		_, err := session.New(context.Background(), store)
		assert.ErrorIs(t, err, session.ErrStorageInit)
		assert.ErrorIs(t, err, pgstore.ErrSchemaMissing)
	})
}
