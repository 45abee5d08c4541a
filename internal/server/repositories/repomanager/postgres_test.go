package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ RepositoryManager = (*Postgres)(nil)

func stubMigrateUp(t *testing.T, fn func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error) {
	t.Helper()
	orig := migrateUp
	migrateUp = fn
	t.Cleanup(func() { migrateUp = orig })
}

func TestPostgres_RepositoriesShareHandle(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()
	tx, err := db.Begin()
	require.NoError(t, err)

	m := NewPostgres()
	assert.NotNil(t, m.Users(tx))
	assert.NotNil(t, m.Accounts(tx))
	assert.NotNil(t, m.Sessions(db))
	assert.NotNil(t, m.VerificationTokens(db))

	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_RunMigrations(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var gotDir string
	var gotDB *sql.DB
	stubMigrateUp(t, func(_ context.Context, d *sql.DB, dir string, _ ...goose.OptionsFunc) error {
		gotDB, gotDir = d, dir
		return nil
	})

	require.NoError(t, NewPostgres().RunMigrations(context.Background(), db))
	assert.Equal(t, ".", gotDir)
	assert.Same(t, db, gotDB)
}

func TestPostgres_RunMigrationsError(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("relation users already exists")
	stubMigrateUp(t, func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error { return boom })

	err = NewPostgres().RunMigrations(context.Background(), db)
	require.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "auth migrations")
}
