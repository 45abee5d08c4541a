// Package repomanager hands out repositories bound to either the pool or a
// transaction. Postgres is the production manager; the in-memory store in
// repositories/memory implements the same interface for tests and dev runs.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/fintrack/internal/dbx"
	"github.com/dmitrijs2005/fintrack/internal/server/migrations"
	"github.com/dmitrijs2005/fintrack/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/fintrack/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/fintrack/internal/server/repositories/users"
	"github.com/dmitrijs2005/fintrack/internal/server/repositories/verificationtokens"
)

type Postgres struct{}

func NewPostgres() *Postgres {
	return &Postgres{}
}

func (*Postgres) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (*Postgres) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewPostgresRepository(db)
}

func (*Postgres) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewPostgresRepository(db)
}

func (*Postgres) VerificationTokens(db dbx.DBTX) verificationtokens.Repository {
	return verificationtokens.NewPostgresRepository(db)
}

// migrateUp is replaced in tests so no server is needed.
var migrateUp = goose.UpContext

// RunMigrations brings the auth schema up to the latest embedded version.
func (*Postgres) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := migrateUp(ctx, db, "."); err != nil {
		return fmt.Errorf("auth migrations: %w", err)
	}
	return nil
}
