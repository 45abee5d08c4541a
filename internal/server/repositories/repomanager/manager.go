package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/fintrack/internal/dbx"
	"github.com/dmitrijs2005/fintrack/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/fintrack/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/fintrack/internal/server/repositories/users"
	"github.com/dmitrijs2005/fintrack/internal/server/repositories/verificationtokens"
)

// RepositoryManager vends repositories bound to a DB handle or transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Accounts(db dbx.DBTX) accounts.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	VerificationTokens(db dbx.DBTX) verificationtokens.Repository
}
