package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/dmitrijs2005/fintrack/internal/dbx"
	"github.com/dmitrijs2005/fintrack/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Account) error {
	query :=
		`INSERT INTO accounts (id, user_id, type, provider, provider_account_id)
		 VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.db.ExecContext(ctx, query, a.ID, a.UserID, string(a.Type), a.Provider, a.ProviderAccountID); err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, provider, providerAccountID string) (*models.Account, error) {
	query :=
		`SELECT id, user_id, type, provider, provider_account_id, created_at
		 FROM accounts
		 WHERE provider = $1 AND provider_account_id = $2`

	a := &models.Account{}
	var typ string
	err := r.db.QueryRowContext(ctx, query, provider, providerAccountID).
		Scan(&a.ID, &a.UserID, &typ, &a.Provider, &a.ProviderAccountID, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	a.Type = models.AccountType(typ)
	return a, nil
}
