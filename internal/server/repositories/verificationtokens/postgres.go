package verificationtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

func (r *PostgresRepository) Create(ctx context.Context, t *models.VerificationToken) error {
	query := `
		INSERT INTO verification_tokens (id, email, purpose, code, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.ExecContext(ctx, query, t.ID, t.Email, string(t.Purpose), t.Code, t.ExpiresAt, t.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.VerificationToken, error) {
	t := &models.VerificationToken{}
	var purpose string
	if err := row.Scan(&t.ID, &t.Email, &purpose, &t.Code, &t.ExpiresAt, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	t.Purpose = models.Purpose(purpose)
	return t, nil
}

func (r *PostgresRepository) FindLive(ctx context.Context, email string, purpose models.Purpose, code string, now time.Time) (*models.VerificationToken, error) {
	query := `
		SELECT id, email, purpose, code, expires_at, created_at
		FROM verification_tokens
		WHERE email = $1 AND purpose = $2 AND code = $3 AND expires_at > $4
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email, string(purpose), code, now))
}

func (r *PostgresRepository) FindAnyLive(ctx context.Context, email string, purpose models.Purpose, now time.Time) (*models.VerificationToken, error) {
	query := `
		SELECT id, email, purpose, code, expires_at, created_at
		FROM verification_tokens
		WHERE email = $1 AND purpose = $2 AND expires_at > $3
		ORDER BY expires_at DESC
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email, string(purpose), now))
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM verification_tokens WHERE id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Purge(ctx context.Context, email string, purpose models.Purpose) error {
	query := `DELETE FROM verification_tokens WHERE email = $1 AND purpose = $2`
	if _, err := r.db.ExecContext(ctx, query, email, string(purpose)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
