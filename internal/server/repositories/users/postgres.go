package users

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

const userColumns = `id, email, password, first_name, last_name, avatar, email_verified, email_verified_at, login_attempts, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var password, avatar sql.NullString
	var verifiedAt sql.NullTime

	err := row.Scan(&u.ID, &u.Email, &password, &u.FirstName, &u.LastName, &avatar,
		&u.EmailVerified, &verifiedAt, &u.LoginAttempts, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	u.PasswordHash = password.String
	u.Avatar = avatar.String
	if verifiedAt.Valid {
		t := verifiedAt.Time
		u.EmailVerifiedAt = &t
	}
	return u, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *PostgresRepository) Upsert(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (id, email, password, first_name, last_name)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (email) DO UPDATE SET password = EXCLUDED.password, first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name, updated_at = now()
		 RETURNING ` + userColumns

	row := r.db.QueryRowContext(ctx, query, user.ID, user.Email, nullable(user.PasswordHash), user.FirstName, user.LastName)
	return scanUser(row)
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (id, email, password, first_name, last_name, avatar, email_verified, email_verified_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING ` + userColumns

	row := r.db.QueryRowContext(ctx, query, user.ID, user.Email, nullable(user.PasswordHash),
		user.FirstName, user.LastName, nullable(user.Avatar), user.EmailVerified, user.EmailVerifiedAt)
	return scanUser(row)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) SetLoginAttempts(ctx context.Context, id string, attempts int) error {
	return r.exec(ctx, `UPDATE users SET login_attempts = $2, updated_at = now() WHERE id = $1`, id, attempts)
}

func (r *PostgresRepository) MarkVerified(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, `UPDATE users SET email_verified = TRUE, email_verified_at = $2, updated_at = now() WHERE id = $1`, id, at)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, hash string) error {
	return r.exec(ctx, `UPDATE users SET password = $2, login_attempts = 0, updated_at = now() WHERE id = $1`, id, hash)
}

func (r *PostgresRepository) UpdateAvatar(ctx context.Context, id string, avatar string) error {
	return r.exec(ctx, `UPDATE users SET avatar = $2, updated_at = now() WHERE id = $1`, id, avatar)
}
