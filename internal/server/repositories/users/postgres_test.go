package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/dmitrijs2005/fintrack/internal/server/models"
)

var columns = []string{"id", "email", "password", "first_name", "last_name", "avatar",
	"email_verified", "email_verified_at", "login_attempts", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestUpsert_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	q := `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*email,\s*password,\s*first_name,\s*last_name\).*ON\s+CONFLICT\s*\(email\)\s+DO\s+UPDATE\s+SET\s+password\s*=\s*EXCLUDED\.password.*RETURNING\s+id,`

	rows := sqlmock.NewRows(columns).
		AddRow("u-1", "a@b.com", "hash", "A", "B", nil, false, nil, 0, now, now)
	mock.ExpectQuery(q).
		WithArgs("u-1", "a@b.com", "hash", "A", "B").
		WillReturnRows(rows)

	got, err := repo.Upsert(context.Background(), &models.User{
		ID: "u-1", Email: "a@b.com", PasswordHash: "hash", FirstName: "A", LastName: "B",
	})
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if got.ID != "u-1" || got.PasswordHash != "hash" || got.Avatar != "" || got.EmailVerifiedAt != nil {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsert_UniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Upsert(context.Background(), &models.User{ID: "u-1", Email: "a@b.com", PasswordHash: "h"})
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("expected ErrorAlreadyExists, got %v", err)
	}
}

func TestCreate_ExternalIdentity(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(columns).
		AddRow("u-2", "g@b.com", nil, "G", "User", "http://img", true, now, 0, now, now)
	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users\s*\(id,\s*email,\s*password,\s*first_name,\s*last_name,\s*avatar,\s*email_verified,\s*email_verified_at\)`).
		WithArgs("u-2", "g@b.com", nil, "G", "User", "http://img", true, sqlmock.AnyArg()).
		WillReturnRows(rows)

	got, err := repo.Create(context.Background(), &models.User{
		ID: "u-2", Email: "g@b.com", FirstName: "G", LastName: "User", Avatar: "http://img",
		EmailVerified: true, EmailVerifiedAt: &now,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.PasswordHash != "" || !got.EmailVerified || got.EmailVerifiedAt == nil {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	q := `(?s)^SELECT\s+id,\s*email,.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`
	rows := sqlmock.NewRows(columns).
		AddRow("u-1", "a@b.com", "hash", "A", "B", "av", true, now, 2, now, now)
	mock.ExpectQuery(q).WithArgs("a@b.com").WillReturnRows(rows)

	got, err := repo.GetByEmail(context.Background(), "a@b.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if got.LoginAttempts != 2 || got.Avatar != "av" || got.EmailVerifiedAt == nil {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestGetByID_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users`).WillReturnError(errors.New("db down"))

	_, err := repo.GetByID(context.Background(), "u-1")
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestSetLoginAttempts(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+users\s+SET\s+login_attempts\s*=\s*\$2`).
		WithArgs("u-1", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetLoginAttempts(context.Background(), "u-1", 3); err != nil {
		t.Fatalf("SetLoginAttempts error: %v", err)
	}
}

func TestUpdatePassword_ResetsAttempts(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+users\s+SET\s+password\s*=\s*\$2,\s*login_attempts\s*=\s*0`).
		WithArgs("u-1", "newhash").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdatePassword(context.Background(), "u-1", "newhash"); err != nil {
		t.Fatalf("UpdatePassword error: %v", err)
	}
}

func TestMarkVerified_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	at := time.Now()
	mock.ExpectExec(`UPDATE\s+users\s+SET\s+email_verified\s*=\s*TRUE`).
		WithArgs("ghost", at).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.MarkVerified(context.Background(), "ghost", at); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestUpdateAvatar_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+users\s+SET\s+avatar`).
		WillReturnError(errors.New("boom"))

	if err := repo.UpdateAvatar(context.Background(), "u-1", "x"); err == nil {
		t.Fatalf("expected error")
	}
}
