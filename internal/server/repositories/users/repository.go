// Package users declares and implements storage of user identities.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/server/models"
)

type Repository interface {
	// Upsert inserts the user or, when the email exists, replaces its
	// password hash and names. The stored row is returned.
	Upsert(ctx context.Context, user *models.User) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	SetLoginAttempts(ctx context.Context, id string, attempts int) error
	MarkVerified(ctx context.Context, id string, at time.Time) error
	// UpdatePassword stores a new hash and clears the login lock.
	UpdatePassword(ctx context.Context, id string, hash string) error
	UpdateAvatar(ctx context.Context, id string, avatar string) error
}
