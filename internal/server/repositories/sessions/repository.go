// Package sessions declares the server-side repository contract for session
// rows, each of which anchors one refresh-token lineage.
package sessions

import (
	"context"

	"github.com/dmitrijs2005/fintrack/internal/server/models"
)

// Repository defines operations for creating, listing and revoking sessions.
type Repository interface {
	// Create stores a new session row.
	Create(ctx context.Context, s *models.Session) error

	// FindByToken looks up a session by its opaque token.
	// It returns common.ErrorNotFound when the token is absent.
	FindByToken(ctx context.Context, token string) (*models.Session, error)

	// ListByUser returns the user's sessions, newest first.
	ListByUser(ctx context.Context, userID string) ([]*models.Session, error)

	// Delete removes sessions by id. Missing ids are ignored.
	Delete(ctx context.Context, ids ...string) error

	// DeleteByUser removes every session of the user.
	DeleteByUser(ctx context.Context, userID string) error
}
