// Package verificationtokens stores the single-use codes used for email
// verification and password reset.
package verificationtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, t *models.VerificationToken) error
	// FindLive returns the unexpired token matching email, purpose and code.
	FindLive(ctx context.Context, email string, purpose models.Purpose, code string, now time.Time) (*models.VerificationToken, error)
	// FindAnyLive returns the unexpired token for email and purpose that
	// expires last.
	FindAnyLive(ctx context.Context, email string, purpose models.Purpose, now time.Time) (*models.VerificationToken, error)
	Delete(ctx context.Context, id string) error
	// Purge removes every token, live or not, for email and purpose.
	Purge(ctx context.Context, email string, purpose models.Purpose) error
}
