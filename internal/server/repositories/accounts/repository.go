// Package accounts stores the links between users and sign-in methods.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/fintrack/internal/server/models"
)

type Repository interface {
	// Create fails with common.ErrorAlreadyExists when the
	// (provider, provider account id) pair is taken.
	Create(ctx context.Context, account *models.Account) error
	Find(ctx context.Context, provider, providerAccountID string) (*models.Account, error)
}
