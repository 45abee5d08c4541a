// Package sessions enforces the per-user session cap and rotates sessions
// when refresh tokens are exchanged.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/dmitrijs2005/fintrack/internal/dbx"
	"github.com/dmitrijs2005/fintrack/internal/server/models"
	"github.com/dmitrijs2005/fintrack/internal/server/repositories/repomanager"
)

// ErrSessionExpired is returned when a rotation names a session that no
// longer exists, typically because its refresh token was already redeemed.
var ErrSessionExpired = common.ErrTokenExpired

const tokenBytes = 32

type Manager struct {
	repomanager repomanager.RepositoryManager
	maxSessions int
	lifetime    time.Duration
	now         func() time.Time
	newToken    func() (string, error)
}

// NewManager returns a Manager that keeps at most maxSessions sessions per
// user, each valid for lifetime (the refresh token lifetime).
func NewManager(m repomanager.RepositoryManager, maxSessions int, lifetime time.Duration) *Manager {
	if maxSessions < 1 {
		maxSessions = 1
	}
	return &Manager{
		repomanager: m,
		maxSessions: maxSessions,
		lifetime:    lifetime,
		now:         time.Now,
		newToken:    func() (string, error) { return common.RandomHex(tokenBytes) },
	}
}

// CreateOrRotate creates a session for userID inside tx.
//
// With oldSessionToken set the named session is consumed first; a missing
// session yields ErrSessionExpired. Without it, the oldest sessions beyond
// the cap are evicted so that the new one fits.
func (m *Manager) CreateOrRotate(ctx context.Context, tx dbx.DBTX, userID, oldSessionToken string) (*models.Session, error) {
	repo := m.repomanager.Sessions(tx)

	if oldSessionToken != "" {
		old, err := repo.FindByToken(ctx, oldSessionToken)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, ErrSessionExpired
			}
			return nil, err
		}
		if old.UserID != userID {
			return nil, ErrSessionExpired
		}
		if err := repo.Delete(ctx, old.ID); err != nil {
			return nil, err
		}
	} else {
		existing, err := repo.ListByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if len(existing) >= m.maxSessions {
			surplus := existing[m.maxSessions-1:]
			ids := make([]string, 0, len(surplus))
			for _, s := range surplus {
				ids = append(ids, s.ID)
			}
			if err := repo.Delete(ctx, ids...); err != nil {
				return nil, err
			}
		}
	}

	token, err := m.newToken()
	if err != nil {
		return nil, fmt.Errorf("session token: %w", err)
	}

	now := m.now()
	s := &models.Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		SessionToken: token,
		ExpiresAt:    now.Add(m.lifetime),
		CreatedAt:    now,
	}
	if err := repo.Create(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// DropAll deletes every session of userID.
func (m *Manager) DropAll(ctx context.Context, tx dbx.DBTX, userID string) error {
	return m.repomanager.Sessions(tx).DeleteByUser(ctx, userID)
}
