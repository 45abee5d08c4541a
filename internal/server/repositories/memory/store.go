// Package memory is an in-process credential store. It backs the server when
// no database DSN is configured and the service tests.
//
// Store implements both repomanager.RepositoryManager and dbx.TxRunner.
// InTx holds one lock for the whole unit, so units are serial, and restores
// a snapshot when the unit fails.
package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/dmitrijs2005/fintrack/internal/dbx"
	"github.com/dmitrijs2005/fintrack/internal/server/models"
	"github.com/dmitrijs2005/fintrack/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/fintrack/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/fintrack/internal/server/repositories/users"
	"github.com/dmitrijs2005/fintrack/internal/server/repositories/verificationtokens"
)

type state struct {
	users    map[string]models.User
	accounts map[string]models.Account
	sessions map[string]models.Session
	tokens   map[string]models.VerificationToken
}

func newState() state {
	return state{
		users:    map[string]models.User{},
		accounts: map[string]models.Account{},
		sessions: map[string]models.Session{},
		tokens:   map[string]models.VerificationToken{},
	}
}

func (s state) clone() state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	for k, v := range s.tokens {
		c.tokens[k] = v
	}
	return c
}

type Store struct {
	txMu sync.Mutex // serializes units of work
	mu   sync.Mutex // guards st
	st   state
}

func NewStore() *Store {
	return &Store{st: newState()}
}

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) (err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(snapshot)
			panic(p)
		}
		if err != nil {
			s.restore(snapshot)
		}
	}()

	return fn(ctx, nil)
}

func (s *Store) restore(st state) {
	s.mu.Lock()
	s.st = st
	s.mu.Unlock()
}

func (s *Store) RunMigrations(context.Context, *sql.DB) error { return nil }

func (s *Store) Users(dbx.DBTX) users.Repository { return userRepo{s} }

func (s *Store) Accounts(dbx.DBTX) accounts.Repository { return accountRepo{s} }

func (s *Store) Sessions(dbx.DBTX) sessions.Repository { return sessionRepo{s} }

func (s *Store) VerificationTokens(dbx.DBTX) verificationtokens.Repository { return tokenRepo{s} }

type userRepo struct{ s *Store }

func (r userRepo) findByEmail(email string) (models.User, bool) {
	for _, u := range r.s.st.users {
		if u.Email == email {
			return u, true
		}
	}
	return models.User{}, false
}

func (r userRepo) Upsert(_ context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	if existing, ok := r.findByEmail(user.Email); ok {
		existing.PasswordHash = user.PasswordHash
		existing.FirstName = user.FirstName
		existing.LastName = user.LastName
		existing.UpdatedAt = now
		r.s.st.users[existing.ID] = existing
		return &existing, nil
	}

	u := *user
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.st.users[u.ID] = u
	return &u, nil
}

func (r userRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.findByEmail(user.Email); ok {
		return nil, common.ErrorAlreadyExists
	}
	if _, ok := r.s.st.users[user.ID]; ok {
		return nil, common.ErrorAlreadyExists
	}

	u := *user
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.st.users[u.ID] = u
	return &u, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.findByEmail(email)
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r userRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.st.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r userRepo) update(id string, fn func(u *models.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.st.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now()
	r.s.st.users[id] = u
	return nil
}

func (r userRepo) SetLoginAttempts(_ context.Context, id string, attempts int) error {
	return r.update(id, func(u *models.User) { u.LoginAttempts = attempts })
}

func (r userRepo) MarkVerified(_ context.Context, id string, at time.Time) error {
	return r.update(id, func(u *models.User) {
		u.EmailVerified = true
		u.EmailVerifiedAt = &at
	})
}

func (r userRepo) UpdatePassword(_ context.Context, id string, hash string) error {
	return r.update(id, func(u *models.User) {
		u.PasswordHash = hash
		u.LoginAttempts = 0
	})
}

func (r userRepo) UpdateAvatar(_ context.Context, id string, avatar string) error {
	return r.update(id, func(u *models.User) { u.Avatar = avatar })
}

type accountRepo struct{ s *Store }

func (r accountRepo) Create(_ context.Context, a *models.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.st.accounts {
		if existing.Provider == a.Provider && existing.ProviderAccountID == a.ProviderAccountID {
			return common.ErrorAlreadyExists
		}
	}
	c := *a
	c.CreatedAt = time.Now()
	r.s.st.accounts[c.ID] = c
	return nil
}

func (r accountRepo) Find(_ context.Context, provider, providerAccountID string) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, a := range r.s.st.accounts {
		if a.Provider == provider && a.ProviderAccountID == providerAccountID {
			return &a, nil
		}
	}
	return nil, common.ErrorNotFound
}

type sessionRepo struct{ s *Store }

func (r sessionRepo) Create(_ context.Context, sess *models.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.st.sessions[sess.ID] = *sess
	return nil
}

func (r sessionRepo) FindByToken(_ context.Context, token string) (*models.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, sess := range r.s.st.sessions {
		if sess.SessionToken == token {
			return &sess, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r sessionRepo) ListByUser(_ context.Context, userID string) ([]*models.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var result []*models.Session
	for _, sess := range r.s.st.sessions {
		if sess.UserID == userID {
			c := sess
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r sessionRepo) Delete(_ context.Context, ids ...string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, id := range ids {
		delete(r.s.st.sessions, id)
	}
	return nil
}

func (r sessionRepo) DeleteByUser(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, sess := range r.s.st.sessions {
		if sess.UserID == userID {
			delete(r.s.st.sessions, id)
		}
	}
	return nil
}

type tokenRepo struct{ s *Store }

func (r tokenRepo) Create(_ context.Context, t *models.VerificationToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.st.tokens[t.ID] = *t
	return nil
}

func (r tokenRepo) FindLive(_ context.Context, email string, purpose models.Purpose, code string, now time.Time) (*models.VerificationToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, t := range r.s.st.tokens {
		if t.Email == email && t.Purpose == purpose && t.Code == code && t.ExpiresAt.After(now) {
			return &t, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r tokenRepo) FindAnyLive(_ context.Context, email string, purpose models.Purpose, now time.Time) (*models.VerificationToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var found *models.VerificationToken
	for _, t := range r.s.st.tokens {
		if t.Email == email && t.Purpose == purpose && t.ExpiresAt.After(now) {
			if found == nil || t.ExpiresAt.After(found.ExpiresAt) {
				c := t
				found = &c
			}
		}
	}
	if found == nil {
		return nil, common.ErrorNotFound
	}
	return found, nil
}

func (r tokenRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.st.tokens, id)
	return nil
}

func (r tokenRepo) Purge(_ context.Context, email string, purpose models.Purpose) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, t := range r.s.st.tokens {
		if t.Email == email && t.Purpose == purpose {
			delete(r.s.st.tokens, id)
		}
	}
	return nil
}
