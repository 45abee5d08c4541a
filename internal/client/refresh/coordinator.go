// Package refresh serializes access-token renewal inside one client process.
//
// The first caller that finds its access token rejected becomes the leader
// and starts the refresh. The exchange runs detached from the leader's
// context; every caller, the leader included, waits for its outcome instead of issuing their own request, so a
// burst of expired calls costs exactly one refresh.
package refresh

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/fintrack/internal/client/repositories/metadata"
)

// ErrNoSession is returned when there is no refresh token to use.
var ErrNoSession = errors.New("no session")

// Func exchanges a refresh token for a new pair.
type Func func(ctx context.Context, refreshToken string) (metadata.Tokens, error)

type TokenStore interface {
	Tokens(ctx context.Context) (metadata.Tokens, error)
	SaveTokens(ctx context.Context, t metadata.Tokens) error
	Clear(ctx context.Context) error
}

type result struct {
	token string
	err   error
}

type Coordinator struct {
	store   TokenStore
	refresh Func

	// OnSessionEnded runs after a failed refresh has cleared the store.
	OnSessionEnded func()

	mu         sync.Mutex
	refreshing bool
	waiters    []chan result
}

func NewCoordinator(store TokenStore, fn Func) *Coordinator {
	return &Coordinator{store: store, refresh: fn}
}

// Refresh returns a usable access token. stale is the token the caller saw
// rejected; if the store already holds a different one, it is returned
// without a network call. A cancelled ctx only releases this caller.
func (c *Coordinator) Refresh(ctx context.Context, stale string) (string, error) {
	c.mu.Lock()

	tokens, err := c.store.Tokens(ctx)
	if err != nil {
		c.mu.Unlock()
		return "", err
	}
	if tokens.AccessToken != "" && tokens.AccessToken != stale {
		c.mu.Unlock()
		return tokens.AccessToken, nil
	}

	ch := make(chan result, 1)
	c.waiters = append(c.waiters, ch)
	if !c.refreshing {
		c.refreshing = true
		// the exchange outlives the caller that started it so a rotated
		// pair is always stored and shared with the other waiters
		go c.lead(context.WithoutCancel(ctx), tokens.RefreshToken)
	}
	c.mu.Unlock()

	select {
	case r := <-ch:
		return r.token, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Coordinator) lead(ctx context.Context, refreshToken string) (token string, err error) {
	defer func() {
		c.mu.Lock()
		waiters := c.waiters
		c.waiters = nil
		c.refreshing = false
		c.mu.Unlock()

		for _, w := range waiters {
			w <- result{token: token, err: err}
		}
	}()

	if refreshToken == "" {
		c.endSession(ctx)
		return "", ErrNoSession
	}

	fresh, err := c.refresh(ctx, refreshToken)
	if err != nil {
		// a timed out exchange is not a verdict on the session
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			c.endSession(ctx)
		}
		return "", err
	}

	if err := c.store.SaveTokens(ctx, fresh); err != nil {
		return "", err
	}
	return fresh.AccessToken, nil
}

func (c *Coordinator) endSession(ctx context.Context) {
	_ = c.store.Clear(context.WithoutCancel(ctx))
	if c.OnSessionEnded != nil {
		c.OnSessionEnded()
	}
}
