// Package auth signs and verifies the fintrack token classes and hashes
// passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/fintrack/internal/common"
)

// Class discriminates what a token may be used for. It is embedded in every
// token as the "type" claim.
type Class string

const (
	ClassOTP     Class = "otp_token"
	ClassAccess  Class = "access_token"
	ClassRefresh Class = "refresh_token"
)

var (
	ErrInvalidToken       = common.ErrInvalidToken
	ErrExpiredToken       = common.ErrTokenExpired
	ErrTokenClassMismatch = errors.New("token class mismatch")
)

// ClassConfig is the signing secret and lifetime of one class.
// A zero Lifetime produces tokens without an exp claim.
type ClassConfig struct {
	Secret   []byte
	Lifetime time.Duration
}

// Payload is the identity carried inside a token.
type Payload struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Avatar    string `json:"avatar,omitempty"`
	Type      Class  `json:"type"`
	// Purpose is set on otp tokens (EMAIL or PASSWORD).
	Purpose string `json:"purpose,omitempty"`
	// SessionToken binds a refresh token to its session row.
	SessionToken string `json:"sessionToken,omitempty"`
}

type Claims struct {
	Payload
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens, selecting secret and lifetime by class.
type Codec struct {
	classes map[Class]ClassConfig
	now     func() time.Time
}

// NewCodec validates the class table. otp and refresh classes must have a
// finite lifetime.
func NewCodec(classes map[Class]ClassConfig) (*Codec, error) {
	for class, cfg := range classes {
		if len(cfg.Secret) == 0 {
			return nil, fmt.Errorf("empty secret for %s", class)
		}
		if class != ClassAccess && cfg.Lifetime <= 0 {
			return nil, fmt.Errorf("%s requires a positive lifetime", class)
		}
	}
	return &Codec{classes: classes, now: time.Now}, nil
}

// Lifetime returns the configured lifetime of class.
func (c *Codec) Lifetime(class Class) time.Duration {
	return c.classes[class].Lifetime
}

func (c *Codec) Sign(p Payload, class Class) (string, error) {
	cfg, ok := c.classes[class]
	if !ok {
		return "", fmt.Errorf("unknown token class %q", class)
	}

	p.Type = class
	now := c.now()
	claims := Claims{
		Payload: p,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  p.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if cfg.Lifetime > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(cfg.Lifetime))
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.Secret)
}

func (c *Codec) Verify(tokenString string, class Class) (*Payload, error) {
	cfg, ok := c.classes[class]
	if !ok {
		return nil, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	}
	if cfg.Lifetime > 0 {
		opts = append(opts, jwt.WithExpirationRequired())
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return cfg.Secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Type != class {
		return nil, ErrTokenClassMismatch
	}

	p := claims.Payload
	return &p, nil
}
