// Package models holds the persisted records of the auth service.
package models

import "time"

type User struct {
	ID    string
	Email string
	// PasswordHash is empty for identities that only sign in externally.
	PasswordHash    string
	FirstName       string
	LastName        string
	Avatar          string
	EmailVerified   bool
	EmailVerifiedAt *time.Time
	LoginAttempts   int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
