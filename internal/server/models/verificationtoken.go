package models

import "time"

type Purpose string

const (
	PurposeEmail    Purpose = "EMAIL"
	PurposePassword Purpose = "PASSWORD"
)

// VerificationToken is a single-use code mailed to Email.
type VerificationToken struct {
	ID        string
	Email     string
	Purpose   Purpose
	Code      string
	ExpiresAt time.Time
	CreatedAt time.Time
}
