package models

import "time"

type AccountType string

const (
	AccountTypeCredentials AccountType = "CREDENTIALS"
	AccountTypeOAuth       AccountType = "OAUTH"
)

const (
	ProviderLocal  = "LOCAL"
	ProviderGoogle = "GOOGLE"
)

// Account links a user to one way of authenticating.
type Account struct {
	ID                string
	UserID            string
	Type              AccountType
	Provider          string
	ProviderAccountID string
	CreatedAt         time.Time
}
