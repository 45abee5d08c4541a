// Package common contains shared constants and sentinel errors used across
// fintrack components.
package common

const (
	// TokenHeaderName is the gRPC metadata key that carries the bearer token
	// (otp, access or refresh, depending on the called method).
	TokenHeaderName = "x-token"

	// ServiceKeyHeaderName carries the shared key for service-to-service calls.
	ServiceKeyHeaderName = "x-service-key"
)
