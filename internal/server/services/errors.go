package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/fintrack/internal/common"
)

// Error is a flow failure. Kind is one of the common sentinels and decides the
// transport status; Msg is safe to show to the caller.
type Error struct {
	Kind error
	Msg  string
	// Err is the underlying cause, kept for logging only.
	Err error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() error { return e.Kind }

func unauthenticated(msg string) *Error {
	return &Error{Kind: common.ErrorUnauthorized, Msg: msg}
}

func alreadyExists(msg string) *Error {
	return &Error{Kind: common.ErrorAlreadyExists, Msg: msg}
}

func invalidArgument(msg string) *Error {
	return &Error{Kind: common.ErrorInvalidArgument, Msg: msg}
}

const (
	msgUserExists        = "User with this email already exists"
	msgInvalidToken      = "Invalid Token"
	msgAlreadyVerified   = "User already verified"
	msgInvalidLogin      = "Invalid Email/Password"
	msgLocked            = "You have attempted too many incorrect logins, Please reset your password"
	msgLoginNotVerified  = "Email not verified! Please verify your email."
	msgInvalidOTP        = "Invalid or expired OTP"
	msgSamePassword      = "New password cannot be the same as old password"
	msgUnauthorized      = "Unauthorized!"
	msgTokenExpired      = "Token Expired!"
	msgPleaseVerifyEmail = "Please verify your email!"
)

// classify turns whatever a unit of work returned into an *Error.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}

	switch {
	case errors.Is(err, common.ErrorTimeout), errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: common.ErrorTimeout, Err: err}
	case errors.Is(err, common.ErrorConflict):
		return &Error{Kind: common.ErrorConflict, Err: err}
	case errors.Is(err, context.Canceled):
		return &Error{Kind: common.ErrorTimeout, Msg: "request canceled", Err: err}
	default:
		return &Error{Kind: common.ErrorInternal, Err: err}
	}
}
