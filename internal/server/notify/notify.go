// Package notify carries notification jobs from the auth service to the
// mail worker.
package notify

import (
	"context"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/logging"
)

type Kind string

const (
	KindEmailVerification Kind = "email-verification"
	KindWelcome           Kind = "welcome"
	KindForgotPassword    Kind = "forgot-password"
	KindPasswordChanged   Kind = "password-changed"
)

// Payload is the only data a notification may carry.
type Payload struct {
	Email     string `json:"email"`
	OTP       string `json:"otp,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type Job struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	Payload    Payload   `json:"payload"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

// Sink accepts jobs for asynchronous delivery.
type Sink interface {
	Enqueue(ctx context.Context, kind Kind, payload Payload) error
}

// LogSink writes jobs to the log instead of a queue.
type LogSink struct {
	logger logging.Logger
}

func NewLogSink(l logging.Logger) *LogSink {
	return &LogSink{logger: l.With("module", "notify")}
}

func (s *LogSink) Enqueue(ctx context.Context, kind Kind, p Payload) error {
	s.logger.Info(ctx, "notification", "kind", kind, "email", p.Email)
	return nil
}
