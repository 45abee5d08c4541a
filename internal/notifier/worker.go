// Package notifier drains the notification queue and hands every job to a
// mailer. Delivery is retried with exponential backoff; a job that still
// fails is logged and dropped.
package notifier

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dmitrijs2005/fintrack/internal/logging"
	"github.com/dmitrijs2005/fintrack/internal/metrics"
	"github.com/dmitrijs2005/fintrack/internal/server/notify"
)

type Mail struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, m *Mail) error
}

// LogMailer writes mails to the log. It stands in for a real mail transport.
type LogMailer struct {
	logger logging.Logger
}

func NewLogMailer(l logging.Logger) *LogMailer {
	return &LogMailer{logger: l.With("module", "mailer")}
}

func (m *LogMailer) Send(ctx context.Context, mail *Mail) error {
	m.logger.Info(ctx, "mail sent", "to", mail.To, "subject", mail.Subject, "body", mail.Body)
	return nil
}

type Queue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*notify.Job, error)
}

type Options struct {
	PollTimeout time.Duration
	MaxRetries  uint64
	// InitialInterval is the first backoff delay between delivery attempts.
	InitialInterval time.Duration
}

type Worker struct {
	queue  Queue
	mailer Mailer
	logger logging.Logger
	opts   Options
}

func NewWorker(q Queue, m Mailer, l logging.Logger, opts Options) *Worker {
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 5 * time.Second
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 500 * time.Millisecond
	}
	metrics.Init()
	return &Worker{queue: q, mailer: m, logger: l.With("module", "notifier"), opts: opts}
}

// Run processes jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info(ctx, "Starting notifier")
	for {
		if ctx.Err() != nil {
			return nil
		}

		job, err := w.queue.Dequeue(ctx, w.opts.PollTimeout)
		switch {
		case errors.Is(err, notify.ErrNoJob):
			continue
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil
		case err != nil:
			w.logger.Error(ctx, "dequeue failed", "error", err)
			if !sleep(ctx, w.opts.InitialInterval) {
				return nil
			}
			continue
		}

		w.Handle(ctx, job)
	}
}

// Handle renders and delivers one job.
func (w *Worker) Handle(ctx context.Context, job *notify.Job) {
	mail, err := Render(job)
	if err != nil {
		metrics.ObserveJob(string(job.Kind), "invalid")
		w.logger.Error(ctx, "job dropped", "id", job.ID, "error", err)
		return
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.opts.InitialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, w.opts.MaxRetries), ctx)

	err = backoff.Retry(func() error {
		return w.mailer.Send(ctx, mail)
	}, policy)
	if err != nil {
		metrics.ObserveJob(string(job.Kind), "failed")
		w.logger.Error(ctx, "delivery failed", "id", job.ID, "kind", job.Kind, "error", err)
		return
	}

	metrics.ObserveJob(string(job.Kind), "sent")
	w.logger.Debug(ctx, "delivered", "id", job.ID, "kind", job.Kind)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
