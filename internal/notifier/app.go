package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/logging"
	"github.com/dmitrijs2005/fintrack/internal/metrics"
	"github.com/dmitrijs2005/fintrack/internal/notifier/config"
	"github.com/dmitrijs2005/fintrack/internal/server/notify"
)

// Run starts the worker against the configured redis queue and serves
// /metrics until a termination signal arrives.
func Run(ctx context.Context, cfg *config.Config) error {
	logger := logging.NewJSONLogger(os.Stdout, cfg.LogLevel)

	client, err := notify.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis init error: %w", err)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	w := NewWorker(notify.NewRedisQueue(client, cfg.Queue), NewLogMailer(logger), logger, Options{
		PollTimeout:     cfg.PollTimeout.Duration,
		MaxRetries:      cfg.MaxRetries,
		InitialInterval: cfg.RetryInterval.Duration,
	})

	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr, logger)
	}

	return w.Run(ctx)
}

func serveMetrics(ctx context.Context, addr string, logger logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error(ctx, "metrics server failed", "error", err)
	}
}
