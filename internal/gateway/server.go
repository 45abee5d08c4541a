package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/dmitrijs2005/fintrack/internal/api/authv1"
	"github.com/dmitrijs2005/fintrack/internal/gateway/config"
	"github.com/dmitrijs2005/fintrack/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// Dial opens the client connection to the auth service.
func Dial(addr string) (*grpc.ClientConn, error) {
	return grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
}

// Run serves the gateway until ctx is cancelled or a termination signal
// arrives, then shuts the HTTP server down gracefully.
func Run(ctx context.Context, cfg *config.Config) error {
	logger := logging.NewJSONLogger(os.Stdout, cfg.LogLevel)

	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	conn, err := Dial(cfg.AuthServiceAddr)
	if err != nil {
		return fmt.Errorf("auth service dial error: %w", err)
	}
	defer conn.Close()

	g := New(authv1.NewAuthServiceClient(conn), cfg, logger)
	r, err := g.Router()
	if err != nil {
		return fmt.Errorf("router init error: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	srv := &http.Server{Addr: cfg.Addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "Starting gateway", "address", cfg.Addr, "auth", cfg.AuthServiceAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(ctx, "Shutting down gateway")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
