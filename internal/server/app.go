// Package server wires the auth service together: storage, token codec,
// notification sink, avatar store, the gRPC endpoint and the metrics listener.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/dbx"
	"github.com/dmitrijs2005/fintrack/internal/logging"
	"github.com/dmitrijs2005/fintrack/internal/metrics"
	"github.com/dmitrijs2005/fintrack/internal/server/auth"
	"github.com/dmitrijs2005/fintrack/internal/server/avatars"
	"github.com/dmitrijs2005/fintrack/internal/server/config"
	"github.com/dmitrijs2005/fintrack/internal/server/notify"
	"github.com/dmitrijs2005/fintrack/internal/server/otp"
	"github.com/dmitrijs2005/fintrack/internal/server/repositories/memory"
	"github.com/dmitrijs2005/fintrack/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/fintrack/internal/server/services"
	"github.com/dmitrijs2005/fintrack/internal/server/sessions"

	gs "github.com/dmitrijs2005/fintrack/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	codec   *auth.Codec
	service *services.AuthService
}

func NewCodec(c *config.Config) (*auth.Codec, error) {
	return auth.NewCodec(map[auth.Class]auth.ClassConfig{
		auth.ClassOTP:     {Secret: []byte(c.OTPSecret), Lifetime: c.OTPTokenLifetime},
		auth.ClassAccess:  {Secret: []byte(c.AccessSecret), Lifetime: c.AccessTokenLifetime},
		auth.ClassRefresh: {Secret: []byte(c.RefreshSecret), Lifetime: c.RefreshTokenLifetime},
	})
}

func newSink(c *config.Config, logger logging.Logger) (notify.Sink, error) {
	if c.RedisURL == "" {
		return notify.NewLogSink(logger), nil
	}
	client, err := notify.NewRedisClient(c.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis init error: %w", err)
	}
	return notify.NewRedisQueue(client, c.NotifyQueue), nil
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	var (
		m      repomanager.RepositoryManager
		runner dbx.TxRunner
		db     *sql.DB
	)
	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "no database configured, using in-memory store")
		store := memory.NewStore()
		m, runner = store, store
	} else {
		var err error
		db, err = sql.Open("pgx", c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		pm := repomanager.NewPostgres()
		if err := pm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrations error: %w", err)
		}
		m = pm
		runner = dbx.NewRunner(db, dbx.RunnerOptions{MaxWait: c.TxMaxWait, Timeout: c.TxTimeout, Retries: c.TxRetries})
	}

	codec, err := NewCodec(c)
	if err != nil {
		return nil, fmt.Errorf("token config error: %w", err)
	}

	sink, err := newSink(c, logger)
	if err != nil {
		return nil, err
	}

	var store services.AvatarStore
	if c.S3Bucket != "" {
		store = avatars.NewS3Store(avatars.Config{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Bucket:       c.S3Bucket,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	}

	svc := services.NewAuthService(runner, m, codec,
		otp.NewGenerator(c.OTPExpiryMinutes),
		sessions.NewManager(m, c.MaxSessions, c.RefreshTokenLifetime),
		sink, store, logger,
		services.Options{MaxLoginAttempts: c.MaxLoginAttempts, BcryptCost: c.BcryptCost},
	)

	return &App{config: c, logger: logger, db: db, codec: codec, service: svc}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.service, app.codec, app.config.ServiceKey)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startMetricsServer(ctx context.Context) {
	if app.config.MetricsAddr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: app.config.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "Starting metrics server", "address", app.config.MetricsAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, "metrics server failed", "error", err)
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startMetricsServer(ctx)
	}()

	wg.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close failed", "error", err)
		}
	}
}
