package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/api/authv1"
	"github.com/dmitrijs2005/fintrack/internal/client/client"
	"github.com/dmitrijs2005/fintrack/internal/client/config"
	"github.com/dmitrijs2005/fintrack/internal/client/repositories/metadata"
)

// authClient is the part of client.GRPCClient the commands use.
type authClient interface {
	Register(ctx context.Context, email, firstName, lastName, password string) (string, error)
	VerifyEmail(ctx context.Context, code string) (*authv1.User, error)
	ResendVerifyEmail(ctx context.Context, email string) (string, error)
	Login(ctx context.Context, email, password string) (*authv1.User, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResendForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, code, password string) (string, error)
	WhoAmI(ctx context.Context) (*authv1.User, error)
	UploadAvatar(ctx context.Context, path string) (string, error)
	Logout(ctx context.Context) error
	LoggedIn(ctx context.Context) bool
	Close() error
}

type App struct {
	config *config.Config
	client authClient
	db     *sql.DB
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	db, err := client.InitDatabase(ctx, c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	a := &App{config: c, db: db, reader: bufio.NewReader(os.Stdin), out: os.Stdout}

	api, err := client.NewGRPCClient(c.ServerEndpointAddr, metadata.NewSQLiteStore(db), a.sessionEnded)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	a.client = api
	return a, nil
}

func (a *App) sessionEnded() {
	fmt.Fprintln(a.out, "session ended, please login")
}

func (a *App) isLoggedIn() bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return a.client.LoggedIn(ctx)
}

func (a *App) status() string {
	if a.isLoggedIn() {
		return "(signed in)"
	}
	return ""
}

// Run blocks in the REPL until the user exits or stdin closes.
func (a *App) Run(ctx context.Context) {
	defer func() {
		_ = a.client.Close()
		if a.db != nil {
			_ = a.db.Close()
		}
	}()

	fmt.Fprintln(a.out, "Welcome to fintrack (type 'help' for commands)")
	runREPL(ctx, a, a.status, bufio.NewScanner(a.reader))
}
