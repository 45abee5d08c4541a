package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/flagx"
	"github.com/dmitrijs2005/fintrack/internal/timex"
)

// parseFlags applies the command-line overrides:
//
//	-a string   gRPC bind address (e.g. ":4002")
//	-m string   metrics bind address
//	-d string   PostgreSQL DSN; empty selects the in-memory store
//	-redis      Redis URL for the notification queue
//	-k string   service key required by ExternalSignIn
//	-l string   log level
//	-t value    access token lifetime ("15m")
//	-r value    refresh token lifetime ("30d")
func parseFlags(config *Config) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "metrics address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisURL, "redis", config.RedisURL, "redis URL")
	fs.StringVar(&config.ServiceKey, "k", config.ServiceKey, "service key")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.Func("t", "access token lifetime", lifetime(&config.AccessTokenLifetime))
	fs.Func("r", "refresh token lifetime", lifetime(&config.RefreshTokenLifetime))

	if err := flagx.ParseKnown(fs, os.Args[1:]); err != nil {
		panic(err)
	}
}

func lifetime(dst *time.Duration) func(string) error {
	return func(v string) error {
		d, err := timex.ParseLifetime(v)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}
