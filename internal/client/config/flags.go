package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/fintrack/internal/flagx"
	"github.com/dmitrijs2005/fintrack/internal/timex"
)

// parseFlags supports:
//
//	-a string   address and port of the auth service
//	-db string  path of the local credential database
//	-t value    request timeout, e.g. "10s" or "1m"
func parseFlags(cfg *Config) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "local database path")
	fs.Func("t", "request timeout", func(v string) error {
		d, err := timex.ParseLifetime(v)
		if err != nil {
			return err
		}
		cfg.RequestTimeout = d
		return nil
	})

	if err := flagx.ParseKnown(fs, os.Args[1:]); err != nil {
		panic(err)
	}
}
