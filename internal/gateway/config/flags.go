package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/fintrack/internal/flagx"
)

// parseFlags supports:
//
//	-a string   HTTP bind address
//	-s string   auth service gRPC address
//	-k string   service key forwarded on external sign-in
//	-prod       production mode (Secure cookies)
func parseFlags(config *Config) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.StringVar(&config.Addr, "a", config.Addr, "address and port to listen on")
	fs.StringVar(&config.AuthServiceAddr, "s", config.AuthServiceAddr, "auth service address")
	fs.StringVar(&config.ServiceKey, "k", config.ServiceKey, "service key")
	fs.BoolVar(&config.Production, "prod", config.Production, "production mode")

	if err := flagx.ParseKnown(fs, os.Args[1:]); err != nil {
		panic(err)
	}
}
