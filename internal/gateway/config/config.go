// Package config handles configuration for the HTTP gateway: defaults, an
// optional JSON file, the environment and command-line flags, in that order.
package config

import (
	"os"
	"reflect"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goccy/go-json"

	"github.com/dmitrijs2005/fintrack/internal/flagx"
	"github.com/dmitrijs2005/fintrack/internal/timex"
)

type Config struct {
	Addr            string `json:"addr" env:"GATEWAY_ADDR"`
	AuthServiceAddr string `json:"auth_service_addr" env:"AUTH_SERVICE_URL"`
	ServiceKey      string `json:"service_key" env:"AUTH_SERVICE_KEY"`
	Production      bool   `json:"production" env:"PRODUCTION"`
	LogLevel        string `json:"log_level" env:"LOG_LEVEL"`

	// Cookie lifetimes mirror the token lifetimes of the auth service.
	AccessTokenLifetime  timex.Duration `json:"access_token_lifetime" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
	RefreshTokenLifetime timex.Duration `json:"refresh_token_lifetime" env:"JWT_REFRESH_TOKEN_EXPIRATION"`

	UserTimeout     timex.Duration `json:"user_timeout" env:"GATEWAY_USER_TIMEOUT"`
	ValidateTimeout timex.Duration `json:"validate_timeout" env:"GATEWAY_VALIDATE_TIMEOUT"`
}

func (c *Config) LoadDefaults() {
	c.Addr = ":4001"
	c.AuthServiceAddr = "localhost:4002"
	c.LogLevel = "info"
	c.AccessTokenLifetime = timex.Duration{Duration: 15 * time.Minute}
	c.RefreshTokenLifetime = timex.Duration{Duration: 30 * 24 * time.Hour}
	c.UserTimeout = timex.Duration{Duration: 15 * time.Second}
	c.ValidateTimeout = timex.Duration{Duration: 8 * time.Second}
}

func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

// parseJson decodes the -c/-config file over the defaults; keys missing
// from the file keep their current value.
func parseJson(config *Config) {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return
	}
	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, config); err != nil {
		panic(err)
	}
}

func parseEnv(config *Config) {
	err := env.ParseWithOptions(config, env.Options{
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(timex.Duration{}): func(v string) (any, error) {
				d, err := timex.ParseLifetime(v)
				return timex.Duration{Duration: d}, err
			},
		},
	})
	if err != nil {
		panic(err)
	}
}
