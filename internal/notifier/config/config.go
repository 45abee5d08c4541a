// Package config handles configuration for the notification worker.
package config

import (
	"flag"
	"os"
	"reflect"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goccy/go-json"

	"github.com/dmitrijs2005/fintrack/internal/flagx"
	"github.com/dmitrijs2005/fintrack/internal/timex"
)

type Config struct {
	RedisURL    string `json:"redis_url" env:"REDIS_URL"`
	Queue       string `json:"queue" env:"NOTIFY_QUEUE"`
	MetricsAddr string `json:"metrics_addr" env:"NOTIFIER_METRICS_ADDR"`
	LogLevel    string `json:"log_level" env:"LOG_LEVEL"`

	PollTimeout   timex.Duration `json:"poll_timeout" env:"NOTIFIER_POLL_TIMEOUT"`
	RetryInterval timex.Duration `json:"retry_interval" env:"NOTIFIER_RETRY_INTERVAL"`
	MaxRetries    uint64         `json:"max_retries" env:"NOTIFIER_MAX_RETRIES"`
}

func (c *Config) LoadDefaults() {
	c.RedisURL = "redis://localhost:6379/0"
	c.Queue = "notifications"
	c.MetricsAddr = ":9103"
	c.LogLevel = "info"
	c.PollTimeout = timex.Duration{Duration: 5 * time.Second}
	c.RetryInterval = timex.Duration{Duration: 500 * time.Millisecond}
	c.MaxRetries = 3
}

func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

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

// parseFlags supports:
//
//	-redis string   redis URL
//	-q string       queue name
//	-m string       metrics bind address
func parseFlags(config *Config) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.StringVar(&config.RedisURL, "redis", config.RedisURL, "redis URL")
	fs.StringVar(&config.Queue, "q", config.Queue, "queue name")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "metrics address")

	if err := flagx.ParseKnown(fs, os.Args[1:]); err != nil {
		panic(err)
	}
}
