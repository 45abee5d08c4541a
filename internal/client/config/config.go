package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the fintrack terminal client.
type Config struct {
	ServerEndpointAddr string        `env:"FINTRACK_AUTH_ADDR"`
	DBPath             string        `env:"FINTRACK_CLIENT_DB"`
	RequestTimeout     time.Duration `env:"FINTRACK_REQUEST_TIMEOUT"`
}

func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:4002"
	c.DBPath = defaultDBPath()
	c.RequestTimeout = 15 * time.Second
}

// LoadConfig applies defaults, then the JSON file, the environment and
// flags. Later sources win.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

// defaultDBPath keeps credentials under the user's config directory and
// falls back to the working directory when there is none.
func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "fintrack.db"
	}
	return filepath.Join(dir, "fintrack", "client.db")
}
