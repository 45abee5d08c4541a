// Package config handles configuration for the auth server,
// including defaults, JSON overlay, environment and command-line flags.
package config

import "time"

// Config holds runtime settings for the auth server.
//
// Environment keys follow the names used by the rest of the deployment
// (JWT_SECRET, OTP_EXPIRY_MINUTES, DATABASE_URL, ...). An empty DatabaseDSN
// runs the server on the in-memory store; an empty RedisURL logs
// notifications instead of queueing them.
type Config struct {
	EndpointAddrGRPC string `env:"AUTH_GRPC_ADDR"`
	MetricsAddr      string `env:"METRICS_ADDR"`
	DatabaseDSN      string `env:"DATABASE_URL"`
	RedisURL         string `env:"REDIS_URL"`
	NotifyQueue      string `env:"NOTIFY_QUEUE"`
	ServiceKey       string `env:"AUTH_SERVICE_KEY"`
	LogLevel         string `env:"LOG_LEVEL"`

	AccessSecret         string        `env:"JWT_SECRET"`
	RefreshSecret        string        `env:"JWT_REFRESH_SECRET"`
	OTPSecret            string        `env:"JWT_OTP_SECRET"`
	AccessTokenLifetime  time.Duration `env:"JWT_ACCESS_TOKEN_EXPIRATION"`
	RefreshTokenLifetime time.Duration `env:"JWT_REFRESH_TOKEN_EXPIRATION"`
	OTPTokenLifetime     time.Duration `env:"JWT_OTP_TOKEN_EXPIRATION"`

	OTPExpiryMinutes int `env:"OTP_EXPIRY_MINUTES"`
	MaxLoginAttempts int `env:"MAX_LOGIN_ATTEMPTS"`
	MaxSessions      int `env:"MAX_SESSIONS"`
	BcryptCost       int `env:"BCRYPT_COST"`

	TxMaxWait time.Duration `env:"TX_MAX_WAIT"`
	TxTimeout time.Duration `env:"TX_TIMEOUT"`
	TxRetries uint64        `env:"TX_RETRIES"`

	S3RootUser     string `env:"S3_ACCESS_KEY"`
	S3RootPassword string `env:"S3_SECRET_KEY"`
	S3Bucket       string `env:"S3_BUCKET"`
	S3Region       string `env:"S3_REGION"`
	S3BaseEndpoint string `env:"S3_ENDPOINT"`
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secrets are insecure and must be overridden in production.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":4002"
	c.MetricsAddr = ":9102"
	c.NotifyQueue = "notifications"
	c.LogLevel = "info"
	c.AccessSecret = "access-secret"
	c.RefreshSecret = "refresh-secret"
	c.OTPSecret = "otp-secret"
	c.AccessTokenLifetime = 15 * time.Minute
	c.RefreshTokenLifetime = 30 * 24 * time.Hour
	c.OTPTokenLifetime = 10 * time.Minute
	c.OTPExpiryMinutes = 5
	c.MaxLoginAttempts = 3
	c.MaxSessions = 2
	c.BcryptCost = 10
	c.TxMaxWait = 5 * time.Second
	c.TxTimeout = 10 * time.Second
	c.TxRetries = 3
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "avatars"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
