package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/dmitrijs2005/fintrack/internal/flagx"
	"github.com/dmitrijs2005/fintrack/internal/timex"
)

// JsonConfig is the on-disk shape of Config. Durations use timex.Duration,
// so both "15m"/"30d" strings and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrGRPC     string         `json:"endpoint_addr_grpc"`
	MetricsAddr          string         `json:"metrics_addr"`
	DatabaseDSN          string         `json:"database_dsn"`
	RedisURL             string         `json:"redis_url"`
	NotifyQueue          string         `json:"notify_queue"`
	ServiceKey           string         `json:"service_key"`
	LogLevel             string         `json:"log_level"`
	AccessSecret         string         `json:"jwt_secret"`
	RefreshSecret        string         `json:"jwt_refresh_secret"`
	OTPSecret            string         `json:"jwt_otp_secret"`
	AccessTokenLifetime  timex.Duration `json:"access_token_lifetime"`
	RefreshTokenLifetime timex.Duration `json:"refresh_token_lifetime"`
	OTPTokenLifetime     timex.Duration `json:"otp_token_lifetime"`
	OTPExpiryMinutes     int            `json:"otp_expiry_minutes"`
	MaxLoginAttempts     int            `json:"max_login_attempts"`
	MaxSessions          int            `json:"max_sessions"`
	BcryptCost           int            `json:"bcrypt_cost"`
	TxMaxWait            timex.Duration `json:"tx_max_wait"`
	TxTimeout            timex.Duration `json:"tx_timeout"`
	TxRetries            uint64         `json:"tx_retries"`
	S3RootUser           string         `json:"s3_root_user"`
	S3RootPassword       string         `json:"s3_root_password"`
	S3Bucket             string         `json:"s3_bucket"`
	S3Region             string         `json:"s3_region"`
	S3BaseEndpoint       string         `json:"s3_base_endpoint"`
}

func set[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}

// parseJson loads the file named by -c/-config, if any, over config. Only
// keys present with a non-zero value replace the current settings. An
// unreadable or malformed file panics.
func parseJson(config *Config) {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(fmt.Errorf("config %s: %w", path, err))
	}

	set(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	set(&config.MetricsAddr, c.MetricsAddr)
	set(&config.DatabaseDSN, c.DatabaseDSN)
	set(&config.RedisURL, c.RedisURL)
	set(&config.NotifyQueue, c.NotifyQueue)
	set(&config.ServiceKey, c.ServiceKey)
	set(&config.LogLevel, c.LogLevel)
	set(&config.AccessSecret, c.AccessSecret)
	set(&config.RefreshSecret, c.RefreshSecret)
	set(&config.OTPSecret, c.OTPSecret)
	set(&config.AccessTokenLifetime, c.AccessTokenLifetime.Duration)
	set(&config.RefreshTokenLifetime, c.RefreshTokenLifetime.Duration)
	set(&config.OTPTokenLifetime, c.OTPTokenLifetime.Duration)
	set(&config.OTPExpiryMinutes, c.OTPExpiryMinutes)
	set(&config.MaxLoginAttempts, c.MaxLoginAttempts)
	set(&config.MaxSessions, c.MaxSessions)
	set(&config.BcryptCost, c.BcryptCost)
	set(&config.TxMaxWait, c.TxMaxWait.Duration)
	set(&config.TxTimeout, c.TxTimeout.Duration)
	set(&config.TxRetries, c.TxRetries)
	set(&config.S3RootUser, c.S3RootUser)
	set(&config.S3RootPassword, c.S3RootPassword)
	set(&config.S3Bucket, c.S3Bucket)
	set(&config.S3Region, c.S3Region)
	set(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}
