package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	Gateways GatewaysConfig `mapstructure:"gateways"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

// PaymentConfig tunes the transaction orchestrator.
type PaymentConfig struct {
	// MinAmountMinor rejects charges below this many minor units before
	// any record is created.
	MinAmountMinor int64 `mapstructure:"min_amount_minor"`
	// DefaultCommissionBps is applied to newly registered merchants.
	DefaultCommissionBps int32 `mapstructure:"default_commission_bps"`
	// GatewayTimeout bounds every external gateway call.
	GatewayTimeout time.Duration `mapstructure:"gateway_timeout"`
	// RetryAttempts is the number of extra tries after a transient
	// gateway network failure. Rejections are never retried.
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryBackoff  time.Duration `mapstructure:"retry_backoff"`
	// IdempotencyTTL bounds the cached-response fast path.
	IdempotencyTTL time.Duration `mapstructure:"idempotency_ttl"`
}

// GatewaysConfig holds external payment provider credentials. Each adapter
// validates its own section at construction time and refuses to start when
// credentials are missing.
type GatewaysConfig struct {
	Card         CardGatewayConfig         `mapstructure:"card"`
	BankTransfer BankTransferGatewayConfig `mapstructure:"bank_transfer"`
}

type CardGatewayConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	SecretKey string `mapstructure:"secret_key"`
}

type BankTransferGatewayConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	KeyID     string `mapstructure:"key_id"`
	KeySecret string `mapstructure:"key_secret"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: PPC_ (Payment
// Processing Core). Nested keys use underscore: PPC_DATABASE_HOST,
// PPC_GATEWAYS_CARD_SECRET_KEY, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "payment_core")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "payment-processing-core")
	v.SetDefault("payment.min_amount_minor", 100)
	v.SetDefault("payment.default_commission_bps", 70)
	v.SetDefault("payment.gateway_timeout", "15s")
	v.SetDefault("payment.retry_attempts", 2)
	v.SetDefault("payment.retry_backoff", "200ms")
	v.SetDefault("payment.idempotency_ttl", "24h")
	v.SetDefault("gateways.card.base_url", "https://api.cardprovider.example")
	v.SetDefault("gateways.card.secret_key", "")
	v.SetDefault("gateways.bank_transfer.base_url", "https://api.bankprovider.example")
	v.SetDefault("gateways.bank_transfer.key_id", "")
	v.SetDefault("gateways.bank_transfer.key_secret", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: PPC_DATABASE_HOST -> database.host
	v.SetEnvPrefix("PPC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required — env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
