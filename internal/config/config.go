package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port         int           `yaml:"port"`          // provider-facing callbacks + internal API
	ReadTimeout  time.Duration `yaml:"read_timeout"`  //
	WriteTimeout time.Duration `yaml:"write_timeout"` //
	SuccessURL   string        `yaml:"success_url"`   // browser redirect after a settled payment
	FailURL      string        `yaml:"fail_url"`      // browser redirect after any failure branch
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	PoolSize int    `yaml:"pool_size"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// GatewayConfig carries the payment gateway merchant credentials. SignKey
// feeds the desktop SHA-256 verification hash; HashKey feeds the mobile
// SHA-512 digest.
type GatewayConfig struct {
	MerchantID       string        `yaml:"merchant_id"`
	MobileMerchantID string        `yaml:"mobile_merchant_id"`
	SignKey          string        `yaml:"sign_key"`
	HashKey          string        `yaml:"hash_key"`
	Currency         string        `yaml:"currency"`
	Timeout          time.Duration `yaml:"timeout"`
	// AllowURLMismatch restores the provider's documented log-and-continue
	// tolerance for data-center failover. Default is strict rejection.
	AllowURLMismatch bool `yaml:"allow_url_mismatch"`
	NetCancelWorkers int  `yaml:"net_cancel_workers"`
	NetCancelQueue   int  `yaml:"net_cancel_queue"`
}

// IdentityConfig carries the identity-verification provider credentials and
// the symmetric key/iv used to decrypt the enc_* callback fields.
type IdentityConfig struct {
	MerchantID string `yaml:"merchant_id"`
	APIKey     string `yaml:"api_key"`
	DecryptKey string `yaml:"decrypt_key"`
	DecryptIV  string `yaml:"decrypt_iv"`
	SuccessURL string `yaml:"success_url"`
	FailURL    string `yaml:"fail_url"`
}

type SchedulerConfig struct {
	ExpiryInterval time.Duration `yaml:"expiry_interval"`
}

type SecurityConfig struct {
	APISecret     string `yaml:"api_secret"`     // HMAC secret for internal API tokens
	EncryptionKey string `yaml:"encryption_key"` // AES key for PII at rest (16/24/32 bytes)
}

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Identity  IdentityConfig  `yaml:"identity"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Security  SecurityConfig  `yaml:"security"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Database.PoolSize <= 0 {
		cfg.Database.PoolSize = 10
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Gateway.Currency == "" {
		cfg.Gateway.Currency = "WON"
	}
	if cfg.Gateway.Timeout <= 0 {
		cfg.Gateway.Timeout = 10 * time.Second
	}
	if cfg.Gateway.MobileMerchantID == "" {
		cfg.Gateway.MobileMerchantID = cfg.Gateway.MerchantID
	}
	if cfg.Gateway.NetCancelWorkers <= 0 {
		cfg.Gateway.NetCancelWorkers = 2
	}
	if cfg.Gateway.NetCancelQueue <= 0 {
		cfg.Gateway.NetCancelQueue = 64
	}
	if cfg.Scheduler.ExpiryInterval <= 0 {
		cfg.Scheduler.ExpiryInterval = time.Hour
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Gateway.MerchantID == "" || cfg.Gateway.SignKey == "" {
		return nil, errors.New("gateway.merchant_id and gateway.sign_key are required")
	}
	if cfg.Identity.MerchantID == "" || cfg.Identity.APIKey == "" {
		return nil, errors.New("identity.merchant_id and identity.api_key are required")
	}
	if cfg.Security.APISecret == "" {
		return nil, errors.New("security.api_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
