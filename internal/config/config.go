package config

import (
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
	Port int `yaml:"port"`
	// JWTSecret verifies the bearer tokens issued by the auth service; this
	// core only parses them to a trusted user id.
	JWTSecret string `yaml:"jwt_secret"`
	// WebhookSecret, when set, turns on HMAC signature checks for the
	// payment webhook route.
	WebhookSecret string `yaml:"webhook_secret"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type NotifyConfig struct {
	TelegramToken string `yaml:"telegram_token"`
	AdminChatID   int64  `yaml:"admin_chat_id"`
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Notify   NotifyConfig   `yaml:"notify"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path and applies environment overrides
// for the secrets that should not live on disk.
func LoadConfig(path string, dev bool) (*Config, error) {
	cfg := &Config{
		Log:      LogConfig{Level: "info", Format: "json"},
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{MaxConns: 10},
		Redis:    RedisConfig{TTL: time.Hour},
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Server.JWTSecret = v
	}
	if v := os.Getenv("WEBHOOK_SECRET"); v != "" {
		cfg.Server.WebhookSecret = v
	}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		cfg.Notify.TelegramToken = v
	}

	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database.url is required (or set DATABASE_URL)")
	}
	if cfg.Server.JWTSecret == "" {
		return nil, fmt.Errorf("server.jwt_secret is required (or set JWT_SECRET)")
	}

	cfg.Runtime.Dev = dev
	return cfg, nil
}
