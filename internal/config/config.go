package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Bulletin BulletinConfig
	Webhook  WebhookConfig
	DB       DatabaseConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type BulletinConfig struct {
	URL          string
	Encoding     string
	HomeCity     string // statements inside this municipality carry no locality
	FetchTimeout time.Duration
}

type WebhookConfig struct {
	URL         string
	PostTimeout time.Duration
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Bulletin: BulletinConfig{
			URL:          getEnv("BULLETIN_URL", "http://www.nagaoka-fd.com/fire/saigai/saigaipc.html"),
			Encoding:     getEnv("BULLETIN_ENCODING", "sjis"),
			HomeCity:     getEnv("BULLETIN_HOME_CITY", "長岡市"),
			FetchTimeout: getEnvDuration("BULLETIN_FETCH_TIMEOUT", 10*time.Second),
		},
		Webhook: WebhookConfig{
			URL:         getEnv("WEBHOOK_URL", ""),
			PostTimeout: getEnvDuration("WEBHOOK_POST_TIMEOUT", 10*time.Second),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/fwd-nagaoka.db"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Bulletin.URL == "" {
		return fmt.Errorf("bulletin URL must not be empty")
	}
	if c.Bulletin.HomeCity == "" {
		return fmt.Errorf("home city must not be empty")
	}
	if c.Bulletin.FetchTimeout < time.Second {
		return fmt.Errorf("bulletin fetch timeout must be at least 1 second")
	}
	if c.Webhook.PostTimeout < time.Second {
		return fmt.Errorf("webhook post timeout must be at least 1 second")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
