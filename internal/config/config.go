package config

import (
	"os"
	"strconv"
	"time"

	"carepath-portal/pkg/database"
	"carepath-portal/pkg/redisutil"

	"gopkg.in/yaml.v3"
)

// Config carepath-portal (HTTP API) configuration
type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
		// BaseURL is used when building links embedded in emails
		// (verification, password reset).
		BaseURL string `yaml:"base_url"`
	} `yaml:"http"`
	Database database.Config  `yaml:"database"`
	Redis    redisutil.Config `yaml:"redis"`
	Log      struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Session struct {
		TTL time.Duration `yaml:"ttl"`
	} `yaml:"session"`
	Mail MailConfig `yaml:"mail"`
}

// MailConfig mail gateway settings. Delivery goes through an HTTP gateway
// (Postmark-style JSON API); when Enabled is false sends are logged and
// dropped.
type MailConfig struct {
	Enabled    bool   `yaml:"enabled"`
	GatewayURL string `yaml:"gateway_url"`
	APIKey     string `yaml:"api_key"`
	From       string `yaml:"from"`
}

// Load reads configuration from environment variables, optionally layered on
// top of a YAML file named by CONFIG_FILE. Env always wins.
func Load() *Config {
	cfg := &Config{}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(data, cfg)
		}
	}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", defStr(cfg.HTTP.Addr, ":8080"))
	cfg.HTTP.BaseURL = getEnv("BASE_URL", defStr(cfg.HTTP.BaseURL, "http://localhost:8080"))

	cfg.Database.Host = getEnv("DB_HOST", defStr(cfg.Database.Host, "localhost"))
	cfg.Database.Port = parseInt(getEnv("DB_PORT", ""), defInt(cfg.Database.Port, 5432))
	cfg.Database.User = getEnv("DB_USER", defStr(cfg.Database.User, "postgres"))
	cfg.Database.Password = getEnv("DB_PASSWORD", defStr(cfg.Database.Password, "postgres"))
	cfg.Database.Database = getEnv("DB_NAME", defStr(cfg.Database.Database, "carepath"))
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", defStr(cfg.Database.SSLMode, "disable"))
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", ""), defInt(cfg.Database.MaxConns, 20))
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", ""), defInt(cfg.Database.MaxIdle, 5))

	cfg.Redis.Addr = getEnv("REDIS_ADDR", defStr(cfg.Redis.Addr, "localhost:6379"))
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", ""), cfg.Redis.DB)

	cfg.Log.Level = getEnv("LOG_LEVEL", defStr(cfg.Log.Level, "info"))
	cfg.Log.Format = getEnv("LOG_FORMAT", defStr(cfg.Log.Format, "json"))

	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = 24 * time.Hour
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Session.TTL = d
		}
	}

	if v := os.Getenv("MAIL_ENABLED"); v != "" {
		cfg.Mail.Enabled = v == "true"
	}
	cfg.Mail.GatewayURL = getEnv("MAIL_GATEWAY_URL", cfg.Mail.GatewayURL)
	cfg.Mail.APIKey = getEnv("MAIL_API_KEY", cfg.Mail.APIKey)
	cfg.Mail.From = getEnv("MAIL_FROM", defStr(cfg.Mail.From, "onboarding@carepath.local"))

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func defStr(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func defInt(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}
