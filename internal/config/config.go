package config

import (
	"os"
	"strconv"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	Port          string `yaml:"port"`
	DatabaseURL   string `yaml:"databaseURL"`
	JWTSecret     string `yaml:"jwtSecret"`
	LogLevel      string `yaml:"logLevel"`
	TraceEndpoint string `yaml:"traceEndpoint"`

	Webhook   WebhookConfig   `yaml:"webhook"`
	Redis     RedisConfig     `yaml:"redis"`
	Storage   StorageConfig   `yaml:"storage"`
	SeedAdmin SeedAdminConfig `yaml:"seedAdmin"`
	Search    SearchConfig    `yaml:"search"`
}

// WebhookConfig points at the external workflow endpoints. An empty BaseURL writes directly to the tables.
type WebhookConfig struct {
	BaseURL string        `yaml:"baseURL"`
	Timeout time.Duration `yaml:"timeout"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// StorageConfig selects GCS when Bucket is set, otherwise uploads are written under AvatarDir and served at /uploads.
type StorageConfig struct {
	Bucket          string `yaml:"bucket"`
	CredentialsJSON string `yaml:"credentialsJSON"`
	AvatarDir       string `yaml:"avatarDir"`
	PublicBaseURL   string `yaml:"publicBaseURL"`
}

type SeedAdminConfig struct {
	Email    string `yaml:"email"`
	UID      string `yaml:"uid"`
	Password string `yaml:"password"`
}

type SearchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	Limit    int           `yaml:"limit"`
}

func defaults() Config {
	return Config{
		Port:     "3000",
		LogLevel: "info",
		Webhook:  WebhookConfig{Timeout: 10 * time.Second},
		Storage:  StorageConfig{AvatarDir: "./uploads", PublicBaseURL: "http://localhost:3000"},
		Search:   SearchConfig{Debounce: 300 * time.Millisecond, Limit: 10},
	}
}

// Load reads .env, then the YAML file named by CONFIG_FILE if any, then environment overrides.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrap(err, "read config file")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrap(err, "parse config file")
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("PORT", &cfg.Port)
	str("DATABASE_URL", &cfg.DatabaseURL)
	str("JWT_SECRET", &cfg.JWTSecret)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("TRACE_ENDPOINT", &cfg.TraceEndpoint)
	str("WEBHOOK_BASE_URL", &cfg.Webhook.BaseURL)
	str("REDIS_ADDR", &cfg.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Redis.Password)
	str("GCS_BUCKET", &cfg.Storage.Bucket)
	str("GCS_CREDENTIALS_JSON", &cfg.Storage.CredentialsJSON)
	str("AVATAR_DIR", &cfg.Storage.AvatarDir)
	str("PUBLIC_BASE_URL", &cfg.Storage.PublicBaseURL)
	str("SEED_ADMIN_EMAIL", &cfg.SeedAdmin.Email)
	str("SEED_ADMIN_UID", &cfg.SeedAdmin.UID)
	str("SEED_ADMIN_PASSWORD", &cfg.SeedAdmin.Password)

	if v, ok := lookup("REDIS_DB"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "REDIS_DB")
		}
		cfg.Redis.DB = n
	}
	if v, ok := lookup("WEBHOOK_TIMEOUT_SECONDS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "WEBHOOK_TIMEOUT_SECONDS")
		}
		cfg.Webhook.Timeout = time.Duration(n) * time.Second
	}
	if v, ok := lookup("SEARCH_DEBOUNCE_MS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "SEARCH_DEBOUNCE_MS")
		}
		cfg.Search.Debounce = time.Duration(n) * time.Millisecond
	}
	return nil
}
