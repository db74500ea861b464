package config

import (
	"fmt"
	"os"
	"time"

	"notespace/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port     string `yaml:"port" validate:"required,numeric"`
	Env      string `yaml:"env" validate:"oneof=development production test"`
	LogLevel string `yaml:"log_level"`

	SupabaseURL     string `yaml:"supabase_url" validate:"required,url"`
	SupabaseAnonKey string `yaml:"supabase_anon_key" validate:"required"`
	JWTSecret       string `yaml:"jwt_secret"`

	RedisURL string `yaml:"redis_url"`
	ClientID string `yaml:"client_id" validate:"required"`

	ConnectivityInterval time.Duration `yaml:"connectivity_interval" validate:"gt=0"`
	RemoteTimeout        time.Duration `yaml:"remote_timeout" validate:"gt=0"`
	RefreshMargin        time.Duration `yaml:"refresh_margin" validate:"gte=0"`
	MaxBodyBytes         int64         `yaml:"max_body_bytes" validate:"gt=0"`
	AllowedOrigins       []string      `yaml:"allowed_origins"`

	Database DatabaseConfig `yaml:"database"`
}

// Load reads .env, then the optional YAML file named by CONFIG_FILE, then
// the environment, which wins over both. The result is validated.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && os.Getenv("GO_ENV") != "test" {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	var base Config
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &base); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg := fromEnv(base)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv(base Config) *Config {
	return &Config{
		Port:     utils.GetEnvAsString("PORT", or(base.Port, "8080")),
		Env:      utils.GetEnvAsString("GO_ENV", or(base.Env, "development")),
		LogLevel: utils.GetEnvAsString("LOG_LEVEL", or(base.LogLevel, "info")),

		SupabaseURL:     utils.GetEnvAsString("SUPABASE_URL", base.SupabaseURL),
		SupabaseAnonKey: utils.GetEnvAsString("SUPABASE_ANON_KEY", base.SupabaseAnonKey),
		JWTSecret:       utils.GetEnvAsString("JWT_SECRET", base.JWTSecret),

		RedisURL: utils.GetEnvAsString("REDIS_URL", base.RedisURL),
		ClientID: utils.GetEnvAsString("CLIENT_ID", or(base.ClientID, defaultClientID())),

		ConnectivityInterval: utils.GetEnvAsDuration("CONNECTIVITY_INTERVAL", orDuration(base.ConnectivityInterval, 30*time.Second)),
		RemoteTimeout:        utils.GetEnvAsDuration("REMOTE_TIMEOUT", orDuration(base.RemoteTimeout, 15*time.Second)),
		RefreshMargin:        utils.GetEnvAsDuration("REFRESH_MARGIN", orDuration(base.RefreshMargin, 60*time.Second)),
		MaxBodyBytes:         int64(utils.GetEnvAsInt("MAX_BODY_BYTES", int(orInt64(base.MaxBodyBytes, 1<<20)))),
		AllowedOrigins:       utils.GetEnvAsList("ALLOWED_ORIGINS", orList(base.AllowedOrigins, []string{"http://localhost:5173"})),

		Database: loadDatabaseConfig(base.Database),
	}
}

func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// defaultClientID names this installation in the session cache. The
// hostname keeps it stable across restarts.
func defaultClientID() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return uuid.NewString()
}

func or(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func orUint(v, def uint64) uint64 {
	if v != 0 {
		return v
	}
	return def
}

func orInt64(v, def int64) int64 {
	if v != 0 {
		return v
	}
	return def
}

func orDuration(v, def time.Duration) time.Duration {
	if v != 0 {
		return v
	}
	return def
}

func orList(v, def []string) []string {
	if len(v) > 0 {
		return v
	}
	return def
}
