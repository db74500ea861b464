package config

import (
	"time"

	"notespace/utils"
)

const (
	BackendPostgrest = "postgrest"
	BackendMongo     = "mongo"
	BackendPostgres  = "postgres"
)

// DatabaseConfig selects and configures the table backend.
type DatabaseConfig struct {
	Backend string `yaml:"backend" validate:"oneof=postgrest mongo postgres"`

	MongoURI        string        `yaml:"mongo_uri" validate:"required_if=Backend mongo"`
	MongoDB         string        `yaml:"mongo_db" validate:"required_if=Backend mongo"`
	MaxPoolSize     uint64        `yaml:"mongo_max_pool_size"`
	MaxConnIdleTime time.Duration `yaml:"mongo_max_conn_idle_time"`

	PostgresURL string `yaml:"postgres_url" validate:"required_if=Backend postgres"`
	Migrate     bool   `yaml:"migrate"`
}

func loadDatabaseConfig(base DatabaseConfig) DatabaseConfig {
	return DatabaseConfig{
		Backend:         utils.GetEnvAsString("BACKEND", or(base.Backend, BackendPostgrest)),
		MongoURI:        utils.GetEnvAsString("MONGO_URI", base.MongoURI),
		MongoDB:         utils.GetEnvAsString("MONGO_DB", or(base.MongoDB, "notespace")),
		MaxPoolSize:     utils.GetEnvAsUint64("MONGO_MAX_POOL_SIZE", orUint(base.MaxPoolSize, 100)),
		MaxConnIdleTime: utils.GetEnvAsDuration("MONGO_MAX_CONN_IDLE_TIME", orDuration(base.MaxConnIdleTime, 60*time.Second)),
		PostgresURL:     utils.GetEnvAsString("POSTGRES_URL", base.PostgresURL),
		Migrate:         utils.GetEnvAsBool("POSTGRES_MIGRATE", base.Migrate),
	}
}
