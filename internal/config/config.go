// Package config loads process configuration from a YAML file plus
// environment variable overrides, mirroring the teacher's layered
// features.yaml + env-override pattern, and supports fsnotify-driven
// hot reload of the tunables that are safe to change at runtime
// (pipeline parallelism, model retry/backoff, rate limits).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/smeasylife/highlog-ai/internal/logging"
	"github.com/smeasylife/highlog-ai/internal/tracing"
)

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	DSN             string `mapstructure:"dsn"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifeMins int    `mapstructure:"conn_max_life_minutes"`
}

// RedisConfig holds Redis connection settings, shared by the Progress
// Stream and the Model Gateway embedding cache.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// TemporalConfig holds the worker's connection to the Temporal cluster.
type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

// BlobStoreConfig holds settings for the S3-compatible blob backend
// used by the Ingestion Pipeline to fetch source documents.
type BlobStoreConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// ModelGatewayConfig holds the tunables named in the external interface
// design: retry policy, timeouts, and the global concurrency cap.
type ModelGatewayConfig struct {
	BaseURL            string `mapstructure:"base_url"`
	APIKey             string `mapstructure:"api_key"`
	CallTimeoutMS      int    `mapstructure:"call_timeout_ms"`
	MaxRetries         int    `mapstructure:"max_retries"`
	BackoffBaseMS      int    `mapstructure:"backoff_base_ms"`
	BackoffMaxMS       int    `mapstructure:"backoff_max_ms"`
	MaxConcurrentCalls int    `mapstructure:"max_concurrent_calls"`
	CallsPerSecond     int    `mapstructure:"calls_per_second"`
	EmbeddingDim       int    `mapstructure:"embedding_dim"`
}

// IngestionConfig holds pipeline batch size and parallelism settings.
type IngestionConfig struct {
	BatchPages  int `mapstructure:"batch_pages"`
	Parallelism int `mapstructure:"parallelism"`
}

// QGenConfig holds the question generation pipeline's parallelism.
type QGenConfig struct {
	Parallelism int `mapstructure:"parallelism"`
}

// InterviewConfig holds the timing and topic/follow-up limits that
// drive the Interview Orchestrator's routing decisions.
type InterviewConfig struct {
	TotalTimeS           int `mapstructure:"total_time_s"`
	WrapUpThresholdS     int `mapstructure:"wrap_up_threshold_s"`
	MaxTopics            int `mapstructure:"max_topics"`
	MaxFollowUps         int `mapstructure:"max_follow_ups"`
}

// Config is the root configuration object loaded from config/app.yaml
// and overridden by environment variables.
type Config struct {
	Logging      logging.Config     `mapstructure:"logging"`
	Tracing      tracing.Config     `mapstructure:"tracing"`
	MetricsPort  int                `mapstructure:"metrics_port"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Temporal     TemporalConfig     `mapstructure:"temporal"`
	BlobStore    BlobStoreConfig    `mapstructure:"blob_store"`
	ModelGateway ModelGatewayConfig `mapstructure:"model_gateway"`
	Ingestion    IngestionConfig    `mapstructure:"ingestion"`
	QGen         QGenConfig         `mapstructure:"qgen"`
	Interview    InterviewConfig    `mapstructure:"interview"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("metrics_port", 9090)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "highlog-interview-core")

	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_life_minutes", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "highlog-core")

	v.SetDefault("model_gateway.call_timeout_ms", 30000)
	v.SetDefault("model_gateway.max_retries", 3)
	v.SetDefault("model_gateway.backoff_base_ms", 500)
	v.SetDefault("model_gateway.backoff_max_ms", 20000)
	v.SetDefault("model_gateway.max_concurrent_calls", 8)
	v.SetDefault("model_gateway.calls_per_second", 4)
	v.SetDefault("model_gateway.embedding_dim", 1536)

	v.SetDefault("ingestion.batch_pages", 3)
	v.SetDefault("ingestion.parallelism", 4)

	v.SetDefault("qgen.parallelism", 4)

	v.SetDefault("interview.total_time_s", 900)
	v.SetDefault("interview.wrap_up_threshold_s", 30)
	v.SetDefault("interview.max_topics", 8)
	v.SetDefault("interview.max_follow_ups", 3)
}

// Load reads configuration from the file at path (or CONFIG_PATH if
// path is empty, falling back to config/app.yaml), then applies
// environment variable overrides using the HIGHLOG_ prefix with
// underscores in place of dots (e.g. HIGHLOG_MODEL_GATEWAY_MAX_RETRIES).
func Load(path string) (*Config, error) {
	v := viper.New()
	defaults(v)

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "config/app.yaml"
	}

	v.SetConfigFile(path)
	v.SetEnvPrefix("HIGHLOG")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	applyLegacyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyLegacyEnvOverrides mirrors the teacher's BudgetFromEnvOrDefaults
// pattern of reading a handful of bare (unprefixed) env vars for the
// settings operators most commonly tune without touching app.yaml.
func applyLegacyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("TEMPORAL_HOST_PORT"); v != "" {
		cfg.Temporal.HostPort = v
	}
	if v := os.Getenv("MODEL_GATEWAY_API_KEY"); v != "" {
		cfg.ModelGateway.APIKey = v
	}
	if v := os.Getenv("MODEL_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ModelGateway.MaxRetries = n
		}
	}
	if v := os.Getenv("QGEN_PARALLELISM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.QGen.Parallelism = n
		}
	}
	if v := os.Getenv("INGEST_PARALLELISM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Ingestion.Parallelism = n
		}
	}
}
