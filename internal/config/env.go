package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// Nested structs use underscore delimiter (e.g., EMBEDDING_ENDPOINT_BASE_URL).
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: API_HOST (default: 0.0.0.0)
	Host string `envconfig:"API_HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: API_PORT (default: 8000)
	Port int `envconfig:"API_PORT" default:"8000"`

	// DataDir is the data directory path.
	// Env: DATA_DIR
	// Default: ~/.palmisland
	DataDir string `envconfig:"DATA_DIR"`

	// ModelDir holds downloaded ONNX models.
	// Env: MODEL_DIR
	// Default: {data_dir}/models
	ModelDir string `envconfig:"MODEL_DIR"`

	// DBURL is the relational store URL, including its credential.
	// Env: DB_URL
	// Default: sqlite:///{data_dir}/stories.db
	DBURL string `envconfig:"DB_URL"`

	// StoriesTable is the table stories are read from.
	// Env: STORIES_TABLE (default: stories)
	StoriesTable string `envconfig:"STORIES_TABLE" default:"stories"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// EmbeddingModel is the local sentence-transformers model identifier.
	// Env: EMBEDDING_MODEL (default: sentence-transformers/all-MiniLM-L6-v2)
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"sentence-transformers/all-MiniLM-L6-v2"`

	// EmbeddingDimension must equal the model's output size.
	// Env: EMBEDDING_DIMENSION (default: 384)
	EmbeddingDimension int `envconfig:"EMBEDDING_DIMENSION" default:"384"`

	// EmbeddingEndpoint configures a remote embedding service.
	EmbeddingEndpoint EndpointEnv `envconfig:"EMBEDDING_ENDPOINT"`

	// Qdrant configures the vector store.
	Qdrant QdrantEnv `envconfig:"QDRANT"`

	// PeriodicSync configures background story syncing.
	PeriodicSync PeriodicSyncEnv `envconfig:"PERIODIC_SYNC"`

	// APIKeys is a comma-separated list of keys for write endpoints.
	// Env: API_KEYS
	APIKeys string `envconfig:"API_KEYS"`

	// CORSOrigins is a comma-separated list of allowed browser origins.
	// Env: CORS_ORIGINS
	CORSOrigins string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000,http://localhost:3001"`

	// SearchLimit is the default search result limit.
	// Env: SEARCH_LIMIT (default: 10)
	SearchLimit int `envconfig:"SEARCH_LIMIT" default:"10"`

	// SyncLimit caps the number of stories fetched per sync run.
	// Env: SYNC_LIMIT (default: 1000)
	SyncLimit int `envconfig:"SYNC_LIMIT" default:"1000"`
}

// EndpointEnv holds environment configuration for an AI endpoint.
type EndpointEnv struct {
	// Env: *_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Env: *_MODEL
	Model string `envconfig:"MODEL"`

	// Env: *_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// Timeout is the request timeout in seconds.
	// Env: *_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// Env: *_MAX_RETRIES (default: 5)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"5"`

	// InitialDelay is the initial retry delay in seconds.
	// Env: *_INITIAL_DELAY (default: 2.0)
	InitialDelay float64 `envconfig:"INITIAL_DELAY" default:"2.0"`

	// Env: *_BACKOFF_FACTOR (default: 2.0)
	BackoffFactor float64 `envconfig:"BACKOFF_FACTOR" default:"2.0"`
}

// QdrantEnv holds environment configuration for the vector store.
type QdrantEnv struct {
	// Env: QDRANT_URL (default: http://localhost:6333)
	URL string `envconfig:"URL" default:"http://localhost:6333"`

	// Env: QDRANT_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// Timeout is the per-request timeout in seconds.
	// Env: QDRANT_TIMEOUT (default: 30)
	Timeout float64 `envconfig:"TIMEOUT" default:"30"`
}

// PeriodicSyncEnv holds environment configuration for periodic sync.
type PeriodicSyncEnv struct {
	// Env: PERIODIC_SYNC_ENABLED (default: false)
	Enabled bool `envconfig:"ENABLED" default:"false"`

	// Env: PERIODIC_SYNC_INTERVAL_SECONDS (default: 3600)
	IntervalSeconds float64 `envconfig:"INTERVAL_SECONDS" default:"3600"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// Normalize cleans up values that are commonly written in more than one way.
func (e EnvConfig) Normalize() EnvConfig {
	e.DBURL = normalizeDBURL(strings.TrimSpace(e.DBURL))
	e.Qdrant.URL = strings.TrimRight(strings.TrimSpace(e.Qdrant.URL), "/")
	e.LogLevel = strings.ToUpper(strings.TrimSpace(e.LogLevel))
	e.EmbeddingModel = strings.TrimSpace(e.EmbeddingModel)
	return e
}

// normalizeDBURL maps driver-flavoured schemes onto the ones the database
// package understands.
func normalizeDBURL(u string) string {
	for _, prefix := range []string{"postgresql+asyncpg://", "postgresql://"} {
		if strings.HasPrefix(u, prefix) {
			return "postgres://" + strings.TrimPrefix(u, prefix)
		}
	}
	if strings.HasPrefix(u, "sqlite+aiosqlite:///") {
		return "sqlite:///" + strings.TrimPrefix(u, "sqlite+aiosqlite:///")
	}
	return u
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	if e.Host != "" {
		cfg = applyOption(cfg, WithHost(e.Host))
	}
	if e.Port != 0 {
		cfg = applyOption(cfg, WithPort(e.Port))
	}
	if e.DataDir != "" {
		cfg = applyOption(cfg, WithDataDir(e.DataDir))
	}
	if e.ModelDir != "" {
		cfg = applyOption(cfg, WithModelDir(e.ModelDir))
	}
	if e.DBURL != "" {
		cfg = applyOption(cfg, WithDBURL(e.DBURL))
	}
	cfg = applyOption(cfg, WithStoriesTable(e.StoriesTable))
	if e.LogLevel != "" {
		cfg = applyOption(cfg, WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		cfg = applyOption(cfg, WithLogFormat(parseLogFormat(e.LogFormat)))
	}
	if e.EmbeddingModel != "" {
		cfg = applyOption(cfg, WithEmbeddingModel(e.EmbeddingModel))
	}
	cfg = applyOption(cfg, WithEmbeddingDimension(e.EmbeddingDimension))

	if e.EmbeddingEndpoint.IsConfigured() {
		cfg = applyOption(cfg, WithEmbeddingEndpoint(e.EmbeddingEndpoint.ToEndpoint()))
	}

	cfg = applyOption(cfg, WithQdrant(e.Qdrant.ToQdrantConfig()))
	cfg = applyOption(cfg, WithPeriodicSyncConfig(e.PeriodicSync.ToPeriodicSyncConfig()))

	if e.APIKeys != "" {
		cfg = applyOption(cfg, WithAPIKeys(ParseList(e.APIKeys)))
	}
	if e.CORSOrigins != "" {
		cfg = applyOption(cfg, WithCORSOrigins(ParseList(e.CORSOrigins)))
	}

	cfg = applyOption(cfg, WithSearchLimit(e.SearchLimit))
	cfg = applyOption(cfg, WithSyncLimit(e.SyncLimit))

	return cfg
}

func applyOption(cfg AppConfig, opt AppConfigOption) AppConfig {
	opt(&cfg)
	return cfg
}

// IsConfigured returns true if the endpoint has a model configured.
func (e EndpointEnv) IsConfigured() bool {
	return e.Model != ""
}

// ToEndpoint converts EndpointEnv to Endpoint.
func (e EndpointEnv) ToEndpoint() Endpoint {
	opts := []EndpointOption{
		WithModel(e.Model),
		WithTimeout(seconds(e.Timeout)),
		WithMaxRetries(e.MaxRetries),
		WithInitialDelay(seconds(e.InitialDelay)),
		WithBackoffFactor(e.BackoffFactor),
	}
	if e.BaseURL != "" {
		opts = append(opts, WithBaseURL(e.BaseURL))
	}
	if e.APIKey != "" {
		opts = append(opts, WithAPIKey(e.APIKey))
	}
	return NewEndpointWithOptions(opts...)
}

// ToQdrantConfig converts QdrantEnv to QdrantConfig.
func (q QdrantEnv) ToQdrantConfig() QdrantConfig {
	cfg := NewQdrantConfig().WithTimeout(seconds(q.Timeout))
	if q.URL != "" {
		cfg = cfg.WithURL(q.URL)
	}
	if q.APIKey != "" {
		cfg = cfg.WithAPIKey(q.APIKey)
	}
	return cfg
}

// ToPeriodicSyncConfig converts PeriodicSyncEnv to PeriodicSyncConfig.
func (p PeriodicSyncEnv) ToPeriodicSyncConfig() PeriodicSyncConfig {
	return NewPeriodicSyncConfig().
		WithEnabled(p.Enabled).
		WithIntervalSeconds(p.IntervalSeconds)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}
