// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost                  = "0.0.0.0"
	DefaultPort                  = 8000
	DefaultLogLevel              = "INFO"
	DefaultEmbeddingModel        = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultEmbeddingDimension    = 384
	DefaultQdrantURL             = "http://localhost:6333"
	DefaultQdrantTimeout         = 30 * time.Second
	DefaultStoriesTable          = "stories"
	DefaultSearchLimit           = 10
	DefaultSyncLimit             = 1000
	DefaultPeriodicSyncInterval  = 3600.0 // seconds
	DefaultEndpointTimeout       = 60 * time.Second
	DefaultEndpointMaxRetries    = 5
	DefaultEndpointInitialDelay  = 2 * time.Second
	DefaultEndpointBackoffFactor = 2.0
	DefaultCORSOrigins           = "http://localhost:3000,http://localhost:3001"
)

// Fixed vector store settings. These are not configurable.
const (
	CollectionName = "palm_island_stories"
	Distance       = "Cosine"
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// Endpoint configures a remote OpenAI-compatible embedding service.
type Endpoint struct {
	baseURL       string
	model         string
	apiKey        string
	timeout       time.Duration
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

// NewEndpoint creates a new Endpoint with defaults.
func NewEndpoint() Endpoint {
	return Endpoint{
		timeout:       DefaultEndpointTimeout,
		maxRetries:    DefaultEndpointMaxRetries,
		initialDelay:  DefaultEndpointInitialDelay,
		backoffFactor: DefaultEndpointBackoffFactor,
	}
}

// BaseURL returns the base URL for the endpoint.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// Timeout returns the request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the maximum retry count.
func (e Endpoint) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the initial retry delay.
func (e Endpoint) InitialDelay() time.Duration { return e.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (e Endpoint) BackoffFactor() float64 { return e.backoffFactor }

// IsConfigured returns true if the endpoint has a model.
func (e Endpoint) IsConfigured() bool {
	return e.model != ""
}

// EndpointOption is a functional option for Endpoint.
type EndpointOption func(*Endpoint)

// WithBaseURL sets the base URL.
func WithBaseURL(url string) EndpointOption {
	return func(e *Endpoint) { e.baseURL = url }
}

// WithModel sets the model.
func WithModel(model string) EndpointOption {
	return func(e *Endpoint) { e.model = model }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) EndpointOption {
	return func(e *Endpoint) { e.apiKey = key }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.timeout = d }
}

// WithMaxRetries sets the maximum retry count.
func WithMaxRetries(n int) EndpointOption {
	return func(e *Endpoint) { e.maxRetries = n }
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.initialDelay = d }
}

// WithBackoffFactor sets the retry backoff multiplier.
func WithBackoffFactor(f float64) EndpointOption {
	return func(e *Endpoint) { e.backoffFactor = f }
}

// NewEndpointWithOptions creates an Endpoint with functional options.
func NewEndpointWithOptions(opts ...EndpointOption) Endpoint {
	e := NewEndpoint()
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// QdrantConfig configures the vector store connection.
type QdrantConfig struct {
	url     string
	apiKey  string
	timeout time.Duration
}

// NewQdrantConfig creates a QdrantConfig with defaults.
func NewQdrantConfig() QdrantConfig {
	return QdrantConfig{
		url:     DefaultQdrantURL,
		timeout: DefaultQdrantTimeout,
	}
}

// URL returns the Qdrant REST base URL.
func (q QdrantConfig) URL() string { return q.url }

// APIKey returns the optional Qdrant API key.
func (q QdrantConfig) APIKey() string { return q.apiKey }

// Timeout returns the per-request timeout.
func (q QdrantConfig) Timeout() time.Duration { return q.timeout }

// WithURL returns a new config with the specified URL.
func (q QdrantConfig) WithURL(u string) QdrantConfig {
	q.url = strings.TrimRight(u, "/")
	return q
}

// WithAPIKey returns a new config with the specified API key.
func (q QdrantConfig) WithAPIKey(key string) QdrantConfig {
	q.apiKey = key
	return q
}

// WithTimeout returns a new config with the specified timeout.
func (q QdrantConfig) WithTimeout(d time.Duration) QdrantConfig {
	if d > 0 {
		q.timeout = d
	}
	return q
}

// PeriodicSyncConfig configures the background story sync.
type PeriodicSyncConfig struct {
	enabled         bool
	intervalSeconds float64
}

// NewPeriodicSyncConfig creates a new PeriodicSyncConfig with defaults.
func NewPeriodicSyncConfig() PeriodicSyncConfig {
	return PeriodicSyncConfig{
		intervalSeconds: DefaultPeriodicSyncInterval,
	}
}

// Enabled returns whether periodic sync is enabled.
func (p PeriodicSyncConfig) Enabled() bool { return p.enabled }

// Interval returns the sync interval as a duration.
func (p PeriodicSyncConfig) Interval() time.Duration {
	return time.Duration(p.intervalSeconds * float64(time.Second))
}

// WithEnabled returns a new config with the specified enabled state.
func (p PeriodicSyncConfig) WithEnabled(enabled bool) PeriodicSyncConfig {
	p.enabled = enabled
	return p
}

// WithIntervalSeconds returns a new config with the specified interval.
func (p PeriodicSyncConfig) WithIntervalSeconds(seconds float64) PeriodicSyncConfig {
	if seconds > 0 {
		p.intervalSeconds = seconds
	}
	return p
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	host               string
	port               int
	dataDir            string
	modelDir           string
	dbURL              string
	storiesTable       string
	logLevel           string
	logFormat          LogFormat
	embeddingModel     string
	embeddingDimension int
	embeddingEndpoint  *Endpoint
	qdrant             QdrantConfig
	periodicSync       PeriodicSyncConfig
	apiKeys            []string
	corsOrigins        []string
	searchLimit        int
	syncLimit          int
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".palmisland"
	}
	return filepath.Join(home, ".palmisland")
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	dataDir := DefaultDataDir()
	return AppConfig{
		host:               DefaultHost,
		port:               DefaultPort,
		dataDir:            dataDir,
		modelDir:           filepath.Join(dataDir, "models"),
		dbURL:              "sqlite:///" + filepath.Join(dataDir, "stories.db"),
		storiesTable:       DefaultStoriesTable,
		logLevel:           DefaultLogLevel,
		logFormat:          LogFormatPretty,
		embeddingModel:     DefaultEmbeddingModel,
		embeddingDimension: DefaultEmbeddingDimension,
		qdrant:             NewQdrantConfig(),
		periodicSync:       NewPeriodicSyncConfig(),
		apiKeys:            []string{},
		corsOrigins:        ParseList(DefaultCORSOrigins),
		searchLimit:        DefaultSearchLimit,
		syncLimit:          DefaultSyncLimit,
	}
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// DataDir returns the data directory path.
func (c AppConfig) DataDir() string { return c.dataDir }

// ModelDir returns the directory holding local embedding models.
func (c AppConfig) ModelDir() string { return c.modelDir }

// DBURL returns the relational store connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// StoriesTable returns the table the stories are read from.
func (c AppConfig) StoriesTable() string { return c.storiesTable }

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// EmbeddingModel returns the local embedding model identifier.
func (c AppConfig) EmbeddingModel() string { return c.embeddingModel }

// EmbeddingDimension returns the expected vector length.
func (c AppConfig) EmbeddingDimension() int { return c.embeddingDimension }

// EmbeddingEndpoint returns the remote embedding endpoint, or nil.
func (c AppConfig) EmbeddingEndpoint() *Endpoint { return c.embeddingEndpoint }

// Qdrant returns the vector store config.
func (c AppConfig) Qdrant() QdrantConfig { return c.qdrant }

// PeriodicSync returns the periodic sync config.
func (c AppConfig) PeriodicSync() PeriodicSyncConfig { return c.periodicSync }

// APIKeys returns the configured API keys.
func (c AppConfig) APIKeys() []string {
	keys := make([]string, len(c.apiKeys))
	copy(keys, c.apiKeys)
	return keys
}

// CORSOrigins returns the allowed browser origins.
func (c AppConfig) CORSOrigins() []string {
	origins := make([]string, len(c.corsOrigins))
	copy(origins, c.corsOrigins)
	return origins
}

// SearchLimit returns the default search result limit.
func (c AppConfig) SearchLimit() int { return c.searchLimit }

// SyncLimit returns the default number of stories fetched per sync.
func (c AppConfig) SyncLimit() int { return c.syncLimit }

// EnsureDataDir creates the data directory if it doesn't exist.
func (c AppConfig) EnsureDataDir() error {
	return os.MkdirAll(c.dataDir, 0o755)
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithDataDir sets the data directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		c.dataDir = dir
		if c.dbURL == "" || strings.HasSuffix(c.dbURL, "stories.db") {
			c.dbURL = "sqlite:///" + filepath.Join(dir, "stories.db")
		}
		if c.modelDir == "" || strings.HasSuffix(c.modelDir, "models") {
			c.modelDir = filepath.Join(dir, "models")
		}
	}
}

// WithModelDir sets the local model directory.
func WithModelDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.modelDir = dir }
}

// WithDBURL sets the relational store URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithStoriesTable sets the stories table name.
func WithStoriesTable(table string) AppConfigOption {
	return func(c *AppConfig) {
		if table != "" {
			c.storiesTable = table
		}
	}
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithEmbeddingModel sets the local embedding model identifier.
func WithEmbeddingModel(model string) AppConfigOption {
	return func(c *AppConfig) { c.embeddingModel = model }
}

// WithEmbeddingDimension sets the expected vector length.
func WithEmbeddingDimension(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.embeddingDimension = n
		}
	}
}

// WithEmbeddingEndpoint sets the remote embedding endpoint.
func WithEmbeddingEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.embeddingEndpoint = &e }
}

// WithQdrant sets the vector store config.
func WithQdrant(q QdrantConfig) AppConfigOption {
	return func(c *AppConfig) { c.qdrant = q }
}

// WithPeriodicSyncConfig sets the periodic sync config.
func WithPeriodicSyncConfig(p PeriodicSyncConfig) AppConfigOption {
	return func(c *AppConfig) { c.periodicSync = p }
}

// WithAPIKeys sets the API keys.
func WithAPIKeys(keys []string) AppConfigOption {
	return func(c *AppConfig) {
		c.apiKeys = make([]string, len(keys))
		copy(c.apiKeys, keys)
	}
}

// WithCORSOrigins sets the allowed browser origins.
func WithCORSOrigins(origins []string) AppConfigOption {
	return func(c *AppConfig) {
		c.corsOrigins = make([]string, len(origins))
		copy(c.corsOrigins, origins)
	}
}

// WithSearchLimit sets the default search result limit.
func WithSearchLimit(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.searchLimit = n
		}
	}
}

// WithSyncLimit sets the default sync batch size.
func WithSyncLimit(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.syncLimit = n
		}
	}
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
// Credentials are masked.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("addr", c.Addr()),
		slog.String("log_level", c.logLevel),
		slog.String("db_url", MaskURL(c.dbURL)),
		slog.String("stories_table", c.storiesTable),
		slog.String("qdrant_url", MaskURL(c.qdrant.URL())),
		slog.Bool("qdrant_api_key_set", c.qdrant.APIKey() != ""),
		slog.String("collection", CollectionName),
		slog.String("embedding_model", c.embeddingModelName()),
		slog.Int("embedding_dimension", c.embeddingDimension),
		slog.Int("api_keys_count", len(c.apiKeys)),
		slog.Bool("periodic_sync_enabled", c.periodicSync.Enabled()),
		slog.Duration("periodic_sync_interval", c.periodicSync.Interval()),
	}
}

func (c AppConfig) embeddingModelName() string {
	if c.embeddingEndpoint != nil && c.embeddingEndpoint.IsConfigured() {
		return c.embeddingEndpoint.Model() + " (remote)"
	}
	return c.embeddingModel
}

// MaskURL hides the password in a connection URL.
func MaskURL(raw string) string {
	if raw == "" {
		return "(default)"
	}
	if strings.HasPrefix(raw, "sqlite:") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "(unparseable)"
	}
	return u.Redacted()
}

// ParseList parses a comma-separated string into trimmed, non-empty values.
func ParseList(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
