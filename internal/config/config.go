// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (DATABASE_URL, CAMPUSBOT_* overrides)
//  2. Config file (campusbot.yaml in the working directory or ~/.campusbot/)
//  3. Default values (sensible defaults for quick start)
//
// Main configuration categories:
//   - AI: generation model, temperature, max tokens, embedder model
//   - Storage: PostgreSQL + pgvector connection (see storage.go)
//   - Retrieval: top-K, leadership re-ranking keywords
//   - Ingestion: sitemap URL, crawler politeness settings
//   - Server: base port, port scan range, port discovery file
//
// GEMINI_API_KEY is read directly by Genkit, not via Viper; its presence
// is checked at command startup.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mitscampus/campusbot/internal/rag"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidModelName indicates the model name is empty.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidTopK indicates the retrieval top-K is out of range.
	ErrInvalidTopK = errors.New("invalid top k")

	// ErrInvalidPort indicates the server port configuration is invalid.
	ErrInvalidPort = errors.New("invalid port configuration")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrNoRerankKeywords indicates the re-ranking keyword set is empty.
	ErrNoRerankKeywords = errors.New("empty rerank keyword set")
)

const (
	// DefaultModelName is the Gemini model used for answer generation.
	DefaultModelName = "gemini-2.0-flash"

	// DefaultEmbedderModel is the Gemini embedder. text-embedding-004
	// outputs 768 dimensions; the chunks table schema matches.
	DefaultEmbedderModel = "text-embedding-004"

	// DefaultSitemapURL is the campus site post sitemap ingested by
	// `campusbot ingest --sitemap` when no URL is given.
	DefaultSitemapURL = "https://mgmits.ac.in/post-sitemap2.xml"
)

// CrawlerConfig holds politeness settings for the ingestion crawler.
type CrawlerConfig struct {
	Parallelism int `mapstructure:"parallelism" json:"parallelism"`
	DelayMs     int `mapstructure:"delay_ms" json:"delay_ms"`
	TimeoutMs   int `mapstructure:"timeout_ms" json:"timeout_ms"`
}

// RateLimitConfig holds per-IP request limiting for the chat endpoint.
// RPS is the token refill rate; Burst is the bucket size. RPS of zero
// disables limiting. TrustProxy enables X-Real-IP / X-Forwarded-For
// when the server sits behind a reverse proxy.
type RateLimitConfig struct {
	RPS        float64 `mapstructure:"rps" json:"rps"`
	Burst      int     `mapstructure:"burst" json:"burst"`
	TrustProxy bool    `mapstructure:"trust_proxy" json:"trust_proxy"`
}

// RerankConfig holds the leadership re-ranker trigger terms and the
// query boost appended when a question matches one of them.
type RerankConfig struct {
	Keywords   []string `mapstructure:"keywords" json:"keywords"`
	BoostTerms string   `mapstructure:"boost_terms" json:"boost_terms"`
}

// Config stores application configuration.
type Config struct {
	// AI configuration
	ModelName     string  `mapstructure:"model_name" json:"model_name"`
	EmbedderModel string  `mapstructure:"embedder_model" json:"embedder_model"`
	Temperature   float32 `mapstructure:"temperature" json:"temperature"`
	MaxTokens     int     `mapstructure:"max_tokens" json:"max_tokens"`

	// Retrieval configuration
	TopK   int          `mapstructure:"top_k" json:"top_k"`
	Rerank RerankConfig `mapstructure:"rerank" json:"rerank"`

	// Server configuration
	Host         string          `mapstructure:"host" json:"host"`
	BasePort     int             `mapstructure:"base_port" json:"base_port"`
	MaxPortTries int             `mapstructure:"max_port_tries" json:"max_port_tries"`
	PortFile     string          `mapstructure:"port_file" json:"port_file"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit" json:"rate_limit"`

	// Ingestion configuration
	SitemapURL string        `mapstructure:"sitemap_url" json:"sitemap_url"`
	ChunkSize  int           `mapstructure:"chunk_size" json:"chunk_size"`
	Overlap    int           `mapstructure:"overlap" json:"overlap"`
	Crawler    CrawlerConfig `mapstructure:"crawler" json:"crawler"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"-"`
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".campusbot")

	viper.SetConfigName("campusbot")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath(configDir)

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is not an error, defaults apply.
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{".", configDir},
			"config_name", "campusbot.yaml")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL has the highest priority for PostgreSQL settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// AI defaults
	viper.SetDefault("model_name", DefaultModelName)
	viper.SetDefault("embedder_model", DefaultEmbedderModel)
	viper.SetDefault("temperature", 0.7)
	viper.SetDefault("max_tokens", 2048)

	// Retrieval defaults
	viper.SetDefault("top_k", 5)
	viper.SetDefault("rerank.keywords", rag.DefaultKeywords)
	viper.SetDefault("rerank.boost_terms", rag.DefaultBoostTerms)

	// Server defaults
	viper.SetDefault("host", "127.0.0.1")
	viper.SetDefault("base_port", 5000)
	viper.SetDefault("max_port_tries", 10)
	viper.SetDefault("port_file", "active-port.json")
	viper.SetDefault("rate_limit.rps", 5.0)
	viper.SetDefault("rate_limit.burst", 10)
	viper.SetDefault("rate_limit.trust_proxy", false)

	// Ingestion defaults
	viper.SetDefault("sitemap_url", DefaultSitemapURL)
	viper.SetDefault("chunk_size", 1000)
	viper.SetDefault("overlap", 200)
	viper.SetDefault("crawler.parallelism", 2)
	viper.SetDefault("crawler.delay_ms", 1000)
	viper.SetDefault("crawler.timeout_ms", 30000)

	// PostgreSQL defaults (matching docker-compose.yml)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "campusbot")
	viper.SetDefault("postgres_password", "campusbot_dev_password")
	viper.SetDefault("postgres_db_name", "campusbot")
	viper.SetDefault("postgres_ssl_mode", "disable")
}

// bindEnvVariables binds environment variable overrides explicitly.
// GEMINI_API_KEY is intentionally absent: Genkit reads it directly.
func bindEnvVariables() {
	// Hardcoded keys cannot fail to bind; a failure here is a bug.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("model_name", "CAMPUSBOT_MODEL_NAME")
	mustBind("embedder_model", "CAMPUSBOT_EMBEDDER_MODEL")
	mustBind("top_k", "CAMPUSBOT_TOP_K")
	mustBind("host", "CAMPUSBOT_HOST")
	mustBind("base_port", "CAMPUSBOT_BASE_PORT")
	mustBind("max_port_tries", "CAMPUSBOT_MAX_PORT_TRIES")
	mustBind("port_file", "CAMPUSBOT_PORT_FILE")
	mustBind("sitemap_url", "CAMPUSBOT_SITEMAP_URL")
}
