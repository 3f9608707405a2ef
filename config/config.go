package config

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/lendkraft/bfsi-assistant/models"
)

// Config represents the complete application configuration. It is loaded once
// at process start and treated as read-only afterwards; no component mutates
// it at runtime.
type Config struct {
	Server        ServerConfig
	Pipeline      PipelineConfig
	Corpus        CorpusConfig
	Providers     ProvidersConfig
	AuditDatabase *DatabaseConfig // Optional: nil disables the audit trail.
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// PipelineConfig holds the routing core's thresholds and safety settings.
// Passed by value into every service constructor.
type PipelineConfig struct {
	// SimilarityThreshold gates Tier 1: a dataset match at or above this
	// cosine score is returned directly.
	SimilarityThreshold float64

	// RelevanceThreshold gates Tier 2: retrieval below it skips the
	// grounded generation step entirely.
	RelevanceThreshold float64

	// DomainFloorThreshold is the low similarity floor used by the
	// guardrail's out-of-domain check. Distinct from SimilarityThreshold.
	DomainFloorThreshold float64

	// FallbackConfidence is the fixed confidence assigned to ungrounded
	// Tier 3 generations.
	FallbackConfidence float64

	// MaxResponseLength caps the finalized response text, in bytes.
	MaxResponseLength int

	// MinQueryLength rejects degenerate queries before any embedding work.
	MinQueryLength int

	// UnsafeKeywords are matched case-insensitively as substrings. Kept
	// sorted so the first reported match is deterministic.
	UnsafeKeywords []string

	// AllowedCategories restricts which corpus categories participate in
	// matching. Empty means all.
	AllowedCategories []models.QueryCategory
}

// CorpusConfig holds locations of the startup corpus inputs.
type CorpusConfig struct {
	DatasetPath   string
	KnowledgePath string
}

// ProvidersConfig holds the external collaborator endpoints.
type ProvidersConfig struct {
	Embedder  EmbedderConfig
	Generator GeneratorConfig
}

// EmbedderConfig configures the embedding collaborator.
type EmbedderConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// GeneratorConfig configures the generative collaborator.
type GeneratorConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	MaxTokens   int
	Temperature float64
}

// DatabaseConfig holds PostgreSQL configuration for the audit trail.
type DatabaseConfig struct {
	ConnectionString string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// ObservabilityConfig holds logging and metrics configuration.
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string // json or console
	MetricsEnabled bool
}

// defaultUnsafeKeywords is the baseline deny list; UNSAFE_KEYWORDS extends it.
var defaultUnsafeKeywords = []string{
	"bomb", "bypass security", "counterfeit", "exploit", "fraud",
	"hack", "launder", "malware", "phishing", "steal",
}

// New creates a Config by loading environment variables. A .env file is
// honored when present so local runs match deployed behavior.
func New() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Pipeline: PipelineConfig{
			SimilarityThreshold:  getEnvAsFloat("SIMILARITY_THRESHOLD", 0.75),
			RelevanceThreshold:   getEnvAsFloat("RELEVANCE_THRESHOLD", 0.6),
			DomainFloorThreshold: getEnvAsFloat("DOMAIN_FLOOR_THRESHOLD", 0.30),
			FallbackConfidence:   getEnvAsFloat("FALLBACK_CONFIDENCE", 0.72),
			MaxResponseLength:    getEnvAsInt("MAX_RESPONSE_LENGTH", 500),
			MinQueryLength:       getEnvAsInt("MIN_QUERY_LENGTH", 3),
			UnsafeKeywords:       loadUnsafeKeywords(),
			AllowedCategories:    loadAllowedCategories(),
		},
		Corpus: CorpusConfig{
			DatasetPath:   getEnv("DATASET_PATH", "data/bfsi_dataset.json"),
			KnowledgePath: getEnv("KNOWLEDGE_PATH", "data/bfsi_knowledge.json"),
		},
		Providers: ProvidersConfig{
			Embedder: EmbedderConfig{
				BaseURL:    getEnv("EMBEDDER_BASE_URL", ""),
				APIKey:     getEnv("EMBEDDER_API_KEY", ""),
				Model:      getEnv("EMBEDDER_MODEL", "all-minilm-l6-v2"),
				Timeout:    getEnvAsDuration("EMBEDDER_TIMEOUT", 10*time.Second),
				MaxRetries: getEnvAsInt("EMBEDDER_MAX_RETRIES", 2),
			},
			Generator: GeneratorConfig{
				BaseURL:     getEnv("GENERATOR_BASE_URL", ""),
				APIKey:      getEnv("GENERATOR_API_KEY", ""),
				Model:       getEnv("GENERATOR_MODEL", "tinyllama-1.1b-chat"),
				Timeout:     getEnvAsDuration("GENERATOR_TIMEOUT", 30*time.Second),
				MaxRetries:  getEnvAsInt("GENERATOR_MAX_RETRIES", 1),
				MaxTokens:   getEnvAsInt("GENERATOR_MAX_TOKENS", 256),
				Temperature: getEnvAsFloat("GENERATOR_TEMPERATURE", 0.3),
			},
		},
		AuditDatabase: loadAuditDatabaseConfig(),
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration can serve queries. Misconfiguration
// here is fatal at startup; nothing downstream re-validates.
func (c *Config) Validate() error {
	p := c.Pipeline
	if p.SimilarityThreshold < 0 || p.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold must be in [0,1], got %v", p.SimilarityThreshold)
	}
	if p.RelevanceThreshold < 0 || p.RelevanceThreshold > 1 {
		return fmt.Errorf("relevance threshold must be in [0,1], got %v", p.RelevanceThreshold)
	}
	if p.DomainFloorThreshold >= p.SimilarityThreshold {
		return fmt.Errorf("domain floor threshold (%v) must be below similarity threshold (%v)",
			p.DomainFloorThreshold, p.SimilarityThreshold)
	}
	if p.FallbackConfidence < 0 || p.FallbackConfidence > 1 {
		return fmt.Errorf("fallback confidence must be in [0,1], got %v", p.FallbackConfidence)
	}
	if p.FallbackConfidence >= p.RelevanceThreshold+0.2 {
		// Tier 3 must stay below what a grounded Tier 2 answer can claim.
		return fmt.Errorf("fallback confidence (%v) too high relative to relevance threshold (%v)",
			p.FallbackConfidence, p.RelevanceThreshold)
	}
	if p.MaxResponseLength <= 0 {
		return fmt.Errorf("max response length must be positive, got %d", p.MaxResponseLength)
	}
	if c.Corpus.DatasetPath == "" {
		return fmt.Errorf("dataset path is required")
	}
	if c.Corpus.KnowledgePath == "" {
		return fmt.Errorf("knowledge path is required")
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}
	if c.AuditDatabase != nil && c.AuditDatabase.ConnectionString == "" {
		return fmt.Errorf("audit database connection string is required when audit is enabled")
	}
	return nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// Address returns the HTTP server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogString returns a safe connection description for logging (no password).
func (c *DatabaseConfig) LogString() string {
	u, err := url.Parse(c.ConnectionString)
	if err != nil {
		return "host=<from AUDIT_DATABASE_URL>"
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("host=%s port=%s database=%s", u.Hostname(), port, strings.TrimPrefix(u.Path, "/"))
}

// loadUnsafeKeywords merges the built-in deny list with UNSAFE_KEYWORDS
// (comma-separated). The result is lexicographically sorted so substring
// checks report the same matched term on every platform.
func loadUnsafeKeywords() []string {
	seen := make(map[string]bool, len(defaultUnsafeKeywords))
	keywords := make([]string, 0, len(defaultUnsafeKeywords))
	for _, kw := range defaultUnsafeKeywords {
		seen[kw] = true
		keywords = append(keywords, kw)
	}
	for _, kw := range strings.Split(os.Getenv("UNSAFE_KEYWORDS"), ",") {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && !seen[kw] {
			seen[kw] = true
			keywords = append(keywords, kw)
		}
	}
	sort.Strings(keywords)
	return keywords
}

// loadAllowedCategories reads ALLOWED_CATEGORIES (comma-separated) and falls
// back to every supported category.
func loadAllowedCategories() []models.QueryCategory {
	raw := os.Getenv("ALLOWED_CATEGORIES")
	if raw == "" {
		return models.AllCategories()
	}
	var cats []models.QueryCategory
	for _, c := range strings.Split(raw, ",") {
		c = strings.TrimSpace(c)
		if c != "" {
			cats = append(cats, models.QueryCategory(c))
		}
	}
	return cats
}

// loadAuditDatabaseConfig loads audit DB config from AUDIT_DATABASE_URL.
// Returns nil when not set (audit trail disabled).
func loadAuditDatabaseConfig() *DatabaseConfig {
	dbURL := getEnv("AUDIT_DATABASE_URL", "")
	if dbURL == "" {
		return nil
	}
	return &DatabaseConfig{
		ConnectionString: dbURL,
		MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
