package providers

import (
	"context"
	"time"
)

// Embedder maps text to a fixed-length vector. Implementations must be
// deterministic for a given model version and safe for concurrent use.
type Embedder interface {
	// Name returns the provider name (e.g., "openai-compat", "stub")
	Name() string

	// Embed returns the embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch returns one vector per input text, in input order. Used
	// by the corpus loader at startup.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	// Dimension returns the embedding dimension for the configured model.
	Dimension() int
}

// Prompt is the input to a Generator call. Query and RetrievedContext are
// kept separate so the model never conflates user text with grounding text.
type Prompt struct {
	// System frames the assistant's role and constraints.
	System string

	// Query is the raw user question.
	Query string

	// RetrievedContext is grounding material from the knowledge corpus.
	// Empty for ungrounded Tier 3 generation.
	RetrievedContext string

	// SourceTitle names the document RetrievedContext came from.
	SourceTitle string
}

// Generator maps a prompt to free text. May be nondeterministic.
type Generator interface {
	// Name returns the provider name
	Name() string

	// Generate produces a completion for the prompt. Implementations must
	// respect ctx cancellation; callers bound every invocation with a
	// timeout.
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// GeneratorConfig holds common configuration for generator adapters.
type GeneratorConfig struct {
	// APIKey for authentication
	APIKey string

	// BaseURL for the API
	BaseURL string

	// Model identifier sent with each request
	Model string

	// Timeout for requests
	Timeout time.Duration

	// MaxRetries for failed requests
	MaxRetries int

	// RetryDelay between retries
	RetryDelay time.Duration

	// MaxTokens limits the completion length
	MaxTokens int

	// Temperature controls randomness
	Temperature float64
}

// EmbedderConfig holds common configuration for embedder adapters.
type EmbedderConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultGeneratorConfig returns a sensible default configuration.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Timeout:     30 * time.Second,
		MaxRetries:  1,
		RetryDelay:  time.Second,
		MaxTokens:   256,
		Temperature: 0.3,
	}
}

// DefaultEmbedderConfig returns a sensible default configuration.
func DefaultEmbedderConfig() EmbedderConfig {
	return EmbedderConfig{
		Timeout:    10 * time.Second,
		MaxRetries: 2,
		RetryDelay: 500 * time.Millisecond,
	}
}
