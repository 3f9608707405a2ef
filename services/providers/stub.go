package providers

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"time"
)

// StubEmbedder is a deterministic, in-process Embedder used in development
// mode and in tests. It hashes lowercase word tokens into a fixed-size
// bag-of-words vector, so texts sharing vocabulary score high cosine
// similarity and identical texts score 1.0.
type StubEmbedder struct {
	// Dim is the vector dimension. Zero means 64.
	Dim int

	// Err, when set, is returned from every call. Used to exercise
	// collaborator-failure paths.
	Err error
}

// Name returns the provider name.
func (e *StubEmbedder) Name() string { return "stub" }

// Dimension returns the embedding dimension.
func (e *StubEmbedder) Dimension() int {
	if e.Dim <= 0 {
		return 64
	}
	return e.Dim
}

// Embed returns a normalized bag-of-words vector for text.
func (e *StubEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if e.Err != nil {
		return nil, e.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dim := e.Dimension()
	vec := make([]float64, dim)
	for _, tok := range tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[int(h.Sum32())%dim]++
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

// EmbedBatch embeds each text in order.
func (e *StubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for _, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
}

// StubGenerator is a canned Generator for development mode and tests.
type StubGenerator struct {
	// Response overrides the default templated output.
	Response string

	// Err, when set, is returned from every call.
	Err error

	// Delay simulates provider latency before responding, to exercise
	// timeout handling.
	Delay time.Duration

	// Calls counts invocations. Not safe for concurrent use; tests only.
	Calls int
}

// Name returns the provider name.
func (g *StubGenerator) Name() string { return "stub" }

// Generate returns the canned response, echoing whether grounding context
// was supplied so routing tests can assert on prompt assembly.
func (g *StubGenerator) Generate(ctx context.Context, prompt Prompt) (string, error) {
	g.Calls++
	if g.Delay > 0 {
		select {
		case <-time.After(g.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if g.Err != nil {
		return "", g.Err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if g.Response != "" {
		return g.Response, nil
	}
	if prompt.RetrievedContext != "" {
		return fmt.Sprintf("Based on %q: %s", prompt.SourceTitle, prompt.RetrievedContext), nil
	}
	return fmt.Sprintf("General guidance on %q. For decisions specific to your profile, please consult a loan specialist.", prompt.Query), nil
}
