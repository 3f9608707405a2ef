// Package matcher implements Tier 1: nearest-neighbor lookup of a query
// embedding against the curated sample corpus.
package matcher

import (
	"sort"

	"go.uber.org/zap"

	"github.com/lendkraft/bfsi-assistant/internal/similarity"
	"github.com/lendkraft/bfsi-assistant/models"
)

// MatchResult is the outcome of a top-1 lookup.
type MatchResult struct {
	// Sample is the best candidate, nil when the corpus is empty.
	Sample *models.CuratedSample

	// Index is the sample's first-seen position in the corpus, -1 when
	// Sample is nil.
	Index int

	// Score is the cosine similarity of the best candidate, 0.0 when the
	// corpus is empty.
	Score float64
}

// ScoredSample pairs a sample with its similarity score, for top-k listings.
type ScoredSample struct {
	Sample models.CuratedSample
	Index  int
	Score  float64
}

// DatasetStats summarizes the loaded sample corpus.
type DatasetStats struct {
	TotalSamples         int            `json:"total_samples"`
	Categories           map[string]int `json:"categories"`
	AvgInstructionLength float64        `json:"avg_instruction_length"`
	AvgResponseLength    float64        `json:"avg_response_length"`
	EmbeddingDimensions  int            `json:"embedding_dimensions"`
}

// Service performs exact cosine-similarity search over curated samples.
// It is stateless apart from its logger: every method is a pure function of
// its arguments and safe for concurrent use.
type Service struct {
	logger *zap.Logger
}

// NewService creates a matcher service.
func NewService(logger *zap.Logger) *Service {
	return &Service{logger: logger}
}

// Match returns the best-scoring sample for the query embedding.
//
// The scan is linear in corpus size: at the curated-corpus scale an index
// structure buys nothing, and exact search keeps the contract simple. When
// two candidates score within similarity.Epsilon of each other the one seen
// first in corpus order wins, so results are reproducible across runs.
func (s *Service) Match(samples []models.CuratedSample, queryEmbedding []float64) MatchResult {
	best := MatchResult{Sample: nil, Index: -1, Score: 0.0}
	if len(samples) == 0 {
		return best
	}

	for i := range samples {
		score := similarity.Cosine(queryEmbedding, samples[i].Embedding)
		if best.Sample == nil || score > best.Score+similarity.Epsilon {
			best = MatchResult{Sample: &samples[i], Index: i, Score: score}
		}
	}

	s.logger.Debug("dataset match computed",
		zap.Int("corpus_size", len(samples)),
		zap.Int("best_index", best.Index),
		zap.Float64("best_score", best.Score))

	return best
}

// TopK returns the k best-scoring samples in descending score order. Ties
// preserve corpus order. Used by the explain surface, not the routing path.
func (s *Service) TopK(samples []models.CuratedSample, queryEmbedding []float64, k int) []ScoredSample {
	if len(samples) == 0 || k <= 0 {
		return nil
	}

	scored := make([]ScoredSample, len(samples))
	for i := range samples {
		scored[i] = ScoredSample{
			Sample: samples[i],
			Index:  i,
			Score:  similarity.Cosine(queryEmbedding, samples[i].Embedding),
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score+similarity.Epsilon
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}

// Stats summarizes the sample corpus for the info endpoint.
func (s *Service) Stats(samples []models.CuratedSample) DatasetStats {
	stats := DatasetStats{
		TotalSamples: len(samples),
		Categories:   make(map[string]int),
	}
	if len(samples) == 0 {
		return stats
	}

	var instrLen, respLen int
	for i := range samples {
		stats.Categories[string(samples[i].Category)]++
		instrLen += len(samples[i].Instruction)
		respLen += len(samples[i].Response)
	}
	stats.AvgInstructionLength = float64(instrLen) / float64(len(samples))
	stats.AvgResponseLength = float64(respLen) / float64(len(samples))
	stats.EmbeddingDimensions = len(samples[0].Embedding)
	return stats
}
