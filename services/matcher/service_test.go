package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lendkraft/bfsi-assistant/models"
)

func sample(instruction string, embedding ...float64) models.CuratedSample {
	return models.CuratedSample{
		Instruction: instruction,
		Response:    "response for " + instruction,
		Category:    models.CategoryEMIDetails,
		Embedding:   embedding,
	}
}

func TestMatchEmptyCorpus(t *testing.T) {
	svc := NewService(zap.NewNop())

	got := svc.Match(nil, []float64{1, 0})
	assert.Nil(t, got.Sample)
	assert.Equal(t, -1, got.Index)
	assert.Equal(t, 0.0, got.Score)
}

func TestMatchPicksHighestScore(t *testing.T) {
	svc := NewService(zap.NewNop())
	samples := []models.CuratedSample{
		sample("orthogonal", 0, 1),
		sample("aligned", 1, 0),
		sample("diagonal", 1, 1),
	}

	got := svc.Match(samples, []float64{1, 0})
	require.NotNil(t, got.Sample)
	assert.Equal(t, "aligned", got.Sample.Instruction)
	assert.Equal(t, 1, got.Index)
	assert.InDelta(t, 1.0, got.Score, 1e-9)
}

func TestMatchTieBreaksByFirstSeen(t *testing.T) {
	svc := NewService(zap.NewNop())
	// Both candidates score exactly 1.0 against the query; first wins.
	samples := []models.CuratedSample{
		sample("first twin", 2, 0),
		sample("second twin", 3, 0),
	}

	got := svc.Match(samples, []float64{1, 0})
	require.NotNil(t, got.Sample)
	assert.Equal(t, "first twin", got.Sample.Instruction)
	assert.Equal(t, 0, got.Index)
}

func TestMatchIsDeterministic(t *testing.T) {
	svc := NewService(zap.NewNop())
	samples := []models.CuratedSample{
		sample("a", 0.3, 0.7, 0.1),
		sample("b", 0.5, 0.5, 0.2),
		sample("c", 0.1, 0.9, 0.4),
	}
	query := []float64{0.4, 0.6, 0.3}

	first := svc.Match(samples, query)
	for i := 0; i < 50; i++ {
		again := svc.Match(samples, query)
		assert.Equal(t, first.Index, again.Index)
		assert.Equal(t, first.Score, again.Score)
	}
}

func TestTopKOrderingAndBounds(t *testing.T) {
	svc := NewService(zap.NewNop())
	samples := []models.CuratedSample{
		sample("low", 0, 1),
		sample("high", 1, 0),
		sample("mid", 1, 1),
	}

	got := svc.TopK(samples, []float64{1, 0}, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "high", got[0].Sample.Instruction)
	assert.Equal(t, "mid", got[1].Sample.Instruction)

	// k larger than the corpus returns everything.
	all := svc.TopK(samples, []float64{1, 0}, 10)
	assert.Len(t, all, 3)

	assert.Nil(t, svc.TopK(nil, []float64{1, 0}, 3))
	assert.Nil(t, svc.TopK(samples, []float64{1, 0}, 0))
}

func TestStats(t *testing.T) {
	svc := NewService(zap.NewNop())
	samples := []models.CuratedSample{
		{Instruction: "ab", Response: "abcd", Category: models.CategoryPayments, Embedding: []float64{1, 2, 3}},
		{Instruction: "abcd", Response: "abcdef", Category: models.CategoryPayments, Embedding: []float64{1, 2, 3}},
		{Instruction: "ab", Response: "ab", Category: models.CategoryInterestRates, Embedding: []float64{1, 2, 3}},
	}

	stats := svc.Stats(samples)
	assert.Equal(t, 3, stats.TotalSamples)
	assert.Equal(t, 2, stats.Categories["payments"])
	assert.Equal(t, 1, stats.Categories["interest_rates"])
	assert.InDelta(t, 8.0/3.0, stats.AvgInstructionLength, 1e-9)
	assert.InDelta(t, 4.0, stats.AvgResponseLength, 1e-9)
	assert.Equal(t, 3, stats.EmbeddingDimensions)
}

func TestStatsEmpty(t *testing.T) {
	svc := NewService(zap.NewNop())
	stats := svc.Stats(nil)
	assert.Equal(t, 0, stats.TotalSamples)
	assert.Empty(t, stats.Categories)
}
