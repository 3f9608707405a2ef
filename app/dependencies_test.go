package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lendkraft/bfsi-assistant/config"
	"github.com/lendkraft/bfsi-assistant/models"
)

func devConfig() *config.Config {
	return &config.Config{
		Environment: "development",
		Pipeline: config.PipelineConfig{
			SimilarityThreshold:  0.75,
			RelevanceThreshold:   0.6,
			DomainFloorThreshold: 0.30,
			FallbackConfidence:   0.72,
			MaxResponseLength:    500,
			MinQueryLength:       3,
			UnsafeKeywords:       []string{"fraud", "hack"},
			AllowedCategories:    models.AllCategories(),
		},
		Corpus: config.CorpusConfig{
			DatasetPath:   "../corpus/testdata/bfsi_dataset.json",
			KnowledgePath: "../corpus/testdata/bfsi_knowledge.json",
		},
		Observability: config.ObservabilityConfig{
			LogLevel:       "info",
			LogFormat:      "console",
			MetricsEnabled: true,
		},
	}
}

func TestNewDependenciesDevelopmentMode(t *testing.T) {
	deps, err := NewDependencies(context.Background(), devConfig(), zap.NewNop())
	require.NoError(t, err)
	defer deps.Close(context.Background())

	assert.NotNil(t, deps.Embedder)
	assert.NotNil(t, deps.Generator)
	assert.NotNil(t, deps.Assistant)
	assert.NotNil(t, deps.Limiter)
	assert.NotNil(t, deps.Metrics)
	assert.Nil(t, deps.DB, "audit trail should be disabled without AUDIT_DATABASE_URL")
	assert.Nil(t, deps.Audit)

	snap := deps.Store.Snapshot()
	assert.NotEmpty(t, snap.Samples)
	assert.NotEmpty(t, snap.Documents)
}

func TestNewDependenciesProcessesQuery(t *testing.T) {
	deps, err := NewDependencies(context.Background(), devConfig(), zap.NewNop())
	require.NoError(t, err)
	defer deps.Close(context.Background())

	result := deps.Assistant.ProcessQuery(context.Background(), "How is EMI calculated for my loan?", false)
	assert.NotEmpty(t, result.Response)
	assert.NotEmpty(t, result.Tier)
}

func TestNewDependenciesMissingCorpus(t *testing.T) {
	cfg := devConfig()
	cfg.Corpus.DatasetPath = "does-not-exist.json"

	_, err := NewDependencies(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestNewDependenciesMetricsDisabled(t *testing.T) {
	cfg := devConfig()
	cfg.Observability.MetricsEnabled = false

	deps, err := NewDependencies(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer deps.Close(context.Background())

	assert.Nil(t, deps.Registry)
	assert.Nil(t, deps.Metrics)
}
