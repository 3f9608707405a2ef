package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/lendkraft/bfsi-assistant/config"
	"github.com/lendkraft/bfsi-assistant/models"
	"github.com/lendkraft/bfsi-assistant/services/providers"
)

var (
	// ErrEmptyCorpus is returned when a corpus file parses but contains no
	// usable records after category filtering.
	ErrEmptyCorpus = errors.New("corpus contains no records")
)

// Loader reads corpus files and embeds their records.
type Loader struct {
	embedder providers.Embedder
	logger   *zap.Logger
}

// NewLoader creates a corpus loader.
func NewLoader(embedder providers.Embedder, logger *zap.Logger) *Loader {
	return &Loader{embedder: embedder, logger: logger}
}

// Load reads both corpora, filters to allowed categories, and precomputes
// embeddings. A loading failure here is fatal for the process: the pipeline
// must not serve queries against a partial corpus.
func (l *Loader) Load(ctx context.Context, cfg config.CorpusConfig, allowed []models.QueryCategory) (*Corpus, error) {
	samples, err := l.loadSamples(ctx, cfg.DatasetPath, allowed)
	if err != nil {
		return nil, fmt.Errorf("loading dataset corpus: %w", err)
	}

	docs, err := l.loadDocuments(ctx, cfg.KnowledgePath, allowed)
	if err != nil {
		return nil, fmt.Errorf("loading knowledge corpus: %w", err)
	}

	dim := 0
	if len(samples) > 0 {
		dim = len(samples[0].Embedding)
	} else if len(docs) > 0 {
		dim = len(docs[0].Embedding)
	}

	l.logger.Info("corpus loaded",
		zap.Int("samples", len(samples)),
		zap.Int("documents", len(docs)),
		zap.Int("embedding_dim", dim))

	return &Corpus{Samples: samples, Documents: docs, EmbeddingDim: dim}, nil
}

func (l *Loader) loadSamples(ctx context.Context, path string, allowed []models.QueryCategory) ([]models.CuratedSample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var raw []models.CuratedSample
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	allowedSet := categorySet(allowed)
	samples := make([]models.CuratedSample, 0, len(raw))
	for i, s := range raw {
		if s.Instruction == "" || s.Response == "" {
			l.logger.Warn("skipping sample with missing fields", zap.Int("index", i))
			continue
		}
		if len(allowedSet) > 0 && !allowedSet[s.Category] {
			continue
		}
		samples = append(samples, s)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyCorpus, path)
	}

	texts := make([]string, len(samples))
	for i := range samples {
		texts[i] = samples[i].Instruction
	}
	vecs, err := l.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding %d samples: %w", len(samples), err)
	}
	for i := range samples {
		samples[i].Embedding = vecs[i]
	}
	return samples, nil
}

func (l *Loader) loadDocuments(ctx context.Context, path string, allowed []models.QueryCategory) ([]models.KnowledgeDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var raw []models.KnowledgeDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	allowedSet := categorySet(allowed)
	seen := make(map[string]bool, len(raw))
	docs := make([]models.KnowledgeDocument, 0, len(raw))
	for i, d := range raw {
		if d.ID == "" || d.Content == "" {
			l.logger.Warn("skipping document with missing fields", zap.Int("index", i))
			continue
		}
		if seen[d.ID] {
			return nil, fmt.Errorf("duplicate document id %q in %s", d.ID, path)
		}
		seen[d.ID] = true
		if len(allowedSet) > 0 && !allowedSet[d.Category] {
			continue
		}
		docs = append(docs, d)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyCorpus, path)
	}

	texts := make([]string, len(docs))
	for i := range docs {
		texts[i] = docs[i].EmbeddingText()
	}
	vecs, err := l.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding %d documents: %w", len(docs), err)
	}
	for i := range docs {
		docs[i].Embedding = vecs[i]
	}
	return docs, nil
}

func categorySet(allowed []models.QueryCategory) map[models.QueryCategory]bool {
	set := make(map[models.QueryCategory]bool, len(allowed))
	for _, c := range allowed {
		set[c] = true
	}
	return set
}
