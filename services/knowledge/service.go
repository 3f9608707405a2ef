// Package knowledge implements the Tier 2 input: nearest-neighbor retrieval
// over the knowledge document corpus and assembly of the grounded prompt.
package knowledge

import (
	"go.uber.org/zap"

	"github.com/lendkraft/bfsi-assistant/internal/similarity"
	"github.com/lendkraft/bfsi-assistant/models"
	"github.com/lendkraft/bfsi-assistant/services/providers"
)

// RetrievalResult is the outcome of a top-1 document lookup.
type RetrievalResult struct {
	// Document is the best candidate, nil when the corpus is empty.
	Document *models.KnowledgeDocument

	// Relevance is the cosine similarity of the best candidate, 0.0 when
	// the corpus is empty.
	Relevance float64
}

// Stats summarizes the loaded knowledge corpus.
type Stats struct {
	TotalDocuments   int            `json:"total_documents"`
	Categories       map[string]int `json:"categories"`
	AvgContentLength float64        `json:"avg_content_length"`
}

// Service performs exact cosine-similarity retrieval over knowledge
// documents. Stateless apart from its logger; safe for concurrent use.
type Service struct {
	logger *zap.Logger
}

// NewService creates a knowledge retrieval service.
func NewService(logger *zap.Logger) *Service {
	return &Service{logger: logger}
}

// Retrieve returns the most relevant document for the query embedding,
// applying the same top-1/epsilon tie-break policy as the dataset matcher.
func (s *Service) Retrieve(docs []models.KnowledgeDocument, queryEmbedding []float64) RetrievalResult {
	best := RetrievalResult{Document: nil, Relevance: 0.0}
	if len(docs) == 0 {
		return best
	}

	for i := range docs {
		relevance := similarity.Cosine(queryEmbedding, docs[i].Embedding)
		if best.Document == nil || relevance > best.Relevance+similarity.Epsilon {
			best = RetrievalResult{Document: &docs[i], Relevance: relevance}
		}
	}

	s.logger.Debug("knowledge retrieval computed",
		zap.Int("corpus_size", len(docs)),
		zap.String("best_doc", best.Document.ID),
		zap.Float64("relevance", best.Relevance))

	return best
}

// SearchByCategory returns all documents in the given category, in corpus
// order.
func (s *Service) SearchByCategory(docs []models.KnowledgeDocument, category models.QueryCategory) []models.KnowledgeDocument {
	var out []models.KnowledgeDocument
	for i := range docs {
		if docs[i].Category == category {
			out = append(out, docs[i])
		}
	}
	return out
}

// BuildPrompt assembles the grounded generation prompt. The user query and
// the retrieved content travel in separate prompt fields so the generator
// adapter can fence them apart.
func (s *Service) BuildPrompt(query string, doc *models.KnowledgeDocument) providers.Prompt {
	p := providers.Prompt{Query: query}
	if doc != nil {
		p.RetrievedContext = doc.Content
		p.SourceTitle = doc.Title
	}
	return p
}

// CorpusStats summarizes the document corpus for the info endpoint.
func (s *Service) CorpusStats(docs []models.KnowledgeDocument) Stats {
	stats := Stats{
		TotalDocuments: len(docs),
		Categories:     make(map[string]int),
	}
	if len(docs) == 0 {
		return stats
	}

	var contentLen int
	for i := range docs {
		stats.Categories[string(docs[i].Category)]++
		contentLen += len(docs[i].Content)
	}
	stats.AvgContentLength = float64(contentLen) / float64(len(docs))
	return stats
}
