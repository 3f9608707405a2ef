package models

// KnowledgeDocument is a structured reference text used to ground Tier 2
// generation. Documents share the CuratedSample lifecycle: loaded once at
// startup, embedded once, immutable thereafter.
type KnowledgeDocument struct {
	ID       string        `json:"id"`
	Category QueryCategory `json:"category"`
	Title    string        `json:"title"`
	Content  string        `json:"content"`

	// Embedding of title and content combined. Populated by the corpus
	// loader.
	Embedding []float64 `json:"-"`
}

// EmbeddingText returns the text the document is embedded under. Title is
// included so short titled policies still rank for title-only queries.
func (d *KnowledgeDocument) EmbeddingText() string {
	if d.Title == "" {
		return d.Content
	}
	return d.Title + "\n" + d.Content
}
