// Package corpus loads the curated sample and knowledge document corpora at
// startup, precomputes their embeddings, and exposes them through an
// atomically swappable handle so readers never observe a half-updated corpus.
package corpus

import (
	"sync/atomic"

	"github.com/lendkraft/bfsi-assistant/models"
)

// Corpus is an immutable snapshot of both corpora with embeddings populated.
// Sample order is preserved from the input file; the matcher's tie-break
// depends on first-seen index.
type Corpus struct {
	Samples   []models.CuratedSample
	Documents []models.KnowledgeDocument

	// EmbeddingDim is the dimension of the precomputed vectors.
	EmbeddingDim int
}

// Store hands out the current corpus snapshot. Swap replaces the whole
// snapshot in one pointer write; in-flight queries keep the snapshot they
// started with.
type Store struct {
	current atomic.Pointer[Corpus]
}

// NewStore creates a store seeded with the given snapshot.
func NewStore(c *Corpus) *Store {
	s := &Store{}
	s.current.Store(c)
	return s
}

// Snapshot returns the current corpus. Never nil after NewStore.
func (s *Store) Snapshot() *Corpus {
	return s.current.Load()
}

// Swap atomically replaces the corpus, e.g. after a hot reload.
func (s *Store) Swap(c *Corpus) {
	s.current.Store(c)
}
