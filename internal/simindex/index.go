package simindex

import "context"

// Match is one nearest-neighbor hit. Distance is a closeness score where
// lower means more similar.
type Match struct {
	Content  string
	Distance float32
}

// Index is the nearest-neighbor text search boundary, used both for
// retrieval context and near-duplicate detection. Calls are synchronous and
// may have material latency; the engine treats failures as non-fatal.
type Index interface {
	// Search returns up to k nearest stored texts.
	Search(ctx context.Context, text string, k int) ([]string, error)
	// SearchWithScore returns up to k nearest stored texts with distances.
	SearchWithScore(ctx context.Context, text string, k int) ([]Match, error)
	// AddTexts appends new reference material.
	AddTexts(ctx context.Context, texts []string) error
	// Persist flushes durable state.
	Persist(ctx context.Context) error
}
