package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"docrecon/internal/common"
	"docrecon/internal/simindex"
)

// HashBytes returns the lowercase hex SHA-256 of raw file content. Identical
// bytes always hash identically; this is the exact-duplicate key.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashStore answers whether a content hash is already persisted.
type HashStore interface {
	HasHash(ctx context.Context, hashHex string) (bool, error)
}

// Result of one dedup gate pass.
type Result struct {
	Hash      string
	Exact     bool    // content hash already stored
	Near      bool    // similarity index found a close-enough neighbor
	Distance  float32 // top-hit distance when Near was evaluated
	Anomalies []string
}

// Gate decides whether incoming content is a duplicate before any oracle call.
// Exact dup via content hash; near dup via nearest-neighbor distance below
// MaxDistance. An unreachable index degrades to hash-only with an anomaly.
type Gate struct {
	index       simindex.Index
	maxDistance float32
	logger      *slog.Logger
}

func NewGate(index simindex.Index, maxDistance float32, logger *slog.Logger) *Gate {
	if maxDistance <= 0 {
		maxDistance = 0.2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{index: index, maxDistance: maxDistance, logger: logger}
}

// Check runs the two duplicate signals in order of cost: hash lookup first,
// then a single nearest-neighbor query on the extracted text.
func (g *Gate) Check(ctx context.Context, store HashStore, content []byte, extractedText string) (Result, error) {
	res := Result{Hash: HashBytes(content)}

	exact, err := store.HasHash(ctx, res.Hash)
	if err != nil {
		return res, err
	}
	if exact {
		res.Exact = true
		g.logger.Info("dedup.exact_hit", "hash", res.Hash)
		return res, nil
	}

	if g.index == nil || extractedText == "" {
		return res, nil
	}
	matches, err := g.index.SearchWithScore(ctx, extractedText, 1)
	if err != nil {
		g.logger.Warn("dedup.index_unavailable", "error", err)
		res.Anomalies = append(res.Anomalies, common.ErrIndexUnavailable.Error()+", near-duplicate check skipped")
		return res, nil
	}
	if len(matches) == 0 {
		return res, nil
	}
	res.Distance = matches[0].Distance
	if res.Distance < g.maxDistance {
		res.Near = true
		g.logger.Info("dedup.near_hit", "distance", res.Distance, "threshold", g.maxDistance)
	}
	return res, nil
}
