// Package engine runs the document validation pipeline: extraction, the
// dedup gate, oracle extraction with retrieved context, normalization and
// persistence.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"time"

	"docrecon/constants"
	"docrecon/internal/common"
	"docrecon/internal/dedup"
	"docrecon/internal/entity"
	"docrecon/internal/extract"
	"docrecon/internal/normalize"
	"docrecon/internal/oracle"
	"docrecon/internal/repository"
	"docrecon/internal/simindex"
)

// Config tunes the pipeline's dedup and retrieval behavior.
type Config struct {
	DedupMaxDistance float32 // near-duplicate threshold, lower distance = closer
	ContextK         int     // retrieved examples passed to the oracle
}

// Engine wires one extractor, one oracle and one store with a similarity
// index per document class. Stateless between calls except through the store.
type Engine struct {
	cfg       Config
	extractor *extract.Service
	oracle    oracle.StructuredExtractor
	store     *repository.Store
	indexes   map[constants.DocumentClass]simindex.Index
	gates     map[constants.DocumentClass]*dedup.Gate
	logger    *slog.Logger
}

// classHashStore narrows the repository to one class's hash lookup for the
// dedup gate.
type classHashStore struct {
	store *repository.Store
	class constants.DocumentClass
}

func (c classHashStore) HasHash(ctx context.Context, hashHex string) (bool, error) {
	return c.store.HasHash(ctx, c.class, hashHex)
}

func New(cfg Config, extractor *extract.Service, orc oracle.StructuredExtractor,
	store *repository.Store, invoiceIndex, poIndex simindex.Index, logger *slog.Logger) *Engine {
	if cfg.DedupMaxDistance <= 0 {
		cfg.DedupMaxDistance = 0.2
	}
	if cfg.ContextK <= 0 {
		cfg.ContextK = 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:       cfg,
		extractor: extractor,
		oracle:    orc,
		store:     store,
		indexes: map[constants.DocumentClass]simindex.Index{
			constants.Invoice:       invoiceIndex,
			constants.PurchaseOrder: poIndex,
		},
		gates: map[constants.DocumentClass]*dedup.Gate{
			constants.Invoice:       dedup.NewGate(invoiceIndex, cfg.DedupMaxDistance, logger),
			constants.PurchaseOrder: dedup.NewGate(poIndex, cfg.DedupMaxDistance, logger),
		},
		logger: logger,
	}
}

// ValidateFile reads a file from disk and validates it as the given class.
func (e *Engine) ValidateFile(ctx context.Context, path string, class constants.DocumentClass) (*entity.StructuredRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.NewAppError("READ_ERROR", "read document file", err)
	}
	return e.Validate(ctx, data, extract.FormatForPath(path), class)
}

// Validate runs the full pipeline on raw file content. Failures after format
// dispatch are folded into the returned record as anomalies rather than
// escaping; only an unsupported format or an unknown class errors outright.
func (e *Engine) Validate(ctx context.Context, content []byte, declaredFormat string, class constants.DocumentClass) (*entity.StructuredRecord, error) {
	start := time.Now()
	if !class.Valid() {
		return nil, common.NewAppError("INVALID_CLASS", "unknown document class", common.ErrInvalidInput)
	}
	if constants.MapExtToFormat(declaredFormat) == "" {
		return nil, common.NewAppError("UNSUPPORTED_FORMAT", "unsupported file format: "+declaredFormat, common.ErrUnsupportedFormat)
	}

	gate := e.gates[class]
	hashStore := classHashStore{store: e.store, class: class}

	// hash-only pass first; the near-duplicate signal needs extracted text
	sig, err := gate.Check(ctx, hashStore, content, "")
	if err != nil {
		return nil, common.NewAppError("STORE_ERROR", "hash lookup", err)
	}
	hash, exact := sig.Hash, sig.Exact
	e.logger.Info("engine.validate.start", "class", string(class),
		"format", declaredFormat, "bytes", len(content), "hash", hash)

	text, extractErr := e.extractor.ExtractBytes(ctx, content, declaredFormat)
	if extractErr != nil || extract.IsErrorText(text) {
		// unreadable file: stop before the oracle, report what we know
		rec := normalize.Normalize(class, nil, entity.ExtractionVerdict{
			ValidFormat:   false,
			MissingFields: []string{},
			Anomalies:     []string{"document could not be read: " + text},
		})
		rec.IsCorrupted = true
		rec.IsDuplicate = exact
		if extractErr != nil && errors.Is(extractErr, common.ErrUnsupportedFormat) {
			return rec, extractErr
		}
		e.logger.Warn("engine.validate.corrupted", "class", string(class), "hash", hash)
		return rec, nil
	}

	if !constants.MatchesKeywords(class, text) {
		rec := normalize.Normalize(class, nil, entity.ExtractionVerdict{
			ValidFormat:   false,
			MissingFields: []string{},
			Anomalies:     []string{"Document not recognized as " + classNoun(class)},
		})
		rec.IsDuplicate = exact
		e.logger.Info("engine.validate.keyword_miss", "class", string(class), "hash", hash)
		return rec, nil
	}

	index := e.indexes[class]
	var anomalies []string
	duplicate := exact
	if !duplicate {
		sig, err = gate.Check(ctx, hashStore, content, text)
		if err != nil {
			return nil, common.NewAppError("STORE_ERROR", "hash lookup", err)
		}
		duplicate = sig.Exact || sig.Near
		anomalies = append(anomalies, sig.Anomalies...)
	}

	var examples []string
	if index != nil {
		examples, err = index.Search(ctx, text, e.cfg.ContextK)
		if err != nil {
			e.logger.Warn("engine.context.retrieval_failed", "error", err)
			examples = nil
		}
	}

	resp, raw, err := e.oracle.Extract(ctx, oracle.Request{
		Class:        class,
		DocumentText: text,
		Examples:     examples,
	})
	if err != nil {
		// oracle failure is an anomaly, never a crash past the boundary
		rec := normalize.Normalize(class, nil, entity.ExtractionVerdict{
			ValidFormat:   false,
			MissingFields: []string{},
			Anomalies:     append(anomalies, "extraction oracle failed: "+err.Error()),
		})
		rec.IsDuplicate = duplicate
		e.logger.Error("engine.oracle.failed", "error", err, "raw_bytes", len(raw))
		return rec, nil
	}

	verdict := resp.Verdict
	verdict.Anomalies = append(verdict.Anomalies, anomalies...)
	rec := normalize.Normalize(class, resp.Fields, verdict)
	rec.IsDuplicate = duplicate

	if rec.Verdict.ValidFormat {
		e.indexValidated(ctx, index, class, text, rec)
		if !duplicate {
			if _, skipped, err := e.store.Insert(ctx, rec, hash); err != nil {
				e.logger.Error("engine.store.insert_failed", "error", err)
				rec.Verdict.Anomalies = append(rec.Verdict.Anomalies, "persistence failed: "+err.Error())
			} else if skipped {
				rec.IsDuplicate = true
			}
		}
	}

	e.logger.Info("engine.validate.done",
		"class", string(class),
		"valid_format", rec.Verdict.ValidFormat,
		"duplicate", rec.IsDuplicate,
		"anomalies", len(rec.Verdict.Anomalies),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, nil
}

// indexValidated stores the raw text plus extracted fields as future
// retrieval context. Index failures are logged, not surfaced.
func (e *Engine) indexValidated(ctx context.Context, index simindex.Index, class constants.DocumentClass, text string, rec *entity.StructuredRecord) {
	if index == nil {
		return
	}
	fieldsJSON, err := json.MarshalIndent(rec.Fields(), "", "  ")
	if err != nil {
		return
	}
	chunk := oracle.ContextChunk(class, text, string(fieldsJSON))
	if err := index.AddTexts(ctx, []string{chunk}); err != nil {
		e.logger.Warn("engine.index.add_failed", "error", err)
		return
	}
	if err := index.Persist(ctx); err != nil {
		e.logger.Warn("engine.index.persist_failed", "error", err)
	}
}

func classNoun(class constants.DocumentClass) string {
	if class == constants.PurchaseOrder {
		return "purchase order"
	}
	return "invoice"
}
