package memory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Service combines the store with the external embedding provider and
// enforces the ordering discipline between them: the store lock is never
// held while an embedding call is in flight, and a memory row always
// exists before its embedding is fetched, so a cancelled fetch leaves a
// valid row without an embedding.
type Service struct {
	store    *Store
	provider EmbeddingProvider
	logger   zerolog.Logger
}

// ServiceConfig holds service configuration. Provider may be nil, in
// which case search degrades to keyword-only and no embeddings are stored.
type ServiceConfig struct {
	Store    *Store
	Provider EmbeddingProvider
	Logger   zerolog.Logger
}

// NewService creates a memory service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	return &Service{
		store:    cfg.Store,
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}, nil
}

// Store exposes the underlying store for direct CRUD access.
func (svc *Service) Store() *Store {
	return svc.store
}

// Close closes the underlying store.
func (svc *Service) Close() error {
	return svc.store.Close()
}

// CreateMemory persists a memory and, when requested and a provider is
// configured, attaches an embedding. The row is created first and the
// embedding fetched second; an embedding failure is logged and the
// memory is returned without one.
func (svc *Service) CreateMemory(ctx context.Context, input CreateMemoryInput, generateEmbedding bool) (*Memory, error) {
	mem, err := svc.store.Create(input)
	if err != nil {
		return nil, err
	}

	if !generateEmbedding || svc.provider == nil {
		return mem, nil
	}

	emb, err := svc.provider.Embed(ctx, mem.Content)
	if err != nil {
		svc.logger.Warn().Err(err).Str("memoryId", mem.ID).Msg("Embedding unavailable, storing memory without one")
		return mem, nil
	}

	if err := svc.store.StoreEmbedding(mem.ID, emb.Vector, emb.Model); err != nil {
		svc.logger.Warn().Err(err).Str("memoryId", mem.ID).Msg("Failed to store embedding")
		return mem, nil
	}

	return svc.store.Get(mem.ID)
}

// Search runs hybrid retrieval for a query. The query embedding is
// fetched best-effort: provider failure degrades the call to keyword
// search instead of failing it. The returned search type is "semantic"
// when semantic results were served, "keyword" otherwise, so the caller
// can tell a degraded search from an empty one.
func (svc *Service) Search(ctx context.Context, query string, limit int, threshold float64, useEmbedding bool) ([]MemoryWithScore, string, error) {
	var queryVec []float32
	if useEmbedding && svc.provider != nil {
		emb, err := svc.provider.Embed(ctx, query)
		if err != nil {
			svc.logger.Warn().Err(err).Msg("Query embedding unavailable, degrading to keyword search")
		} else {
			queryVec = emb.Vector
		}
	}

	results, err := svc.store.SearchHybrid(query, queryVec, limit, threshold)
	if err != nil {
		return nil, "", err
	}

	searchType := MatchKeyword
	if len(results) > 0 && results[0].MatchType == MatchSemantic {
		searchType = MatchSemantic
	}
	return results, searchType, nil
}

// Relevant retrieves the memories most relevant to a context string
// using the workspace's configured threshold, and records an access on
// each returned memory since they are about to be injected.
func (svc *Service) Relevant(ctx context.Context, contextText string, limit int) ([]MemoryWithScore, error) {
	settings, err := svc.store.GetSettings()
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = settings.ContextInjectionCount
	}

	results, _, err := svc.Search(ctx, contextText, limit, settings.SimilarityThreshold, true)
	if err != nil {
		return nil, err
	}

	for _, r := range results {
		if err := svc.store.IncrementAccess(r.Memory.ID); err != nil {
			svc.logger.Warn().Err(err).Str("memoryId", r.Memory.ID).Msg("Failed to record memory access")
		}
	}

	return results, nil
}
