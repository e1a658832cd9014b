package memory

import (
	"fmt"
	"sort"
)

// SearchKeyword ranks memories against an FTS5 MATCH query using bm25.
// bm25 reports lower-is-better, so the score is negated to keep the
// higher-is-better convention shared with semantic search. The query
// syntax is whatever FTS5 accepts; a malformed query surfaces as an
// error from the MATCH, not a panic.
func (s *Store) SearchKeyword(query string, limit int) ([]MemoryWithScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.Query(
		`SELECT m.id, m.workspace_id, m.content, m.summary, m.type, m.source_conversation_id,
			m.source_message_ids, m.embedding_model, m.tags, m.importance, m.access_count,
			m.last_accessed_at, m.created_at, m.updated_at, m.expires_at, m.is_pinned, m.metadata,
			bm25(memories_fts) AS score
		FROM memories_fts
		JOIN memories m ON memories_fts.rowid = m.rowid
		WHERE memories_fts MATCH ? AND m.workspace_id = ?
		ORDER BY bm25(memories_fts)
		LIMIT ?`,
		query, s.workspaceID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to run keyword search: %w", err)
	}
	defer rows.Close()

	results := []MemoryWithScore{}
	for rows.Next() {
		var score float64
		mem, err := scanMemory(rows, &score)
		if err != nil {
			return nil, fmt.Errorf("failed to scan keyword result: %w", err)
		}
		results = append(results, MemoryWithScore{
			Memory: *mem,
			// bm25 scores are negative, lower is better
			Score:     -score,
			MatchType: MatchKeyword,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to run keyword search: %w", err)
	}

	return results, nil
}

// SearchSemantic scans every memory in this workspace that has a stored
// embedding, scores it by cosine similarity against the query vector,
// and returns those at or above threshold, best first. Ties are broken
// by importance descending, then created_at descending, so equal-score
// results come back in a stable order. The scan is O(n*d); no index
// structure is maintained.
func (s *Store) SearchSemantic(queryVec []float32, limit int, threshold float64) ([]MemoryWithScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.Query(
		"SELECT "+memoryColumns+", embedding FROM memories WHERE workspace_id = ? AND embedding IS NOT NULL",
		s.workspaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to run semantic search: %w", err)
	}
	defer rows.Close()

	results := []MemoryWithScore{}
	for rows.Next() {
		var blob []byte
		mem, err := scanMemory(rows, &blob)
		if err != nil {
			return nil, fmt.Errorf("failed to scan semantic result: %w", err)
		}

		score := CosineSimilarity(queryVec, decodeVector(blob))
		if score < threshold {
			continue
		}

		results = append(results, MemoryWithScore{
			Memory:    *mem,
			Score:     score,
			MatchType: MatchSemantic,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to run semantic search: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Memory.Importance != results[j].Memory.Importance {
			return results[i].Memory.Importance > results[j].Memory.Importance
		}
		return results[i].Memory.CreatedAt > results[j].Memory.CreatedAt
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// SearchHybrid prefers semantic search and falls back to keyword search.
// When a query embedding is supplied and semantic search returns at
// least one result, that result is returned verbatim; otherwise the
// same query text is retried lexically. The fallback is a second
// independent search, never a merge of the two.
func (s *Store) SearchHybrid(query string, queryVec []float32, limit int, threshold float64) ([]MemoryWithScore, error) {
	if len(queryVec) > 0 {
		semantic, err := s.SearchSemantic(queryVec, limit, threshold)
		if err != nil {
			return nil, err
		}
		if len(semantic) > 0 {
			return semantic, nil
		}
	}

	return s.SearchKeyword(query, limit)
}
