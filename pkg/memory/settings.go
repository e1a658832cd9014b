package memory

import (
	"database/sql"
	"fmt"
)

// GetSettings returns this workspace's settings row. The row is created
// with defaults when the store is opened, so it always exists.
func (s *Store) GetSettings() (*MemorySettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getSettings()
}

func (s *Store) getSettings() (*MemorySettings, error) {
	var (
		settings        MemorySettings
		autoExtract     int
		extractionModel sql.NullString
	)

	err := s.db.QueryRow(
		`SELECT workspace_id, auto_extract_enabled, extraction_model, embedding_model,
			max_memories, context_injection_count, similarity_threshold, created_at, updated_at
		FROM memory_settings WHERE workspace_id = ?`,
		s.workspaceID,
	).Scan(
		&settings.WorkspaceID, &autoExtract, &extractionModel,
		&settings.EmbeddingModel, &settings.MaxMemories,
		&settings.ContextInjectionCount, &settings.SimilarityThreshold,
		&settings.CreatedAt, &settings.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	settings.AutoExtractEnabled = autoExtract != 0
	settings.ExtractionModel = nullableString(extractionModel)
	return &settings, nil
}

// UpdateSettings applies a partial update; unspecified fields retain
// their prior values.
func (s *Store) UpdateSettings(input UpdateSettingsInput) (*MemorySettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.getSettings()
	if err != nil {
		return nil, err
	}

	autoExtract := current.AutoExtractEnabled
	if input.AutoExtractEnabled != nil {
		autoExtract = *input.AutoExtractEnabled
	}
	extractionModel := current.ExtractionModel
	if input.ExtractionModel != nil {
		extractionModel = input.ExtractionModel
	}
	embeddingModel := current.EmbeddingModel
	if input.EmbeddingModel != nil {
		embeddingModel = *input.EmbeddingModel
	}
	maxMemories := current.MaxMemories
	if input.MaxMemories != nil {
		maxMemories = *input.MaxMemories
	}
	injectionCount := current.ContextInjectionCount
	if input.ContextInjectionCount != nil {
		injectionCount = *input.ContextInjectionCount
	}
	threshold := current.SimilarityThreshold
	if input.SimilarityThreshold != nil {
		threshold = *input.SimilarityThreshold
	}

	extractFlag := 0
	if autoExtract {
		extractFlag = 1
	}

	_, err = s.db.Exec(
		`UPDATE memory_settings SET
			auto_extract_enabled = ?, extraction_model = ?, embedding_model = ?,
			max_memories = ?, context_injection_count = ?, similarity_threshold = ?,
			updated_at = ?
		WHERE workspace_id = ?`,
		extractFlag, extractionModel, embeddingModel, maxMemories,
		injectionCount, threshold, nowTimestamp(), s.workspaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}

	return s.getSettings()
}

// GetStats computes aggregate counts over this workspace's memories.
// Computed fresh on every call; nothing is cached.
func (s *Store) GetStats() (*MemoryStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats MemoryStats
	err := s.db.QueryRow(
		`SELECT
			COUNT(*),
			COUNT(CASE WHEN type = 'auto' THEN 1 END),
			COUNT(CASE WHEN type = 'user' THEN 1 END),
			COUNT(CASE WHEN type = 'conversation' THEN 1 END),
			COUNT(CASE WHEN is_pinned = 1 THEN 1 END),
			COUNT(embedding),
			COALESCE(AVG(importance), 0)
		FROM memories WHERE workspace_id = ?`,
		s.workspaceID,
	).Scan(
		&stats.TotalCount, &stats.AutoCount, &stats.UserCount,
		&stats.ConversationCount, &stats.PinnedCount,
		&stats.WithEmbeddings, &stats.AvgImportance,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	return &stats, nil
}
