package memory

import "encoding/json"

// MemoryType classifies how a memory entered the store.
type MemoryType string

const (
	TypeAuto         MemoryType = "auto"
	TypeUser         MemoryType = "user"
	TypeConversation MemoryType = "conversation"
)

// Valid reports whether the type is one of the enumerated values.
func (t MemoryType) Valid() bool {
	switch t {
	case TypeAuto, TypeUser, TypeConversation:
		return true
	}
	return false
}

// Match types reported on search results.
const (
	MatchSemantic = "semantic"
	MatchKeyword  = "keyword"
)

// FilterPinned is the pseudo-type accepted by ListFilters.MemoryType,
// meaning "is_pinned = true regardless of type".
const FilterPinned = "pinned"

// Memory is one remembered fact or summary.
type Memory struct {
	ID                   string          `json:"id"`
	WorkspaceID          string          `json:"workspaceId"`
	Content              string          `json:"content"`
	Summary              *string         `json:"summary,omitempty"`
	Type                 MemoryType      `json:"type"`
	SourceConversationID *string         `json:"sourceConversationId,omitempty"`
	SourceMessageIDs     []string        `json:"sourceMessageIds,omitempty"`
	EmbeddingModel       *string         `json:"embeddingModel,omitempty"`
	Tags                 []string        `json:"tags,omitempty"`
	Importance           int             `json:"importance"`
	AccessCount          int             `json:"accessCount"`
	LastAccessedAt       *string         `json:"lastAccessedAt,omitempty"`
	CreatedAt            string          `json:"createdAt"`
	UpdatedAt            string          `json:"updatedAt"`
	ExpiresAt            *string         `json:"expiresAt,omitempty"`
	IsPinned             bool            `json:"isPinned"`
	Metadata             json.RawMessage `json:"metadata,omitempty"`
}

// MemoryWithScore pairs a memory with its search relevance.
// Higher score is always better; MatchType tells which index produced it.
type MemoryWithScore struct {
	Memory    Memory  `json:"memory"`
	Score     float64 `json:"score"`
	MatchType string  `json:"matchType"`
}

// CreateMemoryInput carries the caller-supplied fields for Create.
type CreateMemoryInput struct {
	Content              string          `json:"content"`
	Summary              *string         `json:"summary,omitempty"`
	Type                 MemoryType      `json:"type,omitempty"`
	Tags                 []string        `json:"tags,omitempty"`
	Importance           *int            `json:"importance,omitempty"`
	IsPinned             *bool           `json:"isPinned,omitempty"`
	SourceConversationID *string         `json:"sourceConversationId,omitempty"`
	SourceMessageIDs     []string        `json:"sourceMessageIds,omitempty"`
	Metadata             json.RawMessage `json:"metadata,omitempty"`
}

// UpdateMemoryInput carries a partial update; nil fields keep prior values.
type UpdateMemoryInput struct {
	Content    *string         `json:"content,omitempty"`
	Summary    *string         `json:"summary,omitempty"`
	Tags       []string        `json:"tags,omitempty"`
	Importance *int            `json:"importance,omitempty"`
	IsPinned   *bool           `json:"isPinned,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
}

// ListFilters narrows and orders List results.
// MemoryType accepts the enumerated types plus FilterPinned.
// SortBy is "importance", "accessed", or empty for recency.
type ListFilters struct {
	MemoryType string `json:"type,omitempty"`
	IsPinned   *bool  `json:"isPinned,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
	SortBy     string `json:"sortBy,omitempty"`
}

// MemorySettings holds the per-workspace tunables. Exactly one row per
// workspace, created with defaults on first store access.
type MemorySettings struct {
	WorkspaceID           string  `json:"workspaceId"`
	AutoExtractEnabled    bool    `json:"autoExtractEnabled"`
	ExtractionModel       *string `json:"extractionModel,omitempty"`
	EmbeddingModel        string  `json:"embeddingModel"`
	MaxMemories           int     `json:"maxMemories"`
	ContextInjectionCount int     `json:"contextInjectionCount"`
	SimilarityThreshold   float64 `json:"similarityThreshold"`
	CreatedAt             string  `json:"createdAt"`
	UpdatedAt             string  `json:"updatedAt"`
}

// UpdateSettingsInput is a partial settings update.
type UpdateSettingsInput struct {
	AutoExtractEnabled    *bool    `json:"autoExtractEnabled,omitempty"`
	ExtractionModel       *string  `json:"extractionModel,omitempty"`
	EmbeddingModel        *string  `json:"embeddingModel,omitempty"`
	MaxMemories           *int     `json:"maxMemories,omitempty"`
	ContextInjectionCount *int     `json:"contextInjectionCount,omitempty"`
	SimilarityThreshold   *float64 `json:"similarityThreshold,omitempty"`
}

// MemoryStats is a snapshot of aggregate counts, computed fresh per call.
type MemoryStats struct {
	TotalCount        int     `json:"totalCount"`
	AutoCount         int     `json:"autoCount"`
	UserCount         int     `json:"userCount"`
	ConversationCount int     `json:"conversationCount"`
	PinnedCount       int     `json:"pinnedCount"`
	WithEmbeddings    int     `json:"withEmbeddings"`
	AvgImportance     float64 `json:"avgImportance"`
}

const (
	defaultImportance = 5
	defaultListLimit  = 100
)
