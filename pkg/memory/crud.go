package memory

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// memoryColumns is the canonical select list; scanMemory depends on its order.
const memoryColumns = `id, workspace_id, content, summary, type, source_conversation_id,
	source_message_ids, embedding_model, tags, importance, access_count,
	last_accessed_at, created_at, updated_at, expires_at, is_pinned, metadata`

// Create persists a new memory and returns the row as stored, re-read
// after insert so schema defaults are reflected. Content is not
// validated here; callers are expected to reject empty input.
func (s *Store) Create(input CreateMemoryInput) (*Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	now := nowTimestamp()

	memType := input.Type
	if memType == "" {
		memType = TypeUser
	}

	importance := defaultImportance
	if input.Importance != nil {
		importance = *input.Importance
	}

	isPinned := 0
	if input.IsPinned != nil && *input.IsPinned {
		isPinned = 1
	}

	tagsJSON, err := marshalStringList(input.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}
	messageIDsJSON, err := marshalStringList(input.SourceMessageIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message ids: %w", err)
	}

	var metadata *string
	if len(input.Metadata) > 0 {
		m := string(input.Metadata)
		metadata = &m
	}

	_, err = s.db.Exec(
		`INSERT INTO memories (
			id, workspace_id, content, summary, type, source_conversation_id,
			source_message_ids, tags, importance, is_pinned, metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, s.workspaceID, input.Content, input.Summary, string(memType),
		input.SourceConversationID, messageIDsJSON, tagsJSON, importance,
		isPinned, metadata, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory: %w", err)
	}

	mem, err := s.getByID(id)
	if err != nil {
		return nil, err
	}
	if mem == nil {
		return nil, fmt.Errorf("memory not found after creation")
	}
	return mem, nil
}

// Get returns the memory scoped to this store's workspace, or nil when
// it is absent or belongs to another workspace.
func (s *Store) Get(id string) (*Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getByID(id)
}

func (s *Store) getByID(id string) (*Memory, error) {
	row := s.db.QueryRow(
		"SELECT "+memoryColumns+" FROM memories WHERE id = ? AND workspace_id = ?",
		id, s.workspaceID,
	)

	mem, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get memory: %w", err)
	}
	return mem, nil
}

// Update applies a partial update: present fields replace prior values,
// absent fields are preserved. Returns ErrNotFound when the id is not
// in this workspace.
func (s *Store) Update(id string, input UpdateMemoryInput) (*Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.getByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}

	content := existing.Content
	if input.Content != nil {
		content = *input.Content
	}
	summary := existing.Summary
	if input.Summary != nil {
		summary = input.Summary
	}
	tags := existing.Tags
	if input.Tags != nil {
		tags = input.Tags
	}
	importance := existing.Importance
	if input.Importance != nil {
		importance = *input.Importance
	}
	isPinned := existing.IsPinned
	if input.IsPinned != nil {
		isPinned = *input.IsPinned
	}
	metadata := existing.Metadata
	if len(input.Metadata) > 0 {
		metadata = input.Metadata
	}

	tagsJSON, err := marshalStringList(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}

	var metadataText *string
	if len(metadata) > 0 {
		m := string(metadata)
		metadataText = &m
	}

	pinned := 0
	if isPinned {
		pinned = 1
	}

	_, err = s.db.Exec(
		`UPDATE memories SET
			content = ?, summary = ?, tags = ?, importance = ?,
			is_pinned = ?, metadata = ?, updated_at = ?
		WHERE id = ? AND workspace_id = ?`,
		content, summary, tagsJSON, importance, pinned, metadataText,
		nowTimestamp(), id, s.workspaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update memory: %w", err)
	}

	updated, err := s.getByID(id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrNotFound
	}
	return updated, nil
}

// Delete removes a memory. The FTS shadow entry is removed by the
// delete trigger. Returns whether a row was actually removed, so a
// repeated delete reports false instead of failing.
func (s *Store) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		"DELETE FROM memories WHERE id = ? AND workspace_id = ?",
		id, s.workspaceID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete memory: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return affected > 0, nil
}

// List returns a page of memories matching the filters together with
// the total matching count. The count is a separate query over the same
// filter, independent of limit and offset.
func (s *Store) List(filters ListFilters) ([]Memory, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conditions := []string{"workspace_id = ?"}
	args := []interface{}{s.workspaceID}

	if filters.MemoryType != "" {
		if filters.MemoryType == FilterPinned {
			conditions = append(conditions, "is_pinned = 1")
		} else {
			conditions = append(conditions, "type = ?")
			args = append(args, filters.MemoryType)
		}
	}

	if filters.IsPinned != nil {
		pinned := 0
		if *filters.IsPinned {
			pinned = 1
		}
		conditions = append(conditions, "is_pinned = ?")
		args = append(args, pinned)
	}

	whereClause := strings.Join(conditions, " AND ")

	var orderBy string
	switch filters.SortBy {
	case "importance":
		orderBy = "importance DESC, created_at DESC"
	case "accessed":
		orderBy = "COALESCE(last_accessed_at, created_at) DESC"
	default:
		orderBy = "created_at DESC"
	}

	var total int
	err := s.db.QueryRow("SELECT COUNT(*) FROM memories WHERE "+whereClause, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count memories: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := filters.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(
		"SELECT %s FROM memories WHERE %s ORDER BY %s LIMIT ? OFFSET ?",
		memoryColumns, whereClause, orderBy,
	)
	rows, err := s.db.Query(query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list memories: %w", err)
	}
	defer rows.Close()

	var memories []Memory
	for rows.Next() {
		mem, err := scanMemory(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan memory: %w", err)
		}
		memories = append(memories, *mem)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list memories: %w", err)
	}

	return memories, total, nil
}

// IncrementAccess records that a memory was actually used by a caller:
// bumps access_count and stamps last_accessed_at. Searching alone never
// calls this; the consumer decides which results counted.
func (s *Store) IncrementAccess(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"UPDATE memories SET access_count = access_count + 1, last_accessed_at = ? WHERE id = ? AND workspace_id = ?",
		nowTimestamp(), id, s.workspaceID,
	)
	if err != nil {
		return fmt.Errorf("failed to increment access: %w", err)
	}
	return nil
}

// StoreEmbedding attaches an embedding vector and the model that
// produced it to an existing memory. Both columns are written together
// so they are never observed half-set.
func (s *Store) StoreEmbedding(id string, vector []float32, model string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		"UPDATE memories SET embedding = ?, embedding_model = ?, updated_at = ? WHERE id = ? AND workspace_id = ?",
		encodeVector(vector), model, nowTimestamp(), id, s.workspaceID,
	)
	if err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read embedding update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanMemory maps a row selected with memoryColumns to a Memory. Any
// extra destinations are scanned from the columns that follow.
func scanMemory(row rowScanner, extra ...interface{}) (*Memory, error) {
	var (
		mem            Memory
		memType        string
		summary        sql.NullString
		sourceConvID   sql.NullString
		messageIDsJSON sql.NullString
		embeddingModel sql.NullString
		tagsJSON       sql.NullString
		lastAccessedAt sql.NullString
		expiresAt      sql.NullString
		isPinned       int
		metadata       sql.NullString
	)

	dest := []interface{}{
		&mem.ID, &mem.WorkspaceID, &mem.Content, &summary, &memType,
		&sourceConvID, &messageIDsJSON, &embeddingModel, &tagsJSON,
		&mem.Importance, &mem.AccessCount, &lastAccessedAt,
		&mem.CreatedAt, &mem.UpdatedAt, &expiresAt, &isPinned, &metadata,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	mem.Type = MemoryType(memType)
	mem.IsPinned = isPinned != 0
	mem.Summary = nullableString(summary)
	mem.SourceConversationID = nullableString(sourceConvID)
	mem.EmbeddingModel = nullableString(embeddingModel)
	mem.LastAccessedAt = nullableString(lastAccessedAt)
	mem.ExpiresAt = nullableString(expiresAt)

	if messageIDsJSON.Valid {
		mem.SourceMessageIDs = unmarshalStringList(messageIDsJSON.String)
	}
	if tagsJSON.Valid {
		mem.Tags = unmarshalStringList(tagsJSON.String)
	}
	if metadata.Valid && metadata.String != "" {
		mem.Metadata = json.RawMessage(metadata.String)
	}

	return &mem, nil
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func marshalStringList(list []string) (*string, error) {
	if list == nil {
		return nil, nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	text := string(data)
	return &text, nil
}

func unmarshalStringList(text string) []string {
	var list []string
	if err := json.Unmarshal([]byte(text), &list); err != nil {
		return nil
	}
	return list
}
