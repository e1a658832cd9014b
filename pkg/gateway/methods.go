package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sentinelops/sentineld/pkg/memory"
	"github.com/sentinelops/sentineld/pkg/workspace"
)

// Methods wires the memory and workspace operations onto a router.
type Methods struct {
	workspaces *workspace.Manager
	chat       memory.ChatCompleter // nil disables memory.extract
	logger     zerolog.Logger
}

// MethodsConfig holds method-layer dependencies.
type MethodsConfig struct {
	Workspaces *workspace.Manager
	Chat       memory.ChatCompleter
	Logger     zerolog.Logger
}

// NewMethods creates the method layer.
func NewMethods(cfg MethodsConfig) (*Methods, error) {
	if cfg.Workspaces == nil {
		return nil, fmt.Errorf("workspace manager is required")
	}
	return &Methods{
		workspaces: cfg.Workspaces,
		chat:       cfg.Chat,
		logger:     cfg.Logger,
	}, nil
}

// RegisterAll registers every RPC method on the router.
func (m *Methods) RegisterAll(router *Router) {
	router.Register("status", m.handleStatus)
	router.Register("workspace.get", m.handleWorkspaceGet)
	router.Register("workspace.set", m.handleWorkspaceSet)
	router.Register("memory.create", m.handleMemoryCreate)
	router.Register("memory.get", m.handleMemoryGet)
	router.Register("memory.update", m.handleMemoryUpdate)
	router.Register("memory.delete", m.handleMemoryDelete)
	router.Register("memory.list", m.handleMemoryList)
	router.Register("memory.search", m.handleMemorySearch)
	router.Register("memory.relevant", m.handleMemoryRelevant)
	router.Register("memory.extract", m.handleMemoryExtract)
	router.Register("memory.access", m.handleMemoryAccess)
	router.Register("memory.settings.get", m.handleSettingsGet)
	router.Register("memory.settings.update", m.handleSettingsUpdate)
	router.Register("memory.stats", m.handleStats)
}

// service resolves the active workspace's memory service.
func (m *Methods) service() (*memory.Service, error) {
	svc := m.workspaces.Service()
	if svc == nil {
		return nil, &RPCError{Code: InvalidRequest, Message: "no workspace is set"}
	}
	return svc, nil
}

// decodeParams round-trips the loosely typed params map into a typed
// request struct.
func decodeParams(params map[string]interface{}, dst interface{}) error {
	data, err := json.Marshal(params)
	if err != nil {
		return &RPCError{Code: InvalidParams, Message: fmt.Sprintf("failed to decode parameters: %v", err)}
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return &RPCError{Code: InvalidParams, Message: fmt.Sprintf("failed to decode parameters: %v", err)}
	}
	return nil
}

func (m *Methods) handleStatus(_ context.Context, _ map[string]interface{}) (interface{}, error) {
	path := m.workspaces.Path()
	result := map[string]interface{}{
		"status":         "ok",
		"workspace":      path,
		"memoryReady":    m.workspaces.Service() != nil,
		"extractEnabled": m.chat != nil,
	}
	if path != "" {
		result["workspaceId"] = memory.WorkspaceID(path)
	}
	return result, nil
}

func (m *Methods) handleWorkspaceGet(_ context.Context, _ map[string]interface{}) (interface{}, error) {
	path := m.workspaces.Path()
	if path == "" {
		return map[string]interface{}{"path": nil}, nil
	}
	return map[string]interface{}{
		"path":        path,
		"workspaceId": memory.WorkspaceID(path),
	}, nil
}

func (m *Methods) handleWorkspaceSet(_ context.Context, params map[string]interface{}) (interface{}, error) {
	if err := validateParams(setWorkspaceSchema, params); err != nil {
		return nil, err
	}

	var req struct {
		Path string `json:"path"`
	}
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}

	if err := m.workspaces.Set(req.Path); err != nil {
		return nil, err
	}

	path := m.workspaces.Path()
	return map[string]interface{}{
		"path":        path,
		"workspaceId": memory.WorkspaceID(path),
	}, nil
}

func (m *Methods) handleMemoryCreate(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	if err := validateParams(createMemorySchema, params); err != nil {
		return nil, err
	}
	svc, err := m.service()
	if err != nil {
		return nil, err
	}

	var req struct {
		memory.CreateMemoryInput
		GenerateEmbedding *bool `json:"generateEmbedding"`
	}
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}

	generate := req.GenerateEmbedding == nil || *req.GenerateEmbedding
	return svc.CreateMemory(ctx, req.CreateMemoryInput, generate)
}

func (m *Methods) handleMemoryGet(_ context.Context, params map[string]interface{}) (interface{}, error) {
	if err := validateParams(memoryIDSchema, params); err != nil {
		return nil, err
	}
	svc, err := m.service()
	if err != nil {
		return nil, err
	}

	var req struct {
		ID string `json:"id"`
	}
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}

	mem, err := svc.Store().Get(req.ID)
	if err != nil {
		return nil, err
	}
	if mem == nil {
		return nil, &RPCError{Code: NotFound, Message: "memory not found"}
	}
	return mem, nil
}

func (m *Methods) handleMemoryUpdate(_ context.Context, params map[string]interface{}) (interface{}, error) {
	if err := validateParams(updateMemorySchema, params); err != nil {
		return nil, err
	}
	svc, err := m.service()
	if err != nil {
		return nil, err
	}

	var req struct {
		ID string `json:"id"`
		memory.UpdateMemoryInput
	}
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}

	return svc.Store().Update(req.ID, req.UpdateMemoryInput)
}

func (m *Methods) handleMemoryDelete(_ context.Context, params map[string]interface{}) (interface{}, error) {
	if err := validateParams(memoryIDSchema, params); err != nil {
		return nil, err
	}
	svc, err := m.service()
	if err != nil {
		return nil, err
	}

	var req struct {
		ID string `json:"id"`
	}
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}

	deleted, err := svc.Store().Delete(req.ID)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"deleted": deleted}, nil
}

func (m *Methods) handleMemoryList(_ context.Context, params map[string]interface{}) (interface{}, error) {
	if err := validateParams(listMemoriesSchema, params); err != nil {
		return nil, err
	}
	svc, err := m.service()
	if err != nil {
		return nil, err
	}

	var filters memory.ListFilters
	if err := decodeParams(params, &filters); err != nil {
		return nil, err
	}

	memories, total, err := svc.Store().List(filters)
	if err != nil {
		return nil, err
	}
	if memories == nil {
		memories = []memory.Memory{}
	}

	return map[string]interface{}{
		"memories": memories,
		"count":    len(memories),
		"total":    total,
	}, nil
}

func (m *Methods) handleMemorySearch(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	if err := validateParams(searchMemoriesSchema, params); err != nil {
		return nil, err
	}
	svc, err := m.service()
	if err != nil {
		return nil, err
	}

	var req struct {
		Query            string   `json:"query"`
		Limit            int      `json:"limit"`
		Threshold        *float64 `json:"threshold"`
		IncludeEmbedding *bool    `json:"includeEmbedding"`
	}
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	threshold := 0.7
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	useEmbedding := req.IncludeEmbedding == nil || *req.IncludeEmbedding

	results, searchType, err := svc.Search(ctx, req.Query, limit, threshold, useEmbedding)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"memories":   results,
		"count":      len(results),
		"searchType": searchType,
	}, nil
}

func (m *Methods) handleMemoryRelevant(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	if err := validateParams(relevantMemoriesSchema, params); err != nil {
		return nil, err
	}
	svc, err := m.service()
	if err != nil {
		return nil, err
	}

	var req struct {
		Context string `json:"context"`
		Limit   int    `json:"limit"`
	}
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}

	results, err := svc.Relevant(ctx, req.Context, req.Limit)
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (m *Methods) handleMemoryExtract(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	if err := validateParams(extractMemoriesSchema, params); err != nil {
		return nil, err
	}
	svc, err := m.service()
	if err != nil {
		return nil, err
	}
	if m.chat == nil {
		return nil, &RPCError{Code: InvalidRequest, Message: "no extraction model is configured"}
	}

	var req struct {
		ConversationID string                       `json:"conversationId"`
		Messages       []memory.ConversationMessage `json:"messages"`
		Model          string                       `json:"model"`
	}
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}

	settings, err := svc.Store().GetSettings()
	if err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" && settings.ExtractionModel != nil {
		model = *settings.ExtractionModel
	}

	extractor, err := memory.NewExtractor(memory.ExtractorConfig{
		Service: svc,
		Chat:    m.chat,
		Model:   model,
		Logger:  m.logger,
	})
	if err != nil {
		return nil, err
	}

	return extractor.Extract(ctx, req.ConversationID, req.Messages, model)
}

func (m *Methods) handleMemoryAccess(_ context.Context, params map[string]interface{}) (interface{}, error) {
	if err := validateParams(memoryIDSchema, params); err != nil {
		return nil, err
	}
	svc, err := m.service()
	if err != nil {
		return nil, err
	}

	var req struct {
		ID string `json:"id"`
	}
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}

	if err := svc.Store().IncrementAccess(req.ID); err != nil {
		return nil, err
	}
	return map[string]interface{}{"recorded": true}, nil
}

func (m *Methods) handleSettingsGet(_ context.Context, _ map[string]interface{}) (interface{}, error) {
	svc, err := m.service()
	if err != nil {
		return nil, err
	}
	return svc.Store().GetSettings()
}

func (m *Methods) handleSettingsUpdate(_ context.Context, params map[string]interface{}) (interface{}, error) {
	if err := validateParams(updateSettingsSchema, params); err != nil {
		return nil, err
	}
	svc, err := m.service()
	if err != nil {
		return nil, err
	}

	var input memory.UpdateSettingsInput
	if err := decodeParams(params, &input); err != nil {
		return nil, err
	}
	return svc.Store().UpdateSettings(input)
}

func (m *Methods) handleStats(_ context.Context, _ map[string]interface{}) (interface{}, error) {
	svc, err := m.service()
	if err != nil {
		return nil, err
	}
	return svc.Store().GetStats()
}
