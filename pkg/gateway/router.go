package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sentinelops/sentineld/pkg/memory"
)

// Router registers RPC methods and routes requests to them. Responses
// to requests carrying an idempotency key are cached for a short TTL so
// a retrying client gets the original result instead of a replay.
type Router struct {
	mu               sync.RWMutex
	methods          map[string]RequestHandler
	idempotencyTTL   time.Duration
	idempotencyCache map[string]cachedResponse
}

type cachedResponse struct {
	response  RPCResponse
	expiresAt time.Time
}

// NewRouter creates an RPC router.
func NewRouter() *Router {
	return &Router{
		methods:          make(map[string]RequestHandler),
		idempotencyTTL:   5 * time.Minute,
		idempotencyCache: make(map[string]cachedResponse),
	}
}

// Register registers an RPC method handler.
func (r *Router) Register(name string, handler RequestHandler) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[name] = handler
	return nil
}

// Methods returns all registered method names.
func (r *Router) Methods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	return names
}

// Parse parses and validates a JSON-RPC request.
func (r *Router) Parse(data []byte) (*RPCRequest, error) {
	var req RPCRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, &RPCError{Code: ParseError, Message: "Parse error", Data: err.Error()}
	}

	if req.ID == "" {
		return nil, &RPCError{Code: InvalidRequest, Message: "Invalid request: missing id field"}
	}
	if req.Method == "" {
		return nil, &RPCError{Code: InvalidRequest, Message: "Invalid request: missing method field"}
	}
	if req.JSONRPC == "" {
		req.JSONRPC = "2.0"
	}

	return &req, nil
}

// Route dispatches a request to its handler and shapes the response.
func (r *Router) Route(ctx context.Context, req *RPCRequest) *RPCResponse {
	if req == nil {
		return &RPCResponse{
			JSONRPC: "2.0",
			Error:   &RPCError{Code: InvalidRequest, Message: "invalid request"},
		}
	}

	cacheKey := ""
	if req.IdempotencyKey != "" {
		cacheKey = req.Method + ":" + req.IdempotencyKey
		if cached, ok := r.cachedResponseFor(cacheKey); ok {
			cached.ID = req.ID
			return &cached
		}
	}

	r.mu.RLock()
	handler, exists := r.methods[req.Method]
	r.mu.RUnlock()

	if !exists {
		return &RPCResponse{
			ID:      req.ID,
			JSONRPC: "2.0",
			Error:   &RPCError{Code: MethodNotFound, Message: fmt.Sprintf("Method not found: %s", req.Method)},
		}
	}

	result, err := handler(ctx, req.Params)
	response := &RPCResponse{ID: req.ID, JSONRPC: "2.0"}
	if err != nil {
		response.Error = toRPCError(err)
	} else {
		response.Result = result
	}

	if cacheKey != "" {
		r.cacheResponse(cacheKey, *response)
	}
	return response
}

// toRPCError maps handler errors onto JSON-RPC error codes.
func toRPCError(err error) *RPCError {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	if errors.Is(err, memory.ErrNotFound) {
		return &RPCError{Code: NotFound, Message: err.Error()}
	}
	return &RPCError{Code: InternalError, Message: err.Error()}
}

func (r *Router) cachedResponseFor(key string) (RPCResponse, bool) {
	r.mu.RLock()
	entry, exists := r.idempotencyCache[key]
	r.mu.RUnlock()
	if !exists {
		return RPCResponse{}, false
	}

	now := time.Now()
	if now.After(entry.expiresAt) {
		r.mu.Lock()
		if current, ok := r.idempotencyCache[key]; ok && now.After(current.expiresAt) {
			delete(r.idempotencyCache, key)
		}
		r.mu.Unlock()
		return RPCResponse{}, false
	}

	return entry.response, true
}

func (r *Router) cacheResponse(key string, response RPCResponse) {
	now := time.Now()

	r.mu.Lock()
	r.idempotencyCache[key] = cachedResponse{
		response:  response,
		expiresAt: now.Add(r.idempotencyTTL),
	}
	for cacheKey, entry := range r.idempotencyCache {
		if now.After(entry.expiresAt) {
			delete(r.idempotencyCache, cacheKey)
		}
	}
	r.mu.Unlock()
}
