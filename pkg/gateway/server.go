package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// Server serves the JSON-RPC surface over WebSocket (/ws) and
// single-shot HTTP (/rpc).
type Server struct {
	port         int
	sharedSecret string
	server       *http.Server
	upgrader     websocket.Upgrader
	router       *Router
	logger       zerolog.Logger

	clientsMu sync.RWMutex
	clients   map[string]*Client

	shutdownMu     sync.RWMutex
	isShuttingDown bool
	inFlightReqs   sync.WaitGroup
}

// ServerConfig holds server configuration. SharedSecret is optional;
// when set, HTTP callers must present it in the X-Sentinel-Secret
// header and WebSocket callers in the secret query parameter.
type ServerConfig struct {
	Port         int
	SharedSecret string
	Router       *Router
	Logger       zerolog.Logger
}

// NewServer creates a gateway server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.Router == nil {
		return nil, fmt.Errorf("router is required")
	}

	return &Server{
		port:         cfg.Port,
		sharedSecret: cfg.SharedSecret,
		router:       cfg.Router,
		logger:       cfg.Logger,
		clients:      make(map[string]*Client),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Desktop frontend connects from a local origin.
				return true
			},
		},
	}, nil
}

// Start starts the server. It returns once the listener goroutine is
// launched; errors after that are logged.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/rpc", s.handleRPC)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: mux,
	}

	s.logger.Info().Int("port", s.port).Msg("Starting gateway server")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Gateway server error")
		}
	}()

	return nil
}

// Stop gracefully stops the server, waiting briefly for in-flight
// requests before closing client connections.
func (s *Server) Stop() error {
	s.shutdownMu.Lock()
	s.isShuttingDown = true
	s.shutdownMu.Unlock()

	s.logger.Info().Msg("Shutting down gateway server")
	s.Broadcast("server.shutdown", map[string]interface{}{"message": "Server is shutting down"})

	done := make(chan struct{})
	go func() {
		s.inFlightReqs.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		s.logger.Warn().Msg("Shutdown timeout reached, forcing close")
	}

	s.clientsMu.Lock()
	for _, client := range s.clients {
		client.Conn.Close()
	}
	s.clients = make(map[string]*Client)
	s.clientsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info().Msg("Gateway server stopped")
	return nil
}

// Broadcast pushes an event to every connected WebSocket client.
func (s *Server) Broadcast(event string, data interface{}) {
	msg := EventMessage{
		Event:     event,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, client := range s.clients {
		if err := client.Conn.WriteJSON(msg); err != nil {
			s.logger.Warn().Err(err).Str("clientId", client.ID).Msg("Failed to broadcast event")
		}
	}
}

func (s *Server) authorized(secret string) bool {
	return s.sharedSecret == "" || secret == s.sharedSecret
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.shutdownMu.RLock()
	if s.isShuttingDown {
		s.shutdownMu.RUnlock()
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}
	s.shutdownMu.RUnlock()

	if !s.authorized(r.URL.Query().Get("secret")) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}

	clientID, _ := gonanoid.New()
	client := &Client{
		ID:          clientID,
		Conn:        conn,
		ConnectedAt: time.Now(),
	}

	s.clientsMu.Lock()
	s.clients[clientID] = client
	s.clientsMu.Unlock()

	s.logger.Info().Str("clientId", clientID).Str("ip", r.RemoteAddr).Msg("Client connected")

	go s.handleClient(client)
}

func (s *Server) handleClient(client *Client) {
	defer func() {
		client.Conn.Close()
		s.clientsMu.Lock()
		delete(s.clients, client.ID)
		s.clientsMu.Unlock()
		s.logger.Info().Str("clientId", client.ID).Msg("Client disconnected")
	}()

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Error().Err(err).Str("clientId", client.ID).Msg("WebSocket error")
			}
			return
		}

		req, err := s.router.Parse(message)
		if err != nil {
			s.writeError(client, "", err)
			continue
		}

		s.inFlightReqs.Add(1)
		go func() {
			defer s.inFlightReqs.Done()

			response := s.router.Route(context.Background(), req)
			if err := client.Conn.WriteJSON(response); err != nil {
				s.logger.Error().
					Err(err).
					Str("clientId", client.ID).
					Str("requestId", req.ID).
					Msg("Failed to send response")
			}
		}()
	}
}

// handleRPC handles single-shot HTTP JSON-RPC requests.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !s.authorized(r.Header.Get("X-Sentinel-Secret")) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	req, err := s.router.Parse(body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		rpcErr, ok := err.(*RPCError)
		if !ok {
			rpcErr = &RPCError{Code: ParseError, Message: err.Error()}
		}
		_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: "2.0", Error: rpcErr})
		return
	}

	s.inFlightReqs.Add(1)
	defer s.inFlightReqs.Done()

	s.logger.Debug().
		Str("requestId", req.ID).
		Str("method", req.Method).
		Msg("Gateway received HTTP RPC request")

	resp := s.router.Route(r.Context(), req)
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode RPC response")
	}
}

func (s *Server) writeError(client *Client, requestID string, err error) {
	rpcErr, ok := err.(*RPCError)
	if !ok {
		rpcErr = &RPCError{Code: InternalError, Message: err.Error()}
	}

	response := RPCResponse{ID: requestID, JSONRPC: "2.0", Error: rpcErr}
	if err := client.Conn.WriteJSON(response); err != nil {
		s.logger.Error().Err(err).Str("clientId", client.ID).Msg("Failed to send error response")
	}
}
