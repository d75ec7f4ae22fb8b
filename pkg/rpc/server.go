// Package rpc serves the node's JSON-RPC API over websocket and HTTP.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/fullnode/pkg/config"
	"github.com/DeBrosOfficial/fullnode/pkg/errors"
	"github.com/DeBrosOfficial/fullnode/pkg/logging"
)

const (
	// DefaultMaxPayload applies when the configuration sets no limit.
	DefaultMaxPayload = 15 * 1024 * 1024
	writeTimeout      = 30 * time.Second
)

// Handler serves one method. params is the raw "params" member, possibly empty.
type Handler func(ctx context.Context, params json.RawMessage) (any, error)

// Transport selects the channel a listener serves.
type Transport string

const (
	// TransportWS serves JSON-RPC over websocket upgrades only.
	TransportWS Transport = "ws"
	// TransportHTTP serves JSON-RPC over HTTP POST only.
	TransportHTTP Transport = "http"
)

type method struct {
	unsafe  bool
	handler Handler
}

// Server is a JSON-RPC 2.0 server.
type Server struct {
	cfg    config.RPCConfig
	logger *logging.ColoredLogger

	mu      sync.RWMutex
	methods map[string]method

	routers  map[Transport]chi.Router
	upgrader websocket.Upgrader

	connMu sync.Mutex
	conns  map[string]*websocket.Conn

	servers   []*http.Server
	listeners []net.Listener
}

// NewServer creates a server using the limits and method policy of cfg.
func NewServer(cfg config.RPCConfig, logger *logging.ColoredLogger) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &Server{
		cfg:     cfg,
		logger:  logger,
		methods: make(map[string]method),
		conns:   make(map[string]*websocket.Conn),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}

	ws := s.newRouter()
	ws.Get("/", s.handleWebsocket)

	httpRouter := s.newRouter()
	httpRouter.Post("/", s.handleHTTP)

	s.routers = map[Transport]chi.Router{TransportWS: ws, TransportHTTP: httpRouter}

	s.Register("rpc_methods", false, s.rpcMethods)
	return s
}

func (s *Server) newRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	})
	return r
}

// Register adds a method. Unsafe methods are served only when the policy
// allows them on the listener the request arrived on.
func (s *Server) Register(name string, unsafe bool, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.methods[name] = method{unsafe: unsafe, handler: h}
}

// Handler returns the HTTP handler serving transport, for embedding and
// tests. It is nil for an unknown transport.
func (s *Server) Handler(transport Transport) http.Handler {
	r, ok := s.routers[transport]
	if !ok {
		return nil
	}
	return r
}

// Start listens on addr and serves transport in the background.
func (s *Server) Start(addr string, transport Transport) (net.Addr, error) {
	handler := s.Handler(transport)
	if handler == nil {
		return nil, fmt.Errorf("unknown RPC transport %q", transport)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return withLoopback(context.Background(), isLoopbackListener(ln))
		},
	}

	s.mu.Lock()
	s.servers = append(s.servers, srv)
	s.listeners = append(s.listeners, ln)
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.ComponentError(logging.ComponentRPC, "RPC server stopped", zap.Error(err))
		}
	}()

	s.logger.ComponentInfo(logging.ComponentRPC, "Running JSON-RPC server",
		zap.String("addr", ln.Addr().String()),
		zap.String("transport", string(transport)),
		zap.String("methods", string(s.cfg.Methods)),
	)
	return ln.Addr(), nil
}

// Stop closes listeners and open websocket connections.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	servers := s.servers
	s.servers = nil
	s.listeners = nil
	s.mu.Unlock()

	var firstErr error
	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	// Hijacked connections are not tracked by Shutdown
	s.connMu.Lock()
	for id, conn := range s.conns {
		_ = conn.Close()
		delete(s.conns, id)
	}
	s.connMu.Unlock()

	return firstErr
}

// Connections returns the number of open websocket connections.
func (s *Server) Connections() int {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return len(s.conns)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if s.cfg.Cors == nil {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.Cors {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func (s *Server) maxPayload() int64 {
	if s.cfg.MaxPayload > 0 {
		return int64(s.cfg.MaxPayload) * 1024 * 1024
	}
	return DefaultMaxPayload
}

func (s *Server) handleHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, s.maxPayload()+1))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if int64(len(body)) > s.maxPayload() {
		http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
		return
	}

	resp := s.handleMessage(r.Context(), body)
	w.Header().Set("Content-Type", "application/json")
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	_, _ = w.Write(resp)
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		http.Error(w, "websocket upgrade required", http.StatusBadRequest)
		return
	}

	s.connMu.Lock()
	if s.cfg.WSMaxConnections > 0 && len(s.conns) >= s.cfg.WSMaxConnections {
		s.connMu.Unlock()
		s.logger.ComponentWarn(logging.ComponentRPC, "Rejecting websocket connection, limit reached",
			zap.Int("max_connections", s.cfg.WSMaxConnections))
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}
	s.connMu.Unlock()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.ComponentWarn(logging.ComponentRPC, "Websocket upgrade failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(s.maxPayload())

	clientID := uuid.New().String()
	s.connMu.Lock()
	s.conns[clientID] = conn
	s.connMu.Unlock()

	s.logger.ComponentDebug(logging.ComponentRPC, "Websocket client connected",
		zap.String("client_id", clientID),
		zap.String("remote", r.RemoteAddr),
	)

	defer func() {
		s.connMu.Lock()
		delete(s.conns, clientID)
		s.connMu.Unlock()
		_ = conn.Close()
		s.logger.ComponentDebug(logging.ComponentRPC, "Websocket client disconnected", zap.String("client_id", clientID))
	}()

	ctx := r.Context()
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		resp := s.handleMessage(ctx, data)
		if resp == nil {
			continue
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, resp); err != nil {
			return
		}
	}
}

func (s *Server) rpcMethods(ctx context.Context, _ json.RawMessage) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.methods))
	for name, m := range s.methods {
		if m.unsafe && !s.unsafeAllowed(ctx) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return map[string]any{"methods": names}, nil
}

// unsafeAllowed applies the method policy to the listener of ctx.
func (s *Server) unsafeAllowed(ctx context.Context) bool {
	switch s.cfg.Methods {
	case config.RPCMethodsUnsafe:
		return true
	case config.RPCMethodsAuto:
		return isLoopback(ctx)
	default:
		return false
	}
}

func (s *Server) lookup(name string) (method, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.methods[name]
	return m, ok
}

func (s *Server) call(ctx context.Context, req *request) *response {
	resp := &response{JSONRPC: "2.0", ID: req.ID}

	m, ok := s.lookup(req.Method)
	if !ok {
		resp.Error = &errors.RPCError{Code: errors.RPCMethodNotFound, Message: "Method not found"}
		return resp
	}
	if m.unsafe && !s.unsafeAllowed(ctx) {
		resp.Error = &errors.RPCError{Code: errors.RPCUnsafeMethod, Message: "RPC call is unsafe to be called externally"}
		return resp
	}

	result, err := m.handler(ctx, req.Params)
	if err == nil {
		var raw []byte
		if raw, err = json.Marshal(result); err == nil {
			resp.Result = raw
			return resp
		}
		err = errors.NewInternalError("failed to encode result", err).WithOperation(req.Method)
	}

	if errors.IsInternal(err) {
		s.logger.ComponentError(logging.ComponentRPC, "RPC call failed",
			zap.String("method", req.Method),
			zap.Error(err),
			zap.String("stack", errors.StackTrace(err)))
	} else {
		s.logger.ComponentDebug(logging.ComponentRPC, "RPC call failed",
			zap.String("method", req.Method), zap.Error(err))
	}
	resp.Error = errors.ToRPCError(err)
	return resp
}

type loopbackKey struct{}

func withLoopback(ctx context.Context, loopback bool) context.Context {
	return context.WithValue(ctx, loopbackKey{}, loopback)
}

func isLoopback(ctx context.Context) bool {
	v, _ := ctx.Value(loopbackKey{}).(bool)
	return v
}

func isLoopbackListener(ln net.Listener) bool {
	addr, ok := ln.Addr().(*net.TCPAddr)
	return ok && addr.IP.IsLoopback()
}
