// Package server is the HTTP + WebSocket serving layer: it owns the
// inspection session, exposes the REST API the browser frontend talks
// to, and pushes re-projected graphs to connected WebSocket clients
// after every mutation.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/circuitlens/circuitlens/config"
	"github.com/circuitlens/circuitlens/errors"
	"github.com/circuitlens/circuitlens/graph"
	"github.com/circuitlens/circuitlens/inference"
	"github.com/circuitlens/circuitlens/store"
)

// MaxClients caps concurrent WebSocket connections.
const MaxClients = 32

// Server serves the attention-inspection API and graph updates.
type Server struct {
	cfg     *config.Config
	backend *inference.Client
	groups  *store.Store // nil when persistence is disabled
	logger  *zap.SugaredLogger

	// session and its lock. Handlers mutate under sessionMu so every
	// multi-step operation (mutate, persist, re-project) is atomic.
	session   *Session
	sessionMu sync.RWMutex

	// WebSocket hub
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *graph.Graph
	clientsMu  sync.RWMutex
	lastGraph  *graph.Graph

	mux        *http.ServeMux
	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a server. groups may be nil to disable persistence.
func New(cfg *config.Config, backend *inference.Client, groups *store.Store, log *zap.SugaredLogger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:        cfg,
		backend:    backend,
		groups:     groups,
		logger:     log.Named("server"),
		session:    NewSession(cfg.Graph.DefaultThreshold),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *graph.Graph, 16),
		mux:        http.NewServeMux(),
		ctx:        ctx,
		cancel:     cancel,
	}
	s.setupRoutes()
	return s
}

// Handler exposes the route mux, primarily for httptest.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run is the hub event loop: client registration, unregistration, and
// graph broadcasts all funnel through here.
func (s *Server) Run() {
	for {
		select {
		case <-s.ctx.Done():
			s.logger.Debugw("Hub stopping")
			return
		case client := <-s.register:
			s.handleClientRegister(client)
		case client := <-s.unregister:
			s.handleClientUnregister(client)
		case g := <-s.broadcast:
			s.handleBroadcast(g)
		}
	}
}

func (s *Server) handleClientRegister(client *Client) {
	s.clientsMu.Lock()
	if len(s.clients) >= MaxClients {
		s.clientsMu.Unlock()
		s.logger.Warnw("Max clients reached, rejecting connection",
			"client_id", client.id,
			"max_clients", MaxClients,
		)
		client.close()
		return
	}
	s.clients[client] = true
	total := len(s.clients)
	cached := s.lastGraph
	s.clientsMu.Unlock()

	s.logger.Infow("Client connected",
		"client_id", client.id,
		"total_clients", total,
	)

	// A reconnecting browser gets the current projection immediately
	if cached == nil {
		s.sessionMu.RLock()
		cached = s.session.Project()
		s.sessionMu.RUnlock()
	}
	select {
	case client.send <- cached:
	default:
		s.logger.Warnw("Client send channel full on connect", "client_id", client.id)
	}
}

func (s *Server) handleClientUnregister(client *Client) {
	s.clientsMu.Lock()
	if _, ok := s.clients[client]; !ok {
		s.clientsMu.Unlock()
		return
	}
	delete(s.clients, client)
	total := len(s.clients)
	s.clientsMu.Unlock()

	client.close()
	s.logger.Infow("Client disconnected",
		"client_id", client.id,
		"total_clients", total,
	)
}

func (s *Server) handleBroadcast(g *graph.Graph) {
	s.clientsMu.Lock()
	s.lastGraph = g
	clients := make([]*Client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsMu.Unlock()

	for _, c := range clients {
		select {
		case c.send <- g:
		default:
			// A client that cannot keep up is dropped rather than
			// stalling the hub
			s.logger.Warnw("Client send channel full, dropping client", "client_id", c.id)
			s.handleClientUnregister(c)
		}
	}
}

// broadcastGraph queues a projection for all connected clients.
// Handlers call this after every successful mutation.
func (s *Server) broadcastGraph(g *graph.Graph) {
	select {
	case s.broadcast <- g:
	case <-s.ctx.Done():
	default:
		s.logger.Warnw("Broadcast queue full, dropping graph update")
	}
}

// ApplyConfig applies the live-reloadable parts of a freshly loaded
// config: the projection threshold. Port, origins, and backend URL
// need a restart.
func (s *Server) ApplyConfig(cfg *config.Config) error {
	s.sessionMu.Lock()
	err := s.session.SetThreshold(cfg.Graph.DefaultThreshold)
	var g *graph.Graph
	if err == nil {
		g = s.session.Project()
	}
	s.sessionMu.Unlock()

	if err != nil {
		return errors.Wrap(err, "applying reloaded config")
	}

	s.logger.Infow("Applied reloaded config",
		"threshold", cfg.Graph.DefaultThreshold,
	)
	s.broadcastGraph(g)
	return nil
}

// Start runs the hub and HTTP server, blocking until the listener
// fails or Stop is called.
func (s *Server) Start(port int) error {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Run()
	}()

	actualPort, err := findAvailablePort(port)
	if err != nil {
		return errors.Wrap(err, "failed to find available port")
	}
	if actualPort != port {
		s.logger.Infow("Port in use, using alternative",
			"requested_port", port,
			"actual_port", actualPort,
		)
	}

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", actualPort),
		Handler: s.mux,
	}

	s.logger.Infow("Server ready",
		"url", fmt.Sprintf("http://localhost:%d", actualPort),
		"port", actualPort,
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "http server failed")
	}
	return nil
}

// Stop shuts the server down: closes clients, stops the hub, and
// drains the HTTP listener.
func (s *Server) Stop() error {
	s.cancel()

	s.clientsMu.Lock()
	for c := range s.clients {
		c.close()
		delete(s.clients, c)
	}
	s.clientsMu.Unlock()

	var err error
	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer cancel()
		err = s.httpServer.Shutdown(shutdownCtx)
	}

	s.wg.Wait()
	s.logger.Infow("Server stopped")
	return err
}

// findAvailablePort tries the requested port, then a few neighbors.
func findAvailablePort(requested int) (int, error) {
	for offset := 0; offset < 10; offset++ {
		port := requested + offset
		listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err != nil {
			continue
		}
		_ = listener.Close()
		return port, nil
	}
	return 0, errors.Newf("no available ports in range %d-%d", requested, requested+9)
}
