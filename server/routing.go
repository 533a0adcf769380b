package server

import (
	"net/http"
)

// setupRoutes configures all HTTP handlers
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/health", s.corsMiddleware(s.HandleHealth))
	s.mux.HandleFunc("/ws", s.corsMiddleware(s.HandleWebSocket))

	s.mux.HandleFunc("/api/models", s.corsMiddleware(s.HandleModels))          // List backend/sample models (GET)
	s.mux.HandleFunc("/api/process", s.corsMiddleware(s.HandleProcess))        // Run text through the backend (POST)
	s.mux.HandleFunc("/api/dataset", s.corsMiddleware(s.HandleDataset))        // Dataset summary (GET) / upload (POST)
	s.mux.HandleFunc("/api/graph", s.corsMiddleware(s.HandleGraph))            // Current projection (GET, ?threshold= preview)
	s.mux.HandleFunc("/api/threshold", s.corsMiddleware(s.HandleThreshold))    // Threshold (GET/PUT)
	s.mux.HandleFunc("/api/groups", s.corsMiddleware(s.HandleGroups))          // List/create groups (GET/POST)
	s.mux.HandleFunc("/api/groups/", s.corsMiddleware(s.HandleGroup))          // Group CRUD and head ops (/api/groups/{id}[/heads])
	s.mux.HandleFunc("/api/selection/spec", s.corsMiddleware(s.HandleSelectionSpec)) // Head specifier (POST)
	s.mux.HandleFunc("/api/selection", s.corsMiddleware(s.HandleSelection))    // Selection state/ops (GET/POST)
}

// corsMiddleware adds CORS headers using the configured allowed origins,
// sharing origin validation with the WebSocket upgrader.
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin != "" && s.checkOrigin(r) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}
