package server

// HTTP handlers for the core dataset lifecycle: health, model listing,
// text processing through the inference backend (with sample-file
// fallback when the backend is down), dataset upload, projection, and
// threshold control.

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/circuitlens/circuitlens/attention"
	"github.com/circuitlens/circuitlens/circuit"
	"github.com/circuitlens/circuitlens/errors"
	"github.com/circuitlens/circuitlens/graph"
	"github.com/circuitlens/circuitlens/version"
)

// HandleHealth reports server liveness and session state.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	s.sessionMu.RLock()
	model := s.session.ModelName()
	loaded := s.session.HasDataset()
	s.sessionMu.RUnlock()

	s.clientsMu.RLock()
	clients := len(s.clients)
	s.clientsMu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"version":        version.Get().Version,
		"dataset_loaded": loaded,
		"model":          model,
		"clients":        clients,
	})
}

// HandleModels lists models. With the backend reachable it forwards
// the backend's list; with the backend down it degrades to the models
// that have sample files on disk, marked as offline mode.
func (s *Server) HandleModels(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	models, err := s.backend.Models(r.Context())
	if err == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"available_models": models,
			"backend":          "ok",
		})
		return
	}
	if !errors.IsBackendUnavailableError(err) {
		s.logger.Errorw("Model listing failed", "error", err)
		writeDomainError(w, err)
		return
	}

	samples, sampleErr := attention.ListSampleModels(s.cfg.Sample.Dir)
	if sampleErr != nil {
		s.logger.Warnw("Backend down and sample listing failed",
			"sample_dir", s.cfg.Sample.Dir,
			"error", sampleErr,
		)
		samples = []string{}
	}
	s.logger.Infow("Backend unreachable, listing sample models",
		"sample_models", len(samples),
	)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"available_models": samples,
		"backend":          "offline",
	})
}

type processRequest struct {
	Text      string `json:"text"`
	ModelName string `json:"model_name"`
}

// HandleProcess runs text through the inference backend and installs
// the resulting dataset. When the backend is unreachable it falls back
// to a sample file for the requested model, if one exists.
func (s *Server) HandleProcess(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req processRequest
	if readJSON(w, r, &req) != nil {
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeDomainError(w, errors.NewParseError("text must not be empty"))
		return
	}
	model := req.ModelName
	if model == "" {
		model = s.cfg.Backend.DefaultModel
	}

	// Duplicate submission of the last processed (text, model) returns
	// the current projection without another backend round-trip
	s.sessionMu.RLock()
	if s.session.IsDuplicate(text, model) {
		g := s.session.Project()
		s.sessionMu.RUnlock()
		s.logger.Infow("Duplicate process request, returning current projection",
			"model", model,
		)
		writeJSON(w, http.StatusOK, g)
		return
	}
	s.sessionMu.RUnlock()

	offline := false
	ds, err := s.backend.Process(r.Context(), text, model)
	if err != nil {
		if !errors.IsBackendUnavailableError(err) {
			s.logger.Errorw("Processing failed", "model", model, "error", err)
			writeDomainError(w, err)
			return
		}
		sample, sampleErr := attention.LoadSampleFile(s.cfg.Sample.Dir, model)
		if sampleErr != nil {
			s.logger.Errorw("Backend unreachable and no sample dataset",
				"model", model,
				"backend_error", err,
				"sample_error", sampleErr,
			)
			writeDomainError(w, err)
			return
		}
		s.logger.Infow("Backend unreachable, using sample dataset",
			"model", model,
		)
		ds = sample
		offline = true
	}

	g := s.installDataset(ds, text, model)

	s.logger.Infow("Dataset installed",
		"model", ds.ModelName,
		"tokens", ds.NumTokens,
		"edges", len(ds.Edges),
		"offline", offline,
	)

	s.broadcastGraph(g)
	writeJSON(w, http.StatusOK, g)
}

// HandleDataset serves the loaded dataset's summary (GET) and accepts
// a raw dataset upload, validated before anything is replaced (POST).
func (s *Server) HandleDataset(w http.ResponseWriter, r *http.Request) {
	if !requireMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	if r.Method == http.MethodGet {
		s.sessionMu.RLock()
		summary, err := s.session.Summary()
		s.sessionMu.RUnlock()
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
		return
	}

	ds, err := attention.DecodeDataset(r.Body)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	g := s.installDataset(ds, "", "")

	s.logger.Infow("Uploaded dataset installed",
		"model", ds.ModelName,
		"tokens", ds.NumTokens,
		"edges", len(ds.Edges),
	)

	s.broadcastGraph(g)
	writeJSON(w, http.StatusOK, g)
}

// installDataset swaps the session to a new dataset, restoring
// persisted groups for the model when available and seeding predefined
// circuit groups otherwise. The dedup key is recorded only for backend
// results (text non-empty).
func (s *Server) installDataset(ds *attention.Dataset, text, model string) *graph.Graph {
	var persisted []circuit.GroupSnapshot
	if s.groups != nil && ds.ModelName != "" {
		var err error
		persisted, err = s.groups.LoadGroups(ds.ModelName)
		if err != nil {
			s.logger.Warnw("Loading persisted groups failed, using predefined groups",
				"model", ds.ModelName,
				"error", err,
			)
			persisted = nil
		}
	}

	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	if err := s.session.Install(ds, persisted); err != nil {
		// Install fell back to seeds; the dataset itself is in place
		s.logger.Warnw("Group restore failed", "model", ds.ModelName, "error", err)
	}
	if text != "" {
		s.session.MarkProcessed(text, model)
	}
	return s.session.Project()
}

// HandleGraph returns the current projection. A threshold query
// parameter projects at that threshold without changing the session.
func (s *Server) HandleGraph(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	raw := r.URL.Query().Get("threshold")

	s.sessionMu.RLock()
	defer s.sessionMu.RUnlock()

	if raw == "" {
		writeJSON(w, http.StatusOK, s.session.Project())
		return
	}

	t, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		writeDomainError(w, errors.NewParseError("invalid threshold %q", raw))
		return
	}
	if t < 0 || t > 1 {
		writeDomainError(w, errors.NewRangeError("threshold %v outside [0, 1]", t))
		return
	}
	writeJSON(w, http.StatusOK, s.session.ProjectAt(t))
}

type thresholdRequest struct {
	Threshold float64 `json:"threshold"`
}

// HandleThreshold reads (GET) or updates (PUT) the session threshold.
// Updates re-project and broadcast to connected clients.
func (s *Server) HandleThreshold(w http.ResponseWriter, r *http.Request) {
	if !requireMethods(w, r, http.MethodGet, http.MethodPut) {
		return
	}

	if r.Method == http.MethodGet {
		s.sessionMu.RLock()
		t := s.session.Threshold()
		s.sessionMu.RUnlock()
		writeJSON(w, http.StatusOK, thresholdRequest{Threshold: t})
		return
	}

	var req thresholdRequest
	if readJSON(w, r, &req) != nil {
		return
	}

	s.sessionMu.Lock()
	err := s.session.SetThreshold(req.Threshold)
	var g *graph.Graph
	if err == nil {
		g = s.session.Project()
	}
	s.sessionMu.Unlock()

	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.logger.Infow("Threshold updated", "threshold", req.Threshold)
	s.broadcastGraph(g)
	writeJSON(w, http.StatusOK, req)
}
