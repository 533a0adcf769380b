package server

// Handlers for individual head selection and the head-specifier
// mini-language.

import (
	"net/http"

	"github.com/circuitlens/circuitlens/circuit"
	"github.com/circuitlens/circuitlens/errors"
)

type selectionRequest struct {
	Layer  int    `json:"layer"`
	Head   int    `json:"head"`
	Action string `json:"action"`
}

// HandleSelection returns the full workspace snapshot (GET) or
// mutates the individual selection (POST).
func (s *Server) HandleSelection(w http.ResponseWriter, r *http.Request) {
	if !requireMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	if r.Method == http.MethodGet {
		s.sessionMu.RLock()
		ws, err := s.session.Workspace()
		var snap circuit.Snapshot
		if err == nil {
			snap = ws.Snapshot()
		}
		s.sessionMu.RUnlock()
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
		return
	}

	var req selectionRequest
	if readJSON(w, r, &req) != nil {
		return
	}
	pair := circuit.HeadPair{Layer: req.Layer, Head: req.Head}

	snap, ok := s.mutate(w, func(ws *circuit.Workspace) error {
		switch req.Action {
		case "", "add":
			return ws.AddSelected(pair)
		case "remove":
			ws.RemoveSelected(pair)
			return nil
		case "toggle":
			return ws.ToggleSelected(pair)
		default:
			return errors.NewParseError("unknown action %q", req.Action)
		}
	})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type specifierRequest struct {
	Spec string `json:"spec"`
}

type specifierResponse struct {
	Added     []circuit.HeadPair `json:"added"`
	Workspace circuit.Snapshot   `json:"workspace"`
}

// HandleSelectionSpec applies a head specifier ("L,H", "L,:", ":,H",
// ":,:") to the selection and reports which pairs were actually added.
func (s *Server) HandleSelectionSpec(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req specifierRequest
	if readJSON(w, r, &req) != nil {
		return
	}

	var added []circuit.HeadPair
	snap, ok := s.mutate(w, func(ws *circuit.Workspace) error {
		var err error
		added, err = ws.ApplySpecifier(req.Spec)
		return err
	})
	if !ok {
		return
	}

	s.logger.Infow("Specifier applied",
		"spec", req.Spec,
		"added", len(added),
	)
	writeJSON(w, http.StatusOK, specifierResponse{Added: added, Workspace: snap})
}
