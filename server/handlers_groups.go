package server

// Handlers for head-group CRUD and group membership operations.

import (
	"net/http"
	"strconv"

	"github.com/circuitlens/circuitlens/circuit"
	"github.com/circuitlens/circuitlens/errors"
)

// mutate runs a workspace mutation atomically: the change, the
// snapshot, and the re-projection happen under one lock, then the
// groups are persisted and the new graph broadcast. Returns the
// post-mutation snapshot, or false after writing the error response.
func (s *Server) mutate(w http.ResponseWriter, fn func(ws *circuit.Workspace) error) (circuit.Snapshot, bool) {
	s.sessionMu.Lock()
	ws, err := s.session.Workspace()
	if err == nil {
		err = fn(ws)
	}
	if err != nil {
		s.sessionMu.Unlock()
		writeDomainError(w, err)
		return circuit.Snapshot{}, false
	}
	snap := ws.Snapshot()
	g := s.session.Project()
	model := s.session.ModelName()
	s.sessionMu.Unlock()

	s.persistGroups(model, snap.Groups)
	s.broadcastGraph(g)
	return snap, true
}

// persistGroups saves the model's groups when persistence is enabled.
// A save failure is logged, never surfaced: the in-memory state is the
// source of truth for the running session.
func (s *Server) persistGroups(model string, groups []circuit.GroupSnapshot) {
	if s.groups == nil || model == "" {
		return
	}
	if err := s.groups.SaveGroups(model, groups); err != nil {
		s.logger.Errorw("Persisting groups failed",
			"model", model,
			"groups", len(groups),
			"error", err,
		)
	}
}

type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// HandleGroups lists groups (GET) or creates one (POST).
func (s *Server) HandleGroups(w http.ResponseWriter, r *http.Request) {
	if !requireMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	if r.Method == http.MethodGet {
		s.sessionMu.RLock()
		ws, err := s.session.Workspace()
		var groups []circuit.GroupSnapshot
		if err == nil {
			groups = ws.Snapshot().Groups
		}
		s.sessionMu.RUnlock()
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, groups)
		return
	}

	var req createGroupRequest
	if readJSON(w, r, &req) != nil {
		return
	}

	var createdID int
	snap, ok := s.mutate(w, func(ws *circuit.Workspace) error {
		g, err := ws.CreateGroup(req.Name, req.Description)
		if err != nil {
			return err
		}
		createdID = g.ID()
		return nil
	})
	if !ok {
		return
	}

	s.logger.Infow("Group created", "group_id", createdID, "name", req.Name)
	for _, g := range snap.Groups {
		if g.ID == createdID {
			writeJSON(w, http.StatusCreated, g)
			return
		}
	}
}

type updateGroupRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type groupHeadRequest struct {
	Layer  int    `json:"layer"`
	Head   int    `json:"head"`
	Action string `json:"action"`
}

// HandleGroup routes /api/groups/{id} (GET/PATCH/DELETE) and
// /api/groups/{id}/heads (POST).
func (s *Server) HandleGroup(w http.ResponseWriter, r *http.Request) {
	parts := extractPathParts(r.URL.Path, "/api/groups/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "missing group id")
		return
	}
	id, err := strconv.Atoi(parts[0])
	if err != nil {
		writeDomainError(w, errors.NewParseError("invalid group id %q", parts[0]))
		return
	}

	if len(parts) == 2 && parts[1] == "heads" {
		s.handleGroupHeads(w, r, id)
		return
	}
	if len(parts) > 1 {
		writeError(w, http.StatusNotFound, "unknown group resource")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetGroup(w, id)
	case http.MethodPatch:
		s.handleUpdateGroup(w, r, id)
	case http.MethodDelete:
		s.handleDeleteGroup(w, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) handleGetGroup(w http.ResponseWriter, id int) {
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
	for _, g := range snap.Groups {
		if g.ID == id {
			writeJSON(w, http.StatusOK, g)
			return
		}
	}
	writeDomainError(w, errors.Wrapf(errors.ErrUnknownGroup, "group %d", id))
}

func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request, id int) {
	var req updateGroupRequest
	if readJSON(w, r, &req) != nil {
		return
	}

	snap, ok := s.mutate(w, func(ws *circuit.Workspace) error {
		if req.Name != nil {
			if err := ws.RenameGroup(id, *req.Name); err != nil {
				return err
			}
		}
		if req.Description != nil {
			if err := ws.SetGroupDescription(id, *req.Description); err != nil {
				return err
			}
		}
		if req.Name == nil && req.Description == nil {
			// Existence check so an empty PATCH of a missing group 404s
			if _, found := ws.Group(id); !found {
				return errors.Wrapf(errors.ErrUnknownGroup, "group %d", id)
			}
		}
		return nil
	})
	if !ok {
		return
	}

	for _, g := range snap.Groups {
		if g.ID == id {
			writeJSON(w, http.StatusOK, g)
			return
		}
	}
}

// handleDeleteGroup deletes a group, returning its heads to the
// selection. Deleting an already-absent group is an idempotent no-op.
func (s *Server) handleDeleteGroup(w http.ResponseWriter, id int) {
	snap, ok := s.mutate(w, func(ws *circuit.Workspace) error {
		ws.DeleteGroup(id)
		return nil
	})
	if !ok {
		return
	}
	s.logger.Infow("Group deleted", "group_id", id)
	writeJSON(w, http.StatusOK, snap)
}

// handleGroupHeads adds, removes, toggles, or reselects a head within
// a group.
func (s *Server) handleGroupHeads(w http.ResponseWriter, r *http.Request, id int) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req groupHeadRequest
	if readJSON(w, r, &req) != nil {
		return
	}
	pair := circuit.HeadPair{Layer: req.Layer, Head: req.Head}

	snap, ok := s.mutate(w, func(ws *circuit.Workspace) error {
		switch req.Action {
		case "", "add":
			return ws.AddToGroup(pair, id)
		case "remove":
			return ws.RemoveFromGroup(pair, id)
		case "toggle":
			return ws.ToggleHeadInGroup(pair, id)
		case "reselect":
			return ws.RemoveFromGroupAndReselect(pair, id)
		default:
			return errors.NewParseError("unknown action %q", req.Action)
		}
	})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
