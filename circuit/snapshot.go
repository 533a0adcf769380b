package circuit

import (
	"github.com/circuitlens/circuitlens/errors"
)

// GroupSnapshot is the serializable form of a group.
type GroupSnapshot struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Heads       []HeadPair `json:"heads"`
}

// Snapshot is the serializable form of a workspace, used for API
// responses and group persistence.
type Snapshot struct {
	Bounds   Bounds          `json:"bounds"`
	Selected []HeadPair      `json:"selectedHeads"`
	Groups   []GroupSnapshot `json:"groups"`
}

// Snapshot returns a copy of the workspace state with deterministic
// ordering: selection and group heads sorted by (layer, head), groups
// sorted by id.
func (w *Workspace) Snapshot() Snapshot {
	snap := Snapshot{
		Bounds:   w.bounds,
		Selected: w.SelectedHeads(),
		Groups:   make([]GroupSnapshot, 0, len(w.groups)),
	}
	for _, g := range w.Groups() {
		snap.Groups = append(snap.Groups, GroupSnapshot{
			ID:          g.id,
			Name:        g.name,
			Description: g.description,
			Heads:       g.Heads(),
		})
	}
	return snap
}

// RestoreGroups recreates persisted groups in the workspace, keeping
// their ids stable. Heads outside the current bounds are dropped (a
// group curated on a larger model may reference layers this model does
// not have); heads already grouped or selected elsewhere keep their
// existing home. Name validation applies as in CreateGroup.
func (w *Workspace) RestoreGroups(groups []GroupSnapshot) error {
	for _, snap := range groups {
		trimmed, err := w.validateName(snap.Name, 0)
		if err != nil {
			return errors.Wrapf(err, "restoring group %q", snap.Name)
		}
		if _, exists := w.groups[snap.ID]; exists {
			return errors.Newf("restoring group %q: id %d already in use", snap.Name, snap.ID)
		}

		g := &Group{
			id:          snap.ID,
			name:        trimmed,
			description: snap.Description,
			heads:       make(map[HeadPair]struct{}),
		}
		w.groups[g.id] = g
		if snap.ID >= w.nextID {
			w.nextID = snap.ID + 1
		}

		for _, p := range snap.Heads {
			if !w.bounds.Contains(p) {
				continue
			}
			if _, grouped := w.groupOf(p); grouped {
				continue
			}
			delete(w.selected, p)
			g.heads[p] = struct{}{}
		}
	}
	return nil
}
