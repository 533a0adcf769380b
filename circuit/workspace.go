// Package circuit maintains the partition of (layer, head) pairs into
// individually selected, grouped, and neither. Named groups collect the
// heads of a hypothesized mechanism (an induction circuit, a name-mover
// circuit) so they can be studied together.
//
// Two invariants hold at all times:
//   - a head is never both individually selected and a group member
//   - a head is never a member of two groups
//
// A Workspace is not safe for concurrent use; the owning session
// serializes access, matching the single event-loop model of the UI
// this serves.
package circuit

import (
	"sort"
	"strings"

	"github.com/circuitlens/circuitlens/errors"
)

// HeadPair identifies one attention head: equality is by (layer, head).
type HeadPair struct {
	Layer int `json:"layer"`
	Head  int `json:"head"`
}

// Bounds is the layer/head geometry head pairs are validated against.
type Bounds struct {
	NumLayers int `json:"numLayers"`
	NumHeads  int `json:"numHeads"`
}

// Contains reports whether the pair is inside the bounds.
func (b Bounds) Contains(p HeadPair) bool {
	return p.Layer >= 0 && p.Layer < b.NumLayers && p.Head >= 0 && p.Head < b.NumHeads
}

// Group is a named set of head pairs.
type Group struct {
	id          int
	name        string
	description string
	heads       map[HeadPair]struct{}
}

// ID returns the group's unique id.
func (g *Group) ID() int { return g.id }

// Name returns the group's display name.
func (g *Group) Name() string { return g.name }

// Description returns the group's optional description.
func (g *Group) Description() string { return g.description }

// Has reports whether the pair is a member of the group.
func (g *Group) Has(p HeadPair) bool {
	_, ok := g.heads[p]
	return ok
}

// Len returns the number of member heads.
func (g *Group) Len() int { return len(g.heads) }

// Heads returns the member pairs sorted by (layer, head).
func (g *Group) Heads() []HeadPair {
	return sortedPairs(g.heads)
}

// Workspace owns the selection state and groups for one loaded dataset.
type Workspace struct {
	bounds   Bounds
	selected map[HeadPair]struct{}
	groups   map[int]*Group
	nextID   int
}

// NewWorkspace creates an empty workspace for the given geometry.
func NewWorkspace(bounds Bounds) *Workspace {
	return &Workspace{
		bounds:   bounds,
		selected: make(map[HeadPair]struct{}),
		groups:   make(map[int]*Group),
		nextID:   1,
	}
}

// Bounds returns the geometry this workspace validates pairs against.
func (w *Workspace) Bounds() Bounds { return w.bounds }

// AddSelected adds a pair to the individual selection. Adding a pair
// that belongs to a group is a silent no-op: group membership wins.
func (w *Workspace) AddSelected(p HeadPair) error {
	if !w.bounds.Contains(p) {
		return errors.NewRangeError("head (%d,%d) outside %dx%d", p.Layer, p.Head, w.bounds.NumLayers, w.bounds.NumHeads)
	}
	if _, grouped := w.groupOf(p); grouped {
		return nil
	}
	w.selected[p] = struct{}{}
	return nil
}

// RemoveSelected removes a pair from the individual selection. Unknown
// pairs are a no-op.
func (w *Workspace) RemoveSelected(p HeadPair) {
	delete(w.selected, p)
}

// ToggleSelected is UI sugar over AddSelected/RemoveSelected: add if
// absent, remove if present. Grouped pairs are a silent no-op.
func (w *Workspace) ToggleSelected(p HeadPair) error {
	if _, ok := w.selected[p]; ok {
		w.RemoveSelected(p)
		return nil
	}
	return w.AddSelected(p)
}

// IsSelected reports whether the pair is individually selected.
func (w *Workspace) IsSelected(p HeadPair) bool {
	_, ok := w.selected[p]
	return ok
}

// SelectedHeads returns the individually selected pairs sorted by
// (layer, head).
func (w *Workspace) SelectedHeads() []HeadPair {
	return sortedPairs(w.selected)
}

// CreateGroup allocates a new empty group. Names must be non-empty
// after trimming and unique among groups case-insensitively. IDs are
// allocated max-plus-one and never reused within a workspace.
func (w *Workspace) CreateGroup(name, description string) (*Group, error) {
	trimmed, err := w.validateName(name, 0)
	if err != nil {
		return nil, err
	}

	g := &Group{
		id:          w.nextID,
		name:        trimmed,
		description: description,
		heads:       make(map[HeadPair]struct{}),
	}
	w.nextID++
	w.groups[g.id] = g
	return g, nil
}

// DeleteGroup removes the group and returns its heads to the
// individual selection. An unknown id is a silent no-op.
func (w *Workspace) DeleteGroup(id int) {
	g, ok := w.groups[id]
	if !ok {
		return
	}
	for p := range g.heads {
		w.selected[p] = struct{}{}
	}
	delete(w.groups, id)
}

// RenameGroup changes a group's name under the same validation rules
// as CreateGroup.
func (w *Workspace) RenameGroup(id int, name string) error {
	g, ok := w.groups[id]
	if !ok {
		return errors.Wrapf(errors.ErrUnknownGroup, "id %d", id)
	}
	trimmed, err := w.validateName(name, id)
	if err != nil {
		return err
	}
	g.name = trimmed
	return nil
}

// SetGroupDescription updates a group's description.
func (w *Workspace) SetGroupDescription(id int, description string) error {
	g, ok := w.groups[id]
	if !ok {
		return errors.Wrapf(errors.ErrUnknownGroup, "id %d", id)
	}
	g.description = description
	return nil
}

// AddToGroup makes the pair a member of the group. A pair belonging to
// another group is moved (a head is only ever grouped once); an
// individually selected pair leaves the selection.
func (w *Workspace) AddToGroup(p HeadPair, groupID int) error {
	g, ok := w.groups[groupID]
	if !ok {
		return errors.Wrapf(errors.ErrUnknownGroup, "id %d", groupID)
	}
	if !w.bounds.Contains(p) {
		return errors.NewRangeError("head (%d,%d) outside %dx%d", p.Layer, p.Head, w.bounds.NumLayers, w.bounds.NumHeads)
	}

	if prevID, grouped := w.groupOf(p); grouped {
		if prevID == groupID {
			return nil
		}
		delete(w.groups[prevID].heads, p)
	}
	delete(w.selected, p)
	g.heads[p] = struct{}{}
	return nil
}

// RemoveFromGroup removes the pair from the group. The head becomes
// ungrouped and is NOT returned to the individual selection; use
// RemoveFromGroupAndReselect for that behavior.
func (w *Workspace) RemoveFromGroup(p HeadPair, groupID int) error {
	g, ok := w.groups[groupID]
	if !ok {
		return errors.Wrapf(errors.ErrUnknownGroup, "id %d", groupID)
	}
	delete(g.heads, p)
	return nil
}

// RemoveFromGroupAndReselect removes the pair from the group and
// returns it to the individual selection.
func (w *Workspace) RemoveFromGroupAndReselect(p HeadPair, groupID int) error {
	g, ok := w.groups[groupID]
	if !ok {
		return errors.Wrapf(errors.ErrUnknownGroup, "id %d", groupID)
	}
	if _, member := g.heads[p]; member {
		delete(g.heads, p)
		w.selected[p] = struct{}{}
	}
	return nil
}

// ToggleHeadInGroup adds the pair to the group, or removes it if it is
// already a member. Removal leaves the head ungrouped.
func (w *Workspace) ToggleHeadInGroup(p HeadPair, groupID int) error {
	g, ok := w.groups[groupID]
	if !ok {
		return errors.Wrapf(errors.ErrUnknownGroup, "id %d", groupID)
	}
	if _, member := g.heads[p]; member {
		delete(g.heads, p)
		return nil
	}
	return w.AddToGroup(p, groupID)
}

// GroupOf returns the id of the group containing the pair, if any.
func (w *Workspace) GroupOf(p HeadPair) (int, bool) {
	return w.groupOf(p)
}

func (w *Workspace) groupOf(p HeadPair) (int, bool) {
	for id, g := range w.groups {
		if _, ok := g.heads[p]; ok {
			return id, true
		}
	}
	return 0, false
}

// Group returns the group with the given id.
func (w *Workspace) Group(id int) (*Group, bool) {
	g, ok := w.groups[id]
	return g, ok
}

// Groups returns all groups sorted by id.
func (w *Workspace) Groups() []*Group {
	out := make([]*Group, 0, len(w.groups))
	for _, g := range w.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// VisibleHeads returns the working set eligible for rendering: the
// individual selection unioned with every group's heads. The map is a
// copy; mutating it does not affect the workspace.
func (w *Workspace) VisibleHeads() map[HeadPair]struct{} {
	out := make(map[HeadPair]struct{}, len(w.selected))
	for p := range w.selected {
		out[p] = struct{}{}
	}
	for _, g := range w.groups {
		for p := range g.heads {
			out[p] = struct{}{}
		}
	}
	return out
}

func (w *Workspace) validateName(name string, selfID int) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", errors.WithStack(errors.ErrEmptyName)
	}
	lower := strings.ToLower(trimmed)
	for id, g := range w.groups {
		if id != selfID && strings.ToLower(g.name) == lower {
			return "", errors.Wrapf(errors.ErrDuplicateName, "%q", trimmed)
		}
	}
	return trimmed, nil
}

func sortedPairs(set map[HeadPair]struct{}) []HeadPair {
	out := make([]HeadPair, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Layer != out[j].Layer {
			return out[i].Layer < out[j].Layer
		}
		return out[i].Head < out[j].Head
	})
	return out
}
