package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circuitlens/circuitlens/errors"
)

func testWorkspace(t *testing.T) *Workspace {
	t.Helper()
	return NewWorkspace(Bounds{NumLayers: 12, NumHeads: 12})
}

// assertPartition checks the core invariant: every pair is in at most
// one of the selection and the groups.
func assertPartition(t *testing.T, w *Workspace) {
	t.Helper()
	seen := make(map[HeadPair]string)
	for _, p := range w.SelectedHeads() {
		seen[p] = "selected"
	}
	for _, g := range w.Groups() {
		for _, p := range g.Heads() {
			prev, dup := seen[p]
			require.False(t, dup, "pair %v in both %s and group %q", p, prev, g.Name())
			seen[p] = g.Name()
		}
	}
}

func TestAddRemoveSelected(t *testing.T) {
	w := testWorkspace(t)

	require.NoError(t, w.AddSelected(HeadPair{2, 3}))
	assert.True(t, w.IsSelected(HeadPair{2, 3}))

	// Adding again is idempotent
	require.NoError(t, w.AddSelected(HeadPair{2, 3}))
	assert.Len(t, w.SelectedHeads(), 1)

	w.RemoveSelected(HeadPair{2, 3})
	assert.False(t, w.IsSelected(HeadPair{2, 3}))

	// Removing an absent pair is a no-op
	w.RemoveSelected(HeadPair{2, 3})
}

func TestAddSelectedOutOfBounds(t *testing.T) {
	w := testWorkspace(t)
	err := w.AddSelected(HeadPair{12, 0})
	require.Error(t, err)
	assert.True(t, errors.IsRangeError(err))
}

func TestToggleSelected(t *testing.T) {
	w := testWorkspace(t)
	require.NoError(t, w.ToggleSelected(HeadPair{0, 0}))
	assert.True(t, w.IsSelected(HeadPair{0, 0}))
	require.NoError(t, w.ToggleSelected(HeadPair{0, 0}))
	assert.False(t, w.IsSelected(HeadPair{0, 0}))
}

func TestSelectGroupedHeadIsNoop(t *testing.T) {
	w := testWorkspace(t)
	g, err := w.CreateGroup("Induction", "")
	require.NoError(t, err)
	require.NoError(t, w.AddToGroup(HeadPair{5, 5}, g.ID()))

	require.NoError(t, w.AddSelected(HeadPair{5, 5}))
	assert.False(t, w.IsSelected(HeadPair{5, 5}))
	assert.True(t, g.Has(HeadPair{5, 5}))
	assertPartition(t, w)
}

func TestCreateGroupNameRules(t *testing.T) {
	w := testWorkspace(t)

	_, err := w.CreateGroup("   ", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrEmptyName))

	g, err := w.CreateGroup("Induction", "repeated-token heads")
	require.NoError(t, err)
	assert.Equal(t, "Induction", g.Name())
	assert.Equal(t, "repeated-token heads", g.Description())

	// Case-insensitive duplicate
	_, err = w.CreateGroup("induction", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDuplicateName))

	// Leading/trailing whitespace is trimmed before comparison
	_, err = w.CreateGroup("  INDUCTION  ", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDuplicateName))
}

func TestGroupIDsMonotonic(t *testing.T) {
	w := testWorkspace(t)
	a, err := w.CreateGroup("A", "")
	require.NoError(t, err)
	b, err := w.CreateGroup("B", "")
	require.NoError(t, err)
	w.DeleteGroup(a.ID())
	c, err := w.CreateGroup("C", "")
	require.NoError(t, err)

	assert.Greater(t, b.ID(), a.ID())
	assert.Greater(t, c.ID(), b.ID())
}

func TestDeleteGroupReturnsHeadsToSelection(t *testing.T) {
	w := testWorkspace(t)
	require.NoError(t, w.AddSelected(HeadPair{2, 2}))

	g, err := w.CreateGroup("Name Mover", "")
	require.NoError(t, err)
	require.NoError(t, w.AddToGroup(HeadPair{0, 0}, g.ID()))
	require.NoError(t, w.AddToGroup(HeadPair{1, 2}, g.ID()))

	w.DeleteGroup(g.ID())

	assert.Equal(t, []HeadPair{{0, 0}, {1, 2}, {2, 2}}, w.SelectedHeads())
	_, ok := w.Group(g.ID())
	assert.False(t, ok)
	assertPartition(t, w)
}

func TestDeleteUnknownGroupIsNoop(t *testing.T) {
	w := testWorkspace(t)
	w.DeleteGroup(99)
}

func TestRenameGroup(t *testing.T) {
	w := testWorkspace(t)
	g, err := w.CreateGroup("Induction", "")
	require.NoError(t, err)
	_, err = w.CreateGroup("Name Mover", "")
	require.NoError(t, err)

	require.NoError(t, w.RenameGroup(g.ID(), "Inhibition"))
	assert.Equal(t, "Inhibition", g.Name())

	// Renaming to another group's name fails
	err = w.RenameGroup(g.ID(), "name mover")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDuplicateName))

	// Renaming to its own name (case change) is allowed
	require.NoError(t, w.RenameGroup(g.ID(), "INHIBITION"))
	assert.Equal(t, "INHIBITION", g.Name())

	err = w.RenameGroup(404, "anything")
	require.Error(t, err)
	assert.True(t, errors.IsUnknownGroupError(err))
}

func TestAddToGroupMovesBetweenGroups(t *testing.T) {
	w := testWorkspace(t)
	a, err := w.CreateGroup("A", "")
	require.NoError(t, err)
	b, err := w.CreateGroup("B", "")
	require.NoError(t, err)

	pair := HeadPair{3, 3}
	require.NoError(t, w.ToggleHeadInGroup(pair, a.ID()))
	require.NoError(t, w.ToggleHeadInGroup(pair, b.ID()))

	assert.False(t, a.Has(pair))
	assert.True(t, b.Has(pair))
	assertPartition(t, w)
}

func TestAddToGroupRemovesFromSelection(t *testing.T) {
	w := testWorkspace(t)
	require.NoError(t, w.AddSelected(HeadPair{4, 4}))

	g, err := w.CreateGroup("A", "")
	require.NoError(t, err)
	require.NoError(t, w.AddToGroup(HeadPair{4, 4}, g.ID()))

	assert.False(t, w.IsSelected(HeadPair{4, 4}))
	assert.True(t, g.Has(HeadPair{4, 4}))
	assertPartition(t, w)
}

func TestAddToGroupErrors(t *testing.T) {
	w := testWorkspace(t)
	err := w.AddToGroup(HeadPair{0, 0}, 5)
	require.Error(t, err)
	assert.True(t, errors.IsUnknownGroupError(err))

	g, err := w.CreateGroup("A", "")
	require.NoError(t, err)
	err = w.AddToGroup(HeadPair{-1, 0}, g.ID())
	require.Error(t, err)
	assert.True(t, errors.IsRangeError(err))
}

func TestRemoveFromGroupDoesNotReselect(t *testing.T) {
	w := testWorkspace(t)
	g, err := w.CreateGroup("A", "")
	require.NoError(t, err)
	require.NoError(t, w.AddToGroup(HeadPair{1, 1}, g.ID()))

	require.NoError(t, w.RemoveFromGroup(HeadPair{1, 1}, g.ID()))
	assert.False(t, g.Has(HeadPair{1, 1}))
	assert.False(t, w.IsSelected(HeadPair{1, 1}))
}

func TestRemoveFromGroupAndReselect(t *testing.T) {
	w := testWorkspace(t)
	g, err := w.CreateGroup("A", "")
	require.NoError(t, err)
	require.NoError(t, w.AddToGroup(HeadPair{1, 1}, g.ID()))

	require.NoError(t, w.RemoveFromGroupAndReselect(HeadPair{1, 1}, g.ID()))
	assert.False(t, g.Has(HeadPair{1, 1}))
	assert.True(t, w.IsSelected(HeadPair{1, 1}))

	// Reselect variant on a non-member must not fabricate a selection
	require.NoError(t, w.RemoveFromGroupAndReselect(HeadPair{9, 9}, g.ID()))
	assert.False(t, w.IsSelected(HeadPair{9, 9}))
}

func TestToggleHeadInGroupRemovesMember(t *testing.T) {
	w := testWorkspace(t)
	g, err := w.CreateGroup("A", "")
	require.NoError(t, err)

	pair := HeadPair{6, 7}
	require.NoError(t, w.ToggleHeadInGroup(pair, g.ID()))
	assert.True(t, g.Has(pair))

	require.NoError(t, w.ToggleHeadInGroup(pair, g.ID()))
	assert.False(t, g.Has(pair))
	// Toggle-off leaves the head ungrouped, not reselected
	assert.False(t, w.IsSelected(pair))

	err = w.ToggleHeadInGroup(pair, 404)
	require.Error(t, err)
	assert.True(t, errors.IsUnknownGroupError(err))
}

func TestGroupOf(t *testing.T) {
	w := testWorkspace(t)
	g, err := w.CreateGroup("A", "")
	require.NoError(t, err)
	require.NoError(t, w.AddToGroup(HeadPair{2, 5}, g.ID()))

	id, ok := w.GroupOf(HeadPair{2, 5})
	assert.True(t, ok)
	assert.Equal(t, g.ID(), id)

	_, ok = w.GroupOf(HeadPair{0, 0})
	assert.False(t, ok)
}

func TestVisibleHeads(t *testing.T) {
	w := testWorkspace(t)
	require.NoError(t, w.AddSelected(HeadPair{0, 0}))
	g, err := w.CreateGroup("A", "")
	require.NoError(t, err)
	require.NoError(t, w.AddToGroup(HeadPair{1, 1}, g.ID()))

	visible := w.VisibleHeads()
	assert.Len(t, visible, 2)
	assert.Contains(t, visible, HeadPair{0, 0})
	assert.Contains(t, visible, HeadPair{1, 1})

	// Returned map is a copy
	delete(visible, HeadPair{0, 0})
	assert.True(t, w.IsSelected(HeadPair{0, 0}))
}
