package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circuitlens/circuitlens/circuit"
	"github.com/circuitlens/circuitlens/logger"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "groups.db"), logger.Logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)

	groups := []circuit.GroupSnapshot{
		{ID: 1, Name: "Name Mover", Description: "IOI", Heads: []circuit.HeadPair{{Layer: 9, Head: 6}, {Layer: 9, Head: 9}}},
		{ID: 2, Name: "Induction", Heads: []circuit.HeadPair{{Layer: 5, Head: 5}}},
	}
	require.NoError(t, s.SaveGroups("gpt2-small", groups))

	loaded, err := s.LoadGroups("gpt2-small")
	require.NoError(t, err)
	assert.Equal(t, groups, loaded)
}

func TestSaveReplacesExisting(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveGroups("gpt2-small", []circuit.GroupSnapshot{
		{ID: 1, Name: "Old", Heads: []circuit.HeadPair{{Layer: 0, Head: 0}}},
	}))
	require.NoError(t, s.SaveGroups("gpt2-small", []circuit.GroupSnapshot{
		{ID: 3, Name: "New", Heads: []circuit.HeadPair{{Layer: 1, Head: 1}}},
	}))

	loaded, err := s.LoadGroups("gpt2-small")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "New", loaded[0].Name)
}

func TestModelsAreIsolated(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveGroups("gpt2-small", []circuit.GroupSnapshot{
		{ID: 1, Name: "Small Only", Heads: []circuit.HeadPair{}},
	}))

	loaded, err := s.LoadGroups("distilgpt2")
	require.NoError(t, err)
	assert.Empty(t, loaded)

	has, err := s.HasGroups("gpt2-small")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = s.HasGroups("distilgpt2")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestLoadUnknownModel(t *testing.T) {
	s := openTestStore(t)
	loaded, err := s.LoadGroups("missing")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestEmptyGroupPersists(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveGroups("m", []circuit.GroupSnapshot{
		{ID: 1, Name: "Empty", Heads: []circuit.HeadPair{}},
	}))

	loaded, err := s.LoadGroups("m")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Empty(t, loaded[0].Heads)
}
