package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circuitlens/circuitlens/errors"
)

var specBounds = Bounds{NumLayers: 4, NumHeads: 4}

func TestParseSingleHead(t *testing.T) {
	pairs, err := ParseHeadSpecifier("2,3", specBounds)
	require.NoError(t, err)
	assert.Equal(t, []HeadPair{{2, 3}}, pairs)
}

func TestParseWhitespaceTolerated(t *testing.T) {
	pairs, err := ParseHeadSpecifier("  2 , 3  ", specBounds)
	require.NoError(t, err)
	assert.Equal(t, []HeadPair{{2, 3}}, pairs)
}

func TestParseLayerWildcard(t *testing.T) {
	pairs, err := ParseHeadSpecifier("1,:", specBounds)
	require.NoError(t, err)
	assert.Equal(t, []HeadPair{{1, 0}, {1, 1}, {1, 2}, {1, 3}}, pairs)
}

func TestParseHeadWildcard(t *testing.T) {
	pairs, err := ParseHeadSpecifier(":,2", specBounds)
	require.NoError(t, err)
	assert.Equal(t, []HeadPair{{0, 2}, {1, 2}, {2, 2}, {3, 2}}, pairs)
}

func TestParseFullWildcard(t *testing.T) {
	pairs, err := ParseHeadSpecifier(":,:", specBounds)
	require.NoError(t, err)
	assert.Len(t, pairs, 16)
	assert.Equal(t, HeadPair{0, 0}, pairs[0])
	assert.Equal(t, HeadPair{3, 3}, pairs[15])
}

func TestParseFirstLineOnly(t *testing.T) {
	pairs, err := ParseHeadSpecifier("1,1\n2,2\n3,3", specBounds)
	require.NoError(t, err)
	assert.Equal(t, []HeadPair{{1, 1}}, pairs)
}

func TestParseMalformed(t *testing.T) {
	for _, spec := range []string{"", "1", "1,2,3", "a,b", "1;2", "1.5,2", ",", "-,:"} {
		_, err := ParseHeadSpecifier(spec, specBounds)
		require.Error(t, err, "spec %q", spec)
		assert.True(t, errors.IsParseError(err), "spec %q: %v", spec, err)
	}
}

func TestParseOutOfBounds(t *testing.T) {
	for _, spec := range []string{"5,0", "0,4", "-1,0", "0,-2", "4,:"} {
		_, err := ParseHeadSpecifier(spec, specBounds)
		require.Error(t, err, "spec %q", spec)
		assert.True(t, errors.IsRangeError(err), "spec %q: %v", spec, err)
	}
}

func TestApplySpecifierSkipsSelectedAndGrouped(t *testing.T) {
	w := NewWorkspace(specBounds)
	require.NoError(t, w.AddSelected(HeadPair{1, 0}))

	g, err := w.CreateGroup("Induction", "")
	require.NoError(t, err)
	require.NoError(t, w.AddToGroup(HeadPair{1, 2}, g.ID()))

	added, err := w.ApplySpecifier("1,:")
	require.NoError(t, err)
	assert.Equal(t, []HeadPair{{1, 1}, {1, 3}}, added)

	// Selection now covers 1,0 1,1 1,3; 1,2 stays grouped
	assert.Equal(t, []HeadPair{{1, 0}, {1, 1}, {1, 3}}, w.SelectedHeads())
	assert.True(t, g.Has(HeadPair{1, 2}))
}

func TestApplySpecifierPropagatesErrors(t *testing.T) {
	w := NewWorkspace(specBounds)
	_, err := w.ApplySpecifier("9,9")
	require.Error(t, err)
	assert.True(t, errors.IsRangeError(err))
	assert.Empty(t, w.SelectedHeads())
}
