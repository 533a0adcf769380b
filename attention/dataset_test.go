package attention

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circuitlens/circuitlens/errors"
)

func validDataset() *Dataset {
	return &Dataset{
		NumLayers: 3,
		NumTokens: 2,
		NumHeads:  4,
		Tokens:    []string{"The", " cat"},
		Edges: []Edge{
			{SourceLayer: 0, SourceToken: 0, DestLayer: 1, DestToken: 1, Weight: 0.5, Head: 0},
			{SourceLayer: 1, SourceToken: 1, DestLayer: 2, DestToken: 0, Weight: 1.0, Head: 3},
		},
	}
}

func TestValidateAccepts(t *testing.T) {
	require.NoError(t, validDataset().Validate())
}

func TestValidateDimensions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Dataset)
	}{
		{"zero layers", func(d *Dataset) { d.NumLayers = 0 }},
		{"zero tokens", func(d *Dataset) { d.NumTokens = 0 }},
		{"negative heads", func(d *Dataset) { d.NumHeads = -1 }},
		{"token count mismatch", func(d *Dataset) { d.Tokens = []string{"only"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := validDataset()
			tt.mutate(ds)
			err := ds.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsSchemaError(err), "expected schema error, got: %v", err)
		})
	}
}

func TestValidateEdgeBounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Edge)
	}{
		{"sourceLayer too large", func(e *Edge) { e.SourceLayer = 3 }},
		{"destLayer negative", func(e *Edge) { e.DestLayer = -1 }},
		{"sourceToken too large", func(e *Edge) { e.SourceToken = 2 }},
		{"destToken too large", func(e *Edge) { e.DestToken = 5 }},
		{"head too large", func(e *Edge) { e.Head = 4 }},
		{"weight above one", func(e *Edge) { e.Weight = 1.01 }},
		{"weight negative", func(e *Edge) { e.Weight = -0.1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := validDataset()
			tt.mutate(&ds.Edges[0])
			err := ds.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsRangeError(err), "expected range error, got: %v", err)
		})
	}
}

func TestValidateTokensOptional(t *testing.T) {
	ds := validDataset()
	ds.Tokens = nil
	require.NoError(t, ds.Validate())
}

func TestTokenLabelFallback(t *testing.T) {
	ds := validDataset()
	assert.Equal(t, "The", ds.TokenLabel(0))
	assert.Equal(t, " cat", ds.TokenLabel(1))

	ds.Tokens = nil
	assert.Equal(t, "t0", ds.TokenLabel(0))
	assert.Equal(t, "t7", ds.TokenLabel(7))
}

func TestDecodeDataset(t *testing.T) {
	payload := `{
		"numLayers": 2, "numTokens": 2, "numHeads": 1,
		"tokens": ["a", "b"],
		"attentionPatterns": [
			{"sourceLayer": 0, "sourceToken": 0, "destLayer": 1, "destToken": 1, "weight": 0.25, "head": 0}
		],
		"model_name": "gpt2-small"
	}`

	ds, err := DecodeDataset(strings.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, 2, ds.NumLayers)
	assert.Equal(t, "gpt2-small", ds.ModelName)
	require.Len(t, ds.Edges, 1)
	assert.Equal(t, 0.25, ds.Edges[0].Weight)
}

func TestDecodeDatasetMissingField(t *testing.T) {
	payload := `{"numLayers": 2, "numTokens": 2, "attentionPatterns": []}`
	_, err := DecodeDataset(strings.NewReader(payload))
	require.Error(t, err)
	assert.True(t, errors.IsSchemaError(err))
	assert.Contains(t, err.Error(), "numHeads")
}

func TestDecodeDatasetWrongType(t *testing.T) {
	payload := `{"numLayers": "two", "numTokens": 2, "numHeads": 1, "attentionPatterns": []}`
	_, err := DecodeDataset(strings.NewReader(payload))
	require.Error(t, err)
	assert.True(t, errors.IsSchemaError(err))
}

func TestDecodeDatasetInvalidJSON(t *testing.T) {
	_, err := DecodeDatasetBytes([]byte("{not json"))
	require.Error(t, err)
	assert.True(t, errors.IsSchemaError(err))
}

func TestDecodeDatasetOutOfBoundsEdge(t *testing.T) {
	payload := `{
		"numLayers": 2, "numTokens": 2, "numHeads": 1,
		"attentionPatterns": [
			{"sourceLayer": 0, "sourceToken": 0, "destLayer": 1, "destToken": 1, "weight": 0.25, "head": 9}
		]
	}`
	_, err := DecodeDataset(strings.NewReader(payload))
	require.Error(t, err)
	assert.True(t, errors.IsRangeError(err))
}
