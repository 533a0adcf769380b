// Package attention defines the attention dataset produced by the
// inference backend: per-(layer, head, source-token, destination-token)
// attention weights for one (text, model) pairing, plus token strings
// and the model's layer/head counts.
//
// Datasets are replaced wholesale on every successful processing
// request or sample load, never patched. Every ingress point (backend
// response, uploaded file, sample file) decodes through this package
// so malformed payloads are rejected before they reach the projector.
package attention

import (
	"fmt"

	"github.com/circuitlens/circuitlens/errors"
)

// Edge is one directed attention weight from a token at SourceLayer to
// a token at DestLayer (conventionally SourceLayer+1), produced by a
// specific attention head. Immutable once decoded.
type Edge struct {
	SourceLayer int     `json:"sourceLayer"`
	SourceToken int     `json:"sourceToken"`
	DestLayer   int     `json:"destLayer"`
	DestToken   int     `json:"destToken"`
	Weight      float64 `json:"weight"`
	Head        int     `json:"head"`
}

// Dataset holds the complete attention data for one (text, model)
// pairing.
type Dataset struct {
	NumLayers int      `json:"numLayers"`
	NumTokens int      `json:"numTokens"`
	NumHeads  int      `json:"numHeads"`
	Tokens    []string `json:"tokens,omitempty"`
	Edges     []Edge   `json:"attentionPatterns"`
	ModelName string   `json:"model_name,omitempty"`
}

// TokenLabel returns the token string at position i, falling back to a
// positional label when token strings were not supplied.
func (d *Dataset) TokenLabel(i int) string {
	if i >= 0 && i < len(d.Tokens) {
		return d.Tokens[i]
	}
	return fmt.Sprintf("t%d", i)
}

// Validate checks the dataset against its own declared bounds. It
// returns a schema error for structurally invalid dimensions and a
// range error for any edge referencing an out-of-bounds layer, token,
// head, or a weight outside [0,1].
func (d *Dataset) Validate() error {
	if d.NumLayers < 1 {
		return errors.NewSchemaError("numLayers must be >= 1, got %d", d.NumLayers)
	}
	if d.NumTokens < 1 {
		return errors.NewSchemaError("numTokens must be >= 1, got %d", d.NumTokens)
	}
	if d.NumHeads < 1 {
		return errors.NewSchemaError("numHeads must be >= 1, got %d", d.NumHeads)
	}
	if d.Tokens != nil && len(d.Tokens) != d.NumTokens {
		return errors.NewSchemaError("tokens length %d does not match numTokens %d", len(d.Tokens), d.NumTokens)
	}

	for i, e := range d.Edges {
		if e.SourceLayer < 0 || e.SourceLayer >= d.NumLayers {
			return errors.NewRangeError("edge %d: sourceLayer %d outside [0,%d)", i, e.SourceLayer, d.NumLayers)
		}
		if e.DestLayer < 0 || e.DestLayer >= d.NumLayers {
			return errors.NewRangeError("edge %d: destLayer %d outside [0,%d)", i, e.DestLayer, d.NumLayers)
		}
		if e.SourceToken < 0 || e.SourceToken >= d.NumTokens {
			return errors.NewRangeError("edge %d: sourceToken %d outside [0,%d)", i, e.SourceToken, d.NumTokens)
		}
		if e.DestToken < 0 || e.DestToken >= d.NumTokens {
			return errors.NewRangeError("edge %d: destToken %d outside [0,%d)", i, e.DestToken, d.NumTokens)
		}
		if e.Head < 0 || e.Head >= d.NumHeads {
			return errors.NewRangeError("edge %d: head %d outside [0,%d)", i, e.Head, d.NumHeads)
		}
		if e.Weight < 0 || e.Weight > 1 {
			return errors.NewRangeError("edge %d: weight %g outside [0,1]", i, e.Weight)
		}
	}

	return nil
}
