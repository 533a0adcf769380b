package attention

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/circuitlens/circuitlens/errors"
)

// datasetWire mirrors the backend response shape with pointer fields so
// missing required keys can be distinguished from zero values.
type datasetWire struct {
	NumLayers *int     `json:"numLayers"`
	NumTokens *int     `json:"numTokens"`
	NumHeads  *int     `json:"numHeads"`
	Tokens    []string `json:"tokens"`
	Edges     *[]Edge  `json:"attentionPatterns"`
	ModelName string   `json:"model_name"`
}

// DecodeDataset parses and validates a dataset payload. The payload is
// never trusted: missing or wrong-typed required fields yield a schema
// error, out-of-bounds indices yield a range error. Only a dataset that
// passes both gates is returned.
func DecodeDataset(r io.Reader) (*Dataset, error) {
	var wire datasetWire
	dec := json.NewDecoder(r)
	if err := dec.Decode(&wire); err != nil {
		return nil, errors.Wrap(errors.ErrSchema, err.Error())
	}

	if wire.NumLayers == nil {
		return nil, errors.NewSchemaError("missing required field %q", "numLayers")
	}
	if wire.NumTokens == nil {
		return nil, errors.NewSchemaError("missing required field %q", "numTokens")
	}
	if wire.NumHeads == nil {
		return nil, errors.NewSchemaError("missing required field %q", "numHeads")
	}
	if wire.Edges == nil {
		return nil, errors.NewSchemaError("missing required field %q", "attentionPatterns")
	}

	ds := &Dataset{
		NumLayers: *wire.NumLayers,
		NumTokens: *wire.NumTokens,
		NumHeads:  *wire.NumHeads,
		Tokens:    wire.Tokens,
		Edges:     *wire.Edges,
		ModelName: wire.ModelName,
	}

	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// DecodeDatasetBytes is DecodeDataset over an in-memory payload.
func DecodeDatasetBytes(data []byte) (*Dataset, error) {
	return DecodeDataset(bytes.NewReader(data))
}
