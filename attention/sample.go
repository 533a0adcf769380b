package attention

import (
	"encoding/json"
	"hash/fnv"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/circuitlens/circuitlens/errors"
)

// ModelSpec describes the layer/head geometry of a supported model.
type ModelSpec struct {
	Layers int
	Heads  int
}

// SampleModels lists the models sample data can be generated for,
// matching the geometries served by the inference backend.
var SampleModels = map[string]ModelSpec{
	"gpt2-small":  {Layers: 12, Heads: 12},
	"gpt2-medium": {Layers: 24, Heads: 16},
	"distilgpt2":  {Layers: 6, Heads: 12},
}

// sampleText is the prompt sample datasets are generated for. The
// indirect-object-identification sentence keeps the predefined circuit
// groups meaningful against sample data.
var sampleTokens = []string{
	"When", " Mary", " and", " John", " went", " to", " the",
	" store", ",", " John", " gave", " a", " drink", " to",
}

// SampleFileName returns the on-disk name for a model's sample dataset.
func SampleFileName(model string) string {
	return "sample-attention-" + model + ".json"
}

// GenerateSample produces a deterministic synthetic dataset for the
// named model: causal attention (a token only attends to itself and
// earlier positions), each destination token's incoming weights
// normalized to sum to 1. The same model name always yields the same
// dataset, so fixtures are reproducible without the inference backend.
func GenerateSample(model string) (*Dataset, error) {
	spec, ok := SampleModels[model]
	if !ok {
		return nil, errors.Newf("no sample geometry for model %q", model)
	}

	h := fnv.New64a()
	h.Write([]byte(model))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	numTokens := len(sampleTokens)
	var edges []Edge
	for layer := 0; layer < spec.Layers; layer++ {
		for head := 0; head < spec.Heads; head++ {
			for dst := 0; dst < numTokens; dst++ {
				// Raw causal scores over positions [0, dst]
				raw := make([]float64, dst+1)
				var sum float64
				for src := 0; src <= dst; src++ {
					raw[src] = rng.Float64()
					sum += raw[src]
				}
				for src := 0; src <= dst; src++ {
					edges = append(edges, Edge{
						SourceLayer: layer,
						SourceToken: src,
						DestLayer:   layer + 1,
						DestToken:   dst,
						Weight:      raw[src] / sum,
						Head:        head,
					})
				}
			}
		}
	}

	ds := &Dataset{
		// +1 because the graph shows both source and destination layers
		NumLayers: spec.Layers + 1,
		NumTokens: numTokens,
		NumHeads:  spec.Heads,
		Tokens:    append([]string(nil), sampleTokens...),
		Edges:     edges,
		ModelName: model,
	}
	if err := ds.Validate(); err != nil {
		return nil, errors.Wrap(err, "generated sample failed validation")
	}
	return ds, nil
}

// WriteSampleFile generates and writes a model's sample dataset under dir.
func WriteSampleFile(dir, model string) (string, error) {
	ds, err := GenerateSample(model)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create sample directory %s", dir)
	}

	path := filepath.Join(dir, SampleFileName(model))
	data, err := json.Marshal(ds)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal sample dataset")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "failed to write sample file %s", path)
	}
	return path, nil
}

// LoadSampleFile reads and validates a model's sample dataset from dir.
func LoadSampleFile(dir, model string) (*Dataset, error) {
	path := filepath.Join(dir, SampleFileName(model))
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sample file %s", path)
	}
	defer f.Close()

	ds, err := DecodeDataset(f)
	if err != nil {
		return nil, errors.Wrapf(err, "sample file %s", path)
	}
	if ds.ModelName == "" {
		ds.ModelName = model
	}
	return ds, nil
}

// ListSampleModels returns the model names that have sample files in
// dir, sorted by filename.
func ListSampleModels(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sample directory %s", dir)
	}

	var models []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "sample-attention-") || !strings.HasSuffix(name, ".json") {
			continue
		}
		model := strings.TrimSuffix(strings.TrimPrefix(name, "sample-attention-"), ".json")
		if model != "" {
			models = append(models, model)
		}
	}
	return models, nil
}
