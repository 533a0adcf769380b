package server

import (
	"github.com/circuitlens/circuitlens/attention"
	"github.com/circuitlens/circuitlens/circuit"
	"github.com/circuitlens/circuitlens/errors"
	"github.com/circuitlens/circuitlens/graph"
)

// Session is the single in-memory inspection state: the current
// attention dataset, the head workspace curated against it, and the
// projection threshold. Loading a new dataset replaces the dataset and
// workspace wholesale; there is no history.
type Session struct {
	// Guarded by the owning Server's session lock; Session itself has
	// no mutex so mutation sequences stay atomic at the handler level.
	dataset   *attention.Dataset
	workspace *circuit.Workspace
	threshold float64

	// Last successfully processed request, for duplicate suppression.
	lastText  string
	lastModel string
}

// NewSession creates an empty session with the given default threshold.
func NewSession(threshold float64) *Session {
	return &Session{threshold: threshold}
}

// HasDataset reports whether a dataset is loaded.
func (sn *Session) HasDataset() bool {
	return sn.dataset != nil
}

// IsDuplicate reports whether (text, model) equals the last
// successfully processed request. This is request coalescing for the
// common double-submit, not a concurrency primitive: overlapping
// distinct requests still race and the last one to resolve wins.
func (sn *Session) IsDuplicate(text, model string) bool {
	return sn.dataset != nil && text == sn.lastText && model == sn.lastModel
}

// Install replaces the dataset and workspace. The caller has already
// validated the dataset. Persisted groups, when present, are restored
// with stable ids; otherwise the model's predefined circuit groups are
// seeded. A restore failure falls back to seeds rather than rejecting
// the dataset.
func (sn *Session) Install(ds *attention.Dataset, persisted []circuit.GroupSnapshot) error {
	// The dataset carries one extra token row above the last attention
	// layer, so heads live in layers [0, NumLayers-1).
	bounds := circuit.Bounds{NumLayers: ds.NumLayers - 1, NumHeads: ds.NumHeads}
	ws := circuit.NewWorkspace(bounds)
	sn.lastText, sn.lastModel = "", ""

	if len(persisted) > 0 {
		if err := ws.RestoreGroups(persisted); err != nil {
			ws = circuit.NewWorkspace(bounds)
			ws.ApplySeeds(ds.ModelName)
			sn.dataset = ds
			sn.workspace = ws
			return errors.Wrap(err, "restoring persisted groups, fell back to predefined groups")
		}
	} else {
		ws.ApplySeeds(ds.ModelName)
	}

	sn.dataset = ds
	sn.workspace = ws
	return nil
}

// MarkProcessed records the request behind the current dataset for
// duplicate suppression.
func (sn *Session) MarkProcessed(text, model string) {
	sn.lastText = text
	sn.lastModel = model
}

// Threshold returns the current projection threshold.
func (sn *Session) Threshold() float64 {
	return sn.threshold
}

// SetThreshold updates the projection threshold. Values outside [0, 1]
// are rejected and the previous threshold is retained.
func (sn *Session) SetThreshold(t float64) error {
	if t < 0 || t > 1 {
		return errors.NewRangeError("threshold %v outside [0, 1]", t)
	}
	sn.threshold = t
	return nil
}

// Workspace returns the current workspace, or ErrNoDataset before any
// dataset has been loaded.
func (sn *Session) Workspace() (*circuit.Workspace, error) {
	if sn.workspace == nil {
		return nil, errors.WithHint(errors.ErrNoDataset,
			"process text via POST /api/process or upload a dataset via POST /api/dataset first")
	}
	return sn.workspace, nil
}

// Project renders the current state. With no dataset loaded it returns
// an empty graph rather than an error, so clients always have
// something to draw.
func (sn *Session) Project() *graph.Graph {
	if sn.dataset == nil {
		return graph.Empty()
	}
	return graph.Project(sn.dataset, sn.workspace, sn.threshold)
}

// ProjectAt renders at an explicit threshold without touching the
// session's threshold, for preview queries.
func (sn *Session) ProjectAt(threshold float64) *graph.Graph {
	if sn.dataset == nil {
		return graph.Empty()
	}
	return graph.Project(sn.dataset, sn.workspace, threshold)
}

// DatasetSummary is the GET /api/dataset response shape.
type DatasetSummary struct {
	Model     string   `json:"model"`
	NumLayers int      `json:"numLayers"`
	NumTokens int      `json:"numTokens"`
	NumHeads  int      `json:"numHeads"`
	Tokens    []string `json:"tokens"`
	EdgeCount int      `json:"edgeCount"`
}

// Summary describes the loaded dataset, or ErrNoDataset.
func (sn *Session) Summary() (*DatasetSummary, error) {
	if sn.dataset == nil {
		return nil, errors.ErrNoDataset
	}
	return &DatasetSummary{
		Model:     sn.dataset.ModelName,
		NumLayers: sn.dataset.NumLayers,
		NumTokens: sn.dataset.NumTokens,
		NumHeads:  sn.dataset.NumHeads,
		Tokens:    sn.dataset.Tokens,
		EdgeCount: len(sn.dataset.Edges),
	}, nil
}

// ModelName returns the loaded model's name, or "" with no dataset.
func (sn *Session) ModelName() string {
	if sn.dataset == nil {
		return ""
	}
	return sn.dataset.ModelName
}
