package graph

import (
	"time"
)

// Graph is the renderable projection of an attention dataset under the
// current selection and threshold.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
	Meta  Meta   `json:"meta"`
}

// Node is one (layer, token) position. Layout coordinates are advisory
// for the renderer; the ordering contract (X monotonic in token, Y
// monotonic in layer) is what downstream code may rely on.
type Node struct {
	ID    string  `json:"id"`
	Layer int     `json:"layer"`
	Token int     `json:"token"`
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Link is one attention edge that survived the visibility and
// threshold filters.
type Link struct {
	Source  string  `json:"source"`           // Node ID
	Target  string  `json:"target"`           // Node ID
	Weight  float64 `json:"value"`            // D3 uses "value"
	Head    int     `json:"head"`             // Head index at the source layer
	GroupID int     `json:"groupId"`          // Owning group id, or UngroupedID
	Group   string  `json:"group,omitempty"`  // Owning group name, empty when ungrouped
}

// Meta contains metadata about the projection.
type Meta struct {
	GeneratedAt time.Time `json:"generated_at"`
	Model       string    `json:"model,omitempty"`
	Threshold   float64   `json:"threshold"`
	Stats       Stats     `json:"stats"`
}

// Stats provides projection statistics.
type Stats struct {
	TotalNodes int `json:"total_nodes,omitempty"`
	TotalEdges int `json:"total_edges,omitempty"`
}

// Empty returns a graph with no nodes or links, for clients connecting
// before any dataset is loaded.
func Empty() *Graph {
	return &Graph{
		Nodes: []Node{},
		Links: []Link{},
		Meta:  Meta{GeneratedAt: time.Now()},
	}
}
