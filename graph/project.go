// Package graph projects an attention dataset and the current circuit
// workspace into a renderable node/link structure for the frontend.
package graph

import (
	"fmt"
	"sort"
	"time"

	"github.com/circuitlens/circuitlens/attention"
	"github.com/circuitlens/circuitlens/circuit"
)

// UngroupedID tags links whose head belongs to no group.
const UngroupedID = -1

// Canvas geometry for advisory layout coordinates. The renderer may
// rescale; only the monotonic ordering is contractual.
const (
	canvasWidth  = 1000.0
	canvasHeight = 800.0
	canvasMargin = 50.0
)

// Project derives the renderable graph from a dataset, a workspace,
// and a weight threshold. It is a pure transform of its inputs: nodes
// cover every (layer, token) position; a link appears iff its weight
// is at or above the threshold and its (sourceLayer, head) pair is in
// the workspace's visible set. Visibility keys on the source layer —
// the layer the head computed its attention at — never the
// destination. Output ordering is deterministic.
func Project(ds *attention.Dataset, ws *circuit.Workspace, threshold float64) *Graph {
	g := &Graph{
		Nodes: make([]Node, 0, ds.NumLayers*ds.NumTokens),
		Links: []Link{},
		Meta: Meta{
			GeneratedAt: time.Now(),
			Model:       ds.ModelName,
			Threshold:   threshold,
		},
	}

	for layer := 0; layer < ds.NumLayers; layer++ {
		for token := 0; token < ds.NumTokens; token++ {
			g.Nodes = append(g.Nodes, Node{
				ID:    nodeID(layer, token),
				Layer: layer,
				Token: token,
				Label: ds.TokenLabel(token),
				X:     axisPosition(token, ds.NumTokens, canvasWidth),
				// Layer 0 at the bottom extremity
				Y: canvasHeight - axisPosition(layer, ds.NumLayers, canvasHeight),
			})
		}
	}

	visible := ws.VisibleHeads()
	groupNames := make(map[int]string)
	for _, grp := range ws.Groups() {
		groupNames[grp.ID()] = grp.Name()
	}

	for _, e := range ds.Edges {
		if e.Weight < threshold {
			continue
		}
		pair := circuit.HeadPair{Layer: e.SourceLayer, Head: e.Head}
		if _, ok := visible[pair]; !ok {
			continue
		}

		link := Link{
			Source:  nodeID(e.SourceLayer, e.SourceToken),
			Target:  nodeID(e.DestLayer, e.DestToken),
			Weight:  e.Weight,
			Head:    e.Head,
			GroupID: UngroupedID,
		}
		if id, grouped := ws.GroupOf(pair); grouped {
			link.GroupID = id
			link.Group = groupNames[id]
		}
		g.Links = append(g.Links, link)
	}

	// Sort links by composite key for deterministic output
	sort.Slice(g.Links, func(i, j int) bool {
		a, b := g.Links[i], g.Links[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		return a.Head < b.Head
	})

	g.Meta.Stats.TotalNodes = len(g.Nodes)
	g.Meta.Stats.TotalEdges = len(g.Links)
	return g
}

// nodeID builds the stable identifier for a (layer, token) node.
func nodeID(layer, token int) string {
	return fmt.Sprintf("l%03dt%03d", layer, token)
}

// axisPosition spaces index i evenly across one canvas axis.
func axisPosition(i, count int, extent float64) float64 {
	if count <= 1 {
		return extent / 2
	}
	return canvasMargin + float64(i)*(extent-2*canvasMargin)/float64(count-1)
}
