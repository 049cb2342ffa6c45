package domain

import (
	"maps"
	"slices"
)

// GraphDiff represents the changes between two graphs.
// It is designed to be serialized to JSON for partial updates on the client.
type GraphDiff struct {
	AddedNodes   []string `json:"added_nodes,omitempty"`
	RemovedNodes []string `json:"removed_nodes,omitempty"`
	UpdatedNodes []string `json:"updated_nodes,omitempty"`

	AddedEdges   []string `json:"added_edges,omitempty"`
	RemovedEdges []string `json:"removed_edges,omitempty"`
	UpdatedEdges []string `json:"updated_edges,omitempty"`

	// StartNodeID is set when the start pointer changed; it points at the new
	// value, which may be empty when the start was cleared.
	StartNodeID *string `json:"start_node_id,omitempty"`
}

// DiffGraphs calculates the difference between prev and next.
// It returns nil when nothing changed.
func DiffGraphs(prev, next Graph) *GraphDiff {
	diff := &GraphDiff{}

	oldNodes := make(map[string]Node, len(prev.Nodes))
	for _, n := range prev.Nodes {
		oldNodes[n.ID] = n
	}
	for _, n := range next.Nodes {
		old, ok := oldNodes[n.ID]
		switch {
		case !ok:
			diff.AddedNodes = append(diff.AddedNodes, n.ID)
		case old != n:
			diff.UpdatedNodes = append(diff.UpdatedNodes, n.ID)
		}
		delete(oldNodes, n.ID)
	}
	diff.RemovedNodes = sortedKeys(oldNodes)

	oldEdges := make(map[string]Edge, len(prev.Edges))
	for _, e := range prev.Edges {
		oldEdges[e.ID] = e
	}
	for _, e := range next.Edges {
		old, ok := oldEdges[e.ID]
		switch {
		case !ok:
			diff.AddedEdges = append(diff.AddedEdges, e.ID)
		case !sameEdge(old, e):
			diff.UpdatedEdges = append(diff.UpdatedEdges, e.ID)
		}
		delete(oldEdges, e.ID)
	}
	diff.RemovedEdges = sortedKeys(oldEdges)

	if prev.StartNodeID != next.StartNodeID {
		start := next.StartNodeID
		diff.StartNodeID = &start
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *GraphDiff) IsEmpty() bool {
	return len(d.AddedNodes) == 0 &&
		len(d.RemovedNodes) == 0 &&
		len(d.UpdatedNodes) == 0 &&
		len(d.AddedEdges) == 0 &&
		len(d.RemovedEdges) == 0 &&
		len(d.UpdatedEdges) == 0 &&
		d.StartNodeID == nil
}

func sameEdge(a, b Edge) bool {
	return a.Source == b.Source &&
		a.Target == b.Target &&
		a.Condition == b.Condition &&
		a.SourceHandle == b.SourceHandle &&
		a.TargetHandle == b.TargetHandle &&
		a.Selected == b.Selected &&
		maps.Equal(a.Parameters, b.Parameters)
}

func sortedKeys[V any](m map[string]V) []string {
	if len(m) == 0 {
		return nil
	}
	return slices.Sorted(maps.Keys(m))
}
