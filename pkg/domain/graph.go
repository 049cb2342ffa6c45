package domain

// Graph is the aggregate edited by the store.
//
// A Graph published by the store is never modified in place: mutations build new
// slices, so history snapshots can keep plain references to earlier values.
// StartNodeID is empty when no start node is set.
type Graph struct {
	Nodes       []Node `json:"nodes"`
	Edges       []Edge `json:"edges"`
	StartNodeID string `json:"start_node_id,omitempty"`
}

// NodeIndex returns the position of the node with the given id, or -1.
func (g Graph) NodeIndex(id string) int {
	for i, n := range g.Nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// HasNode reports whether a node with the given id exists.
func (g Graph) HasNode(id string) bool {
	return g.NodeIndex(id) >= 0
}

// Node returns the node with the given id.
func (g Graph) Node(id string) (Node, bool) {
	if i := g.NodeIndex(id); i >= 0 {
		return g.Nodes[i], true
	}
	return Node{}, false
}

// EdgeIndex returns the position of the edge with the given id, or -1.
func (g Graph) EdgeIndex(id string) int {
	for i, e := range g.Edges {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// HasEdge reports whether an edge with the given id exists.
func (g Graph) HasEdge(id string) bool {
	return g.EdgeIndex(id) >= 0
}

// Edge returns the edge with the given id.
func (g Graph) Edge(id string) (Edge, bool) {
	if i := g.EdgeIndex(id); i >= 0 {
		return g.Edges[i], true
	}
	return Edge{}, false
}

// Connects reports whether an edge from source to target already exists.
func (g Graph) Connects(source, target string) bool {
	for _, e := range g.Edges {
		if e.Source == source && e.Target == target {
			return true
		}
	}
	return false
}

// IncidentEdges counts the edges that start or end at the given node.
func (g Graph) IncidentEdges(id string) int {
	count := 0
	for _, e := range g.Edges {
		if e.Source == id || e.Target == id {
			count++
		}
	}
	return count
}

// IsEmpty reports whether the graph holds no nodes and no edges.
func (g Graph) IsEmpty() bool {
	return len(g.Nodes) == 0 && len(g.Edges) == 0 && g.StartNodeID == ""
}
