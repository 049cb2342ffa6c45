package store

import (
	"slices"

	"github.com/aretw0/promptflow/pkg/domain"
)

// nextNodePosition places a new node below and to the right of the last one.
func (s *Store) nextNodePosition() domain.Position {
	if n := len(s.graph.Nodes); n > 0 {
		return s.graph.Nodes[n-1].Position.Add(domain.NewNodeOffset)
	}
	return domain.FirstNodePosition
}

// AddNode appends a node with default data and returns it.
func (s *Store) AddNode() domain.Node {
	node := domain.Node{
		ID:       s.ids.NewID(),
		Label:    domain.DefaultNodeLabel,
		Position: s.nextNodePosition(),
	}
	s.mutate("add_node", func(g domain.Graph) domain.Graph {
		g.Nodes = append(slices.Clip(g.Nodes), node)
		return g
	})
	return node
}

// DeleteNode removes a node together with every edge that starts or ends at it.
// It returns the number of removed edges, or 0 when the node does not exist.
func (s *Store) DeleteNode(id string) int {
	if !s.graph.HasNode(id) {
		return 0
	}
	removed := s.graph.IncidentEdges(id)
	s.mutate("delete_node", func(g domain.Graph) domain.Graph {
		g.Nodes = slices.DeleteFunc(slices.Clone(g.Nodes), func(n domain.Node) bool {
			return n.ID == id
		})
		g.Edges = slices.DeleteFunc(slices.Clone(g.Edges), func(e domain.Edge) bool {
			return e.Source == id || e.Target == id
		})
		if g.StartNodeID == id {
			g.StartNodeID = ""
		}
		s.clearSelectionOf(map[string]bool{id: true})
		return g
	})
	return removed
}

// UpdateNodeData merges patch into the data of a node. Unknown ids are ignored.
func (s *Store) UpdateNodeData(id string, patch domain.NodePatch) {
	i := s.graph.NodeIndex(id)
	if i < 0 {
		return
	}
	s.mutate("update_node", func(g domain.Graph) domain.Graph {
		g.Nodes = slices.Clone(g.Nodes)
		g.Nodes[i] = patch.Apply(g.Nodes[i])
		return g
	})
}

// SetStartNode marks the entry node. The empty id clears it; unknown ids are ignored.
func (s *Store) SetStartNode(id string) {
	if id != "" && !s.graph.HasNode(id) {
		return
	}
	s.mutate("set_start_node", func(g domain.Graph) domain.Graph {
		g.StartNodeID = id
		return g
	})
}
