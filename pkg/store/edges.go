package store

import (
	"slices"

	"github.com/aretw0/promptflow/pkg/domain"
)

// IsValidConnection reports whether a connection may become a new edge: both
// endpoints are set, they differ, and no edge links the same pair yet.
func (s *Store) IsValidConnection(c domain.Connection) bool {
	if c.Source == "" || c.Target == "" {
		return false
	}
	if c.Source == c.Target {
		return false
	}
	return !s.graph.Connects(c.Source, c.Target)
}

// AddEdge creates an edge with default data. It does nothing when an endpoint
// is missing and does not check for duplicates; use IsValidConnection first.
func (s *Store) AddEdge(c domain.Connection) (domain.Edge, bool) {
	if c.Source == "" || c.Target == "" {
		return domain.Edge{}, false
	}
	edge := domain.Edge{
		ID:           s.ids.NewID(),
		Source:       c.Source,
		Target:       c.Target,
		Condition:    domain.DefaultCondition,
		Parameters:   map[string]string{},
		SourceHandle: c.SourceHandle,
		TargetHandle: c.TargetHandle,
	}
	s.mutate("add_edge", func(g domain.Graph) domain.Graph {
		g.Edges = append(slices.Clip(g.Edges), edge)
		return g
	})
	return edge, true
}

// DeleteEdge removes an edge. Unknown ids are ignored.
func (s *Store) DeleteEdge(id string) {
	if !s.graph.HasEdge(id) {
		return
	}
	s.mutate("delete_edge", func(g domain.Graph) domain.Graph {
		g.Edges = slices.DeleteFunc(slices.Clone(g.Edges), func(e domain.Edge) bool {
			return e.ID == id
		})
		return g
	})
}

// UpdateEdgeData merges patch into the data of an edge. Unknown ids are ignored.
func (s *Store) UpdateEdgeData(id string, patch domain.EdgePatch) {
	i := s.graph.EdgeIndex(id)
	if i < 0 {
		return
	}
	s.mutate("update_edge", func(g domain.Graph) domain.Graph {
		g.Edges = slices.Clone(g.Edges)
		g.Edges[i] = patch.Apply(g.Edges[i])
		return g
	})
}

// UpdateEdgeTarget re-points an edge. Both the edge and the new target must exist.
func (s *Store) UpdateEdgeTarget(id, target string) {
	i := s.graph.EdgeIndex(id)
	if i < 0 || !s.graph.HasNode(target) {
		return
	}
	s.mutate("update_edge_target", func(g domain.Graph) domain.Graph {
		g.Edges = slices.Clone(g.Edges)
		g.Edges[i].Target = target
		return g
	})
}
