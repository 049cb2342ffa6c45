package store

import (
	"slices"

	"github.com/aretw0/promptflow/pkg/domain"
)

// ChangeKind is the type of an incremental canvas change.
type ChangeKind string

const (
	ChangePosition   ChangeKind = "position"
	ChangeSelect     ChangeKind = "select"
	ChangeDimensions ChangeKind = "dimensions"
	ChangeRemove     ChangeKind = "remove"
)

// NodeChange is a delta reported by the canvas for a single node.
type NodeChange struct {
	Type     ChangeKind       `json:"type"`
	ID       string           `json:"id"`
	Position *domain.Position `json:"position,omitempty"`
	Selected bool             `json:"selected,omitempty"`
	Width    float64          `json:"width,omitempty"`
	Height   float64          `json:"height,omitempty"`
}

// EdgeChange is a delta reported by the canvas for a single edge.
type EdgeChange struct {
	Type     ChangeKind `json:"type"`
	ID       string     `json:"id"`
	Selected bool       `json:"selected,omitempty"`
}

func hasRemoval[C NodeChange | EdgeChange](changes []C, kind func(C) ChangeKind) bool {
	return slices.ContainsFunc(changes, func(c C) bool { return kind(c) == ChangeRemove })
}

// OnNodesChange applies canvas deltas to the nodes. Only batches containing a
// removal are recorded in history and re-validated. Removing a node this way
// clears the start and the focus if they pointed at it, but leaves its edges in place.
func (s *Store) OnNodesChange(changes []NodeChange) {
	if len(changes) == 0 {
		return
	}
	prev := s.graph
	tracked := hasRemoval(changes, func(c NodeChange) ChangeKind { return c.Type })
	if tracked {
		s.pushSnapshot()
	}

	removed := make(map[string]bool)
	byID := make(map[string][]NodeChange)
	for _, c := range changes {
		if c.Type == ChangeRemove {
			removed[c.ID] = true
			continue
		}
		byID[c.ID] = append(byID[c.ID], c)
	}

	g := prev
	nodes := make([]domain.Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if removed[n.ID] {
			continue
		}
		for _, c := range byID[n.ID] {
			n = applyNodeChange(n, c)
		}
		nodes = append(nodes, n)
	}
	g.Nodes = nodes
	if removed[g.StartNodeID] {
		g.StartNodeID = ""
	}
	s.clearSelectionOf(removed)
	s.graph = g

	if tracked {
		s.Validate()
		s.publish(domain.ChangeMutation, "nodes_change", prev)
		return
	}
	s.publish(domain.ChangeTransient, "nodes_change", prev)
}

func applyNodeChange(n domain.Node, c NodeChange) domain.Node {
	switch c.Type {
	case ChangePosition:
		if c.Position != nil {
			n.Position = *c.Position
		}
	case ChangeSelect:
		n.Selected = c.Selected
	case ChangeDimensions:
		n.Width, n.Height = c.Width, c.Height
	}
	return n
}

// OnEdgesChange applies canvas deltas to the edges. Only batches containing a
// removal are recorded in history and re-validated.
func (s *Store) OnEdgesChange(changes []EdgeChange) {
	if len(changes) == 0 {
		return
	}
	prev := s.graph
	tracked := hasRemoval(changes, func(c EdgeChange) ChangeKind { return c.Type })
	if tracked {
		s.pushSnapshot()
	}

	removed := make(map[string]bool)
	selected := make(map[string]bool)
	for _, c := range changes {
		switch c.Type {
		case ChangeRemove:
			removed[c.ID] = true
		case ChangeSelect:
			selected[c.ID] = c.Selected
		}
	}

	g := prev
	edges := make([]domain.Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		if removed[e.ID] {
			continue
		}
		if sel, ok := selected[e.ID]; ok {
			e.Selected = sel
		}
		edges = append(edges, e)
	}
	g.Edges = edges
	s.graph = g

	if tracked {
		s.Validate()
		s.publish(domain.ChangeMutation, "edges_change", prev)
		return
	}
	s.publish(domain.ChangeTransient, "edges_change", prev)
}
