package schema

import "maps"

// Document is the persisted form of a flow.
type Document struct {
	StartNodeID string `json:"startNodeId" yaml:"startNodeId" mapstructure:"startNodeId"`
	Nodes       []Node `json:"nodes" yaml:"nodes" mapstructure:"nodes"`
}

// Node is a flow node with its outgoing edges nested.
type Node struct {
	ID          string    `json:"id" yaml:"id" mapstructure:"id"`
	Label       *string   `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`
	Description string    `json:"description" yaml:"description" mapstructure:"description"`
	Prompt      string    `json:"prompt" yaml:"prompt" mapstructure:"prompt"`
	Edges       []Edge    `json:"edges" yaml:"edges" mapstructure:"edges"`
	Position    *Position `json:"position,omitempty" yaml:"position,omitempty" mapstructure:"position"`
}

// Edge is an outgoing transition of a Node.
type Edge struct {
	ToNodeID   string            `json:"to_node_id" yaml:"to_node_id" mapstructure:"to_node_id"`
	Condition  string            `json:"condition" yaml:"condition" mapstructure:"condition"`
	Parameters map[string]string `json:"parameters,omitempty" yaml:"parameters,omitempty" mapstructure:"parameters"`
}

// Position is an explicit canvas position.
type Position struct {
	X float64 `json:"x" yaml:"x" mapstructure:"x"`
	Y float64 `json:"y" yaml:"y" mapstructure:"y"`
}

// StringPtr returns a pointer to s, for optional document fields.
func StringPtr(s string) *string { return &s }

// DisplayLabel returns the label, or the id when the label is absent or empty.
func (n Node) DisplayLabel() string {
	if n.Label != nil && *n.Label != "" {
		return *n.Label
	}
	return n.ID
}

// Node returns the node with the given id.
func (d Document) Node(id string) (Node, bool) {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// HasAllPositions reports whether every node carries an explicit position.
func (d Document) HasAllPositions() bool {
	for _, n := range d.Nodes {
		if n.Position == nil {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	if d.Nodes == nil {
		return d
	}
	nodes := make([]Node, len(d.Nodes))
	for i, n := range d.Nodes {
		if n.Label != nil {
			n.Label = StringPtr(*n.Label)
		}
		if n.Position != nil {
			pos := *n.Position
			n.Position = &pos
		}
		if n.Edges != nil {
			edges := make([]Edge, len(n.Edges))
			for j, e := range n.Edges {
				if e.Parameters != nil {
					e.Parameters = maps.Clone(e.Parameters)
				}
				edges[j] = e
			}
			n.Edges = edges
		}
		nodes[i] = n
	}
	d.Nodes = nodes
	return d
}

// normalized replaces nil slices so the document encodes as [] instead of null.
func (d Document) normalized() Document {
	nodes := make([]Node, len(d.Nodes))
	for i, n := range d.Nodes {
		if n.Edges == nil {
			n.Edges = []Edge{}
		}
		nodes[i] = n
	}
	d.Nodes = nodes
	return d
}

// generic converts a typed document into the decoded-JSON shape Validate expects.
// A nil label is absent; an empty one is present and fails validation.
func (d Document) generic() map[string]any {
	nodes := make([]any, len(d.Nodes))
	for i, n := range d.Nodes {
		edges := make([]any, len(n.Edges))
		for j, e := range n.Edges {
			edge := map[string]any{
				"to_node_id": e.ToNodeID,
				"condition":  e.Condition,
			}
			if e.Parameters != nil {
				params := make(map[string]any, len(e.Parameters))
				for k, v := range e.Parameters {
					params[k] = v
				}
				edge["parameters"] = params
			}
			edges[j] = edge
		}
		node := map[string]any{
			"id":          n.ID,
			"description": n.Description,
			"prompt":      n.Prompt,
			"edges":       edges,
		}
		if n.Label != nil {
			node["label"] = *n.Label
		}
		if n.Position != nil {
			node["position"] = map[string]any{"x": n.Position.X, "y": n.Position.Y}
		}
		nodes[i] = node
	}
	return map[string]any{
		"startNodeId": d.StartNodeID,
		"nodes":       nodes,
	}
}
