package dsl

import (
	"maps"

	"github.com/aretw0/promptflow/pkg/domain"
	"github.com/aretw0/promptflow/pkg/schema"
)

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    schema.Node
	builder *Builder
}

// Label sets the display label.
func (n *NodeBuilder) Label(label string) *NodeBuilder {
	n.node.Label = schema.StringPtr(label)
	return n
}

// Describe sets the description of the node.
func (n *NodeBuilder) Describe(description string) *NodeBuilder {
	n.node.Description = description
	return n
}

// Prompt sets the prompt text of the node.
func (n *NodeBuilder) Prompt(prompt string) *NodeBuilder {
	n.node.Prompt = prompt
	return n
}

// At pins the node to a canvas position.
func (n *NodeBuilder) At(x, y float64) *NodeBuilder {
	n.node.Position = &schema.Position{X: x, Y: y}
	return n
}

// Go adds a transition to the target node. An empty condition gets the
// default condition text.
func (n *NodeBuilder) Go(target, condition string) *NodeBuilder {
	if condition == "" {
		condition = domain.DefaultCondition
	}
	n.node.Edges = append(n.node.Edges, schema.Edge{
		ToNodeID:  target,
		Condition: condition,
	})
	return n
}

// Param attaches a parameter to the last transition added by Go.
// It does nothing when the node has no transition.
func (n *NodeBuilder) Param(key, value string) *NodeBuilder {
	if len(n.node.Edges) == 0 {
		return n
	}
	last := &n.node.Edges[len(n.node.Edges)-1]
	if last.Parameters == nil {
		last.Parameters = make(map[string]string)
	}
	last.Parameters[key] = value
	return n
}

// Terminal marks the node as the end of a path by dropping its transitions.
func (n *NodeBuilder) Terminal() *NodeBuilder {
	n.node.Edges = []schema.Edge{}
	return n
}

// Add continues the chain with another node of the same builder.
func (n *NodeBuilder) Add(id string) *NodeBuilder {
	return n.builder.Add(id)
}

// Start sets the entry node of the builder.
func (n *NodeBuilder) Start(id string) *Builder {
	return n.builder.Start(id)
}

// Build builds the whole flow.
func (n *NodeBuilder) Build() (schema.Document, error) {
	return n.builder.Build()
}

// Node returns a copy of the configured node.
func (n *NodeBuilder) Node() schema.Node {
	node := n.node
	node.Edges = make([]schema.Edge, len(n.node.Edges))
	for i, e := range n.node.Edges {
		if e.Parameters != nil {
			e.Parameters = maps.Clone(e.Parameters)
		}
		node.Edges[i] = e
	}
	if n.node.Position != nil {
		pos := *n.node.Position
		node.Position = &pos
	}
	return node
}
