package dsl

import (
	"github.com/aretw0/promptflow/pkg/analysis"
	"github.com/aretw0/promptflow/pkg/domain"
	"github.com/aretw0/promptflow/pkg/schema"
)

// Builder manages the flow construction.
type Builder struct {
	order []string
	nodes map[string]*NodeBuilder
	start string
}

// New creates a new flow builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[string]*NodeBuilder),
	}
}

// Add creates a new node in the flow.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node:    schema.Node{ID: id, Edges: []schema.Edge{}},
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Start sets the entry node. Without it the first added node is the start.
func (b *Builder) Start(id string) *Builder {
	b.start = id
	return b
}

// Document assembles the nodes in the order they were added, without validating.
func (b *Builder) Document() schema.Document {
	doc := schema.Document{StartNodeID: b.start, Nodes: make([]schema.Node, 0, len(b.order))}
	if doc.StartNodeID == "" && len(b.order) > 0 {
		doc.StartNodeID = b.order[0]
	}
	for _, id := range b.order {
		doc.Nodes = append(doc.Nodes, b.nodes[id].Node())
	}
	return doc
}

// Validate runs the full validation of the assembled document.
func (b *Builder) Validate() domain.Result {
	return analysis.ValidateAll(b.Document())
}

// Build returns the document, or an *schema.AggregateError when it has errors.
// Warnings do not fail the build.
func (b *Builder) Build() (schema.Document, error) {
	doc := b.Document()
	if err := schema.Check(doc); err != nil {
		return schema.Document{}, err
	}
	return doc, nil
}
