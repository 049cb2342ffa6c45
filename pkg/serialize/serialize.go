// Package serialize maps between the editor graph and the persisted document.
package serialize

import (
	"context"
	"fmt"

	"github.com/aretw0/promptflow/pkg/domain"
	"github.com/aretw0/promptflow/pkg/ids"
	"github.com/aretw0/promptflow/pkg/layout"
	"github.com/aretw0/promptflow/pkg/schema"
)

// ResolveStartNodeID picks the start of an exported document: the explicit
// start, else the first node, else the empty string.
func ResolveStartNodeID(startNodeID string, nodes []domain.Node) string {
	if startNodeID != "" {
		return startNodeID
	}
	if len(nodes) > 0 {
		return nodes[0].ID
	}
	return ""
}

// ResolveLabel picks the label of an imported node: the explicit label, else
// its id. An explicit empty label is kept.
func ResolveLabel(n schema.Node) string {
	if n.Label != nil {
		return *n.Label
	}
	return n.ID
}

// ResolvePosition picks the position of an imported node: the explicit one, else the origin.
func ResolvePosition(n schema.Node) domain.Position {
	if n.Position != nil {
		return domain.Position{X: n.Position.X, Y: n.Position.Y}
	}
	return domain.Position{}
}

// ToSchema builds the persisted form of g. Edges are nested under their source
// node and keep their relative order.
func ToSchema(g domain.Graph) schema.Document {
	bySource := make(map[string][]domain.Edge)
	for _, e := range g.Edges {
		bySource[e.Source] = append(bySource[e.Source], e)
	}

	nodes := make([]schema.Node, len(g.Nodes))
	for i, n := range g.Nodes {
		out := bySource[n.ID]
		edges := make([]schema.Edge, len(out))
		for j, e := range out {
			edges[j] = schema.Edge{
				ToNodeID:   e.Target,
				Condition:  e.Condition,
				Parameters: exportParameters(e.Parameters),
			}
		}
		nodes[i] = schema.Node{
			ID:          n.ID,
			Label:       schema.StringPtr(n.Label),
			Description: n.Description,
			Prompt:      n.Prompt,
			Edges:       edges,
			Position:    &schema.Position{X: n.Position.X, Y: n.Position.Y},
		}
	}

	return schema.Document{
		StartNodeID: ResolveStartNodeID(g.StartNodeID, g.Nodes),
		Nodes:       nodes,
	}
}

// exportParameters copies non-empty parameter maps; empty ones are left out of
// the document.
func exportParameters(params map[string]string) map[string]string {
	if len(params) == 0 {
		return nil
	}
	return domain.CloneParameters(params)
}

type options struct {
	ids    ids.Generator
	layout layout.Engine
}

// Option configures FromSchema.
type Option func(*options)

// WithIDGenerator sets the generator used for edge ids.
func WithIDGenerator(gen ids.Generator) Option {
	return func(o *options) { o.ids = gen }
}

// WithLayout sets the engine used when positions are missing.
func WithLayout(engine layout.Engine) Option {
	return func(o *options) { o.layout = engine }
}

// FromSchema builds a graph from a document that already passed validation.
//
// Edges receive fresh ids. When any node lacks a position, the whole node set is
// positioned by the layout engine (layout.Layered if none is configured). The
// start node id is copied as is.
func FromSchema(ctx context.Context, doc schema.Document, opts ...Option) (domain.Graph, error) {
	o := options{ids: ids.Default, layout: layout.Layered{}}
	for _, opt := range opts {
		opt(&o)
	}

	nodes := make([]domain.Node, len(doc.Nodes))
	var edges []domain.Edge
	for i, sn := range doc.Nodes {
		nodes[i] = domain.Node{
			ID:          sn.ID,
			Label:       ResolveLabel(sn),
			Description: sn.Description,
			Prompt:      sn.Prompt,
			Position:    ResolvePosition(sn),
		}
		for _, se := range sn.Edges {
			edges = append(edges, domain.Edge{
				ID:         o.ids.NewID(),
				Source:     sn.ID,
				Target:     se.ToNodeID,
				Condition:  se.Condition,
				Parameters: domain.CloneParameters(se.Parameters),
			})
		}
	}
	if edges == nil {
		edges = []domain.Edge{}
	}

	if !doc.HasAllPositions() {
		laidOut, err := o.layout.Layout(ctx, nodes, edges)
		if err != nil {
			return domain.Graph{}, fmt.Errorf("auto layout: %w", err)
		}
		nodes = laidOut
	}

	return domain.Graph{
		Nodes:       nodes,
		Edges:       edges,
		StartNodeID: doc.StartNodeID,
	}, nil
}
