package serialize

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/promptflow/pkg/domain"
	"github.com/aretw0/promptflow/pkg/ids"
	"github.com/aretw0/promptflow/pkg/layout"
	"github.com/aretw0/promptflow/pkg/schema"
)

func sampleGraph() domain.Graph {
	return domain.Graph{
		Nodes: []domain.Node{
			{ID: "welcome", Label: "Welcome", Description: "Greets", Prompt: "Say hi", Position: domain.Position{X: 10, Y: 20}},
			{ID: "ask", Label: "Ask", Description: "Asks", Prompt: "What do you need?", Position: domain.Position{X: 30, Y: 140}},
			{ID: "end", Label: "End", Description: "Closes", Prompt: "Bye", Position: domain.Position{X: 30, Y: 260}},
		},
		Edges: []domain.Edge{
			{ID: "e1", Source: "welcome", Target: "ask", Condition: "always", Parameters: map[string]string{}},
			{ID: "e2", Source: "ask", Target: "end", Condition: "done", Parameters: map[string]string{"mode": "fast"}},
			{ID: "e3", Source: "ask", Target: "ask", Condition: "retry", Parameters: map[string]string{}},
		},
		StartNodeID: "welcome",
	}
}

func TestToSchema(t *testing.T) {
	doc := ToSchema(sampleGraph())

	assert.Equal(t, "welcome", doc.StartNodeID)
	require.Len(t, doc.Nodes, 3)
	assert.Equal(t, []schema.Edge{
		{ToNodeID: "end", Condition: "done", Parameters: map[string]string{"mode": "fast"}},
		{ToNodeID: "ask", Condition: "retry"},
	}, doc.Nodes[1].Edges)
	assert.Empty(t, doc.Nodes[2].Edges)
	assert.NotNil(t, doc.Nodes[2].Edges, "nodes without edges still carry a list")
	assert.Equal(t, &schema.Position{X: 30, Y: 140}, doc.Nodes[1].Position)
}

func TestResolveStartNodeID(t *testing.T) {
	nodes := []domain.Node{{ID: "first"}, {ID: "second"}}

	assert.Equal(t, "second", ResolveStartNodeID("second", nodes))
	assert.Equal(t, "first", ResolveStartNodeID("", nodes))
	assert.Equal(t, "", ResolveStartNodeID("", nil))
}

func TestFromSchema_Defaults(t *testing.T) {
	doc := schema.Document{
		StartNodeID: "a",
		Nodes: []schema.Node{
			{ID: "a", Description: "d", Prompt: "p", Position: &schema.Position{X: 5, Y: 6},
				Edges: []schema.Edge{{ToNodeID: "b", Condition: "c"}}},
			{ID: "b", Label: schema.StringPtr("Bee"), Description: "d", Prompt: "p", Position: &schema.Position{X: 1, Y: 2}},
		},
	}

	g, err := FromSchema(context.Background(), doc, WithIDGenerator(ids.NewSequence("edge")))
	require.NoError(t, err)

	assert.Equal(t, "a", g.Nodes[0].Label, "label falls back to id")
	assert.Equal(t, "Bee", g.Nodes[1].Label)
	assert.Equal(t, domain.Position{X: 5, Y: 6}, g.Nodes[0].Position)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "edge-1", g.Edges[0].ID)
	assert.Equal(t, "a", g.Edges[0].Source)
	assert.NotNil(t, g.Edges[0].Parameters)
	assert.Equal(t, "a", g.StartNodeID)
}

func TestFromSchema_LayoutIsAllOrNothing(t *testing.T) {
	doc := schema.Document{
		StartNodeID: "a",
		Nodes: []schema.Node{
			{ID: "a", Description: "d", Prompt: "p", Position: &schema.Position{X: 999, Y: 999}},
			{ID: "b", Description: "d", Prompt: "p"},
		},
	}

	calls := 0
	engine := layout.Func(func(ctx context.Context, nodes []domain.Node, edges []domain.Edge) ([]domain.Node, error) {
		calls++
		assert.Equal(t, domain.Position{}, nodes[1].Position, "missing positions start at the origin")
		out := make([]domain.Node, len(nodes))
		for i, n := range nodes {
			n.Position = domain.Position{X: float64(i), Y: float64(i)}
			out[i] = n
		}
		return out, nil
	})

	g, err := FromSchema(context.Background(), doc, WithLayout(engine))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, domain.Position{X: 0, Y: 0}, g.Nodes[0].Position, "explicit positions are recomputed too")
	assert.Equal(t, domain.Position{X: 1, Y: 1}, g.Nodes[1].Position)

	doc.Nodes[1].Position = &schema.Position{X: 3, Y: 4}
	_, err = FromSchema(context.Background(), doc, WithLayout(engine))
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "layout is skipped when every node is placed")
}

func TestRoundTrip(t *testing.T) {
	original := sampleGraph()

	g, err := FromSchema(context.Background(), ToSchema(original))
	require.NoError(t, err)

	ignoreIDs := cmpopts.IgnoreFields(domain.Edge{}, "ID")
	if diff := cmp.Diff(original, g, ignoreIDs, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	for i := range g.Edges {
		assert.NotEqual(t, original.Edges[i].ID, g.Edges[i].ID, "edge ids are regenerated")
	}
}

func TestRoundTrip_EmptyLabel(t *testing.T) {
	original := sampleGraph()
	original.Nodes[1].Label = ""

	doc := ToSchema(original)
	require.NotNil(t, doc.Nodes[1].Label)
	assert.Empty(t, *doc.Nodes[1].Label)

	g, err := FromSchema(context.Background(), doc)
	require.NoError(t, err)
	assert.Empty(t, g.Nodes[1].Label, "an explicit empty label is not replaced by the id")
	assert.Equal(t, "Welcome", g.Nodes[0].Label)
}

func TestRoundTrip_WithoutStart(t *testing.T) {
	original := sampleGraph()
	original.StartNodeID = ""

	g, err := FromSchema(context.Background(), ToSchema(original))
	require.NoError(t, err)
	assert.Equal(t, "welcome", g.StartNodeID, "export falls back to the first node")
}
