package layout

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/promptflow/pkg/domain"
)

func chain() ([]domain.Node, []domain.Edge) {
	nodes := []domain.Node{
		{ID: "a", Label: "A", Prompt: "keep me"},
		{ID: "b", Label: "B"},
		{ID: "c", Label: "C"},
	}
	edges := []domain.Edge{
		{ID: "e1", Source: "a", Target: "b"},
		{ID: "e2", Source: "b", Target: "c"},
		{ID: "e3", Source: "c", Target: "a"}, // back edge
		{ID: "e4", Source: "a", Target: "ghost"},
	}
	return nodes, edges
}

func TestLayered(t *testing.T) {
	nodes, edges := chain()

	out, err := Layered{}.Layout(context.Background(), nodes, edges)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, domain.Position{X: 0, Y: 0}, out[0].Position)
	assert.Equal(t, domain.Position{X: 0, Y: 160}, out[1].Position)
	assert.Equal(t, domain.Position{X: 0, Y: 320}, out[2].Position)
	assert.Equal(t, "keep me", out[0].Prompt, "only positions may change")
	assert.Equal(t, domain.Position{}, nodes[1].Position, "input must not be modified")
}

func TestLayered_SiblingsShareRank(t *testing.T) {
	nodes := []domain.Node{{ID: "root"}, {ID: "left"}, {ID: "right"}}
	edges := []domain.Edge{
		{Source: "root", Target: "left"},
		{Source: "root", Target: "right"},
	}

	out, err := Layered{}.Layout(context.Background(), nodes, edges)
	require.NoError(t, err)

	assert.Equal(t, out[1].Position.Y, out[2].Position.Y)
	assert.Equal(t, 250.0, out[2].Position.X-out[1].Position.X, "width plus node separation")
	// the single root is centered over its two children
	assert.Equal(t, 125.0, out[0].Position.X)
}

func TestLayered_Empty(t *testing.T) {
	out, err := Layered{}.Layout(context.Background(), nil, nil)
	assert.NoError(t, err)
	assert.Empty(t, out)
}

func TestFallback(t *testing.T) {
	failing := Func(func(context.Context, []domain.Node, []domain.Edge) ([]domain.Node, error) {
		return nil, errors.New("boom")
	})
	nodes, edges := chain()

	out, err := NewFallback(nil, failing, Layered{}).Layout(context.Background(), nodes, edges)
	require.NoError(t, err)
	assert.Len(t, out, 3)

	_, err = NewFallback(nil, failing).Layout(context.Background(), nodes, edges)
	assert.ErrorIs(t, err, ErrLayoutFailed)
}

func TestFallback_LogsFailure(t *testing.T) {
	failing := Func(func(context.Context, []domain.Node, []domain.Edge) ([]domain.Node, error) {
		return nil, errors.New("boom")
	})
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	nodes, edges := chain()

	_, err := NewFallback(logger, failing, Layered{}).Layout(context.Background(), nodes, edges)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"err":"boom"`)
	assert.Contains(t, buf.String(), `"engine":"layout.Func"`)
}

func TestParsePositions(t *testing.T) {
	nodes := []domain.Node{{ID: "a"}, {ID: "b"}}
	out := `digraph flow {
	graph [bb="0,0,200,240",
		nodesep=0.6944,
		rankdir=TB,
		ranksep=1.1111
	];
	node [fixedsize=true,
		label="",
		shape=box
	];
	n0	[height=1.1111,
		pos="100,200",
		width=2.7778];
	n1	[height=1.1111,
		pos="100,40",
		width=2.7778];
	n0 -> n1	[pos="e,100,80.5 100,159.5 100,130 100,110 100,90"];
}
`
	centers, err := parsePositions(out, nodes)
	require.NoError(t, err)
	assert.Equal(t, domain.Position{X: 100, Y: 40}, centers["a"])
	assert.Equal(t, domain.Position{X: 100, Y: 200}, centers["b"])

	placedNodes := placed(nodes, centers)
	assert.Equal(t, domain.Position{X: 0, Y: 0}, placedNodes[0].Position)
}

func TestToDOT(t *testing.T) {
	nodes, edges := chain()
	dot := ToDOT(nodes, edges)

	assert.Contains(t, dot, "rankdir=TB;")
	assert.Contains(t, dot, "n0 -> n1;")
	assert.Contains(t, dot, "n2 -> n0;")
	assert.NotContains(t, dot, "ghost")
}

func TestGraphviz(t *testing.T) {
	engine := NewGraphviz()
	defer engine.Close()

	nodes, edges := chain()
	out, err := engine.Layout(context.Background(), nodes, edges)
	if err != nil {
		t.Skipf("graphviz runtime unavailable: %v", err)
	}
	require.Len(t, out, 3)
	assert.Less(t, out[0].Position.Y, out[1].Position.Y, "a is ranked above b")
	assert.Less(t, out[1].Position.Y, out[2].Position.Y, "b is ranked above c")
}
