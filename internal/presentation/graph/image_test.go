package graph_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/promptflow/internal/presentation/graph"
	"github.com/aretw0/promptflow/pkg/schema"
)

func TestRenderImage(t *testing.T) {
	doc := schema.Document{StartNodeID: "a", Nodes: []schema.Node{
		{ID: "a", Edges: []schema.Edge{{ToNodeID: "b", Condition: "next"}}},
		{ID: "b"},
	}}

	out, err := graph.RenderImage(context.Background(), doc, graph.SVG)
	if err != nil {
		t.Skipf("graphviz runtime unavailable: %v", err)
	}
	if !strings.Contains(string(out), "<svg") {
		t.Errorf("expected SVG output, got %q", string(out[:min(len(out), 80)]))
	}
}

func TestRenderImage_UnknownFormat(t *testing.T) {
	_, err := graph.RenderImage(context.Background(), schema.Document{}, "gif")
	if err == nil {
		t.Error("expected error for unsupported format")
	}
}
