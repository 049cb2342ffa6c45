package graph

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/aretw0/promptflow/pkg/schema"
)

// ImageFormat is an output format of RenderImage.
type ImageFormat string

const (
	SVG ImageFormat = "svg"
	PNG ImageFormat = "png"
)

// ContentType returns the MIME type of the format.
func (f ImageFormat) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// GenerateDOT describes a document as a labelled DOT digraph for rendering.
// Nodes are named n0..nN by document order; edges to undeclared nodes are dropped.
func GenerateDOT(doc schema.Document) string {
	var sb strings.Builder
	sb.WriteString("digraph flow {\n")
	sb.WriteString("  rankdir=TB;\n")
	sb.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=\"#f5f5f5\", fontname=\"Helvetica\"];\n")
	sb.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n\n")

	index := make(map[string]int, len(doc.Nodes))
	for i, n := range doc.Nodes {
		index[n.ID] = i
	}

	for i, n := range doc.Nodes {
		label := n.DisplayLabel()
		attrs := fmt.Sprintf("label=\"%s\"", escapeDOT(label))
		if n.ID == doc.StartNodeID {
			attrs += ", peripheries=2"
		}
		fmt.Fprintf(&sb, "  n%d [%s];\n", i, attrs)
	}

	sb.WriteString("\n")
	for i, n := range doc.Nodes {
		for _, e := range n.Edges {
			to, ok := index[e.ToNodeID]
			if !ok {
				continue
			}
			fmt.Fprintf(&sb, "  n%d -> n%d [label=\"%s\"];\n", i, to, escapeDOT(e.Condition))
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

// RenderImage draws a document with the Graphviz dot engine.
func RenderImage(ctx context.Context, doc schema.Document, format ImageFormat) ([]byte, error) {
	var gvFormat graphviz.Format
	switch format {
	case SVG:
		gvFormat = graphviz.SVG
	case PNG:
		gvFormat = graphviz.PNG
	default:
		return nil, fmt.Errorf("unsupported image format %q", format)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	graph, err := graphviz.ParseBytes([]byte(GenerateDOT(doc)))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer graph.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, gvFormat, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

func escapeDOT(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	return strings.ReplaceAll(s, "\n", "\\n")
}
