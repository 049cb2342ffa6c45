package layout

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-graphviz"

	"github.com/aretw0/promptflow/pkg/domain"
)

// pointsPerInch converts canvas units to the inches Graphviz expects for sizes.
const pointsPerInch = 72.0

// Graphviz lays nodes out with the dot engine.
//
// The Graphviz runtime is created on first use and reused; calls are serialized.
// Call Close to release it.
type Graphviz struct {
	mu sync.Mutex
	gv *graphviz.Graphviz
}

// NewGraphviz creates an engine. No resources are allocated until Layout runs.
func NewGraphviz() *Graphviz {
	return &Graphviz{}
}

func (g *Graphviz) Layout(ctx context.Context, nodes []domain.Node, edges []domain.Edge) ([]domain.Node, error) {
	if len(nodes) == 0 {
		return nodes, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.gv == nil {
		gv, err := graphviz.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("init graphviz: %w", err)
		}
		g.gv = gv
	}

	graph, err := graphviz.ParseBytes([]byte(ToDOT(nodes, edges)))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer graph.Close()

	var buf bytes.Buffer
	if err := g.gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	centers, err := parsePositions(buf.String(), nodes)
	if err != nil {
		return nil, err
	}
	return placed(nodes, centers), nil
}

// Close releases the Graphviz runtime.
func (g *Graphviz) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gv == nil {
		return nil
	}
	err := g.gv.Close()
	g.gv = nil
	return err
}

// ToDOT describes the nodes and edges as a DOT digraph. Nodes are named n0..nN by
// input order so arbitrary ids never need escaping.
func ToDOT(nodes []domain.Node, edges []domain.Edge) string {
	var buf bytes.Buffer
	buf.WriteString("digraph flow {\n")
	buf.WriteString("  rankdir=TB;\n")
	fmt.Fprintf(&buf, "  nodesep=%.4f;\n", NodeSeparation/pointsPerInch)
	fmt.Fprintf(&buf, "  ranksep=%.4f;\n", RankSeparation/pointsPerInch)
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n\n")

	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
		w, h := n.Size()
		fmt.Fprintf(&buf, "  n%d [width=%.4f, height=%.4f];\n", i, w/pointsPerInch, h/pointsPerInch)
	}

	buf.WriteString("\n")
	for _, e := range internalEdges(nodes, edges) {
		fmt.Fprintf(&buf, "  n%d -> n%d;\n", index[e.Source], index[e.Target])
	}

	buf.WriteString("}\n")
	return buf.String()
}

var (
	nodeLineRe = regexp.MustCompile(`(?m)^\s*"?n(\d+)"?\s*\[([^\]]*)\]`)
	posRe      = regexp.MustCompile(`\bpos="(-?[0-9.e+-]+),(-?[0-9.e+-]+)"`)
	bbRe       = regexp.MustCompile(`\bbb="(-?[0-9.]+),(-?[0-9.]+),(-?[0-9.]+),(-?[0-9.]+)"`)
)

// parsePositions extracts node centers from laid-out DOT. Graphviz puts the
// origin at the bottom-left, so y is flipped against the bounding box.
func parsePositions(out string, nodes []domain.Node) (map[string]domain.Position, error) {
	out = strings.ReplaceAll(out, "\\\n", "")

	top := 0.0
	if m := bbRe.FindStringSubmatch(out); m != nil {
		top, _ = strconv.ParseFloat(m[4], 64)
	}

	centers := make(map[string]domain.Position, len(nodes))
	for _, m := range nodeLineRe.FindAllStringSubmatch(out, -1) {
		i, err := strconv.Atoi(m[1])
		if err != nil || i >= len(nodes) {
			continue
		}
		pos := posRe.FindStringSubmatch(m[2])
		if pos == nil {
			continue
		}
		x, errX := strconv.ParseFloat(pos[1], 64)
		y, errY := strconv.ParseFloat(pos[2], 64)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("bad position for node %s: %q", nodes[i].ID, m[2])
		}
		centers[nodes[i].ID] = domain.Position{X: x, Y: top - y}
	}

	if len(centers) == 0 {
		return nil, fmt.Errorf("no node positions in graphviz output")
	}
	return centers, nil
}
