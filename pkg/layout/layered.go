package layout

import (
	"context"

	"github.com/aretw0/promptflow/pkg/domain"
)

// Layered is a dependency-free engine.
//
// Back edges found by a depth-first search from the nodes in order are ignored,
// which makes the rest of the graph acyclic. Each node then sits one rank below
// its deepest parent (longest path via Kahn's algorithm). Ranks keep the input
// order of their nodes and are centered on the widest rank.
type Layered struct{}

func (Layered) Layout(ctx context.Context, nodes []domain.Node, edges []domain.Edge) ([]domain.Node, error) {
	if len(nodes) == 0 {
		return nodes, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	order := make(map[string]int, len(nodes))
	for i, n := range nodes {
		order[n.ID] = i
	}
	children := make(map[string][]string, len(nodes))
	for _, e := range internalEdges(nodes, edges) {
		if e.Source != e.Target {
			children[e.Source] = append(children[e.Source], e.Target)
		}
	}

	forward := acyclic(nodes, children)
	rank := assignRanks(nodes, forward)

	var rows [][]domain.Node
	for _, n := range nodes {
		r := rank[n.ID]
		for len(rows) <= r {
			rows = append(rows, nil)
		}
		rows[r] = append(rows[r], n)
	}

	widths := make([]float64, len(rows))
	heights := make([]float64, len(rows))
	maxWidth := 0.0
	for r, row := range rows {
		for i, n := range row {
			w, h := n.Size()
			widths[r] += w
			if i > 0 {
				widths[r] += NodeSeparation
			}
			heights[r] = max(heights[r], h)
		}
		maxWidth = max(maxWidth, widths[r])
	}

	centers := make(map[string]domain.Position, len(nodes))
	y := 0.0
	for r, row := range rows {
		x := (maxWidth - widths[r]) / 2
		for _, n := range row {
			w, _ := n.Size()
			centers[n.ID] = domain.Position{X: x + w/2, Y: y + heights[r]/2}
			x += w + NodeSeparation
		}
		y += heights[r] + RankSeparation
	}

	return placed(nodes, centers), nil
}

// acyclic drops the edges that close a cycle during a depth-first search.
func acyclic(nodes []domain.Node, children map[string][]string) map[string][]string {
	const (
		unseen = iota
		active
		done
	)
	state := make(map[string]int, len(nodes))
	forward := make(map[string][]string, len(children))

	var visit func(id string)
	visit = func(id string) {
		state[id] = active
		for _, child := range children[id] {
			switch state[child] {
			case unseen:
				forward[id] = append(forward[id], child)
				visit(child)
			case done:
				forward[id] = append(forward[id], child)
			}
		}
		state[id] = done
	}
	for _, n := range nodes {
		if state[n.ID] == unseen {
			visit(n.ID)
		}
	}
	return forward
}

// assignRanks places each node one rank below its deepest parent.
func assignRanks(nodes []domain.Node, children map[string][]string) map[string]int {
	inDegree := make(map[string]int, len(nodes))
	for _, targets := range children {
		for _, t := range targets {
			inDegree[t]++
		}
	}

	rank := make(map[string]int, len(nodes))
	queue := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if inDegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, child := range children[curr] {
			if r := rank[curr] + 1; r > rank[child] {
				rank[child] = r
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}
	return rank
}
