// Package layout computes canvas positions for flows whose documents carry none.
//
// Every engine arranges nodes top to bottom with 50 units between neighbours of
// the same rank and 80 units between ranks. Nodes are boxes of their measured
// size (200x80 by default) and the returned position is the top-left corner of
// the box. Engines never change anything but positions.
package layout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/promptflow/pkg/domain"
)

// Spacing used by all engines, in canvas units.
const (
	NodeSeparation = 50.0
	RankSeparation = 80.0
)

// ErrLayoutFailed wraps any failure of a layout engine.
var ErrLayoutFailed = errors.New("layout failed")

// Engine positions nodes.
type Engine interface {
	Layout(ctx context.Context, nodes []domain.Node, edges []domain.Edge) ([]domain.Node, error)
}

// Func adapts a function to the Engine interface.
type Func func(ctx context.Context, nodes []domain.Node, edges []domain.Edge) ([]domain.Node, error)

func (f Func) Layout(ctx context.Context, nodes []domain.Node, edges []domain.Edge) ([]domain.Node, error) {
	return f(ctx, nodes, edges)
}

// Fallback tries each engine in order and returns the first success.
type Fallback struct {
	Engines []Engine
	Logger  *slog.Logger
}

// NewFallback chains engines.
func NewFallback(logger *slog.Logger, engines ...Engine) *Fallback {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Fallback{Engines: engines, Logger: logger}
}

func (f *Fallback) Layout(ctx context.Context, nodes []domain.Node, edges []domain.Edge) ([]domain.Node, error) {
	var errs []error
	for _, engine := range f.Engines {
		out, err := engine.Layout(ctx, nodes, edges)
		if err == nil {
			return out, nil
		}
		f.Logger.Warn("Layout engine failed, trying next", "engine", fmt.Sprintf("%T", engine), "err", err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nodes, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrLayoutFailed, errors.Join(errs...))
}

// Default returns Graphviz with the pure-Go layered engine as fallback.
func Default(logger *slog.Logger) Engine {
	return NewFallback(logger, NewGraphviz(), Layered{})
}

// internalEdges keeps the edges whose endpoints are both in the node set.
func internalEdges(nodes []domain.Node, edges []domain.Edge) []domain.Edge {
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}
	out := make([]domain.Edge, 0, len(edges))
	for _, e := range edges {
		if known[e.Source] && known[e.Target] {
			out = append(out, e)
		}
	}
	return out
}

// placed returns a copy of nodes with the positions of the given centers applied.
func placed(nodes []domain.Node, centers map[string]domain.Position) []domain.Node {
	out := make([]domain.Node, len(nodes))
	for i, n := range nodes {
		if c, ok := centers[n.ID]; ok {
			w, h := n.Size()
			n.Position = domain.Position{X: c.X - w/2, Y: c.Y - h/2}
		}
		out[i] = n
	}
	return out
}
