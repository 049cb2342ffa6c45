package store

import (
	"context"
	"time"

	"github.com/aretw0/promptflow/pkg/domain"
	"github.com/aretw0/promptflow/pkg/schema"
	"github.com/aretw0/promptflow/pkg/serialize"
)

// ImportResult reports the outcome of ImportJSON.
type ImportResult struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors,omitempty"`
}

// Document returns the persisted form of the current graph.
func (s *Store) Document() schema.Document {
	return serialize.ToSchema(s.graph)
}

// ExportJSON renders the current graph as an indented JSON document.
func (s *Store) ExportJSON() (string, error) {
	data, err := schema.Marshal(s.Document(), schema.FormatJSON)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ImportJSON replaces the whole graph with a JSON document. On failure the store
// is left untouched and Errors holds one line per problem.
func (s *Store) ImportJSON(data []byte) ImportResult {
	doc, err := schema.ParseBytes(data, schema.FormatJSON)
	if err != nil {
		s.metrics.ObserveImport(false)
		s.logger.Debug("Import rejected", "err", err)
		return ImportResult{Success: false, Errors: schema.Messages(err)}
	}
	if err := s.ImportDocument(context.Background(), doc); err != nil {
		return ImportResult{Success: false, Errors: schema.Messages(err)}
	}
	return ImportResult{Success: true}
}

// ImportDocument replaces the whole graph with a typed document. The history
// and the focus are cleared. Invalid documents are rejected with an
// *schema.AggregateError and leave the store untouched.
func (s *Store) ImportDocument(ctx context.Context, doc schema.Document) error {
	if err := schema.Check(doc); err != nil {
		s.metrics.ObserveImport(false)
		return err
	}
	if err := s.hydrate(ctx, doc, domain.ChangeImport, "import"); err != nil {
		s.metrics.ObserveImport(false)
		return err
	}
	s.metrics.ObserveImport(true)
	return nil
}

// Restore replaces the whole graph with a previously saved document without
// checking it first, so drafts with open issues can be reopened. The history
// and the focus are cleared.
func (s *Store) Restore(ctx context.Context, doc schema.Document) error {
	return s.hydrate(ctx, doc, domain.ChangeImport, "restore")
}

func (s *Store) hydrate(ctx context.Context, doc schema.Document, typ domain.ChangeType, op string) error {
	start := time.Now()
	g, err := serialize.FromSchema(ctx, doc,
		serialize.WithIDGenerator(s.ids),
		serialize.WithLayout(s.layout),
	)
	if err != nil {
		s.logger.Warn("Import failed", "op", op, "err", err)
		return err
	}
	if !doc.HasAllPositions() {
		s.metrics.ObserveLayout(time.Since(start))
	}

	prev := s.graph
	s.graph = g
	s.past = nil
	s.future = nil
	s.clearSelection()
	s.Validate()
	s.logger.Info("Flow imported",
		"op", op,
		"nodes", len(g.Nodes),
		"edges", len(g.Edges),
		"valid", s.result.Valid,
	)
	s.publish(typ, op, prev)
	return nil
}
