package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/promptflow/pkg/ports"
	"github.com/aretw0/promptflow/pkg/schema"
)

// Mask replaces the value of a masked edge parameter.
const Mask = "***"

type maskMiddleware struct {
	next     ports.DocumentStore
	patterns []*regexp.Regexp
}

// NewMaskMiddleware creates a middleware that masks the values of edge
// parameters whose key matches one of the patterns, so credentials typed into
// a flow are never persisted. The caller's document is not modified.
func NewMaskMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid mask pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.DocumentStore) ports.DocumentStore {
		return &maskMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *maskMiddleware) Save(ctx context.Context, name string, doc schema.Document) error {
	masked := doc.Clone()
	for i := range masked.Nodes {
		for j := range masked.Nodes[i].Edges {
			m.mask(masked.Nodes[i].Edges[j].Parameters)
		}
	}
	return m.next.Save(ctx, name, masked)
}

func (m *maskMiddleware) Load(ctx context.Context, name string) (schema.Document, error) {
	return m.next.Load(ctx, name)
}

func (m *maskMiddleware) Delete(ctx context.Context, name string) error {
	return m.next.Delete(ctx, name)
}

func (m *maskMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *maskMiddleware) mask(params map[string]string) {
	for k := range params {
		for _, p := range m.patterns {
			if p.MatchString(k) {
				params[k] = Mask
				break
			}
		}
	}
}
