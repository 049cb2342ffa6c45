package ports

import (
	"context"

	"github.com/aretw0/promptflow/pkg/schema"
)

// DocumentStore persists flow documents under a name.
// Names are checked with domain.ValidateFlowName before they reach storage.
type DocumentStore interface {
	// Save creates or replaces the document stored under name.
	Save(ctx context.Context, name string, doc schema.Document) error

	// Load retrieves the document stored under name.
	// Returns domain.ErrFlowNotFound if there is none.
	Load(ctx context.Context, name string) (schema.Document, error)

	// Delete removes the document. Deleting a missing flow is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the stored names in ascending order.
	List(ctx context.Context) ([]string, error)
}
