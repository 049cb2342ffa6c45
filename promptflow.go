package promptflow

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/promptflow/pkg/analysis"
	"github.com/aretw0/promptflow/pkg/domain"
	"github.com/aretw0/promptflow/pkg/schema"
	"github.com/aretw0/promptflow/pkg/store"
)

// Validate checks decoded document data.
//
// The schema validator runs first. Only a structurally valid document reaches
// the graph analyzer, so a result never mixes type errors with reachability
// findings.
func Validate(raw any) domain.Result {
	result := schema.Validate(raw)
	if !result.Valid {
		return result
	}
	doc, err := schema.Parse(raw)
	if err != nil {
		return result
	}
	return analysis.ValidateAll(doc)
}

// ValidateBytes decodes data in the given format and validates it.
// Syntax errors are returned as errors; validation findings are in the result.
func ValidateBytes(data []byte, format schema.Format) (domain.Result, error) {
	raw, err := schema.Unmarshal(data, format)
	if err != nil {
		return domain.Result{}, fmt.Errorf("decode %s: %w", format, err)
	}
	return Validate(raw), nil
}

// ValidateFile reads and validates a JSON or YAML document.
// The format is taken from the file extension.
func ValidateFile(path string) (domain.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Result{}, err
	}
	return ValidateBytes(data, schema.FormatFromPath(path))
}

// LoadFile reads a document. Structurally invalid documents are rejected with
// an error wrapping domain.ErrInvalidDocument.
func LoadFile(path string) (schema.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.Document{}, err
	}
	doc, err := schema.ParseBytes(data, schema.FormatFromPath(path))
	if err != nil {
		return schema.Document{}, fmt.Errorf("load %s: %w", path, err)
	}
	return doc, nil
}

// SaveFile writes a document in the format implied by the file extension.
func SaveFile(path string, doc schema.Document) error {
	data, err := schema.Marshal(doc, schema.FormatFromPath(path))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// NewEditor creates an empty graph editor.
func NewEditor(opts ...store.Option) *store.Store {
	return store.New(opts...)
}

// OpenFile creates an editor holding the document stored at path.
// The load is not recorded in the undo history.
func OpenFile(ctx context.Context, path string, opts ...store.Option) (*store.Store, error) {
	doc, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	editor := store.New(opts...)
	if err := editor.Restore(ctx, doc); err != nil {
		return nil, err
	}
	return editor, nil
}
