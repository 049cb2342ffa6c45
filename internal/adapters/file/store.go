package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/promptflow/pkg/domain"
	"github.com/aretw0/promptflow/pkg/schema"
)

// Store implements ports.DocumentStore using the local filesystem.
// It stores one document per flow in a configured directory.
type Store struct {
	BasePath string
	Format   schema.Format
}

// Option configures a Store.
type Option func(*Store)

// WithFormat selects the file encoding. JSON is the default.
func WithFormat(format schema.Format) Option {
	return func(s *Store) {
		s.Format = format
	}
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".promptflow/flows".
func New(basePath string, opts ...Option) *Store {
	if basePath == "" {
		basePath = filepath.Join(".promptflow", "flows")
	}
	s := &Store{BasePath: basePath, Format: schema.FormatJSON}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) ext() string {
	if s.Format == schema.FormatYAML {
		return ".yaml"
	}
	return ".json"
}

func (s *Store) path(name string) string {
	return filepath.Join(s.BasePath, name+s.ext())
}

// Save persists the document atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, name string, doc schema.Document) error {
	if err := domain.ValidateFlowName(name); err != nil {
		return err
	}

	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure flow directory: %w", err)
	}

	data, err := schema.Marshal(doc, s.Format)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	// Same directory, so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+name+"-*"+s.ext())
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	destPath := s.path(name)
	// os.Rename does not replace an existing file on Windows.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing flow file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Load reads a document back. The content is decoded but not validated, so
// drafts with open issues load as they were saved.
func (s *Store) Load(ctx context.Context, name string) (schema.Document, error) {
	if err := domain.ValidateFlowName(name); err != nil {
		return schema.Document{}, err
	}

	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return schema.Document{}, domain.ErrFlowNotFound
		}
		return schema.Document{}, fmt.Errorf("failed to read flow file: %w", err)
	}

	var doc schema.Document
	if s.Format == schema.FormatYAML {
		err = yaml.Unmarshal(data, &doc)
	} else {
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return schema.Document{}, fmt.Errorf("failed to decode flow %q: %w", name, err)
	}
	return doc, nil
}

// Delete removes the flow file.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := domain.ValidateFlowName(name); err != nil {
		return err
	}

	err := os.Remove(s.path(name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete flow file: %w", err)
	}
	return nil
}

// List returns the stored flow names in ascending order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), "tmp-") {
			continue
		}
		name, ok := strings.CutSuffix(entry.Name(), s.ext())
		if !ok || domain.ValidateFlowName(name) != nil {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}
