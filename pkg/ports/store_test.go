package ports_test

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/aretw0/promptflow/pkg/domain"
	"github.com/aretw0/promptflow/pkg/ports"
	"github.com/aretw0/promptflow/pkg/schema"
)

// MockStore is an in-memory implementation of DocumentStore for testing purposes.
type MockStore struct {
	mu   sync.Mutex
	data map[string]schema.Document
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]schema.Document),
	}
}

func (m *MockStore) Save(ctx context.Context, name string, doc schema.Document) error {
	if err := domain.ValidateFlowName(name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[name] = doc
	return nil
}

func (m *MockStore) Load(ctx context.Context, name string) (schema.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.data[name]
	if !ok {
		return schema.Document{}, domain.ErrFlowNotFound
	}
	return doc, nil
}

func (m *MockStore) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, name)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.data))
	for name := range m.data {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func TestDocumentStore_Contract(t *testing.T) {
	ports.RunDocumentStoreContract(t, NewMockStore())
}
