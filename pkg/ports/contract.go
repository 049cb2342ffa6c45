package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/promptflow/pkg/domain"
	"github.com/aretw0/promptflow/pkg/schema"
)

// ContractDocument returns a small valid document for contract suites.
func ContractDocument(start string) schema.Document {
	return schema.Document{
		StartNodeID: start,
		Nodes: []schema.Node{
			{
				ID:          start,
				Label:       schema.StringPtr("Greeting"),
				Description: "Welcome the user",
				Prompt:      "Say hello",
				Edges: []schema.Edge{
					{ToNodeID: "done", Condition: "greeted", Parameters: map[string]string{"tone": "warm"}},
				},
				Position: &schema.Position{X: 10, Y: 20},
			},
			{
				ID:          "done",
				Description: "Finish",
				Prompt:      "Say goodbye",
				Edges:       []schema.Edge{},
				Position:    &schema.Position{X: 10, Y: 140},
			},
		},
	}
}

// RunDocumentStoreContract runs a suite of tests to verify that a DocumentStore
// implementation adheres to the defined interface contract.
func RunDocumentStoreContract(t *testing.T, store DocumentStore) {
	ctx := context.Background()
	name := "contract-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		doc := ContractDocument("start")

		err := store.Save(ctx, name, doc)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, name)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, doc, loaded)
	})

	t.Run("Save Replaces", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, name, ContractDocument("first")))
		require.NoError(t, store.Save(ctx, name, ContractDocument("second")))

		loaded, err := store.Load(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, "second", loaded.StartNodeID)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-"+name)
		assert.ErrorIs(t, err, domain.ErrFlowNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, name, ContractDocument("start")))

		err := store.Delete(ctx, name)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, name)
		assert.ErrorIs(t, err, domain.ErrFlowNotFound, "Load after Delete should return ErrFlowNotFound")

		assert.NoError(t, store.Delete(ctx, name), "Delete is idempotent")
	})

	t.Run("List", func(t *testing.T) {
		ids := []string{name + "-b", name + "-a"}
		for _, id := range ids {
			require.NoError(t, store.Save(ctx, id, ContractDocument("start")))
		}
		defer func() {
			for _, id := range ids {
				_ = store.Delete(ctx, id)
			}
		}()

		names, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, ids[0])
		assert.Contains(t, names, ids[1])
		assert.IsIncreasing(t, names)
	})

	t.Run("Invalid Name", func(t *testing.T) {
		for _, bad := range []string{"", "../escape", "a/b", ".hidden"} {
			err := store.Save(ctx, bad, ContractDocument("start"))
			assert.ErrorIs(t, err, domain.ErrInvalidFlowName, fmt.Sprintf("name %q", bad))
		}
	})
}
