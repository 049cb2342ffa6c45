package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/promptflow/pkg/domain"
	"github.com/aretw0/promptflow/pkg/store"
)

func TestUndoRedo_RestoresEveryState(t *testing.T) {
	s := newStore()
	a := s.AddNode()

	states := []domain.Graph{s.Graph()}
	edits := []func(){
		func() { s.AddNode() },
		func() { s.UpdateNodeData(a.ID, domain.NodePatch{Prompt: ptr("Hello")}) },
		func() { s.SetStartNode(a.ID) },
		func() { s.AddEdge(domain.Connection{Source: a.ID, Target: s.Graph().Nodes[1].ID}) },
		func() { s.DeleteEdge(s.Graph().Edges[0].ID) },
		func() { s.DeleteNode(a.ID) },
	}
	for _, edit := range edits {
		edit()
		states = append(states, s.Graph())
	}

	k := len(edits)
	for i := 1; i <= k; i++ {
		s.Undo()
		assert.Equal(t, states[k-i], s.Graph(), "after %d undos", i)
	}
	assert.True(t, s.CanUndo(), "the first AddNode is still undoable")

	for i := 1; i <= k; i++ {
		s.Redo()
		assert.Equal(t, states[i], s.Graph(), "after %d redos", i)
	}
	assert.False(t, s.CanRedo())
}

func TestUndo_ClearsSelectionAndRevalidates(t *testing.T) {
	s := newStore()
	n := s.AddNode()
	s.UpdateNodeData(n.ID, domain.NodePatch{Description: ptr("d"), Prompt: ptr("p")})
	require.Empty(t, s.Errors())
	s.SelectNode(n.ID)

	s.Undo()

	assert.Empty(t, s.UI().SelectedNodeID)
	assert.False(t, s.UI().SidebarOpen)
	assert.Len(t, s.Errors(), 2)
	assert.True(t, s.CanRedo())

	s.SelectNode(n.ID)
	s.Redo()
	assert.Empty(t, s.UI().SelectedNodeID)
	assert.Empty(t, s.Errors())
}

func TestUndoRedo_EmptyStacksAreNoops(t *testing.T) {
	s := newStore()
	s.Undo()
	s.Redo()
	assert.Equal(t, uint64(0), s.Revision())
}

func TestMutation_ClearsRedo(t *testing.T) {
	s := newStore()
	s.AddNode()
	s.AddNode()
	s.Undo()
	require.True(t, s.CanRedo())

	s.AddNode()

	assert.False(t, s.CanRedo())
	assert.Len(t, s.Graph().Nodes, 2)
}

func TestHistory_IsBounded(t *testing.T) {
	tests := []struct {
		name     string
		opts     []store.Option
		capacity int
	}{
		{name: "Default capacity", capacity: domain.DefaultHistorySize},
		{name: "Custom capacity", opts: []store.Option{store.WithHistorySize(5)}, capacity: 5},
		{name: "Invalid capacity is ignored", opts: []store.Option{store.WithHistorySize(0)}, capacity: domain.DefaultHistorySize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(tt.opts...)
			total := tt.capacity + 10
			for range total {
				s.AddNode()
			}

			undos := 0
			for s.CanUndo() {
				s.Undo()
				undos++
			}
			assert.Equal(t, tt.capacity, undos)
			assert.Len(t, s.Graph().Nodes, total-tt.capacity)

			for s.CanRedo() {
				s.Redo()
			}
			assert.Len(t, s.Graph().Nodes, total)
		})
	}
}
