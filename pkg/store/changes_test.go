package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/promptflow/pkg/domain"
	"github.com/aretw0/promptflow/pkg/store"
)

func TestOnNodesChange(t *testing.T) {
	t.Run("Drag is not recorded", func(t *testing.T) {
		s := newStore()
		n := s.AddNode()
		s.Undo()
		s.Redo()
		require.True(t, s.CanUndo())
		errorsBefore := len(s.Errors())

		var events []domain.ChangeEvent
		s.Subscribe(func(ev domain.ChangeEvent) { events = append(events, ev) })

		s.OnNodesChange([]store.NodeChange{
			{Type: store.ChangePosition, ID: n.ID, Position: &domain.Position{X: 5, Y: 6}},
			{Type: store.ChangeDimensions, ID: n.ID, Width: 320, Height: 96},
			{Type: store.ChangeSelect, ID: n.ID, Selected: true},
		})

		got, _ := s.Graph().Node(n.ID)
		assert.Equal(t, domain.Position{X: 5, Y: 6}, got.Position)
		assert.Equal(t, 320.0, got.Width)
		assert.Equal(t, 96.0, got.Height)
		assert.True(t, got.Selected)
		assert.False(t, s.CanRedo(), "redo stack untouched")
		assert.Len(t, s.Errors(), errorsBefore)
		require.Len(t, events, 1)
		assert.Equal(t, domain.ChangeTransient, events[0].Type)

		// Undo goes back past the drag to the state before AddNode.
		s.Undo()
		assert.Empty(t, s.Graph().Nodes)
	})

	t.Run("Removal is recorded without cascading edges", func(t *testing.T) {
		s := newStore()
		a, b := s.AddNode(), s.AddNode()
		s.AddEdge(domain.Connection{Source: a.ID, Target: b.ID})
		s.SetStartNode(a.ID)
		s.SelectNode(a.ID)

		s.OnNodesChange([]store.NodeChange{{Type: store.ChangeRemove, ID: a.ID}})

		g := s.Graph()
		require.Len(t, g.Nodes, 1)
		assert.Len(t, g.Edges, 1, "dangling edge is kept")
		assert.Empty(t, g.StartNodeID)
		assert.Empty(t, s.UI().SelectedNodeID)
		assert.False(t, s.UI().SidebarOpen)

		s.Undo()
		assert.Len(t, s.Graph().Nodes, 2)
		assert.Equal(t, a.ID, s.Graph().StartNodeID)
	})

	t.Run("Unknown ids are ignored", func(t *testing.T) {
		s := newStore()
		s.AddNode()
		before := s.Graph()

		s.OnNodesChange([]store.NodeChange{{Type: store.ChangePosition, ID: "missing", Position: &domain.Position{X: 1}}})

		assert.Equal(t, before, s.Graph())
	})
}

func TestOnEdgesChange(t *testing.T) {
	s := newStore()
	a, b := s.AddNode(), s.AddNode()
	e, _ := s.AddEdge(domain.Connection{Source: a.ID, Target: b.ID})
	undoable := s.CanUndo()

	s.OnEdgesChange([]store.EdgeChange{{Type: store.ChangeSelect, ID: e.ID, Selected: true}})
	got, _ := s.Graph().Edge(e.ID)
	assert.True(t, got.Selected)
	assert.Equal(t, undoable, s.CanUndo())

	s.OnEdgesChange([]store.EdgeChange{{Type: store.ChangeRemove, ID: e.ID}})
	assert.Empty(t, s.Graph().Edges)

	s.Undo()
	require.Len(t, s.Graph().Edges, 1)
	assert.True(t, s.Graph().Edges[0].Selected)
}
