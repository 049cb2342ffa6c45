package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiffGraphs(t *testing.T) {
	a := Node{ID: "a", Label: "A", Description: "d", Prompt: "p"}
	b := Node{ID: "b", Label: "B", Description: "d", Prompt: "p"}
	ab := Edge{ID: "e1", Source: "a", Target: "b", Condition: "go", Parameters: map[string]string{}}

	tests := []struct {
		name     string
		prev     Graph
		next     Graph
		wantDiff *GraphDiff // nil means no change
	}{
		{
			name:     "No Changes",
			prev:     Graph{Nodes: []Node{a, b}, Edges: []Edge{ab}, StartNodeID: "a"},
			next:     Graph{Nodes: []Node{a, b}, Edges: []Edge{ab}, StartNodeID: "a"},
			wantDiff: nil,
		},
		{
			name: "Initial Load",
			prev: Graph{},
			next: Graph{Nodes: []Node{a, b}, Edges: []Edge{ab}, StartNodeID: "a"},
			wantDiff: &GraphDiff{
				AddedNodes:  []string{"a", "b"},
				AddedEdges:  []string{"e1"},
				StartNodeID: &[]string{"a"}[0],
			},
		},
		{
			name: "Node Removed With Edge",
			prev: Graph{Nodes: []Node{a, b}, Edges: []Edge{ab}, StartNodeID: "b"},
			next: Graph{Nodes: []Node{a}, StartNodeID: ""},
			wantDiff: &GraphDiff{
				RemovedNodes: []string{"b"},
				RemovedEdges: []string{"e1"},
				StartNodeID:  &[]string{""}[0],
			},
		},
		{
			name: "Node And Edge Updated",
			prev: Graph{Nodes: []Node{a, b}, Edges: []Edge{ab}},
			next: Graph{
				Nodes: []Node{a, {ID: "b", Label: "Renamed", Description: "d", Prompt: "p"}},
				Edges: []Edge{{ID: "e1", Source: "a", Target: "b", Condition: "go", Parameters: map[string]string{"k": "v"}}},
			},
			wantDiff: &GraphDiff{
				UpdatedNodes: []string{"b"},
				UpdatedEdges: []string{"e1"},
			},
		},
		{
			name: "Position Move Counts As Update",
			prev: Graph{Nodes: []Node{a}},
			next: Graph{Nodes: []Node{{ID: "a", Label: "A", Description: "d", Prompt: "p", Position: Position{X: 10}}}},
			wantDiff: &GraphDiff{
				UpdatedNodes: []string{"a"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DiffGraphs(tt.prev, tt.next)
			if tt.wantDiff == nil {
				if got != nil {
					t.Errorf("DiffGraphs() = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("DiffGraphs() = nil, want %+v", tt.wantDiff)
			}

			if !reflect.DeepEqual(got.AddedNodes, tt.wantDiff.AddedNodes) {
				t.Errorf("AddedNodes = %v, want %v", got.AddedNodes, tt.wantDiff.AddedNodes)
			}
			if !reflect.DeepEqual(got.RemovedNodes, tt.wantDiff.RemovedNodes) {
				t.Errorf("RemovedNodes = %v, want %v", got.RemovedNodes, tt.wantDiff.RemovedNodes)
			}
			if !reflect.DeepEqual(got.UpdatedNodes, tt.wantDiff.UpdatedNodes) {
				t.Errorf("UpdatedNodes = %v, want %v", got.UpdatedNodes, tt.wantDiff.UpdatedNodes)
			}
			if !reflect.DeepEqual(got.AddedEdges, tt.wantDiff.AddedEdges) {
				t.Errorf("AddedEdges = %v, want %v", got.AddedEdges, tt.wantDiff.AddedEdges)
			}
			if !reflect.DeepEqual(got.RemovedEdges, tt.wantDiff.RemovedEdges) {
				t.Errorf("RemovedEdges = %v, want %v", got.RemovedEdges, tt.wantDiff.RemovedEdges)
			}
			if !reflect.DeepEqual(got.UpdatedEdges, tt.wantDiff.UpdatedEdges) {
				t.Errorf("UpdatedEdges = %v, want %v", got.UpdatedEdges, tt.wantDiff.UpdatedEdges)
			}
			if !equalPtr(got.StartNodeID, tt.wantDiff.StartNodeID) {
				t.Errorf("StartNodeID = %v, want %v", got.StartNodeID, tt.wantDiff.StartNodeID)
			}
		})
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	t.Run("Empty Lists Omitted", func(t *testing.T) {
		prev := Graph{Nodes: []Node{{ID: "a"}}}
		next := Graph{Nodes: []Node{{ID: "a"}, {ID: "b"}}}
		diff := DiffGraphs(prev, next)
		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}

		bytes, _ := json.Marshal(diff)
		if strings.Contains(string(bytes), `"removed_nodes"`) {
			t.Errorf("JSON should not contain 'removed_nodes' when empty, got: %s", string(bytes))
		}
		if !strings.Contains(string(bytes), `"added_nodes":["b"]`) {
			t.Errorf("JSON should list the added node, got: %s", string(bytes))
		}
	})

	t.Run("Cleared Start As Empty String", func(t *testing.T) {
		prev := Graph{Nodes: []Node{{ID: "a"}}, StartNodeID: "a"}
		next := Graph{Nodes: []Node{{ID: "a"}}}
		diff := DiffGraphs(prev, next)
		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}

		bytes, _ := json.Marshal(diff)
		if !strings.Contains(string(bytes), `"start_node_id":""`) {
			t.Errorf("JSON should contain an empty start_node_id, got: %s", string(bytes))
		}
	})
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
