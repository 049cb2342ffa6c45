package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/promptflow/pkg/domain"
)

func decode(t *testing.T, src string) any {
	t.Helper()
	var raw any
	if err := json.Unmarshal([]byte(src), &raw); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return raw
}

const validFlow = `{
  "startNodeId": "node-1",
  "nodes": [
    {"id": "node-1", "description": "First", "prompt": "P1",
     "edges": [{"to_node_id": "node-2", "condition": "always", "parameters": {"k": "v"}}]},
    {"id": "node-2", "label": "Second", "description": "Second", "prompt": "P2", "edges": [],
     "position": {"x": 100, "y": 200}}
  ]
}`

func TestValidate_Success(t *testing.T) {
	result := Validate(decode(t, validFlow))
	if !result.Valid {
		t.Fatalf("Validate() errors = %v, want none", result.Errors)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Validate() warnings = %v, want none", result.Warnings)
	}
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantFields []string
		wantMsg    string
		wantNodeID string
	}{
		{
			name:       "Empty Start",
			input:      `{"startNodeId": "", "nodes": []}`,
			wantFields: []string{"startNodeId", "startNodeId"},
			wantMsg:    "Must be a non-empty string",
		},
		{
			name:       "Missing Start",
			input:      `{"nodes": []}`,
			wantFields: []string{"startNodeId"},
			wantMsg:    "Required",
		},
		{
			name:       "Blank Prompt",
			input:      `{"startNodeId": "a", "nodes": [{"id": "a", "description": "d", "prompt": "   ", "edges": []}]}`,
			wantFields: []string{"nodes.0.prompt"},
			wantMsg:    "Must be a non-empty string",
			wantNodeID: "a",
		},
		{
			name:       "Empty Label",
			input:      `{"startNodeId": "a", "nodes": [{"id": "a", "label": "", "description": "d", "prompt": "p", "edges": []}]}`,
			wantFields: []string{"nodes.0.label"},
			wantMsg:    "Must be a non-empty string",
			wantNodeID: "a",
		},
		{
			name:       "Empty Condition",
			input:      `{"startNodeId": "a", "nodes": [{"id": "a", "description": "d", "prompt": "p", "edges": [{"to_node_id": "a", "condition": ""}]}]}`,
			wantFields: []string{"nodes.0.edges.0.condition"},
			wantMsg:    "Must be a non-empty string",
			wantNodeID: "a",
		},
		{
			name: "Duplicate Id",
			input: `{"startNodeId": "a", "nodes": [
				{"id": "a", "description": "d", "prompt": "p", "edges": []},
				{"id": "a", "description": "d", "prompt": "p", "edges": []}]}`,
			wantFields: []string{"nodes.1.id"},
			wantMsg:    "Duplicate node id: a",
			wantNodeID: "a",
		},
		{
			name:       "Unknown Start",
			input:      `{"startNodeId": "missing", "nodes": []}`,
			wantFields: []string{"startNodeId"},
			wantMsg:    "startNodeId must reference an existing node: missing",
		},
		{
			name:       "Unknown Edge Target",
			input:      `{"startNodeId": "a", "nodes": [{"id": "a", "description": "d", "prompt": "p", "edges": [{"to_node_id": "ghost", "condition": "c"}]}]}`,
			wantFields: []string{"nodes.0.edges.0.to_node_id"},
			wantMsg:    "Edge target does not exist: ghost",
			wantNodeID: "a",
		},
		{
			name:       "Position Not Numeric",
			input:      `{"startNodeId": "a", "nodes": [{"id": "a", "description": "d", "prompt": "p", "edges": [], "position": {"x": "1", "y": 2}}]}`,
			wantFields: []string{"nodes.0.position.x"},
			wantMsg:    "Expected number, received string",
			wantNodeID: "a",
		},
		{
			name:       "Parameter Not String",
			input:      `{"startNodeId": "a", "nodes": [{"id": "a", "description": "d", "prompt": "p", "edges": [{"to_node_id": "a", "condition": "c", "parameters": {"n": 1}}]}]}`,
			wantFields: []string{"nodes.0.edges.0.parameters.n"},
			wantMsg:    "Expected string, received number",
			wantNodeID: "a",
		},
		{
			name:       "Root Not Object",
			input:      `[]`,
			wantFields: []string{""},
			wantMsg:    "Expected object, received array",
		},
		{
			name:       "Nodes Not Array",
			input:      `{"startNodeId": "", "nodes": {}}`,
			wantFields: []string{"nodes"},
			wantMsg:    "Expected array, received object",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(decode(t, tt.input))
			if result.Valid {
				t.Fatal("Validate() should report errors")
			}
			if len(result.Warnings) != 0 {
				t.Errorf("Validate() warnings = %v, want none", result.Warnings)
			}
			if len(result.Errors) != len(tt.wantFields) {
				t.Fatalf("Validate() = %d errors (%v), want %d", len(result.Errors), result.Errors, len(tt.wantFields))
			}
			for i, field := range tt.wantFields {
				if result.Errors[i].Field != field {
					t.Errorf("error %d Field = %q, want %q", i, result.Errors[i].Field, field)
				}
				if result.Errors[i].Severity != domain.SeverityError {
					t.Errorf("error %d Severity = %q, want error", i, result.Errors[i].Severity)
				}
			}
			if result.Errors[0].Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", result.Errors[0].Message, tt.wantMsg)
			}
			if result.Errors[0].NodeID != tt.wantNodeID {
				t.Errorf("NodeID = %q, want %q", result.Errors[0].NodeID, tt.wantNodeID)
			}
		})
	}
}

func TestValidate_CheckOrder(t *testing.T) {
	input := `{"startNodeId": "ghost", "nodes": [
		{"id": "a", "description": "", "prompt": "p", "edges": [{"to_node_id": "nope", "condition": "c"}]},
		{"id": "a", "description": "d", "prompt": "p", "edges": []}]}`

	result := Validate(decode(t, input))

	want := []domain.IssueCode{
		domain.CodeEmptyField,
		domain.CodeDuplicateNodeID,
		domain.CodeUnknownStartNode,
		domain.CodeUnknownEdgeTarget,
	}
	if len(result.Errors) != len(want) {
		t.Fatalf("Validate() = %v, want %d errors", result.Errors, len(want))
	}
	for i, code := range want {
		if result.Errors[i].Code != code {
			t.Errorf("error %d Code = %q, want %q", i, result.Errors[i].Code, code)
		}
	}
}

func TestValidate_TypeErrorsSkipReferenceChecks(t *testing.T) {
	input := `{"startNodeId": "ghost", "nodes": [{"id": 7, "description": "d", "prompt": "p", "edges": []}]}`

	result := Validate(decode(t, input))
	if len(result.Errors) != 1 {
		t.Fatalf("Validate() = %v, want only the type error", result.Errors)
	}
	if result.Errors[0].Code != domain.CodeInvalidType {
		t.Errorf("Code = %q, want %q", result.Errors[0].Code, domain.CodeInvalidType)
	}
}

func TestValidate_TrimmedIdentity(t *testing.T) {
	input := `{"startNodeId": " a ", "nodes": [{"id": "a", "description": "d", "prompt": "p", "edges": []}]}`
	if result := Validate(decode(t, input)); !result.Valid {
		t.Errorf("Validate() = %v, want trimmed start to resolve", result.Errors)
	}
}

func TestValidateDocument(t *testing.T) {
	doc := Document{
		StartNodeID: "a",
		Nodes: []Node{
			{ID: "a", Description: "d", Prompt: "p", Edges: []Edge{{ToNodeID: "b", Condition: "c"}}},
		},
	}

	result := ValidateDocument(doc)
	if result.Valid {
		t.Fatal("ValidateDocument() should flag the dangling edge")
	}
	if !strings.Contains(result.Errors[0].Message, "Edge target does not exist") {
		t.Errorf("Message = %q", result.Errors[0].Message)
	}
}
