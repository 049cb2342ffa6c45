package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/promptflow/pkg/domain"
)

func TestParseBytes_TrimsRequiredStrings(t *testing.T) {
	src := `{"startNodeId": " a ", "nodes": [
		{"id": " a ", "label": " Hello ", "description": " d ", "prompt": " p ",
		 "edges": [{"to_node_id": " a ", "condition": " loop ", "parameters": {"k": " v "}}]}]}`

	doc, err := ParseBytes([]byte(src), FormatJSON)
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	if doc.StartNodeID != "a" || doc.Nodes[0].ID != "a" || doc.Nodes[0].DisplayLabel() != "Hello" {
		t.Errorf("ParseBytes() did not trim: %+v", doc)
	}
	edge := doc.Nodes[0].Edges[0]
	if edge.ToNodeID != "a" || edge.Condition != "loop" {
		t.Errorf("edge not trimmed: %+v", edge)
	}
	if edge.Parameters["k"] != " v " {
		t.Errorf("parameter values must be kept verbatim, got %q", edge.Parameters["k"])
	}
	if doc.Nodes[0].Position != nil {
		t.Errorf("Position = %v, want nil", doc.Nodes[0].Position)
	}
}

func TestParseBytes_YAML(t *testing.T) {
	src := `
startNodeId: greet
nodes:
  - id: greet
    description: Say hello
    prompt: Greet the user
    position: {x: 10, y: 20.5}
    edges:
      - to_node_id: bye
        condition: done
  - id: bye
    description: Say goodbye
    prompt: Close the conversation
    edges: []
`
	doc, err := ParseBytes([]byte(src), FormatYAML)
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	if len(doc.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(doc.Nodes))
	}
	if p := doc.Nodes[0].Position; p == nil || p.X != 10 || p.Y != 20.5 {
		t.Errorf("Position = %+v, want {10 20.5}", p)
	}
}

func TestParse_InvalidDocument(t *testing.T) {
	_, err := ParseBytes([]byte(`{"startNodeId": "", "nodes": [{"id": "", "description": "d", "prompt": "p", "edges": []}]}`), FormatJSON)
	if err == nil {
		t.Fatal("ParseBytes() should fail")
	}
	if !errors.Is(err, domain.ErrInvalidDocument) {
		t.Errorf("error should match ErrInvalidDocument, got %v", err)
	}

	got := Messages(err)
	want := []string{
		"startNodeId: Must be a non-empty string",
		"nodes[0].id: Must be a non-empty string",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("Messages() = %q, want %q", got, want)
	}
}

func TestParseBytes_SyntaxError(t *testing.T) {
	_, err := ParseBytes([]byte(`{not json`), FormatJSON)
	if err == nil {
		t.Fatal("ParseBytes() should fail")
	}
	if errors.Is(err, domain.ErrInvalidDocument) {
		t.Error("syntax errors are not validation errors")
	}
	if msgs := Messages(err); len(msgs) != 1 {
		t.Errorf("Messages() = %v, want a single line", msgs)
	}
}

func TestMarshal(t *testing.T) {
	doc := Document{
		StartNodeID: "a",
		Nodes:       []Node{{ID: "a", Description: "d", Prompt: "p"}},
	}

	out, err := Marshal(doc, FormatJSON)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	text := string(out)
	if !strings.Contains(text, "\n  \"nodes\": [") {
		t.Errorf("expected two-space indentation, got:\n%s", text)
	}
	if !strings.Contains(text, `"edges": []`) {
		t.Errorf("nil edges should encode as an empty list, got:\n%s", text)
	}
	if strings.Contains(text, `"label"`) || strings.Contains(text, `"position"`) {
		t.Errorf("absent optional fields should be omitted, got:\n%s", text)
	}

	yamlOut, err := Marshal(doc, FormatYAML)
	if err != nil {
		t.Fatalf("Marshal(yaml) error = %v", err)
	}
	back, err := ParseBytes(yamlOut, FormatYAML)
	if err != nil {
		t.Fatalf("ParseBytes(yaml) error = %v", err)
	}
	if back.Nodes[0].Prompt != "p" {
		t.Errorf("yaml round trip lost the prompt: %+v", back)
	}
}

func TestFormatPath(t *testing.T) {
	tests := []struct {
		path []any
		want string
	}{
		{nil, "root"},
		{[]any{"startNodeId"}, "startNodeId"},
		{[]any{"nodes", 0, "id"}, "nodes[0].id"},
		{[]any{"nodes", 2, "edges", 1, "to_node_id"}, "nodes[2].edges[1].to_node_id"},
	}
	for _, tt := range tests {
		if got := FormatPath(tt.path); got != tt.want {
			t.Errorf("FormatPath(%v) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestFormatIssues_Deduplicates(t *testing.T) {
	issue := domain.Issue{Path: []any{"nodes", 0, "id"}, Message: "Duplicate node id: a"}
	got := FormatIssues([]domain.Issue{issue, issue, {Message: "Expected object, received array"}})
	want := []string{"nodes[0].id: Duplicate node id: a", "root: Expected object, received array"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("FormatIssues() = %q, want %q", got, want)
	}
}
