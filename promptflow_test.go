package promptflow_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/promptflow"
	"github.com/aretw0/promptflow/pkg/domain"
	"github.com/aretw0/promptflow/pkg/schema"
)

const validFlow = `{
  "startNodeId": "a",
  "nodes": [
    {"id": "a", "description": "First", "prompt": "Start here", "edges": [{"to_node_id": "b", "condition": "done"}]},
    {"id": "b", "description": "Second", "prompt": "Finish", "edges": [], "position": {"x": 10, "y": 20}}
  ]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		raw       any
		wantValid bool
		wantCodes []domain.IssueCode
	}{
		{
			name:      "not an object",
			raw:       []any{},
			wantCodes: []domain.IssueCode{domain.CodeInvalidShape},
		},
		{
			name: "structural errors skip the analyzer",
			raw: map[string]any{
				"startNodeId": "a",
				"nodes": []any{
					map[string]any{"id": "a", "description": "d", "prompt": "p", "edges": []any{map[string]any{"to_node_id": "zzz", "condition": "c"}}},
					map[string]any{"id": "orphan", "description": "d", "prompt": "p", "edges": []any{}},
				},
			},
			wantCodes: []domain.IssueCode{domain.CodeUnknownEdgeTarget},
		},
		{
			name: "analyzer warnings on a sound document",
			raw: map[string]any{
				"startNodeId": "a",
				"nodes": []any{
					map[string]any{"id": "a", "description": "d", "prompt": "p", "edges": []any{}},
					map[string]any{"id": "orphan", "description": "d", "prompt": "p", "edges": []any{}},
				},
			},
			wantValid: true,
			wantCodes: []domain.IssueCode{domain.CodeDisconnected},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := promptflow.Validate(tt.raw)
			assert.Equal(t, tt.wantValid, result.Valid)
			var codes []domain.IssueCode
			for _, issue := range result.Issues() {
				codes = append(codes, issue.Code)
			}
			assert.Equal(t, tt.wantCodes, codes)
		})
	}
}

func TestValidateBytes_SyntaxError(t *testing.T) {
	_, err := promptflow.ValidateBytes([]byte("{"), schema.FormatJSON)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode json")
}

func TestValidateFile(t *testing.T) {
	path := writeFile(t, "flow.json", validFlow)
	result, err := promptflow.ValidateFile(path)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Issues())

	_, err = promptflow.ValidateFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFile_Invalid(t *testing.T) {
	path := writeFile(t, "flow.yaml", "startNodeId: a\nnodes: []\n")
	_, err := promptflow.LoadFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidDocument)
}

func TestSaveFile_RoundTrip(t *testing.T) {
	src := writeFile(t, "flow.json", validFlow)
	doc, err := promptflow.LoadFile(src)
	require.NoError(t, err)

	dst := filepath.Join(t.TempDir(), "copy.yaml")
	require.NoError(t, promptflow.SaveFile(dst, doc))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Contains(t, string(data), "startNodeId: a")

	again, err := promptflow.LoadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, doc, again)
}

func TestOpenFile(t *testing.T) {
	path := writeFile(t, "flow.json", validFlow)
	editor, err := promptflow.OpenFile(context.Background(), path)
	require.NoError(t, err)

	g := editor.Graph()
	assert.Equal(t, "a", g.StartNodeID)
	require.Len(t, g.Nodes, 2)
	require.Len(t, g.Edges, 1)
	assert.False(t, editor.CanUndo(), "opening a file is not an edit")

	editor.DeleteNode("b")
	assert.True(t, editor.CanUndo())
}
