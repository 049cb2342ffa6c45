package schema

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/aretw0/promptflow/pkg/domain"
)

// Validate checks decoded data against the document shape.
//
// The checks run in a fixed order and every violation is collected:
//
//  1. startNodeId is a non-empty string.
//  2. Every node has a non-empty id, description and prompt; label, if present, is non-empty.
//  3. Every edge has a non-empty to_node_id and condition.
//  4. Node ids are unique.
//  5. startNodeId names a declared node.
//  6. Every to_node_id names a declared node.
//
// A root that is not an object, or nodes that is not an array, yields a single
// error. When any value has the wrong kind, checks 4 to 6 are skipped. The
// result never carries warnings.
func Validate(data any) domain.Result {
	v := &validation{}
	v.run(data)
	return domain.NewResult(v.errs, nil)
}

// ValidateDocument validates a typed document. A nil label counts as absent.
func ValidateDocument(doc Document) domain.Result {
	return Validate(doc.generic())
}

type validation struct {
	nodes []any
	errs  []domain.Issue
	// typed is cleared as soon as a value has the wrong kind or is missing.
	typed bool
}

func (v *validation) run(data any) {
	root, ok := data.(map[string]any)
	if !ok {
		v.fail(domain.CodeInvalidShape, nil, mismatch(Object(), data).Error())
		return
	}
	rawNodes, present := root["nodes"]
	if !present {
		v.fail(domain.CodeInvalidShape, []any{"nodes"}, errRequired.Error())
		return
	}
	nodes, ok := rawNodes.([]any)
	if !ok {
		v.fail(domain.CodeInvalidShape, []any{"nodes"}, mismatch(Array(), rawNodes).Error())
		return
	}
	v.nodes = nodes
	v.typed = true

	start, _ := v.check(root, NonEmptyString(), true, "startNodeId")

	for i, raw := range nodes {
		node, ok := raw.(map[string]any)
		if !ok {
			v.typed = false
			v.fail(domain.CodeInvalidType, []any{"nodes", i}, mismatch(Object(), raw).Error())
			continue
		}
		v.check(node, NonEmptyString(), true, "nodes", i, "id")
		v.check(node, NonEmptyString(), false, "nodes", i, "label")
		v.check(node, NonEmptyString(), true, "nodes", i, "description")
		v.check(node, NonEmptyString(), true, "nodes", i, "prompt")
		v.check(node, Array(), true, "nodes", i, "edges")
		if pos, ok := v.check(node, Object(), false, "nodes", i, "position"); ok {
			v.check(pos.(map[string]any), Number(), true, "nodes", i, "position", "x")
			v.check(pos.(map[string]any), Number(), true, "nodes", i, "position", "y")
		}
	}

	for i, raw := range nodes {
		node, _ := raw.(map[string]any)
		edges, _ := node["edges"].([]any)
		for j, rawEdge := range edges {
			edge, ok := rawEdge.(map[string]any)
			if !ok {
				v.typed = false
				v.fail(domain.CodeInvalidType, []any{"nodes", i, "edges", j}, mismatch(Object(), rawEdge).Error())
				continue
			}
			v.check(edge, NonEmptyString(), true, "nodes", i, "edges", j, "to_node_id")
			v.check(edge, NonEmptyString(), true, "nodes", i, "edges", j, "condition")
			if params, ok := v.check(edge, Object(), false, "nodes", i, "edges", j, "parameters"); ok {
				values := params.(map[string]any)
				for _, key := range slices.Sorted(maps.Keys(values)) {
					v.check(values, String(), true, "nodes", i, "edges", j, "parameters", key)
				}
			}
		}
	}

	if !v.typed {
		return
	}

	declared := make(map[string]bool, len(nodes))
	for i, raw := range nodes {
		id := strings.TrimSpace(raw.(map[string]any)["id"].(string))
		if declared[id] {
			v.fail(domain.CodeDuplicateNodeID, []any{"nodes", i, "id"}, fmt.Sprintf("Duplicate node id: %s", id))
		}
		declared[id] = true
	}

	startID := strings.TrimSpace(start.(string))
	if !declared[startID] {
		v.fail(domain.CodeUnknownStartNode, []any{"startNodeId"},
			fmt.Sprintf("startNodeId must reference an existing node: %s", startID))
	}

	for i, raw := range nodes {
		edges, _ := raw.(map[string]any)["edges"].([]any)
		for j, rawEdge := range edges {
			target := strings.TrimSpace(rawEdge.(map[string]any)["to_node_id"].(string))
			if !declared[target] {
				v.fail(domain.CodeUnknownEdgeTarget, []any{"nodes", i, "edges", j, "to_node_id"},
					fmt.Sprintf("Edge target does not exist: %s", target))
			}
		}
	}
}

// check validates obj[key] against typ, where key is the last path segment.
// It returns the value and whether it is present with the expected kind.
func (v *validation) check(obj map[string]any, typ Type, required bool, path ...any) (any, bool) {
	key := path[len(path)-1].(string)
	value, present := obj[key]
	if !present {
		if required {
			v.typed = false
			v.fail(domain.CodeInvalidType, path, errRequired.Error())
		}
		return nil, false
	}

	err := typ.Validate(value)
	var km *kindMismatch
	switch {
	case err == nil:
		return value, true
	case errors.As(err, &km):
		v.typed = false
		v.fail(domain.CodeInvalidType, path, err.Error())
		return nil, false
	default:
		v.fail(domain.CodeEmptyField, path, err.Error())
		return value, true
	}
}

func (v *validation) fail(code domain.IssueCode, path []any, message string) {
	v.errs = append(v.errs, domain.Issue{
		Severity: domain.SeverityError,
		Code:     code,
		Message:  message,
		Field:    dottedPath(path),
		Path:     path,
		NodeID:   v.nodeIDAt(path),
	})
}

// nodeIDAt resolves the raw id of the node a path points into, if any.
func (v *validation) nodeIDAt(path []any) string {
	if len(path) < 2 || path[0] != "nodes" {
		return ""
	}
	i, ok := path[1].(int)
	if !ok || i < 0 || i >= len(v.nodes) {
		return ""
	}
	node, ok := v.nodes[i].(map[string]any)
	if !ok {
		return ""
	}
	id, _ := node["id"].(string)
	return id
}

func dottedPath(path []any) string {
	parts := make([]string, len(path))
	for i, seg := range path {
		switch s := seg.(type) {
		case int:
			parts[i] = strconv.Itoa(s)
		default:
			parts[i] = fmt.Sprint(s)
		}
	}
	return strings.Join(parts, ".")
}
