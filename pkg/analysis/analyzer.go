// Package analysis checks the flow-level soundness of a document: whether every
// node can be reached from the start node and which nodes loop onto themselves.
package analysis

import (
	"fmt"

	"github.com/aretw0/promptflow/pkg/domain"
	"github.com/aretw0/promptflow/pkg/schema"
)

// Analyze walks the document from its start node.
//
// If the start node is not declared, the result holds exactly one error and no
// warnings. Otherwise a self-loop warning is emitted for every looping edge of a
// reached node, and a disconnected warning for every node that was not reached.
// A loop on an unreached node is only reported as disconnected.
func Analyze(doc schema.Document) domain.Result {
	byID := make(map[string]schema.Node, len(doc.Nodes))
	for _, n := range doc.Nodes {
		byID[n.ID] = n
	}

	if _, ok := byID[doc.StartNodeID]; !ok {
		return domain.NewResult([]domain.Issue{{
			Severity: domain.SeverityError,
			Code:     domain.CodeStartNotFound,
			Field:    "startNodeId",
			Message:  fmt.Sprintf("Start node not found: %s", doc.StartNodeID),
		}}, nil)
	}

	var warnings []domain.Issue
	visited := make(map[string]bool, len(doc.Nodes))
	stack := []string{doc.StartNodeID}

	for len(stack) > 0 {
		currentID := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[currentID] {
			continue
		}
		visited[currentID] = true

		node := byID[currentID]
		for _, e := range node.Edges {
			if e.ToNodeID == node.ID {
				warnings = append(warnings, domain.Issue{
					Severity: domain.SeverityWarning,
					Code:     domain.CodeSelfLoop,
					NodeID:   node.ID,
					Message:  "Node has a self-loop edge",
				})
			}
			if _, declared := byID[e.ToNodeID]; declared && !visited[e.ToNodeID] {
				stack = append(stack, e.ToNodeID)
			}
		}
	}

	for _, n := range doc.Nodes {
		if !visited[n.ID] {
			warnings = append(warnings, domain.Issue{
				Severity: domain.SeverityWarning,
				Code:     domain.CodeDisconnected,
				NodeID:   n.ID,
				Message:  "Node is disconnected from the flow",
			})
		}
	}

	return domain.NewResult(nil, warnings)
}

// ValidateAll runs the structural validator and the analyzer and concatenates
// their findings.
func ValidateAll(doc schema.Document) domain.Result {
	return domain.Merge(schema.ValidateDocument(doc), Analyze(doc))
}
