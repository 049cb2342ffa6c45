package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/promptflow/pkg/domain"
	"github.com/aretw0/promptflow/pkg/schema"
)

// IssueOverlay marks nodes that carry validation issues.
type IssueOverlay struct {
	ErrorNodes   []string
	WarningNodes []string
}

// OverlayFromResult collects the node ids tagged by a validation result.
func OverlayFromResult(result domain.Result) *IssueOverlay {
	overlay := &IssueOverlay{}
	for _, issue := range result.Errors {
		if issue.NodeID != "" {
			overlay.ErrorNodes = append(overlay.ErrorNodes, issue.NodeID)
		}
	}
	for _, issue := range result.Warnings {
		if issue.NodeID != "" {
			overlay.WarningNodes = append(overlay.WarningNodes, issue.NodeID)
		}
	}
	return overlay
}

// GenerateMermaid produces a Mermaid flowchart of a document.
// The start node is drawn as a circle and every other node as a rectangle
// labelled with its label (or id). Edges carry their condition.
// Overlay styles are applied if provided.
func GenerateMermaid(doc schema.Document, overlay *IssueOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range doc.Nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		if node.ID == doc.StartNodeID {
			opener, closer = "((", "))"
		}

		label := node.DisplayLabel()
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escapeMermaid(label), closer)

		for _, e := range node.Edges {
			safeTo := sanitizeMermaidID(e.ToNodeID)
			arrow := "-->"
			if e.Condition != "" {
				arrow = fmt.Sprintf("-- \"%s\" -->", escapeMermaid(e.Condition))
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow, safeTo)
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Issue Styles\n")
		// Black text keeps contrast on light fills in both themes.
		sb.WriteString("    classDef warning fill:#fff8e1,stroke:#f9a825,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef error fill:#ffebee,stroke:#c62828,stroke-width:3px,color:#000;\n")

		// Errors win over warnings on the same node.
		flagged := make(map[string]bool)
		for _, id := range overlay.ErrorNodes {
			safeID := sanitizeMermaidID(id)
			if !flagged[safeID] && safeID != "" {
				flagged[safeID] = true
				fmt.Fprintf(&sb, "    class %s error;\n", safeID)
			}
		}
		for _, id := range overlay.WarningNodes {
			safeID := sanitizeMermaidID(id)
			if !flagged[safeID] && safeID != "" {
				flagged[safeID] = true
				fmt.Fprintf(&sb, "    class %s warning;\n", safeID)
			}
		}
	}

	return sb.String()
}

func escapeMermaid(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.ReplaceAll(s, "\n", " ")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
