package schema

import (
	"fmt"
	"strings"

	"github.com/aretw0/promptflow/pkg/domain"
)

// FormatPath renders a location like nodes[0].edges[1].to_node_id.
// The empty path is rendered as "root".
func FormatPath(path []any) string {
	if len(path) == 0 {
		return "root"
	}
	var b strings.Builder
	for i, seg := range path {
		switch s := seg.(type) {
		case int:
			fmt.Fprintf(&b, "[%d]", s)
		default:
			if i > 0 {
				b.WriteByte('.')
			}
			fmt.Fprint(&b, s)
		}
	}
	return b.String()
}

// FormatIssue renders an issue as "<path>: <message>".
func FormatIssue(issue domain.Issue) string {
	return FormatPath(issue.Path) + ": " + issue.Message
}

// FormatIssues renders issues, dropping repeated lines and keeping first-seen order.
func FormatIssues(issues []domain.Issue) []string {
	seen := make(map[string]bool, len(issues))
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		line := FormatIssue(issue)
		if seen[line] {
			continue
		}
		seen[line] = true
		out = append(out, line)
	}
	return out
}
