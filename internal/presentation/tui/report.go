package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/aretw0/promptflow/pkg/domain"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of f, or zero when it is not a terminal.
func TerminalWidth(f *os.File) int {
	if !IsTerminal(f) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// location names the element an issue is attached to.
func location(issue domain.Issue) string {
	switch {
	case issue.NodeID != "":
		return "node " + issue.NodeID
	case issue.EdgeID != "":
		return "edge " + issue.EdgeID
	case issue.Field != "":
		return issue.Field
	default:
		return ""
	}
}

// Summary renders the issue counts of a result in one line.
func Summary(result domain.Result) string {
	if len(result.Errors) == 0 && len(result.Warnings) == 0 {
		return "no issues"
	}
	return fmt.Sprintf("%s, %s",
		plural(len(result.Errors), "error"),
		plural(len(result.Warnings), "warning"))
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// Report writes a styled, line-oriented validation report.
func Report(w io.Writer, name string, result domain.Result) {
	fmt.Fprintln(w, StyleTitle.Render(name))

	write := func(icon string, style func(...string) string, issue domain.Issue) {
		line := fmt.Sprintf("  %s %s", style(icon), issue.Message)
		if loc := location(issue); loc != "" {
			line += " " + StyleDim.Render("("+loc+")")
		}
		fmt.Fprintln(w, line)
	}
	for _, issue := range result.Errors {
		write(iconError, StyleError.Render, issue)
	}
	for _, issue := range result.Warnings {
		write(iconWarning, StyleWarning.Render, issue)
	}

	if result.Valid {
		fmt.Fprintf(w, "  %s %s\n", StyleSuccess.Render(iconSuccess), "valid, "+Summary(result))
	} else {
		fmt.Fprintf(w, "  %s %s\n", StyleError.Render(iconError), "invalid, "+Summary(result))
	}
}

// MarkdownReport renders a validation report as a markdown document.
func MarkdownReport(name string, result domain.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", name)
	status := "valid"
	if !result.Valid {
		status = "invalid"
	}
	fmt.Fprintf(&b, "**%s**: %s\n\n", status, Summary(result))

	issues := result.Issues()
	if len(issues) == 0 {
		return b.String()
	}

	b.WriteString("| Severity | Code | Location | Message |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, issue := range issues {
		fmt.Fprintf(&b, "| %s | `%s` | %s | %s |\n",
			issue.Severity, issue.Code, escapeCell(location(issue)), escapeCell(issue.Message))
	}
	return b.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

// RenderReport renders MarkdownReport for the terminal with glamour.
func RenderReport(name string, result domain.Result, width int) (string, error) {
	return NewRenderer(width)(MarkdownReport(name, result))
}
