package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/promptflow"
	"github.com/aretw0/promptflow/internal/cli"
	"github.com/aretw0/promptflow/internal/presentation/tui"
	"github.com/aretw0/promptflow/pkg/domain"
	"github.com/aretw0/promptflow/pkg/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check flow documents for structural and graph issues",
	Long: `Validates JSON or YAML flow documents. Use "-" to read from standard input.

Structural problems (missing fields, duplicate ids, dangling edges) are errors.
Nodes that cannot be reached from the start node and self-loops are warnings.
The command exits with status 1 when any document has errors, or warnings
with --strict.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringP("output", "o", "text", "Report format: text, markdown or json")
	validateCmd.Flags().String("input-format", "", "Input format (json or yaml); guessed from the extension by default")
	validateCmd.Flags().Bool("strict", false, "Fail on warnings too")
}

// validateFile turns syntax errors into a failed result so every input gets a
// report.
func validateFile(path string, stdin io.Reader, format schema.Format) domain.Result {
	data, format, err := cli.ReadSource(path, stdin, format)
	if err == nil {
		var result domain.Result
		if result, err = promptflow.ValidateBytes(data, format); err == nil {
			return result
		}
	}
	return domain.NewResult([]domain.Issue{{
		Severity: domain.SeverityError,
		Code:     domain.CodeInvalidShape,
		Message:  err.Error(),
	}}, nil)
}

func runValidate(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	inputFormat, _ := cmd.Flags().GetString("input-format")
	strict, _ := cmd.Flags().GetBool("strict")
	switch output {
	case "text", "markdown", "json":
	default:
		return fmt.Errorf("unknown output format %q", output)
	}

	w := cmd.OutOrStdout()
	failed := false
	results := make(map[string]domain.Result, len(args))
	for _, path := range args {
		result := validateFile(path, cmd.InOrStdin(), schema.Format(inputFormat))
		results[path] = result
		if !result.Valid || (strict && len(result.Warnings) > 0) {
			failed = true
		}

		switch output {
		case "markdown":
			if err := writeMarkdownReport(w, path, result); err != nil {
				return err
			}
		case "text":
			tui.Report(w, path, result)
		}
	}

	if output == "json" {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
	}
	if failed {
		return errIssuesFound
	}
	return nil
}

// writeMarkdownReport renders with glamour on a terminal and writes plain
// markdown otherwise.
func writeMarkdownReport(w io.Writer, name string, result domain.Result) error {
	if f, ok := w.(*os.File); ok && tui.IsTerminal(f) {
		out, err := tui.RenderReport(name, result, tui.TerminalWidth(f))
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	}
	_, err := io.WriteString(w, tui.MarkdownReport(name, result)+"\n")
	return err
}
