package main

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/promptflow/internal/cli"
	"github.com/aretw0/promptflow/pkg/schema"
)

var fmtCmd = &cobra.Command{
	Use:   "fmt <file>...",
	Short: "Rewrite flow documents in canonical form",
	Long: `Parses each document and prints it back with trimmed strings, explicit
empty edge lists and two space indentation. Invalid documents are rejected.

With --to the document is converted; combined with --write the converted file
is written next to the source with the matching extension.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFmt,
}

func init() {
	rootCmd.AddCommand(fmtCmd)
	fmtCmd.Flags().BoolP("write", "w", false, "Write the result to the file instead of stdout")
	fmtCmd.Flags().Bool("check", false, "Only report files whose formatting differs")
	fmtCmd.Flags().String("to", "", "Output format (json or yaml); defaults to the input format")
	fmtCmd.Flags().String("input-format", "", "Input format (json or yaml); guessed from the extension by default")
}

func runFmt(cmd *cobra.Command, args []string) error {
	write, _ := cmd.Flags().GetBool("write")
	check, _ := cmd.Flags().GetBool("check")
	to, _ := cmd.Flags().GetString("to")
	inputFormat, _ := cmd.Flags().GetString("input-format")
	if to != "" && to != string(schema.FormatJSON) && to != string(schema.FormatYAML) {
		return fmt.Errorf("unknown format %q", to)
	}

	unformatted := false
	for _, path := range args {
		data, format, err := cli.ReadSource(path, cmd.InOrStdin(), schema.Format(inputFormat))
		if err != nil {
			return err
		}
		doc, err := schema.ParseBytes(data, format)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		outFormat := format
		if to != "" {
			outFormat = schema.Format(to)
		}
		out, err := schema.Marshal(doc, outFormat)
		if err != nil {
			return err
		}
		if outFormat == schema.FormatJSON {
			out = append(out, '\n')
		}

		switch {
		case check:
			if !bytes.Equal(data, out) {
				fmt.Fprintln(cmd.OutOrStdout(), path)
				unformatted = true
			}
		case write && path != cli.Stdin:
			if err := cli.WriteOutput(convertedPath(path, outFormat), nil, out); err != nil {
				return err
			}
		default:
			if _, err := cmd.OutOrStdout().Write(out); err != nil {
				return err
			}
		}
	}
	if unformatted {
		return errIssuesFound
	}
	return nil
}

// convertedPath swaps the extension when the output format differs from the
// one the path implies.
func convertedPath(path string, format schema.Format) string {
	if schema.FormatFromPath(path) == format {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + string(format)
}
