package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/promptflow/internal/cli"
	"github.com/aretw0/promptflow/internal/presentation/graph"
	"github.com/aretw0/promptflow/pkg/analysis"
	"github.com/aretw0/promptflow/pkg/domain"
	"github.com/aretw0/promptflow/pkg/schema"
	"github.com/aretw0/promptflow/pkg/store"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [file]",
	Short: "Export the flow graph visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of a flow document, or renders it to
SVG or PNG with Graphviz. Nodes with issues are highlighted in Mermaid output.

The flow is read from a file, or from the configured store with --flow.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGraph,
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("format", "f", "mermaid", "Output format: mermaid, dot, svg or png")
	graphCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	graphCmd.Flags().String("flow", "", "Render a stored flow instead of a file")
	graphCmd.Flags().Bool("no-issues", false, "Do not highlight nodes with issues")
}

func runGraph(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	flow, _ := cmd.Flags().GetString("flow")
	noIssues, _ := cmd.Flags().GetBool("no-issues")

	var (
		doc    schema.Document
		result domain.Result
		err    error
	)
	switch {
	case flow != "" && len(args) > 0:
		return errors.New("pass either a file or --flow, not both")
	case flow != "":
		doc, result, err = loadStoredFlow(cmd, flow)
	case len(args) == 1:
		doc, result, err = loadFlowFile(cmd, args[0])
	default:
		return errors.New("a file or --flow is required")
	}
	if err != nil {
		return err
	}

	var out []byte
	switch format {
	case "mermaid":
		var overlay *graph.IssueOverlay
		if !noIssues {
			overlay = graph.OverlayFromResult(result)
		}
		out = []byte(graph.GenerateMermaid(doc, overlay))
	case "dot":
		out = []byte(graph.GenerateDOT(doc))
	case string(graph.SVG), string(graph.PNG):
		out, err = graph.RenderImage(cmd.Context(), doc, graph.ImageFormat(format))
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return cli.WriteOutput(output, cmd.OutOrStdout(), out)
}

func loadFlowFile(cmd *cobra.Command, path string) (schema.Document, domain.Result, error) {
	data, format, err := cli.ReadSource(path, cmd.InOrStdin(), "")
	if err != nil {
		return schema.Document{}, domain.Result{}, err
	}
	doc, err := schema.ParseBytes(data, format)
	if err != nil {
		return schema.Document{}, domain.Result{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, analysis.ValidateAll(doc), nil
}

func loadStoredFlow(cmd *cobra.Command, name string) (schema.Document, domain.Result, error) {
	app, err := newApp(cmd)
	if err != nil {
		return schema.Document{}, domain.Result{}, err
	}
	defer app.Close()

	ctx := cmd.Context()
	sessions, err := app.Sessions(ctx)
	if err != nil {
		return schema.Document{}, domain.Result{}, err
	}
	if err := requireStoredFlow(ctx, sessions, name); err != nil {
		return schema.Document{}, domain.Result{}, err
	}

	var (
		doc    schema.Document
		result domain.Result
	)
	err = sessions.View(ctx, name, func(s *store.Store) error {
		doc = s.Document()
		result = s.Result()
		return nil
	})
	return doc, result, err
}
