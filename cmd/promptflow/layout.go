package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/promptflow/internal/cli"
	"github.com/aretw0/promptflow/pkg/schema"
)

var layoutCmd = &cobra.Command{
	Use:   "layout <file>",
	Short: "Compute node positions",
	Long: `Positions the nodes of a document with the configured layout engine
(graphviz, falling back to the built-in layered engine).

Documents whose nodes all have a position are left alone unless --force is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		write, _ := cmd.Flags().GetBool("write")
		engine, _ := cmd.Flags().GetString("engine")

		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		if engine != "" {
			app.Config.Editor.Layout = engine
			if err := app.Config.Validate(); err != nil {
				return err
			}
		}

		path := args[0]
		data, format, err := cli.ReadSource(path, cmd.InOrStdin(), "")
		if err != nil {
			return err
		}
		doc, err := schema.ParseBytes(data, format)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		placed, err := cli.LayoutDocument(cmd.Context(), doc, app.Layout(), force)
		if err != nil {
			return err
		}
		out, err := schema.Marshal(placed, format)
		if err != nil {
			return err
		}
		app.Logger.Debug("Layout computed", "file", path, "nodes", len(placed.Nodes), "engine", app.Config.Editor.Layout)

		if !write {
			path = cli.Stdin
		}
		return cli.WriteOutput(path, cmd.OutOrStdout(), out)
	},
}

func init() {
	rootCmd.AddCommand(layoutCmd)
	layoutCmd.Flags().Bool("force", false, "Recompute positions that are already set")
	layoutCmd.Flags().BoolP("write", "w", false, "Write the result back to the file")
	layoutCmd.Flags().String("engine", "", "Layout engine: graphviz or layered (overrides the config)")
}
