package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/promptflow/internal/cli"
	"github.com/aretw0/promptflow/internal/presentation/tui"
	"github.com/aretw0/promptflow/pkg/domain"
	"github.com/aretw0/promptflow/pkg/schema"
	"github.com/aretw0/promptflow/pkg/session"
	"github.com/aretw0/promptflow/pkg/store"
)

var flowCmd = &cobra.Command{
	Use:   "flow",
	Short: "Manage the flows of the configured store",
}

var flowListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored flows",
	Args:  cobra.NoArgs,
	RunE: withSessions(func(cmd *cobra.Command, sessions *session.Manager, args []string) error {
		names, err := sessions.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	}),
}

var flowShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a stored flow document",
	Args:  cobra.ExactArgs(1),
	RunE: withSessions(func(cmd *cobra.Command, sessions *session.Manager, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		ctx, name := cmd.Context(), args[0]
		if err := requireStoredFlow(ctx, sessions, name); err != nil {
			return err
		}
		var doc schema.Document
		if err := sessions.View(ctx, name, func(s *store.Store) error {
			doc = s.Document()
			return nil
		}); err != nil {
			return err
		}
		out, err := schema.Marshal(doc, schema.Format(format))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}),
}

var flowIssuesCmd = &cobra.Command{
	Use:   "issues <name>",
	Short: "Report the validation issues of a stored flow",
	Args:  cobra.ExactArgs(1),
	RunE: withSessions(func(cmd *cobra.Command, sessions *session.Manager, args []string) error {
		ctx, name := cmd.Context(), args[0]
		if err := requireStoredFlow(ctx, sessions, name); err != nil {
			return err
		}
		var result domain.Result
		if err := sessions.View(ctx, name, func(s *store.Store) error {
			result = s.Result()
			return nil
		}); err != nil {
			return err
		}
		tui.Report(cmd.OutOrStdout(), name, result)
		if !result.Valid {
			return errIssuesFound
		}
		return nil
	}),
}

var flowImportCmd = &cobra.Command{
	Use:   "import <name> <file>",
	Short: "Replace a stored flow with a document",
	Long:  `Imports a JSON or YAML document. Invalid documents are rejected and the stored flow is left untouched.`,
	Args:  cobra.ExactArgs(2),
	RunE: withSessions(func(cmd *cobra.Command, sessions *session.Manager, args []string) error {
		name, path := args[0], args[1]
		data, format, err := cli.ReadSource(path, cmd.InOrStdin(), "")
		if err != nil {
			return err
		}
		doc, err := schema.ParseBytes(data, format)
		if err != nil {
			for _, msg := range schema.Messages(err) {
				fmt.Fprintln(cmd.ErrOrStderr(), tui.StyleError.Render("✗"), msg)
			}
			return fmt.Errorf("%s: %w", path, err)
		}
		var summary string
		err = sessions.Update(cmd.Context(), name, func(s *store.Store) error {
			if err := s.ImportDocument(cmd.Context(), doc); err != nil {
				return err
			}
			summary = tui.Summary(s.Result())
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %s (%s)\n", name, summary)
		return nil
	}),
}

var flowDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a stored flow",
	Args:  cobra.ExactArgs(1),
	RunE: withSessions(func(cmd *cobra.Command, sessions *session.Manager, args []string) error {
		return sessions.Delete(cmd.Context(), args[0])
	}),
}

func init() {
	rootCmd.AddCommand(flowCmd)
	flowCmd.AddCommand(flowListCmd, flowShowCmd, flowIssuesCmd, flowImportCmd, flowDeleteCmd)
	flowShowCmd.Flags().StringP("format", "f", "json", "Output format: json or yaml")
}

// withSessions opens the configured store around fn.
func withSessions(fn func(*cobra.Command, *session.Manager, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		sessions, err := app.Sessions(cmd.Context())
		if err != nil {
			return err
		}
		return fn(cmd, sessions, args)
	}
}

// requireStoredFlow fails unless the flow is persisted, so that read-only
// commands do not open empty editors.
func requireStoredFlow(ctx context.Context, sessions *session.Manager, name string) error {
	if err := domain.ValidateFlowName(name); err != nil {
		return err
	}
	ok, err := sessions.Exists(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrFlowNotFound, name)
	}
	return nil
}
