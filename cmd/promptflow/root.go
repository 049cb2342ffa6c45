package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/promptflow/internal/cli"
	"github.com/aretw0/promptflow/internal/config"
	"github.com/aretw0/promptflow/internal/logging"
	"github.com/aretw0/promptflow/internal/presentation/tui"
)

// errIssuesFound makes the process exit with status 1 after a report was
// already printed.
var errIssuesFound = errors.New("issues found")

var rootCmd = &cobra.Command{
	Use:   "promptflow",
	Short: "Promptflow edits, validates and serves prompt flow graphs",
	Long: `Promptflow manages directed graphs of LLM prompts.

Files can be validated, formatted, laid out and rendered directly. The serve
and mcp commands expose a store of named flows to editors and AI agents.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errIssuesFound) {
			fmt.Fprintln(os.Stderr, tui.StyleError.Render("Error:"), err)
		}
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file (default "+config.DefaultFile+" when present)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
}

// newApp loads the configuration and builds the logger. Flags win over the
// config file and the environment. The caller must Close the App.
func newApp(cmd *cobra.Command) (*cli.App, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		cfg.Log.Format = format
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger := logging.NewWithOptions(logging.Options{
		Level:  level,
		Format: logging.Format(cfg.Log.Format),
		Writer: cmd.ErrOrStderr(),
	})
	return cli.NewApp(cfg, logger), nil
}
