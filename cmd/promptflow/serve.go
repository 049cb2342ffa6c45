package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/promptflow"
	"github.com/aretw0/promptflow/internal/cli"
	"github.com/aretw0/promptflow/internal/presentation/tui"
	httpAdapter "github.com/aretw0/promptflow/pkg/adapters/http"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP editor API",
	Long: `Serves the flows of the configured store as a JSON API over HTTP, with a
websocket change feed per flow, Prometheus metrics on /metrics and the OpenAPI
document on /openapi.yaml.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			app.Config.HTTP.Addr = addr
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		sessions, err := app.Sessions(ctx)
		if err != nil {
			return err
		}
		handler := httpAdapter.New(sessions,
			httpAdapter.WithLogger(app.Logger),
			httpAdapter.WithMetrics(app.Metrics, app.Registry),
			httpAdapter.WithCORSOrigin(app.Config.HTTP.CORSOrigin),
		)
		defer handler.Close()

		srv := &http.Server{
			Addr:              app.Config.HTTP.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			tui.PrintBanner(cmd.ErrOrStderr(), strings.TrimSpace(promptflow.Version))
			app.Logger.Info("Starting Promptflow Server",
				"addr", srv.Addr,
				"store", app.Config.Store.Backend,
			)
			serverErrors <- srv.ListenAndServe()
		}()

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err

		case <-ctx.Done():
			app.Logger.Info("Start shutdown", "signal", ctx.Signal())

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				app.Logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					return err
				}
			}
			app.Logger.Info("Promptflow Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (overrides http.addr)")
}
