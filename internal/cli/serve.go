package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/sieve/internal/httpapi"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	DB   string
	Addr string
	Seed string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve <specs-dir>",
		Short: "Serve every declared endpoint over HTTP",
		Long: `Serve every declared endpoint as GET /<endpoint>. Query-string parameters
are evaluated against the endpoint's filters and the matching rows are
returned as JSON.

Every endpoint is bound at startup; a declaration that does not bind stops
the server before it listens. The server shuts down gracefully on SIGINT
or SIGTERM.`,
		Example: `  sieve serve ./specs --db app.db --addr :8080
  sieve serve ./specs --seed testdata/data/customers.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", ":memory:", "database file path")
	cmd.Flags().StringVar(&opts.Addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&opts.Seed, "seed", "", "YAML dataset loaded at startup")

	return cmd
}

func runServe(opts *ServeOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	env, err := loadEnvironment(formatter, specsDir)
	if err != nil {
		return err
	}

	st, err := env.openStore(ctx, formatter, opts.DB, opts.Seed)
	if err != nil {
		return err
	}
	defer st.Close()

	srv, err := httpapi.New(env.engine, st, env.specs.Endpoints)
	if err != nil {
		return commandError(formatter, ErrCodeBindFailed, err.Error())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	slog.Info("server starting", "db", opts.DB, "specs_dir", specsDir, "endpoints", len(srv.Endpoints()))
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %d endpoint(s) on %s\n", len(srv.Endpoints()), opts.Addr)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	if err := srv.ListenAndServe(ctx, opts.Addr); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
