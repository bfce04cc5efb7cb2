package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bioshelf/internal/app"
)

type serveOptions struct {
	configPath string
}

func main() {
	// stdout belongs to the MCP protocol; zap's production config already
	// writes to stderr.
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	root := newRootCmd(logger)
	if err := root.Execute(); err != nil {
		logger.Fatal("command failed", zap.Error(err))
	}
}

func newRootCmd(logger *zap.Logger) *cobra.Command {
	opts := serveOptions{}

	root := &cobra.Command{
		Use:   "bioshelfd",
		Short: "Bioinformatics container catalog daemon with MCP stdio gateway",
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", opts.configPath, "path to config file (defaults apply when empty)")

	root.AddCommand(
		newServeCmd(logger, &opts),
		newValidateCmd(logger, &opts),
	)

	return root
}

func newServeCmd(logger *zap.Logger, opts *serveOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Load the catalog and serve MCP requests on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			cfg, err := app.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			application, err := app.NewApplication(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = application.Close() }()

			return application.Serve(ctx)
		},
	}
}

func newValidateCmd(logger *zap.Logger, opts *serveOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and catalog sources without serving",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			application, err := app.NewApplication(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = application.Close() }()

			info := application.Service().CacheInfo(cmd.Context())
			fmt.Fprintf(os.Stderr, "catalog ok: %d container entries (degraded=%v)\n", info.EntryCount, info.Degraded)
			return nil
		},
	}
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
