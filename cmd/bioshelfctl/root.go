package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"bioshelf/internal/app"
)

type cliOptions struct {
	configPath string
	jsonOutput bool
	logger     *zap.Logger
}

func newRootCommand() *cobra.Command {
	opts := cliOptions{
		logger: zap.NewNop(),
	}

	root := &cobra.Command{
		Use:           "bioshelfctl",
		Short:         "CLI client for the bioshelf container catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				logger, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				opts.logger = logger
			}
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = opts.logger.Sync()
		},
	}

	// Tool names use hyphens and underscores interchangeably; flags do too.
	root.PersistentFlags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (defaults apply when empty)")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output JSON")
	root.PersistentFlags().Bool("verbose", false, "log catalog loading to stderr")

	root.AddCommand(
		newFindCmd(&opts),
		newSearchCmd(&opts),
		newVersionsCmd(&opts),
		newListCmd(&opts),
		newBuildCmd(&opts),
		newBatchCmd(&opts),
		newCacheCmd(&opts),
	)

	return root
}

// withService loads the catalog once and hands the service to the command
// body. The CLI works directly against the filesystem sources, no daemon
// required.
func withService(ctx context.Context, opts *cliOptions, fn func(ctx context.Context, service *app.Service) error) error {
	cfg, err := app.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	// One-shot commands never watch for metadata changes.
	cfg.WatchMetadata = false

	application, err := app.NewApplication(ctx, cfg, opts.logger)
	if err != nil {
		return err
	}
	defer func() { _ = application.Close() }()

	return fn(ctx, application.Service())
}
