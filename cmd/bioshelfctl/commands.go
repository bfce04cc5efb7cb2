package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"bioshelf/internal/app"
	"bioshelf/internal/domain"
)

func newFindCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "find <tool>",
		Short: "Look a tool up by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), opts, func(ctx context.Context, service *app.Service) error {
				info, err := service.FindTool(ctx, args[0])
				if err != nil {
					return err
				}
				return printToolInfo(info, opts.jsonOutput)
			})
		},
	}
}

func newSearchCmd(opts *cliOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <description>...",
		Short: "Search tools by what they do",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), opts, func(ctx context.Context, service *app.Service) error {
				results := service.SearchByFunction(ctx, strings.Join(args, " "), limit)
				return printSearchResults(results, opts.jsonOutput)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of results (0 uses the configured default)")
	return cmd
}

func newVersionsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "versions <tool>",
		Short: "List container versions for a tool, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), opts, func(ctx context.Context, service *app.Service) error {
				versions, err := service.GetContainerVersions(ctx, args[0])
				if err != nil {
					return err
				}
				return printVersions(versions, opts.jsonOutput)
			})
		},
	}
}

func newListCmd(opts *cliOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List known tool names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), opts, func(ctx context.Context, service *app.Service) error {
				names := service.ListAvailableTools(ctx, limit)
				return printToolList(names, opts.jsonOutput)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of tools (0 uses the configured default)")
	return cmd
}

func newBuildCmd(opts *cliOptions) *cobra.Command {
	var version string
	cmd := &cobra.Command{
		Use:   "build <tool>",
		Short: "Generate an Lmod modulefile for a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), opts, func(ctx context.Context, service *app.Service) error {
				result := service.Build(ctx, domain.ModuleBuildRequest{
					ToolName: args[0],
					Version:  version,
				})
				if result.Err != nil {
					return result.Err
				}
				return printBuildResult(result, opts.jsonOutput)
			})
		},
	}
	cmd.Flags().StringVar(&version, "version", "", "version spec (exact tag or version prefix; empty for latest)")
	return cmd
}

func newBatchCmd(opts *cliOptions) *cobra.Command {
	var specFile string
	cmd := &cobra.Command{
		Use:   "batch [spec]...",
		Short: "Generate modulefiles for many tools; spec is tool or tool/version",
		RunE: func(cmd *cobra.Command, args []string) error {
			specs := args
			if specFile != "" {
				fromFile, err := readSpecFile(specFile)
				if err != nil {
					return err
				}
				specs = append(specs, fromFile...)
			}
			if len(specs) == 0 {
				return fmt.Errorf("no specs given; pass them as arguments or via --file")
			}
			return withService(cmd.Context(), opts, func(ctx context.Context, service *app.Service) error {
				requests := make([]domain.ModuleBuildRequest, 0, len(specs))
				for _, spec := range specs {
					requests = append(requests, domain.ParseBuildSpec(spec))
				}
				results := service.BuildMany(ctx, requests)
				return printBatchResults(results, opts.jsonOutput)
			})
		},
	}
	cmd.Flags().StringVar(&specFile, "file", "", "file with one tool spec per line; # starts a comment")
	return cmd
}

func newCacheCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cache",
		Short: "Show catalog cache information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), opts, func(ctx context.Context, service *app.Service) error {
				return printCacheInfo(service.CacheInfo(ctx), opts.jsonOutput)
			})
		},
	}
}

func readSpecFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var specs []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		specs = append(specs, line)
	}
	return specs, scanner.Err()
}
