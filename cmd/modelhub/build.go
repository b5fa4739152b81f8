package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openuba/model-hub/internal/artifact"
	"github.com/openuba/model-hub/internal/config"
	"github.com/openuba/model-hub/internal/site"
)

func newBuildCmd() *cobra.Command {
	var (
		outDir   string
		basePath string
		watch    bool
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Export the catalog as a static site",
		Long: `Write models/index.html, models/<slug>/index.html, models/index.json and
404.html to the output directory. Files whose content did not change are left
untouched.

Examples:
  # Export into ./out
  modelhub build

  # Export for GitHub Pages under a project path
  modelhub build --out public --base-path /openuba-model-hub

  # Rebuild whenever the registry or an artifact changes (local backend only)
  modelhub build --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("out") {
				cfg.Build.OutputDir = outDir
			}
			if cmd.Flags().Changed("base-path") {
				cfg.Build.BasePath = basePath
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			shutdownTracing, err := setupTracing(ctx, cfg)
			if err != nil {
				return err
			}
			defer shutdownTracing()

			if err := buildOnce(ctx, cfg, cmd.OutOrStdout()); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			return watchAndRebuild(ctx, cfg, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default: build.output_dir)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "path prefix for every link, e.g. /openuba-model-hub")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "rebuild when the registry or artifacts change")
	return cmd
}

// buildOnce loads a fresh store and writes the site.
func buildOnce(ctx context.Context, cfg *config.Config, out io.Writer) error {
	backend, store, err := openCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	loader := artifact.NewLoader(backend, cfg.Catalog.ArtifactRoot, cfg.Catalog.MaxArtifactBytes)

	res, err := site.NewBuilder(cfg, store, loader).Build(ctx)
	if err != nil {
		return fmt.Errorf("build site: %w", err)
	}
	fmt.Fprintln(out, renderBuildSummary(cfg.Build.OutputDir, store.Len(), res))
	return nil
}

func watchAndRebuild(ctx context.Context, cfg *config.Config, out io.Writer) error {
	if cfg.Storage.DefaultBackend != "local" {
		return fmt.Errorf("--watch requires the local storage backend, got %q", cfg.Storage.DefaultBackend)
	}

	w, err := site.NewWatcher(site.DefaultWatchDebounce, func(ctx context.Context) error {
		return buildOnce(ctx, cfg, out)
	})
	if err != nil {
		return err
	}
	w.Ignore(cfg.Build.OutputDir)
	root := filepath.Clean(cfg.Storage.Local.BasePath)
	if err := w.Add(root); err != nil {
		return err
	}

	slog.Info("watching for changes", "root", root, "output", cfg.Build.OutputDir)
	return w.Run(ctx)
}
