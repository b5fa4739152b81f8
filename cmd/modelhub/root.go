package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/openuba/model-hub/internal/catalog"
	"github.com/openuba/model-hub/internal/config"
	"github.com/openuba/model-hub/internal/storage"
	"github.com/openuba/model-hub/internal/telemetry"

	// Import storage backends to register them
	_ "github.com/openuba/model-hub/internal/storage/azure"
	_ "github.com/openuba/model-hub/internal/storage/gcs"
	_ "github.com/openuba/model-hub/internal/storage/local"
	_ "github.com/openuba/model-hub/internal/storage/s3"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "modelhub",
		Short: "OpenUBA Model Hub - browse and publish the model catalog",
		Long: `modelhub serves and exports the OpenUBA model catalog.

The registry document (JSON or YAML) and each model's model.yaml and MODEL.py
are read from the configured storage backend: a local directory, S3, GCS or
Azure Blob Storage.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("config", "c", os.Getenv("CONFIG_PATH"),
		"config file (default: ./config.yaml, ./config/config.yaml or /etc/modelhub/config.yaml)")

	root.AddCommand(
		newServeCmd(),
		newBuildCmd(),
		newSearchCmd(),
		newShowCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads the config named by --config and installs the logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	telemetry.SetupLogger(cfg.Logging.Format, cfg.Logging.Level)
	return cfg, nil
}

// openCatalog initialises the storage backend and loads the registry from it.
// A registry that cannot be loaded is fatal for every command.
func openCatalog(ctx context.Context, cfg *config.Config) (storage.Storage, *catalog.Store, error) {
	backend, err := storage.NewStorage(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	slog.Debug("initialized storage backend", "backend", cfg.Storage.DefaultBackend)

	store, err := catalog.Load(ctx, backend, cfg.Catalog.RegistryPath)
	if err != nil {
		return nil, nil, err
	}
	return backend, store, nil
}

// setupTracing installs the tracer provider and returns its shutdown function.
func setupTracing(ctx context.Context, cfg *config.Config) (func(), error) {
	tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Tracing)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	return func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			slog.Warn("tracer shutdown", "error", err)
		}
	}, nil
}
