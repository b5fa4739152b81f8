package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openuba/model-hub/internal/artifact"
	"github.com/openuba/model-hub/internal/catalog"
)

func newShowCmd() *cobra.Command {
	var withArtifacts bool
	cmd := &cobra.Command{
		Use:   "show <slug>",
		Short: "Show one model",
		Long: `Print a model's metadata, parameters and install command. With --artifacts
the model.yaml and MODEL.py contents are printed too.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			backend, store, err := openCatalog(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			entry, err := store.Resolve(args[0])
			if err != nil {
				return fmt.Errorf("%w: %s", err, args[0])
			}

			var pair *artifact.Pair
			if withArtifacts {
				loader := artifact.NewLoader(backend, cfg.Catalog.ArtifactRoot, cfg.Catalog.MaxArtifactBytes)
				p := loader.LoadPair(cmd.Context(), entry.Path)
				pair = &p
			}
			install := catalog.FormatInstallCommand(cfg.Catalog.InstallTool, entry.Name)
			fmt.Fprint(cmd.OutOrStdout(), renderEntry(entry, install, pair))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&withArtifacts, "artifacts", "a", false, "also print model.yaml and MODEL.py")
	return cmd
}
