package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openuba/model-hub/internal/catalog"
)

func newSearchCmd() *cobra.Command {
	var (
		framework string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Search the registry",
		Long: `Filter models by a case-insensitive text query over name, description,
framework and tags, optionally restricted to one framework.

Examples:
  modelhub search auth
  modelhub search --framework PyTorch
  modelhub search forest --json | jq '.[].slug'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			_, store, err := openCatalog(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			q := catalog.Query{
				Text:      strings.Join(args, " "),
				Framework: catalog.ParseFramework(framework),
			}
			results := store.Search(q)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderResults(results, store.Len()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&framework, "framework", "f", "", `restrict to one framework ("All" for every framework)`)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print matching entries as JSON")
	return cmd
}
