package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hvacnews/internal/catalog"
)

var importCatalogCmd = &cobra.Command{
	Use:   "import-catalog [file]",
	Short: "Import sources and manufacturers from a YAML catalog",
	Long: `Upsert every source (matched by URL) and manufacturer (matched by
name) from the catalog file. Defaults to CATALOG_PATH when no file is
given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.CatalogPath
		if len(args) == 1 {
			path = args[0]
		}

		res, err := catalog.Import(cmd.Context(), db, path)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d sources and %d manufacturers (%d skipped)\n",
			res.Sources, res.Manufacturers, res.Skipped)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCatalogCmd)
}
