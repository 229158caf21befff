package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tech4life-beyond/product-registry/internal/config"
	"github.com/tech4life-beyond/product-registry/internal/mdtable"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the query cache from the index",
	Long: `Drop and repopulate the SQLite query cache from the canonical
index table. The cache is derived state; it is safe to delete and
rebuild at any time.

Examples:
  toil rebuild`,
	RunE: runRebuild,
}

// RebuildResult is the response for the rebuild command.
type RebuildResult struct {
	Status   string `json:"status"`
	Products int    `json:"products"`
}

func runRebuild(cmd *cobra.Command, args []string) error {
	root := mustResolveRepository()

	table, err := mdtable.ParseFile(config.IndexPath(root), mdtable.Lenient)
	if err != nil {
		exitWithError(ExitValidationError, "parsing index: %v", err)
	}

	db := mustOpenDatabase(root)
	defer db.Close()

	count, err := db.Rebuild(table.Products())
	if err != nil {
		exitWithError(ExitError, "rebuilding cache: %v", err)
	}

	if humanOutput {
		fmt.Printf("Rebuilt query cache with %d products\n", count)
	} else {
		outputJSON(RebuildResult{Status: "rebuilt", Products: count})
	}

	return nil
}
