package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tech4life-beyond/product-registry/internal/config"
	"github.com/tech4life-beyond/product-registry/internal/exports"
	"github.com/tech4life-beyond/product-registry/internal/mdtable"
	"github.com/tech4life-beyond/product-registry/internal/product"
)

var buildCheck bool

func init() {
	buildCmd.Flags().BoolVar(&buildCheck, "check", false, "Write nothing; fail if the on-disk exports are stale")
	rootCmd.AddCommand(buildCmd)
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Regenerate the JSON exports from the index",
	Long: `Parse the canonical index table and write both JSON exports,
preserving the index row order.

With --check nothing is written: the command exits with code 4 when an
on-disk export differs byte-for-byte from what the current index would
regenerate. A missing export counts as stale.

Examples:
  toil build
  toil build --check`,
	RunE: runBuild,
}

// BuildResult is the response for the build command.
type BuildResult struct {
	Status   string   `json:"status"`
	Products int      `json:"products"`
	Written  []string `json:"written,omitempty"`
	Stale    []string `json:"stale,omitempty"`
}

func runBuild(cmd *cobra.Command, args []string) error {
	root := mustResolveRepository()

	table, err := mdtable.ParseFile(config.IndexPath(root), mdtable.Lenient)
	if err != nil {
		exitWithError(ExitValidationError, "parsing index: %v", err)
	}
	if err := table.ValidateIDs(); err != nil {
		exitWithError(ExitValidationError, "validating index: %v", err)
	}
	products := table.Products()

	legacyPath := config.LegacyExportPath(root)
	v1Path := config.V1ExportPath(root)

	if buildCheck {
		stale, err := staleExports(products, legacyPath, v1Path)
		if err != nil {
			exitWithError(ExitError, "checking exports: %v", err)
		}
		if len(stale) > 0 {
			if humanOutput {
				fmt.Println("Exports are stale:")
				for _, path := range stale {
					fmt.Printf("  %s\n", path)
				}
				fmt.Println()
				fmt.Println("Run 'toil build' to refresh them.")
			} else {
				outputJSON(BuildResult{Status: "stale", Products: len(products), Stale: stale})
			}
			os.Exit(ExitDriftError)
		}
		if humanOutput {
			fmt.Printf("Exports are up to date (%d products)\n", len(products))
		} else {
			outputJSON(BuildResult{Status: "ok", Products: len(products)})
		}
		return nil
	}

	if err := exports.WriteAll(legacyPath, v1Path, products); err != nil {
		exitWithError(ExitError, "writing exports: %v", err)
	}

	if humanOutput {
		fmt.Printf("Wrote %d products to %s and %s\n", len(products), legacyPath, v1Path)
	} else {
		outputJSON(BuildResult{Status: "built", Products: len(products), Written: []string{legacyPath, v1Path}})
	}

	return nil
}

// staleExports returns the export paths whose on-disk bytes differ from
// what the product list regenerates. A missing export is stale.
func staleExports(products []product.Product, legacyPath, v1Path string) ([]string, error) {
	var stale []string

	wantLegacy, err := exports.EncodeLegacy(products)
	if err != nil {
		return nil, err
	}
	gotLegacy, err := os.ReadFile(legacyPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if !bytes.Equal(wantLegacy, gotLegacy) {
		stale = append(stale, legacyPath)
	}

	wantV1, err := exports.EncodeV1(products)
	if err != nil {
		return nil, err
	}
	gotV1, err := os.ReadFile(v1Path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if !bytes.Equal(wantV1, gotV1) {
		stale = append(stale, v1Path)
	}

	return stale, nil
}
