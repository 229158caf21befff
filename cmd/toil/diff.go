package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tech4life-beyond/product-registry/internal/config"
	"github.com/tech4life-beyond/product-registry/internal/exports"
	"github.com/tech4life-beyond/product-registry/internal/mdtable"
	"github.com/tech4life-beyond/product-registry/internal/product"
)

func init() {
	rootCmd.AddCommand(diffCmd)
}

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show drift between the index and the exports",
	Long: `Compare the products in the index against each on-disk JSON
export, per product: which IDs are missing from an export, which appear
only in an export, and which changed.

Exits with code 4 when any export has drifted. A missing export counts
as drift.

Examples:
  toil diff
  toil diff --human`,
	RunE: runDiff,
}

// ExportDiff describes one export's drift from the index.
type ExportDiff struct {
	Path    string         `json:"path"`
	Missing bool           `json:"missing,omitempty"`
	Drift   *exports.Drift `json:"drift,omitempty"`
}

// DiffResult is the response for the diff command.
type DiffResult struct {
	Status   string     `json:"status"`
	Products int        `json:"products"`
	Legacy   ExportDiff `json:"legacy"`
	V1       ExportDiff `json:"v1"`
}

func runDiff(cmd *cobra.Command, args []string) error {
	root := mustResolveRepository()

	table, err := mdtable.ParseFile(config.IndexPath(root), mdtable.Lenient)
	if err != nil {
		exitWithError(ExitValidationError, "parsing index: %v", err)
	}
	indexProducts := table.Products()

	legacy := diffExport(indexProducts, config.LegacyExportPath(root), exports.ReadLegacy)
	v1 := diffExport(indexProducts, config.V1ExportPath(root), readV1Products)

	result := DiffResult{
		Status:   "ok",
		Products: len(indexProducts),
		Legacy:   legacy,
		V1:       v1,
	}
	if exportDrifted(legacy) || exportDrifted(v1) {
		result.Status = "drift"
	}

	if humanOutput {
		printDiffHuman(result)
	} else {
		outputJSON(result)
	}

	if result.Status == "drift" {
		os.Exit(ExitDriftError)
	}
	return nil
}

// diffExport reads one export and compares its products against the
// index. A missing file is reported rather than treated as an error.
func diffExport(indexProducts []product.Product, path string, read func(string) ([]product.Product, error)) ExportDiff {
	exported, err := read(path)
	if errors.Is(err, os.ErrNotExist) {
		return ExportDiff{Path: path, Missing: true}
	}
	if err != nil {
		exitWithError(ExitValidationError, "reading export %s: %v", path, err)
	}
	drift := exports.CompareProducts(indexProducts, exported)
	if drift.Empty() {
		return ExportDiff{Path: path}
	}
	return ExportDiff{Path: path, Drift: drift}
}

func readV1Products(path string) ([]product.Product, error) {
	doc, err := exports.ReadV1(path)
	if err != nil {
		return nil, err
	}
	return doc.Products, nil
}

func exportDrifted(d ExportDiff) bool {
	return d.Missing || d.Drift != nil
}

func printDiffHuman(result DiffResult) {
	fmt.Printf("Export drift report (%d products in index)\n\n", result.Products)
	printExportDiffHuman(result.Legacy)
	printExportDiffHuman(result.V1)
	if result.Status == "ok" {
		fmt.Println("Exports are up to date.")
	} else {
		fmt.Println("Run 'toil build' to refresh the exports.")
	}
}

func printExportDiffHuman(d ExportDiff) {
	switch {
	case d.Missing:
		fmt.Printf("%s: missing\n\n", d.Path)
	case d.Drift == nil:
		fmt.Printf("%s: up to date\n\n", d.Path)
	default:
		fmt.Printf("%s:\n", d.Path)
		if len(d.Drift.MissingFromExport) > 0 {
			fmt.Printf("  missing from export: %s\n", product.JoinList(d.Drift.MissingFromExport))
		}
		if len(d.Drift.ExtraInExport) > 0 {
			fmt.Printf("  extra in export:     %s\n", product.JoinList(d.Drift.ExtraInExport))
		}
		if len(d.Drift.Changed) > 0 {
			fmt.Printf("  changed:             %s\n", product.JoinList(d.Drift.Changed))
		}
		fmt.Println()
	}
}
