package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tech4life-beyond/product-registry/internal/config"
	"github.com/tech4life-beyond/product-registry/internal/exports"
	"github.com/tech4life-beyond/product-registry/internal/mdtable"
)

var initProducts string

func init() {
	initCmd.Flags().StringVar(&initProducts, "products", "", "Record a local products repository path in registry.yml")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Scaffold a new product registry",
	Long: `Scaffold a new product registry: the index document with its
auto-generated marker and an empty table, the records directory, and
both JSON exports.

Examples:
  toil init
  toil init ~/registries/products --products ~/src/products`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

// indexPrologue is the hand-written part of a fresh index document.
// Everything below the marker is regenerated; the prologue is preserved.
const indexPrologue = `# TOIL Product Index

Canonical registry of Tech4Life products. The table below the marker is
regenerated by ` + "`toil sync`" + `; run ` + "`toil build`" + ` after editing rows by hand.`

// InitResult is the response for the init command.
type InitResult struct {
	Status string `json:"status"`
	Path   string `json:"path"`
	Index  string `json:"index"`
}

func runInit(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) > 0 {
		root = config.ExpandTilde(args[0])
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		exitWithError(ExitError, "resolving path: %v", err)
	}

	indexPath := config.IndexPath(absRoot)
	if _, err := os.Stat(indexPath); err == nil {
		exitWithError(ExitError, "already a product registry: %s exists", indexPath)
	}

	if err := os.MkdirAll(filepath.Dir(indexPath), 0755); err != nil {
		exitWithError(ExitError, "creating index directory: %v", err)
	}
	doc := mdtable.RewriteDocument(indexPrologue, nil)
	if err := os.WriteFile(indexPath, []byte(doc), 0644); err != nil {
		exitWithError(ExitError, "writing index: %v", err)
	}

	if err := os.MkdirAll(config.RecordsPath(absRoot), 0755); err != nil {
		exitWithError(ExitError, "creating records directory: %v", err)
	}

	if err := exports.WriteAll(config.LegacyExportPath(absRoot), config.V1ExportPath(absRoot), nil); err != nil {
		exitWithError(ExitError, "writing exports: %v", err)
	}

	if initProducts != "" {
		cfg := &config.Config{ProductsPath: initProducts}
		if err := cfg.Save(absRoot); err != nil {
			exitWithError(ExitError, "writing registry.yml: %v", err)
		}
	}

	if humanOutput {
		fmt.Printf("Initialized product registry at %s\n", absRoot)
	} else {
		outputJSON(InitResult{Status: "initialized", Path: absRoot, Index: indexPath})
	}

	return nil
}
