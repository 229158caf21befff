// Package main provides the toil CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tech4life-beyond/product-registry/internal/config"
	"github.com/tech4life-beyond/product-registry/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "toil",
	Short: "Tech4Life product registry toolkit",
	Long: `toil maintains the Tech4Life product registry.

The Markdown index table is the single source of truth. Tooling derives
the JSON exports from it, checks the index, per-product records, and
exports against each other, and pulls candidate products in from the
products repository.

Registry data is plain git-versionable text; a throwaway SQLite cache
answers queries. All commands output JSON by default for agent
integration. Use --human for human-readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}

// getStartingDirectory returns the directory registry discovery starts from.
func getStartingDirectory() string {
	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}
	return cwd
}

// mustResolveRepository locates the registry root or exits with guidance.
// Discovery walks up from the working directory, then falls back to the
// registry_path pinned in the global config.
func mustResolveRepository() string {
	root, err := config.ResolveRepository(getStartingDirectory())
	if err != nil {
		fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
		os.Exit(ExitConfigError)
	}
	return root
}

// mustOpenDatabase opens the SQLite query cache, exiting on failure.
// The caller is responsible for closing the returned DB.
func mustOpenDatabase(root string) *storage.DB {
	db, err := storage.Open(config.DBPath(root))
	if err != nil {
		exitWithError(ExitError, "opening query cache: %v", err)
	}
	return db
}

// mustLoadConfig reads registry.yml, exiting on failure. A missing file
// yields the zero config.
func mustLoadConfig(root string) *config.Config {
	cfg, err := config.Load(root)
	if err != nil {
		exitWithError(ExitConfigError, "loading registry.yml: %v", err)
	}
	return cfg
}
