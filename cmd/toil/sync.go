package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tech4life-beyond/product-registry/internal/config"
	"github.com/tech4life-beyond/product-registry/internal/exports"
	"github.com/tech4life-beyond/product-registry/internal/git"
	"github.com/tech4life-beyond/product-registry/internal/github"
	"github.com/tech4life-beyond/product-registry/internal/mdtable"
	"github.com/tech4life-beyond/product-registry/internal/packs"
	"github.com/tech4life-beyond/product-registry/internal/product"
	"github.com/tech4life-beyond/product-registry/internal/records"
)

var (
	syncProducts     string
	syncAPI          bool
	syncWriteRecords bool
	syncDryRun       bool
)

func init() {
	// Load .env file if present (for TOIL_GITHUB_TOKEN)
	_ = godotenv.Load()

	syncCmd.Flags().StringVar(&syncProducts, "products", "", "Products repository: a local path, or a repo URL/slug with --api")
	syncCmd.Flags().BoolVar(&syncAPI, "api", false, "Fetch packs through the GitHub contents API instead of a local checkout")
	syncCmd.Flags().BoolVar(&syncWriteRecords, "write-records", false, "Scaffold record files for products that lack one")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Report what would change without writing anything")
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull product packs into the registry",
	Long: `Load product packs from the products repository, sort them by TOIL
ID, and rewrite the index table and both JSON exports.

The products repository is resolved in order: the --products flag, the
products_path in registry.yml, the global config, a sibling products/
directory next to the registry, and finally a shallow clone of the
products repo URL. With --api the packs are fetched through the GitHub
contents API instead (a token is read from TOIL_GITHUB_TOKEN,
GITHUB_TOKEN, or the global config).

Examples:
  toil sync
  toil sync --products ~/src/products --write-records
  toil sync --api --dry-run`,
	RunE: runSync,
}

// SyncResult is the response for the sync command.
type SyncResult struct {
	Status         string   `json:"status"`
	Source         string   `json:"source"`
	Products       int      `json:"products"`
	Added          []string `json:"added,omitempty"`
	Removed        []string `json:"removed,omitempty"`
	Changed        []string `json:"changed,omitempty"`
	RecordsWritten int      `json:"records_written,omitempty"`
}

func runSync(cmd *cobra.Command, args []string) error {
	root := mustResolveRepository()
	cfg := mustLoadConfig(root)
	ctx := cmd.Context()

	var (
		dir     string
		source  string
		cleanup func()
		err     error
	)
	if syncAPI {
		dir, source, cleanup, err = downloadProducts(ctx, cfg)
	} else {
		dir, source, cleanup, err = resolveProductsDir(ctx, root, cfg)
	}
	if err != nil {
		exitWithError(ExitConfigError, "resolving products repository: %v", err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	products, err := packs.Load(dir, cfg.Exclude)
	if err != nil {
		exitWithError(ExitError, "loading packs: %v", err)
	}
	if dupes := product.DuplicateIDs(products); len(dupes) > 0 {
		exitWithError(ExitValidationError, "duplicate TOIL IDs across packs: %s", product.JoinList(dupes))
	}

	current, err := currentIndexProducts(root)
	if err != nil {
		exitWithError(ExitValidationError, "parsing index: %v", err)
	}
	drift := exports.CompareProducts(products, current)

	result := SyncResult{
		Status:   "synced",
		Source:   source,
		Products: len(products),
		Added:    drift.MissingFromExport,
		Removed:  drift.ExtraInExport,
		Changed:  drift.Changed,
	}

	if syncDryRun {
		result.Status = "dry-run"
		if humanOutput {
			fmt.Printf("Would sync %d products from %s\n", result.Products, result.Source)
			printSyncChanges(result)
		} else {
			outputJSON(result)
		}
		return nil
	}

	if err := mdtable.WriteFile(config.IndexPath(root), products); err != nil {
		exitWithError(ExitError, "writing index: %v", err)
	}
	if err := exports.WriteAll(config.LegacyExportPath(root), config.V1ExportPath(root), products); err != nil {
		exitWithError(ExitError, "writing exports: %v", err)
	}

	if syncWriteRecords {
		recordsDir := config.RecordsPath(root)
		for _, p := range products {
			_, created, err := records.Write(recordsDir, p)
			if err != nil {
				exitWithError(ExitError, "writing record for %s: %v", p.TOILID, err)
			}
			if created {
				result.RecordsWritten++
			}
		}
	}

	if humanOutput {
		fmt.Printf("Synced %d products from %s\n", result.Products, result.Source)
		printSyncChanges(result)
		if syncWriteRecords {
			fmt.Printf("  records scaffolded: %d\n", result.RecordsWritten)
		}
	} else {
		outputJSON(result)
	}

	return nil
}

func printSyncChanges(result SyncResult) {
	if len(result.Added) > 0 {
		fmt.Printf("  added:   %s\n", product.JoinList(result.Added))
	}
	if len(result.Removed) > 0 {
		fmt.Printf("  removed: %s\n", product.JoinList(result.Removed))
	}
	if len(result.Changed) > 0 {
		fmt.Printf("  changed: %s\n", product.JoinList(result.Changed))
	}
}

// currentIndexProducts parses the index as it stands so sync can report
// what changed. A registry without an index yet yields an empty list.
func currentIndexProducts(root string) ([]product.Product, error) {
	table, err := mdtable.ParseFile(config.IndexPath(root), mdtable.Lenient)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return table.Products(), nil
}

// resolveProductsDir locates a local products repository checkout,
// cloning the products repo into a temp directory as a last resort.
func resolveProductsDir(ctx context.Context, root string, cfg *config.Config) (dir, source string, cleanup func(), err error) {
	if syncProducts != "" {
		dir = config.ExpandTilde(syncProducts)
		if err := checkDir(dir); err != nil {
			return "", "", nil, err
		}
		return dir, dir, nil, nil
	}

	if cfg.ProductsPath != "" {
		dir = config.ExpandTilde(cfg.ProductsPath)
		if err := checkDir(dir); err != nil {
			return "", "", nil, fmt.Errorf("registry.yml products_path: %w", err)
		}
		return dir, dir, nil, nil
	}

	global, err := config.LoadGlobalConfig()
	if err != nil {
		return "", "", nil, err
	}
	if global.ProductsPath != "" {
		dir = config.ExpandTilde(global.ProductsPath)
		if err := checkDir(dir); err != nil {
			return "", "", nil, fmt.Errorf("global config products_path: %w", err)
		}
		return dir, dir, nil, nil
	}

	sibling := filepath.Join(filepath.Dir(root), "products")
	if info, err := os.Stat(sibling); err == nil && info.IsDir() {
		return sibling, sibling, nil, nil
	}

	url := cfg.ProductsURL
	if url == "" {
		url = global.ProductsURL
	}
	if url == "" {
		url = config.DefaultProductsURL
	}
	tmp, err := git.CloneTemp(ctx, url)
	if err != nil {
		return "", "", nil, err
	}
	return tmp, url, func() { os.RemoveAll(tmp) }, nil
}

// downloadProducts fetches packs through the GitHub contents API into a
// temp directory.
func downloadProducts(ctx context.Context, cfg *config.Config) (dir, source string, cleanup func(), err error) {
	repo, err := resolveProductsRepo(cfg)
	if err != nil {
		return "", "", nil, err
	}

	var opts []github.ClientOption
	if token := config.ResolveGitHubToken(); token != "" {
		opts = append(opts, github.WithToken(token))
	}
	client := github.NewClient(opts...)

	tmp, err := os.MkdirTemp("", "t4l-packs-")
	if err != nil {
		return "", "", nil, err
	}
	if _, err := client.DownloadPacks(ctx, repo, tmp); err != nil {
		os.RemoveAll(tmp)
		return "", "", nil, err
	}
	return tmp, repo, func() { os.RemoveAll(tmp) }, nil
}

// resolveProductsRepo picks the owner/repo slug for API mode.
func resolveProductsRepo(cfg *config.Config) (string, error) {
	global, _ := config.LoadGlobalConfig()
	for _, candidate := range []string{syncProducts, cfg.ProductsRepo, global.ProductsURL} {
		if candidate != "" {
			return github.RepoSlug(candidate)
		}
	}
	return config.DefaultProductsRepo, nil
}

func checkDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("products path %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("products path %s is not a directory", dir)
	}
	return nil
}
