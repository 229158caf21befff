package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tech4life-beyond/product-registry/internal/config"
	"github.com/tech4life-beyond/product-registry/internal/exports"
	"github.com/tech4life-beyond/product-registry/internal/mdtable"
	"github.com/tech4life-beyond/product-registry/internal/storage"
	"github.com/tech4life-beyond/product-registry/internal/watch"
)

var watchDebounce time.Duration

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "Quiet period before a change batch triggers a rebuild")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the registry and rebuild on change",
	Long: `Watch the index and records directories. Edits are debounced
into batches; each batch regenerates the JSON exports and the query
cache. Progress is logged to stderr. Stop with Ctrl-C.

Examples:
  toil watch
  toil watch --debounce 2s`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	root := mustResolveRepository()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db := mustOpenDatabase(root)
	defer db.Close()

	w, err := watch.New(root, watchDebounce, logger)
	if err != nil {
		exitWithError(ExitError, "creating watcher: %v", err)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := w.Start(ctx); err != nil {
		exitWithError(ExitError, "starting watcher: %v", err)
	}
	defer w.Stop()

	// First pass before any edit so derived state starts fresh.
	rebuildPass(root, db, logger, nil)

	for batch := range w.Events() {
		rebuildPass(root, db, logger, batch)
	}

	logger.Info("registry watcher stopped")
	return nil
}

// rebuildPass regenerates the exports and the query cache from the
// index. Failures are logged so one bad edit does not end the watch.
func rebuildPass(root string, db *storage.DB, logger *slog.Logger, changed []string) {
	start := time.Now()

	table, err := mdtable.ParseFile(config.IndexPath(root), mdtable.Lenient)
	if err != nil {
		logger.Error("parsing index", "error", err)
		return
	}
	products := table.Products()

	if err := exports.WriteAll(config.LegacyExportPath(root), config.V1ExportPath(root), products); err != nil {
		logger.Error("writing exports", "error", err)
		return
	}

	count, err := db.Rebuild(products)
	if err != nil {
		logger.Error("rebuilding cache", "error", err)
		return
	}

	logger.Info("rebuild pass complete",
		"changed_paths", len(changed),
		"products", count,
		"elapsed", time.Since(start).Round(time.Millisecond))
}
