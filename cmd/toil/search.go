package main

import (
	"github.com/spf13/cobra"

	"github.com/tech4life-beyond/product-registry/internal/product"
	"github.com/tech4life-beyond/product-registry/internal/storage"
)

var (
	searchCategory string
	searchStatus   string
	searchCreator  string
	searchLimit    int
)

func init() {
	searchCmd.Flags().StringVar(&searchCategory, "category", "", "Filter by category substring")
	searchCmd.Flags().StringVar(&searchStatus, "status", "", "Filter by exact status (Active, Retired)")
	searchCmd.Flags().StringVar(&searchCreator, "creator", "", "Filter by lead creator substring")
	searchCmd.Flags().IntVar(&searchLimit, "limit", DefaultQueryLimit, "Maximum number of products to return")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search products by name, ID, or alias",
	Long: `Search products in the query cache. The query matches
case-insensitively against TOIL IDs, product names, aliases, and legacy
IDs.

Examples:
  toil search "drain"
  toil search AQS --status Active --human`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	root := mustResolveRepository()
	db := mustOpenDatabase(root)
	defer db.Close()

	filters := storage.Filters{
		Category: searchCategory,
		Status:   searchStatus,
		Creator:  searchCreator,
	}
	products, err := db.Search(args[0], filters, searchLimit)
	if err != nil {
		exitWithError(ExitError, "searching products: %v", err)
	}

	// Empty result is not an error
	if products == nil {
		products = []product.Product{}
	}

	if humanOutput {
		printProductsHuman(products)
	} else {
		outputJSON(products)
	}

	return nil
}
