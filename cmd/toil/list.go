package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tech4life-beyond/product-registry/internal/product"
	"github.com/tech4life-beyond/product-registry/internal/storage"
)

var (
	listCategory string
	listStatus   string
	listCreator  string
	listLimit    int
)

func init() {
	listCmd.Flags().StringVar(&listCategory, "category", "", "Filter by category substring")
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by exact status (Active, Retired)")
	listCmd.Flags().StringVar(&listCreator, "creator", "", "Filter by lead creator substring")
	listCmd.Flags().IntVar(&listLimit, "limit", DefaultQueryLimit, "Maximum number of products to return")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List products from the query cache",
	Long: `List products ordered by TOIL ID, optionally filtered.

Examples:
  toil list
  toil list --status Active --category Home
  toil list --creator "Ariel Martin" --limit 10 --human`,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	root := mustResolveRepository()
	db := mustOpenDatabase(root)
	defer db.Close()

	filters := storage.Filters{
		Category: listCategory,
		Status:   listStatus,
		Creator:  listCreator,
	}
	products, err := db.List(filters, listLimit)
	if err != nil {
		exitWithError(ExitError, "listing products: %v", err)
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

func printProductsHuman(products []product.Product) {
	if len(products) == 0 {
		fmt.Println("No products found")
		return
	}

	fmt.Printf("Found %d products:\n\n", len(products))
	for i, p := range products {
		printProductSummary(i+1, p)
	}
}

func printProductSummary(num int, p product.Product) {
	fmt.Printf("[%d] %s\n", num, p.TOILID)
	fmt.Printf("    %s\n", truncateString(p.ProductName, ProductNameMaxLen))
	if p.Category != "" {
		fmt.Printf("    %s\n", p.Category)
	}
	fmt.Printf("    %s / %s\n", p.Status, p.LicenseState)
	fmt.Println()
}
