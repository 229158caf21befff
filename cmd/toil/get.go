package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tech4life-beyond/product-registry/internal/product"
)

func init() {
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <toil-id>",
	Short: "Get a product by TOIL ID",
	Long: `Get a product from the query cache by its TOIL ID.

Examples:
  toil get T4L-TOIL-001-CDD
  toil get T4L-TOIL-001-CDD --human`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	root := mustResolveRepository()
	db := mustOpenDatabase(root)
	defer db.Close()

	p, err := db.GetByID(args[0])
	if err != nil {
		exitWithError(ExitError, "getting product: %v", err)
	}
	if p == nil {
		exitWithError(ExitError, "product not found: %s (run 'toil rebuild' if the cache is stale)", args[0])
	}

	if humanOutput {
		printProductDetail(*p)
	} else {
		outputJSON(p)
	}

	return nil
}

func printProductDetail(p product.Product) {
	fmt.Println(p.TOILID)
	fmt.Println(strings.Repeat("=", len(p.TOILID)))
	fmt.Println()
	fmt.Printf("Name:          %s\n", p.ProductName)
	if p.Category != "" {
		fmt.Printf("Category:      %s\n", p.Category)
	}
	fmt.Printf("Lead Creator:  %s\n", p.LeadCreator)
	fmt.Printf("Status:        %s\n", p.Status)
	fmt.Printf("License State: %s\n", p.LicenseState)
	if len(p.Aliases) > 0 {
		fmt.Printf("Aliases:       %s\n", product.JoinList(p.Aliases))
	}
	if len(p.LegacyIDs) > 0 {
		fmt.Printf("Legacy IDs:    %s\n", product.JoinList(p.LegacyIDs))
	}
}
