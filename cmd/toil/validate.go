package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tech4life-beyond/product-registry/internal/validate"
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the registry for consistency issues",
	Long: `Check the whole registry for consistency: index parse and ID
problems, duplicate IDs, missing or orphaned record files, frontmatter
that disagrees with the index, retired fields, and stale exports.

Exits with code 3 when any issue is found.

Examples:
  toil validate
  toil validate --human`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	root := mustResolveRepository()

	result, err := validate.Registry(root)
	if err != nil {
		exitWithError(ExitError, "validating registry: %v", err)
	}

	if humanOutput {
		printValidateHuman(result)
	} else {
		outputJSON(result)
	}

	if !result.OK() {
		os.Exit(ExitValidationError)
	}
	return nil
}

func printValidateHuman(result *validate.Result) {
	if result.OK() {
		fmt.Printf("Registry validation passed: %d products, %d records\n", result.Products, result.Records)
		return
	}

	fmt.Println("Registry validation failed:")
	for _, issue := range result.Issues {
		subject := issue.ID
		if subject == "" {
			subject = issue.Path
		}
		if subject != "" {
			fmt.Printf("  - [%s] %s: %s\n", issue.Type, subject, issue.Reason)
		} else {
			fmt.Printf("  - [%s] %s\n", issue.Type, issue.Reason)
		}
	}
	fmt.Printf("\n%d issues found\n", len(result.Issues))
}
