package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tech4life-beyond/product-registry/internal/product"
	"github.com/tech4life-beyond/product-registry/internal/storage"
	"github.com/tech4life-beyond/product-registry/internal/validate"
)

// --- Get tool ---

// GetInput is the input for the get tool.
type GetInput struct {
	ID string `json:"id" jsonschema:"TOIL ID of the product to fetch"`
}

// GetOutput is the output for the get tool.
type GetOutput struct {
	Product *product.Product `json:"product" jsonschema:"the registry product"`
}

func handleGet(db *storage.DB) mcp.ToolHandlerFor[GetInput, GetOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input GetInput) (*mcp.CallToolResult, GetOutput, error) {
		if input.ID == "" {
			return nil, GetOutput{}, errors.New("specify a TOIL ID")
		}

		p, err := db.GetByID(input.ID)
		if err != nil {
			return nil, GetOutput{}, fmt.Errorf("getting product: %w", err)
		}
		if p == nil {
			return nil, GetOutput{}, fmt.Errorf("product %s not found", input.ID)
		}

		return nil, GetOutput{Product: p}, nil
	}
}

// --- Validate tool ---

// ValidateInput is the input for the validate tool (no parameters needed).
type ValidateInput struct{}

// ValidateOutput is the output for the validate tool.
type ValidateOutput struct {
	Status   string           `json:"status"   jsonschema:"ok when every check passed, issues otherwise"`
	Products int              `json:"products" jsonschema:"number of index products checked"`
	Records  int              `json:"records"  jsonschema:"number of record files checked"`
	Issues   []validate.Issue `json:"issues"   jsonschema:"consistency failures found"`
}

func handleValidate(root string) mcp.ToolHandlerFor[ValidateInput, ValidateOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, _ ValidateInput) (*mcp.CallToolResult, ValidateOutput, error) {
		result, err := validate.Registry(root)
		if err != nil {
			return nil, ValidateOutput{}, fmt.Errorf("validating registry: %w", err)
		}

		out := ValidateOutput{
			Status:   result.Status,
			Products: result.Products,
			Records:  result.Records,
			Issues:   result.Issues,
		}

		return nil, out, nil
	}
}
