package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tech4life-beyond/product-registry/internal/product"
	"github.com/tech4life-beyond/product-registry/internal/storage"
)

// defaultLimit caps query results when the caller does not set one.
const defaultLimit = 50

// --- List tool ---

// ListInput is the input for the list tool.
type ListInput struct {
	Category string `json:"category,omitempty" jsonschema:"filter by category substring"`
	Status   string `json:"status,omitempty"   jsonschema:"filter by exact status (Active, Retired)"`
	Creator  string `json:"creator,omitempty"  jsonschema:"filter by lead creator substring"`
	Limit    int    `json:"limit,omitempty"    jsonschema:"maximum products to return (default 50)"`
}

// ListOutput is the output for the list tool.
type ListOutput struct {
	Count    int               `json:"count"    jsonschema:"number of products returned"`
	Products []product.Product `json:"products" jsonschema:"matching products in TOIL ID order"`
}

func handleList(db *storage.DB) mcp.ToolHandlerFor[ListInput, ListOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, ListOutput, error) {
		limit := input.Limit
		if limit <= 0 {
			limit = defaultLimit
		}

		products, err := db.List(storage.Filters{
			Category: input.Category,
			Status:   input.Status,
			Creator:  input.Creator,
		}, limit)
		if err != nil {
			return nil, ListOutput{}, fmt.Errorf("listing products: %w", err)
		}

		// Empty result is not an error
		if products == nil {
			products = []product.Product{}
		}

		return nil, ListOutput{Count: len(products), Products: products}, nil
	}
}

// --- Search tool ---

// SearchInput is the input for the search tool.
type SearchInput struct {
	Query    string `json:"query"              jsonschema:"full-text query over name, category, creator, aliases, and legacy IDs"`
	Category string `json:"category,omitempty" jsonschema:"filter by category substring"`
	Status   string `json:"status,omitempty"   jsonschema:"filter by exact status (Active, Retired)"`
	Creator  string `json:"creator,omitempty"  jsonschema:"filter by lead creator substring"`
	Limit    int    `json:"limit,omitempty"    jsonschema:"maximum products to return (default 50)"`
}

// SearchOutput is the output for the search tool.
type SearchOutput struct {
	Count    int               `json:"count"    jsonschema:"number of products returned"`
	Products []product.Product `json:"products" jsonschema:"matching products in TOIL ID order"`
}

func handleSearch(db *storage.DB) mcp.ToolHandlerFor[SearchInput, SearchOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
		if input.Query == "" {
			return nil, SearchOutput{}, errors.New("specify a search query")
		}

		limit := input.Limit
		if limit <= 0 {
			limit = defaultLimit
		}

		products, err := db.Search(input.Query, storage.Filters{
			Category: input.Category,
			Status:   input.Status,
			Creator:  input.Creator,
		}, limit)
		if err != nil {
			return nil, SearchOutput{}, fmt.Errorf("searching products: %w", err)
		}

		// Empty result is not an error
		if products == nil {
			products = []product.Product{}
		}

		return nil, SearchOutput{Count: len(products), Products: products}, nil
	}
}
