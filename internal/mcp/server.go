// Package mcp provides a Model Context Protocol server for the registry.
// It exposes read-only registry operations as MCP tools that any
// MCP-capable agent can use.
package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tech4life-beyond/product-registry/internal/storage"
)

// NewServer creates an MCP server with all registry tools registered.
// Queries run against db; validate walks the registry at root.
func NewServer(version, root string, db *storage.DB) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "toil",
		Version: version,
	}, nil)
	registerTools(server, root, db)
	return server
}

// boolPtr returns a pointer to a bool value.
func boolPtr(b bool) *bool {
	return &b
}

// readOnlyAnnotations returns annotations for read-only tools. Every
// registry tool is read-only; mutation stays with the CLI.
func readOnlyAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		ReadOnlyHint:   true,
		IdempotentHint: true,
		OpenWorldHint:  boolPtr(false),
	}
}

// registerTools adds all registry tools to the server.
func registerTools(server *mcp.Server, root string, db *storage.DB) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get",
		Description: "Fetch a single registry product by its TOIL ID. Returns all product fields including aliases and legacy IDs.",
		Annotations: readOnlyAnnotations(),
	}, handleGet(db))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list",
		Description: "List registry products in TOIL ID order. Supports category/status/creator filters and a result limit.",
		Annotations: readOnlyAnnotations(),
	}, handleList(db))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search",
		Description: "Full-text search over product names, categories, creators, aliases, and legacy IDs. Supports the same filters as list.",
		Annotations: readOnlyAnnotations(),
	}, handleSearch(db))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate",
		Description: "Run every registry consistency check: index shape, TOIL ID format, record/index agreement, export freshness, and schema conformance. Returns all issues found.",
		Annotations: readOnlyAnnotations(),
	}, handleValidate(root))
}
