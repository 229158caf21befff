package main

import (
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/tech4life-beyond/product-registry/internal/config"
	"github.com/tech4life-beyond/product-registry/internal/mdtable"
	toilmcp "github.com/tech4life-beyond/product-registry/internal/mcp"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as MCP server (stdio transport)",
	Long: `Run toil as a Model Context Protocol (MCP) server over stdio.

This exposes read-only registry operations as MCP tools that any
MCP-capable agent environment can use (Claude Code, Cursor, Windsurf,
Gemini CLI, etc).

Configure in your agent's MCP settings:
  {
    "mcpServers": {
      "toil": {
        "command": "toil",
        "args": ["serve"]
      }
    }
  }

Available tools: get, list, search, validate`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	root := mustResolveRepository()

	db := mustOpenDatabase(root)
	defer db.Close()

	// Refresh the cache so tools serve current data. A broken index is
	// still served from the stale cache; the validate tool reports it.
	if table, err := mdtable.ParseFile(config.IndexPath(root), mdtable.Lenient); err != nil {
		fmt.Fprintf(os.Stderr, "warning: parsing index: %v\n", err)
	} else if _, err := db.Rebuild(table.Products()); err != nil {
		fmt.Fprintf(os.Stderr, "warning: rebuilding cache: %v\n", err)
	}

	server := toilmcp.NewServer(Version, root, db)
	return server.Run(cmd.Context(), &mcp.StdioTransport{})
}
