package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/uosnotice/programrank/internal/logging"
	"github.com/uosnotice/programrank/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server (stdio transport)",
	Long: `Start the MCP (Model Context Protocol) server using stdio transport.

This allows AI assistants like Claude Desktop to recommend programs from
your store.

Add to Claude Desktop config (~/Library/Application Support/Claude/claude_desktop_config.json):

{
  "mcpServers": {
    "programrank": {
      "command": "/path/to/programrank",
      "args": ["mcp"]
    }
  }
}`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	svc, cfg, closeFn, err := openService()
	if err != nil {
		return err
	}
	defer closeFn()

	// Check if MCP is enabled
	if !cfg.MCP.Enabled {
		return fmt.Errorf("MCP server is disabled in config")
	}

	// Create MCP server
	server := mcp.New(svc, version, logging.With("mcp"))

	// Handle interrupt
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		cancel()
	}()

	// Run server
	return server.Start(ctx)
}
