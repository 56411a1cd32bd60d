package cmd

import (
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/joescharf/reviewmate/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for editor and agent integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets MCP clients compute code metrics, run AI reviews and read review
history. Configure an MCP client with:

  {
    "mcpServers": {
      "reviewmate": { "command": "reviewmate", "args": ["mcp"] }
    }
  }

Available tools: reviewmate_metrics, reviewmate_review,
reviewmate_history, reviewmate_show_review`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mcpRun()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func mcpRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(), shutdownSignals()...)
	defer stop()

	reviewer, err := newReviewer(ctx)
	if err != nil {
		return err
	}

	return mcp.NewServer(s, reviewer, buildVersion).ServeStdio(ctx)
}
