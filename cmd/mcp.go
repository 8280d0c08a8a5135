package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/lecturedoc/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing tools to list, read and search the lectures.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// The catalog is loaded lazily by the first tool call.
		v, database, err := openViewer(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		var index mcpserver.Searcher
		ix, err := openIndex(context.Background(), cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: search unavailable: %v\n", err)
		} else if ix != nil {
			index = ix
		}

		mcpserver.Version = Version
		fmt.Fprintf(os.Stderr, "lecturedoc MCP server started on stdio (source=%s)\n", cfg.Source.URL)

		return mcpserver.NewServer(v, index).Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
