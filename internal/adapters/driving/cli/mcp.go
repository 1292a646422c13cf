package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpuswatch/internal/adapters/driving/mcp"
	"github.com/custodia-labs/corpuswatch/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve watched directories and scan controls over MCP",
	Long: `Serves corpuswatch to MCP clients such as AI assistants.

Resources:
  corpuswatch://directories               watched directories
  corpuswatch://directories/{id}/files    monitored files of one directory

Tools:
  scan_directory     scan one directory now
  scheduler_status   scheduler state and last cycle
  force_run          scan every enabled directory now

The server speaks JSON-RPC over stdio unless --http is given. Over HTTP,
clients send the http.token setting as a bearer token when one is set;
GET /health needs no token.

Examples:
  corpuswatch mcp serve
  corpuswatch mcp serve --http localhost:8090 --scheduler`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().String("http", "", "Serve streamable HTTP on this address instead of stdio")
	mcpServeCmd.Flags().Bool("scheduler", false, "Run the monitoring scheduler while serving")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("http")
	withScheduler, _ := cmd.Flags().GetBool("scheduler")

	opts := []mcp.Option{mcp.WithVersion(version)}
	if addr != "" && settingsService != nil {
		s, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		opts = append(opts, mcp.WithToken(s.HTTP.Token))
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Directories: directoryService,
		Scanner:     scannerService,
		Scheduler:   schedulerService,
	}, opts...)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if withScheduler {
		if schedulerService == nil {
			return errors.New("scheduler not configured")
		}
		if err := schedulerService.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer func() {
			if err := schedulerService.Stop(); err != nil {
				logger.Warn("Scheduler stop: %v", err)
			}
		}()
	}

	if addr != "" {
		return server.RunHTTP(ctx, addr)
	}
	return server.Run(ctx)
}
