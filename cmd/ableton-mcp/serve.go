package main

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	mcpserver "github.com/HendryAvila/ableton-mcp/internal/server"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (stdio transport)",
		Long: `Start the MCP server on stdin/stdout.

Live does not need to be running yet: tools report "Live did not answer"
until AbletonOSC replies.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	s, cleanup, err := mcpserver.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	logger.Info("serving MCP over stdio",
		zap.String("version", mcpserver.Version),
		zap.String("live", fmt.Sprintf("%s:%d", cfg.Host, cfg.SendPort)),
		zap.Int("reply_port", cfg.ReceivePort),
	)

	// ServeStdio returns on SIGINT/SIGTERM, so cleanup still runs.
	return server.ServeStdio(s)
}
