package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HendryAvila/ableton-mcp/internal/config"
	"github.com/HendryAvila/ableton-mcp/internal/correlator"
	"github.com/HendryAvila/ableton-mcp/internal/live"
)

func pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that Live answers and print a summary of the set",
		Args:  cobra.NoArgs,
		RunE:  runPing,
	}
}

// openSession binds the OSC endpoints for a one-shot command.
func openSession(cfg config.Config, logger *zap.Logger) (*live.Session, func(), error) {
	client, err := correlator.Open(cfg.Correlator(), logger)
	if err != nil {
		return nil, nil, err
	}
	return live.NewSession(client, logger, cfg.Live()), func() { _ = client.Close() }, nil
}

func runPing(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	session, closeFn, err := openSession(cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rtt, err := session.Ping(ctx)
	if err != nil {
		return fmt.Errorf("Live at %s:%d did not answer: %w", cfg.Host, cfg.SendPort, err)
	}
	info, err := session.Info(ctx)
	if err != nil {
		return fmt.Errorf("reading set info: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Live %s answered in %s\n", info.Version, rtt)
	fmt.Fprintf(out, "  tempo:   %g BPM\n", info.Tempo)
	fmt.Fprintf(out, "  playing: %t\n", info.Playing)
	fmt.Fprintf(out, "  tracks:  %d\n", info.Tracks)
	fmt.Fprintf(out, "  scenes:  %d\n", info.Scenes)
	return nil
}
