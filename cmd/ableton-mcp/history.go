package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/ableton-mcp/internal/journal"
)

var (
	historyLimit   int
	historyAddress string
	historyStats   bool
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent exchanges with Live from the journal",
		Long: `Show the request/reply exchanges recorded by "serve".

Examples:
  # Last 20 exchanges
  ableton-mcp history

  # Per-address statistics as JSON
  ableton-mcp history --stats`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}
	cmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of exchanges to show")
	cmd.Flags().StringVarP(&historyAddress, "address", "a", "", "Only show exchanges waiting on this reply address")
	cmd.Flags().BoolVar(&historyStats, "stats", false, "Print per-address statistics instead")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.DisableJournal {
		return fmt.Errorf("the journal is disabled in the configuration")
	}
	store, err := journal.New(cfg.Journal())
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer func() { _ = store.Close() }()

	out := cmd.OutOrStdout()
	if historyStats {
		stats, err := store.Stats()
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	entries, err := store.Recent(historyLimit, historyAddress)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No exchanges recorded yet.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s  %-8s %7.1fms  %s %s", e.CreatedAt, e.Outcome, e.LatencyMS, e.Request, e.Args)
		if e.ReplyArgs != "" {
			fmt.Fprintf(out, " -> %s", e.ReplyArgs)
		}
		fmt.Fprintln(out)
	}
	return nil
}
