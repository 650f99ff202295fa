package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/ableton-mcp/internal/osc"
)

var (
	sendWait    string
	sendTimeout time.Duration
)

func sendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send [address] [args...]",
		Short: "Send one raw OSC message to Live",
		Long: `Send one OSC message to AbletonOSC, optionally waiting for a reply.

Arguments that parse as integers are sent as int32, other numbers as
float32, "true"/"false" as booleans, and anything else as a string.

Examples:
  # Set the tempo
  ableton-mcp send /live/song/set/tempo 124

  # Read a track name
  ableton-mcp send /live/track/get/name 0 --wait /live/track/get/name`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSend,
	}
	cmd.Flags().StringVarP(&sendWait, "wait", "w", "", "Reply address to wait for")
	cmd.Flags().DurationVarP(&sendTimeout, "timeout", "t", 0, "How long to wait for the reply (default: reply_timeout)")
	return cmd
}

func runSend(cmd *cobra.Command, args []string) error {
	address := args[0]
	if !osc.ValidAddress(address) {
		return fmt.Errorf("invalid OSC address %q", address)
	}
	oscArgs := make([]any, 0, len(args)-1)
	for _, a := range args[1:] {
		oscArgs = append(oscArgs, parseArg(a))
	}

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if sendTimeout > 0 {
		cfg.ReplyTimeout.Duration = sendTimeout
	}

	session, closeFn, err := openSession(cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	out := cmd.OutOrStdout()
	if sendWait == "" {
		session.Send(address, oscArgs...)
		fmt.Fprintf(out, "sent %s\n", osc.NewMessage(address, oscArgs...))
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	reply, err := session.Query(ctx, address, sendWait, oscArgs...)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, osc.NewMessage(sendWait, reply...))
	return nil
}

// parseArg converts a command-line word into an OSC argument.
func parseArg(s string) any {
	if i, err := strconv.ParseInt(s, 10, 32); err == nil {
		return int32(i)
	}
	if f, err := strconv.ParseFloat(s, 32); err == nil {
		return float32(f)
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}
