// ableton-mcp is an MCP server that drives Ableton Live through the
// AbletonOSC remote script.
//
// Usage:
//
//	ableton-mcp serve                      # Start MCP server (stdio transport)
//	ableton-mcp ping                       # Check that Live answers
//	ableton-mcp send /live/song/get/tempo --wait /live/song/get/tempo
//	ableton-mcp history --stats            # Inspect the exchange journal
//	ableton-mcp config                     # Print the effective configuration
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HendryAvila/ableton-mcp/internal/config"
	"github.com/HendryAvila/ableton-mcp/internal/logging"
	mcpserver "github.com/HendryAvila/ableton-mcp/internal/server"
)

// Global flags.
var (
	configPath  string
	host        string
	sendPort    int
	receivePort int
	logLevel    string
)

// envFiles are tried in order; the first one found is loaded.
var envFiles = []string{".env", "../../.env", "../../../.env"}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ableton-mcp",
		Short: "Drive Ableton Live from MCP clients over OSC",
		Long: `ableton-mcp bridges MCP clients and Ableton Live.

It talks to the AbletonOSC remote script over UDP (send port 11000,
reply port 11001 by default) and exposes Live as MCP tools.

Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "ableton": {
        "command": "ableton-mcp",
        "args": ["serve"]
      }
    }
  }`,
		Version:       mcpserver.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "YAML config file")
	pf.StringVar(&host, "host", "", "Host running Live (default 127.0.0.1)")
	pf.IntVar(&sendPort, "send-port", 0, "UDP port AbletonOSC listens on (default 11000)")
	pf.IntVar(&receivePort, "receive-port", 0, "UDP port AbletonOSC replies to (default 11001)")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(serveCmd())
	root.AddCommand(pingCmd())
	root.AddCommand(sendCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(configCmd())
	root.AddCommand(versionCmd())
	return root
}

// loadConfig resolves the configuration: defaults, then the YAML file,
// then .env and the environment, then flags set on cmd.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	config.LoadDotEnv(envFiles...)

	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = host
	}
	if flags.Changed("send-port") {
		cfg.SendPort = sendPort
	}
	if flags.Changed("receive-port") {
		cfg.ReceivePort = receivePort
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	return cfg, cfg.Validate()
}

// setup loads the configuration and builds the logger. Logs go to
// stderr so stdout stays free for the MCP stdio channel.
func setup(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return cfg, nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ableton-mcp v%s\n", mcpserver.Version)
		},
	}
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return fmt.Errorf("rendering config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
