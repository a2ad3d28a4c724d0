package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/modoterra/tailcat/internal/buildinfo"
	"github.com/modoterra/tailcat/pkg/config"
	"github.com/modoterra/tailcat/pkg/transport/uds"
)

const (
	defaultSocket = "/tmp/tailcat.sock"
	defaultConfig = "tailcat.yaml"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// cliContext carries the persistent flags to subcommands.
type cliContext struct {
	socketPath string
	configPath string
	verbose    bool
}

func newRootCommand() *cobra.Command {
	cc := &cliContext{}

	rootCmd := &cobra.Command{
		Use:           "tailcat",
		Short:         "Capture bounded system log tails for diagnostic reports",
		Long:          "tailcat runs logcat once, keeps the last N lines (optionally only those of one process) and prints them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&cc.socketPath, "socket", defaultSocket, "daemon socket path")
	rootCmd.PersistentFlags().StringVarP(&cc.configPath, "config", "c", defaultConfig, "configuration file (.yaml or .toml)")
	rootCmd.PersistentFlags().BoolVarP(&cc.verbose, "verbose", "v", false, "log collection details to stderr")

	rootCmd.AddCommand(newCollectCommand(cc))
	rootCmd.AddCommand(newViewCommand(cc))
	rootCmd.AddCommand(newConfigCommand(cc))
	rootCmd.AddCommand(newServiceCommand(cc))
	rootCmd.AddCommand(newPingCommand(cc))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func (cc *cliContext) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if cc.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// loadConfig reads the configuration file, falling back to defaults when it
// does not exist.
func (cc *cliContext) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(cc.configPath)
	if err != nil {
		return nil, err
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, fmt.Errorf("%s: %w", cc.configPath, errs[0])
	}
	return cfg, nil
}

func (cc *cliContext) dialDaemon() (*uds.Client, error) {
	client, err := uds.Dial(cc.socketPath)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to daemon at %s: %w", cc.socketPath, err)
	}
	return client, nil
}

// --- Ping ---

func newPingCommand(cc *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check if the daemon is running",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := cc.dialDaemon()
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
			defer cancel()

			resp, err := client.Request(ctx, uds.MethodPing, nil)
			if err != nil {
				return err
			}

			var pong uds.PingResponse
			if err := resp.UnmarshalData(&pong); err != nil {
				return err
			}
			if pong.Pong {
				fmt.Fprintf(cmd.OutOrStdout(), "pong (tailcatd %s)\n", pong.Version)
			}
			return nil
		},
	}
}

// --- Version ---

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tailcat %s (%s) built %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
		},
	}
}
