package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	sddaemon "github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"

	"github.com/modoterra/tailcat/internal/buildinfo"
	"github.com/modoterra/tailcat/pkg/config"
	"github.com/modoterra/tailcat/pkg/daemon"
	"github.com/modoterra/tailcat/pkg/source/exec"
)

const defaultSocket = "/tmp/tailcat.sock"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		socketPath string
		configPath string
		debug      bool
	)

	rootCmd := &cobra.Command{
		Use:           "tailcatd",
		Short:         "Serve bounded system log tails over a Unix socket",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelInfo
			if debug {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			return run(cmd.Context(), socketPath, configPath, logger)
		},
	}
	rootCmd.Flags().StringVar(&socketPath, "socket", defaultSocket, "socket path to listen on")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "tailcat.yaml", "configuration file (.yaml or .toml)")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tailcatd %s (%s) built %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
		},
	})

	return rootCmd
}

func run(ctx context.Context, socketPath, configPath string, logger *slog.Logger) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		for _, e := range errs {
			logger.Error("config validation", "path", configPath, "err", e)
		}
		return fmt.Errorf("%s: invalid configuration", configPath)
	}
	if cfg.FilePath == "" {
		logger.Info("no config file, using defaults", "path", configPath)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d := daemon.New(socketPath, exec.New(logger), cfg, logger)
	defer d.Shutdown()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigCh:
				if sig == syscall.SIGHUP {
					for _, e := range d.Reload(ctx, "") {
						logger.Warn("config reload failed", "err", e)
					}
					continue
				}
				logger.Info("shutting down", "signal", sig.String())
				_, _ = sddaemon.SdNotify(false, sddaemon.SdNotifyStopping)
				cancel()
				return
			}
		}
	}()

	go func() {
		select {
		case <-d.Ready():
		case <-ctx.Done():
			return
		}
		if ok, err := sddaemon.SdNotify(false, sddaemon.SdNotifyReady); err != nil {
			logger.Warn("sd_notify failed", "err", err)
		} else if ok {
			logger.Debug("notified systemd")
		}
	}()

	logger.Info("starting tailcatd", "version", buildinfo.Version, "socket", socketPath)
	return d.Run(ctx)
}
