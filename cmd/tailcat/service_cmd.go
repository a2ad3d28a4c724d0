package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/modoterra/tailcat/pkg/daemon/service"
)

func newServiceCommand(cc *cliContext) *cobra.Command {
	serviceCmd := &cobra.Command{
		Use:   "service",
		Short: "Manage the tailcatd systemd user service",
	}

	serviceCmd.AddCommand(&cobra.Command{
		Use:   "install",
		Short: "Install and start the tailcatd user service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			args := []string{"--socket", cc.socketPath}
			if cc.configPath != "" {
				abs, err := filepath.Abs(cc.configPath)
				if err != nil {
					return err
				}
				args = append(args, "--config", abs)
			}
			if err := service.Install(args...); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "tailcatd service installed and started")
			return nil
		},
	})

	serviceCmd.AddCommand(&cobra.Command{
		Use:   "uninstall",
		Short: "Stop and remove the tailcatd user service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := service.Uninstall(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "tailcatd service removed")
			return nil
		},
	})

	serviceCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show daemon socket and service state",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), service.Status(cc.socketPath))
		},
	})

	return serviceCmd
}
