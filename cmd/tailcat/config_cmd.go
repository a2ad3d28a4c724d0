package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/modoterra/tailcat/pkg/config"
)

func newConfigCommand(cc *cliContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the tailcat configuration file",
	}
	configCmd.AddCommand(newConfigInitCommand(cc))
	configCmd.AddCommand(newConfigValidateCommand(cc))
	return configCmd
}

func newConfigInitCommand(cc *cliContext) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write a configuration file with default settings",
		Long:  "The format follows the file extension: .toml for TOML, anything else YAML.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cc.configPath
			if len(args) > 0 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}

			if err := config.Save(config.Default(), path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newConfigValidateCommand(cc *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cc.configPath
			if len(args) > 0 {
				path = args[0]
			}

			cfg, err := config.Load(path)
			if err != nil {
				return err
			}

			errs := config.Validate(cfg)
			if len(errs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: valid (%d buffer(s), native tail %s)\n", path, len(cfg.Buffers), cfg.NativeTail)
				return nil
			}

			w := cmd.ErrOrStderr()
			fmt.Fprintf(w, "%s: %d error(s)\n", path, len(errs))
			for _, e := range errs {
				fmt.Fprintf(w, "  • %s\n", e)
			}
			return fmt.Errorf("%s is invalid", path)
		},
	}
}
