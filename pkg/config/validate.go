package config

import (
	"fmt"
	"strings"

	"github.com/modoterra/tailcat/pkg/platform"
)

// Validate checks the configuration for structural correctness.
func Validate(c *Config) []error {
	var errs []error

	if c.Version != 1 {
		errs = append(errs, fmt.Errorf("version must be 1, got %d", c.Version))
	}

	if strings.TrimSpace(c.Command) == "" {
		errs = append(errs, fmt.Errorf("command is required"))
	}

	if !platform.ValidMode(c.NativeTail) {
		errs = append(errs, fmt.Errorf("native_tail must be auto, always, or never; got %q", c.NativeTail))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout.Std()))
	}

	seen := make(map[string]bool)
	for i, b := range c.Buffers {
		switch {
		case b == "":
			errs = append(errs, fmt.Errorf("buffers[%d]: name is required", i))
		case strings.ContainsAny(b, " \t\n"):
			errs = append(errs, fmt.Errorf("buffers[%d]: name %q contains whitespace", i, b))
		case seen[b]:
			errs = append(errs, fmt.Errorf("buffers[%d]: duplicate buffer %q", i, b))
		}
		seen[b] = true
	}

	// "-b" belongs in buffers; passing it twice confuses the source.
	for _, a := range c.Arguments {
		if a == "-b" {
			errs = append(errs, fmt.Errorf("arguments: use buffers instead of -b"))
			break
		}
	}

	return errs
}
