// Package config loads the collection settings from tailcat.yaml or
// tailcat.toml.
package config

import (
	"fmt"
	"time"

	"github.com/modoterra/tailcat/pkg/core"
	"github.com/modoterra/tailcat/pkg/platform"
)

// DefaultTimeout bounds a collection when the file does not say otherwise.
const DefaultTimeout = 10 * time.Second

// Config is the report-side view of log collection.
type Config struct {
	Version     int      `yaml:"version"               toml:"version"               json:"version"`
	Command     string   `yaml:"command,omitempty"     toml:"command,omitempty"     json:"command,omitempty"`
	FilterByPID bool     `yaml:"filter_by_pid"         toml:"filter_by_pid"         json:"filter_by_pid"`
	Buffers     []string `yaml:"buffers,omitempty"     toml:"buffers,omitempty"     json:"buffers,omitempty"`
	Arguments   []string `yaml:"arguments,omitempty"   toml:"arguments,omitempty"   json:"arguments,omitempty"`
	NativeTail  string   `yaml:"native_tail,omitempty" toml:"native_tail,omitempty" json:"native_tail,omitempty"` // auto|always|never
	Timeout     Duration `yaml:"timeout,omitempty"     toml:"timeout,omitempty"     json:"timeout,omitempty"`

	FilePath string `yaml:"-" toml:"-" json:"-"`
}

// Default returns the settings used when no file is present.
func Default() *Config {
	return &Config{
		Version:    1,
		Command:    core.DefaultCommand,
		Arguments:  []string{"-t", "100", "-v", "time"},
		NativeTail: platform.ModeAuto,
		Timeout:    Duration(DefaultTimeout),
	}
}

// Collection returns the collector input for one buffer ("" for default).
func (c *Config) Collection(buffer string) core.CollectionConfig {
	return core.CollectionConfig{
		FilterByOwningProcess: c.FilterByPID,
		BufferName:            core.Buffer(buffer),
		ExtraArguments:        append([]string(nil), c.Arguments...),
	}
}

// Duration is a time.Duration written as "10s" in config files.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", b, err)
	}
	*d = Duration(v)
	return nil
}
