// Package collector captures a bounded tail of a device's system log.
package collector

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/modoterra/tailcat/pkg/core"
)

// readBufferSize matches the chunk size the log source is read with.
const readBufferSize = 8192

// Collector runs the log source and keeps the last lines it emits.
type Collector struct {
	source core.LogSource
	logger *slog.Logger

	// Command is argv[0] for the log source. Empty means core.DefaultCommand.
	Command string

	// Timeout bounds a single collection. Zero means no deadline. When it
	// fires the source is killed and the lines seen so far are returned.
	Timeout time.Duration
}

// New creates a collector backed by the given log source.
func New(source core.LogSource, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		source:  source,
		logger:  logger,
		Command: core.DefaultCommand,
	}
}

// Collect runs the log source once and returns the retained lines, each
// terminated by a newline, oldest first. It never fails: launch and read
// errors are logged and whatever was collected is returned.
//
// ownerPID <= 0 disables filtering. nativeTail reports whether the source
// understands "-t N" itself.
func (c *Collector) Collect(ctx context.Context, cfg core.CollectionConfig, ownerPID int, nativeTail bool) string {
	filter := newOwnerFilter(cfg.FilterByOwningProcess, ownerPID)
	inv := DeriveInvocation(c.Command, cfg, nativeTail)
	buf := NewRetentionBuffer(inv.Capacity)

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	proc, err := c.source.Start(ctx, inv.Args)
	if err != nil {
		c.logger.Error("could not retrieve log output", "args", inv.Args, "err", err)
		return buf.String()
	}
	c.logger.Debug("retrieving log output", "args", inv.Args, "capacity", inv.Capacity)

	// stderr is never read by the caller; without a reader a chatty source
	// blocks on a full pipe and stdout never reaches EOF.
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		_, _ = io.Copy(io.Discard, proc.Stderr())
	}()

	defer func() {
		// Once stdout is done the source has nothing more to give.
		_ = proc.Kill()
		_ = proc.Wait()
		<-drained
	}()

	err = readLines(proc.Stdout(), func(line string) {
		if filter.Keep(line) {
			buf.Push(line + "\n")
		}
	})
	switch {
	case ctx.Err() != nil:
		c.logger.Warn("log collection cut short", "args", inv.Args, "lines", buf.Len(), "err", ctx.Err())
	case err != nil:
		c.logger.Warn("log read failed", "args", inv.Args, "lines", buf.Len(), "err", err)
	}

	return buf.String()
}

// CollectBuffers collects one tail per buffer name, in order. An empty list
// collects the source's default buffer once.
func (c *Collector) CollectBuffers(ctx context.Context, cfg core.CollectionConfig, ownerPID int, nativeTail bool, buffers []string) []core.BufferLog {
	if len(buffers) == 0 {
		buffers = []string{""}
	}
	out := make([]core.BufferLog, 0, len(buffers))
	for _, name := range buffers {
		bcfg := cfg
		bcfg.BufferName = core.Buffer(name)
		text := c.Collect(ctx, bcfg, ownerPID, nativeTail)
		out = append(out, core.BufferLog{
			Name:  name,
			Text:  text,
			Lines: strings.Count(text, "\n"),
		})
	}
	return out
}

// readLines calls fn for every line in r with the line terminator removed.
// A final unterminated line is delivered too. Lines of any length are kept
// whole. io.EOF is not reported as an error.
func readLines(r io.Reader, fn func(string)) error {
	br := bufio.NewReaderSize(r, readBufferSize)
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				if line != "" {
					fn(trimEOL(line))
				}
				return nil
			}
			return err
		}
		fn(trimEOL(line))
	}
}

func trimEOL(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
