package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/modoterra/tailcat/pkg/collector"
	"github.com/modoterra/tailcat/pkg/config"
	"github.com/modoterra/tailcat/pkg/core"
	"github.com/modoterra/tailcat/pkg/platform"
	"github.com/modoterra/tailcat/pkg/procfs"
	"github.com/modoterra/tailcat/pkg/source/exec"
	"github.com/modoterra/tailcat/pkg/transport/uds"
	tuimodel "github.com/modoterra/tailcat/pkg/tui/model"
)

// daemonRequestTimeout leaves room for the daemon's own collection timeout.
const daemonRequestTimeout = time.Minute

// collectOptions are the flags shared by collect and view.
type collectOptions struct {
	buffers      []string
	pid          int
	process      string
	filter       bool
	noNativeTail bool
	timeout      time.Duration
	viaDaemon    bool
}

func bindCollectFlags(cmd *cobra.Command, o *collectOptions) {
	f := cmd.Flags()
	f.StringArrayVarP(&o.buffers, "buffer", "b", nil, "log buffer to collect (repeatable, overrides config)")
	f.IntVar(&o.pid, "pid", 0, "keep only lines tagged with this process id")
	f.StringVar(&o.process, "process", "", "keep only lines of the process with this name")
	f.BoolVar(&o.filter, "filter", true, "filter lines by owning process (default on with --pid or --process, else from config)")
	f.BoolVar(&o.noNativeTail, "no-native-tail", false, "never pass -t to the log command; trim locally")
	f.DurationVar(&o.timeout, "timeout", 0, "bound one collection (overrides config, 0 disables)")
	f.BoolVar(&o.viaDaemon, "daemon", false, "collect through tailcatd instead of locally")
}

// collectFunc returns a function performing one collection with the given
// flags applied over the configuration.
func (cc *cliContext) collectFunc(cmd *cobra.Command, o *collectOptions) (tuimodel.FetchFunc, error) {
	cfg, err := cc.loadConfig()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("buffer") {
		cfg.Buffers = o.buffers
	}
	// Naming a process asks for its lines; --filter=false still wins.
	filterSet := flags.Changed("filter")
	if !filterSet && (flags.Changed("pid") || flags.Changed("process")) {
		o.filter = true
		filterSet = true
	}
	if filterSet {
		cfg.FilterByPID = o.filter
	}
	if flags.Changed("timeout") {
		cfg.Timeout = config.Duration(o.timeout)
	}
	if o.noNativeTail {
		cfg.NativeTail = platform.ModeNever
	}

	if o.viaDaemon {
		req := uds.CollectRequest{PID: o.pid, Process: o.process}
		if flags.Changed("buffer") {
			req.Buffers = o.buffers
		}
		if filterSet {
			req.Filter = &o.filter
		}
		return func(ctx context.Context) ([]core.BufferLog, error) {
			return cc.collectViaDaemon(ctx, req)
		}, nil
	}

	logger := cc.logger(cmd)
	return func(ctx context.Context) ([]core.BufferLog, error) {
		pid := o.pid
		if pid == 0 && o.process != "" {
			found, err := procfs.FindPID(o.process)
			if err != nil {
				return nil, err
			}
			pid = found
		}

		c := collector.New(exec.New(logger), logger)
		c.Command = cfg.Command
		c.Timeout = cfg.Timeout.Std()

		native := platform.Detect(ctx, cfg.NativeTail, nil)
		return c.CollectBuffers(ctx, cfg.Collection(""), pid, native, cfg.Buffers), nil
	}, nil
}

func (cc *cliContext) collectViaDaemon(ctx context.Context, req uds.CollectRequest) ([]core.BufferLog, error) {
	client, err := cc.dialDaemon()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, daemonRequestTimeout)
	defer cancel()

	resp, err := client.Request(ctx, uds.MethodCollect, req)
	if err != nil {
		return nil, err
	}
	var out uds.CollectResponse
	if err := resp.UnmarshalData(&out); err != nil {
		return nil, err
	}
	return out.Buffers, nil
}

// --- Collect ---

func newCollectCommand(cc *cliContext) *cobra.Command {
	var (
		opts    collectOptions
		summary bool
	)
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect the recent log tail and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fetch, err := cc.collectFunc(cmd, &opts)
			if err != nil {
				return err
			}
			logs, err := fetch(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			writeLogs(out, logs)
			if summary {
				fmt.Fprintln(out, renderSummary(logs))
			}
			return nil
		},
	}
	bindCollectFlags(cmd, &opts)
	cmd.Flags().BoolVar(&summary, "summary", false, "print a per-buffer summary table after the logs")
	return cmd
}

// writeLogs prints each buffer's text. With more than one buffer every tail
// is preceded by a header line.
func writeLogs(w io.Writer, logs []core.BufferLog) {
	for _, l := range logs {
		if len(logs) > 1 {
			fmt.Fprintf(w, "--------- buffer %s\n", bufferLabel(l.Name))
		}
		io.WriteString(w, l.Text)
	}
}

func bufferLabel(name string) string {
	if name == "" {
		return "default"
	}
	return name
}

// --- View ---

func newViewCommand(cc *cliContext) *cobra.Command {
	var opts collectOptions
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Browse the collected log tail interactively",
		Long:  "Opens a viewer with one tab per buffer. Falls back to plain output when stdout is not a terminal.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fetch, err := cc.collectFunc(cmd, &opts)
			if err != nil {
				return err
			}

			if !isTerminal(cmd.OutOrStdout()) {
				logs, err := fetch(cmd.Context())
				if err != nil {
					return err
				}
				writeLogs(cmd.OutOrStdout(), logs)
				return nil
			}

			p := tea.NewProgram(tuimodel.New(fetch), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
	bindCollectFlags(cmd, &opts)
	return cmd
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
