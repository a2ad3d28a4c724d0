// Package daemon serves log collections over a Unix domain socket.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/modoterra/tailcat/internal/buildinfo"
	"github.com/modoterra/tailcat/pkg/collector"
	"github.com/modoterra/tailcat/pkg/config"
	"github.com/modoterra/tailcat/pkg/core"
	"github.com/modoterra/tailcat/pkg/platform"
	"github.com/modoterra/tailcat/pkg/procfs"
	"github.com/modoterra/tailcat/pkg/transport/uds"
)

// Daemon is the tailcatd process: configuration, collector and transport.
type Daemon struct {
	server   *uds.Server
	source   core.LogSource
	lock     *flock.Flock
	lockPath string
	probe    platform.SDKProbe

	// guarded by mu
	cfg        *config.Config
	nativeTail bool
	mu         sync.RWMutex

	logger *slog.Logger
}

// New creates a daemon listening on socketPath. cfg must already be valid.
func New(socketPath string, source core.LogSource, cfg *config.Config, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	lockPath := socketPath + ".lock"
	d := &Daemon{
		server:   uds.NewServer(socketPath, logger),
		source:   source,
		lock:     flock.New(lockPath),
		lockPath: lockPath,
		cfg:      cfg,
		logger:   logger,
	}
	d.registerHandlers()
	return d
}

// SetSDKProbe overrides how the platform API level is read in auto mode.
func (d *Daemon) SetSDKProbe(p platform.SDKProbe) {
	d.probe = p
}

// Ready is closed once the daemon accepts connections.
func (d *Daemon) Ready() <-chan struct{} {
	return d.server.Listening()
}

// Run acquires the instance lock and serves until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another tailcatd instance is already running")
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release daemon lock", "err", err)
		}
	}()

	d.mu.Lock()
	d.nativeTail = platform.Detect(ctx, d.cfg.NativeTail, d.probe)
	native := d.nativeTail
	d.mu.Unlock()

	d.logger.Info("tailcatd started", "pid", procfs.Self(), "lock", d.lockPath, "native_tail", native)
	return d.server.Start(ctx)
}

// Shutdown closes the socket and every client.
func (d *Daemon) Shutdown() {
	d.server.Shutdown()
}

// Config returns the active configuration.
func (d *Daemon) Config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

func (d *Daemon) registerHandlers() {
	d.server.Handle(uds.MethodPing, d.handlePing)
	d.server.Handle(uds.MethodCollect, d.handleCollect)
	d.server.Handle(uds.MethodReloadConfig, d.handleReloadConfig)
}

func (d *Daemon) handlePing(_ context.Context, _ uds.Message) (any, error) {
	return uds.PingResponse{Pong: true, Version: buildinfo.Version}, nil
}

func (d *Daemon) handleCollect(ctx context.Context, msg uds.Message) (any, error) {
	var req uds.CollectRequest
	if len(msg.Data) > 0 {
		if err := msg.UnmarshalData(&req); err != nil {
			return nil, fmt.Errorf("invalid request: %w", err)
		}
	}

	d.mu.RLock()
	cfg, native := d.cfg, d.nativeTail
	d.mu.RUnlock()

	pid := req.PID
	if pid == 0 && req.Process != "" {
		found, err := procfs.FindPID(req.Process)
		if err != nil {
			return nil, err
		}
		pid = found
	}

	cc := cfg.Collection("")
	if req.Filter != nil {
		cc.FilterByOwningProcess = *req.Filter
	}
	if req.Arguments != nil {
		cc.ExtraArguments = req.Arguments
	}
	buffers := req.Buffers
	if len(buffers) == 0 {
		buffers = cfg.Buffers
	}

	runID := uuid.NewString()
	logger := d.logger.With("run_id", runID)

	// One collector per request: settings may change under a reload.
	c := collector.New(d.source, logger)
	c.Command = cfg.Command
	c.Timeout = cfg.Timeout.Std()

	start := time.Now()
	logs := c.CollectBuffers(ctx, cc, pid, native, buffers)
	elapsed := time.Since(start)

	lines := 0
	for _, l := range logs {
		lines += l.Lines
	}
	logger.Info("collection finished", "pid", pid, "buffers", len(logs), "lines", lines, "duration", elapsed)

	if evt, err := uds.NewEvent(uds.EventCollectDone, uds.CollectDoneEvent{
		RunID:      runID,
		Buffers:    len(logs),
		Lines:      lines,
		DurationMs: elapsed.Milliseconds(),
	}); err == nil {
		d.server.Broadcast(evt)
	}

	return uds.CollectResponse{RunID: runID, Buffers: logs}, nil
}

func (d *Daemon) handleReloadConfig(ctx context.Context, msg uds.Message) (any, error) {
	var req uds.ReloadConfigRequest
	if len(msg.Data) > 0 {
		if err := msg.UnmarshalData(&req); err != nil {
			return nil, fmt.Errorf("invalid request: %w", err)
		}
	}

	if errs := d.Reload(ctx, req.Path); len(errs) > 0 {
		strs := make([]string, len(errs))
		for i, e := range errs {
			strs[i] = e.Error()
		}
		return uds.ReloadConfigResponse{OK: false, Errors: strs}, nil
	}
	return uds.ReloadConfigResponse{OK: true}, nil
}

// Reload replaces the active configuration with the file at path, or the
// file the current one was loaded from when path is empty. An invalid file
// leaves the active configuration in place.
func (d *Daemon) Reload(ctx context.Context, path string) []error {
	if path == "" {
		path = d.Config().FilePath
	}
	if path == "" {
		return []error{errors.New("no config file to reload")}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return []error{err}
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		return errs
	}

	native := platform.Detect(ctx, cfg.NativeTail, d.probe)

	d.mu.Lock()
	d.cfg = cfg
	d.nativeTail = native
	d.mu.Unlock()

	d.logger.Info("config reloaded", "path", path, "buffers", cfg.Buffers, "native_tail", native)
	return nil
}
