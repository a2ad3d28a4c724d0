// Package exec runs the log source as a child process.
package exec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	osexec "os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/modoterra/tailcat/pkg/core"
)

// waitDelay bounds how long Wait lingers on pipes held open by stray
// descendants after the child itself has exited.
const waitDelay = 2 * time.Second

// Source starts log commands with os/exec.
type Source struct {
	// Env is appended to the parent environment.
	Env    []string
	logger *slog.Logger
}

var _ core.LogSource = (*Source)(nil)

// New creates an exec-backed log source.
func New(logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{logger: logger}
}

// Start spawns args[0] in its own process group. Cancelling ctx kills the
// whole group.
func (s *Source) Start(ctx context.Context, args []string) (core.Process, error) {
	if len(args) == 0 || args[0] == "" {
		return nil, errors.New("empty command")
	}

	cmd := osexec.CommandContext(ctx, args[0], args[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error { return killGroup(cmd.Process.Pid) }
	cmd.WaitDelay = waitDelay
	if len(s.Env) > 0 {
		cmd.Env = append(os.Environ(), s.Env...)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", args[0], err)
	}

	s.logger.Debug("log source started", "command", args[0], "pid", cmd.Process.Pid)
	return &process{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

type process struct {
	cmd    *osexec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser

	waitOnce sync.Once
	waitErr  error
}

func (p *process) Stdout() io.Reader { return p.stdout }
func (p *process) Stderr() io.Reader { return p.stderr }

// Kill sends SIGKILL to the process group.
func (p *process) Kill() error {
	return killGroup(p.cmd.Process.Pid)
}

// Wait reaps the child and closes both pipes. Repeated calls return the
// first result.
func (p *process) Wait() error {
	p.waitOnce.Do(func() {
		p.waitErr = p.cmd.Wait()
	})
	return p.waitErr
}

func killGroup(pid int) error {
	err := syscall.Kill(-pid, syscall.SIGKILL)
	if errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}
