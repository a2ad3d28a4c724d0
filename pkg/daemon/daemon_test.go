package daemon

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/modoterra/tailcat/pkg/config"
	"github.com/modoterra/tailcat/pkg/core"
	"github.com/modoterra/tailcat/pkg/transport/uds"
)

type nopProcess struct {
	stdout io.Reader
}

func (p nopProcess) Stdout() io.Reader { return p.stdout }
func (p nopProcess) Stderr() io.Reader { return strings.NewReader("") }
func (p nopProcess) Wait() error       { return nil }
func (p nopProcess) Kill() error       { return nil }

// echoSource prints its own argv followed by fixed lines.
type echoSource struct {
	lines string
}

func (s echoSource) Start(_ context.Context, args []string) (core.Process, error) {
	return nopProcess{stdout: strings.NewReader(strings.Join(args, " ") + "\n" + s.lines)}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func startDaemon(t *testing.T, sock string, src core.LogSource, cfg *config.Config) *Daemon {
	t.Helper()
	d := New(sock, src, cfg, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		d.Shutdown()
		<-errCh
	})

	select {
	case <-d.Ready():
	case err := <-errCh:
		t.Fatalf("daemon exited early: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not start listening")
	}
	return d
}

func dial(t *testing.T, sock string) *uds.Client {
	t.Helper()
	c, err := uds.Dial(sock)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func collect(t *testing.T, c *uds.Client, req uds.CollectRequest) uds.CollectResponse {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := c.Request(ctx, uds.MethodCollect, req)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	var out uds.CollectResponse
	if err := resp.UnmarshalData(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestCollectOverSocket(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "tailcat.sock")
	cfg := config.Default()
	cfg.Buffers = []string{"main", "events"}
	cfg.Arguments = []string{"-t", "5"}
	cfg.NativeTail = "never"
	startDaemon(t, sock, echoSource{}, cfg)

	client := dial(t, sock)
	events := make(chan uds.Message, 1)
	client.OnEvent(func(m uds.Message) { events <- m })

	out := collect(t, client, uds.CollectRequest{})
	if _, err := uuid.Parse(out.RunID); err != nil {
		t.Errorf("run id %q is not a uuid: %v", out.RunID, err)
	}
	if len(out.Buffers) != 2 {
		t.Fatalf("expected 2 buffers, got %d", len(out.Buffers))
	}
	if out.Buffers[0].Name != "main" || out.Buffers[0].Text != "logcat -b main -d\n" {
		t.Errorf("main buffer: %+v", out.Buffers[0])
	}
	if out.Buffers[1].Text != "logcat -b events -d\n" {
		t.Errorf("events buffer: %+v", out.Buffers[1])
	}

	select {
	case m := <-events:
		var done uds.CollectDoneEvent
		if err := m.UnmarshalData(&done); err != nil {
			t.Fatal(err)
		}
		if done.RunID != out.RunID || done.Lines != 2 || done.Buffers != 2 {
			t.Errorf("unexpected event: %+v", done)
		}
	case <-time.After(2 * time.Second):
		t.Error("no collect.done event")
	}
}

func TestCollectRequestOverrides(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "tailcat.sock")
	cfg := config.Default()
	cfg.NativeTail = "always"
	startDaemon(t, sock, echoSource{lines: "a 42): keep\nb 7): drop\n"}, cfg)

	client := dial(t, sock)
	filter := true
	out := collect(t, client, uds.CollectRequest{
		PID:       42,
		Filter:    &filter,
		Arguments: []string{"-t", "1"},
		Buffers:   []string{"radio"},
	})
	if len(out.Buffers) != 1 || out.Buffers[0].Text != "a 42): keep\n" {
		t.Errorf("unexpected result: %+v", out.Buffers)
	}
}

func TestAutoModeUsesProbe(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "tailcat.sock")
	cfg := config.Default()
	cfg.NativeTail = "auto"

	d := New(sock, echoSource{}, cfg, testLogger())
	d.SetSDKProbe(func(context.Context) (int, error) { return 4, nil })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)
	defer d.Shutdown()
	<-d.Ready()

	out := collect(t, dial(t, sock), uds.CollectRequest{})
	if out.Buffers[0].Text != "logcat -v time -d\n" {
		t.Errorf("expected -t rewritten to -d on old platform, got %q", out.Buffers[0].Text)
	}
}

func TestSecondInstanceRefused(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "tailcat.sock")
	cfg := config.Default()
	cfg.NativeTail = "always"
	startDaemon(t, sock, echoSource{}, cfg)

	second := New(sock, echoSource{}, cfg, testLogger())
	err := second.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "already running") {
		t.Errorf("expected lock error, got %v", err)
	}
}

func TestRefusedInstanceLeavesSocketAlone(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "tailcat.sock")
	cfg := config.Default()
	cfg.NativeTail = "always"
	startDaemon(t, sock, echoSource{}, cfg)

	second := New(sock, echoSource{}, cfg, testLogger())
	if err := second.Run(context.Background()); err == nil {
		t.Fatal("expected second instance to be refused")
	}
	second.Shutdown()

	client := dial(t, sock)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Request(ctx, uds.MethodPing, nil); err != nil {
		t.Errorf("first daemon unreachable after refused instance shut down: %v", err)
	}
}

func TestReloadConfig(t *testing.T) {
	dir := t.TempDir()
	sock := filepath.Join(dir, "tailcat.sock")
	path := filepath.Join(dir, "tailcat.yaml")
	if err := os.WriteFile(path, []byte("version: 1\nnative_tail: always\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	d := startDaemon(t, sock, echoSource{}, cfg)
	client := dial(t, sock)

	reload := func() uds.ReloadConfigResponse {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		resp, err := client.Request(ctx, uds.MethodReloadConfig, uds.ReloadConfigRequest{})
		if err != nil {
			t.Fatal(err)
		}
		var out uds.ReloadConfigResponse
		if err := resp.UnmarshalData(&out); err != nil {
			t.Fatal(err)
		}
		return out
	}

	if err := os.WriteFile(path, []byte("version: 2\nnative_tail: always\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if out := reload(); out.OK || len(out.Errors) == 0 {
		t.Errorf("expected invalid config to be rejected: %+v", out)
	}

	if err := os.WriteFile(path, []byte("version: 1\nnative_tail: always\nbuffers: [crash]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if out := reload(); !out.OK {
		t.Fatalf("reload failed: %v", out.Errors)
	}
	if got := d.Config().Buffers; len(got) != 1 || got[0] != "crash" {
		t.Errorf("buffers after reload: %v", got)
	}

	out := collect(t, client, uds.CollectRequest{})
	if out.Buffers[0].Name != "crash" {
		t.Errorf("collect did not use reloaded config: %+v", out.Buffers)
	}
}
