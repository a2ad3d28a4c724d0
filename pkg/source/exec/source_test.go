package exec

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/modoterra/tailcat/pkg/collector"
	"github.com/modoterra/tailcat/pkg/core"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestStartEmptyCommand(t *testing.T) {
	s := New(testLogger())
	if _, err := s.Start(context.Background(), nil); err == nil {
		t.Error("expected error for empty argv")
	}
}

func TestStartMissingBinary(t *testing.T) {
	s := New(testLogger())
	_, err := s.Start(context.Background(), []string{"tailcat-no-such-binary"})
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
	if !strings.Contains(err.Error(), "start tailcat-no-such-binary") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCollectFromShell(t *testing.T) {
	c := collector.New(New(testLogger()), testLogger())
	c.Command = "/bin/sh"

	script := `for i in 1 2 3 4 5; do echo "I/app( 77): line $i"; echo "noise $i" >&2; done; echo "I/other( 8): skip"`
	cfg := core.CollectionConfig{FilterByOwningProcess: true, ExtraArguments: []string{"-c", script}}
	got := c.Collect(context.Background(), cfg, 77, true)

	want := ""
	for i := 1; i <= 5; i++ {
		want += "I/app( 77): line " + string(rune('0'+i)) + "\n"
	}
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCollectNoisyStderr(t *testing.T) {
	c := collector.New(New(testLogger()), testLogger())
	c.Command = "/bin/sh"
	c.Timeout = 10 * time.Second

	// Far more than a pipe buffer on stderr before anything reaches stdout.
	script := `head -c 1048576 /dev/zero >&2; echo done`
	got := c.Collect(context.Background(), core.CollectionConfig{ExtraArguments: []string{"-c", script}}, 0, true)
	if got != "done\n" {
		t.Errorf("got %q", got)
	}
}

func TestCollectTimeoutKillsSource(t *testing.T) {
	c := collector.New(New(testLogger()), testLogger())
	c.Command = "/bin/sh"
	c.Timeout = 200 * time.Millisecond

	start := time.Now()
	got := c.Collect(context.Background(), core.CollectionConfig{ExtraArguments: []string{"-c", "echo first; exec sleep 30"}}, 0, true)
	if got != "first\n" {
		t.Errorf("got %q", got)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("collection took %v, expected the timeout to stop it", elapsed)
	}
}

func TestKillStopsStreamingSource(t *testing.T) {
	s := New(testLogger())
	proc, err := s.Start(context.Background(), []string{"/bin/sh", "-c", "while :; do echo tick; sleep 0.01; done"})
	if err != nil {
		t.Fatal(err)
	}

	line, err := bufio.NewReader(proc.Stdout()).ReadString('\n')
	if err != nil || line != "tick\n" {
		t.Fatalf("first line: %q, %v", line, err)
	}

	if err := proc.Kill(); err != nil {
		t.Fatalf("kill: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- proc.Wait() }()
	select {
	case err := <-done:
		if err == nil {
			t.Error("expected non-nil exit error after SIGKILL")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("wait did not return after kill")
	}

	if err := proc.Kill(); err != nil {
		t.Errorf("kill after exit: %v", err)
	}
}
