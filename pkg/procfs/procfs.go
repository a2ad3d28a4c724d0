// Package procfs resolves process identities from /proc.
package procfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Root is the procfs mount point.
var Root = "/proc"

// Self returns the current process id.
func Self() int { return os.Getpid() }

// Cmdline returns the command line of pid with arguments joined by spaces.
func Cmdline(pid int) (string, error) {
	raw, err := readCmdline(pid)
	if err != nil {
		return "", err
	}
	cmd := strings.ReplaceAll(raw, "\x00", " ")
	return strings.TrimSpace(cmd), nil
}

// argv0 returns the first NUL-separated element of pid's command line.
func argv0(pid int) (string, error) {
	raw, err := readCmdline(pid)
	if err != nil {
		return "", err
	}
	first, _, _ := strings.Cut(raw, "\x00")
	return first, nil
}

func readCmdline(pid int) (string, error) {
	raw, err := os.ReadFile(filepath.Join(Root, strconv.Itoa(pid), "cmdline"))
	if err != nil {
		return "", fmt.Errorf("read cmdline for %d: %w", pid, err)
	}
	return string(raw), nil
}

// FindPID returns the lowest pid whose argv[0] base name is name. Android
// app processes carry their package name as argv[0].
func FindPID(name string) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("empty process name")
	}
	entries, err := os.ReadDir(Root)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", Root, err)
	}

	best := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		arg0, err := argv0(pid)
		if err != nil || arg0 == "" {
			continue
		}
		if filepath.Base(arg0) != name {
			continue
		}
		if best == 0 || pid < best {
			best = pid
		}
	}
	if best == 0 {
		return 0, fmt.Errorf("no process named %q", name)
	}
	return best, nil
}
