package collector

import (
	"strconv"

	"github.com/modoterra/tailcat/pkg/core"
)

// DefaultTailCount is the number of lines kept when no "-t N" is given.
const DefaultTailCount = 100

const (
	flagBuffer = "-b"
	flagTail   = "-t"
	flagDump   = "-d"
)

// DeriveInvocation builds the argv for the log source and the size of the
// tail window. When the source cannot limit its own output, "-t N" is
// replaced by "-d" and the window does the limiting instead.
//
// A "-t" with a missing, zero, negative or non-numeric count is ignored:
// the default window applies and the arguments pass through untouched.
func DeriveInvocation(command string, cfg core.CollectionConfig, nativeTail bool) core.Invocation {
	if command == "" {
		command = core.DefaultCommand
	}

	args := []string{command}
	if cfg.BufferName != nil {
		args = append(args, flagBuffer, *cfg.BufferName)
	}

	extra := append([]string(nil), cfg.ExtraArguments...)
	capacity := DefaultTailCount

	if i, n, ok := findTailCount(extra); ok {
		capacity = n
		if !nativeTail {
			extra = append(extra[:i], extra[i+2:]...)
			extra = append(extra, flagDump)
		}
	}

	return core.Invocation{
		Args:     append(args, extra...),
		Capacity: capacity,
	}
}

// findTailCount returns the index of the first "-t" and its count when the
// count is a positive integer.
func findTailCount(args []string) (int, int, bool) {
	for i, a := range args {
		if a != flagTail {
			continue
		}
		if i+1 >= len(args) {
			return 0, 0, false
		}
		n, err := strconv.Atoi(args[i+1])
		if err != nil || n <= 0 {
			return 0, 0, false
		}
		return i, n, true
	}
	return 0, 0, false
}
