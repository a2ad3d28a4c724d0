// Package platform decides whether the log source can limit its own output.
package platform

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// NativeTailMinSDK is the first Android API level whose logcat accepts "-t N"
// (Froyo).
const NativeTailMinSDK = 8

// Native tail modes accepted in configuration.
const (
	ModeAuto   = "auto"
	ModeAlways = "always"
	ModeNever  = "never"
)

const probeTimeout = 2 * time.Second

// SDKProbe reports the platform API level.
type SDKProbe func(ctx context.Context) (int, error)

// SupportsNativeTail reports whether a platform at the given API level has a
// logcat that understands "-t N". Unknown levels (<= 0) are assumed recent.
func SupportsNativeTail(sdk int) bool {
	return sdk <= 0 || sdk >= NativeTailMinSDK
}

// ValidMode reports whether mode is one of the accepted native tail modes.
func ValidMode(mode string) bool {
	switch mode {
	case ModeAuto, ModeAlways, ModeNever:
		return true
	}
	return false
}

// Detect resolves a configured mode to a capability flag. In auto mode the
// probe is consulted; a failing probe means "supported". An empty mode is
// treated as auto and a nil probe falls back to GetpropSDK.
func Detect(ctx context.Context, mode string, probe SDKProbe) bool {
	switch mode {
	case ModeAlways:
		return true
	case ModeNever:
		return false
	}
	if probe == nil {
		probe = GetpropSDK
	}
	sdk, err := probe(ctx)
	if err != nil {
		return true
	}
	return SupportsNativeTail(sdk)
}

// GetpropSDK reads ro.build.version.sdk via getprop.
func GetpropSDK(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "getprop", "ro.build.version.sdk").Output()
	if err != nil {
		return 0, fmt.Errorf("getprop: %w", err)
	}
	return ParseSDK(string(out))
}

// ParseSDK parses getprop output.
func ParseSDK(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty sdk level")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid sdk level %q: %w", s, err)
	}
	return n, nil
}
