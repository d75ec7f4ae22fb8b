//go:build unix

package fdlimit

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// darwinMax is the kernel's OPEN_MAX; asking for more fails even when the
// hard limit reports unlimited.
const darwinMax = 10240

// Current returns the soft limit.
func Current() (uint64, error) {
	var limit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &limit); err != nil {
		return 0, fmt.Errorf("failed to read fd limit: %w", err)
	}
	return uint64(limit.Cur), nil
}

// Raise lifts the soft limit to the hard limit and returns the new soft limit.
func Raise() (uint64, error) {
	var limit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &limit); err != nil {
		return 0, fmt.Errorf("failed to read fd limit: %w", err)
	}

	target := limit.Max
	if runtime.GOOS == "darwin" && target > darwinMax {
		target = darwinMax
	}
	if limit.Cur >= target {
		return uint64(limit.Cur), nil
	}

	limit.Cur = target
	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &limit); err != nil {
		return 0, fmt.Errorf("failed to raise fd limit: %w", err)
	}
	return Current()
}
