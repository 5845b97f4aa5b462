//go:build unix

package tools

import (
	"errors"
	"syscall"
)

// isProcessRunning checks pid by sending signal 0.
// EPERM means the process exists but belongs to another user.
func isProcessRunning(pid int) bool {
	err := syscall.Kill(pid, syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
