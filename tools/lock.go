package tools

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	lockFileName  = "index.lock"
	lockRetryWait = 200 * time.Millisecond
)

// isProcessRunning is implemented per platform in lock_unix.go and lock_windows.go

// fileLock is an inter-process lock holding the owner's PID.
// It guards writes of the artifact inside the data directory.
// Within the process, holders are serialized by sem, so the PID in the file
// only has to tell processes apart.
type fileLock struct {
	path    string
	timeout time.Duration
	sem     chan struct{}
}

func newFileLock(dataDir string, timeout time.Duration) *fileLock {
	return &fileLock{
		path:    filepath.Join(dataDir, lockFileName),
		timeout: timeout,
		sem:     make(chan struct{}, 1),
	}
}

// readOwner returns the PID stored in the lock file, or 0 when there is none
func (l *fileLock) readOwner() (int, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read lock file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return -1, nil
	}
	return pid, nil
}

// cleanStale removes the lock file if its owner is gone
func (l *fileLock) cleanStale() error {
	pid, err := l.readOwner()
	if err != nil {
		return err
	}

	switch {
	case pid == 0:
		return nil
	case pid < 0:
		log.Printf("Warning: Corrupted lock file (invalid PID), removing...")
	case isProcessRunning(pid):
		return fmt.Errorf("lock held by running process %d", pid)
	default:
		log.Printf("Stale lock detected (PID %d not running), cleaning...", pid)
	}

	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove stale lock: %w", err)
	}
	return nil
}

// Acquire takes the lock, waiting up to the configured timeout.
// Every successful Acquire must be paired with one Release.
func (l *fileLock) Acquire() error {
	start := time.Now()

	select {
	case l.sem <- struct{}{}:
	case <-time.After(l.timeout):
		return fmt.Errorf("timeout waiting for index lock after %v: held by this process", l.timeout)
	}

	if err := l.acquireFile(start); err != nil {
		<-l.sem
		return err
	}
	return nil
}

// acquireFile creates the lock file once no other process holds it
func (l *fileLock) acquireFile(start time.Time) error {
	ourPID := os.Getpid()
	// Left behind by this process without a holder, e.g. after a failed release
	if pid, _ := l.readOwner(); pid == ourPID {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	for {
		err := l.cleanStale()
		if err == nil {
			// O_EXCL makes two processes racing past cleanStale pick one winner
			f, createErr := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
			if createErr == nil {
				_, writeErr := f.WriteString(strconv.Itoa(ourPID))
				closeErr := f.Close()
				if writeErr != nil || closeErr != nil {
					os.Remove(l.path)
					return fmt.Errorf("failed to write lock file: %w", errors.Join(writeErr, closeErr))
				}
				log.Printf("✓ Index lock acquired (PID %d)", ourPID)
				return nil
			}
			if !errors.Is(createErr, os.ErrExist) {
				return fmt.Errorf("failed to create lock file: %w", createErr)
			}
			err = createErr
		}

		elapsed := time.Since(start)
		if elapsed >= l.timeout {
			return fmt.Errorf("timeout waiting for index lock after %v: %w", elapsed.Round(time.Millisecond), err)
		}
		log.Printf("Index locked by another process, waiting... (%v elapsed)", elapsed.Round(100*time.Millisecond))
		time.Sleep(lockRetryWait)
	}
}

// Release removes the lock file if this process owns it.
// Only the goroutine that acquired the lock may release it; the file is
// removed before the next goroutine in this process can take over.
func (l *fileLock) Release() error {
	if len(l.sem) == 0 {
		return nil
	}
	defer func() { <-l.sem }()

	pid, err := l.readOwner()
	if err != nil {
		return err
	}
	if pid == 0 {
		return nil
	}
	if pid != os.Getpid() {
		log.Printf("Warning: Lock file contains different PID (%d vs %d), not removing", pid, os.Getpid())
		return nil
	}

	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	log.Printf("✓ Index lock released")
	return nil
}
