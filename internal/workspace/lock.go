package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

const sessionLockFileName = "session.lock"

// ErrSessionActive is returned when another live process holds the session lock.
var ErrSessionActive = errors.New("workspace is open in another session")

// SessionLock is a PID lock file that keeps a second interactive session
// from editing the same workspace.
type SessionLock struct {
	path string
}

// NewSessionLock returns the lock for the workspace in dataDir.
func NewSessionLock(dataDir string) *SessionLock {
	return &SessionLock{path: filepath.Join(dataDir, sessionLockFileName)}
}

// Acquire takes the lock. Locks left by dead processes, or holding garbage,
// are reclaimed once.
func (l *SessionLock) Acquire() error {
	err := l.create()
	if err == nil || !os.IsExist(err) {
		return err
	}

	pid, ok, err := l.holder()
	if err != nil {
		return err
	}
	if ok && processExists(pid) {
		return fmt.Errorf("%w (PID %d)", ErrSessionActive, pid)
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale lock file: %w", err)
	}

	if err := l.create(); err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: lock taken during retry", ErrSessionActive)
		}
		return err
	}
	return nil
}

// create makes the lock file with O_EXCL and writes our PID into it.
// An os.IsExist error is returned unwrapped.
func (l *SessionLock) create() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return err
		}
		return fmt.Errorf("failed to create lock file: %w", err)
	}
	_, writeErr := fmt.Fprintf(f, "%d", os.Getpid())
	f.Close()
	if writeErr != nil {
		os.Remove(l.path)
		return fmt.Errorf("failed to write lock file: %w", writeErr)
	}
	return nil
}

// holder returns the PID in the lock file. ok is false when the file holds
// no valid PID.
func (l *SessionLock) holder() (pid int, ok bool, err error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read existing lock file: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		// Created by a concurrent Acquire that has not written its PID yet.
		return 0, false, fmt.Errorf("%w: lock file is being written", ErrSessionActive)
	}
	pid, parseErr := strconv.Atoi(text)
	if parseErr != nil {
		return 0, false, nil
	}
	return pid, true, nil
}

// Release removes the lock file. Releasing twice is fine.
func (l *SessionLock) Release() error {
	err := os.Remove(l.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

// IsHeld reports whether a live process holds the lock.
func (l *SessionLock) IsHeld() (bool, error) {
	pid, ok, err := l.holder()
	if err != nil || !ok {
		return false, err
	}
	return processExists(pid), nil
}

// processExists checks for a live process with signal 0.
func processExists(pid int) bool {
	if pid == os.Getpid() {
		return true
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
