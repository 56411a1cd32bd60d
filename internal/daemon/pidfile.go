package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ServerPIDName is the PID file name of the background API server.
const ServerPIDName = "reviewmate-serve.pid"

// PIDFile manages a PID file for daemon process tracking.
type PIDFile struct {
	Path string
}

// NewPIDFile creates a PIDFile manager for the given path.
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{Path: path}
}

// ServerPIDFile returns the API server's PID file inside stateDir.
func ServerPIDFile(stateDir string) *PIDFile {
	return NewPIDFile(filepath.Join(stateDir, ServerPIDName))
}

// Write writes the current process's PID to the file.
func (p *PIDFile) Write() error {
	return p.WritePID(os.Getpid())
}

// WritePID writes the given PID to the file, creating its directory.
func (p *PIDFile) WritePID(pid int) error {
	if err := os.MkdirAll(filepath.Dir(p.Path), 0o755); err != nil {
		return fmt.Errorf("create PID directory: %w", err)
	}
	return os.WriteFile(p.Path, []byte(strconv.Itoa(pid)+"\n"), 0o644)
}

// Read reads the PID from the file.
func (p *PIDFile) Read() (int, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID file content: %w", err)
	}
	return pid, nil
}

// Remove deletes the PID file.
func (p *PIDFile) Remove() error {
	return os.Remove(p.Path)
}

// RemoveStale deletes the PID file when it names a process that is no
// longer alive. It reports whether a file was removed.
func (p *PIDFile) RemoveStale() (bool, error) {
	if _, err := os.Stat(p.Path); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if _, running := p.IsRunning(); running {
		return false, nil
	}
	if err := p.Remove(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("remove stale PID file: %w", err)
	}
	return true, nil
}

// WaitExit polls until the tracked process exits or timeout elapses.
// It reports whether the process is gone.
func (p *PIDFile) WaitExit(timeout, interval time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if _, running := p.IsRunning(); !running {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(interval)
	}
}
