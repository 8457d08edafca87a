// Package pidlock guards against two API instances mutating the same data
// directory. The lock is an advisory pidfile: acquisition fails while the
// recorded process is still alive and silently takes over a stale file left
// behind by a crashed instance.
package pidlock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// Lock is a held pidfile. Release it on shutdown.
type Lock struct {
	path string
	pid  int
}

// ErrHeld is returned when another live process owns the pidfile.
type ErrHeld struct {
	Path string
	PID  int
}

func (e *ErrHeld) Error() string {
	return fmt.Sprintf("pidfile %s held by running process %d", e.Path, e.PID)
}

// Acquire claims the pidfile at path for the current process. A pidfile
// whose recorded process no longer exists is treated as stale and replaced.
func Acquire(path string) (*Lock, error) {
	if path == "" {
		return nil, fmt.Errorf("pidfile path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating pidfile dir: %w", err)
	}
	if pid, ok := readPID(path); ok && pid != os.Getpid() && processAlive(pid) {
		return nil, &ErrHeld{Path: path, PID: pid}
	}
	self := os.Getpid()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.Itoa(self)+"\n"), 0o644); err != nil {
		return nil, fmt.Errorf("writing pidfile: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return nil, fmt.Errorf("publishing pidfile: %w", err)
	}
	return &Lock{path: path, pid: self}, nil
}

// Release removes the pidfile if this process still owns it.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	if pid, ok := readPID(l.path); !ok || pid != l.pid {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing pidfile: %w", err)
	}
	return nil
}

// Path returns the pidfile location.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

func readPID(path string) (int, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// processAlive probes the pid with signal 0. An EPERM answer still means
// the process exists, just under another user.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	return err == syscall.EPERM
}
