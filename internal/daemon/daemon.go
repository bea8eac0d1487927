// Package daemon manages the lifecycle of the background clipboard capture
// process through a PID file under the brain root.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

const (
	stateDir    = ".muninn"
	pidFileName = "clipboard.pid"
)

// PIDPath returns the daemon PID file path for a brain root.
func PIDPath(root string) string {
	return filepath.Join(root, stateDir, pidFileName)
}

// Status reports whether a capture daemon is running for the given root and
// its PID when it is. A PID file pointing at a dead process is removed.
func Status(root string) (bool, int, error) {
	pid, err := readPID(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, 0, nil
		}
		return false, 0, err
	}

	if processAlive(pid) {
		return true, pid, nil
	}

	// Stale PID file left behind by a crashed daemon.
	if err := os.Remove(PIDPath(root)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, 0, fmt.Errorf("remove stale pid file: %w", err)
	}
	return false, 0, nil
}

// Start spawns the current executable as a detached capture daemon for the
// given root and records its PID. It fails when a daemon is already running.
func Start(root string) (int, error) {
	running, pid, err := Status(root)
	if err != nil {
		return 0, err
	}
	if running {
		return 0, fmt.Errorf("capture daemon already running (pid %d)", pid)
	}

	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("resolve executable: %w", err)
	}

	cmd := exec.Command(exe, "daemon", "run", "--brain", root)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("spawn daemon: %w", err)
	}

	if err := WritePID(root, cmd.Process.Pid); err != nil {
		return 0, err
	}
	// The child outlives us; do not wait on it.
	_ = cmd.Process.Release()
	return cmd.Process.Pid, nil
}

// Stop terminates the running daemon with SIGTERM and removes the PID file.
func Stop(root string) error {
	running, pid, err := Status(root)
	if err != nil {
		return err
	}
	if !running {
		return fmt.Errorf("capture daemon is not running")
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find daemon process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon %d: %w", pid, err)
	}

	if err := RemovePID(root); err != nil {
		return err
	}
	return nil
}

// WritePID records a daemon PID, creating the state directory if needed.
func WritePID(root string, pid int) error {
	dir := filepath.Join(root, stateDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data := []byte(strconv.Itoa(pid) + "\n")
	if err := os.WriteFile(PIDPath(root), data, 0o644); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	return nil
}

// RemovePID deletes the PID file. A missing file is not an error.
func RemovePID(root string) error {
	if err := os.Remove(PIDPath(root)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove pid file: %w", err)
	}
	return nil
}

func readPID(root string) (int, error) {
	data, err := os.ReadFile(PIDPath(root))
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("malformed pid file %s: %w", PIDPath(root), err)
	}
	return pid, nil
}

// processAlive probes a PID with signal 0.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
