package daemon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStatusNoPIDFile(t *testing.T) {
	root := t.TempDir()
	running, pid, err := Status(root)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if running || pid != 0 {
		t.Errorf("running = %v, pid = %d", running, pid)
	}
}

func TestStatusLiveProcess(t *testing.T) {
	root := t.TempDir()
	if err := WritePID(root, os.Getpid()); err != nil {
		t.Fatal(err)
	}

	running, pid, err := Status(root)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !running {
		t.Error("expected running for current process pid")
	}
	if pid != os.Getpid() {
		t.Errorf("pid = %d, want %d", pid, os.Getpid())
	}
}

func TestStatusRemovesStalePIDFile(t *testing.T) {
	root := t.TempDir()
	// A pid that cannot belong to a live process.
	if err := WritePID(root, 1<<22+12345); err != nil {
		t.Fatal(err)
	}

	running, _, err := Status(root)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if running {
		t.Error("expected not running for dead pid")
	}
	if _, statErr := os.Stat(PIDPath(root)); !os.IsNotExist(statErr) {
		t.Error("stale pid file should have been removed")
	}
}

func TestStatusMalformedPIDFile(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, stateDir), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(PIDPath(root), []byte("not-a-pid\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := Status(root); err == nil {
		t.Error("expected error for malformed pid file")
	}
}

func TestStopNotRunning(t *testing.T) {
	root := t.TempDir()
	if err := Stop(root); err == nil {
		t.Error("expected error when no daemon is running")
	}
}

func TestWriteAndRemovePID(t *testing.T) {
	root := t.TempDir()
	if err := WritePID(root, 4242); err != nil {
		t.Fatal(err)
	}
	pid, err := readPID(root)
	if err != nil {
		t.Fatal(err)
	}
	if pid != 4242 {
		t.Errorf("pid = %d", pid)
	}

	if err := RemovePID(root); err != nil {
		t.Fatal(err)
	}
	// Removing twice is fine.
	if err := RemovePID(root); err != nil {
		t.Errorf("second remove: %v", err)
	}
}
