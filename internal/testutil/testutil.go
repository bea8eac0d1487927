// Package testutil provides shared test helpers for setting up brains.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/halvard/muninn/internal/store"
)

// TestBrain creates an initialized temporary brain that is automatically
// cleaned up with the test.
func TestBrain(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "brain"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	return s
}
