// ABOUTME: Test utilities for creating isolated store backends
// ABOUTME: Uses temporary directories so badger-backed tests don't collide
package store

import (
	"os"
	"testing"
)

// NewTestBadgerStore opens a BadgerStore in a fresh temp directory. The
// returned cleanup should be deferred.
func NewTestBadgerStore(t *testing.T) (*BadgerStore, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "opsdesk-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	s, err := OpenBadgerStore(tmpDir)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		t.Fatalf("Failed to open badger store: %v", err)
	}

	cleanup := func() {
		if err := s.Close(); err != nil {
			t.Logf("Warning: failed to close test store: %v", err)
		}
		if err := os.RemoveAll(tmpDir); err != nil {
			t.Logf("Warning: failed to remove temp directory %s: %v", tmpDir, err)
		}
	}
	return s, cleanup
}
