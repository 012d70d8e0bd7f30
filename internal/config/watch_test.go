package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRigWatcher_DetectsChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rig.toml")
	if err := os.WriteFile(path, []byte("[base]\nneck = 1\n"), 0644); err != nil {
		t.Fatalf("failed to create rig file: %v", err)
	}

	w, err := NewRigWatcher(path)
	if err != nil {
		t.Fatalf("NewRigWatcher failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("[base]\nneck = 12\n"), 0644); err != nil {
		t.Fatalf("failed to update rig file: %v", err)
	}

	select {
	case change := <-w.Changes:
		if change.Err != nil {
			t.Fatalf("unexpected load error: %v", change.Err)
		}
		if got := change.Rig.Base["neck"]; got != 12 {
			t.Errorf("neck = %v, want 12", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
}

func TestRigWatcher_ReportsBadRig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rig.toml")
	if err := os.WriteFile(path, []byte(""), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := NewRigWatcher(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("[behaviors.tail]\nbend = 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case change := <-w.Changes:
		if change.Err == nil {
			t.Error("expected a load error for an unknown joint")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
}

func TestRigWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rig.toml")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	w, err := NewRigWatcher(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case change := <-w.Changes:
		t.Errorf("unexpected change: %+v", change)
	case <-time.After(300 * time.Millisecond):
	}
}
