package main

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/phanxgames/poser"
	"github.com/phanxgames/poser/internal/library"
)

func TestParseKeyframes(t *testing.T) {
	kfs, err := parseKeyframes("POSE[neck:10]\n\n{\"neck\": 20}\n", 500*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if len(kfs) != 2 {
		t.Fatalf("keyframes = %d, want 2", len(kfs))
	}
	if kfs[1].Pose[poser.Neck] != 20 || kfs[1].DurationToNext != 500*time.Millisecond {
		t.Errorf("second keyframe = %+v", kfs[1])
	}

	if _, err := parseKeyframes("POSE[neck:10]\n{bad\n", time.Second); !errors.Is(err, poser.ErrMalformedPose) {
		t.Errorf("err = %v, want ErrMalformedPose", err)
	}
}

func TestSequenceCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "lib.db")

	execute(t, "POSE[neck:0]\nPOSE[neck:30]\n", "library", "--library", db, "seq", "save", "nod", "--loop")

	out := execute(t, "", "library", "--library", db, "seq", "get", "nod")
	var seq library.Sequence
	if err := json.Unmarshal([]byte(out), &seq); err != nil {
		t.Fatalf("get output is not JSON: %v\n%s", err, out)
	}
	if seq.Name != "nod" || !seq.Loop || len(seq.Keyframes) != 2 {
		t.Fatalf("sequence = %+v", seq)
	}
	if seq.Keyframes[1].Pose[poser.Neck] != 30 {
		t.Errorf("second keyframe neck = %v, want 30", seq.Keyframes[1].Pose[poser.Neck])
	}

	execute(t, "", "library", "--library", db, "seq", "delete", "nod")
	rootCmd.SetArgs([]string{"library", "--library", db, "seq", "get", "nod"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	if err := rootCmd.Execute(); !errors.Is(err, library.ErrNotFound) {
		t.Errorf("get after delete err = %v, want ErrNotFound", err)
	}
}
