package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/phanxgames/poser"
)

func TestParsePose(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want poser.Pose
	}{
		{"empty", "  ", poser.Pose{}},
		{"code", "POSE[l_knee:30]", poser.Pose{poser.LKnee: 30}},
		{"json", `{"neck": -12}`, poser.Pose{poser.Neck: -12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, props, err := parsePose(tt.in)
			if err != nil {
				t.Fatalf("parsePose(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("pose = %v, want %v", got, tt.want)
			}
			if props != poser.DefaultProportions() {
				t.Error("proportions should default to unit scales")
			}
		})
	}

	if _, _, err := parsePose("{not json"); !errors.Is(err, poser.ErrMalformedPose) {
		t.Errorf("err = %v, want ErrMalformedPose", err)
	}
}

func execute(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("poser %v: %v", args, err)
	}
	return out.String()
}

func TestEncodeCommand(t *testing.T) {
	got := execute(t, "", "encode", `{"waist": 10.4}`)
	if !strings.HasPrefix(got, "POSE[waist:10;") || !strings.Contains(got, "|PROPS[") {
		t.Errorf("encode output = %q", got)
	}
}

func TestDecodeCommandReadsStdin(t *testing.T) {
	got := execute(t, "POSE[r_elbow:45]\n", "decode")
	var pose poser.Pose
	if err := json.Unmarshal([]byte(got), &pose); err != nil {
		t.Fatalf("decode output is not JSON: %v\n%s", err, got)
	}
	if pose[poser.RElbow] != 45 {
		t.Errorf("r_elbow = %v, want 45", pose[poser.RElbow])
	}
}
