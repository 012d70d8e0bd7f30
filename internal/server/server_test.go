package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phanxgames/poser"
	"github.com/phanxgames/poser/internal/library"
)

// testServer returns a server around a studio starting in the T-pose with
// its clock frozen at zero.
func testServer(t *testing.T, opts Options) *Server {
	t.Helper()
	s := New(poser.NewStudio(poser.Options{Initial: &poser.Pose{}, Behaviors: poser.Behaviors{}}), opts)
	s.clock = func() time.Duration { return 0 }
	return s
}

func do(t *testing.T, s *Server, method, path string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, out
}

func decodeFrame(t *testing.T, data []byte) poser.Frame {
	t.Helper()
	var f poser.Frame
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("decode frame: %v\n%s", err, data)
	}
	return f
}

func TestFrameRoute(t *testing.T) {
	s := testServer(t, Options{})
	code, body := do(t, s, http.MethodGet, "/api/frame", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d: %s", code, body)
	}
	f := decodeFrame(t, body)
	if f.Calibrated {
		t.Error("fresh studio should not be calibrated")
	}
	if f.Table[poser.PartWaist].Position != (poser.Vec2{}) {
		t.Errorf("waist = %v, want origin", f.Table[poser.PartWaist].Position)
	}
}

func TestSetJointRoute(t *testing.T) {
	s := testServer(t, Options{})
	code, body := do(t, s, http.MethodPut, "/api/joints/neck", map[string]float64{"value": 20})
	if code != http.StatusOK {
		t.Fatalf("status = %d: %s", code, body)
	}
	if got := decodeFrame(t, body).Pose[poser.Neck]; got != 20 {
		t.Errorf("neck = %v, want 20", got)
	}

	code, _ = do(t, s, http.MethodPut, "/api/joints/tail", map[string]float64{"value": 1})
	if code != http.StatusNotFound {
		t.Errorf("unknown joint status = %d, want 404", code)
	}
}

func TestErrorStatuses(t *testing.T) {
	s := testServer(t, Options{})
	tests := []struct {
		name, method, path string
		body               any
		want               int
	}{
		{"drag before calibration", http.MethodPost, "/api/drag/begin", map[string]any{"joint": "l_elbow", "x": 0}, http.StatusConflict},
		{"drag without joint", http.MethodPost, "/api/drag/begin", map[string]any{"x": 0}, http.StatusBadRequest},
		{"propagate without joint", http.MethodPost, "/api/propagate", map[string]any{"delta": 10}, http.StatusBadRequest},
		{"solve without effector", http.MethodPost, "/api/solve", map[string]any{"target": map[string]float64{"x": 0, "y": 0}}, http.StatusBadRequest},
		{"drag move without drag", http.MethodPost, "/api/drag/move", map[string]any{"x": 3}, http.StatusConflict},
		{"pin a knee", http.MethodPost, "/api/pins/l_knee", map[string]float64{"x": 0, "y": 0}, http.StatusBadRequest},
		{"unpin free hand", http.MethodDelete, "/api/pins/l_hand", nil, http.StatusNotFound},
		{"unknown command", http.MethodPost, "/api/commands/MOONWALK", nil, http.StatusNotFound},
		{"bad pose code", http.MethodPut, "/api/pose/code", map[string]string{"code": "POSE[waist=1]"}, http.StatusBadRequest},
		{"empty transition", http.MethodPost, "/api/transition", map[string]any{"target": map[string]float64{}}, http.StatusBadRequest},
		{"timeline without keyframes", http.MethodPost, "/api/timeline/play", nil, http.StatusConflict},
		{"library disabled", http.MethodGet, "/api/library/", nil, http.StatusServiceUnavailable},
		{"frames without upgrade", http.MethodGet, "/ws/frames", nil, http.StatusUpgradeRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, s, tt.method, tt.path, tt.body)
			if code != tt.want {
				t.Errorf("status = %d, want %d: %s", code, tt.want, body)
			}
		})
	}
}

func TestPoseCodeRoundTrip(t *testing.T) {
	s := testServer(t, Options{})
	code, body := do(t, s, http.MethodPut, "/api/pose/code", map[string]string{"code": "POSE[l_knee:45;waist:10]"})
	if code != http.StatusOK {
		t.Fatalf("status = %d: %s", code, body)
	}

	code, body = do(t, s, http.MethodGet, "/api/pose/code", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var got codeBody
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	pose, err := poser.DecodePose(got.Code)
	if err != nil {
		t.Fatal(err)
	}
	if pose[poser.LKnee] != 45 || pose[poser.Waist] != 10 {
		t.Errorf("pose = %v", pose)
	}
}

func TestPinRouteSolves(t *testing.T) {
	s := testServer(t, Options{})
	var root poser.Vec2
	_ = s.WithStudio(func(st *poser.Studio) error {
		root = st.Table()[poser.PartLUpperArm].Position
		return nil
	})
	target := root.Add(poser.Vec2{X: -80, Y: 150})

	code, body := do(t, s, http.MethodPost, "/api/pins/l_hand", target)
	if code != http.StatusOK {
		t.Fatalf("status = %d: %s", code, body)
	}
	f := decodeFrame(t, body)
	if d := f.Table[poser.PartLHand].Position.Dist(target); d > 1e-6 {
		t.Errorf("hand is %v from its pin", d)
	}
	if _, ok := f.Pins[poser.LHand]; !ok {
		t.Error("frame should list the pin")
	}

	if code, _ := do(t, s, http.MethodDelete, "/api/pins/l_hand", nil); code != http.StatusOK {
		t.Errorf("unpin status = %d", code)
	}
}

func TestCommandsRoute(t *testing.T) {
	s := testServer(t, Options{})
	code, body := do(t, s, http.MethodGet, "/api/commands", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var names []string
	if err := json.Unmarshal(body, &names); err != nil {
		t.Fatal(err)
	}
	if len(names) != len(poser.Commands()) {
		t.Errorf("commands = %v", names)
	}

	code, body = do(t, s, http.MethodPost, "/api/commands/t_pose", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d: %s", code, body)
	}
	if !decodeFrame(t, body).Transitioning {
		t.Error("command should start a transition")
	}
}

func TestEvaluateRoute(t *testing.T) {
	s := testServer(t, Options{})
	code, body := do(t, s, http.MethodPost, "/api/evaluate", map[string]any{
		"pose":      map[string]float64{"waist": 0},
		"base_unit": 100,
	})
	if code != http.StatusOK {
		t.Fatalf("status = %d: %s", code, body)
	}
	var table poser.Table
	if err := json.Unmarshal(body, &table); err != nil {
		t.Fatal(err)
	}
	want := poser.Evaluate(poser.Pose{}, poser.DefaultProportions(), 100)
	if table[poser.PartHead].Position.Dist(want[poser.PartHead].Position) > 1e-9 {
		t.Errorf("head = %v, want %v", table[poser.PartHead].Position, want[poser.PartHead].Position)
	}
}

func TestPropagateRoute(t *testing.T) {
	s := testServer(t, Options{})
	code, body := do(t, s, http.MethodPost, "/api/propagate", map[string]any{
		"pose":      map[string]float64{},
		"joint":     "l_shoulder",
		"delta":     40,
		"behaviors": map[string]any{"l_elbow": map[string]float64{"bend": 0.5}},
	})
	if code != http.StatusOK {
		t.Fatalf("status = %d: %s", code, body)
	}
	var pose poser.Pose
	if err := json.Unmarshal(body, &pose); err != nil {
		t.Fatal(err)
	}
	if pose[poser.LShoulder] != 40 || pose[poser.LElbow] != 20 || pose[poser.LHand] != 0 {
		t.Errorf("pose = %v", pose)
	}
}

func TestSolveRoute(t *testing.T) {
	s := testServer(t, Options{})
	rest := poser.Evaluate(poser.Pose{}, poser.DefaultProportions(), poser.DefaultBaseUnit)
	target := rest[poser.PartRUpperArm].Position.Add(poser.Vec2{X: 60, Y: 160})

	code, body := do(t, s, http.MethodPost, "/api/solve", map[string]any{
		"pose":     map[string]float64{},
		"effector": "r_hand",
		"target":   target,
	})
	if code != http.StatusOK {
		t.Fatalf("status = %d: %s", code, body)
	}
	var res solveResult
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatal(err)
	}
	if res.Solution.Stretch != 1 {
		t.Errorf("stretch = %v, want 1", res.Solution.Stretch)
	}
	if d := res.Table[poser.PartRHand].Position.Dist(target); d > 1e-6 {
		t.Errorf("solved hand is %v from target", d)
	}

	code, _ = do(t, s, http.MethodPost, "/api/solve", map[string]any{"effector": "neck", "target": target})
	if code != http.StatusBadRequest {
		t.Errorf("non-limb status = %d, want 400", code)
	}
}

func TestKeyframeRoutes(t *testing.T) {
	s := testServer(t, Options{})
	if code, _ := do(t, s, http.MethodPost, "/api/keyframes", nil); code != http.StatusCreated {
		t.Fatalf("capture status = %d", code)
	}
	do(t, s, http.MethodPut, "/api/joints/waist", map[string]float64{"value": 30})
	code, body := do(t, s, http.MethodPost, "/api/keyframes", nil)
	if code != http.StatusCreated {
		t.Fatalf("capture status = %d", code)
	}
	var kf poser.Keyframe
	if err := json.Unmarshal(body, &kf); err != nil {
		t.Fatal(err)
	}
	if kf.Name != "Pose 2" || kf.Pose[poser.Waist] != 30 {
		t.Errorf("keyframe = %+v", kf)
	}

	code, body = do(t, s, http.MethodPost, "/api/timeline/play", map[string]bool{"loop": false})
	if code != http.StatusOK {
		t.Fatalf("play status = %d: %s", code, body)
	}
	if !decodeFrame(t, body).Playing {
		t.Error("timeline should be playing")
	}

	if code, _ := do(t, s, http.MethodDelete, "/api/keyframes/"+kf.ID, nil); code != http.StatusNoContent {
		t.Errorf("delete status = %d", code)
	}
	if code, _ := do(t, s, http.MethodDelete, "/api/keyframes/"+kf.ID, nil); code != http.StatusNotFound {
		t.Errorf("second delete status = %d", code)
	}
}

func TestLibraryRoutes(t *testing.T) {
	ctx := context.Background()
	lib, err := library.Open(ctx, filepath.Join(t.TempDir(), "lib.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { lib.Close() })
	s := testServer(t, Options{Library: lib})

	do(t, s, http.MethodPut, "/api/joints/r_knee", map[string]float64{"value": -30})
	code, body := do(t, s, http.MethodPut, "/api/library/kneel", nil)
	if code != http.StatusCreated {
		t.Fatalf("save status = %d: %s", code, body)
	}

	code, body = do(t, s, http.MethodGet, "/api/library/", nil)
	if code != http.StatusOK {
		t.Fatalf("list status = %d", code)
	}
	var entries []library.Entry
	if err := json.Unmarshal(body, &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name != "kneel" {
		t.Fatalf("entries = %+v", entries)
	}

	do(t, s, http.MethodPut, "/api/joints/r_knee", map[string]float64{"value": 0})
	code, body = do(t, s, http.MethodPost, "/api/library/kneel/load", nil)
	if code != http.StatusOK {
		t.Fatalf("load status = %d: %s", code, body)
	}
	f := decodeFrame(t, body)
	if !f.Transitioning {
		t.Error("load should ease into the saved pose")
	}

	if code, _ := do(t, s, http.MethodDelete, "/api/library/kneel", nil); code != http.StatusNoContent {
		t.Errorf("delete status = %d", code)
	}
	if code, _ := do(t, s, http.MethodGet, "/api/library/kneel", nil); code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", code)
	}
}

func TestSequenceRoutes(t *testing.T) {
	ctx := context.Background()
	lib, err := library.Open(ctx, filepath.Join(t.TempDir(), "lib.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { lib.Close() })
	s := testServer(t, Options{Library: lib})

	do(t, s, http.MethodPost, "/api/keyframes", nil)
	do(t, s, http.MethodPut, "/api/joints/neck", map[string]float64{"value": 20})
	do(t, s, http.MethodPost, "/api/keyframes", nil)

	code, body := do(t, s, http.MethodPut, "/api/sequences/nod", map[string]bool{"loop": true})
	if code != http.StatusCreated {
		t.Fatalf("save status = %d: %s", code, body)
	}
	var seq library.Sequence
	if err := json.Unmarshal(body, &seq); err != nil {
		t.Fatal(err)
	}
	if len(seq.Keyframes) != 2 || !seq.Loop {
		t.Fatalf("saved sequence = %+v", seq)
	}

	code, body = do(t, s, http.MethodGet, "/api/sequences/", nil)
	if code != http.StatusOK || string(body) != `["nod"]` {
		t.Fatalf("list = %d %s", code, body)
	}

	_ = s.WithStudio(func(st *poser.Studio) error {
		st.SetKeyframes(nil)
		return nil
	})
	code, body = do(t, s, http.MethodPost, "/api/sequences/nod/load", nil)
	if code != http.StatusOK {
		t.Fatalf("load status = %d: %s", code, body)
	}
	if f := decodeFrame(t, body); !f.Playing {
		t.Error("load should start playback")
	}
	_ = s.WithStudio(func(st *poser.Studio) error {
		if got := len(st.Keyframes()); got != 2 {
			t.Errorf("keyframes after load = %d, want 2", got)
		}
		return nil
	})

	if code, _ := do(t, s, http.MethodDelete, "/api/sequences/nod", nil); code != http.StatusNoContent {
		t.Errorf("delete status = %d", code)
	}
	if code, _ := do(t, s, http.MethodPost, "/api/sequences/nod/load", nil); code != http.StatusNotFound {
		t.Errorf("load after delete status = %d", code)
	}
}

func TestSequenceRoutesNeedLibrary(t *testing.T) {
	s := testServer(t, Options{})
	if code, _ := do(t, s, http.MethodGet, "/api/sequences/", nil); code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", code)
	}
}

func TestControlMessages(t *testing.T) {
	s := testServer(t, Options{})
	_ = s.WithStudio(func(st *poser.Studio) error {
		st.SetFriction(0)
		st.Calibrate()
		st.Update(0)
		st.Update(poser.CalibrationLength)
		return nil
	})

	for _, msg := range []string{
		`{"type":"drag_begin","joint":"waist","x":0}`,
		`{"type":"drag_move","x":25}`,
		`{"type":"drag_end"}`,
	} {
		if err := s.handleControl([]byte(msg)); err != nil {
			t.Fatalf("%s: %v", msg, err)
		}
	}
	_ = s.WithStudio(func(st *poser.Studio) error {
		if got := st.Pose()[poser.Waist]; got != 25 {
			t.Errorf("waist = %v, want 25", got)
		}
		return nil
	})

	if err := s.handleControl([]byte(`{"type":"teleport"}`)); err == nil {
		t.Error("expected error for unknown message type")
	}
	for _, msg := range []string{
		`{"type":"drag_begin","x":0}`,
		`{"type":"set","value":10}`,
		`{"type":"pin","x":1,"y":1}`,
	} {
		if err := s.handleControl([]byte(msg)); err == nil || !strings.Contains(err.Error(), "joint is required") {
			t.Errorf("%s: err = %v, want joint is required", msg, err)
		}
	}
	_ = s.WithStudio(func(st *poser.Studio) error {
		if st.Dragging() || st.Pose()[poser.Waist] != 25 {
			t.Error("a message without a joint must not touch the waist")
		}
		return nil
	})
}

func TestStepBroadcastsNothingWithoutClients(t *testing.T) {
	s := testServer(t, Options{})
	_ = s.WithStudio(func(st *poser.Studio) error { return st.SetJoint(poser.Neck, 12) })
	f := s.Step()
	if f.Pose[poser.Neck] != 12 {
		t.Errorf("neck = %v, want 12", f.Pose[poser.Neck])
	}
	if s.hub.ClientCount() != 0 {
		t.Error("no clients should be registered")
	}
}

func TestServeStopsTickingWhenListenerFails(t *testing.T) {
	s := testServer(t, Options{Tick: time.Millisecond})
	var steps atomic.Int64
	s.clock = func() time.Duration {
		steps.Add(1)
		return 0
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ln.Close()

	done := make(chan error, 1)
	go func() { done <- s.Serve(context.Background(), ln) }()
	select {
	case err := <-done:
		if err == nil {
			t.Fatal("Serve on a closed listener should fail")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}

	// Let a step already in flight finish.
	time.Sleep(10 * time.Millisecond)
	before := steps.Load()
	time.Sleep(30 * time.Millisecond)
	if after := steps.Load(); after != before {
		t.Errorf("studio stepped %d more times after Serve returned", after-before)
	}
}
