package server

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/phanxgames/poser"
)

// jointParam parses the :joint route parameter.
func jointParam(c *fiber.Ctx) (poser.Joint, error) {
	return poser.ParseJoint(c.Params("joint"))
}

// requireJoint rejects a body that omitted its joint field.
func requireJoint(j *poser.Joint, field string) (poser.Joint, error) {
	if j == nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, field+" is required")
	}
	return *j, nil
}

func parseBody(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return fmt.Errorf("%w: %v", poser.ErrMalformedPose, err)
	}
	return nil
}

// frameLocked returns the most recent frame, re-evaluated so edits made
// since the last tick are visible. Callers hold s.mu.
func (s *Server) frameLocked() poser.Frame {
	s.last = s.studio.Update(s.clock())
	return s.last
}

// mutate runs fn under the studio lock and replies with the resulting frame.
func (s *Server) mutate(c *fiber.Ctx, fn func(*poser.Studio) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.studio); err != nil {
		return err
	}
	return c.JSON(s.frameLocked())
}

func (s *Server) handleFrame(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(s.frameLocked())
}

func (s *Server) handleGetPose(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(s.studio.Pose())
}

func (s *Server) handlePutPose(c *fiber.Ctx) error {
	var p poser.Pose
	if err := parseBody(c, &p); err != nil {
		return err
	}
	return s.mutate(c, func(st *poser.Studio) error {
		st.ReplacePose(p)
		return nil
	})
}

type codeBody struct {
	Code string `json:"code"`
}

func (s *Server) handleGetCode(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(codeBody{Code: poser.Encode(s.studio.Pose(), s.studio.Proportions())})
}

func (s *Server) handlePutCode(c *fiber.Ctx) error {
	var body codeBody
	if err := parseBody(c, &body); err != nil {
		return err
	}
	pose, props, err := poser.Decode(body.Code)
	if err != nil {
		return err
	}
	return s.mutate(c, func(st *poser.Studio) error {
		st.SetProportions(props)
		st.ReplacePose(pose)
		return nil
	})
}

type valueBody struct {
	Value float64 `json:"value"`
}

func (s *Server) handleSetJoint(c *fiber.Ctx) error {
	j, err := jointParam(c)
	if err != nil {
		return err
	}
	var body valueBody
	if err := parseBody(c, &body); err != nil {
		return err
	}
	return s.mutate(c, func(st *poser.Studio) error { return st.SetJoint(j, body.Value) })
}

func (s *Server) handleCalibrate(c *fiber.Ctx) error {
	return s.mutate(c, func(st *poser.Studio) error {
		st.Calibrate()
		return nil
	})
}

type dragBody struct {
	Joint *poser.Joint `json:"joint"`
	X     float64      `json:"x"`
}

func (s *Server) handleDragBegin(c *fiber.Ctx) error {
	var body dragBody
	if err := parseBody(c, &body); err != nil {
		return err
	}
	j, err := requireJoint(body.Joint, "joint")
	if err != nil {
		return err
	}
	return s.mutate(c, func(st *poser.Studio) error { return st.BeginDrag(j, body.X) })
}

func (s *Server) handleDragMove(c *fiber.Ctx) error {
	var body dragBody
	if err := parseBody(c, &body); err != nil {
		return err
	}
	return s.mutate(c, func(st *poser.Studio) error { return st.DragTo(body.X) })
}

func (s *Server) handleDragEnd(c *fiber.Ctx) error {
	return s.mutate(c, func(st *poser.Studio) error { return st.EndDrag() })
}

type transitionBody struct {
	Target     poser.PartialPose `json:"target"`
	DurationMS int               `json:"duration_ms"`
}

func (s *Server) handleTransition(c *fiber.Ctx) error {
	var body transitionBody
	if err := parseBody(c, &body); err != nil {
		return err
	}
	if len(body.Target) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "target must name at least one joint")
	}
	return s.mutate(c, func(st *poser.Studio) error {
		st.Play(body.Target, time.Duration(body.DurationMS)*time.Millisecond)
		return nil
	})
}

func (s *Server) handlePin(c *fiber.Ctx) error {
	j, err := jointParam(c)
	if err != nil {
		return err
	}
	var target poser.Vec2
	if err := parseBody(c, &target); err != nil {
		return err
	}
	return s.mutate(c, func(st *poser.Studio) error { return st.Pin(j, target) })
}

func (s *Server) handleUnpin(c *fiber.Ctx) error {
	j, err := jointParam(c)
	if err != nil {
		return err
	}
	return s.mutate(c, func(st *poser.Studio) error {
		if !st.Unpin(j) {
			return fiber.NewError(fiber.StatusNotFound, "joint is not pinned")
		}
		return nil
	})
}

func (s *Server) handleListCommands(c *fiber.Ctx) error {
	return c.JSON(poser.Commands())
}

func (s *Server) handleCommand(c *fiber.Ctx) error {
	name := c.Params("name")
	return s.mutate(c, func(st *poser.Studio) error { return st.ApplyCommand(name) })
}

func (s *Server) handleListKeyframes(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kfs := s.studio.Keyframes()
	if kfs == nil {
		kfs = []poser.Keyframe{}
	}
	return c.JSON(kfs)
}

func (s *Server) handleCaptureKeyframe(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kf := s.studio.AddKeyframe(s.studio.Pose())
	return c.Status(fiber.StatusCreated).JSON(kf)
}

func (s *Server) handleDeleteKeyframe(c *fiber.Ctx) error {
	id := c.Params("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.studio.RemoveKeyframe(id) {
		return fiber.NewError(fiber.StatusNotFound, "no keyframe "+id)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type playBody struct {
	Loop bool `json:"loop"`
}

func (s *Server) handlePlayTimeline(c *fiber.Ctx) error {
	var body playBody
	if len(c.Body()) > 0 {
		if err := parseBody(c, &body); err != nil {
			return err
		}
	}
	return s.mutate(c, func(st *poser.Studio) error { return st.PlayTimeline(body.Loop) })
}

func (s *Server) handleStopTimeline(c *fiber.Ctx) error {
	return s.mutate(c, func(st *poser.Studio) error {
		st.StopTimeline()
		return nil
	})
}

type settingsBody struct {
	Friction    *float64        `json:"friction"`
	Ghosting    *bool           `json:"ghosting"`
	AutoCapture *bool           `json:"auto_capture"`
	Behaviors   poser.Behaviors `json:"behaviors"`
}

func (s *Server) handleSettings(c *fiber.Ctx) error {
	var body settingsBody
	if err := parseBody(c, &body); err != nil {
		return err
	}
	return s.mutate(c, func(st *poser.Studio) error {
		if body.Friction != nil {
			st.SetFriction(*body.Friction)
		}
		if body.Ghosting != nil {
			st.SetGhosting(*body.Ghosting)
		}
		if body.AutoCapture != nil {
			st.SetAutoCapture(*body.AutoCapture)
		}
		if body.Behaviors != nil {
			st.SetBehaviors(body.Behaviors)
		}
		return nil
	})
}

// --- Stateless math ---

// rigBody carries the optional rig shape for stateless requests.
type rigBody struct {
	Base        poser.Pose                 `json:"base"`
	Proportions map[poser.Part]poser.Scale `json:"proportions"`
	BaseUnit    float64                    `json:"base_unit"`
}

func (r rigBody) props() poser.Proportions {
	props := poser.DefaultProportions()
	for p, sc := range r.Proportions {
		props[p] = sc
	}
	return props
}

func (r rigBody) unit() float64 {
	if r.BaseUnit > 0 {
		return r.BaseUnit
	}
	return poser.DefaultBaseUnit
}

type evaluateBody struct {
	rigBody
	Pose poser.Pose `json:"pose"`
}

func (s *Server) handleEvaluate(c *fiber.Ctx) error {
	var body evaluateBody
	if err := parseBody(c, &body); err != nil {
		return err
	}
	return c.JSON(poser.EvaluateBase(body.Pose, body.Base, body.props(), body.unit()))
}

type propagateBody struct {
	Pose      poser.Pose      `json:"pose"`
	Joint     *poser.Joint    `json:"joint"`
	Delta     float64         `json:"delta"`
	Behaviors poser.Behaviors `json:"behaviors"`
}

func (s *Server) handlePropagate(c *fiber.Ctx) error {
	var body propagateBody
	if err := parseBody(c, &body); err != nil {
		return err
	}
	j, err := requireJoint(body.Joint, "joint")
	if err != nil {
		return err
	}
	return c.JSON(poser.Propagate(j, body.Delta, body.Pose, body.Behaviors))
}

type solveBody struct {
	rigBody
	Pose     poser.Pose   `json:"pose"`
	Effector *poser.Joint `json:"effector"`
	Target   poser.Vec2   `json:"target"`
}

type solveResult struct {
	Solution poser.IKSolution `json:"solution"`
	Pose     poser.Pose       `json:"pose"`
	Table    poser.Table      `json:"table"`
}

func (s *Server) handleSolve(c *fiber.Ctx) error {
	var body solveBody
	if err := parseBody(c, &body); err != nil {
		return err
	}
	effector, err := requireJoint(body.Effector, "effector")
	if err != nil {
		return err
	}
	limb, err := poser.LimbFor(effector)
	if err != nil {
		return err
	}
	if !body.Target.IsFinite() {
		return poser.ErrNonFinite
	}
	props, unit := body.props(), body.unit()
	table := poser.EvaluateBase(body.Pose, body.Base, props, unit)
	sol := poser.SolveLimb(limb, body.Target, &table, body.Base)

	pose := body.Pose
	pose[limb.Root] = sol.Angle1
	pose[limb.Mid] = sol.Angle2
	return c.JSON(solveResult{
		Solution: sol,
		Pose:     pose,
		Table:    poser.EvaluateBase(pose, body.Base, props, unit),
	})
}

// --- Websocket ---

// controlMessage is an input event sent by a frame client.
type controlMessage struct {
	Type  string       `json:"type"`
	Joint *poser.Joint `json:"joint"`
	X     float64     `json:"x"`
	Y     float64     `json:"y"`
	Value float64     `json:"value"`
	Name  string      `json:"name"`
}

func (s *Server) handleControl(data []byte) error {
	var msg controlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	var j poser.Joint
	switch msg.Type {
	case "drag_begin", "set", "pin", "unpin":
		if msg.Joint == nil {
			return fmt.Errorf("%s: joint is required", msg.Type)
		}
		j = *msg.Joint
	}
	return s.WithStudio(func(st *poser.Studio) error {
		switch msg.Type {
		case "drag_begin":
			return st.BeginDrag(j, msg.X)
		case "drag_move":
			return st.DragTo(msg.X)
		case "drag_end":
			return st.EndDrag()
		case "set":
			return st.SetJoint(j, msg.Value)
		case "pin":
			return st.Pin(j, poser.Vec2{X: msg.X, Y: msg.Y})
		case "unpin":
			st.Unpin(j)
			return nil
		case "command":
			return st.ApplyCommand(msg.Name)
		case "calibrate":
			st.Calibrate()
			return nil
		}
		return fmt.Errorf("unknown control message %q", msg.Type)
	})
}

func (s *Server) handleFramesWS(c *websocket.Conn) {
	s.mu.Lock()
	first := s.last
	s.mu.Unlock()
	if err := c.WriteJSON(first); err != nil {
		return
	}
	NewClient(s.hub, c, s.handleControl).Run()
}
