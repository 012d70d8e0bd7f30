// Package poser is the kinematic core of a 2D humanoid posing tool.
//
// A rig has eighteen rotational [Joint]s, each driving one rigid [Part]. A
// [Pose] holds one pivot offset per joint in degrees, relative to the
// parent's world rotation. Everything else is derived from it.
//
// # Quick start
//
// Evaluate a pose into world-space transforms:
//
//	pose := poser.RestPose
//	table := poser.Evaluate(pose, poser.DefaultProportions(), poser.DefaultBaseUnit)
//	hand := table.Get(poser.PartLHand).Position
//
// For interactive editing, create a [Studio] and call [Studio.Update] once
// per display frame:
//
//	s := poser.NewStudio(poser.Options{Ghosting: true})
//	s.Calibrate()
//	frame := s.Update(now)
//
// # Forward kinematics
//
// [Evaluate] walks the rig depth-first from the waist, which sits at the
// world origin. Spine and head bones extend along local -Y, limbs along +Y.
// Both hips share the waist point. Arms hang from the collar's end, offset
// to either side by half the collar width.
//
// # Chain reaction
//
// [Propagate] spreads an edit through a joint's descendants breadth-first.
// Each child follows its parent's delta scaled by its [Behavior] factor and
// passes the scaled delta on, so decay compounds down the chain.
//
// # Inverse kinematics
//
// [SolveTwoBoneIK] solves a planar two-bone chain by the law of cosines. It
// never fails: an out-of-reach target is clamped and reported through
// [IKSolution.Stretch]. [Studio.Pin] keeps a hand or foot on a world target.
//
// # Transitions
//
// A [Transition] blends between poses along the shortest arc of every joint,
// eased through [gween] curves, and commits the exact target when done. An
// [Animator] keeps at most one transition in flight.
//
// The core is single-threaded. It starts no goroutines and owns no timers;
// callers pass the current time to [Studio.Update] or [Transition.Advance].
//
// [gween]: https://github.com/tanema/gween
package poser
