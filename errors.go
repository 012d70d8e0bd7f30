package poser

import "errors"

var (
	// ErrUnknownJoint is returned when a joint name does not match the rig.
	ErrUnknownJoint = errors.New("unknown joint")
	// ErrUnknownPart is returned when a part name does not match the rig.
	ErrUnknownPart = errors.New("unknown body part")
	// ErrNotCalibrated is returned when an edit is attempted before Calibrate completes.
	ErrNotCalibrated = errors.New("rig not calibrated")
	// ErrNoDrag is returned by drag updates when no drag is in progress.
	ErrNoDrag = errors.New("no drag in progress")
	// ErrNotPinnable is returned when pinning a joint that does not end a two-bone limb.
	ErrNotPinnable = errors.New("joint cannot be pinned")
	// ErrMalformedPose is returned when a pose encoding cannot be parsed.
	ErrMalformedPose = errors.New("malformed pose encoding")
	// ErrNonFinite is returned when a NaN or infinite value reaches an input boundary.
	ErrNonFinite = errors.New("non-finite value")
	// ErrUnknownCommand is returned for a semantic command that names no preset.
	ErrUnknownCommand = errors.New("unknown pose command")
)
