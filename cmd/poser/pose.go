package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phanxgames/poser"
	"github.com/phanxgames/poser/internal/ui"
)

var evalCmd = &cobra.Command{
	Use:   "eval [POSE]",
	Short: "Print world transforms for a pose",
	Long:  "Evaluate forward kinematics for a pose given as a POSE[...] code or a JSON object, from the argument or stdin.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runEval,
}

var solveCmd = &cobra.Command{
	Use:   "solve [POSE]",
	Short: "Solve a limb toward a target with two-bone IK",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSolve,
}

var encodeCmd = &cobra.Command{
	Use:   "encode [JSON]",
	Short: "Convert a JSON pose to a pose code",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runEncode,
}

var decodeCmd = &cobra.Command{
	Use:   "decode [CODE]",
	Short: "Convert a pose code to JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDecode,
}

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List preset pose commands",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		ui.New().Commands()
		return nil
	},
}

func init() {
	evalCmd.Flags().Bool("json", false, "print the transform table as JSON")

	solveCmd.Flags().String("effector", "", "hand or foot to place: l_hand, r_hand, l_foot, r_foot")
	solveCmd.Flags().Float64("x", 0, "target X in world units")
	solveCmd.Flags().Float64("y", 0, "target Y in world units")
	_ = solveCmd.MarkFlagRequired("effector")

	rootCmd.AddCommand(evalCmd, solveCmd, encodeCmd, decodeCmd, commandsCmd)
}

// readInput returns args[0], or stdin when no argument (or "-") is given.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

// parsePose accepts a pose code or a JSON pose object. JSON input carries
// no proportions, so they default to unit scales.
func parsePose(s string) (poser.Pose, poser.Proportions, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return poser.Pose{}, poser.DefaultProportions(), nil
	}
	if strings.HasPrefix(s, "{") {
		var p poser.Pose
		if err := json.Unmarshal([]byte(s), &p); err != nil {
			return poser.Pose{}, poser.Proportions{}, fmt.Errorf("%w: %v", poser.ErrMalformedPose, err)
		}
		return p, poser.DefaultProportions(), nil
	}
	return poser.Decode(s)
}

func runEval(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	rig, err := loadRig(cfg)
	if err != nil {
		return err
	}
	in, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	pose, props, err := parsePose(in)
	if err != nil {
		return err
	}

	var base poser.Pose
	if rig != nil {
		if base, err = rig.BasePose(); err != nil {
			return err
		}
	}
	table := poser.EvaluateBase(pose, base, props, cfg.BaseUnit)

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(table)
	}
	ui.New().Transforms(table)
	return nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	name, _ := cmd.Flags().GetString("effector")
	effector, err := poser.ParseJoint(name)
	if err != nil {
		return err
	}
	limb, err := poser.LimbFor(effector)
	if err != nil {
		return err
	}
	x, _ := cmd.Flags().GetFloat64("x")
	y, _ := cmd.Flags().GetFloat64("y")
	target := poser.Vec2{X: x, Y: y}
	if !target.IsFinite() {
		return fmt.Errorf("target: %w", poser.ErrNonFinite)
	}

	pose, props := poser.Pose{}, poser.DefaultProportions()
	if len(args) > 0 {
		if pose, props, err = parsePose(args[0]); err != nil {
			return err
		}
	}
	rig, err := loadRig(cfg)
	if err != nil {
		return err
	}
	var base poser.Pose
	if rig != nil {
		if base, err = rig.BasePose(); err != nil {
			return err
		}
	}

	table := poser.EvaluateBase(pose, base, props, cfg.BaseUnit)
	sol := poser.SolveLimb(limb, target, &table, base)
	pose[limb.Root] = sol.Angle1
	pose[limb.Mid] = sol.Angle2

	p := ui.New()
	p.Solution(limb, sol)
	p.Code(poser.Encode(pose, props))
	return nil
}

func runEncode(cmd *cobra.Command, args []string) error {
	in, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	pose, props, err := parsePose(in)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), poser.Encode(pose, props))
	return nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	in, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	pose, _, err := poser.Decode(strings.TrimSpace(in))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(pose)
}

