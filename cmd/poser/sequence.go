package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/phanxgames/poser"
	"github.com/phanxgames/poser/internal/ui"
)

var sequenceCmd = &cobra.Command{
	Use:     "seq",
	Aliases: []string{"sequence"},
	Short:   "Manage saved keyframe sequences",
}

var sequenceSaveCmd = &cobra.Command{
	Use:   "save NAME [FILE]",
	Short: "Save keyframes read one pose per line from FILE or stdin",
	Long: `Save keyframes under NAME. Each non-blank input line is a pose code or a
JSON pose and becomes one keyframe, spaced --spacing apart.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSequenceSave,
}

var sequenceGetCmd = &cobra.Command{
	Use:   "get NAME",
	Short: "Print a saved sequence as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runSequenceGet,
}

var sequenceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sequences",
	Args:  cobra.NoArgs,
	RunE:  runSequenceList,
}

var sequenceDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a saved sequence",
	Args:  cobra.ExactArgs(1),
	RunE:  runSequenceDelete,
}

func init() {
	sequenceSaveCmd.Flags().Bool("loop", false, "play the sequence on a loop when loaded")
	sequenceSaveCmd.Flags().Duration("spacing", poser.DefaultKeyframeSpacing, "time between keyframes")
	sequenceCmd.AddCommand(sequenceSaveCmd, sequenceGetCmd, sequenceListCmd, sequenceDeleteCmd)
	libraryCmd.AddCommand(sequenceCmd)
}

// parseKeyframes reads one pose per non-blank line.
func parseKeyframes(in string, spacing time.Duration) ([]poser.Keyframe, error) {
	var kfs []poser.Keyframe
	sc := bufio.NewScanner(strings.NewReader(in))
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		pose, _, err := parsePose(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		kfs = append(kfs, poser.NewKeyframe(fmt.Sprintf("Pose %d", len(kfs)+1), pose, spacing))
	}
	return kfs, sc.Err()
}

func runSequenceSave(cmd *cobra.Command, args []string) error {
	spacing, _ := cmd.Flags().GetDuration("spacing")
	loop, _ := cmd.Flags().GetBool("loop")
	if spacing <= 0 {
		return fmt.Errorf("spacing must be positive, got %v", spacing)
	}

	var in string
	if len(args) == 2 && args[1] != "-" {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("reading keyframes: %w", err)
		}
		in = string(data)
	} else {
		data, err := readInput(cmd, nil)
		if err != nil {
			return err
		}
		in = data
	}
	kfs, err := parseKeyframes(in, spacing)
	if err != nil {
		return err
	}
	if len(kfs) < 2 {
		return poser.ErrNoKeyframes
	}

	lib, err := openLibrary(cmd)
	if err != nil {
		return err
	}
	defer lib.Close()

	seq, err := lib.SaveSequence(ctxOf(cmd), args[0], kfs, loop)
	if err != nil {
		return err
	}
	ui.New().Success("saved %s (%d keyframes)", seq.Name, len(seq.Keyframes))
	return nil
}

func runSequenceGet(cmd *cobra.Command, args []string) error {
	lib, err := openLibrary(cmd)
	if err != nil {
		return err
	}
	defer lib.Close()

	seq, err := lib.GetSequence(ctxOf(cmd), args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(seq)
}

func runSequenceList(cmd *cobra.Command, _ []string) error {
	lib, err := openLibrary(cmd)
	if err != nil {
		return err
	}
	defer lib.Close()

	names, err := lib.ListSequences(ctxOf(cmd))
	if err != nil {
		return err
	}
	p := ui.New()
	if len(names) == 0 {
		p.Info("no sequences saved")
		return nil
	}
	for _, name := range names {
		p.Raw(name)
	}
	return nil
}

func runSequenceDelete(cmd *cobra.Command, args []string) error {
	lib, err := openLibrary(cmd)
	if err != nil {
		return err
	}
	defer lib.Close()

	if err := lib.DeleteSequence(ctxOf(cmd), args[0]); err != nil {
		return err
	}
	ui.New().Success("deleted sequence %s", args[0])
	return nil
}
