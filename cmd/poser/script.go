package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/phanxgames/poser"
	"github.com/phanxgames/poser/internal/ui"
)

var scriptCmd = &cobra.Command{
	Use:   "script FILE",
	Short: "Run a JSON pose script headlessly and print its captures",
	Args:  cobra.ExactArgs(1),
	RunE:  runScript,
}

func init() {
	scriptCmd.Flags().Int("max-frames", 10000, "abort after this many frames")
	scriptCmd.Flags().Duration("frame", 16*time.Millisecond, "simulated frame interval")
	scriptCmd.Flags().Bool("json", false, "print captures as JSON")
	rootCmd.AddCommand(scriptCmd)
}

func runScript(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading script: %w", err)
	}
	runner, err := poser.LoadScript(data)
	if err != nil {
		return err
	}
	studio, err := newStudio(cfg)
	if err != nil {
		return err
	}

	maxFrames, _ := cmd.Flags().GetInt("max-frames")
	frame, _ := cmd.Flags().GetDuration("frame")
	caps, err := poser.RunScript(runner, studio, 0, frame, maxFrames)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(caps)
	}
	p := ui.New()
	rows := make([][]string, 0, len(caps))
	for _, c := range caps {
		rows = append(rows, []string{c.Label, poser.Encode(c.Pose, studio.Proportions())})
	}
	p.Table([]string{"capture", "code"}, rows)
	p.Success("%d captures", len(caps))
	return nil
}
