package main

import (
	"github.com/spf13/cobra"

	"github.com/phanxgames/poser"
	"github.com/phanxgames/poser/internal/config"
	"github.com/phanxgames/poser/internal/log"
	"github.com/phanxgames/poser/internal/viewer"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Open the interactive posing window",
	Args:  cobra.NoArgs,
	RunE:  runView,
}

func init() {
	viewCmd.Flags().Int("width", 960, "window width")
	viewCmd.Flags().Int("height", 720, "window height")
	viewCmd.Flags().String("screenshots", "screenshots", "directory for F12 screenshots")
	viewCmd.Flags().Bool("calibrate", true, "start calibrating immediately")
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	studio, err := newStudio(cfg)
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetBool("calibrate"); v {
		studio.Calibrate()
	}

	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")
	dir, _ := cmd.Flags().GetString("screenshots")
	game := viewer.New(studio, viewer.Options{
		Width:         width,
		Height:        height,
		ScreenshotDir: dir,
		Logger:        log.L(),
	})

	stop, err := watchRig(cfg, func(rig *config.RigFile) {
		game.Post(func(s *poser.Studio) {
			if err := applyRig(s, rig); err != nil {
				log.Warn("rig apply failed", "err", err)
			}
		})
	})
	if err != nil {
		return err
	}
	defer stop()

	return viewer.Run(game, "poser")
}
