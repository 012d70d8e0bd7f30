package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phanxgames/poser"
	"github.com/phanxgames/poser/internal/config"
	"github.com/phanxgames/poser/internal/library"
	"github.com/phanxgames/poser/internal/log"
	"github.com/phanxgames/poser/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a posing studio over HTTP and websocket",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (default from config, 8390)")
	serveCmd.Flags().String("library", "", "pose library database (default from config)")
	serveCmd.Flags().Bool("no-library", false, "disable the pose library routes")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetInt("port"); v > 0 {
		cfg.Server.Port = v
	}
	if v, _ := cmd.Flags().GetString("library"); v != "" {
		cfg.LibraryPath = v
	}

	studio, err := newStudio(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts := server.Options{Tick: cfg.Tick(), Logger: log.L()}
	if off, _ := cmd.Flags().GetBool("no-library"); !off {
		lib, err := library.Open(ctx, cfg.LibraryPath)
		if err != nil {
			return err
		}
		defer lib.Close()
		opts.Library = lib
	}
	srv := server.New(studio, opts)

	stop, err := watchRig(cfg, func(rig *config.RigFile) {
		err := srv.WithStudio(func(s *poser.Studio) error { return applyRig(s, rig) })
		if err != nil {
			log.Warn("rig apply failed", "err", err)
		}
	})
	if err != nil {
		return err
	}
	defer stop()

	return srv.Run(ctx, server.ListenAddr(cfg.Server.Port))
}
