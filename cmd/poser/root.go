package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/phanxgames/poser"
	"github.com/phanxgames/poser/internal/config"
	"github.com/phanxgames/poser/internal/log"
)

var rootCmd = &cobra.Command{
	Use:           "poser",
	Short:         "2D humanoid posing studio",
	Long:          "Poser poses a 2D humanoid with forward kinematics, chained joint drags, two-bone IK pins and eased transitions.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default .poser.yaml)")
	rootCmd.PersistentFlags().String("rig", "", "rig TOML file with behaviors, base pose and proportions")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Float64("base-unit", 0, "head height in world units")
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".poser")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	config.BindEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

// loadConfig reads config and applies the persistent flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if v, _ := cmd.Flags().GetString("rig"); v != "" {
		cfg.RigFile = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v, _ := cmd.Flags().GetFloat64("base-unit"); v > 0 {
		cfg.BaseUnit = v
	}
	log.Init(cfg.LogLevel)
	return cfg, nil
}

// loadRig reads the configured rig file, or returns nil when none is set.
func loadRig(cfg config.Config) (*config.RigFile, error) {
	if cfg.RigFile == "" {
		return nil, nil
	}
	rig, err := config.LoadRigFile(cfg.RigFile)
	if err != nil {
		return nil, err
	}
	log.Debug("loaded rig", "file", cfg.RigFile)
	return rig, nil
}

// newStudio builds a studio from config and the optional rig file.
func newStudio(cfg config.Config) (*poser.Studio, error) {
	rig, err := loadRig(cfg)
	if err != nil {
		return nil, err
	}
	opts, err := cfg.StudioOptions(rig)
	if err != nil {
		return nil, err
	}
	s := poser.NewStudio(opts)
	s.SetDebugMode(cfg.Debug)
	return s, nil
}

// applyRig copies a reloaded rig onto a running studio.
func applyRig(s *poser.Studio, rig *config.RigFile) error {
	behaviors, err := rig.JointBehaviors()
	if err != nil {
		return err
	}
	base, err := rig.BasePose()
	if err != nil {
		return err
	}
	props, err := rig.PartProportions()
	if err != nil {
		return err
	}
	limits, err := rig.JointLimits()
	if err != nil {
		return err
	}
	s.SetBehaviors(behaviors)
	s.SetBase(base)
	s.SetProportions(props)
	s.SetLimits(limits)
	if rig.BaseUnit > 0 {
		s.SetBaseUnit(rig.BaseUnit)
	}
	return nil
}

// watchRig starts a watcher on the configured rig file and hands each
// successful reload to apply. The returned stop function is safe to call
// when no rig is configured.
func watchRig(cfg config.Config, apply func(*config.RigFile)) (stop func(), err error) {
	if cfg.RigFile == "" {
		return func() {}, nil
	}
	w, err := config.NewRigWatcher(cfg.RigFile)
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		w.Stop()
		return nil, fmt.Errorf("watching %s: %w", cfg.RigFile, err)
	}
	go func() {
		for change := range w.Changes {
			if change.Err != nil {
				log.Warn("rig reload failed", "file", change.File, "err", change.Err)
				continue
			}
			log.Info("rig reloaded", "file", change.File)
			apply(change.Rig)
		}
	}()
	return w.Stop, nil
}
