// Package config loads runtime settings for the poser binaries and the
// TOML rig files that describe chain behaviors, base pose and proportions.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/phanxgames/poser"
)

// TransitionConfig holds defaults for pose transitions.
type TransitionConfig struct {
	DurationMS int     `mapstructure:"duration_ms"`
	Style      string  `mapstructure:"style"`
	Grid       float64 `mapstructure:"grid"`
	JitterMS   int     `mapstructure:"jitter_ms"`
}

// ServerConfig holds settings for the pose server.
type ServerConfig struct {
	Port   int `mapstructure:"port"`
	TickMS int `mapstructure:"tick_ms"`
}

// Config holds all runtime configuration for a posing session.
// Values are populated from .poser.yaml, POSER_* env vars, and CLI flags.
type Config struct {
	BaseUnit    float64          `mapstructure:"base_unit"`
	Friction    float64          `mapstructure:"friction"`
	Ghosting    bool             `mapstructure:"ghosting"`
	AutoCapture bool             `mapstructure:"auto_capture"`
	Transition  TransitionConfig `mapstructure:"transition"`
	RigFile     string           `mapstructure:"rig_file"`
	LibraryPath string           `mapstructure:"library_path"`
	Server      ServerConfig     `mapstructure:"server"`
	LogLevel    string           `mapstructure:"log_level"`
	Debug       bool             `mapstructure:"debug"`
	Seed        uint64           `mapstructure:"seed"`
}

// SetDefaults registers the built-in defaults with viper.
func SetDefaults() {
	viper.SetDefault("base_unit", poser.DefaultBaseUnit)
	viper.SetDefault("friction", poser.DefaultFriction)
	viper.SetDefault("ghosting", true)
	viper.SetDefault("auto_capture", false)
	viper.SetDefault("transition.duration_ms", 700)
	viper.SetDefault("transition.style", "standard")
	viper.SetDefault("transition.grid", poser.DefaultGrid)
	viper.SetDefault("transition.jitter_ms", 120)
	viper.SetDefault("rig_file", "")
	viper.SetDefault("library_path", "poser.db")
	viper.SetDefault("server.port", 8390)
	viper.SetDefault("server.tick_ms", 16)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("debug", false)
	viper.SetDefault("seed", 1)
}

// BindEnv makes POSER_* environment variables override config keys.
// Nested keys use underscores: POSER_SERVER_PORT sets server.port.
func BindEnv() {
	viper.SetEnvPrefix("POSER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	SetDefaults()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and names.
func (c Config) Validate() error {
	for _, f := range []struct {
		key string
		v   float64
	}{
		{"base_unit", c.BaseUnit},
		{"friction", c.Friction},
		{"transition.grid", c.Transition.Grid},
	} {
		if !finite(f.v) {
			return fmt.Errorf("config: %s: %w", f.key, poser.ErrNonFinite)
		}
	}
	if c.BaseUnit <= 0 {
		return fmt.Errorf("config: base_unit must be positive, got %v", c.BaseUnit)
	}
	if c.Friction < 0 || c.Friction > 100 {
		return fmt.Errorf("config: friction must be within 0..100, got %v", c.Friction)
	}
	if _, err := poser.ParseStyle(c.Transition.Style); err != nil {
		return fmt.Errorf("config: transition.style: %w", err)
	}
	if c.Server.TickMS <= 0 {
		return fmt.Errorf("config: server.tick_ms must be positive, got %d", c.Server.TickMS)
	}
	return nil
}

// Tick returns the server tick interval.
func (c Config) Tick() time.Duration {
	return time.Duration(c.Server.TickMS) * time.Millisecond
}

// StudioOptions builds studio options from the config and an optional rig.
func (c Config) StudioOptions(rig *RigFile) (poser.Options, error) {
	style, err := poser.ParseStyle(c.Transition.Style)
	if err != nil {
		return poser.Options{}, err
	}
	friction := c.Friction
	opts := poser.Options{
		BaseUnit:           c.BaseUnit,
		Friction:           &friction,
		Ghosting:           c.Ghosting,
		AutoCapture:        c.AutoCapture,
		Style:              style,
		TransitionDuration: time.Duration(c.Transition.DurationMS) * time.Millisecond,
		Grid:               c.Transition.Grid,
		Jitter:             time.Duration(c.Transition.JitterMS) * time.Millisecond,
		Seed:               c.Seed,
	}
	if rig == nil {
		return opts, nil
	}
	if err := rig.Apply(&opts); err != nil {
		return poser.Options{}, err
	}
	return opts, nil
}
