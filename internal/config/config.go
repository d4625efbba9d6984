// Package config persists the controller configuration as YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/vjkit/gridlearn/internal/model"
)

// DefaultPath returns the platform config file location,
// e.g. ~/.config/gridlearn/config.yaml on Linux.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "gridlearn", "config.yaml"), nil
}

// Load reads the configuration from disk. A missing file is not an
// error: a fresh install starts with an empty config. A corrupt file
// also degrades to an empty config, with the parse error returned so
// the caller can log it.
func Load(path string) (model.ControllerConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return newConfig(), nil
	}
	if err != nil {
		return newConfig(), err
	}

	var cfg model.ControllerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return newConfig(), fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Pads == nil {
		cfg.Pads = map[string]model.PadConfig{}
	}
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	normalize(&cfg)
	return cfg, nil
}

// Save writes the configuration atomically: marshal to a temp file in
// the target directory, then rename over the destination. A crash
// mid-save never leaves a half-written config behind.
func Save(cfg model.ControllerConfig, path string) error {
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close config: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}

func newConfig() model.ControllerConfig {
	cfg := model.NewControllerConfig()
	cfg.ID = uuid.New().String()
	return cfg
}

// normalize rewrites numeric command arguments as float64 so a loaded
// config compares equal to the one that was saved. YAML reads "1" back
// as an int even when a float was written.
func normalize(cfg *model.ControllerConfig) {
	for key, pc := range cfg.Pads {
		pc.On.Args = model.NormalizeArgs(pc.On.Args)
		if pc.Off != nil {
			off := *pc.Off
			off.Args = model.NormalizeArgs(off.Args)
			pc.Off = &off
		}
		cfg.Pads[key] = pc
	}
}
