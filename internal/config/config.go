// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the on-disk Sentinel configuration: a single YAML
// file at <StoreRoot>/config.yaml, defaulting StoreRoot/LogDir to
// ~/.sentinel when unset.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the full set of operator-tunable settings.
type Config struct {
	// StoreRoot is where the trace tree, accelerator index, and graph
	// snapshots live. Defaults to ~/.sentinel.
	StoreRoot string `yaml:"store_root"`

	// LogDir is where rotating log files are written. Defaults to
	// ~/.sentinel/logs, independent of StoreRoot.
	LogDir string `yaml:"log_dir"`

	// DiffThresholdMS is a latency-delta threshold for graph diffs. It is
	// loaded and saved with the config, but no command reads it; the diff
	// engine uses diff.Options.Threshold and its own default.
	DiffThresholdMS int `yaml:"diff_threshold_ms"`

	// UseIndex enables the Badger accelerator index under
	// <StoreRoot>/index.
	UseIndex bool `yaml:"use_index"`

	// OpenAIAPIKeyEnv names the environment variable the OpenAI adapter
	// reads its credential from. The core never reads this itself.
	OpenAIAPIKeyEnv string `yaml:"openai_api_key_env"`
}

// Default returns the configuration used when no config.yaml exists yet.
func Default() Config {
	return Config{
		StoreRoot:       "~/.sentinel",
		LogDir:          "~/.sentinel/logs",
		DiffThresholdMS: 50,
		UseIndex:        true,
		OpenAIAPIKeyEnv: "OPENAI_API_KEY",
	}
}

// Path returns the path config.yaml would live at, given a root. root=""
// resolves to ~/.sentinel.
func Path(root string) (string, error) {
	expanded, err := expandHome(root)
	if err != nil {
		return "", err
	}
	return filepath.Join(expanded, "config.yaml"), nil
}

// Load reads config.yaml from root (or ~/.sentinel if root is ""),
// returning Default() if the file does not exist. Tilde-prefixed
// StoreRoot/LogDir values are expanded against the user's home
// directory after loading.
func Load(root string) (Config, error) {
	path, err := Path(root)
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := Default()
		return expandPaths(cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return expandPaths(cfg)
}

// Save writes cfg as YAML to root's config.yaml, creating the root
// directory if needed.
func Save(root string, cfg Config) error {
	path, err := Path(root)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func expandPaths(cfg Config) (Config, error) {
	var err error
	if cfg.StoreRoot, err = expandHome(cfg.StoreRoot); err != nil {
		return Config{}, err
	}
	if cfg.LogDir, err = expandHome(cfg.LogDir); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func expandHome(path string) (string, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		return filepath.Join(home, ".sentinel"), nil
	}
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
