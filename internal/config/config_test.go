// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sentinel/internal/config"
)

func TestLoad_MissingFile_ReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.DiffThresholdMS)
	assert.True(t, cfg.UseIndex)
	assert.Equal(t, "OPENAI_API_KEY", cfg.OpenAIAPIKeyEnv)
}

func TestSave_Load_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.StoreRoot = dir
	cfg.DiffThresholdMS = 75

	require.NoError(t, config.Save(dir, cfg))

	loaded, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 75, loaded.DiffThresholdMS)
}

func TestPath_JoinsConfigYAML(t *testing.T) {
	dir := t.TempDir()
	p, err := config.Path(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), p)
}
