// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "main", cfg.Network)
	assert.Equal(t, 100_000, cfg.Upload.MaxCarrierSize)
	assert.Equal(t, 11_000, cfg.Upload.SafetyMargin)
	assert.Equal(t, 10, cfg.Download.MaxDepth)
}

func TestParse(t *testing.T) {
	t.Setenv("POLYGLOT_TEST_HOME", "/tmp/polyglot")
	cfg, err := Parse([]byte(`
network: test
log_level: debug
funding:
  fee_rate: 250
  poll_interval: 30s
upload:
  checkpoint_dir: ${POLYGLOT_TEST_HOME}/checkpoints
download:
  cache_life_window: 1h
`))
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.Network)
	assert.Equal(t, uint64(250), cfg.Funding.FeeRate)
	assert.Equal(t, 30*time.Second, cfg.Funding.PollInterval)
	assert.Equal(t, time.Hour, cfg.Download.CacheLifeWindow)
	assert.Equal(t, "/tmp/polyglot/checkpoints", cfg.Upload.CheckpointDir)
	// untouched values keep their defaults
	assert.Equal(t, 60, cfg.Funding.MaxPollAttempts)
	assert.Equal(t, uint32(1), cfg.Funding.MinConfirmations)
	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestParseInvalid(t *testing.T) {
	testDefs := []struct {
		name  string
		data  string
		match string
	}{
		{name: "Network", data: "network: regtest", match: "network"},
		{name: "LogLevel", data: "log_level: loud", match: "log_level"},
		{name: "PollAttempts", data: "funding: {max_poll_attempts: 0}", match: "max_poll_attempts"},
		{name: "Carrier", data: "upload: {max_carrier_size: 1000, safety_margin: 1000}", match: "max_carrier_size"},
		{name: "Depth", data: "download: {max_depth: 0}", match: "max_depth"},
		{name: "Syntax", data: "network: [", match: "parse config"},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			_, err := Parse([]byte(testDef.data))
			assert.ErrorContains(t, err, testDef.match)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "polyglot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("network: stn\n"), 0o600))
	t.Setenv(EnvConfigPath, path)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "stn", cfg.Network)
	t.Setenv(EnvConfigPath, "")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "main", cfg.Network)
	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")
}
