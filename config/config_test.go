// Copyright (C) 2026 zrc-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test-config.yaml")
	content := `environment: staging
identity:
  key_directory: /var/lib/zrc/keys
pairing:
  backend: file
  path: /var/lib/zrc/pairings.json
relay:
  max_allocations: 256
update:
  channel: beta
  signature_quorum: 2
  trusted_keys:
    - aa
    - bb
logging:
  level: debug
  format: text
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "/var/lib/zrc/keys", cfg.Identity.KeyDirectory)
	assert.Equal(t, "file", cfg.Pairing.Backend)
	assert.Equal(t, 256, cfg.Relay.MaxAllocations)
	assert.Equal(t, "beta", cfg.Update.Channel)
	assert.Equal(t, 2, cfg.Update.SignatureQuorum)
	assert.Equal(t, []string{"aa", "bb"}, cfg.Update.TrustedKeysHex)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFile_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test-config.json")
	content := `{"environment":"production","pairing":{"backend":"postgres","dsn":"postgres://x"}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "postgres", cfg.Pairing.Backend)
	assert.Equal(t, "postgres://x", cfg.Pairing.DSN)
}

func TestLoadFromFile_MissingFileReturnsError(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: dev\n"), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Pairing.Backend)
	assert.Equal(t, 4096, cfg.Relay.MaxAllocations)
	assert.Equal(t, "stable", cfg.Update.Channel)
	assert.Equal(t, 1, cfg.Update.SignatureQuorum)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestSaveToFile_YAMLRoundTrip(t *testing.T) {
	cfg := &Config{Environment: "roundtrip"}
	setDefaults(cfg)

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, SaveToFile(cfg, path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Environment, loaded.Environment)
	assert.Equal(t, cfg.Relay.MaxAllocations, loaded.Relay.MaxAllocations)
}

func TestSaveToFile_JSONRoundTrip(t *testing.T) {
	cfg := &Config{Environment: "roundtrip"}
	setDefaults(cfg)

	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, SaveToFile(cfg, path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Update.Channel, loaded.Update.Channel)
}
