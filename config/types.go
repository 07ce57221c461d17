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

// Package config loads and validates the configuration shared by the
// device agent, controller, relay, and updater commands.
package config

import "time"

// Config is the top-level configuration structure, tagged for both YAML
// and JSON so it can be loaded from either format.
type Config struct {
	Environment string         `yaml:"environment" json:"environment"`
	Identity    IdentityConfig `yaml:"identity" json:"identity"`
	Pairing     PairingConfig  `yaml:"pairing" json:"pairing"`
	Relay       RelayConfig    `yaml:"relay" json:"relay"`
	Update      UpdateConfig   `yaml:"update" json:"update"`
	Logging     LoggingConfig  `yaml:"logging" json:"logging"`
	Metrics     MetricsConfig  `yaml:"metrics" json:"metrics"`
	Health      HealthConfig   `yaml:"health" json:"health"`
}

// IdentityConfig locates the device/controller's long-term key material.
type IdentityConfig struct {
	KeyDirectory  string `yaml:"key_directory" json:"key_directory"`
	PassphraseEnv string `yaml:"passphrase_env" json:"passphrase_env"`
}

// PairingConfig selects the pairing record store backend and its
// connection details.
type PairingConfig struct {
	// Backend is one of "memory", "file", or "postgres".
	Backend string `yaml:"backend" json:"backend"`
	// Path is the file used by the "file" backend.
	Path string `yaml:"path" json:"path"`
	// DSN is the connection string used by the "postgres" backend.
	DSN string `yaml:"dsn" json:"dsn"`
}

// RelayConfig bounds one relay instance's admission behavior.
type RelayConfig struct {
	RelayIDHex      string        `yaml:"relay_id" json:"relay_id"`
	IssuerPublicKey string        `yaml:"issuer_public_key" json:"issuer_public_key"`
	MaxAllocations  int           `yaml:"max_allocations" json:"max_allocations"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	SweepInterval   time.Duration `yaml:"sweep_interval" json:"sweep_interval"`
	AdminListenAddr string        `yaml:"admin_listen_addr" json:"admin_listen_addr"`
	AdminTokenEnv   string        `yaml:"admin_token_env" json:"admin_token_env"`
}

// UpdateConfig locates the update channel, the keys trusted to sign
// manifests, and the local backup/download working directories.
type UpdateConfig struct {
	Channel          string   `yaml:"channel" json:"channel"`
	ManifestURL      string   `yaml:"manifest_url" json:"manifest_url"`
	TrustedKeysHex   []string `yaml:"trusted_keys" json:"trusted_keys"`
	SignatureQuorum  int      `yaml:"signature_quorum" json:"signature_quorum"`
	BackupDirectory  string   `yaml:"backup_directory" json:"backup_directory"`
	MaxBackups       int      `yaml:"max_backups" json:"max_backups"`
	DownloadTempPath string   `yaml:"download_temp_path" json:"download_temp_path"`
}

// LoggingConfig controls the structured logger's level, encoding, and sink.
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`       // debug, info, warn, error
	Format   string `yaml:"format" json:"format"`     // json, text
	Output   string `yaml:"output" json:"output"`     // stdout, stderr, file path
	FilePath string `yaml:"file_path" json:"file_path"`
}

// MetricsConfig controls the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Port    int    `yaml:"port" json:"port"`
	Path    string `yaml:"path" json:"path"`
}

// HealthConfig controls the liveness/readiness HTTP endpoint.
type HealthConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Port    int    `yaml:"port" json:"port"`
	Path    string `yaml:"path" json:"path"`
}
