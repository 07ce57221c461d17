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
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if strings.HasSuffix(path, ".json") {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file as JSON: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		// Fall back to JSON for a misnamed or extensionless file.
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config file (tried YAML and JSON): %w", err)
		}
	}

	setDefaults(cfg)
	return cfg, nil
}

// SaveToFile writes configuration to path, choosing the format by extension.
func SaveToFile(cfg *Config, path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// setDefaults fills in the values a fresh or partial config omits.
func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.Identity.KeyDirectory == "" {
		cfg.Identity.KeyDirectory = ".zrc/keys"
	}

	if cfg.Pairing.Backend == "" {
		cfg.Pairing.Backend = "file"
	}
	if cfg.Pairing.Path == "" {
		cfg.Pairing.Path = ".zrc/pairings.json"
	}

	if cfg.Relay.MaxAllocations == 0 {
		cfg.Relay.MaxAllocations = 4096
	}
	if cfg.Relay.IdleTimeout == 0 {
		cfg.Relay.IdleTimeout = 30 * time.Second
	}
	if cfg.Relay.SweepInterval == 0 {
		cfg.Relay.SweepInterval = 10 * time.Second
	}
	if cfg.Relay.AdminTokenEnv == "" {
		cfg.Relay.AdminTokenEnv = "ZRC_RELAY_ADMIN_TOKEN"
	}

	if cfg.Update.Channel == "" {
		cfg.Update.Channel = "stable"
	}
	if cfg.Update.SignatureQuorum == 0 {
		cfg.Update.SignatureQuorum = 1
	}
	if cfg.Update.BackupDirectory == "" {
		cfg.Update.BackupDirectory = ".zrc/backups"
	}
	if cfg.Update.MaxBackups == 0 {
		cfg.Update.MaxBackups = 3
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Health.Path == "" {
		cfg.Health.Path = "/healthz"
	}
}
