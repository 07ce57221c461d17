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
	"regexp"
	"strings"
)

// envVarPattern matches ${VAR} or ${VAR:default}.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// SubstituteEnvVars replaces ${VAR} or ${VAR:default} with environment
// variable values.
func SubstituteEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultValue := ""
		if len(parts) > 2 {
			defaultValue = parts[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// SubstituteEnvVarsInConfig recursively substitutes environment variables
// across every string-valued config field that plausibly holds a path,
// URL, DSN, or key material reference.
func SubstituteEnvVarsInConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Identity.KeyDirectory = SubstituteEnvVars(cfg.Identity.KeyDirectory)
	cfg.Identity.PassphraseEnv = SubstituteEnvVars(cfg.Identity.PassphraseEnv)

	cfg.Pairing.Backend = SubstituteEnvVars(cfg.Pairing.Backend)
	cfg.Pairing.Path = SubstituteEnvVars(cfg.Pairing.Path)
	cfg.Pairing.DSN = SubstituteEnvVars(cfg.Pairing.DSN)

	cfg.Relay.RelayIDHex = SubstituteEnvVars(cfg.Relay.RelayIDHex)
	cfg.Relay.IssuerPublicKey = SubstituteEnvVars(cfg.Relay.IssuerPublicKey)
	cfg.Relay.AdminListenAddr = SubstituteEnvVars(cfg.Relay.AdminListenAddr)

	cfg.Update.Channel = SubstituteEnvVars(cfg.Update.Channel)
	cfg.Update.ManifestURL = SubstituteEnvVars(cfg.Update.ManifestURL)
	cfg.Update.BackupDirectory = SubstituteEnvVars(cfg.Update.BackupDirectory)
	cfg.Update.DownloadTempPath = SubstituteEnvVars(cfg.Update.DownloadTempPath)
	for i, key := range cfg.Update.TrustedKeysHex {
		cfg.Update.TrustedKeysHex[i] = SubstituteEnvVars(key)
	}

	cfg.Logging.Level = SubstituteEnvVars(cfg.Logging.Level)
	cfg.Logging.Format = SubstituteEnvVars(cfg.Logging.Format)
	cfg.Logging.Output = SubstituteEnvVars(cfg.Logging.Output)
	cfg.Logging.FilePath = SubstituteEnvVars(cfg.Logging.FilePath)

	cfg.Health.Path = SubstituteEnvVars(cfg.Health.Path)
	cfg.Metrics.Path = SubstituteEnvVars(cfg.Metrics.Path)
}

// GetEnvironment returns the current environment from ZRC_ENV or
// ENVIRONMENT, defaulting to "development".
func GetEnvironment() string {
	env := os.Getenv("ZRC_ENV")
	if env == "" {
		env = os.Getenv("ENVIRONMENT")
	}
	if env == "" {
		env = "development"
	}
	return strings.ToLower(env)
}

// IsProduction reports whether GetEnvironment is "production".
func IsProduction() bool {
	return GetEnvironment() == "production"
}

// IsDevelopment reports whether GetEnvironment is "development" or "local".
func IsDevelopment() bool {
	env := GetEnvironment()
	return env == "development" || env == "local"
}
