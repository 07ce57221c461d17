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
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	cfg.Update.TrustedKeysHex = []string{"aa"}
	return cfg
}

func TestValidateConfiguration_AcceptsDefaults(t *testing.T) {
	issues := ValidateConfiguration(validConfig())
	for _, i := range issues {
		assert.NotEqual(t, "error", i.Level, "%s: %s", i.Field, i.Message)
	}
}

func TestValidateConfiguration_RejectsUnknownPairingBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Pairing.Backend = "bogus"
	issues := ValidateConfiguration(cfg)
	assert.Contains(t, fieldsOf(issues), "pairing.backend")
}

func TestValidateConfiguration_RequiresDSNForPostgresBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Pairing.Backend = "postgres"
	cfg.Pairing.DSN = ""
	issues := ValidateConfiguration(cfg)
	assert.Contains(t, fieldsOf(issues), "pairing.dsn")
}

func TestValidateConfiguration_RejectsZeroMaxAllocations(t *testing.T) {
	cfg := validConfig()
	cfg.Relay.MaxAllocations = 0
	issues := ValidateConfiguration(cfg)
	assert.Contains(t, fieldsOf(issues), "relay.max_allocations")
}

func TestValidateConfiguration_WarnsOnZeroIdleTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.Relay.IdleTimeout = 0
	issues := ValidateConfiguration(cfg)
	for _, i := range issues {
		if i.Field == "relay.idle_timeout" {
			assert.Equal(t, "warning", i.Level)
			return
		}
	}
	t.Fatal("expected a relay.idle_timeout issue")
}

func TestValidateConfiguration_RejectsUnknownUpdateChannel(t *testing.T) {
	cfg := validConfig()
	cfg.Update.Channel = "unstable"
	issues := ValidateConfiguration(cfg)
	assert.Contains(t, fieldsOf(issues), "update.channel")
}

func TestValidateConfiguration_RejectsQuorumExceedingTrustedKeyCount(t *testing.T) {
	cfg := validConfig()
	cfg.Update.SignatureQuorum = 3
	cfg.Update.TrustedKeysHex = []string{"aa"}
	issues := ValidateConfiguration(cfg)
	assert.Contains(t, fieldsOf(issues), "update.trusted_keys")
}

func fieldsOf(issues []ValidationIssue) []string {
	fields := make([]string, len(issues))
	for i, issue := range issues {
		fields[i] = issue.Field
	}
	return fields
}
