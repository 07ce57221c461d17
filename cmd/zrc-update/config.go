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

package main

import (
	"crypto/ed25519"
	"encoding/hex"
	"os"
	"runtime"

	"github.com/zrc-project/zrc/config"
	"github.com/zrc-project/zrc/internal/update"
	"github.com/zrc-project/zrc/internal/zrcerr"
)

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// trustedKeys decodes cfg.Update.TrustedKeysHex into ed25519 public keys.
func trustedKeys(cfg *config.Config) ([]ed25519.PublicKey, error) {
	keys := make([]ed25519.PublicKey, 0, len(cfg.Update.TrustedKeysHex))
	for _, h := range cfg.Update.TrustedKeysHex {
		raw, err := hex.DecodeString(h)
		if err != nil {
			return nil, zrcerr.New(zrcerr.KindInvalidInput, "trusted_keys entry is not hex: "+h)
		}
		if len(raw) != ed25519.PublicKeySize {
			return nil, zrcerr.New(zrcerr.KindInvalidInput, "trusted_keys entry has wrong length: "+h)
		}
		keys = append(keys, ed25519.PublicKey(raw))
	}
	return keys, nil
}

// buildVerifier wires cfg.Update's trusted keys and quorum into a
// Verifier scoped to the running binary's platform.
func buildVerifier(cfg *config.Config) (*update.Verifier, error) {
	keys, err := trustedKeys(cfg)
	if err != nil {
		return nil, err
	}
	quorum := cfg.Update.SignatureQuorum
	if quorum <= 0 {
		quorum = 1
	}
	platform := update.ExpectedPlatform(runtime.GOOS, runtime.GOARCH)
	return update.NewVerifier(keys, quorum, platform), nil
}

func buildRollbackManager(cfg *config.Config) *update.RollbackManager {
	maxBackups := cfg.Update.MaxBackups
	if maxBackups <= 0 {
		maxBackups = 3
	}
	return update.NewRollbackManager(cfg.Update.BackupDirectory, maxBackups)
}

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o600)
}

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
