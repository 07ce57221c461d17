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
	"context"

	"github.com/zrc-project/zrc/config"
	"github.com/zrc-project/zrc/internal/identity"
	"github.com/zrc-project/zrc/internal/pairing"
	"github.com/zrc-project/zrc/internal/zrcerr"
)

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// loadIdentity opens this device's long-term identity, generating one on
// first run (spec §4.1 init).
func loadIdentity(cfg *config.Config) (*identity.Identity, error) {
	store := identity.NewFileKeyStore(cfg.Identity.KeyDirectory)
	return identity.Init(store)
}

// buildPairingStore wires cfg.Pairing.Backend to a concrete pairing.Store.
func buildPairingStore(ctx context.Context, cfg *config.Config) (pairing.Store, error) {
	switch cfg.Pairing.Backend {
	case "memory":
		return pairing.NewMemoryStore(), nil
	case "postgres":
		return pairing.NewPostgresStore(ctx, cfg.Pairing.DSN)
	case "file", "":
		return pairing.NewFileStore(cfg.Pairing.Path)
	default:
		return nil, zrcerr.New(zrcerr.KindInvalidInput, "unknown pairing backend: "+cfg.Pairing.Backend)
	}
}
