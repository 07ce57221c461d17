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
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zrc-project/zrc/internal/pairing"
	"github.com/zrc-project/zrc/internal/zrcerr"
)

var (
	pairExportKeyHex    string
	pairImportBakKeyHex string
)

var pairExportCmd = &cobra.Command{
	Use:   "export <output-file>",
	Short: "Write this device's pairing records to an encrypted backup",
	Long: `Encrypts every pairing record in the configured pairing store under
--key (32 bytes, hex) with ChaCha20-Poly1305 and writes the sealed bundle to
<output-file>, for moving pairings across an untrusted channel (spec §6).`,
	Args: cobra.ExactArgs(1),
	RunE: runPairExport,
}

var pairImportBackupCmd = &cobra.Command{
	Use:   "import-backup <backup-file>",
	Short: "Load pairing records from an encrypted backup",
	Args:  cobra.ExactArgs(1),
	RunE:  runPairImportBackup,
}

func init() {
	pairCmd.AddCommand(pairExportCmd)
	pairCmd.AddCommand(pairImportBackupCmd)

	pairExportCmd.Flags().StringVar(&pairExportKeyHex, "key", "", "32-byte hex encryption key (required)")
	_ = pairExportCmd.MarkFlagRequired("key")

	pairImportBackupCmd.Flags().StringVar(&pairImportBakKeyHex, "key", "", "32-byte hex encryption key (required)")
	_ = pairImportBackupCmd.MarkFlagRequired("key")
}

func runPairExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "load config", err)
	}
	key, err := hex.DecodeString(pairExportKeyHex)
	if err != nil || len(key) != 32 {
		return zrcerr.New(zrcerr.KindInvalidInput, "--key must be 32 hex-encoded bytes")
	}
	store, err := buildPairingStore(context.Background(), cfg)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "open pairing store", err)
	}
	if err := pairing.ExportEncrypted(context.Background(), store, args[0], key); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "encrypted pairing backup written to %s\n", args[0])
	return nil
}

func runPairImportBackup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "load config", err)
	}
	key, err := hex.DecodeString(pairImportBakKeyHex)
	if err != nil || len(key) != 32 {
		return zrcerr.New(zrcerr.KindInvalidInput, "--key must be 32 hex-encoded bytes")
	}
	store, err := buildPairingStore(context.Background(), cfg)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "open pairing store", err)
	}
	n, err := pairing.ImportEncrypted(context.Background(), store, args[0], key)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "restored %d pairing record(s) from %s\n", n, args[0])
	return nil
}
