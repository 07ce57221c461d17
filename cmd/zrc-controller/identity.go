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
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zrc-project/zrc/internal/zrcerr"
)

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Inspect this operator's long-term identity",
}

var identityShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print this operator's identity, generating one on first run",
	RunE:  runIdentityShow,
}

func init() {
	rootCmd.AddCommand(identityCmd)
	identityCmd.AddCommand(identityShowCmd)
}

func runIdentityShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "load config", err)
	}

	id, err := loadIdentity(cfg)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "load identity", err)
	}

	pub := id.ExportPublic()
	fmt.Fprintf(cmd.OutOrStdout(), "operator_id: %s\n", hex.EncodeToString(pub.ID[:]))
	fmt.Fprintf(cmd.OutOrStdout(), "sign_pub:    %s\n", hex.EncodeToString(pub.SignPub))
	fmt.Fprintf(cmd.OutOrStdout(), "kex_pub:     %s\n", hex.EncodeToString(pub.KexPub))
	return nil
}
