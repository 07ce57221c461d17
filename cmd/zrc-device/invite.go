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
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zrc-project/zrc/internal/pairing"
	"github.com/zrc-project/zrc/internal/zrcerr"
)

var (
	inviteTTL     time.Duration
	inviteAddrs   []string
	inviteOutFile string
)

var inviteCmd = &cobra.Command{
	Use:   "invite",
	Short: "Manage pairing invites",
}

var inviteCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Generate a pairing invite and its one-time secret",
	Long: `Generates a fresh invite_secret and the Invite that binds to it. The
invite (base64-encoded wire bytes) is safe to share over a QR code or out-of-band
channel; the secret must reach the operator through a separate, lower-bandwidth
channel (spoken aloud, typed in) and is printed once here.`,
	RunE: runInviteCreate,
}

func init() {
	rootCmd.AddCommand(inviteCmd)
	inviteCmd.AddCommand(inviteCreateCmd)

	inviteCreateCmd.Flags().DurationVar(&inviteTTL, "ttl", pairing.DefaultInviteTTL, "how long the invite remains importable")
	inviteCreateCmd.Flags().StringSliceVar(&inviteAddrs, "direct-addr", nil, "direct connectivity hint (host:port), repeatable")
	inviteCreateCmd.Flags().StringVarP(&inviteOutFile, "output", "o", "", "write the base64-encoded invite to this file (default: stdout)")
}

func runInviteCreate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "load config", err)
	}
	id, err := loadIdentity(cfg)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "load identity", err)
	}

	hints := pairing.TransportHints{DirectAddrs: inviteAddrs}
	invite, secret, err := pairing.NewInvite(id, inviteTTL, hints)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "generate invite", err)
	}

	encoded := base64.StdEncoding.EncodeToString(invite.Encode())
	if inviteOutFile != "" {
		if err := writeFile(inviteOutFile, []byte(encoded+"\n")); err != nil {
			return zrcerr.Wrap(zrcerr.KindInternal, "write invite file", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "invite written to %s\n", inviteOutFile)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "invite:        %s\n", encoded)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "invite_secret: %s\n", hex.EncodeToString(secret))
	fmt.Fprintf(cmd.OutOrStdout(), "expires_at:    %d\n", invite.ExpiresAt)
	return nil
}
