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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zrc-project/zrc/internal/pairing"
	"github.com/zrc-project/zrc/internal/zrcerr"
)

var (
	pairSecretHex string
	pairPerms     []string
	pairOutFile   string
)

var pairCmd = &cobra.Command{
	Use:   "pair",
	Short: "Respond to an incoming pairing request",
}

var pairAcceptCmd = &cobra.Command{
	Use:   "accept <request-json-file>",
	Short: "Verify an operator's pair request and issue a signed receipt",
	Long: `Reads the hex-JSON pair request written by the operator's "pair import"
step, checks its invite_proof against the secret this device generated with
"invite create", and on success signs a receipt granting the given
permissions. The receipt (hex-JSON) must reach the operator the same way the
request reached this device.`,
	Args: cobra.ExactArgs(1),
	RunE: runPairAccept,
}

func init() {
	rootCmd.AddCommand(pairCmd)
	pairCmd.AddCommand(pairAcceptCmd)

	pairAcceptCmd.Flags().StringVar(&pairSecretHex, "secret", "", "hex-encoded invite_secret printed by \"invite create\" (required)")
	pairAcceptCmd.Flags().StringSliceVar(&pairPerms, "perms", []string{"view"}, "permissions to grant (view, control, clipboard, file_transfer, audio, unattended)")
	pairAcceptCmd.Flags().StringVarP(&pairOutFile, "output", "o", "", "write the receipt JSON to this file (default: stdout)")
	_ = pairAcceptCmd.MarkFlagRequired("secret")
}

func runPairAccept(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "load config", err)
	}
	id, err := loadIdentity(cfg)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "load identity", err)
	}

	secret, err := hex.DecodeString(pairSecretHex)
	if err != nil {
		return zrcerr.New(zrcerr.KindInvalidInput, "--secret must be hex-encoded")
	}

	data, err := readFile(args[0])
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "read request file", err)
	}
	req, err := pairing.DecodeRequestJSON(data)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "decode pair request", err)
	}

	if req.DeviceID != id.ID32() {
		return zrcerr.New(zrcerr.KindInvalidInput, "request is addressed to a different device")
	}
	if !pairing.VerifyPairRequest(req, secret) {
		return zrcerr.New(zrcerr.KindPermissionDenied, "invite proof does not match secret")
	}

	grantedPerms := pairing.PermsFromNames(pairPerms)
	if grantedPerms == 0 {
		return zrcerr.New(zrcerr.KindInvalidInput, "at least one known permission must be granted")
	}

	operatorID := sha256.Sum256(req.OperatorSignPub[:])
	receipt := pairing.SignReceipt(id, operatorID, grantedPerms)

	store, err := buildPairingStore(context.Background(), cfg)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "open pairing store", err)
	}
	rec := &pairing.Record{
		DeviceID:        id.ID32(),
		OperatorID:      operatorID,
		OperatorSignPub: req.OperatorSignPub,
		OperatorKexPub:  req.OperatorKexPub,
		GrantedPerms:    grantedPerms,
		PairedAt:        uint64(time.Now().Unix()),
	}
	copy(rec.DeviceSignPub[:], id.SignPub())
	copy(rec.DeviceKexPub[:], id.KexPub())
	if err := store.Put(context.Background(), rec); err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "persist pairing record", err)
	}

	out, err := pairing.EncodeReceiptJSON(receipt)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "encode receipt", err)
	}
	if pairOutFile != "" {
		if err := writeFile(pairOutFile, out); err != nil {
			return zrcerr.Wrap(zrcerr.KindInternal, "write receipt file", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "receipt written to %s\n", pairOutFile)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
