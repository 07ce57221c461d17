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
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zrc-project/zrc/internal/pairing"
	"github.com/zrc-project/zrc/internal/zrcerr"
)

var (
	pairSecretHex   string
	pairPerms       []string
	pairRequestFile string
	pairInviteFile  string
	pairYes         bool
)

var pairCmd = &cobra.Command{
	Use:   "pair",
	Short: "Pair with a device",
}

var pairImportCmd = &cobra.Command{
	Use:   "import <invite-file>",
	Short: "Import a device's invite and generate a pair request",
	Long: `Imports the invite written by the device's "invite create" step,
checks the given secret against the invite's hash, and signs a pair request
for the requested permissions. The request (hex-JSON) must reach the device
the same way the invite reached this operator; keep the invite file and
secret, both are needed again by "pair complete" once the device replies.`,
	Args: cobra.ExactArgs(1),
	RunE: runPairImport,
}

var pairCompleteCmd = &cobra.Command{
	Use:   "complete <receipt-json-file>",
	Short: "Verify a device's receipt, confirm the SAS, and store the pairing",
	Long: `Reconstructs the in-progress pairing attempt from the invite file,
secret, and request file produced by "pair import", verifies the device's
receipt, prints the short authentication string (SAS) for the operator to
compare verbally against the device's own display, and on confirmation
persists the resulting pairing record.`,
	Args: cobra.ExactArgs(1),
	RunE: runPairComplete,
}

func init() {
	rootCmd.AddCommand(pairCmd)
	pairCmd.AddCommand(pairImportCmd)
	pairCmd.AddCommand(pairCompleteCmd)

	pairImportCmd.Flags().StringVar(&pairSecretHex, "secret", "", "hex-encoded invite_secret relayed from the device (required)")
	pairImportCmd.Flags().StringSliceVar(&pairPerms, "perms", []string{"view"}, "permissions to request (view, control, clipboard, file_transfer, audio, unattended)")
	pairImportCmd.Flags().StringVarP(&pairRequestFile, "output", "o", "", "write the request JSON to this file (default: stdout)")
	_ = pairImportCmd.MarkFlagRequired("secret")

	pairCompleteCmd.Flags().StringVar(&pairSecretHex, "secret", "", "hex-encoded invite_secret, same value passed to \"pair import\" (required)")
	pairCompleteCmd.Flags().StringVar(&pairInviteFile, "invite-file", "", "the invite file passed to \"pair import\" (required)")
	pairCompleteCmd.Flags().StringVar(&pairRequestFile, "request-file", "", "the request JSON written by \"pair import\" (required)")
	pairCompleteCmd.Flags().BoolVar(&pairYes, "yes", false, "confirm the SAS non-interactively instead of prompting")
	_ = pairCompleteCmd.MarkFlagRequired("secret")
	_ = pairCompleteCmd.MarkFlagRequired("invite-file")
	_ = pairCompleteCmd.MarkFlagRequired("request-file")
}

func runPairImport(cmd *cobra.Command, args []string) error {
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

	inviteData, err := readFile(args[0])
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "read invite file", err)
	}

	eng := pairing.NewEngine(id)
	if err := eng.ImportInviteWithSecret(inviteData, secret); err != nil {
		return err
	}

	req, err := eng.GeneratePairRequest(secret, pairing.PermsFromNames(pairPerms))
	if err != nil {
		return err
	}

	out, err := pairing.EncodeRequestJSON(req)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "encode pair request", err)
	}
	if pairRequestFile != "" {
		if err := writeFile(pairRequestFile, out); err != nil {
			return zrcerr.Wrap(zrcerr.KindInternal, "write request file", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "request written to %s\n", pairRequestFile)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func runPairComplete(cmd *cobra.Command, args []string) error {
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
	inviteData, err := readFile(pairInviteFile)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "read invite file", err)
	}
	reqData, err := readFile(pairRequestFile)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "read request file", err)
	}
	req, err := pairing.DecodeRequestJSON(reqData)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "decode request file", err)
	}
	receiptData, err := readFile(args[0])
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "read receipt file", err)
	}
	receipt, err := pairing.DecodeReceiptJSON(receiptData)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "decode receipt file", err)
	}

	eng := pairing.NewEngine(id)
	if err := eng.Resume(inviteData, secret, req); err != nil {
		return err
	}

	sas, err := eng.HandleReceipt(receipt)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "SAS: %s\n", sas)

	confirmed := pairYes
	if !confirmed {
		fmt.Fprint(cmd.OutOrStdout(), "Does this match the device's display? [y/N]: ")
		reader := bufio.NewReader(cmd.InOrStdin())
		line, _ := reader.ReadString('\n')
		confirmed = strings.EqualFold(strings.TrimSpace(line), "y")
	}
	if !confirmed {
		eng.RejectSAS()
		return zrcerr.New(zrcerr.KindPermissionDenied, "pairing rejected: SAS mismatch")
	}

	rec, err := eng.ConfirmSAS()
	if err != nil {
		return err
	}

	store, err := buildPairingStore(context.Background(), cfg)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "open pairing store", err)
	}
	if err := store.Put(context.Background(), rec); err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "persist pairing record", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "paired with device %s, granted_perms=0x%02x\n",
		hex.EncodeToString(rec.DeviceID[:]), rec.GrantedPerms)
	return nil
}
