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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zrc-project/zrc/internal/session"
	"github.com/zrc-project/zrc/internal/zrcerr"
)

var (
	sessionCaps          []string
	sessionTransportPref string
	sessionRequestFile   string
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Start and manage sessions against paired devices",
}

var sessionStartCmd = &cobra.Command{
	Use:   "start <device-id-hex>",
	Short: "Request a session against a paired device",
	Long: `Looks up the pairing for the given device, checks the requested
capabilities against what that pairing grants, and signs a session request
(spec §4.5). The request (hex-JSON) must reach the device the same way a
pairing request did.`,
	Args: cobra.ExactArgs(1),
	RunE: runSessionStart,
}

var sessionHandleCmd = &cobra.Command{
	Use:   "handle <response-json-file>",
	Short: "Validate a device's session response and print connection parameters",
	Long: `Verifies the response's device signature against the device's pairing
record and prints the negotiated QUIC connection parameters. --device must
name the same device passed to "session start".`,
	Args: cobra.ExactArgs(1),
	RunE: runSessionHandle,
}

var sessionHandleDeviceHex string

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionStartCmd)
	sessionCmd.AddCommand(sessionHandleCmd)

	sessionStartCmd.Flags().StringSliceVar(&sessionCaps, "caps", []string{"view"}, "capabilities to request (view, control, clipboard, file_transfer, audio, unattended)")
	sessionStartCmd.Flags().StringVar(&sessionTransportPref, "transport", "", "preferred transport hint (mesh, direct, rendezvous, relay)")
	sessionStartCmd.Flags().StringVarP(&sessionRequestFile, "output", "o", "", "write the request JSON to this file (default: stdout)")

	sessionHandleCmd.Flags().StringVar(&sessionHandleDeviceHex, "device", "", "hex device id this response came from (required)")
	_ = sessionHandleCmd.MarkFlagRequired("device")
}

func runSessionStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "load config", err)
	}
	id, err := loadIdentity(cfg)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "load identity", err)
	}
	store, err := buildPairingStore(context.Background(), cfg)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "open pairing store", err)
	}

	eng := session.NewEngine(store, id, nil)
	req, err := eng.StartSession(context.Background(), args[0], session.Options{
		Capabilities:        sessionCaps,
		TransportPreference: sessionTransportPref,
	})
	if err != nil {
		return err
	}

	out, err := session.EncodeRequestJSON(req)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "encode session request", err)
	}
	if sessionRequestFile != "" {
		if err := writeFile(sessionRequestFile, out); err != nil {
			return zrcerr.Wrap(zrcerr.KindInternal, "write request file", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "request written to %s\n", sessionRequestFile)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func runSessionHandle(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "load config", err)
	}
	id, err := loadIdentity(cfg)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "load identity", err)
	}
	store, err := buildPairingStore(context.Background(), cfg)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "open pairing store", err)
	}

	data, err := readFile(args[0])
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "read response file", err)
	}
	resp, err := session.DecodeResponseJSON(data)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "decode session response", err)
	}

	rec, err := store.Get(context.Background(), sessionHandleDeviceHex)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindNotPaired, "device not paired: "+sessionHandleDeviceHex, err)
	}
	if rec.OperatorID != id.ID32() {
		return zrcerr.New(zrcerr.KindPermissionDenied, "pairing record belongs to a different operator")
	}
	devicePub := append([]byte(nil), rec.DeviceSignPub[:]...)

	eng := session.NewEngine(store, id, nil)
	result, err := eng.HandleResponse(resp, devicePub)
	if err != nil {
		return err
	}

	shared, err := id.DH(rec.DeviceKexPub[:])
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindAuthentication, "derive session shared secret", err)
	}
	sessionKey, err := session.DeriveSessionKey(shared, resp.SessionID)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "derive session key", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "session_id:     %s\n", result.SessionIDHex)
	fmt.Fprintf(cmd.OutOrStdout(), "granted:        0x%02x\n", result.GrantedCapabilities)
	fmt.Fprintf(cmd.OutOrStdout(), "quic_host:      %s\n", result.QUICHost)
	fmt.Fprintf(cmd.OutOrStdout(), "quic_port:      %s\n", result.QUICPort)
	fmt.Fprintf(cmd.OutOrStdout(), "session_key_fp: %s\n", fingerprintOf(sessionKey))
	return nil
}
