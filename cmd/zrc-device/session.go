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
	"time"

	"github.com/spf13/cobra"

	"github.com/zrc-project/zrc/internal/session"
	"github.com/zrc-project/zrc/internal/zrcerr"
)

var (
	sessionQUICEndpoints []string
	sessionALPN          []string
	sessionCertFile      string
	sessionRelayTokens   []string
	sessionTicketTTL     time.Duration
	sessionOutFile       string
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Answer incoming session requests",
}

var sessionRespondCmd = &cobra.Command{
	Use:   "respond <request-json-file>",
	Short: "Verify an operator's session request and issue a signed response",
	Long: `Reads the hex-JSON session request written by the controller's
"session start" step, verifies its operator signature against the paired
operator's signing key, rejects it if it requests capabilities beyond what
this pairing grants, and signs a response carrying the transport
endpoints this device is prepared to serve the session over.`,
	Args: cobra.ExactArgs(1),
	RunE: runSessionRespond,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionRespondCmd)

	sessionRespondCmd.Flags().StringSliceVar(&sessionQUICEndpoints, "quic-endpoint", nil, "QUIC endpoint (host:port) to offer, repeatable")
	sessionRespondCmd.Flags().StringSliceVar(&sessionALPN, "alpn", []string{"zrc/1"}, "ALPN protocol list to offer")
	sessionRespondCmd.Flags().StringVar(&sessionCertFile, "server-cert-file", "", "path to this device's DER-encoded QUIC server certificate")
	sessionRespondCmd.Flags().StringSliceVar(&sessionRelayTokens, "relay-token", nil, "hex-encoded relay fallback token, repeatable")
	sessionRespondCmd.Flags().DurationVar(&sessionTicketTTL, "ticket-ttl", 0, "reconnection ticket lifetime; omit to issue no ticket")
	sessionRespondCmd.Flags().StringVarP(&sessionOutFile, "output", "o", "", "write the response JSON to this file (default: stdout)")
}

func runSessionRespond(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "load config", err)
	}
	id, err := loadIdentity(cfg)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "load identity", err)
	}

	data, err := readFile(args[0])
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "read request file", err)
	}
	req, err := session.DecodeRequestJSON(data)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "decode session request", err)
	}
	if req.DeviceID != id.ID32() {
		return zrcerr.New(zrcerr.KindInvalidInput, "request is addressed to a different device")
	}

	store, err := buildPairingStore(context.Background(), cfg)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "open pairing store", err)
	}
	rec, err := store.Get(context.Background(), hex.EncodeToString(id.ID32()[:]))
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindNotPaired, "this device is not paired", err)
	}
	if rec.OperatorID != req.OperatorID {
		return zrcerr.New(zrcerr.KindPermissionDenied, "request operator does not match the paired operator")
	}
	if !session.VerifyRequest(req, rec.OperatorSignPub[:]) {
		return zrcerr.New(zrcerr.KindAuthentication, "session request signature invalid")
	}
	if err := session.ValidateGrantedCapabilities(req.RequestedCapabilities, rec.GrantedPerms); err != nil {
		return err
	}

	var certDER []byte
	if sessionCertFile != "" {
		certDER, err = readFile(sessionCertFile)
		if err != nil {
			return zrcerr.Wrap(zrcerr.KindInvalidInput, "read server cert file", err)
		}
	}
	relayTokens := make([][]byte, 0, len(sessionRelayTokens))
	for _, th := range sessionRelayTokens {
		tok, err := hex.DecodeString(th)
		if err != nil {
			return zrcerr.New(zrcerr.KindInvalidInput, "--relay-token must be hex-encoded")
		}
		relayTokens = append(relayTokens, tok)
	}

	var ticket session.IssuedTicket
	if sessionTicketTTL > 0 {
		ticket.ExpiresAt = uint64(time.Now().Add(sessionTicketTTL).Unix())
		ticket.Bytes = req.SessionID[:]
	}

	resp := session.SignResponse(id, req.SessionID, req.RequestedCapabilities, session.TransportParams{
		QUIC: session.QUICParams{
			Endpoints:     sessionQUICEndpoints,
			ServerCertDER: certDER,
			ALPN:          sessionALPN,
		},
		RelayTokens: relayTokens,
	}, ticket)

	shared, err := id.DH(rec.OperatorKexPub[:])
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindAuthentication, "derive session shared secret", err)
	}
	sessionKey, err := session.DeriveSessionKey(shared, req.SessionID)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "derive session key", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "session_key_fp: %s\n", fingerprintOf(sessionKey))

	out, err := session.EncodeResponseJSON(resp)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "encode session response", err)
	}
	if sessionOutFile != "" {
		if err := writeFile(sessionOutFile, out); err != nil {
			return zrcerr.Wrap(zrcerr.KindInternal, "write response file", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "response written to %s\n", sessionOutFile)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
