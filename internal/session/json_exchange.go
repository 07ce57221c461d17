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

package session

import (
	"encoding/hex"
	"encoding/json"

	"github.com/zrc-project/zrc/internal/zrcerr"
)

// requestJSON/responseJSON are the hex-encoded JSON interchange forms of
// Request/Response, the CLI-facing stand-in for send_session_request /
// wait_for_response (spec §4.5); the real transport is an external
// collaborator (§1 Non-goals).
type requestJSON struct {
	OperatorID            string `json:"operator_id"`
	DeviceID              string `json:"device_id"`
	SessionID             string `json:"session_id"`
	RequestedCapabilities uint32 `json:"requested_capabilities"`
	TransportPreference   string `json:"transport_preference"`
	OperatorSignature     string `json:"operator_signature"`
}

// EncodeRequestJSON renders req as interchange JSON.
func EncodeRequestJSON(req *Request) ([]byte, error) {
	rj := requestJSON{
		OperatorID:            hex.EncodeToString(req.OperatorID[:]),
		DeviceID:              hex.EncodeToString(req.DeviceID[:]),
		SessionID:             hex.EncodeToString(req.SessionID[:]),
		RequestedCapabilities: req.RequestedCapabilities,
		TransportPreference:   req.TransportPreference,
		OperatorSignature:     hex.EncodeToString(req.OperatorSignature[:]),
	}
	data, err := json.MarshalIndent(rj, "", "  ")
	if err != nil {
		return nil, zrcerr.Wrap(zrcerr.KindInternal, "marshal session request", err)
	}
	return data, nil
}

// DecodeRequestJSON parses the interchange JSON produced by
// EncodeRequestJSON.
func DecodeRequestJSON(data []byte) (*Request, error) {
	var rj requestJSON
	if err := json.Unmarshal(data, &rj); err != nil {
		return nil, zrcerr.Wrap(zrcerr.KindInvalidInput, "parse session request", err)
	}
	req := &Request{
		RequestedCapabilities: rj.RequestedCapabilities,
		TransportPreference:   rj.TransportPreference,
	}
	sig, err := hex.DecodeString(rj.OperatorSignature)
	if err != nil || len(sig) != 64 {
		return nil, zrcerr.New(zrcerr.KindInvalidInput, "malformed operator signature")
	}
	copy(req.OperatorSignature[:], sig)
	for _, f := range []struct {
		src string
		dst *[32]byte
	}{
		{rj.OperatorID, &req.OperatorID},
		{rj.DeviceID, &req.DeviceID},
		{rj.SessionID, &req.SessionID},
	} {
		b, err := hex.DecodeString(f.src)
		if err != nil || len(b) != 32 {
			return nil, zrcerr.New(zrcerr.KindInvalidInput, "malformed session request field")
		}
		copy(f.dst[:], b)
	}
	return req, nil
}

type responseJSON struct {
	SessionID           string   `json:"session_id"`
	GrantedCapabilities uint32   `json:"granted_capabilities"`
	QUICEndpoints       []string `json:"quic_endpoints"`
	QUICServerCertDER   string   `json:"quic_server_cert_der"`
	QUICALPN            []string `json:"quic_alpn"`
	RelayTokens         []string `json:"relay_tokens"`
	TicketExpiresAt     uint64   `json:"ticket_expires_at"`
	TicketBytes         string   `json:"ticket_bytes"`
	DeviceSignature     string   `json:"device_signature"`
}

// EncodeResponseJSON renders resp as interchange JSON.
func EncodeResponseJSON(resp *Response) ([]byte, error) {
	tokens := make([]string, 0, len(resp.Transport.RelayTokens))
	for _, t := range resp.Transport.RelayTokens {
		tokens = append(tokens, hex.EncodeToString(t))
	}
	rj := responseJSON{
		SessionID:           hex.EncodeToString(resp.SessionID[:]),
		GrantedCapabilities: resp.GrantedCapabilities,
		QUICEndpoints:       resp.Transport.QUIC.Endpoints,
		QUICServerCertDER:   hex.EncodeToString(resp.Transport.QUIC.ServerCertDER),
		QUICALPN:            resp.Transport.QUIC.ALPN,
		RelayTokens:         tokens,
		TicketExpiresAt:     resp.Ticket.ExpiresAt,
		TicketBytes:         hex.EncodeToString(resp.Ticket.Bytes),
		DeviceSignature:     hex.EncodeToString(resp.DeviceSignature[:]),
	}
	data, err := json.MarshalIndent(rj, "", "  ")
	if err != nil {
		return nil, zrcerr.Wrap(zrcerr.KindInternal, "marshal session response", err)
	}
	return data, nil
}

// DecodeResponseJSON parses the interchange JSON produced by
// EncodeResponseJSON.
func DecodeResponseJSON(data []byte) (*Response, error) {
	var rj responseJSON
	if err := json.Unmarshal(data, &rj); err != nil {
		return nil, zrcerr.Wrap(zrcerr.KindInvalidInput, "parse session response", err)
	}
	resp := &Response{
		GrantedCapabilities: rj.GrantedCapabilities,
		Transport: TransportParams{
			QUIC: QUICParams{
				Endpoints: rj.QUICEndpoints,
				ALPN:      rj.QUICALPN,
			},
		},
		Ticket: IssuedTicket{ExpiresAt: rj.TicketExpiresAt},
	}

	sessionID, err := hex.DecodeString(rj.SessionID)
	if err != nil || len(sessionID) != 32 {
		return nil, zrcerr.New(zrcerr.KindInvalidInput, "malformed session id")
	}
	copy(resp.SessionID[:], sessionID)

	sig, err := hex.DecodeString(rj.DeviceSignature)
	if err != nil || len(sig) != 64 {
		return nil, zrcerr.New(zrcerr.KindInvalidInput, "malformed device signature")
	}
	copy(resp.DeviceSignature[:], sig)

	if rj.QUICServerCertDER != "" {
		cert, err := hex.DecodeString(rj.QUICServerCertDER)
		if err != nil {
			return nil, zrcerr.New(zrcerr.KindInvalidInput, "malformed server cert")
		}
		resp.Transport.QUIC.ServerCertDER = cert
	}
	if rj.TicketBytes != "" {
		ticket, err := hex.DecodeString(rj.TicketBytes)
		if err != nil {
			return nil, zrcerr.New(zrcerr.KindInvalidInput, "malformed ticket bytes")
		}
		resp.Ticket.Bytes = ticket
	}
	for _, th := range rj.RelayTokens {
		tok, err := hex.DecodeString(th)
		if err != nil {
			return nil, zrcerr.New(zrcerr.KindInvalidInput, "malformed relay token")
		}
		resp.Transport.RelayTokens = append(resp.Transport.RelayTokens, tok)
	}
	return resp, nil
}
