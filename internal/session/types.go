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

// Package session implements the session-establishment engine (spec
// §4.5): mapping requested capability names to a permission bitmask,
// detecting escalation attempts against a pairing's granted permissions,
// and validating a device's signed session response.
package session

import "github.com/zrc-project/zrc/internal/wire"

// Capability bits reuse the pairing permission bitmask (spec §3): the
// session layer requests a subset of what a pairing already granted.
const (
	CapView         uint32 = 0x01
	CapControl      uint32 = 0x02
	CapClipboard    uint32 = 0x04
	CapFileTransfer uint32 = 0x08
	CapAudio        uint32 = 0x10
	CapUnattended   uint32 = 0x20
)

var capabilityNames = map[string]uint32{
	"view":          CapView,
	"control":       CapControl,
	"clipboard":     CapClipboard,
	"file_transfer": CapFileTransfer,
	"audio":         CapAudio,
	"unattended":    CapUnattended,
}

// CapabilitiesToMask maps capability name strings to the bitmask from
// §3's permission table. Unknown names are ignored rather than rejected,
// since the caller's options list may carry names the server doesn't
// recognize yet in a newer protocol version.
func CapabilitiesToMask(names []string) uint32 {
	var mask uint32
	for _, n := range names {
		mask |= capabilityNames[n]
	}
	return mask
}

// Request is the operator's signed session-establishment request.
type Request struct {
	OperatorID            [32]byte
	DeviceID              [32]byte
	SessionID             [32]byte
	RequestedCapabilities uint32
	TransportPreference   string
	OperatorSignature     [64]byte
}

func (r *Request) signableFields() []byte {
	return wire.NewEncoder().
		Fixed(r.OperatorID[:]).
		Fixed(r.DeviceID[:]).
		Fixed(r.SessionID[:]).
		U32(r.RequestedCapabilities).
		String(r.TransportPreference).
		Finish()
}

// QUICParams describes the endpoints a device offers for a session.
type QUICParams struct {
	Endpoints     []string
	ServerCertDER []byte
	ALPN          []string
}

// TransportParams wraps the transport options granted for a session.
type TransportParams struct {
	QUIC        QUICParams
	RelayTokens [][]byte
}

// IssuedTicket is the opaque, transport-agnostic reconnection ticket
// attached to a session response.
type IssuedTicket struct {
	ExpiresAt uint64
	Bytes     []byte
}

// Response is the device's signed reply to a Request.
type Response struct {
	SessionID           [32]byte
	GrantedCapabilities uint32
	Transport           TransportParams
	Ticket              IssuedTicket
	DeviceSignature     [64]byte
}

func (r *Response) signableFields() []byte {
	e := wire.NewEncoder().
		Fixed(r.SessionID[:]).
		U32(r.GrantedCapabilities).
		U32(uint32(len(r.Transport.QUIC.Endpoints)))
	for _, ep := range r.Transport.QUIC.Endpoints {
		e.String(ep)
	}
	e.Bytes(r.Transport.QUIC.ServerCertDER)
	e.U64(r.Ticket.ExpiresAt)
	e.Bytes(r.Ticket.Bytes)
	return e.Finish()
}

// InitResult is the caller-facing outcome of handling a session response
// (spec §4.5 handle_response).
type InitResult struct {
	SessionIDHex        string
	GrantedCapabilities uint32
	QUICHost            string
	QUICPort            string
	CertFingerprint     [32]byte
	TicketBytes         []byte
}

// ActiveSession is the in-process record kept by list_sessions/end_session.
type ActiveSession struct {
	SessionID           [32]byte
	DeviceID            [32]byte
	GrantedCapabilities uint32
	StartedAt           uint64
}
