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
	"crypto/ed25519"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// sessionKeyLen is the size of the symmetric key handed to the transport
// layer for encrypting a session's data channel once QUIC parameters are
// negotiated; the QUIC connection itself is out of scope here (spec §4.6
// Non-goals).
const sessionKeyLen = 32

// DeriveSessionKey expands an X25519 shared secret (from Identity.DH) into
// a session-scoped symmetric key via HKDF-SHA256, salted with the session
// id so operator and device reuse of the same pairing's kex keys across
// sessions never reuses a key.
func DeriveSessionKey(sharedSecret []byte, sessionID [32]byte) ([]byte, error) {
	r := hkdf.New(sha256.New, sharedSecret, sessionID[:], []byte("zrc-session-key"))
	key := make([]byte, sessionKeyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

// VerifyRequest checks an operator's signed session Request against the
// operator's pairing-record signing key. This is the device side of
// StartSession's signing step; Engine itself only validates responses, so
// a device answering a request needs this counterpart.
func VerifyRequest(req *Request, operatorSignPub ed25519.PublicKey) bool {
	digest := sha256.Sum256(req.signableFields())
	return ed25519.Verify(operatorSignPub, digest[:], req.OperatorSignature[:])
}

// SignResponse builds and signs this device's reply to a verified
// Request, granting the given capabilities and transport parameters
// (spec §4.5's device-side counterpart to handle_response).
func SignResponse(self Signer, sessionID [32]byte, granted uint32, transport TransportParams, ticket IssuedTicket) *Response {
	resp := &Response{
		SessionID:           sessionID,
		GrantedCapabilities: granted,
		Transport:           transport,
		Ticket:              ticket,
	}
	digest := sha256.Sum256(resp.signableFields())
	copy(resp.DeviceSignature[:], self.Sign(digest[:]))
	return resp
}
