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
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zrc-project/zrc/internal/pairing"
)

func TestRequestJSON_RoundTrip(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	var operatorID [32]byte
	copy(operatorID[:], pub)
	var deviceID [32]byte
	deviceID[0] = 0x20

	store := newPairedStore(t, deviceID, operatorID, CapView|CapControl)
	eng := NewEngine(store, &fakeSigner{id: operatorID, priv: priv}, nil)

	req, err := eng.StartSession(context.Background(), deviceIDHexOf(deviceID), Options{
		Capabilities: []string{"view", "control"},
	})
	require.NoError(t, err)

	data, err := EncodeRequestJSON(req)
	require.NoError(t, err)

	got, err := DecodeRequestJSON(data)
	require.NoError(t, err)
	require.Equal(t, req.SessionID, got.SessionID)
	require.Equal(t, req.RequestedCapabilities, got.RequestedCapabilities)
	require.Equal(t, req.OperatorSignature, got.OperatorSignature)
}

func TestResponseJSON_RoundTrip(t *testing.T) {
	devicePub, devicePriv, _ := ed25519.GenerateKey(nil)

	var sessionID [32]byte
	sessionID[0] = 0x21
	resp := &Response{
		SessionID:           sessionID,
		GrantedCapabilities: CapView,
		Transport: TransportParams{
			QUIC: QUICParams{
				Endpoints:     []string{"198.51.100.2:4433"},
				ServerCertDER: []byte("fake-cert-der"),
				ALPN:          []string{"zrc/1"},
			},
			RelayTokens: [][]byte{[]byte("token-a")},
		},
		Ticket: IssuedTicket{
			ExpiresAt: uint64(time.Now().Add(time.Hour).Unix()),
			Bytes:     []byte("ticket-bytes"),
		},
	}
	digest := sha256.Sum256(resp.signableFields())
	copy(resp.DeviceSignature[:], ed25519.Sign(devicePriv, digest[:]))

	data, err := EncodeResponseJSON(resp)
	require.NoError(t, err)

	got, err := DecodeResponseJSON(data)
	require.NoError(t, err)
	require.Equal(t, resp.SessionID, got.SessionID)
	require.Equal(t, resp.Transport.QUIC.Endpoints, got.Transport.QUIC.Endpoints)
	require.Equal(t, resp.Transport.QUIC.ServerCertDER, got.Transport.QUIC.ServerCertDER)
	require.Equal(t, resp.Ticket.Bytes, got.Ticket.Bytes)

	eng := NewEngine(pairing.NewMemoryStore(), &fakeSigner{}, nil)
	result, err := eng.HandleResponse(got, devicePub)
	require.NoError(t, err)
	require.Equal(t, "198.51.100.2", result.QUICHost)
}
