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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zrc-project/zrc/internal/pairing"
)

func TestDeviceSide_VerifyRequestAndSignResponse(t *testing.T) {
	operatorPub, operatorPriv, _ := ed25519.GenerateKey(nil)
	devicePub, devicePriv, _ := ed25519.GenerateKey(nil)

	var operatorID [32]byte
	copy(operatorID[:], operatorPub)
	var deviceID [32]byte
	deviceID[0] = 0x30

	store := newPairedStore(t, deviceID, operatorID, CapView|CapControl)
	operatorSigner := &fakeSigner{id: operatorID, priv: operatorPriv}
	opEng := NewEngine(store, operatorSigner, nil)

	req, err := opEng.StartSession(context.Background(), deviceIDHexOf(deviceID), Options{
		Capabilities: []string{"view"},
	})
	require.NoError(t, err)
	require.True(t, VerifyRequest(req, operatorPub))

	deviceSigner := &fakeSigner{id: deviceID, priv: devicePriv}
	resp := SignResponse(deviceSigner, req.SessionID, CapView, TransportParams{
		QUIC: QUICParams{Endpoints: []string{"203.0.113.9:4433"}, ServerCertDER: []byte("der")},
	}, IssuedTicket{})

	devEng := NewEngine(pairing.NewMemoryStore(), deviceSigner, nil)
	result, err := devEng.HandleResponse(resp, devicePub)
	require.NoError(t, err)
	require.Equal(t, "203.0.113.9", result.QUICHost)
}

func TestVerifyRequest_RejectsTamperedCapabilities(t *testing.T) {
	operatorPub, operatorPriv, _ := ed25519.GenerateKey(nil)
	var operatorID [32]byte
	copy(operatorID[:], operatorPub)
	var deviceID [32]byte
	deviceID[0] = 0x31

	store := newPairedStore(t, deviceID, operatorID, CapView)
	operatorSigner := &fakeSigner{id: operatorID, priv: operatorPriv}
	eng := NewEngine(store, operatorSigner, nil)

	req, err := eng.StartSession(context.Background(), deviceIDHexOf(deviceID), Options{Capabilities: []string{"view"}})
	require.NoError(t, err)

	req.RequestedCapabilities |= CapControl
	require.False(t, VerifyRequest(req, operatorPub))
}

func TestDeriveSessionKey_MatchesBothSidesAndVariesWithSession(t *testing.T) {
	shared := []byte("32-byte-x25519-ecdh-output-stub")
	var sessionA, sessionB [32]byte
	sessionA[0] = 0x01
	sessionB[0] = 0x02

	keyA1, err := DeriveSessionKey(shared, sessionA)
	require.NoError(t, err)
	keyA2, err := DeriveSessionKey(shared, sessionA)
	require.NoError(t, err)
	require.Equal(t, keyA1, keyA2)
	require.Len(t, keyA1, sessionKeyLen)

	keyB, err := DeriveSessionKey(shared, sessionB)
	require.NoError(t, err)
	require.NotEqual(t, keyA1, keyB)
}
