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
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zrc-project/zrc/internal/pairing"
)

type fakeSigner struct {
	id   [32]byte
	priv ed25519.PrivateKey
}

func (f *fakeSigner) ID32() [32]byte        { return f.id }
func (f *fakeSigner) Sign(msg []byte) []byte { return ed25519.Sign(f.priv, msg) }

type recordingReporter struct {
	calls int
}

func (r *recordingReporter) ReportPermissionEscalation(deviceID, operatorID [32]byte, requested, granted uint32) {
	r.calls++
}

func newPairedStore(t *testing.T, deviceID [32]byte, operatorID [32]byte, perms uint32) pairing.Store {
	t.Helper()
	store := pairing.NewMemoryStore()
	rec := &pairing.Record{
		DeviceID:     deviceID,
		OperatorID:   operatorID,
		GrantedPerms: perms,
	}
	require.NoError(t, store.Put(context.Background(), rec))
	return store
}

// TestSession_StartSession_HappyPath covers scenario S3: a session
// request for capabilities within the pairing's granted permissions.
func TestSession_StartSession_HappyPath(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	var operatorID [32]byte
	copy(operatorID[:], pub)
	var deviceID [32]byte
	deviceID[0] = 0x10

	store := newPairedStore(t, deviceID, operatorID, CapView|CapControl)
	eng := NewEngine(store, &fakeSigner{id: operatorID, priv: priv}, nil)

	req, err := eng.StartSession(context.Background(), deviceIDHexOf(deviceID), Options{
		Capabilities: []string{"view", "control"},
	})
	require.NoError(t, err)
	assert.Equal(t, CapView|CapControl, req.RequestedCapabilities)
	assert.Len(t, req.OperatorSignature, 64)
}

// TestSession_StartSession_EscalationIsDeniedAndReported covers the
// permission-escalation audit emission named in spec §4.5.
func TestSession_StartSession_EscalationIsDeniedAndReported(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	var operatorID [32]byte
	copy(operatorID[:], pub)
	var deviceID [32]byte
	deviceID[0] = 0x11

	store := newPairedStore(t, deviceID, operatorID, CapView)
	reporter := &recordingReporter{}
	eng := NewEngine(store, &fakeSigner{id: operatorID, priv: priv}, reporter)

	_, err := eng.StartSession(context.Background(), deviceIDHexOf(deviceID), Options{
		Capabilities: []string{"view", "control", "unattended"},
	})
	assert.Error(t, err)
	assert.Equal(t, 1, reporter.calls)
}

func TestSession_StartSession_NotPaired(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	var operatorID [32]byte
	copy(operatorID[:], pub)

	store := pairing.NewMemoryStore()
	eng := NewEngine(store, &fakeSigner{id: operatorID, priv: priv}, nil)

	_, err := eng.StartSession(context.Background(), "deadbeef", Options{Capabilities: []string{"view"}})
	assert.Error(t, err)
}

func TestSession_HandleResponse_HappyPath(t *testing.T) {
	devicePub, devicePriv, _ := ed25519.GenerateKey(nil)

	var sessionID [32]byte
	sessionID[0] = 0x99
	resp := &Response{
		SessionID:           sessionID,
		GrantedCapabilities: CapView,
		Transport: TransportParams{
			QUIC: QUICParams{
				Endpoints:     []string{"198.51.100.1:4433"},
				ServerCertDER: []byte("fake-cert-der"),
			},
		},
		Ticket: IssuedTicket{
			ExpiresAt: uint64(time.Now().Add(time.Hour).Unix()),
			Bytes:     []byte("ticket-bytes"),
		},
	}
	digest := sha256.Sum256(resp.signableFields())
	copy(resp.DeviceSignature[:], ed25519.Sign(devicePriv, digest[:]))

	eng := NewEngine(pairing.NewMemoryStore(), &fakeSigner{}, nil)
	result, err := eng.HandleResponse(resp, devicePub)
	require.NoError(t, err)
	assert.Equal(t, "198.51.100.1", result.QUICHost)
	assert.Equal(t, "4433", result.QUICPort)
	assert.Len(t, result.CertFingerprint, 32)

	sessions := eng.ListSessions()
	assert.Len(t, sessions, 1)

	eng.EndSession(sessionID)
	assert.Empty(t, eng.ListSessions())
}

func TestSession_HandleResponse_RejectsBadSignature(t *testing.T) {
	devicePub, _, _ := ed25519.GenerateKey(nil)
	_, otherPriv, _ := ed25519.GenerateKey(nil)

	var sessionID [32]byte
	sessionID[0] = 0x20
	resp := &Response{
		SessionID:           sessionID,
		GrantedCapabilities: CapView,
		Transport: TransportParams{
			QUIC: QUICParams{Endpoints: []string{"198.51.100.2:4433"}},
		},
		Ticket: IssuedTicket{ExpiresAt: uint64(time.Now().Add(time.Hour).Unix()), Bytes: []byte("x")},
	}
	digest := sha256.Sum256(resp.signableFields())
	copy(resp.DeviceSignature[:], ed25519.Sign(otherPriv, digest[:]))

	eng := NewEngine(pairing.NewMemoryStore(), &fakeSigner{}, nil)
	_, err := eng.HandleResponse(resp, devicePub)
	assert.Error(t, err)
}

func TestSession_HandleResponse_RejectsExplicitDenial(t *testing.T) {
	devicePub, devicePriv, _ := ed25519.GenerateKey(nil)

	var sessionID [32]byte
	sessionID[0] = 0x21
	resp := &Response{SessionID: sessionID}
	digest := sha256.Sum256(resp.signableFields())
	copy(resp.DeviceSignature[:], ed25519.Sign(devicePriv, digest[:]))

	eng := NewEngine(pairing.NewMemoryStore(), &fakeSigner{}, nil)
	_, err := eng.HandleResponse(resp, devicePub)
	assert.Error(t, err)
}

func TestCapabilitiesToMask(t *testing.T) {
	mask := CapabilitiesToMask([]string{"view", "clipboard", "unknown_cap"})
	assert.Equal(t, CapView|CapClipboard, mask)
}

func deviceIDHexOf(id [32]byte) string {
	return hex.EncodeToString(id[:])
}
