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

package pairing

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOperator is a minimal Signer for tests, independent of
// internal/identity so this package has no import cycle risk.
type fakeOperator struct {
	signPub ed25519.PublicKey
	kexPub  [32]byte
	id      [32]byte
}

func newFakeOperator(seed byte) *fakeOperator {
	pub, _, _ := ed25519.GenerateKey(nil)
	op := &fakeOperator{signPub: pub}
	for i := range op.kexPub {
		op.kexPub[i] = seed
	}
	op.id = sha256.Sum256(pub)
	return op
}

func (o *fakeOperator) SignPub() ed25519.PublicKey { return o.signPub }
func (o *fakeOperator) KexPub() []byte             { return o.kexPub[:] }
func (o *fakeOperator) ID32() [32]byte             { return o.id }

// buildInvite constructs a device invite and returns its signing key so
// the test can act as the device side of the exchange.
func buildInvite(t *testing.T, deviceID [32]byte, secret []byte, expiresIn time.Duration) (*Invite, ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	devicePub, devicePriv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	var signPub [32]byte
	copy(signPub[:], devicePub)

	inv := &Invite{
		DeviceID:         deviceID,
		DeviceSignPub:    signPub,
		InviteSecretHash: sha256.Sum256(secret),
		ExpiresAt:        uint64(time.Now().Add(expiresIn).Unix()),
	}
	return inv, devicePub, devicePriv
}

// deviceReceipt acts as the device side: verifies the request's proof and
// signs a receipt granting perms.
func deviceReceipt(devicePriv ed25519.PrivateKey, operatorID [32]byte, deviceID [32]byte, perms uint32) *PairReceipt {
	r := &PairReceipt{
		OperatorID:   operatorID,
		DeviceID:     deviceID,
		GrantedPerms: perms,
	}
	digest := sha256.Sum256(r.signableFields())
	sig := ed25519.Sign(devicePriv, digest[:])
	copy(r.DeviceSignature[:], sig)
	return r
}

// TestPairing_HappyPath covers scenario S1 from the specification.
func TestPairing_HappyPath(t *testing.T) {
	var deviceID [32]byte
	for i := range deviceID {
		deviceID[i] = 0x01
	}
	secret := make([]byte, 32)
	for i := range secret {
		secret[i] = 0xAA
	}

	inv, _, devicePriv := buildInvite(t, deviceID, secret, time.Hour)
	operator := newFakeOperator(0x04)
	eng := NewEngine(operator)

	require.NoError(t, eng.ImportInvite(inv.Encode()))
	assert.Equal(t, StateInviteImported, eng.State())

	req, err := eng.GeneratePairRequest(secret, PermView|PermControl)
	require.NoError(t, err)
	assert.Equal(t, StateRequestSent, eng.State())

	receipt := deviceReceipt(devicePriv, operator.ID32(), deviceID, req.RequestedPerms)

	sas, err := eng.HandleReceipt(receipt)
	require.NoError(t, err)
	assert.Len(t, sas, 6)
	assert.Equal(t, StateAwaitingSAS, eng.State())

	rec, err := eng.ConfirmSAS()
	require.NoError(t, err)
	assert.Equal(t, StatePaired, eng.State())
	assert.Equal(t, PermView|PermControl, rec.GrantedPerms)
	assert.True(t, rec.Valid())
}

func TestPairing_RejectSASTransitionsToFailed(t *testing.T) {
	var deviceID [32]byte
	deviceID[0] = 0x02
	secret := []byte("a-secret-that-is-32-bytes-long!!")

	inv, _, devicePriv := buildInvite(t, deviceID, secret, time.Hour)
	operator := newFakeOperator(0x09)
	eng := NewEngine(operator)

	require.NoError(t, eng.ImportInvite(inv.Encode()))
	req, err := eng.GeneratePairRequest(secret, PermView)
	require.NoError(t, err)

	receipt := deviceReceipt(devicePriv, operator.ID32(), deviceID, req.RequestedPerms)
	_, err = eng.HandleReceipt(receipt)
	require.NoError(t, err)

	eng.RejectSAS()
	assert.Equal(t, StateFailed, eng.State())
	assert.Equal(t, "user", eng.FailReason())
}

func TestPairing_ReceiptWithNoPermissionsFails(t *testing.T) {
	var deviceID [32]byte
	deviceID[0] = 0x03
	secret := []byte("another-32-byte-secret-value!!!!")

	inv, _, devicePriv := buildInvite(t, deviceID, secret, time.Hour)
	operator := newFakeOperator(0x0a)
	eng := NewEngine(operator)

	require.NoError(t, eng.ImportInvite(inv.Encode()))
	_, err := eng.GeneratePairRequest(secret, PermView)
	require.NoError(t, err)

	receipt := deviceReceipt(devicePriv, operator.ID32(), deviceID, 0)
	_, err = eng.HandleReceipt(receipt)
	require.NoError(t, err)

	_, err = eng.ConfirmSAS()
	assert.Error(t, err)
	assert.Equal(t, StateFailed, eng.State())
}

func TestPairing_BadDeviceSignatureIsRejected(t *testing.T) {
	var deviceID [32]byte
	deviceID[0] = 0x05
	secret := []byte("yet-another-32-byte-secret-here!")

	inv, _, _ := buildInvite(t, deviceID, secret, time.Hour)
	_, otherPriv, _ := ed25519.GenerateKey(nil) // wrong signing key
	operator := newFakeOperator(0x0b)
	eng := NewEngine(operator)

	require.NoError(t, eng.ImportInvite(inv.Encode()))
	req, err := eng.GeneratePairRequest(secret, PermView)
	require.NoError(t, err)

	receipt := deviceReceipt(otherPriv, operator.ID32(), deviceID, req.RequestedPerms)
	_, err = eng.HandleReceipt(receipt)
	assert.Error(t, err)
	assert.Equal(t, StateFailed, eng.State())
}

func TestPairing_ImportInviteRejectsExpired(t *testing.T) {
	var deviceID [32]byte
	deviceID[0] = 0x06
	secret := []byte("expired-invite-secret-32-bytes!!")

	inv, _, _ := buildInvite(t, deviceID, secret, -time.Hour)
	operator := newFakeOperator(0x0c)
	eng := NewEngine(operator)

	err := eng.ImportInvite(inv.Encode())
	assert.Error(t, err)
	assert.Equal(t, StateIdle, eng.State())
}

func TestPairing_ImportInviteWithSecretChecksHash(t *testing.T) {
	var deviceID [32]byte
	deviceID[0] = 0x07
	secret := []byte("correct-secret-that-is-32-bytes!")
	wrongSecret := []byte("wrong-secret-that-is-32-bytes!!!")

	inv, _, _ := buildInvite(t, deviceID, secret, time.Hour)
	operator := newFakeOperator(0x0d)
	eng := NewEngine(operator)

	err := eng.ImportInviteWithSecret(inv.Encode(), wrongSecret)
	assert.Error(t, err)
	assert.Equal(t, StateFailed, eng.State())
}

func TestPairing_ResetReturnsToIdle(t *testing.T) {
	var deviceID [32]byte
	deviceID[0] = 0x08
	secret := []byte("reset-test-secret-32-bytes-long!")

	inv, _, _ := buildInvite(t, deviceID, secret, time.Hour)
	operator := newFakeOperator(0x0e)
	eng := NewEngine(operator)

	require.NoError(t, eng.ImportInvite(inv.Encode()))
	eng.Reset()
	assert.Equal(t, StateIdle, eng.State())
}

// TestPairing_ImportInviteAcceptsBase64 covers the base64-flavor
// fallback chain from spec §6.
func TestPairing_ImportInviteAcceptsBase64(t *testing.T) {
	var deviceID [32]byte
	deviceID[0] = 0x09
	secret := []byte("base64-path-secret-32-bytes-long")

	inv, _, _ := buildInvite(t, deviceID, secret, time.Hour)
	operator := newFakeOperator(0x0f)
	eng := NewEngine(operator)

	encoded := []byte(base64.StdEncoding.EncodeToString(inv.Encode()))
	require.NoError(t, eng.ImportInvite(encoded))
	assert.Equal(t, StateInviteImported, eng.State())
}

// TestEngine_ResumeReconstructsRequestSent covers the cross-process
// checkpoint a CLI needs between generating a request and handling the
// eventual receipt.
func TestEngine_ResumeReconstructsRequestSent(t *testing.T) {
	var deviceID [32]byte
	deviceID[0] = 0x10
	secret := []byte("resume-test-secret-32-bytes-long")

	inv, _, devicePriv := buildInvite(t, deviceID, secret, time.Hour)
	operator := newFakeOperator(0x11)

	original := NewEngine(operator)
	require.NoError(t, original.ImportInviteWithSecret(inv.Encode(), secret))
	req, err := original.GeneratePairRequest(secret, PermView|PermControl)
	require.NoError(t, err)

	resumed := NewEngine(operator)
	require.NoError(t, resumed.Resume(inv.Encode(), secret, req))
	assert.Equal(t, StateRequestSent, resumed.State())

	receipt := &PairReceipt{OperatorID: operator.ID32(), DeviceID: deviceID, GrantedPerms: PermView}
	digest := sha256.Sum256(receipt.signableFields())
	copy(receipt.DeviceSignature[:], ed25519.Sign(devicePriv, digest[:]))

	sas, err := resumed.HandleReceipt(receipt)
	require.NoError(t, err)
	assert.NotEmpty(t, sas)
}

func TestEngine_ResumeRejectsWrongSecret(t *testing.T) {
	var deviceID [32]byte
	deviceID[0] = 0x12
	secret := []byte("resume-wrong-secret-32-bytes-lon")

	inv, _, _ := buildInvite(t, deviceID, secret, time.Hour)
	operator := newFakeOperator(0x13)

	original := NewEngine(operator)
	require.NoError(t, original.ImportInviteWithSecret(inv.Encode(), secret))
	req, err := original.GeneratePairRequest(secret, PermView)
	require.NoError(t, err)

	resumed := NewEngine(operator)
	err = resumed.Resume(inv.Encode(), []byte("totally-different-32-byte-secret"), req)
	assert.Error(t, err)
}
