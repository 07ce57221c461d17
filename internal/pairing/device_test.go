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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeDevice is a minimal DeviceSigner for tests.
type fakeDevice struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
	id   [32]byte
}

func newFakeDevice() *fakeDevice {
	pub, priv, _ := ed25519.GenerateKey(nil)
	return &fakeDevice{pub: pub, priv: priv, id: sha256.Sum256(pub)}
}

func (d *fakeDevice) SignPub() ed25519.PublicKey { return d.pub }
func (d *fakeDevice) ID32() [32]byte             { return d.id }
func (d *fakeDevice) Sign(msg []byte) []byte     { return ed25519.Sign(d.priv, msg) }

// TestDeviceSide_FullRoundTripMatchesEngine runs S1 end to end: a device
// issues an invite, an operator engine imports it and builds a request,
// the device verifies and signs a receipt, and the operator's engine
// accepts it through to a pairing record.
func TestDeviceSide_FullRoundTripMatchesEngine(t *testing.T) {
	device := newFakeDevice()
	operator := newFakeOperator(4)

	invite, secret, err := NewInvite(device, DefaultInviteTTL, TransportHints{})
	require.NoError(t, err)

	eng := NewEngine(operator)
	require.NoError(t, eng.ImportInviteWithSecret(invite.Encode(), secret))

	req, err := eng.GeneratePairRequest(secret, PermView|PermControl)
	require.NoError(t, err)

	require.True(t, VerifyPairRequest(req, secret))

	// The engine identifies itself by self.ID32(), so the receipt's
	// operator_id must target that, not the request's random user_id.
	receipt := SignReceipt(device, operator.ID32(), PermView|PermControl)

	sas, err := eng.HandleReceipt(receipt)
	require.NoError(t, err)
	require.Len(t, sas, 6)

	rec, err := eng.ConfirmSAS()
	require.NoError(t, err)
	require.Equal(t, device.ID32(), rec.DeviceID)
	require.Equal(t, PermView|PermControl, rec.GrantedPerms)
}

func TestVerifyPairRequest_RejectsWrongSecret(t *testing.T) {
	device := newFakeDevice()
	operator := newFakeOperator(4)

	invite, secret, err := NewInvite(device, DefaultInviteTTL, TransportHints{})
	require.NoError(t, err)

	eng := NewEngine(operator)
	require.NoError(t, eng.ImportInviteWithSecret(invite.Encode(), secret))
	req, err := eng.GeneratePairRequest(secret, PermView)
	require.NoError(t, err)

	require.False(t, VerifyPairRequest(req, []byte("wrong-secret-wrong-secret-32by!")))
}

func TestNewInvite_ExpiresAtReflectsTTL(t *testing.T) {
	device := newFakeDevice()
	before := time.Now().Unix()
	invite, _, err := NewInvite(device, time.Minute, TransportHints{})
	require.NoError(t, err)
	require.InDelta(t, before+60, int64(invite.ExpiresAt), 2)
}
