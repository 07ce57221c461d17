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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestJSON_RoundTrip(t *testing.T) {
	device := newFakeDevice()
	operator := newFakeOperator(7)

	invite, secret, err := NewInvite(device, DefaultInviteTTL, TransportHints{})
	require.NoError(t, err)

	eng := NewEngine(operator)
	require.NoError(t, eng.ImportInviteWithSecret(invite.Encode(), secret))
	req, err := eng.GeneratePairRequest(secret, PermView)
	require.NoError(t, err)

	data, err := EncodeRequestJSON(req)
	require.NoError(t, err)

	got, err := DecodeRequestJSON(data)
	require.NoError(t, err)
	require.Equal(t, req.UserID, got.UserID)
	require.Equal(t, req.InviteProof, got.InviteProof)
	require.Equal(t, req.RequestedPerms, got.RequestedPerms)
	require.True(t, VerifyPairRequest(got, secret))
}

func TestReceiptJSON_RoundTrip(t *testing.T) {
	device := newFakeDevice()
	operator := newFakeOperator(7)

	receipt := SignReceipt(device, operator.ID32(), PermView|PermControl)

	data, err := EncodeReceiptJSON(receipt)
	require.NoError(t, err)

	got, err := DecodeReceiptJSON(data)
	require.NoError(t, err)
	require.Equal(t, receipt.DeviceSignature, got.DeviceSignature)
	require.Equal(t, receipt.GrantedPerms, got.GrantedPerms)
}

func TestDecodeRequestJSON_RejectsMalformedField(t *testing.T) {
	_, err := DecodeRequestJSON([]byte(`{"user_id": "not-hex"}`))
	require.Error(t, err)
}
