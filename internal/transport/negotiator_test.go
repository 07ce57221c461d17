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

package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNegotiate_PrefersMeshOverAll(t *testing.T) {
	offered := Offered{Mesh: true, Direct: true, Rendezvous: true}
	sel, err := Negotiate(AllowAll(), offered, 1000)
	require.NoError(t, err)
	require.NotNil(t, sel.QUIC)
	assert.Equal(t, Mesh, sel.QUIC.Kind)
}

func TestNegotiate_PolicyFilterExcludesMesh(t *testing.T) {
	offered := Offered{Mesh: true, Direct: true}
	policy := Policy{Allowed: map[Kind]bool{Direct: true, Rendezvous: true, Relay: true}}
	sel, err := Negotiate(policy, offered, 1000)
	require.NoError(t, err)
	require.NotNil(t, sel.QUIC)
	assert.Equal(t, Direct, sel.QUIC.Kind)
}

func TestNegotiate_NoCompatibleTransportFails(t *testing.T) {
	offered := Offered{Mesh: true}
	policy := Policy{Allowed: map[Kind]bool{Direct: true}}
	_, err := Negotiate(policy, offered, 1000)
	assert.Error(t, err)
}

func TestNegotiate_RelayPicksGreatestBandwidth(t *testing.T) {
	offered := Offered{
		RelayTokens: []RelayToken{
			{ExpiresAt: 5000, BandwidthLimit: 100},
			{ExpiresAt: 5000, BandwidthLimit: 500},
			{ExpiresAt: 2000, BandwidthLimit: 50}, // expired relative to now=3000
		},
	}
	sel, err := Negotiate(AllowAll(), offered, 3000)
	require.NoError(t, err)
	require.NotNil(t, sel.Relay)
	assert.Equal(t, uint64(500), sel.Relay.Token.BandwidthLimit)
}

func TestNegotiate_RelayTieBreaksOnEarliestExpiry(t *testing.T) {
	offered := Offered{
		RelayTokens: []RelayToken{
			{ExpiresAt: 9000, BandwidthLimit: 200},
			{ExpiresAt: 4000, BandwidthLimit: 200},
		},
	}
	sel, err := Negotiate(AllowAll(), offered, 1000)
	require.NoError(t, err)
	require.NotNil(t, sel.Relay)
	assert.Equal(t, uint64(4000), sel.Relay.Token.ExpiresAt)
}

func TestNegotiate_IgnoresExpiredRelayTokens(t *testing.T) {
	offered := Offered{
		RelayTokens: []RelayToken{{ExpiresAt: 500, BandwidthLimit: 999}},
	}
	_, err := Negotiate(AllowAll(), offered, 1000)
	assert.Error(t, err)
}
