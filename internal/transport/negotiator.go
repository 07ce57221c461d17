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

// Package transport implements the transport negotiator (spec §4.6): a
// policy-filtered priority ladder over mesh, direct, rendezvous, and
// relay connectivity, plus the relay-token tie-break rule.
package transport

import (
	"sort"

	"github.com/zrc-project/zrc/internal/zrcerr"
)

// Kind is one of the four transport types, ordered by preference —
// lower is preferred (spec §4.6).
type Kind int

const (
	Mesh Kind = iota
	Direct
	Rendezvous
	Relay
)

func (k Kind) String() string {
	switch k {
	case Mesh:
		return "mesh"
	case Direct:
		return "direct"
	case Rendezvous:
		return "rendezvous"
	case Relay:
		return "relay"
	default:
		return "unknown"
	}
}

// Policy is an allow-set over the four transport kinds.
type Policy struct {
	Allowed map[Kind]bool
}

// AllowAll returns a policy with every transport kind permitted.
func AllowAll() Policy {
	return Policy{Allowed: map[Kind]bool{Mesh: true, Direct: true, Rendezvous: true, Relay: true}}
}

func (p Policy) allows(k Kind) bool {
	if p.Allowed == nil {
		return true
	}
	return p.Allowed[k]
}

// RelayToken is the subset of spec §3's relay token fields the
// negotiator needs to rank relay offers.
type RelayToken struct {
	ExpiresAt      uint64
	BandwidthLimit uint64
	Raw            []byte
}

// Offered is the peer-advertised set of transports to choose among.
type Offered struct {
	Mesh        bool
	Direct      bool
	Rendezvous  bool
	RelayTokens []RelayToken
}

// QUICSelection carries the chosen QUIC-capable transport's identifying
// detail (nothing beyond what the caller needs to proceed).
type QUICSelection struct {
	Kind Kind
}

// RelaySelection carries the relay+quic selection's chosen token.
type RelaySelection struct {
	Kind  Kind
	Token RelayToken
}

// Selected is the tagged result of negotiation. Exactly one of the
// pointer fields is non-nil.
type Selected struct {
	QUIC  *QUICSelection
	Relay *RelaySelection
}

// Negotiate applies the policy filter, then picks the highest-priority
// transport kind with availability. For relay, it ranks tokens with
// expires_at > now by greatest bandwidth_limit, ties broken by earliest
// expires_at (spec §4.6).
func Negotiate(policy Policy, offered Offered, now uint64) (*Selected, error) {
	type candidate struct {
		kind      Kind
		available bool
	}
	candidates := []candidate{
		{Mesh, offered.Mesh},
		{Direct, offered.Direct},
		{Rendezvous, offered.Rendezvous},
		{Relay, len(liveTokens(offered.RelayTokens, now)) > 0},
	}

	for _, c := range candidates {
		if !policy.allows(c.kind) || !c.available {
			continue
		}
		if c.kind == Relay {
			token, err := bestRelayToken(offered.RelayTokens, now)
			if err != nil {
				return nil, err
			}
			return &Selected{Relay: &RelaySelection{Kind: Relay, Token: token}}, nil
		}
		return &Selected{QUIC: &QUICSelection{Kind: c.kind}}, nil
	}

	return nil, zrcerr.New(zrcerr.KindTransport, "no compatible transport")
}

func liveTokens(tokens []RelayToken, now uint64) []RelayToken {
	var live []RelayToken
	for _, t := range tokens {
		if t.ExpiresAt > now {
			live = append(live, t)
		}
	}
	return live
}

func bestRelayToken(tokens []RelayToken, now uint64) (RelayToken, error) {
	live := liveTokens(tokens, now)
	if len(live) == 0 {
		return RelayToken{}, zrcerr.New(zrcerr.KindTransport, "no live relay token")
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].BandwidthLimit != live[j].BandwidthLimit {
			return live[i].BandwidthLimit > live[j].BandwidthLimit
		}
		return live[i].ExpiresAt < live[j].ExpiresAt
	})
	return live[0], nil
}
