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

// Package audit implements the append-only, optionally-signed event log
// covering pairing, session, and policy events (spec §4.8). Events never
// carry key material, invite secrets, tokens, or ticket bytes.
package audit

import (
	"time"

	"github.com/zrc-project/zrc/internal/wire"
)

// Type identifies one of the audit event kinds.
type Type uint32

const (
	TypePairingCompleted Type = iota + 1
	TypePairingFailed
	TypeSessionStarted
	TypePermissionEscalationAttempted
	TypeRelayAllocationCreated
	TypeRelayAllocationTerminated
	TypeUpdateVerified
	TypeUpdateRejected
)

func (t Type) String() string {
	switch t {
	case TypePairingCompleted:
		return "pairing_completed"
	case TypePairingFailed:
		return "pairing_failed"
	case TypeSessionStarted:
		return "session_started"
	case TypePermissionEscalationAttempted:
		return "permission_escalation_attempted"
	case TypeRelayAllocationCreated:
		return "relay_allocation_created"
	case TypeRelayAllocationTerminated:
		return "relay_allocation_terminated"
	case TypeUpdateVerified:
		return "update_verified"
	case TypeUpdateRejected:
		return "update_rejected"
	default:
		return "unknown"
	}
}

// Event is the tagged union of audit events. Exactly the fields
// relevant to Type are populated; all others are zero.
type Event struct {
	Type       Type
	Timestamp  uint64
	DeviceID   [32]byte
	OperatorID [32]byte
	HasOperatorID bool

	// PermissionEscalationAttempted
	Requested uint32
	Allowed   uint32

	// PairingFailed
	Reason string

	// RelayAllocation*
	AllocationID [16]byte

	// Update*
	Version string
	Detail  string

	Signature [64]byte
	Signed    bool
}

// NewEvent stamps an event with the supplied time now. Tests pass a
// fixed time to keep signable bytes deterministic.
func NewEvent(typ Type, deviceID [32]byte, now time.Time) Event {
	return Event{Type: typ, Timestamp: uint64(now.Unix()), DeviceID: deviceID}
}

// signableFields canonicalizes the event to
// type | timestamp_be64 | device_id[32] | operator_id[32 or empty] |
// type_specific_fields (spec §3 "Audit event").
func (e Event) signableFields() []byte {
	enc := wire.NewEncoder().
		U32(uint32(e.Type)).
		U64(e.Timestamp).
		Fixed(e.DeviceID[:])

	if e.HasOperatorID {
		enc = enc.Fixed(e.OperatorID[:])
	}

	switch e.Type {
	case TypePermissionEscalationAttempted:
		enc = enc.U32(e.Requested).U32(e.Allowed)
	case TypePairingFailed:
		enc = enc.String(e.Reason)
	case TypeRelayAllocationCreated, TypeRelayAllocationTerminated:
		enc = enc.Fixed(e.AllocationID[:]).String(e.Reason)
	case TypeUpdateVerified, TypeUpdateRejected:
		enc = enc.String(e.Version).String(e.Detail)
	}
	return enc.Finish()
}
