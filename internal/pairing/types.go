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

// Package pairing implements the invite-bootstrapped trust relationship
// between an operator identity and a device identity: the five-state
// pairing engine, the invite/request/receipt wire types, and the pairing
// record store (spec §4.3, §4.4).
package pairing

import "github.com/zrc-project/zrc/internal/wire"

// Permission bits, per spec §3.
const (
	PermView         uint32 = 0x01
	PermControl      uint32 = 0x02
	PermClipboard    uint32 = 0x04
	PermFileTransfer uint32 = 0x08
	PermAudio        uint32 = 0x10
	PermUnattended   uint32 = 0x20
)

var permNames = map[string]uint32{
	"view":          PermView,
	"control":       PermControl,
	"clipboard":     PermClipboard,
	"file_transfer": PermFileTransfer,
	"audio":         PermAudio,
	"unattended":    PermUnattended,
}

// PermsFromNames maps permission name strings to the bitmask from §3's
// permission table, mirroring internal/session's CapabilitiesToMask.
// Unknown names are ignored rather than rejected.
func PermsFromNames(names []string) uint32 {
	var mask uint32
	for _, n := range names {
		mask |= permNames[n]
	}
	return mask
}

// Invite is issued by a device and delivered out of band (QR, manual
// entry, file). invite_secret itself never appears on the wire; only its
// hash does.
type Invite struct {
	DeviceID         [32]byte
	DeviceSignPub    [32]byte
	InviteSecretHash [32]byte
	ExpiresAt        uint64
	TransportHints   TransportHints
}

// TransportHints carries optional connectivity hints embedded in an
// invite.
type TransportHints struct {
	DirectAddrs    []string
	RendezvousURLs []string
	MeshHints      []string
	RelayTokens    [][]byte
}

// Encode renders the invite in the canonical wire format.
func (inv *Invite) Encode() []byte {
	e := wire.NewEncoder().
		Fixed(inv.DeviceID[:]).
		Fixed(inv.DeviceSignPub[:]).
		Fixed(inv.InviteSecretHash[:]).
		U64(inv.ExpiresAt).
		U32(uint32(len(inv.TransportHints.DirectAddrs)))
	for _, a := range inv.TransportHints.DirectAddrs {
		e.String(a)
	}
	e.U32(uint32(len(inv.TransportHints.RendezvousURLs)))
	for _, u := range inv.TransportHints.RendezvousURLs {
		e.String(u)
	}
	e.U32(uint32(len(inv.TransportHints.MeshHints)))
	for _, h := range inv.TransportHints.MeshHints {
		e.String(h)
	}
	e.U32(uint32(len(inv.TransportHints.RelayTokens)))
	for _, t := range inv.TransportHints.RelayTokens {
		e.Bytes(t)
	}
	return e.Finish()
}

// DecodeInvite parses the canonical wire format produced by Encode,
// validating every fixed-size field per spec §4.3 import_invite.
func DecodeInvite(b []byte) (*Invite, error) {
	d := wire.NewDecoder(b)
	inv := &Invite{}

	deviceID, err := wire.Bytes32(d.Fixed(32))
	if err != nil {
		return nil, err
	}
	signPub, err := wire.Bytes32(d.Fixed(32))
	if err != nil {
		return nil, err
	}
	secretHash, err := wire.Bytes32(d.Fixed(32))
	if err != nil {
		return nil, err
	}
	inv.DeviceID = deviceID
	inv.DeviceSignPub = signPub
	inv.InviteSecretHash = secretHash
	inv.ExpiresAt = d.U64()

	n := d.U32()
	for i := uint32(0); i < n; i++ {
		inv.TransportHints.DirectAddrs = append(inv.TransportHints.DirectAddrs, d.String())
	}
	n = d.U32()
	for i := uint32(0); i < n; i++ {
		inv.TransportHints.RendezvousURLs = append(inv.TransportHints.RendezvousURLs, d.String())
	}
	n = d.U32()
	for i := uint32(0); i < n; i++ {
		inv.TransportHints.MeshHints = append(inv.TransportHints.MeshHints, d.String())
	}
	n = d.U32()
	for i := uint32(0); i < n; i++ {
		inv.TransportHints.RelayTokens = append(inv.TransportHints.RelayTokens, d.Bytes())
	}

	if d.Err() != nil {
		return nil, d.Err()
	}
	return inv, nil
}

// PairRequest is the canonical-encoded request an operator sends a device
// after importing its invite.
type PairRequest struct {
	UserID          [32]byte
	OperatorSignPub [32]byte
	OperatorKexPub  [32]byte
	DeviceID        [32]byte
	RequestedPerms  uint32
	CreatedAt       uint64
	InviteProof     [32]byte // HMAC-SHA256(secret, proof_input)
}

// proofInput returns the canonical bytes HMAC'd to produce InviteProof:
// {user_id, op_sign_pub, op_kex_pub, device_id, created_at}.
func (r *PairRequest) proofInput() []byte {
	return wire.NewEncoder().
		Fixed(r.UserID[:]).
		Fixed(r.OperatorSignPub[:]).
		Fixed(r.OperatorKexPub[:]).
		Fixed(r.DeviceID[:]).
		U64(r.CreatedAt).
		Finish()
}

// signableFields returns the request bytes minus the invite proof field,
// used both as the HMAC input domain and as material folded into the SAS
// transcript.
func (r *PairRequest) signableFields() []byte {
	return r.proofInput()
}

// Encode renders the full request including its invite proof.
func (r *PairRequest) Encode() []byte {
	return wire.NewEncoder().
		Fixed(r.proofInput()).
		Fixed(r.InviteProof[:]).
		Finish()
}

// PairReceipt is the device's signed reply to a PairRequest.
type PairReceipt struct {
	OperatorID      [32]byte
	DeviceID        [32]byte
	GrantedPerms    uint32
	DeviceSignature [64]byte // Ed25519 over SHA-256(receipt - signature field)
}

// signableFields returns the receipt bytes the device signature covers.
func (r *PairReceipt) signableFields() []byte {
	return wire.NewEncoder().
		Fixed(r.OperatorID[:]).
		Fixed(r.DeviceID[:]).
		U32(r.GrantedPerms).
		Finish()
}

// Record is the persisted pairing relationship after a SAS-confirmed
// exchange (spec §3 "Pairing record").
type Record struct {
	DeviceID          [32]byte
	OperatorID        [32]byte
	DeviceSignPub     [32]byte
	DeviceKexPub      [32]byte
	OperatorSignPub   [32]byte
	OperatorKexPub    [32]byte
	GrantedPerms      uint32
	UnattendedEnabled bool
	PairedAt          uint64
	LastSession       uint64
}

// Valid reports whether the record carries at least one permission bit —
// a pairing without one is not a pairing (spec §3 invariant).
func (r *Record) Valid() bool {
	return r.GrantedPerms != 0
}
