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
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"time"
)

// DeviceSigner is the subset of internal/identity.Identity a device needs
// to issue invites and sign receipts: the engine's Signer is the
// operator-side view of the same shape.
type DeviceSigner interface {
	SignPub() ed25519.PublicKey
	ID32() [32]byte
	Sign(message []byte) []byte
}

// DefaultInviteTTL is how long a freshly generated invite remains
// importable (spec §3 "invite", scenario S1).
const DefaultInviteTTL = time.Hour

// NewInvite generates a fresh 32-byte invite_secret and the Invite that
// binds to it, ready for out-of-band delivery (QR, manual entry). The
// secret is returned alongside the invite since it never travels on the
// wire (spec §3).
func NewInvite(self DeviceSigner, ttl time.Duration, hints TransportHints) (*Invite, []byte, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, nil, err
	}
	hash := sha256.Sum256(secret)

	var signPub [32]byte
	copy(signPub[:], self.SignPub())

	inv := &Invite{
		DeviceID:         self.ID32(),
		DeviceSignPub:    signPub,
		InviteSecretHash: hash,
		ExpiresAt:        uint64(time.Now().Add(ttl).Unix()),
		TransportHints:   hints,
	}
	return inv, secret, nil
}

// VerifyPairRequest checks the operator's invite_proof against the invite
// secret this device generated, in constant time.
func VerifyPairRequest(req *PairRequest, secret []byte) bool {
	mac := hmac.New(sha256.New, secret)
	mac.Write(req.proofInput())
	expected := mac.Sum(nil)
	return subtle.ConstantTimeCompare(expected, req.InviteProof[:]) == 1
}

// SignReceipt builds and signs the device's reply to a verified
// PairRequest, granting grantedPerms to operatorID (spec §4.3
// handle_receipt's counterpart on the device side).
func SignReceipt(self DeviceSigner, operatorID [32]byte, grantedPerms uint32) *PairReceipt {
	r := &PairReceipt{
		OperatorID:   operatorID,
		DeviceID:     self.ID32(),
		GrantedPerms: grantedPerms,
	}
	digest := sha256.Sum256(r.signableFields())
	copy(r.DeviceSignature[:], self.Sign(digest[:]))
	return r
}
