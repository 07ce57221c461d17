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

// Package transcript implements the domain-separated transcript hash and
// the deterministic SAS projection used by pairing and session handshakes
// (spec §4.2).
package transcript

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// Transcript accumulates domain-separated, length-prefixed fields into a
// single SHA-256 digest. Two peers that append the same (tag, bytes) pairs
// in the same order always finalize to the same 32 bytes.
type Transcript struct {
	state [sha256.Size]byte
}

// New seeds a transcript with a domain label, keeping pairing and session
// transcripts from ever colliding even over identical field bytes.
func New(label string) *Transcript {
	return &Transcript{state: sha256.Sum256([]byte(label))}
}

// AppendBytes folds tag||len||bytes into the running digest. tag
// disambiguates fields of the same length within a transcript (e.g. two
// different 32-byte public keys); len guards against prefix-boundary
// ambiguity between adjacent fields.
func (t *Transcript) AppendBytes(tag uint32, data []byte) {
	var header [12]byte
	binary.BigEndian.PutUint32(header[0:4], tag)
	binary.BigEndian.PutUint64(header[4:12], uint64(len(data)))

	h := sha256.New()
	h.Write(t.state[:])
	h.Write(header[:])
	h.Write(data)
	copy(t.state[:], h.Sum(nil))
}

// Finalize returns the 32-byte transcript digest. The transcript may
// continue to be appended to afterward; Finalize does not consume state.
func (t *Transcript) Finalize() [32]byte {
	return t.state
}

// sasByteOffset is the implementation-defined start of the 20-bit window
// read out of the 32-byte transcript digest (spec §7 open question (c)).
// Fixed at the digest's final 4 bytes so both peers — who only need to
// agree, not match an external reference — derive the same window as long
// as they run this package.
const sasByteOffset = 28

// SAS6 derives the 6-digit short authentication string from a finalized
// transcript digest: the lower 20 bits of a fixed byte window, rendered as
// zero-padded decimal (spec §4.2).
func SAS6(digest [32]byte) string {
	window := binary.BigEndian.Uint32(digest[sasByteOffset : sasByteOffset+4])
	value := window & 0xFFFFF // lower 20 bits: 0..1048575
	return fmt.Sprintf("%06d", value%1_000_000)
}
