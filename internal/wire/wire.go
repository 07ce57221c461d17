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

// Package wire implements the canonical, length-prefixed big-endian
// encoding shared by the pairing, session, and relay wire structures
// (spec §6): all integers are big-endian, byte-strings are fixed-length
// where a size is stated, and timestamps are unsigned 64-bit unix seconds.
package wire

import (
	"encoding/binary"
	"fmt"
)

// Encoder appends canonically-encoded fields to an internal buffer. It is
// used to build the "bytes minus signature field" inputs that pairing and
// session messages sign.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// Fixed appends a fixed-length byte string verbatim (no length prefix —
// the field's size is part of the wire schema, not the encoded bytes).
func (e *Encoder) Fixed(b []byte) *Encoder {
	e.buf = append(e.buf, b...)
	return e
}

// Bytes appends a variable-length byte string as len_be32 || bytes.
func (e *Encoder) Bytes(b []byte) *Encoder {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
	e.buf = append(e.buf, lenBuf[:]...)
	e.buf = append(e.buf, b...)
	return e
}

// String appends a UTF-8 string the same way as Bytes.
func (e *Encoder) String(s string) *Encoder {
	return e.Bytes([]byte(s))
}

// U64 appends an unsigned 64-bit big-endian integer.
func (e *Encoder) U64(v uint64) *Encoder {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	e.buf = append(e.buf, b[:]...)
	return e
}

// U32 appends an unsigned 32-bit big-endian integer.
func (e *Encoder) U32(v uint32) *Encoder {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	e.buf = append(e.buf, b[:]...)
	return e
}

// Bytes32 returns a 32-byte array validated for fixed-size fields
// such as ids and public keys.
func Bytes32(b []byte) ([32]byte, error) {
	var out [32]byte
	if len(b) != 32 {
		return out, fmt.Errorf("wire: expected 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}

// Bytes64 validates a 64-byte field such as an Ed25519 signature.
func Bytes64(b []byte) ([64]byte, error) {
	var out [64]byte
	if len(b) != 64 {
		return out, fmt.Errorf("wire: expected 64 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}

// Finish returns the accumulated canonical encoding.
func (e *Encoder) Finish() []byte {
	return e.buf
}

// Decoder reads canonically-encoded fields off a byte slice in order.
type Decoder struct {
	buf []byte
	pos int
	err error
}

// NewDecoder wraps b for sequential reads.
func NewDecoder(b []byte) *Decoder { return &Decoder{buf: b} }

// Err returns the first error encountered, if any.
func (d *Decoder) Err() error { return d.err }

func (d *Decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

// Fixed reads n raw bytes.
func (d *Decoder) Fixed(n int) []byte {
	if d.err != nil {
		return nil
	}
	if d.pos+n > len(d.buf) {
		d.fail(fmt.Errorf("wire: truncated reading %d fixed bytes", n))
		return nil
	}
	out := d.buf[d.pos : d.pos+n]
	d.pos += n
	return out
}

// Bytes reads a len_be32-prefixed byte string.
func (d *Decoder) Bytes() []byte {
	if d.err != nil {
		return nil
	}
	if d.pos+4 > len(d.buf) {
		d.fail(fmt.Errorf("wire: truncated reading length prefix"))
		return nil
	}
	n := binary.BigEndian.Uint32(d.buf[d.pos : d.pos+4])
	d.pos += 4
	return d.Fixed(int(n))
}

// String reads a length-prefixed UTF-8 string.
func (d *Decoder) String() string {
	return string(d.Bytes())
}

// U64 reads an unsigned 64-bit big-endian integer.
func (d *Decoder) U64() uint64 {
	b := d.Fixed(8)
	if d.err != nil || b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

// U32 reads an unsigned 32-bit big-endian integer.
func (d *Decoder) U32() uint32 {
	b := d.Fixed(4)
	if d.err != nil || b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}
