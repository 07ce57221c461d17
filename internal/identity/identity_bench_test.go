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

package identity

import (
	"crypto/rand"
	"testing"
)

func BenchmarkInit(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Init(NewMemoryKeyStore()); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSign(b *testing.B) {
	id, err := Init(NewMemoryKeyStore())
	if err != nil {
		b.Fatal(err)
	}
	message := make([]byte, 256)
	_, _ = rand.Read(message)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		id.Sign(message)
	}
}

func BenchmarkDH(b *testing.B) {
	operator, err := Init(NewMemoryKeyStore())
	if err != nil {
		b.Fatal(err)
	}
	device, err := Init(NewMemoryKeyStore())
	if err != nil {
		b.Fatal(err)
	}
	peerKexPub := device.KexPub()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := operator.DH(peerKexPub); err != nil {
			b.Fatal(err)
		}
	}
}
