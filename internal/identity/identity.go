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

// Package identity manages the long-term Ed25519 signing key and X25519
// exchange key that every ZRC operator or device holds, persisted behind an
// abstract KeyStore.
package identity

import (
	"crypto/ecdh"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"sync"

	"github.com/zrc-project/zrc/internal/zrcerr"
)

// Identity owns a signing keypair and an exchange keypair. The secret key
// material never crosses the package boundary; callers interact through
// Sign, DH, and the exported public accessors.
type Identity struct {
	mu sync.RWMutex

	signPub  ed25519.PublicKey
	signPriv ed25519.PrivateKey
	kexPriv  *ecdh.PrivateKey
	kexPub   *ecdh.PublicKey

	id32 [32]byte

	store KeyStore
}

// PublicIdentity is the exported, wire-safe view of an Identity (§4.1
// export_public).
type PublicIdentity struct {
	ID        [32]byte
	SignPub   ed25519.PublicKey
	KexPub    []byte
	CreatedAt int64
}

// Init loads an identity from store, or generates and persists a fresh one
// on miss. It is the sole entry point described by spec §4.1.
func Init(store KeyStore) (*Identity, error) {
	rec, err := store.Load()
	if err == nil {
		return fromRecord(store, rec)
	}
	if !errorsIsNotFound(err) {
		return nil, zrcerr.Wrap(zrcerr.KindInternal, "load identity", err)
	}

	id, rec, err := generate(store)
	if err != nil {
		return nil, err
	}
	if err := store.Save(rec); err != nil {
		return nil, zrcerr.Wrap(zrcerr.KindInternal, "persist identity", err)
	}
	return id, nil
}

func generate(store KeyStore) (*Identity, *Record, error) {
	signPub, signPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, zrcerr.Wrap(zrcerr.KindInternal, "generate signing key", err)
	}
	kexPriv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, zrcerr.Wrap(zrcerr.KindInternal, "generate exchange key", err)
	}

	rec := &Record{
		Version:      1,
		SignSeed:     append([]byte(nil), signPriv.Seed()...),
		KexSecret:    append([]byte(nil), kexPriv.Bytes()...),
		CreatedAtRFC: nowRFC3339(),
	}

	id, err := fromRecord(store, rec)
	if err != nil {
		return nil, nil, err
	}
	return id, rec, nil
}

func fromRecord(store KeyStore, rec *Record) (*Identity, error) {
	signPriv := ed25519.NewKeyFromSeed(rec.SignSeed)
	signPub := signPriv.Public().(ed25519.PublicKey)

	kexPriv, err := ecdh.X25519().NewPrivateKey(rec.KexSecret)
	if err != nil {
		return nil, zrcerr.Wrap(zrcerr.KindInvalidInput, "parse exchange secret", err)
	}

	return &Identity{
		signPub:  signPub,
		signPriv: signPriv,
		kexPriv:  kexPriv,
		kexPub:   kexPriv.PublicKey(),
		id32:     sha256.Sum256(signPub),
		store:    store,
	}, nil
}

// SignPub returns the Ed25519 public key.
func (id *Identity) SignPub() ed25519.PublicKey {
	id.mu.RLock()
	defer id.mu.RUnlock()
	return append(ed25519.PublicKey(nil), id.signPub...)
}

// KexPub returns the raw 32-byte X25519 public key.
func (id *Identity) KexPub() []byte {
	id.mu.RLock()
	defer id.mu.RUnlock()
	return append([]byte(nil), id.kexPub.Bytes()...)
}

// ID32 returns SHA-256(sign_pub), the identity's stable 32-byte id.
func (id *Identity) ID32() [32]byte {
	id.mu.RLock()
	defer id.mu.RUnlock()
	return id.id32
}

// Sign produces a 64-byte Ed25519 signature over message.
func (id *Identity) Sign(message []byte) []byte {
	id.mu.RLock()
	defer id.mu.RUnlock()
	return ed25519.Sign(id.signPriv, message)
}

// DH performs X25519 Diffie-Hellman against a peer's raw public key and
// returns the 32-byte shared secret (not yet hashed/expanded; callers run
// it through HKDF — see internal/session).
func (id *Identity) DH(peerKexPub []byte) ([]byte, error) {
	id.mu.RLock()
	defer id.mu.RUnlock()

	peerPub, err := ecdh.X25519().NewPublicKey(peerKexPub)
	if err != nil {
		return nil, zrcerr.Wrap(zrcerr.KindInvalidInput, "parse peer exchange key", err)
	}
	shared, err := id.kexPriv.ECDH(peerPub)
	if err != nil {
		return nil, zrcerr.Wrap(zrcerr.KindAuthentication, "compute shared secret", err)
	}
	return shared, nil
}

// Rotate irrevocably replaces both keypairs and persists the new record.
// It does not touch any pairing store: every existing pairing for this
// identity becomes stale and callers must re-pair (spec §4.1).
func (id *Identity) Rotate() error {
	id.mu.Lock()
	defer id.mu.Unlock()

	signPub, signPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "rotate: generate signing key", err)
	}
	kexPriv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "rotate: generate exchange key", err)
	}

	rec := &Record{
		Version:      1,
		SignSeed:     append([]byte(nil), signPriv.Seed()...),
		KexSecret:    append([]byte(nil), kexPriv.Bytes()...),
		CreatedAtRFC: nowRFC3339(),
	}
	if err := id.store.Save(rec); err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "rotate: persist identity", err)
	}

	zero(id.signPriv)
	id.signPub = signPub
	id.signPriv = signPriv
	id.kexPriv = kexPriv
	id.kexPub = kexPriv.PublicKey()
	id.id32 = sha256.Sum256(signPub)
	return nil
}

// ExportPublic returns the wire-safe public view of this identity.
func (id *Identity) ExportPublic() PublicIdentity {
	id.mu.RLock()
	defer id.mu.RUnlock()
	return PublicIdentity{
		ID:      id.id32,
		SignPub: append(ed25519.PublicKey(nil), id.signPub...),
		KexPub:  append([]byte(nil), id.kexPub.Bytes()...),
	}
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
