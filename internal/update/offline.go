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

package update

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"

	"github.com/zrc-project/zrc/internal/zrcerr"
)

// offlineMagic and offlineVersion identify the .zrcu container format:
// "ZRCU" | version_byte | manifest_len_be32 | manifest_json | artifact
// (spec §4.9).
var offlineMagic = [4]byte{'Z', 'R', 'C', 'U'}

const offlineVersion byte = 1

// ExportOffline builds a .zrcu package from a manifest and its
// artifact bytes. It refuses to build a package whose artifact does
// not match the manifest's declared hash (spec §4.9).
func ExportOffline(manifest Manifest, artifact []byte) ([]byte, error) {
	actualHash := sha256HexOf(artifact)
	if actualHash != manifest.ArtifactHash {
		return nil, zrcerr.New(zrcerr.KindVerification, "artifact does not match manifest hash")
	}

	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return nil, zrcerr.Wrap(zrcerr.KindInternal, "marshal manifest", err)
	}

	out := make([]byte, 0, 4+1+4+len(manifestJSON)+len(artifact))
	out = append(out, offlineMagic[:]...)
	out = append(out, offlineVersion)

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(manifestJSON)))
	out = append(out, lenBuf[:]...)
	out = append(out, manifestJSON...)
	out = append(out, artifact...)
	return out, nil
}

// ImportOffline parses a .zrcu package and checks the artifact's size and
// SHA-256 hash against the embedded manifest. The manifest carries no
// signature here, and no signature, freshness or platform check is made.
func ImportOffline(data []byte) (*Manifest, []byte, error) {
	if len(data) < 9 || [4]byte(data[:4]) != offlineMagic {
		return nil, nil, zrcerr.New(zrcerr.KindInvalidInput, "not a .zrcu package")
	}
	if data[4] != offlineVersion {
		return nil, nil, zrcerr.New(zrcerr.KindInvalidInput, "unsupported .zrcu version")
	}

	manifestLen := binary.BigEndian.Uint32(data[5:9])
	if uint64(9)+uint64(manifestLen) > uint64(len(data)) {
		return nil, nil, zrcerr.New(zrcerr.KindInvalidInput, "truncated .zrcu manifest section")
	}

	manifestJSON := data[9 : 9+manifestLen]
	artifact := data[9+manifestLen:]

	var manifest Manifest
	if err := json.Unmarshal(manifestJSON, &manifest); err != nil {
		return nil, nil, zrcerr.Wrap(zrcerr.KindInvalidInput, "parse .zrcu manifest", err)
	}

	if err := VerifyArtifact(bytes.NewReader(artifact), manifest.ArtifactSize, manifest.ArtifactHash); err != nil {
		return nil, nil, err
	}

	return &manifest, artifact, nil
}

func sha256HexOf(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
