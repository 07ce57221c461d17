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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffline_ExportImportRoundTrip(t *testing.T) {
	artifact := []byte("offline artifact payload")
	manifest := Manifest{
		Version:      "2.0.0",
		Platform:     "linux-amd64",
		ArtifactHash: sha256HexOf(artifact),
		ArtifactSize: uint64(len(artifact)),
	}

	pkg, err := ExportOffline(manifest, artifact)
	require.NoError(t, err)
	assert.Equal(t, []byte("ZRCU"), pkg[:4])
	assert.Equal(t, byte(1), pkg[4])

	gotManifest, gotArtifact, err := ImportOffline(pkg)
	require.NoError(t, err)
	assert.Equal(t, manifest.Version, gotManifest.Version)
	assert.Equal(t, artifact, gotArtifact)
}

func TestOffline_ExportRejectsHashMismatch(t *testing.T) {
	manifest := Manifest{Version: "2.0.0", Platform: "linux-amd64", ArtifactHash: "wrong-hash", ArtifactSize: 5}
	_, err := ExportOffline(manifest, []byte("hello"))
	assert.Error(t, err)
}

func TestOffline_ImportRejectsBadMagic(t *testing.T) {
	_, _, err := ImportOffline([]byte("NOTZ\x01\x00\x00\x00\x00"))
	assert.Error(t, err)
}

func TestOffline_ImportRejectsUnsupportedVersion(t *testing.T) {
	data := append([]byte("ZRCU\x02"), []byte{0, 0, 0, 0}...)
	_, _, err := ImportOffline(data)
	assert.Error(t, err)
}

func TestOffline_ImportRejectsArtifactTamperedAfterExport(t *testing.T) {
	artifact := []byte("offline artifact payload")
	manifest := Manifest{
		Version:      "2.0.0",
		Platform:     "linux-amd64",
		ArtifactHash: sha256HexOf(artifact),
		ArtifactSize: uint64(len(artifact)),
	}
	pkg, err := ExportOffline(manifest, artifact)
	require.NoError(t, err)

	pkg[len(pkg)-1] ^= 0xFF // flip last artifact byte
	_, _, err = ImportOffline(pkg)
	assert.Error(t, err)
}
