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
	"crypto/ed25519"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildEnvelope(t *testing.T, manifest Manifest, signers []ed25519.PrivateKey, ts uint64) []byte {
	t.Helper()
	manifestJSON, err := json.Marshal(manifest)
	require.NoError(t, err)

	var sigs []Signature
	for i, priv := range signers {
		sigs = append(sigs, Signature{KeyID: string(rune('a' + i)), Signature: ed25519.Sign(priv, manifestJSON)})
	}

	envelope := SignedEnvelope{Manifest: string(manifestJSON), Signatures: sigs, Timestamp: ts}
	data, err := json.Marshal(envelope)
	require.NoError(t, err)
	return data
}

func TestVerifier_AcceptsThresholdSignatures(t *testing.T) {
	pub1, priv1, _ := ed25519.GenerateKey(nil)
	pub2, priv2, _ := ed25519.GenerateKey(nil)
	manifest := Manifest{Version: "1.2.0", Platform: "linux-amd64", ArtifactHash: "deadbeef", ArtifactSize: 10}
	envelope := buildEnvelope(t, manifest, []ed25519.PrivateKey{priv1, priv2}, uint64(time.Now().Unix()))

	v := NewVerifier([]ed25519.PublicKey{pub1, pub2}, 2, "linux-amd64")
	got, err := v.VerifyAndParse(envelope)
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", got.Version)
}

func TestVerifier_RejectsInsufficientSignatures(t *testing.T) {
	pub1, priv1, _ := ed25519.GenerateKey(nil)
	pub2, _, _ := ed25519.GenerateKey(nil)
	manifest := Manifest{Version: "1.0.0", Platform: "linux-amd64"}
	envelope := buildEnvelope(t, manifest, []ed25519.PrivateKey{priv1}, uint64(time.Now().Unix()))

	v := NewVerifier([]ed25519.PublicKey{pub1, pub2}, 2, "linux-amd64")
	_, err := v.VerifyAndParse(envelope)
	assert.Error(t, err)
}

func TestVerifier_DoesNotDoubleCountSameKey(t *testing.T) {
	pub1, priv1, _ := ed25519.GenerateKey(nil)
	manifest := Manifest{Version: "1.0.0", Platform: "linux-amd64"}
	// Same signer twice — must still count as only 1 valid signature.
	envelope := buildEnvelope(t, manifest, []ed25519.PrivateKey{priv1, priv1}, uint64(time.Now().Unix()))

	v := NewVerifier([]ed25519.PublicKey{pub1}, 2, "linux-amd64")
	_, err := v.VerifyAndParse(envelope)
	assert.Error(t, err)
}

func TestVerifier_RejectsStaleTimestamp(t *testing.T) {
	pub1, priv1, _ := ed25519.GenerateKey(nil)
	manifest := Manifest{Version: "1.0.0", Platform: "linux-amd64"}
	old := uint64(time.Now().Add(-8 * 24 * time.Hour).Unix())
	envelope := buildEnvelope(t, manifest, []ed25519.PrivateKey{priv1}, old)

	v := NewVerifier([]ed25519.PublicKey{pub1}, 1, "linux-amd64")
	_, err := v.VerifyAndParse(envelope)
	assert.Error(t, err)
}

func TestVerifier_RejectsFutureTimestamp(t *testing.T) {
	pub1, priv1, _ := ed25519.GenerateKey(nil)
	manifest := Manifest{Version: "1.0.0", Platform: "linux-amd64"}
	future := uint64(time.Now().Add(2 * time.Hour).Unix())
	envelope := buildEnvelope(t, manifest, []ed25519.PrivateKey{priv1}, future)

	v := NewVerifier([]ed25519.PublicKey{pub1}, 1, "linux-amd64")
	_, err := v.VerifyAndParse(envelope)
	assert.Error(t, err)
}

func TestVerifier_RejectsPlatformMismatch(t *testing.T) {
	pub1, priv1, _ := ed25519.GenerateKey(nil)
	manifest := Manifest{Version: "1.0.0", Platform: "windows-amd64"}
	envelope := buildEnvelope(t, manifest, []ed25519.PrivateKey{priv1}, uint64(time.Now().Unix()))

	v := NewVerifier([]ed25519.PublicKey{pub1}, 1, "linux-amd64")
	_, err := v.VerifyAndParse(envelope)
	assert.Error(t, err)
}

func TestExpectedPlatform(t *testing.T) {
	assert.Equal(t, "linux-amd64", ExpectedPlatform("linux", "amd64"))
}

func TestNewVerifier_PanicsOnZeroThreshold(t *testing.T) {
	pub, _, _ := ed25519.GenerateKey(nil)
	assert.Panics(t, func() {
		NewVerifier([]ed25519.PublicKey{pub}, 0, "linux-amd64")
	})
}
