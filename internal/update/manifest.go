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

// Package update implements signed-manifest verification, artifact hash
// checking, rollback management, resumable chunked download, and the
// offline .zrcu package format (spec §4.9).
package update

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zrc-project/zrc/internal/metrics"
	"github.com/zrc-project/zrc/internal/zrcerr"
)

// MaxManifestAge is the oldest a manifest's timestamp may be (spec §5).
const MaxManifestAge = 7 * 24 * time.Hour

// MaxFutureTolerance is the most a manifest's timestamp may sit in the
// future, to absorb clock skew (spec §5).
const MaxFutureTolerance = time.Hour

// Signature is one signer's Ed25519 signature over the inner manifest
// JSON bytes, tagged with the signing key's identifier.
type Signature struct {
	KeyID     string `json:"key_id"`
	Signature []byte `json:"signature"`
}

// SignedEnvelope is the outer, transport-level structure: the inner
// manifest as a JSON string plus its signatures and signing timestamp.
type SignedEnvelope struct {
	Manifest   string      `json:"manifest"`
	Signatures []Signature `json:"signatures"`
	Timestamp  uint64      `json:"timestamp"`
}

// Manifest describes one available update (spec §4.9).
type Manifest struct {
	Version          string `json:"version"`
	Platform         string `json:"platform"`
	Channel          string `json:"channel"`
	ArtifactURL      string `json:"artifact_url"`
	ArtifactHash     string `json:"artifact_hash"`
	ArtifactSize     uint64 `json:"artifact_size"`
	ReleaseNotes     string `json:"release_notes"`
	IsSecurityUpdate bool   `json:"is_security_update"`
}

// Verifier checks a signed manifest envelope against a set of pinned
// keys and a signature threshold before trusting its contents.
type Verifier struct {
	trustedKeys      []ed25519.PublicKey
	threshold        int
	expectedPlatform string
	now              func() time.Time
}

// NewVerifier builds a verifier requiring at least threshold distinct
// valid signatures from trustedKeys, for manifests targeting
// expectedPlatform (the `{os}-{arch}` string for the running binary).
// Panics if threshold is 0 — an unsigned manifest must never be
// accepted.
func NewVerifier(trustedKeys []ed25519.PublicKey, threshold int, expectedPlatform string) *Verifier {
	if threshold <= 0 {
		panic("update: signature threshold must be at least 1")
	}
	return &Verifier{
		trustedKeys:      trustedKeys,
		threshold:        threshold,
		expectedPlatform: expectedPlatform,
		now:              time.Now,
	}
}

// VerifyAndParse performs, in order: envelope parse, timestamp
// freshness check, signature threshold check (no key double-counted),
// inner manifest parse, and platform match (spec §4.9).
func (v *Verifier) VerifyAndParse(envelopeBytes []byte) (*Manifest, error) {
	var envelope SignedEnvelope
	if err := json.Unmarshal(envelopeBytes, &envelope); err != nil {
		metrics.UpdateVerifications.WithLabelValues("rejected").Inc()
		return nil, zrcerr.Wrap(zrcerr.KindInvalidInput, "parse signed manifest envelope", err)
	}

	if err := v.verifyTimestamp(envelope.Timestamp); err != nil {
		metrics.UpdateVerifications.WithLabelValues("rejected").Inc()
		return nil, err
	}

	valid := v.countValidSignatures(envelope)
	if valid < v.threshold {
		metrics.UpdateVerifications.WithLabelValues("rejected").Inc()
		return nil, zrcerr.New(zrcerr.KindVerification,
			fmt.Sprintf("insufficient valid signatures: required %d, found %d", v.threshold, valid))
	}

	var manifest Manifest
	if err := json.Unmarshal([]byte(envelope.Manifest), &manifest); err != nil {
		metrics.UpdateVerifications.WithLabelValues("rejected").Inc()
		return nil, zrcerr.Wrap(zrcerr.KindInvalidInput, "parse inner manifest", err)
	}

	if manifest.Platform != v.expectedPlatform {
		metrics.UpdateVerifications.WithLabelValues("rejected").Inc()
		return nil, zrcerr.New(zrcerr.KindVerification,
			fmt.Sprintf("platform mismatch: expected %s, got %s", v.expectedPlatform, manifest.Platform))
	}

	metrics.UpdateVerifications.WithLabelValues("verified").Inc()
	return &manifest, nil
}

func (v *Verifier) verifyTimestamp(ts uint64) error {
	now := v.now()
	nowSecs := uint64(now.Unix())

	var oldestAllowed uint64
	if ageSecs := uint64(MaxManifestAge.Seconds()); nowSecs > ageSecs {
		oldestAllowed = nowSecs - ageSecs
	}
	if ts < oldestAllowed {
		return zrcerr.New(zrcerr.KindVerification, "manifest timestamp is too old")
	}

	if ts > nowSecs+uint64(MaxFutureTolerance.Seconds()) {
		return zrcerr.New(zrcerr.KindVerification, "manifest timestamp is in the future")
	}
	return nil
}

// countValidSignatures verifies each signature against the trusted key
// set, ensuring no trusted key is credited for more than one signature.
func (v *Verifier) countValidSignatures(envelope SignedEnvelope) int {
	manifestBytes := []byte(envelope.Manifest)
	used := make([]bool, len(v.trustedKeys))
	valid := 0

	for _, sig := range envelope.Signatures {
		for i, key := range v.trustedKeys {
			if used[i] {
				continue
			}
			if ed25519.Verify(key, manifestBytes, sig.Signature) {
				used[i] = true
				valid++
				break
			}
		}
	}
	return valid
}

// ExpectedPlatform returns the "{os}-{arch}" identifier for the running
// binary (spec §4.9).
func ExpectedPlatform(goos, goarch string) string {
	return goos + "-" + goarch
}
