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
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloader_VerifiesHashAndSize(t *testing.T) {
	artifact := []byte("artifact bytes for download test")
	sum := sha256.Sum256(artifact)
	hash := hex.EncodeToString(sum[:])

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(artifact)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	d := NewDownloader(srv.Client())
	err := d.Download(context.Background(), srv.URL, &buf, 0, uint64(len(artifact)), hash)
	require.NoError(t, err)
	assert.Equal(t, artifact, buf.Bytes())
}

func TestDownloader_RejectsHashMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("unexpected content"))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	d := NewDownloader(srv.Client())
	err := d.Download(context.Background(), srv.URL, &buf, 0, 0, "0000000000000000000000000000000000000000000000000000000000000000")
	assert.Error(t, err)
}

func TestDownloader_RejectsSizeMismatch(t *testing.T) {
	artifact := []byte("short")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(artifact)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	d := NewDownloader(srv.Client())
	err := d.Download(context.Background(), srv.URL, &buf, 0, 999, "")
	assert.Error(t, err)
}

func TestDownloader_ResumesWithRangeRequest(t *testing.T) {
	tail := []byte("-tail-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Range") != "" {
			w.WriteHeader(http.StatusPartialContent)
			_, _ = w.Write(tail)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("full-content" + string(tail)))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	d := NewDownloader(srv.Client())
	err := d.Download(context.Background(), srv.URL, &buf, 12, uint64(12+len(tail)), "")
	require.NoError(t, err)
	assert.Equal(t, tail, buf.Bytes())
}

func TestVerifyArtifact_DetectsHashMismatch(t *testing.T) {
	data := []byte("some artifact content")
	err := VerifyArtifact(bytes.NewReader(data), uint64(len(data)), "deadbeef")
	assert.Error(t, err)
}

func TestVerifyArtifact_AcceptsMatchingHash(t *testing.T) {
	data := []byte("some artifact content")
	sum := sha256.Sum256(data)
	err := VerifyArtifact(bytes.NewReader(data), uint64(len(data)), hex.EncodeToString(sum[:]))
	assert.NoError(t, err)
}
