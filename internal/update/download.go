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
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zrc-project/zrc/internal/metrics"
	"github.com/zrc-project/zrc/internal/zrcerr"
)

// ChunkTimeout bounds each individual read from the response body
// (spec §5: "artifact download: unbounded but per-chunk 30 s").
const ChunkTimeout = 30

// Downloader fetches an artifact into an io.Writer, resuming a partial
// download via HTTP Range requests when the server supports it
// (spec §5 "Cancellation": "downloads support resume... otherwise
// restart").
type Downloader struct {
	client *http.Client
}

// NewDownloader builds a downloader using client for HTTP requests.
func NewDownloader(client *http.Client) *Downloader {
	return &Downloader{client: client}
}

// Download fetches url into dst, resuming from resumeFrom bytes already
// written if the server honors the Range request (HTTP 206); otherwise
// it restarts from the beginning. The final artifact is verified
// against expectedHash (hex SHA-256) and expectedSize.
func (d *Downloader) Download(ctx context.Context, url string, dst io.Writer, resumeFrom int64, expectedSize uint64, expectedHash string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "build download request", err)
	}
	if resumeFrom > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", resumeFrom))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindTransport, "fetch artifact", err)
	}
	defer resp.Body.Close()

	resumed := resumeFrom > 0 && resp.StatusCode == http.StatusPartialContent
	if resumeFrom > 0 && !resumed {
		// Server ignored the range request; the caller must have
		// already truncated dst to empty before calling Download again
		// in that case. We proceed writing from the top regardless.
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return zrcerr.New(zrcerr.KindTransport, fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	hasher := sha256.New()
	writer := io.MultiWriter(dst, hasher)

	start := time.Now()
	n, err := io.Copy(writer, resp.Body)
	metrics.UpdateDownloadDuration.Observe(time.Since(start).Seconds())
	metrics.UpdateDownloadBytes.Add(float64(n))
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindTransport, "read artifact body", err)
	}

	if expectedSize > 0 {
		total := uint64(n)
		if resumed {
			total += uint64(resumeFrom)
		}
		if total != expectedSize {
			return zrcerr.New(zrcerr.KindVerification,
				fmt.Sprintf("artifact size mismatch: expected %d, got %d", expectedSize, total))
		}
	}

	if resumed {
		// A resumed download's hasher only covers the tail; full-file
		// hash verification requires a from-scratch pass by the caller
		// once all chunks are assembled on disk.
		return nil
	}

	actual := hex.EncodeToString(hasher.Sum(nil))
	if expectedHash != "" && actual != expectedHash {
		return zrcerr.New(zrcerr.KindVerification,
			fmt.Sprintf("artifact hash mismatch: expected %s, got %s", expectedHash, actual))
	}
	return nil
}

// SupportsRange probes whether url's server honors HTTP Range requests.
func (d *Downloader) SupportsRange(ctx context.Context, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, zrcerr.Wrap(zrcerr.KindInvalidInput, "build range-probe request", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return false, zrcerr.Wrap(zrcerr.KindTransport, "probe range support", err)
	}
	defer resp.Body.Close()
	return resp.Header.Get("Accept-Ranges") == "bytes", nil
}

// VerifyArtifact streams path through SHA-256 and compares against
// expectedHash, checking size first and independently (spec §4.9).
func VerifyArtifact(r io.Reader, expectedSize uint64, expectedHash string) error {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "hash artifact", err)
	}
	if uint64(n) != expectedSize {
		return zrcerr.New(zrcerr.KindVerification,
			fmt.Sprintf("artifact size mismatch: expected %d, got %d", expectedSize, n))
	}
	actual := hex.EncodeToString(h.Sum(nil))
	if actual != expectedHash {
		return zrcerr.New(zrcerr.KindVerification,
			fmt.Sprintf("artifact hash mismatch: expected %s, got %s", expectedHash, actual))
	}
	return nil
}
