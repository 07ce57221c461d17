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

package relay

import (
	"context"
	"io"

	"golang.org/x/time/rate"

	"github.com/zrc-project/zrc/internal/metrics"
)

// ThrottledConn wraps a net.Conn-like reader/writer pair with a token-
// bucket bandwidth limiter. The allocator supplies the current limit;
// bandwidth limiting itself is enforced here, in the connection
// handler, never inside the allocator (spec §4.7/§5).
type ThrottledConn struct {
	allocationID [16]byte
	allocator    *Allocator
	limiter      *rate.Limiter
	under        io.ReadWriteCloser
}

// NewThrottledConn wraps under with a token bucket capped at
// bandwidthLimit bytes/sec, reporting every forwarded byte back to
// allocator.RecordTransfer so quota accounting stays centralized.
func NewThrottledConn(under io.ReadWriteCloser, allocator *Allocator, allocationID [16]byte, bandwidthLimit uint64) *ThrottledConn {
	limit := rate.Limit(bandwidthLimit)
	burst := int(bandwidthLimit)
	if burst <= 0 {
		burst = 1
	}
	return &ThrottledConn{
		allocationID: allocationID,
		allocator:    allocator,
		limiter:      rate.NewLimiter(limit, burst),
		under:        under,
	}
}

// Read reads from the underlying connection, then waits for bandwidth
// tokens covering the bytes read and records the transfer against the
// allocation's quota.
func (c *ThrottledConn) Read(p []byte) (int, error) {
	n, err := c.under.Read(p)
	if n > 0 {
		if werr := c.limiter.WaitN(context.Background(), n); werr != nil {
			return n, werr
		}
		if _, qerr := c.allocator.RecordTransfer(c.allocationID, uint64(n)); qerr != nil {
			return n, qerr
		}
		metrics.RelayBytesTransferred.WithLabelValues("read").Add(float64(n))
	}
	return n, err
}

// Write waits for bandwidth tokens before writing, then records the
// transfer against the allocation's quota.
func (c *ThrottledConn) Write(p []byte) (int, error) {
	if err := c.limiter.WaitN(context.Background(), len(p)); err != nil {
		return 0, err
	}
	n, err := c.under.Write(p)
	if n > 0 {
		if _, qerr := c.allocator.RecordTransfer(c.allocationID, uint64(n)); qerr != nil {
			return n, qerr
		}
		metrics.RelayBytesTransferred.WithLabelValues("write").Add(float64(n))
	}
	return n, err
}

// Close releases the underlying connection.
func (c *ThrottledConn) Close() error {
	return c.under.Close()
}
