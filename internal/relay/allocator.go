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

// Package relay implements the relay allocation engine (spec §4.7): a
// concurrent allocation table keyed by allocation id, signed-token
// admission, quota/idle/absolute-lifetime enforcement, and the admin
// HTTP surface.
package relay

import (
	"crypto/ed25519"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/zrc-project/zrc/internal/metrics"
	"github.com/zrc-project/zrc/internal/wire"
	"github.com/zrc-project/zrc/internal/zrcerr"
)

// AbsoluteLifetime is the default allocation lifetime (spec §5).
const AbsoluteLifetime = 8 * time.Hour

// IdleTimeout is the default idle expiry window (spec §5).
const IdleTimeout = 30 * time.Second

// QuotaWarnThreshold is the fraction of quota_bytes that fires a one-shot
// warning event (spec §4.7).
const QuotaWarnThreshold = 0.90

// Token is the signed relay token a device or peer presents to a relay
// (spec §3).
type Token struct {
	RelayID      [16]byte
	AllocationID [16]byte
	DeviceID     [32]byte
	PeerID       [32]byte
	ExpiresAt    uint64
	BandwidthLimit uint64
	QuotaBytes   uint64
	Signature    [64]byte
}

func (t *Token) signableFields() []byte {
	return wire.NewEncoder().
		Fixed(t.RelayID[:]).
		Fixed(t.AllocationID[:]).
		Fixed(t.DeviceID[:]).
		Fixed(t.PeerID[:]).
		U64(t.ExpiresAt).
		U64(t.BandwidthLimit).
		U64(t.QuotaBytes).
		Finish()
}

// Verify checks the token's signature under the issuer's public key and
// enforces the structural invariants create() checks before installing
// an allocation.
func (t *Token) Verify(issuerPub ed25519.PublicKey, thisRelayID [16]byte, now uint64) error {
	if !ed25519.Verify(issuerPub, t.signableFields(), t.Signature[:]) {
		return zrcerr.New(zrcerr.KindAuthentication, "relay token signature invalid")
	}
	if t.RelayID != thisRelayID {
		return zrcerr.New(zrcerr.KindAuthentication, "relay token issued for a different relay")
	}
	if t.ExpiresAt <= now {
		return zrcerr.New(zrcerr.KindAuthentication, "relay token expired")
	}
	return nil
}

// Allocation is a per-relay entry tracking one device/peer pairing's
// transfer quota and connection state (spec §3).
type Allocation struct {
	ID             [16]byte
	DeviceID       [32]byte
	PeerID         [32]byte
	CreatedAt      uint64
	ExpiresAt      uint64
	BandwidthLimit uint64
	QuotaBytes     uint64

	bytesTransferred atomic.Uint64
	lastActivity     atomic.Int64
	warningFired     atomic.Bool

	mu               sync.Mutex
	deviceConnected  bool
	peerConnected    bool
}

// Info is the read-only snapshot returned to callers (admin listing,
// create/associate results).
type Info struct {
	ID               [16]byte
	DeviceID         [32]byte
	PeerID           [32]byte
	CreatedAt        uint64
	ExpiresAt        uint64
	BandwidthLimit   uint64
	QuotaBytes       uint64
	BytesTransferred uint64
	LastActivity     int64
	DeviceConnected  bool
	PeerConnected    bool
}

func (a *Allocation) snapshot() Info {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Info{
		ID:               a.ID,
		DeviceID:         a.DeviceID,
		PeerID:           a.PeerID,
		CreatedAt:        a.CreatedAt,
		ExpiresAt:        a.ExpiresAt,
		BandwidthLimit:   a.BandwidthLimit,
		QuotaBytes:       a.QuotaBytes,
		BytesTransferred: a.bytesTransferred.Load(),
		LastActivity:     a.lastActivity.Load(),
		DeviceConnected:  a.deviceConnected,
		PeerConnected:    a.peerConnected,
	}
}

// Allocator is a concurrent, O(1)-average allocation table. Lookups go
// through a single map guarded by one RWMutex; the map is not sharded.
// Per-allocation counters are lock-free atomics.
type Allocator struct {
	thisRelayID [16]byte
	maxAllocs   int
	now         func() time.Time

	mu          sync.RWMutex
	allocations map[[16]byte]*Allocation
}

// NewAllocator creates an allocator for a relay identified by relayID,
// admitting at most maxAllocations concurrent allocations.
func NewAllocator(relayID [16]byte, maxAllocations int) *Allocator {
	return &Allocator{
		thisRelayID: relayID,
		maxAllocs:   maxAllocations,
		now:         time.Now,
		allocations: make(map[[16]byte]*Allocation),
	}
}

// Create admits a new allocation from a verified token (spec §4.7).
func (a *Allocator) Create(token *Token, issuerPub ed25519.PublicKey) (Info, error) {
	now := uint64(a.now().Unix())
	if err := token.Verify(issuerPub, a.thisRelayID, now); err != nil {
		return Info{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.allocations) >= a.maxAllocs {
		return Info{}, zrcerr.New(zrcerr.KindQuota, "max allocations reached")
	}

	alloc := &Allocation{
		ID:             token.AllocationID,
		DeviceID:       token.DeviceID,
		PeerID:         token.PeerID,
		CreatedAt:      now,
		ExpiresAt:      uint64(a.now().Add(AbsoluteLifetime).Unix()),
		BandwidthLimit: token.BandwidthLimit,
		QuotaBytes:     token.QuotaBytes,
	}
	alloc.lastActivity.Store(a.now().Unix())
	a.allocations[token.AllocationID] = alloc
	metrics.RelayAllocationsCreated.Inc()
	metrics.RelayActiveAllocations.Set(float64(len(a.allocations)))
	return alloc.snapshot(), nil
}

// Associate binds one endpoint's connection presence to an allocation
// and refreshes last_activity.
func (a *Allocator) Associate(allocationID [16]byte, isDevice bool) error {
	alloc, ok := a.get(allocationID)
	if !ok {
		return zrcerr.New(zrcerr.KindInvalidInput, "unknown allocation")
	}
	alloc.mu.Lock()
	if isDevice {
		alloc.deviceConnected = true
	} else {
		alloc.peerConnected = true
	}
	alloc.mu.Unlock()
	alloc.lastActivity.Store(a.now().Unix())
	return nil
}

// RecordTransfer atomically adds bytes to the allocation's transferred
// counter. It returns warningFired=true exactly once, the moment the
// running total first crosses 90% of quota, and terminates the
// allocation with QuotaExceeded if bytes exceeds quota_bytes.
func (a *Allocator) RecordTransfer(allocationID [16]byte, n uint64) (warningFired bool, err error) {
	alloc, ok := a.get(allocationID)
	if !ok {
		return false, zrcerr.New(zrcerr.KindInvalidInput, "unknown allocation")
	}

	before := alloc.bytesTransferred.Load()
	after := alloc.bytesTransferred.Add(n)
	alloc.lastActivity.Store(a.now().Unix())

	if after > alloc.QuotaBytes {
		a.Terminate(allocationID, "quota_exceeded")
		return false, zrcerr.New(zrcerr.KindQuota, "quota exceeded")
	}

	threshold := uint64(float64(alloc.QuotaBytes) * QuotaWarnThreshold)
	if before < threshold && after >= threshold {
		if alloc.warningFired.CompareAndSwap(false, true) {
			metrics.RelayQuotaWarnings.Inc()
			return true, nil
		}
	}
	return false, nil
}

// Terminate removes an allocation; idempotent.
func (a *Allocator) Terminate(allocationID [16]byte, reason string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.allocations[allocationID]; !ok {
		return
	}
	delete(a.allocations, allocationID)
	metrics.RelayAllocationsTerminated.WithLabelValues(reason).Inc()
	metrics.RelayActiveAllocations.Set(float64(len(a.allocations)))
}

// ExpireStale removes allocations past their absolute expiry, or idle
// past idleTimeout with at least one endpoint never having connected.
func (a *Allocator) ExpireStale(idleTimeout time.Duration) int {
	now := a.now()
	nowUnix := uint64(now.Unix())

	a.mu.Lock()
	defer a.mu.Unlock()

	removed := 0
	for id, alloc := range a.allocations {
		if alloc.ExpiresAt <= nowUnix {
			delete(a.allocations, id)
			metrics.RelayAllocationsTerminated.WithLabelValues("expired").Inc()
			removed++
			continue
		}
		idleFor := now.Sub(time.Unix(alloc.lastActivity.Load(), 0))
		alloc.mu.Lock()
		missingEndpoint := !alloc.deviceConnected || !alloc.peerConnected
		alloc.mu.Unlock()
		if idleFor > idleTimeout && missingEndpoint {
			delete(a.allocations, id)
			metrics.RelayAllocationsTerminated.WithLabelValues("idle").Inc()
			removed++
		}
	}
	if removed > 0 {
		metrics.RelayActiveAllocations.Set(float64(len(a.allocations)))
	}
	return removed
}

// List returns a snapshot of every live allocation, for the admin
// surface.
func (a *Allocator) List() []Info {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Info, 0, len(a.allocations))
	for _, alloc := range a.allocations {
		out = append(out, alloc.snapshot())
	}
	return out
}

func (a *Allocator) get(id [16]byte) (*Allocation, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	alloc, ok := a.allocations[id]
	return alloc, ok
}

// NewAllocationID generates a fresh 16-byte allocation id. Grounded in
// the teacher's use of github.com/google/uuid for entity ids.
func NewAllocationID() [16]byte {
	return uuid.New()
}
