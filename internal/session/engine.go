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

package session

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"sync"
	"time"

	"github.com/zrc-project/zrc/internal/metrics"
	"github.com/zrc-project/zrc/internal/pairing"
	"github.com/zrc-project/zrc/internal/zrcerr"
)

// DefaultRoundTripTimeout is the session request round-trip deadline
// (spec §5).
const DefaultRoundTripTimeout = 30 * time.Second

// PermissionEscalationReporter is notified whenever a session request
// asks for capabilities outside a pairing's granted permissions. Its
// concrete implementation lives in internal/audit; this interface keeps
// session decoupled from the audit sink's storage concerns.
type PermissionEscalationReporter interface {
	ReportPermissionEscalation(deviceID, operatorID [32]byte, requested, granted uint32)
}

// Signer is the subset of internal/identity.Identity the engine needs to
// sign an outgoing session request.
type Signer interface {
	ID32() [32]byte
	Sign(message []byte) []byte
}

// Options configures a start_session call.
type Options struct {
	Capabilities        []string
	TransportPreference string
}

// Engine drives session establishment against a specific pairing store
// and tracks the in-process table of active sessions.
type Engine struct {
	mu       sync.RWMutex
	store    pairing.Store
	self     Signer
	reporter PermissionEscalationReporter
	sessions map[[32]byte]ActiveSession
}

// NewEngine creates a session engine backed by store, signing outgoing
// requests as self. reporter may be nil if audit wiring is not needed
// (e.g. in isolated tests).
func NewEngine(store pairing.Store, self Signer, reporter PermissionEscalationReporter) *Engine {
	return &Engine{
		store:    store,
		self:     self,
		reporter: reporter,
		sessions: make(map[[32]byte]ActiveSession),
	}
}

// StartSession looks up the pairing, validates the requested
// capabilities against it, and returns a signed Request (spec §4.5).
func (e *Engine) StartSession(ctx context.Context, deviceIDHex string, opts Options) (*Request, error) {
	rec, err := e.store.Get(ctx, deviceIDHex)
	if err != nil {
		return nil, zrcerr.Wrap(zrcerr.KindNotPaired, "device not paired: "+deviceIDHex, err)
	}

	requested := CapabilitiesToMask(opts.Capabilities)
	if requested&^rec.GrantedPerms != 0 {
		escalateStart := time.Now()
		if e.reporter != nil {
			e.reporter.ReportPermissionEscalation(rec.DeviceID, rec.OperatorID, requested, rec.GrantedPerms)
		}
		metrics.SessionDuration.WithLabelValues("escalate").Observe(time.Since(escalateStart).Seconds())
		metrics.SessionsEstablished.WithLabelValues("failure").Inc()
		return nil, zrcerr.New(zrcerr.KindPermissionDenied, "requested capabilities exceed granted permissions")
	}

	var sessionID [32]byte
	if _, err := rand.Read(sessionID[:]); err != nil {
		return nil, zrcerr.Wrap(zrcerr.KindInternal, "generate session id", err)
	}

	req := &Request{
		OperatorID:            e.self.ID32(),
		DeviceID:              rec.DeviceID,
		SessionID:             sessionID,
		RequestedCapabilities: requested,
		TransportPreference:   opts.TransportPreference,
	}
	digest := sha256.Sum256(req.signableFields())
	copy(req.OperatorSignature[:], e.self.Sign(digest[:]))
	return req, nil
}

// HandleResponse validates a device's signed session response and
// extracts the connection parameters the caller needs to dial QUIC
// (spec §4.5).
func (e *Engine) HandleResponse(resp *Response, deviceSignPub ed25519.PublicKey) (*InitResult, error) {
	start := time.Now()
	defer func() {
		metrics.SessionDuration.WithLabelValues("establish").Observe(time.Since(start).Seconds())
	}()

	if resp.SessionID == ([32]byte{}) {
		metrics.SessionsEstablished.WithLabelValues("failure").Inc()
		return nil, zrcerr.New(zrcerr.KindInvalidInput, "empty session id")
	}

	digest := sha256.Sum256(resp.signableFields())
	if !ed25519.Verify(deviceSignPub, digest[:], resp.DeviceSignature[:]) {
		metrics.SessionsEstablished.WithLabelValues("failure").Inc()
		return nil, zrcerr.New(zrcerr.KindAuthentication, "session response signature invalid")
	}

	hasTicket := len(resp.Ticket.Bytes) > 0
	if !hasTicket && resp.GrantedCapabilities == 0 {
		metrics.SessionsEstablished.WithLabelValues("failure").Inc()
		return nil, zrcerr.New(zrcerr.KindPermissionDenied, "session denied: no ticket and no granted capabilities")
	}
	if hasTicket && resp.Ticket.ExpiresAt <= uint64(time.Now().Unix()) {
		metrics.SessionsEstablished.WithLabelValues("failure").Inc()
		return nil, zrcerr.New(zrcerr.KindAuthentication, "session ticket already expired")
	}
	if len(resp.Transport.QUIC.Endpoints) == 0 {
		metrics.SessionsEstablished.WithLabelValues("failure").Inc()
		return nil, zrcerr.New(zrcerr.KindTransport, "no QUIC endpoint offered")
	}

	host, port, err := net.SplitHostPort(resp.Transport.QUIC.Endpoints[0])
	if err != nil {
		metrics.SessionsEstablished.WithLabelValues("failure").Inc()
		return nil, zrcerr.Wrap(zrcerr.KindInvalidInput, "parse QUIC endpoint", err)
	}

	fingerprint := sha256.Sum256(resp.Transport.QUIC.ServerCertDER)

	e.mu.Lock()
	e.sessions[resp.SessionID] = ActiveSession{
		SessionID:           resp.SessionID,
		GrantedCapabilities: resp.GrantedCapabilities,
		StartedAt:           uint64(time.Now().Unix()),
	}
	active := len(e.sessions)
	e.mu.Unlock()

	metrics.SessionsEstablished.WithLabelValues("success").Inc()
	metrics.SessionsActive.Set(float64(active))

	return &InitResult{
		SessionIDHex:        hex.EncodeToString(resp.SessionID[:]),
		GrantedCapabilities: resp.GrantedCapabilities,
		QUICHost:            host,
		QUICPort:            port,
		CertFingerprint:     fingerprint,
		TicketBytes:         resp.Ticket.Bytes,
	}, nil
}

// EndSession removes a session from the in-process table.
func (e *Engine) EndSession(sessionID [32]byte) {
	e.mu.Lock()
	_, existed := e.sessions[sessionID]
	delete(e.sessions, sessionID)
	active := len(e.sessions)
	e.mu.Unlock()

	if existed {
		metrics.SessionsClosed.Inc()
		metrics.SessionsActive.Set(float64(active))
	}
}

// ExpireSession removes a session because it aged out rather than being
// explicitly ended, incrementing SessionsExpired instead of
// SessionsClosed.
func (e *Engine) ExpireSession(sessionID [32]byte) {
	e.mu.Lock()
	_, existed := e.sessions[sessionID]
	delete(e.sessions, sessionID)
	active := len(e.sessions)
	e.mu.Unlock()

	if existed {
		metrics.SessionsExpired.Inc()
		metrics.SessionsActive.Set(float64(active))
	}
}

// ListSessions returns every session currently tracked.
func (e *Engine) ListSessions() []ActiveSession {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]ActiveSession, 0, len(e.sessions))
	for _, s := range e.sessions {
		out = append(out, s)
	}
	return out
}

// Dialer delegates the actual QUIC handshake to an external transport.
// connect_quic (spec §4.5) is a pass-through point; this package owns
// none of the wire I/O.
type Dialer interface {
	DialQUIC(ctx context.Context, host, port string, alpn []string) (net.Conn, error)
}

// ConnectQUIC dials the negotiated endpoint through dialer.
func (e *Engine) ConnectQUIC(ctx context.Context, dialer Dialer, result *InitResult, alpn []string) (net.Conn, error) {
	conn, err := dialer.DialQUIC(ctx, result.QUICHost, result.QUICPort, alpn)
	if err != nil {
		return nil, zrcerr.Wrap(zrcerr.KindTransport, "connect quic", err)
	}
	return conn, nil
}

// Valid namespace guard: granted_capabilities must never exceed the
// pairing's granted permissions mask — callers building a Response
// outside this engine (e.g. test fixtures, the device side) should use
// this to self-check before signing.
func ValidateGrantedCapabilities(granted, pairingPerms uint32) error {
	if granted&^pairingPerms != 0 {
		return zrcerr.New(zrcerr.KindPermissionDenied, "granted capabilities exceed pairing permissions")
	}
	return nil
}
