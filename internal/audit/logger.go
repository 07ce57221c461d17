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

package audit

import (
	"context"
	"crypto/ed25519"
	"time"

	"golang.org/x/sync/errgroup"

	zrclogger "github.com/zrc-project/zrc/internal/logger"
)

// Signer optionally signs emitted events under a device identity.
type Signer interface {
	Sign(msg []byte) []byte
	SignPub() ed25519.PublicKey
}

// Logger fans an event out to every registered sink in parallel. Sinks
// are independent: one sink failing does not block or fail the others
// (spec §4.8, §7).
type Logger struct {
	sinks  []Sink
	signer Signer
	log    zrclogger.Logger
}

// New builds a Logger writing to sinks. signer may be nil, in which
// case events are emitted unsigned.
func New(signer Signer, log zrclogger.Logger, sinks ...Sink) *Logger {
	return &Logger{sinks: sinks, signer: signer, log: log}
}

// Emit signs (if a signer was configured) and writes e to every sink
// concurrently, waiting for all writes before returning. Sink errors
// are logged, never returned — the caller's action is never rolled
// back by an audit failure.
func (l *Logger) Emit(ctx context.Context, e Event) {
	if l.signer != nil {
		sig := l.signer.Sign(e.signableFields())
		copy(e.Signature[:], sig)
		e.Signed = true
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, sink := range l.sinks {
		sink := sink
		g.Go(func() error {
			if err := sink.Write(gctx, e); err != nil && l.log != nil {
				l.log.Warn("audit sink write failed", zrclogger.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
}

// ReportPermissionEscalation implements session.PermissionEscalationReporter,
// wiring the session engine's escalation detection into the audit log
// without session importing this package directly.
func (l *Logger) ReportPermissionEscalation(deviceID, operatorID [32]byte, requested, granted uint32) {
	e := Event{
		Type:          TypePermissionEscalationAttempted,
		Timestamp:     uint64(time.Now().Unix()),
		DeviceID:      deviceID,
		OperatorID:    operatorID,
		HasOperatorID: true,
		Requested:     requested,
		Allowed:       granted,
	}
	l.Emit(context.Background(), e)
}
