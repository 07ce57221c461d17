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
	"encoding/hex"
	"encoding/json"
	"os"
	"sync"
)

// Sink receives every emitted event. A failing sink must not block or
// fail the others (spec §4.8, §7 "the audit logger's sink failures do
// not propagate to the action being audited").
type Sink interface {
	Write(ctx context.Context, e Event) error
}

// record is the on-the-wire JSON shape for file and in-memory
// inspection — never the signable bytes, which are computed separately.
type record struct {
	Type          string `json:"type"`
	Timestamp     uint64 `json:"timestamp"`
	DeviceID      string `json:"device_id"`
	OperatorID    string `json:"operator_id,omitempty"`
	Requested     uint32 `json:"requested,omitempty"`
	Allowed       uint32 `json:"allowed,omitempty"`
	Reason        string `json:"reason,omitempty"`
	AllocationID  string `json:"allocation_id,omitempty"`
	Version       string `json:"version,omitempty"`
	Detail        string `json:"detail,omitempty"`
	SignatureHex  string `json:"signature_hex,omitempty"`
}

func toRecord(e Event) record {
	r := record{
		Type:      e.Type.String(),
		Timestamp: e.Timestamp,
		DeviceID:  hex.EncodeToString(e.DeviceID[:]),
		Requested: e.Requested,
		Allowed:   e.Allowed,
		Reason:    e.Reason,
		Version:   e.Version,
		Detail:    e.Detail,
	}
	if e.HasOperatorID {
		r.OperatorID = hex.EncodeToString(e.OperatorID[:])
	}
	if e.Type == TypeRelayAllocationCreated || e.Type == TypeRelayAllocationTerminated {
		r.AllocationID = hex.EncodeToString(e.AllocationID[:])
	}
	if e.Signed {
		r.SignatureHex = hex.EncodeToString(e.Signature[:])
	}
	return r
}

// MemorySink is a fixed-capacity ring buffer; once full, the oldest
// event is dropped to admit the newest (spec §4.8).
type MemorySink struct {
	mu       sync.Mutex
	capacity int
	events   []Event
}

// NewMemorySink builds a ring buffer holding at most capacity events.
func NewMemorySink(capacity int) *MemorySink {
	return &MemorySink{capacity: capacity}
}

func (s *MemorySink) Write(ctx context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	if len(s.events) > s.capacity {
		s.events = s.events[len(s.events)-s.capacity:]
	}
	return nil
}

// Events returns a snapshot of the buffered events, oldest first.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// FileSink appends one JSON record per line to an append-only file.
type FileSink struct {
	mu   sync.Mutex
	path string
}

// NewFileSink opens (creating if absent) an append-only event log at
// path.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	_ = f.Close()
	return &FileSink{path: path}, nil
}

func (s *FileSink) Write(ctx context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := json.Marshal(toRecord(e))
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = f.Write(data)
	return err
}
