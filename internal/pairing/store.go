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

package pairing

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/zrc-project/zrc/internal/metrics"
	"github.com/zrc-project/zrc/internal/zrcerr"
)

// ErrRecordNotFound is returned by Store.Get when no pairing exists for a
// device id.
var ErrRecordNotFound = zrcerr.New(zrcerr.KindNotPaired, "pairing record not found")

// Store persists pairing records keyed by device id (spec §4.4). Writes
// are atomic at the record level.
type Store interface {
	Get(ctx context.Context, deviceIDHex string) (*Record, error)
	List(ctx context.Context) ([]*Record, error)
	Put(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, deviceIDHex string) error
	Export(ctx context.Context, path string) error
	Import(ctx context.Context, path string) (int, error)
}

// MemoryStore is a concurrency-safe in-memory pairing store, grounded on
// the teacher's pkg/storage/memory reader-writer-lock pattern.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore creates an empty in-memory pairing store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func deviceIDHex(id [32]byte) string { return hex.EncodeToString(id[:]) }

func (s *MemoryStore) Get(_ context.Context, deviceIDHex string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[deviceIDHex]
	if !ok {
		return nil, ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Record, 0, len(s.records))
	for _, rec := range s.records {
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) Put(_ context.Context, rec *Record) error {
	if !rec.Valid() {
		return zrcerr.New(zrcerr.KindInvalidInput, "pairing record has no granted permissions")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.records[deviceIDHex(rec.DeviceID)] = &cp
	metrics.ActivePairings.Set(float64(len(s.records)))
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, deviceIDHex string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, deviceIDHex)
	metrics.ActivePairings.Set(float64(len(s.records)))
	return nil
}

// exportFile is the §6 export format: { "pairings": [record...] }.
type exportFile struct {
	Pairings []recordJSON `json:"pairings"`
}

type recordJSON struct {
	DeviceID          string `json:"device_id"`
	OperatorID        string `json:"operator_id"`
	DeviceSignPub     string `json:"device_sign_pub"`
	DeviceKexPub      string `json:"device_kex_pub"`
	OperatorSignPub   string `json:"operator_sign_pub"`
	OperatorKexPub    string `json:"operator_kex_pub"`
	GrantedPerms      uint32 `json:"granted_perms"`
	UnattendedEnabled bool   `json:"unattended_enabled"`
	PairedAt          uint64 `json:"paired_at"`
	LastSession       uint64 `json:"last_session"`
}

func toJSON(r *Record) recordJSON {
	return recordJSON{
		DeviceID:          hex.EncodeToString(r.DeviceID[:]),
		OperatorID:        hex.EncodeToString(r.OperatorID[:]),
		DeviceSignPub:     hex.EncodeToString(r.DeviceSignPub[:]),
		DeviceKexPub:      hex.EncodeToString(r.DeviceKexPub[:]),
		OperatorSignPub:   hex.EncodeToString(r.OperatorSignPub[:]),
		OperatorKexPub:    hex.EncodeToString(r.OperatorKexPub[:]),
		GrantedPerms:      r.GrantedPerms,
		UnattendedEnabled: r.UnattendedEnabled,
		PairedAt:          r.PairedAt,
		LastSession:       r.LastSession,
	}
}

func fromJSON(rj recordJSON) (*Record, error) {
	r := &Record{
		GrantedPerms:      rj.GrantedPerms,
		UnattendedEnabled: rj.UnattendedEnabled,
		PairedAt:          rj.PairedAt,
		LastSession:       rj.LastSession,
	}
	fields := []struct {
		src string
		dst *[32]byte
	}{
		{rj.DeviceID, &r.DeviceID},
		{rj.OperatorID, &r.OperatorID},
		{rj.DeviceSignPub, &r.DeviceSignPub},
		{rj.DeviceKexPub, &r.DeviceKexPub},
		{rj.OperatorSignPub, &r.OperatorSignPub},
		{rj.OperatorKexPub, &r.OperatorKexPub},
	}
	for _, f := range fields {
		b, err := hex.DecodeString(f.src)
		if err != nil || len(b) != 32 {
			return nil, zrcerr.New(zrcerr.KindInvalidInput, "malformed pairing record field")
		}
		copy(f.dst[:], b)
	}
	return r, nil
}

func (s *MemoryStore) Export(ctx context.Context, path string) error {
	recs, err := s.List(ctx)
	if err != nil {
		return err
	}
	return writeExportFile(path, recs)
}

func (s *MemoryStore) Import(ctx context.Context, path string) (int, error) {
	recs, err := readExportFile(path)
	if err != nil {
		return 0, err
	}
	for _, rec := range recs {
		if err := s.Put(ctx, rec); err != nil {
			return 0, err
		}
	}
	return len(recs), nil
}

func writeExportFile(path string, recs []*Record) error {
	ef := exportFile{Pairings: make([]recordJSON, 0, len(recs))}
	for _, r := range recs {
		ef.Pairings = append(ef.Pairings, toJSON(r))
	}
	data, err := json.MarshalIndent(ef, "", "  ")
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "marshal pairing export", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "create export dir", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "write pairing export", err)
	}
	return nil
}

func readExportFile(path string) ([]*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, zrcerr.Wrap(zrcerr.KindInvalidInput, "read pairing export", err)
	}
	var ef exportFile
	if err := json.Unmarshal(data, &ef); err != nil {
		return nil, zrcerr.Wrap(zrcerr.KindInvalidInput, "parse pairing export", err)
	}
	out := make([]*Record, 0, len(ef.Pairings))
	for _, rj := range ef.Pairings {
		rec, err := fromJSON(rj)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// FileStore is a single-file JSON-backed pairing store at
// {data_dir}/pairings.json, atomic at the whole-file level via
// write-temp/fsync/rename. It layers on MemoryStore for lookups and
// flushes to disk on every mutation, matching spec §4.4's "atomic at the
// record level" by serializing every write through one mutex.
type FileStore struct {
	mu   sync.Mutex
	path string
	mem  *MemoryStore
}

// NewFileStore loads (or initializes) a pairing store backed by
// {dataDir}/pairings.json.
func NewFileStore(dataDir string) (*FileStore, error) {
	fs := &FileStore{
		path: filepath.Join(dataDir, "pairings.json"),
		mem:  NewMemoryStore(),
	}
	if recs, err := readExportFile(fs.path); err == nil {
		for _, rec := range recs {
			_ = fs.mem.Put(context.Background(), rec)
		}
	} else if !os.IsNotExist(unwrapPathErr(err)) {
		return nil, err
	}
	return fs, nil
}

func unwrapPathErr(err error) error {
	var zerr *zrcerr.Error
	if e, ok := err.(*zrcerr.Error); ok {
		zerr = e
		if zerr.Cause != nil {
			return zerr.Cause
		}
	}
	return err
}

func (f *FileStore) flushLocked(ctx context.Context) error {
	recs, err := f.mem.List(ctx)
	if err != nil {
		return err
	}
	return atomicWriteExport(f.path, recs)
}

func atomicWriteExport(path string, recs []*Record) error {
	ef := exportFile{Pairings: make([]recordJSON, 0, len(recs))}
	for _, r := range recs {
		ef.Pairings = append(ef.Pairings, toJSON(r))
	}
	data, err := json.MarshalIndent(ef, "", "  ")
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "marshal pairing store", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "create pairing store dir", err)
	}
	tmp, err := os.CreateTemp(dir, ".pairings-*.tmp")
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "create temp pairing file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return zrcerr.Wrap(zrcerr.KindInternal, "write temp pairing file", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return zrcerr.Wrap(zrcerr.KindInternal, "chmod temp pairing file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return zrcerr.Wrap(zrcerr.KindInternal, "fsync temp pairing file", err)
	}
	if err := tmp.Close(); err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "close temp pairing file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "rename pairing file into place", err)
	}
	return nil
}

func (f *FileStore) Get(ctx context.Context, deviceIDHex string) (*Record, error) {
	return f.mem.Get(ctx, deviceIDHex)
}

func (f *FileStore) List(ctx context.Context) ([]*Record, error) {
	return f.mem.List(ctx)
}

func (f *FileStore) Put(ctx context.Context, rec *Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.mem.Put(ctx, rec); err != nil {
		return err
	}
	return f.flushLocked(ctx)
}

func (f *FileStore) Delete(ctx context.Context, deviceIDHex string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.mem.Delete(ctx, deviceIDHex); err != nil {
		return err
	}
	return f.flushLocked(ctx)
}

func (f *FileStore) Export(ctx context.Context, path string) error {
	return f.mem.Export(ctx, path)
}

// Import merges records from path by device_id, last-write-wins, and
// returns the count written (spec §4.4).
func (f *FileStore) Import(ctx context.Context, path string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	recs, err := readExportFile(path)
	if err != nil {
		return 0, err
	}
	for _, rec := range recs {
		if err := f.mem.Put(ctx, rec); err != nil {
			return 0, fmt.Errorf("import record %x: %w", rec.DeviceID[:4], err)
		}
	}
	if err := f.flushLocked(ctx); err != nil {
		return 0, err
	}
	return len(recs), nil
}
