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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(seed byte) *Record {
	var r Record
	for i := range r.DeviceID {
		r.DeviceID[i] = seed
	}
	for i := range r.OperatorID {
		r.OperatorID[i] = seed + 1
	}
	r.GrantedPerms = PermView | PermControl
	r.PairedAt = 1234
	return &r
}

func TestMemoryStore_PutGetList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	rec := sampleRecord(0x11)

	require.NoError(t, s.Put(ctx, rec))

	got, err := s.Get(ctx, deviceIDHex(rec.DeviceID))
	require.NoError(t, err)
	assert.Equal(t, rec.GrantedPerms, got.GrantedPerms)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemoryStore_RejectsEmptyPermissions(t *testing.T) {
	s := NewMemoryStore()
	rec := sampleRecord(0x22)
	rec.GrantedPerms = 0

	err := s.Put(context.Background(), rec)
	assert.Error(t, err)
}

func TestMemoryStore_DeleteIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	rec := sampleRecord(0x33)
	require.NoError(t, s.Put(ctx, rec))

	require.NoError(t, s.Delete(ctx, deviceIDHex(rec.DeviceID)))
	_, err := s.Get(ctx, deviceIDHex(rec.DeviceID))
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestMemoryStore_ExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := NewMemoryStore()
	require.NoError(t, src.Put(ctx, sampleRecord(0x44)))
	require.NoError(t, src.Put(ctx, sampleRecord(0x55)))

	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, src.Export(ctx, path))

	dst := NewMemoryStore()
	n, err := dst.Import(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := dst.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	fs1, err := NewFileStore(dir)
	require.NoError(t, err)
	rec := sampleRecord(0x66)
	require.NoError(t, fs1.Put(ctx, rec))

	fs2, err := NewFileStore(dir)
	require.NoError(t, err)
	got, err := fs2.Get(ctx, deviceIDHex(rec.DeviceID))
	require.NoError(t, err)
	assert.Equal(t, rec.GrantedPerms, got.GrantedPerms)
}

func TestFileStore_ImportMergesLastWriteWins(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)

	rec := sampleRecord(0x77)
	require.NoError(t, fs.Put(ctx, rec))

	updated := sampleRecord(0x77)
	updated.GrantedPerms = PermView | PermControl | PermClipboard
	path := filepath.Join(t.TempDir(), "merge.json")
	other := NewMemoryStore()
	require.NoError(t, other.Put(ctx, updated))
	require.NoError(t, other.Export(ctx, path))

	n, err := fs.Import(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := fs.Get(ctx, deviceIDHex(rec.DeviceID))
	require.NoError(t, err)
	assert.Equal(t, updated.GrantedPerms, got.GrantedPerms)
}
