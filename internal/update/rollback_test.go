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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestExecutable(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o755))
	return path
}

func TestRollbackManager_BackupFileAndList(t *testing.T) {
	dir := t.TempDir()
	exe := writeTestExecutable(t, dir, "exe", []byte("v1 content"))
	mgr := NewRollbackManager(filepath.Join(dir, "backups"), 3)

	info, err := mgr.BackupFile(exe, "1.0.0", "linux-amd64")
	require.NoError(t, err)
	assert.NotEmpty(t, info.Hash)

	backups, err := mgr.ListBackups()
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, "1.0.0", backups[0].Version)
}

func TestRollbackManager_PruneRetainsNewestOnly(t *testing.T) {
	dir := t.TempDir()
	exe := writeTestExecutable(t, dir, "exe", []byte("content"))
	mgr := NewRollbackManager(filepath.Join(dir, "backups"), 2)
	base := time.Now()

	for i, v := range []string{"1.0.0", "1.1.0", "1.2.0", "1.3.0"} {
		mgr.now = func() time.Time { return base.Add(time.Duration(i) * time.Second) }
		_, err := mgr.BackupFile(exe, v, "linux-amd64")
		require.NoError(t, err)
	}

	backups, err := mgr.ListBackups()
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, "1.3.0", backups[0].Version)
	assert.Equal(t, "1.2.0", backups[1].Version)
}

func TestRollbackManager_VerifyIntegrityDetectsCorruption(t *testing.T) {
	dir := t.TempDir()
	exe := writeTestExecutable(t, dir, "exe", []byte("original"))
	mgr := NewRollbackManager(filepath.Join(dir, "backups"), 3)

	info, err := mgr.BackupFile(exe, "1.0.0", "linux-amd64")
	require.NoError(t, err)

	ok, err := mgr.VerifyIntegrity(info)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, os.WriteFile(info.executablePath(), []byte("corrupted"), 0o755))
	ok, err = mgr.VerifyIntegrity(info)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRollbackManager_RollbackToRestoresExecutable(t *testing.T) {
	dir := t.TempDir()
	exe := writeTestExecutable(t, dir, "exe", []byte("good version"))
	mgr := NewRollbackManager(filepath.Join(dir, "backups"), 3)

	info, err := mgr.BackupFile(exe, "1.0.0", "linux-amd64")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(exe, []byte("broken update"), 0o755))

	require.NoError(t, mgr.RollbackTo(info, exe))
	content, err := os.ReadFile(exe)
	require.NoError(t, err)
	assert.Equal(t, "good version", string(content))
}

func TestRollbackManager_RollbackToRejectsCorruptBackup(t *testing.T) {
	dir := t.TempDir()
	exe := writeTestExecutable(t, dir, "exe", []byte("good version"))
	mgr := NewRollbackManager(filepath.Join(dir, "backups"), 3)

	info, err := mgr.BackupFile(exe, "1.0.0", "linux-amd64")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(info.executablePath(), []byte("tampered"), 0o755))

	err = mgr.RollbackTo(info, exe)
	assert.Error(t, err)
}

func TestRollbackManager_ListBackupsEmptyWhenDirMissing(t *testing.T) {
	mgr := NewRollbackManager(filepath.Join(t.TempDir(), "never-created"), 3)
	backups, err := mgr.ListBackups()
	require.NoError(t, err)
	assert.Empty(t, backups)
}
