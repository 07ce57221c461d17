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
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/zrc-project/zrc/internal/metrics"
	"github.com/zrc-project/zrc/internal/zrcerr"
)

const (
	executableFile = "executable"
	metadataFile   = "metadata.json"
	hashFile       = "hash.sha256"
)

// BackupMetadata is the metadata.json sidecar recorded alongside each
// backup: the pre-update version, timestamp, and platform.
type BackupMetadata struct {
	Version   string `json:"version"`
	CreatedAt int64  `json:"created_at"`
	Platform  string `json:"platform"`
}

// BackupInfo describes one backup directory on disk.
type BackupInfo struct {
	Version   string
	CreatedAt time.Time
	Path      string
	Hash      string
}

func (b BackupInfo) executablePath() string { return filepath.Join(b.Path, executableFile) }
func (b BackupInfo) metadataPath() string    { return filepath.Join(b.Path, metadataFile) }
func (b BackupInfo) hashPath() string        { return filepath.Join(b.Path, hashFile) }

// RollbackManager creates, lists, prunes, and restores version backups
// (spec §4.9, grounded in original_source's rollback.rs).
type RollbackManager struct {
	backupDir  string
	maxBackups int
	now        func() time.Time
}

// NewRollbackManager builds a manager storing backups under backupDir,
// retaining at most maxBackups.
func NewRollbackManager(backupDir string, maxBackups int) *RollbackManager {
	return &RollbackManager{backupDir: backupDir, maxBackups: maxBackups, now: time.Now}
}

// BackupFile copies source (the current executable) into a new
// backup-{version}-{unix_ts}/ directory alongside its hash and
// metadata sidecar, then prunes backups beyond max_backups.
func (r *RollbackManager) BackupFile(source, version, platform string) (BackupInfo, error) {
	if err := os.MkdirAll(r.backupDir, 0o700); err != nil {
		return BackupInfo{}, zrcerr.Wrap(zrcerr.KindInternal, "create backup directory", err)
	}

	now := r.now()
	name := fmt.Sprintf("backup-%s-%d", version, now.Unix())
	backupPath := filepath.Join(r.backupDir, name)
	if err := os.MkdirAll(backupPath, 0o700); err != nil {
		return BackupInfo{}, zrcerr.Wrap(zrcerr.KindInternal, "create backup entry", err)
	}

	exeDest := filepath.Join(backupPath, executableFile)
	if err := copyFile(source, exeDest); err != nil {
		return BackupInfo{}, zrcerr.Wrap(zrcerr.KindInternal, "copy executable", err)
	}

	hash, err := hashFileSHA256(exeDest)
	if err != nil {
		return BackupInfo{}, err
	}
	if err := os.WriteFile(filepath.Join(backupPath, hashFile), []byte(hash), 0o600); err != nil {
		return BackupInfo{}, zrcerr.Wrap(zrcerr.KindInternal, "write backup hash", err)
	}

	meta := BackupMetadata{Version: version, CreatedAt: now.Unix(), Platform: platform}
	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return BackupInfo{}, zrcerr.Wrap(zrcerr.KindInternal, "marshal backup metadata", err)
	}
	if err := os.WriteFile(filepath.Join(backupPath, metadataFile), metaJSON, 0o600); err != nil {
		return BackupInfo{}, zrcerr.Wrap(zrcerr.KindInternal, "write backup metadata", err)
	}

	info := BackupInfo{Version: version, CreatedAt: now, Path: backupPath, Hash: hash}

	if err := r.Prune(); err != nil {
		return info, err
	}
	return info, nil
}

// ListBackups returns every valid backup, newest first. Directories
// missing metadata.json are skipped.
func (r *RollbackManager) ListBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(r.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, zrcerr.Wrap(zrcerr.KindInternal, "read backup directory", err)
	}

	var backups []BackupInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(r.backupDir, entry.Name())
		metaPath := filepath.Join(path, metadataFile)
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}
		var meta BackupMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		hashBytes, _ := os.ReadFile(filepath.Join(path, hashFile))
		backups = append(backups, BackupInfo{
			Version:   meta.Version,
			CreatedAt: time.Unix(meta.CreatedAt, 0),
			Path:      path,
			Hash:      string(hashBytes),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// LatestBackup returns the newest backup, if any.
func (r *RollbackManager) LatestBackup() (*BackupInfo, error) {
	backups, err := r.ListBackups()
	if err != nil {
		return nil, err
	}
	if len(backups) == 0 {
		return nil, nil
	}
	return &backups[0], nil
}

// Prune removes backups beyond max_backups, oldest first, always
// retaining at least one.
func (r *RollbackManager) Prune() error {
	backups, err := r.ListBackups()
	if err != nil {
		return err
	}
	keep := r.maxBackups
	if keep < 1 {
		keep = 1
	}
	if len(backups) <= keep {
		return nil
	}
	for _, b := range backups[keep:] {
		_ = os.RemoveAll(b.Path)
	}
	return nil
}

// VerifyIntegrity recomputes the backup executable's hash and compares
// it against the stored hash.sha256.
func (r *RollbackManager) VerifyIntegrity(backup BackupInfo) (bool, error) {
	if _, err := os.Stat(backup.executablePath()); err != nil {
		return false, nil
	}
	stored, err := os.ReadFile(backup.hashPath())
	if err != nil {
		return false, nil
	}
	computed, err := hashFileSHA256(backup.executablePath())
	if err != nil {
		return false, err
	}
	return string(stored) == computed, nil
}

// RollbackTo restores currentExePath from backup after verifying its
// integrity (spec §4.9: "on failure the rollback manager restores the
// previously-backed-up executable"). The backup is copied to a temporary
// file beside currentExePath and renamed over it, which is atomic on
// POSIX; there is no separate Windows path.
func (r *RollbackManager) RollbackTo(backup BackupInfo, currentExePath string) error {
	ok, err := r.VerifyIntegrity(backup)
	if err != nil {
		return err
	}
	if !ok {
		metrics.UpdateRollbacks.WithLabelValues("corrupt_backup").Inc()
		return zrcerr.New(zrcerr.KindVerification, "backup integrity check failed")
	}
	tmpPath := currentExePath + ".rollback-tmp"
	if err := copyFile(backup.executablePath(), tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		return zrcerr.Wrap(zrcerr.KindInternal, "restore backup", err)
	}
	if err := os.Rename(tmpPath, currentExePath); err != nil {
		_ = os.Remove(tmpPath)
		return zrcerr.Wrap(zrcerr.KindInternal, "restore backup", err)
	}
	metrics.UpdateRollbacks.WithLabelValues("restored").Inc()
	return nil
}

func hashFileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", zrcerr.Wrap(zrcerr.KindInternal, "open file for hashing", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", zrcerr.Wrap(zrcerr.KindInternal, "hash file", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o755)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
