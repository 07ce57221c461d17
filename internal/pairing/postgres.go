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

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zrc-project/zrc/internal/metrics"
	"github.com/zrc-project/zrc/internal/zrcerr"
)

// postgresSchema creates the pairings table if it does not already exist.
// Run once by NewPostgresStore so a fresh deployment needs no separate
// migration step for this single table.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS pairings (
	device_id          TEXT PRIMARY KEY,
	operator_id        TEXT NOT NULL,
	device_sign_pub    TEXT NOT NULL,
	device_kex_pub     TEXT NOT NULL,
	operator_sign_pub  TEXT NOT NULL,
	operator_kex_pub   TEXT NOT NULL,
	granted_perms      INTEGER NOT NULL,
	unattended_enabled BOOLEAN NOT NULL,
	paired_at          BIGINT NOT NULL,
	last_session       BIGINT NOT NULL
)`

// PostgresStore is a pairing Store backed by a connection pool, grounded
// on the teacher's pkg/storage/postgres.Store: one pgxpool.Pool, plain
// SQL, errors wrapped with zrcerr instead of fmt.Errorf. Used when
// config.PairingConfig.Backend is "postgres" (multi-controller
// deployments sharing one pairing table across instances).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn, verifies the connection, and ensures
// the pairings table exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, zrcerr.Wrap(zrcerr.KindInternal, "create postgres pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, zrcerr.Wrap(zrcerr.KindInternal, "ping postgres", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, zrcerr.Wrap(zrcerr.KindInternal, "create pairings table", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() { s.pool.Close() }

func (s *PostgresStore) Get(ctx context.Context, deviceIDHex string) (*Record, error) {
	const query = `
		SELECT device_id, operator_id, device_sign_pub, device_kex_pub,
		       operator_sign_pub, operator_kex_pub, granted_perms,
		       unattended_enabled, paired_at, last_session
		FROM pairings WHERE device_id = $1`

	var rj recordJSON
	err := s.pool.QueryRow(ctx, query, deviceIDHex).Scan(
		&rj.DeviceID, &rj.OperatorID, &rj.DeviceSignPub, &rj.DeviceKexPub,
		&rj.OperatorSignPub, &rj.OperatorKexPub, &rj.GrantedPerms,
		&rj.UnattendedEnabled, &rj.PairedAt, &rj.LastSession,
	)
	if err == pgx.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, zrcerr.Wrap(zrcerr.KindInternal, "query pairing record", err)
	}
	return fromJSON(rj)
}

func (s *PostgresStore) List(ctx context.Context) ([]*Record, error) {
	const query = `
		SELECT device_id, operator_id, device_sign_pub, device_kex_pub,
		       operator_sign_pub, operator_kex_pub, granted_perms,
		       unattended_enabled, paired_at, last_session
		FROM pairings ORDER BY paired_at`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, zrcerr.Wrap(zrcerr.KindInternal, "list pairing records", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		var rj recordJSON
		if err := rows.Scan(
			&rj.DeviceID, &rj.OperatorID, &rj.DeviceSignPub, &rj.DeviceKexPub,
			&rj.OperatorSignPub, &rj.OperatorKexPub, &rj.GrantedPerms,
			&rj.UnattendedEnabled, &rj.PairedAt, &rj.LastSession,
		); err != nil {
			return nil, zrcerr.Wrap(zrcerr.KindInternal, "scan pairing record", err)
		}
		rec, err := fromJSON(rj)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, zrcerr.Wrap(zrcerr.KindInternal, "iterate pairing records", err)
	}
	return out, nil
}

func (s *PostgresStore) Put(ctx context.Context, rec *Record) error {
	if !rec.Valid() {
		return zrcerr.New(zrcerr.KindInvalidInput, "pairing record has no granted permissions")
	}
	rj := toJSON(rec)
	const query = `
		INSERT INTO pairings (device_id, operator_id, device_sign_pub, device_kex_pub,
		       operator_sign_pub, operator_kex_pub, granted_perms, unattended_enabled,
		       paired_at, last_session)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (device_id) DO UPDATE SET
			operator_id = EXCLUDED.operator_id,
			device_sign_pub = EXCLUDED.device_sign_pub,
			device_kex_pub = EXCLUDED.device_kex_pub,
			operator_sign_pub = EXCLUDED.operator_sign_pub,
			operator_kex_pub = EXCLUDED.operator_kex_pub,
			granted_perms = EXCLUDED.granted_perms,
			unattended_enabled = EXCLUDED.unattended_enabled,
			paired_at = EXCLUDED.paired_at,
			last_session = EXCLUDED.last_session`

	if _, err := s.pool.Exec(ctx, query,
		rj.DeviceID, rj.OperatorID, rj.DeviceSignPub, rj.DeviceKexPub,
		rj.OperatorSignPub, rj.OperatorKexPub, rj.GrantedPerms,
		rj.UnattendedEnabled, rj.PairedAt, rj.LastSession,
	); err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "upsert pairing record", err)
	}

	count, err := s.count(ctx)
	if err == nil {
		metrics.ActivePairings.Set(float64(count))
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, deviceIDHex string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM pairings WHERE device_id = $1`, deviceIDHex); err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "delete pairing record", err)
	}
	count, err := s.count(ctx)
	if err == nil {
		metrics.ActivePairings.Set(float64(count))
	}
	return nil
}

func (s *PostgresStore) count(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM pairings`).Scan(&n)
	return n, err
}

func (s *PostgresStore) Export(ctx context.Context, path string) error {
	recs, err := s.List(ctx)
	if err != nil {
		return err
	}
	return writeExportFile(path, recs)
}

// Import merges records from path into the table, last-write-wins,
// mirroring FileStore.Import's semantics (spec §4.4).
func (s *PostgresStore) Import(ctx context.Context, path string) (int, error) {
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
