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
	"encoding/hex"
	"encoding/json"

	"github.com/zrc-project/zrc/internal/zrcerr"
)

// requestJSON/receiptJSON are the hex-encoded JSON interchange forms of
// PairRequest/PairReceipt. Raw wire I/O is an external transport concern
// (spec §4.3 send_pair_request/wait_for_receipt); this is the format a
// thin CLI uses to hand a request or receipt to its counterpart process
// out of band (file, pipe), mirroring this package's own recordJSON
// export format.
type requestJSON struct {
	UserID          string `json:"user_id"`
	OperatorSignPub string `json:"operator_sign_pub"`
	OperatorKexPub  string `json:"operator_kex_pub"`
	DeviceID        string `json:"device_id"`
	RequestedPerms  uint32 `json:"requested_perms"`
	CreatedAt       uint64 `json:"created_at"`
	InviteProof     string `json:"invite_proof"`
}

// EncodeRequestJSON renders req as interchange JSON.
func EncodeRequestJSON(req *PairRequest) ([]byte, error) {
	rj := requestJSON{
		UserID:          hex.EncodeToString(req.UserID[:]),
		OperatorSignPub: hex.EncodeToString(req.OperatorSignPub[:]),
		OperatorKexPub:  hex.EncodeToString(req.OperatorKexPub[:]),
		DeviceID:        hex.EncodeToString(req.DeviceID[:]),
		RequestedPerms:  req.RequestedPerms,
		CreatedAt:       req.CreatedAt,
		InviteProof:     hex.EncodeToString(req.InviteProof[:]),
	}
	data, err := json.MarshalIndent(rj, "", "  ")
	if err != nil {
		return nil, zrcerr.Wrap(zrcerr.KindInternal, "marshal pair request", err)
	}
	return data, nil
}

// DecodeRequestJSON parses the interchange JSON produced by
// EncodeRequestJSON.
func DecodeRequestJSON(data []byte) (*PairRequest, error) {
	var rj requestJSON
	if err := json.Unmarshal(data, &rj); err != nil {
		return nil, zrcerr.Wrap(zrcerr.KindInvalidInput, "parse pair request", err)
	}
	req := &PairRequest{RequestedPerms: rj.RequestedPerms, CreatedAt: rj.CreatedAt}
	fields := []struct {
		src string
		dst *[32]byte
	}{
		{rj.UserID, &req.UserID},
		{rj.OperatorSignPub, &req.OperatorSignPub},
		{rj.OperatorKexPub, &req.OperatorKexPub},
		{rj.DeviceID, &req.DeviceID},
		{rj.InviteProof, &req.InviteProof},
	}
	for _, f := range fields {
		b, err := hex.DecodeString(f.src)
		if err != nil || len(b) != 32 {
			return nil, zrcerr.New(zrcerr.KindInvalidInput, "malformed pair request field")
		}
		copy(f.dst[:], b)
	}
	return req, nil
}

type receiptJSON struct {
	OperatorID      string `json:"operator_id"`
	DeviceID        string `json:"device_id"`
	GrantedPerms    uint32 `json:"granted_perms"`
	DeviceSignature string `json:"device_signature"`
}

// EncodeReceiptJSON renders r as interchange JSON.
func EncodeReceiptJSON(r *PairReceipt) ([]byte, error) {
	rj := receiptJSON{
		OperatorID:      hex.EncodeToString(r.OperatorID[:]),
		DeviceID:        hex.EncodeToString(r.DeviceID[:]),
		GrantedPerms:    r.GrantedPerms,
		DeviceSignature: hex.EncodeToString(r.DeviceSignature[:]),
	}
	data, err := json.MarshalIndent(rj, "", "  ")
	if err != nil {
		return nil, zrcerr.Wrap(zrcerr.KindInternal, "marshal pair receipt", err)
	}
	return data, nil
}

// DecodeReceiptJSON parses the interchange JSON produced by
// EncodeReceiptJSON.
func DecodeReceiptJSON(data []byte) (*PairReceipt, error) {
	var rj receiptJSON
	if err := json.Unmarshal(data, &rj); err != nil {
		return nil, zrcerr.Wrap(zrcerr.KindInvalidInput, "parse pair receipt", err)
	}
	r := &PairReceipt{GrantedPerms: rj.GrantedPerms}
	sig, err := hex.DecodeString(rj.DeviceSignature)
	if err != nil || len(sig) != 64 {
		return nil, zrcerr.New(zrcerr.KindInvalidInput, "malformed receipt signature")
	}
	copy(r.DeviceSignature[:], sig)

	for _, f := range []struct {
		src string
		dst *[32]byte
	}{
		{rj.OperatorID, &r.OperatorID},
		{rj.DeviceID, &r.DeviceID},
	} {
		b, err := hex.DecodeString(f.src)
		if err != nil || len(b) != 32 {
			return nil, zrcerr.New(zrcerr.KindInvalidInput, "malformed receipt field")
		}
		copy(f.dst[:], b)
	}
	return r, nil
}
