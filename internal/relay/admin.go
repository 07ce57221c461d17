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

package relay

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// AdminServer exposes the relay's operational surface: listing live
// allocations, force-terminating one, and aggregate/per-device stats.
// Bearer-token authenticated, matching the teacher's admin-surface
// pattern of a single static token checked per request.
type AdminServer struct {
	allocator *Allocator
	token     string
}

// NewAdminServer builds the admin HTTP surface for allocator, requiring
// requests to carry "Authorization: Bearer {token}".
func NewAdminServer(allocator *Allocator, token string) *AdminServer {
	return &AdminServer{allocator: allocator, token: token}
}

// Router returns a *mux.Router wired with the admin endpoints:
//
//	GET    /admin/allocations
//	DELETE /admin/allocations/{id_hex}
//	GET    /admin/stats
func (s *AdminServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.authMiddleware)
	r.HandleFunc("/admin/allocations", s.handleList).Methods(http.MethodGet)
	r.HandleFunc("/admin/allocations/{id_hex}", s.handleTerminate).Methods(http.MethodDelete)
	r.HandleFunc("/admin/stats", s.handleStats).Methods(http.MethodGet)
	return r
}

func (s *AdminServer) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const prefix = "Bearer "
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, prefix) || auth[len(prefix):] != s.token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type allocationView struct {
	ID               string `json:"id"`
	DeviceID         string `json:"device_id"`
	PeerID           string `json:"peer_id"`
	CreatedAt        uint64 `json:"created_at"`
	ExpiresAt        uint64 `json:"expires_at"`
	BandwidthLimit   uint64 `json:"bandwidth_limit"`
	QuotaBytes       uint64 `json:"quota_bytes"`
	BytesTransferred uint64 `json:"bytes_transferred"`
	LastActivity     int64  `json:"last_activity"`
	DeviceConnected  bool   `json:"device_connected"`
	PeerConnected    bool   `json:"peer_connected"`
}

func toView(info Info) allocationView {
	return allocationView{
		ID:               hex.EncodeToString(info.ID[:]),
		DeviceID:         hex.EncodeToString(info.DeviceID[:]),
		PeerID:           hex.EncodeToString(info.PeerID[:]),
		CreatedAt:        info.CreatedAt,
		ExpiresAt:        info.ExpiresAt,
		BandwidthLimit:   info.BandwidthLimit,
		QuotaBytes:       info.QuotaBytes,
		BytesTransferred: info.BytesTransferred,
		LastActivity:     info.LastActivity,
		DeviceConnected:  info.DeviceConnected,
		PeerConnected:    info.PeerConnected,
	}
}

func (s *AdminServer) handleList(w http.ResponseWriter, r *http.Request) {
	infos := s.allocator.List()
	views := make([]allocationView, 0, len(infos))
	for _, info := range infos {
		views = append(views, toView(info))
	}
	writeJSON(w, http.StatusOK, map[string]any{"allocations": views})
}

func (s *AdminServer) handleTerminate(w http.ResponseWriter, r *http.Request) {
	idHex := mux.Vars(r)["id_hex"]
	raw, err := hex.DecodeString(idHex)
	if err != nil || len(raw) != 16 {
		http.Error(w, "invalid allocation id", http.StatusBadRequest)
		return
	}
	var id [16]byte
	copy(id[:], raw)
	s.allocator.Terminate(id, "admin_requested")
	w.WriteHeader(http.StatusNoContent)
}

// statsView is the aggregate + per-device stats surface. The per-device
// breakdown supplements spec.md's totals-only admin view per
// SPEC_FULL.md's "relay admin per-device stats breakdown."
type statsView struct {
	TotalAllocations     int                      `json:"total_allocations"`
	TotalBytesTransferred uint64                  `json:"total_bytes_transferred"`
	PerDevice            map[string]deviceStats   `json:"per_device"`
}

type deviceStats struct {
	Allocations      int    `json:"allocations"`
	BytesTransferred uint64 `json:"bytes_transferred"`
}

func (s *AdminServer) handleStats(w http.ResponseWriter, r *http.Request) {
	infos := s.allocator.List()
	stats := statsView{PerDevice: make(map[string]deviceStats)}
	for _, info := range infos {
		stats.TotalAllocations++
		stats.TotalBytesTransferred += info.BytesTransferred

		key := hex.EncodeToString(info.DeviceID[:])
		d := stats.PerDevice[key]
		d.Allocations++
		d.BytesTransferred += info.BytesTransferred
		stats.PerDevice[key] = d
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
