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
	"context"
	"net/http"

	"github.com/zrc-project/zrc/internal/health"
)

// HealthHandler builds the config.HealthConfig.Path handler for a relay
// process: an "allocator" check that just confirms the allocator accepts
// calls (a relay with a wedged allocator can't admit any new session) and
// the overall-status/per-check JSON body the health package already
// defines.
func HealthHandler(allocator *Allocator) http.HandlerFunc {
	checker := health.NewChecker(0)
	checker.Register("allocator", func(ctx context.Context) error {
		allocator.List()
		return nil
	})
	return func(w http.ResponseWriter, r *http.Request) {
		status, results := checker.OverallStatus(r.Context())
		code := http.StatusOK
		if status == health.StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]any{
			"status": status,
			"checks": results,
		})
	}
}
