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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RelayAllocationsCreated tracks relay allocations admitted.
	RelayAllocationsCreated = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "allocations_created_total",
			Help:      "Total number of relay allocations admitted",
		},
	)

	// RelayAllocationsTerminated tracks relay allocations torn down by reason.
	RelayAllocationsTerminated = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "allocations_terminated_total",
			Help:      "Total number of relay allocations terminated by reason",
		},
		[]string{"reason"}, // admin_requested, expired, idle, quota_exceeded
	)

	// RelayActiveAllocations tracks currently live relay allocations.
	RelayActiveAllocations = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "allocations_active",
			Help:      "Number of currently active relay allocations",
		},
	)

	// RelayBytesTransferred tracks bytes relayed per direction.
	RelayBytesTransferred = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "bytes_transferred_total",
			Help:      "Total bytes relayed",
		},
		[]string{"direction"}, // read, write
	)

	// RelayQuotaWarnings tracks the one-shot 90% quota warning firing.
	RelayQuotaWarnings = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "quota_warnings_total",
			Help:      "Total number of allocations that crossed the quota warning threshold",
		},
	)
)
