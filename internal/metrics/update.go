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
	// UpdateVerifications tracks update manifest verification outcomes.
	UpdateVerifications = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "update",
			Name:      "verifications_total",
			Help:      "Total number of update manifest verifications by outcome",
		},
		[]string{"outcome"}, // verified, rejected
	)

	// UpdateDownloadDuration tracks artifact download duration.
	UpdateDownloadDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "update",
			Name:      "download_duration_seconds",
			Help:      "Update artifact download duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14), // 100ms to ~14min
		},
	)

	// UpdateDownloadBytes tracks artifact bytes downloaded, including resumes.
	UpdateDownloadBytes = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "update",
			Name:      "download_bytes_total",
			Help:      "Total update artifact bytes downloaded",
		},
	)

	// UpdateRollbacks tracks rollback operations by outcome.
	UpdateRollbacks = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "update",
			Name:      "rollbacks_total",
			Help:      "Total number of rollback operations by outcome",
		},
		[]string{"outcome"}, // restored, corrupt_backup, no_backup
	)
)
