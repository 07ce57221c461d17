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
	"time"

	"github.com/zrc-project/zrc/internal/logger"
)

// Janitor periodically sweeps an Allocator for stale entries. Grounded
// on the teacher's Manager cleanup-ticker loop (core/session/manager.go).
type Janitor struct {
	allocator   *Allocator
	interval    time.Duration
	idleTimeout time.Duration
	log         logger.Logger

	ticker *time.Ticker
	stop   chan struct{}
}

// NewJanitor builds a janitor sweeping every interval, expiring
// allocations idle longer than idleTimeout.
func NewJanitor(allocator *Allocator, interval, idleTimeout time.Duration, log logger.Logger) *Janitor {
	return &Janitor{
		allocator:   allocator,
		interval:    interval,
		idleTimeout: idleTimeout,
		log:         log,
		stop:        make(chan struct{}),
	}
}

// Start begins the background sweep goroutine.
func (j *Janitor) Start() {
	j.ticker = time.NewTicker(j.interval)
	go j.run()
}

// Stop halts the sweep goroutine.
func (j *Janitor) Stop() {
	close(j.stop)
	if j.ticker != nil {
		j.ticker.Stop()
	}
}

func (j *Janitor) run() {
	for {
		select {
		case <-j.ticker.C:
			n := j.allocator.ExpireStale(j.idleTimeout)
			if n > 0 && j.log != nil {
				j.log.Info("relay allocations expired", logger.Int("count", n))
			}
		case <-j.stop:
			return
		}
	}
}
