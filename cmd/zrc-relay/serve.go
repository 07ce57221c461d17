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

package main

import (
	"encoding/hex"
	"net/http"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zrc-project/zrc/config"
	"github.com/zrc-project/zrc/internal/logger"
	"github.com/zrc-project/zrc/internal/metrics"
	"github.com/zrc-project/zrc/internal/relay"
	"github.com/zrc-project/zrc/internal/zrcerr"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay admission server, admin API, and janitor sweep",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "load config", err)
	}

	log := logger.NewDefaultLogger()
	log.SetLevel(levelFromString(cfg.Logging.Level))

	relayIDBytes, err := hex.DecodeString(cfg.Relay.RelayIDHex)
	if err != nil || len(relayIDBytes) != 16 {
		return zrcerr.New(zrcerr.KindInvalidInput, "relay.relay_id must be 32 hex characters")
	}
	var relayID [16]byte
	copy(relayID[:], relayIDBytes)

	allocator := relay.NewAllocator(relayID, cfg.Relay.MaxAllocations)

	janitor := relay.NewJanitor(allocator, cfg.Relay.SweepInterval, cfg.Relay.IdleTimeout, log)
	janitor.Start()
	defer janitor.Stop()

	adminToken := os.Getenv(cfg.Relay.AdminTokenEnv)
	admin := relay.NewAdminServer(allocator, adminToken)

	if cfg.Health.Enabled {
		path := cfg.Health.Path
		if path == "" {
			path = "/healthz"
		}
		mux := http.NewServeMux()
		mux.HandleFunc(path, relay.HealthHandler(allocator))
		go func() {
			if err := http.ListenAndServe(healthAddr(cfg.Health.Port), mux); err != nil {
				log.Error("health server stopped", logger.String("error", err.Error()))
			}
		}()
	}

	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.StartServer(metricsAddr(cfg.Metrics.Port)); err != nil {
				log.Error("metrics server stopped", logger.String("error", err.Error()))
			}
		}()
	}

	log.Info("relay admin server listening",
		logger.String("addr", cfg.Relay.AdminListenAddr),
		logger.Int("max_allocations", cfg.Relay.MaxAllocations))

	return http.ListenAndServe(cfg.Relay.AdminListenAddr, admin.Router())
}

func levelFromString(s string) logger.Level {
	switch s {
	case "debug":
		return logger.DebugLevel
	case "warn":
		return logger.WarnLevel
	case "error":
		return logger.ErrorLevel
	default:
		return logger.InfoLevel
	}
}

func metricsAddr(port int) string {
	if port == 0 {
		port = 9090
	}
	return ":" + strconv.Itoa(port)
}

func healthAddr(port int) string {
	if port == 0 {
		port = 8086
	}
	return ":" + strconv.Itoa(port)
}
