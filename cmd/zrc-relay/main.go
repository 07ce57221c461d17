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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zrc-project/zrc/internal/zrcerr"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "zrc-relay",
	Short: "ZRC relay daemon - bandwidth-throttled session fallback transport",
	Long: `zrc-relay runs the admission-controlled relay described by the ZRC
specification: it allocates bandwidth-limited, quota-bounded connections for
sessions that cannot establish a direct or mesh path, exposes a bearer-token
admin surface for inspecting and terminating allocations, and periodically
sweeps idle or expired allocations.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(zrcerr.ExitCodeOf(err))
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (YAML or JSON)")

	// Note: commands are registered in their respective files
	// - serve.go: serveCmd
}
