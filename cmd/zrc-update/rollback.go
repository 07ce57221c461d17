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

	"github.com/spf13/cobra"

	"github.com/zrc-project/zrc/internal/zrcerr"
)

var rollbackExecutablePath string
var rollbackVersion string

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "List or restore previous executable backups",
}

var rollbackListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available backups, newest first",
	RunE:  runRollbackList,
}

var rollbackRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore a backup over --executable",
	Long: `Restores the newest backup, or the one matching --version if given,
over --executable, after verifying its hash against hash.sha256 (spec
§4.9).`,
	RunE: runRollbackRestore,
}

func init() {
	rootCmd.AddCommand(rollbackCmd)
	rollbackCmd.AddCommand(rollbackListCmd)
	rollbackCmd.AddCommand(rollbackRestoreCmd)

	rollbackRestoreCmd.Flags().StringVar(&rollbackExecutablePath, "executable", "", "path to overwrite with the restored backup (required)")
	rollbackRestoreCmd.Flags().StringVar(&rollbackVersion, "version", "", "restore this version instead of the newest backup")
	_ = rollbackRestoreCmd.MarkFlagRequired("executable")
}

func runRollbackList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "load config", err)
	}
	rollback := buildRollbackManager(cfg)

	backups, err := rollback.ListBackups()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no backups found")
		return nil
	}
	for _, b := range backups {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", b.Version, b.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"), b.Path)
	}
	return nil
}

func runRollbackRestore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "load config", err)
	}
	rollback := buildRollbackManager(cfg)

	backups, err := rollback.ListBackups()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return zrcerr.New(zrcerr.KindInvalidInput, "no backups available")
	}

	target := backups[0]
	if rollbackVersion != "" {
		found := false
		for _, b := range backups {
			if b.Version == rollbackVersion {
				target = b
				found = true
				break
			}
		}
		if !found {
			return zrcerr.New(zrcerr.KindInvalidInput, "no backup found for version "+rollbackVersion)
		}
	}

	if err := rollback.RollbackTo(target, rollbackExecutablePath); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "restored %s from %s\n", target.Version, target.Path)
	return nil
}
