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
	"runtime"

	"github.com/spf13/cobra"

	"github.com/zrc-project/zrc/internal/update"
	"github.com/zrc-project/zrc/internal/zrcerr"
)

var (
	applyManifestFile   string
	applyArtifactPath   string
	applyCurrentVer     string
	applyExecutablePath string
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Back up the running executable and install a verified artifact",
	Long: `Verifies the manifest and the downloaded artifact's hash, backs up the
executable at --executable via the rollback manager, installs the artifact
in its place, and rolls the backup back in if installing the artifact
fails. No integrity check is run on the executable after installation.`,
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().StringVar(&applyManifestFile, "manifest-file", "", "path to a verified manifest envelope (required)")
	applyCmd.Flags().StringVar(&applyArtifactPath, "artifact", "", "path to the downloaded artifact (required)")
	applyCmd.Flags().StringVar(&applyCurrentVer, "current-version", "", "version of the executable being replaced, recorded in the backup (required)")
	applyCmd.Flags().StringVar(&applyExecutablePath, "executable", "", "path to the running executable to replace (required)")
	_ = applyCmd.MarkFlagRequired("manifest-file")
	_ = applyCmd.MarkFlagRequired("artifact")
	_ = applyCmd.MarkFlagRequired("current-version")
	_ = applyCmd.MarkFlagRequired("executable")
}

func runApply(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "load config", err)
	}
	verifier, err := buildVerifier(cfg)
	if err != nil {
		return err
	}

	envelope, err := readFile(applyManifestFile)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "read manifest file", err)
	}
	manifest, err := verifier.VerifyAndParse(envelope)
	if err != nil {
		return err
	}

	artifact, err := os.Open(applyArtifactPath)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "open artifact", err)
	}
	if err := update.VerifyArtifact(artifact, manifest.ArtifactSize, manifest.ArtifactHash); err != nil {
		artifact.Close()
		return err
	}
	artifact.Close()

	rollback := buildRollbackManager(cfg)
	platform := update.ExpectedPlatform(runtime.GOOS, runtime.GOARCH)
	backup, err := rollback.BackupFile(applyExecutablePath, applyCurrentVer, platform)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "back up current executable", err)
	}

	if err := installArtifact(applyArtifactPath, applyExecutablePath); err != nil {
		if rbErr := rollback.RollbackTo(backup, applyExecutablePath); rbErr != nil {
			return zrcerr.Wrap(zrcerr.KindInternal, "install failed and rollback failed: "+rbErr.Error(), err)
		}
		return zrcerr.Wrap(zrcerr.KindInternal, "install failed, previous executable restored", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "installed %s, previous version backed up at %s\n", manifest.Version, backup.Path)
	return nil
}

func installArtifact(artifactPath, executablePath string) error {
	in, err := os.Open(artifactPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(executablePath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o755)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.ReadFrom(in); err != nil {
		return err
	}
	return out.Sync()
}
