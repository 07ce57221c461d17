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
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zrc-project/zrc/internal/update"
	"github.com/zrc-project/zrc/internal/zrcerr"
)

var (
	offlineManifestFile string
	offlineArtifactFile string
	offlineOutputPath   string
)

var offlineCmd = &cobra.Command{
	Use:   "offline",
	Short: "Export or import the sneakernet .zrcu package format",
}

var offlineExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Pack a verified manifest and artifact into a .zrcu file",
	Long: `Builds a self-contained .zrcu package from a manifest and its artifact,
refusing to pack an artifact that doesn't match the manifest's declared hash
(spec §4.9).`,
	RunE: runOfflineExport,
}

var offlineImportCmd = &cobra.Command{
	Use:   "import <zrcu-file>",
	Short: "Unpack a .zrcu file, printing its manifest and writing the artifact",
	Args:  cobra.ExactArgs(1),
	RunE:  runOfflineImport,
}

func init() {
	rootCmd.AddCommand(offlineCmd)
	offlineCmd.AddCommand(offlineExportCmd)
	offlineCmd.AddCommand(offlineImportCmd)

	offlineExportCmd.Flags().StringVar(&offlineManifestFile, "manifest-file", "", "path to a verified manifest envelope's inner manifest JSON (required)")
	offlineExportCmd.Flags().StringVar(&offlineArtifactFile, "artifact", "", "path to the artifact matching the manifest's hash (required)")
	offlineExportCmd.Flags().StringVarP(&offlineOutputPath, "output", "o", "", "path to write the .zrcu package to (required)")
	_ = offlineExportCmd.MarkFlagRequired("manifest-file")
	_ = offlineExportCmd.MarkFlagRequired("artifact")
	_ = offlineExportCmd.MarkFlagRequired("output")

	offlineImportCmd.Flags().StringVarP(&offlineOutputPath, "output", "o", "", "path to write the extracted artifact to (required)")
	_ = offlineImportCmd.MarkFlagRequired("output")
}

func runOfflineExport(cmd *cobra.Command, args []string) error {
	manifestJSON, err := readFile(offlineManifestFile)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "read manifest file", err)
	}
	var manifest update.Manifest
	if err := json.Unmarshal(manifestJSON, &manifest); err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "parse manifest JSON", err)
	}

	artifact, err := readFile(offlineArtifactFile)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "read artifact", err)
	}

	pkg, err := update.ExportOffline(manifest, artifact)
	if err != nil {
		return err
	}
	if err := writeFile(offlineOutputPath, pkg); err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "write .zrcu package", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "packed %s into %s (%d bytes)\n", manifest.Version, offlineOutputPath, len(pkg))
	return nil
}

func runOfflineImport(cmd *cobra.Command, args []string) error {
	data, err := readFile(args[0])
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "read .zrcu package", err)
	}

	manifest, artifact, err := update.ImportOffline(data)
	if err != nil {
		return err
	}
	if err := writeFile(offlineOutputPath, artifact); err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "write extracted artifact", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "version:       %s\n", manifest.Version)
	fmt.Fprintf(cmd.OutOrStdout(), "platform:      %s\n", manifest.Platform)
	fmt.Fprintf(cmd.OutOrStdout(), "artifact_size: %d\n", manifest.ArtifactSize)
	fmt.Fprintf(cmd.OutOrStdout(), "artifact written to %s\n", offlineOutputPath)
	return nil
}
