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
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/zrc-project/zrc/internal/update"
	"github.com/zrc-project/zrc/internal/zrcerr"
)

var (
	downloadManifestFile string
	downloadOutputPath   string
	downloadResumeFrom   int64
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download and verify an update artifact",
	Long: `Verifies the given manifest envelope, then downloads its artifact to
--output, resuming from --resume-from bytes if a previous attempt was
interrupted (spec §4.9, §5 "Cancellation").`,
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().StringVar(&downloadManifestFile, "manifest-file", "", "path to a verified manifest envelope (required)")
	downloadCmd.Flags().StringVarP(&downloadOutputPath, "output", "o", "", "path to write the downloaded artifact to (required)")
	downloadCmd.Flags().Int64Var(&downloadResumeFrom, "resume-from", 0, "bytes already written to --output from a prior attempt")
	_ = downloadCmd.MarkFlagRequired("manifest-file")
	_ = downloadCmd.MarkFlagRequired("output")
}

func runDownload(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "load config", err)
	}
	verifier, err := buildVerifier(cfg)
	if err != nil {
		return err
	}

	envelope, err := readFile(downloadManifestFile)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "read manifest file", err)
	}
	manifest, err := verifier.VerifyAndParse(envelope)
	if err != nil {
		return err
	}

	flags := os.O_CREATE | os.O_WRONLY
	if downloadResumeFrom > 0 {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(downloadOutputPath, flags, 0o600)
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "open download destination", err)
	}
	defer f.Close()

	downloader := update.NewDownloader(&http.Client{Timeout: 0})
	if err := downloader.Download(context.Background(), manifest.ArtifactURL, f, downloadResumeFrom, manifest.ArtifactSize, manifest.ArtifactHash); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return zrcerr.Wrap(zrcerr.KindInternal, "close download destination", err)
	}

	if downloadResumeFrom > 0 {
		// Download only hashes the resumed tail; verify the whole file
		// now that every chunk is on disk.
		full, err := os.Open(downloadOutputPath)
		if err != nil {
			return zrcerr.Wrap(zrcerr.KindInternal, "reopen downloaded artifact", err)
		}
		defer full.Close()
		if err := update.VerifyArtifact(full, manifest.ArtifactSize, manifest.ArtifactHash); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "downloaded %s (%d bytes) to %s\n", manifest.Version, manifest.ArtifactSize, downloadOutputPath)
	return nil
}
