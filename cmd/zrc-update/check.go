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
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/zrc-project/zrc/internal/zrcerr"
)

var checkManifestFile string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fetch and verify the channel's current manifest",
	Long: `Fetches the signed manifest envelope from update.manifest_url (or
reads it from --manifest-file for an already-downloaded copy), verifies its
signatures and platform, and prints the resulting version and artifact
details (spec §4.9).`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkManifestFile, "manifest-file", "", "verify a local manifest envelope instead of fetching manifest_url")
}

func fetchManifestEnvelope(ctx context.Context, url string) ([]byte, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, zrcerr.Wrap(zrcerr.KindInvalidInput, "build manifest request", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, zrcerr.Wrap(zrcerr.KindTransport, "fetch manifest", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, zrcerr.New(zrcerr.KindTransport, fmt.Sprintf("manifest fetch: unexpected status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, zrcerr.Wrap(zrcerr.KindTransport, "read manifest body", err)
	}
	return body, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return zrcerr.Wrap(zrcerr.KindInvalidInput, "load config", err)
	}
	verifier, err := buildVerifier(cfg)
	if err != nil {
		return err
	}

	var envelope []byte
	if checkManifestFile != "" {
		envelope, err = readFile(checkManifestFile)
		if err != nil {
			return zrcerr.Wrap(zrcerr.KindInvalidInput, "read manifest file", err)
		}
	} else {
		envelope, err = fetchManifestEnvelope(context.Background(), cfg.Update.ManifestURL)
		if err != nil {
			return err
		}
	}

	manifest, err := verifier.VerifyAndParse(envelope)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "version:       %s\n", manifest.Version)
	fmt.Fprintf(cmd.OutOrStdout(), "platform:      %s\n", manifest.Platform)
	fmt.Fprintf(cmd.OutOrStdout(), "channel:       %s\n", manifest.Channel)
	fmt.Fprintf(cmd.OutOrStdout(), "artifact_url:  %s\n", manifest.ArtifactURL)
	fmt.Fprintf(cmd.OutOrStdout(), "artifact_size: %d\n", manifest.ArtifactSize)
	fmt.Fprintf(cmd.OutOrStdout(), "security:      %t\n", manifest.IsSecurityUpdate)
	if manifest.ReleaseNotes != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "release_notes: %s\n", manifest.ReleaseNotes)
	}
	return nil
}
