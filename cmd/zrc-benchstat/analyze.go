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
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var (
	analyzeInput   string
	analyzeOutput  string
	analyzeCompare string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Render a JSON benchmark report as Markdown, optionally diffed against a prior run",
	RunE:  runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzeInput, "input", "benchmark_results.json", "benchmark report to analyze")
	analyzeCmd.Flags().StringVar(&analyzeOutput, "output", "benchmark_analysis.md", "Markdown output path")
	analyzeCmd.Flags().StringVar(&analyzeCompare, "compare", "", "prior benchmark report to diff against")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(analyzeInput)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return fmt.Errorf("parse input: %w", err)
	}

	analysis := renderAnalysis(report)
	if analyzeCompare != "" {
		compareData, err := os.ReadFile(analyzeCompare)
		if err != nil {
			return fmt.Errorf("read compare file: %w", err)
		}
		var prior Report
		if err := json.Unmarshal(compareData, &prior); err != nil {
			return fmt.Errorf("parse compare file: %w", err)
		}
		analysis += "\n\n" + renderComparison(report, prior)
	}

	if err := os.WriteFile(analyzeOutput, []byte(analysis), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "analysis written to %s\n", analyzeOutput)
	return nil
}

func renderAnalysis(report Report) string {
	var sb strings.Builder
	sb.WriteString("# Benchmark analysis\n\n")
	fmt.Fprintf(&sb, "**Generated**: %s\n", report.Timestamp)
	fmt.Fprintf(&sb, "**Go version**: %s\n", report.GoVersion)
	fmt.Fprintf(&sb, "**Platform**: %s/%s\n\n", report.OS, report.Arch)

	categories := make(map[string][]Result)
	for _, r := range report.Results {
		cat := categoryOf(r.Name)
		categories[cat] = append(categories[cat], r)
	}
	var names []string
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, cat := range names {
		fmt.Fprintf(&sb, "## %s\n\n", cat)
		sb.WriteString("| Benchmark | ns/op | MB/s | allocs/op | bytes/op |\n")
		sb.WriteString("|---|---|---|---|---|\n")

		results := categories[cat]
		sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
		for _, r := range results {
			name := strings.TrimPrefix(r.Name, "Benchmark"+cat+"_")
			mb := "-"
			if r.MBPerSec > 0 {
				mb = fmt.Sprintf("%.2f", r.MBPerSec)
			}
			fmt.Fprintf(&sb, "| %s | %.2f | %s | %d | %d |\n", name, r.NsPerOp, mb, r.AllocsPerOp, r.BytesPerOp)
		}
		sb.WriteString("\n")
	}

	if len(report.Results) == 0 {
		return sb.String()
	}
	fastest, slowest := extremes(report.Results)
	sb.WriteString("## Summary\n\n")
	fmt.Fprintf(&sb, "- **Total benchmarks**: %d\n", len(report.Results))
	fmt.Fprintf(&sb, "- **Fastest**: %s (%.2f ns/op)\n", fastest.Name, fastest.NsPerOp)
	fmt.Fprintf(&sb, "- **Slowest**: %s (%.2f ns/op)\n", slowest.Name, slowest.NsPerOp)
	return sb.String()
}

func renderComparison(current, prior Report) string {
	var sb strings.Builder
	sb.WriteString("## Comparison vs prior run\n\n")
	fmt.Fprintf(&sb, "Current: %s — Prior: %s\n\n", current.Timestamp, prior.Timestamp)

	priorByName := make(map[string]Result, len(prior.Results))
	for _, r := range prior.Results {
		priorByName[r.Name] = r
	}

	sb.WriteString("| Benchmark | current ns/op | prior ns/op | change |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, curr := range current.Results {
		prev, ok := priorByName[curr.Name]
		if !ok {
			fmt.Fprintf(&sb, "| %s | %.2f | - | new |\n", curr.Name, curr.NsPerOp)
			continue
		}
		change := (curr.NsPerOp - prev.NsPerOp) / prev.NsPerOp * 100
		fmt.Fprintf(&sb, "| %s | %.2f | %.2f | %+.1f%% |\n", curr.Name, curr.NsPerOp, prev.NsPerOp, change)
	}
	return sb.String()
}

func categoryOf(name string) string {
	name = strings.TrimPrefix(name, "Benchmark")
	parts := strings.SplitN(name, "_", 2)
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "Other"
}

func extremes(results []Result) (fastest, slowest Result) {
	fastest, slowest = results[0], results[0]
	for _, r := range results {
		if r.NsPerOp < fastest.NsPerOp {
			fastest = r
		}
		if r.NsPerOp > slowest.NsPerOp {
			slowest = r
		}
	}
	return
}
