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
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"runtime"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// Result is one `go test -bench` line, normalized to numeric fields.
type Result struct {
	Name        string  `json:"name"`
	Iterations  int     `json:"iterations"`
	NsPerOp     float64 `json:"ns_per_op"`
	MBPerSec    float64 `json:"mb_per_sec,omitempty"`
	AllocsPerOp int     `json:"allocs_per_op"`
	BytesPerOp  int     `json:"bytes_per_op"`
}

// Report is a timestamped, platform-tagged set of Results.
type Report struct {
	Timestamp string   `json:"timestamp"`
	GoVersion string   `json:"go_version"`
	OS        string   `json:"os"`
	Arch      string   `json:"arch"`
	Results   []Result `json:"results"`
}

var (
	parseInput  string
	parseOutput string
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse go test -bench output into a JSON report",
	RunE:  runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVar(&parseInput, "input", "", "go test -bench output file (required)")
	parseCmd.Flags().StringVar(&parseOutput, "output", "", "JSON report path (required)")
	_ = parseCmd.MarkFlagRequired("input")
	_ = parseCmd.MarkFlagRequired("output")
}

func runParse(cmd *cobra.Command, args []string) error {
	f, err := os.Open(parseInput)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	report := Report{
		Timestamp: time.Now().Format(time.RFC3339),
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		Results:   parseResults(f),
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(parseOutput, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "parsed %d benchmark results into %s\n", len(report.Results), parseOutput)
	return nil
}

var (
	benchmarkLineRe = regexp.MustCompile(`^Benchmark(\S+)-\d+\s+(\d+)\s+(\d+\.?\d*)\s+ns/op`)
	memStatsRe      = regexp.MustCompile(`(\d+)\s+B/op\s+(\d+)\s+allocs/op`)
	mbPerSecRe      = regexp.MustCompile(`(\d+\.?\d*)\s+MB/s`)
)

func parseResults(f *os.File) []Result {
	var results []Result
	var current *Result

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		matches := benchmarkLineRe.FindStringSubmatch(line)
		if matches == nil {
			continue
		}
		if current != nil {
			results = append(results, *current)
		}
		iterations, _ := strconv.Atoi(matches[2])
		nsPerOp, _ := strconv.ParseFloat(matches[3], 64)
		current = &Result{Name: "Benchmark" + matches[1], Iterations: iterations, NsPerOp: nsPerOp}

		if mem := memStatsRe.FindStringSubmatch(line); mem != nil {
			current.BytesPerOp, _ = strconv.Atoi(mem[1])
			current.AllocsPerOp, _ = strconv.Atoi(mem[2])
		}
		if mb := mbPerSecRe.FindStringSubmatch(line); mb != nil {
			current.MBPerSec, _ = strconv.ParseFloat(mb[1], 64)
		}
	}
	if current != nil {
		results = append(results, *current)
	}
	return averageDuplicates(results)
}

// averageDuplicates collapses repeated runs of the same benchmark (`go test
// -bench -count=N`) into a single averaged entry.
func averageDuplicates(results []Result) []Result {
	grouped := make(map[string][]Result)
	for _, r := range results {
		grouped[r.Name] = append(grouped[r.Name], r)
	}

	var averaged []Result
	for name, group := range grouped {
		if len(group) == 1 {
			averaged = append(averaged, group[0])
			continue
		}
		var totalNs, totalMB float64
		var totalAllocs, totalBytes, totalIters int
		for _, r := range group {
			totalNs += r.NsPerOp
			totalMB += r.MBPerSec
			totalAllocs += r.AllocsPerOp
			totalBytes += r.BytesPerOp
			totalIters += r.Iterations
		}
		count := float64(len(group))
		averaged = append(averaged, Result{
			Name:        name,
			Iterations:  int(float64(totalIters) / count),
			NsPerOp:     totalNs / count,
			MBPerSec:    totalMB / count,
			AllocsPerOp: int(float64(totalAllocs) / count),
			BytesPerOp:  int(float64(totalBytes) / count),
		})
	}
	return averaged
}
