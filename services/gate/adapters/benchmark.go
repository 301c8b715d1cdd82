// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package adapters

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/changegate/services/gate/safety"
)

// defaultRegressionThreshold applies to benchmarks whose baseline entry
// does not set its own threshold.
const defaultRegressionThreshold = 10.0

// BenchmarkBaseline is one recorded measurement in the baseline file.
type BenchmarkBaseline struct {
	Name             string  `yaml:"name"`
	NsPerOp          float64 `yaml:"ns_per_op"`
	ThresholdPercent float64 `yaml:"threshold_percent"`
}

// GoBenchRunner implements safety.PerformanceValidator by running
// `go test -bench` and comparing ns/op against a recorded baseline file.
// Benchmarks without a baseline entry are reported with a zero change
// and never regress; they become comparable once a baseline is recorded.
type GoBenchRunner struct {
	// ProjectRoot is the working directory for the benchmark run.
	ProjectRoot string

	// Packages limits the run. Defaults to ./... when empty.
	Packages []string

	// BaselinePath is the yaml baseline file.
	BaselinePath string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// benchLineRe matches e.g. "BenchmarkValidate-8   12842   93210 ns/op".
var benchLineRe = regexp.MustCompile(`(?m)^(Benchmark\S+?)(?:-\d+)?\s+\d+\s+([0-9.]+) ns/op`)

// ValidatePerformance implements safety.PerformanceValidator.
func (r *GoBenchRunner) ValidatePerformance(ctx context.Context, change *safety.ProposedChange) (*safety.PerformanceResults, error) {
	baselines, err := LoadBaselines(r.BaselinePath)
	if err != nil {
		return nil, err
	}

	args := []string{"test", "-bench=.", "-run=^$", "-benchtime=1x"}
	if len(r.Packages) > 0 {
		args = append(args, r.Packages...)
	} else {
		args = append(args, "./...")
	}

	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Dir = r.ProjectRoot
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("run go test -bench: %w", err)
		}
		return nil, fmt.Errorf("benchmark run failed: %s", stderr.String())
	}

	results := parseBenchOutput(stdout.Bytes(), baselines)
	r.logger().Debug("benchmark run complete",
		slog.String("change_id", change.ID),
		slog.Int("benchmarks", len(results.Benchmarks)),
		slog.Int("regressions", len(results.Regressions())),
	)
	return results, nil
}

func (r *GoBenchRunner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// LoadBaselines reads the yaml baseline file.
func LoadBaselines(path string) ([]BenchmarkBaseline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read benchmark baselines: %w", err)
	}
	var baselines []BenchmarkBaseline
	if err := yaml.Unmarshal(data, &baselines); err != nil {
		return nil, fmt.Errorf("failed to unmarshal the baseline file: %w", err)
	}
	return baselines, nil
}

// parseBenchOutput extracts ns/op measurements from `go test -bench`
// output and joins them with the baseline battery.
func parseBenchOutput(data []byte, baselines []BenchmarkBaseline) *safety.PerformanceResults {
	byName := make(map[string]BenchmarkBaseline, len(baselines))
	for _, b := range baselines {
		byName[b.Name] = b
	}

	results := &safety.PerformanceResults{}
	for _, m := range benchLineRe.FindAllStringSubmatch(string(data), -1) {
		name := m[1]
		current, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}

		result := safety.BenchmarkResult{
			Name:             name,
			Current:          current,
			ThresholdPercent: defaultRegressionThreshold,
		}
		if baseline, ok := byName[name]; ok && baseline.NsPerOp > 0 {
			result.Baseline = baseline.NsPerOp
			result.ChangePercent = (current - baseline.NsPerOp) / baseline.NsPerOp * 100
			if baseline.ThresholdPercent > 0 {
				result.ThresholdPercent = baseline.ThresholdPercent
			}
		}
		results.Benchmarks = append(results.Benchmarks, result)
	}
	return results
}
