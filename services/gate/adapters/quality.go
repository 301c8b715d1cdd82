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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"

	"github.com/AleutianAI/changegate/services/gate/safety"
)

// GolangciRunner implements safety.QualityValidator by running
// golangci-lint with gocyclo, gocognit, dupl, and gosec enabled and
// mapping its findings onto the quality metrics.
type GolangciRunner struct {
	// ProjectRoot is the working directory for the lint run.
	ProjectRoot string

	// Binary overrides the golangci-lint executable name.
	Binary string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// golangciReport is the subset of golangci-lint JSON output the adapter
// consumes.
type golangciReport struct {
	Issues []golangciIssue `json:"Issues"`
}

type golangciIssue struct {
	FromLinter string `json:"FromLinter"`
	Text       string `json:"Text"`
	Severity   string `json:"Severity"`
	Pos        struct {
		Filename string `json:"Filename"`
		Line     int    `json:"Line"`
	} `json:"Pos"`
}

// complexityRe extracts the measured value from gocyclo/gocognit
// messages, e.g. "cyclomatic complexity 15 of func ... is high".
var complexityRe = regexp.MustCompile(`complexity (\d+)`)

// ValidateQuality implements safety.QualityValidator.
//
// golangci-lint exits non-zero when it finds issues; that is a finding,
// not a failed run. Only an empty output stream is treated as a broken
// invocation.
func (r *GolangciRunner) ValidateQuality(ctx context.Context, change *safety.ProposedChange) (*safety.CodeQualityResults, error) {
	binary := r.Binary
	if binary == "" {
		binary = "golangci-lint"
	}

	args := []string{
		"run",
		"--out-format=json",
		"--enable=gocyclo,gocognit,dupl,gosec",
		"./...",
	}
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = r.ProjectRoot
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return nil, fmt.Errorf("run golangci-lint: %w", err)
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("golangci-lint produced no output: %s", stderr.String())
	}

	results, perr := parseLintReport(stdout.Bytes())
	if perr != nil {
		return nil, perr
	}

	r.logger().Debug("quality run complete",
		slog.String("change_id", change.ID),
		slog.Int("issues", len(results.Issues)),
		slog.Int("vulnerabilities", len(results.Vulnerabilities)),
	)
	return results, nil
}

func (r *GolangciRunner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// parseLintReport maps golangci-lint JSON output onto the quality
// metrics. Complexity metrics take the worst value seen across findings;
// gosec findings become vulnerabilities; dupl findings count as
// duplicate blocks. Issue strings come from ApplyThresholds so the
// wording matches the other backends.
func parseLintReport(data []byte) (*safety.CodeQualityResults, error) {
	var report golangciReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parsing golangci-lint output: %w", err)
	}

	results := &safety.CodeQualityResults{}
	for _, issue := range report.Issues {
		switch issue.FromLinter {
		case "gocyclo":
			if v, ok := complexityValue(issue.Text); ok && v > results.CyclomaticComplexity {
				results.CyclomaticComplexity = v
			}
		case "gocognit":
			if v, ok := complexityValue(issue.Text); ok && v > results.CognitiveComplexity {
				results.CognitiveComplexity = v
			}
		case "dupl":
			results.DuplicateBlocks++
		case "gosec":
			results.Vulnerabilities = append(results.Vulnerabilities, safety.Vulnerability{
				ID:          fmt.Sprintf("%s:%d", issue.Pos.Filename, issue.Pos.Line),
				Severity:    issue.Severity,
				Description: issue.Text,
			})
		}
	}

	results.MaintainabilityGrade = gradeFor(results.CyclomaticComplexity)
	results.MaintainabilityIndex = indexFor(results.CyclomaticComplexity)
	results.ApplyThresholds()
	return results, nil
}

func complexityValue(text string) (int, bool) {
	m := complexityRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return v, true
}

// gradeFor and indexFor are coarse mappings from worst-case cyclomatic
// complexity. A dedicated maintainability tool can replace them without
// touching the gate contract.
func gradeFor(cyclomatic int) string {
	switch {
	case cyclomatic <= 10:
		return "A"
	case cyclomatic <= 20:
		return "B"
	case cyclomatic <= 40:
		return "C"
	default:
		return "D"
	}
}

func indexFor(cyclomatic int) float64 {
	index := 100 - float64(cyclomatic)*2
	if index < 0 {
		return 0
	}
	return index
}
