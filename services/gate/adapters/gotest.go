// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package adapters implements the gate's deep-validation capabilities on
// top of real external tools: `go test -json` for the test tier,
// `go test -bench` with a recorded baseline for the performance tier, and
// golangci-lint for the quality tier.
//
// Each adapter separates process execution from output parsing so the
// parsers can be tested on canned tool output.
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
	"strings"

	"github.com/AleutianAI/changegate/services/gate/safety"
)

// integrationPrefix classifies tests into the integration tier. Tests
// named TestIntegrationXxx count as integration scenarios; everything
// else is the unit tier.
const integrationPrefix = "TestIntegration"

// GoTestRunner implements safety.TestValidator by running the project's
// test suites through `go test -json`.
type GoTestRunner struct {
	// ProjectRoot is the working directory for the test run.
	ProjectRoot string

	// Packages limits the run. Defaults to ./... when empty.
	Packages []string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// testEvent is one line of `go test -json` output.
type testEvent struct {
	Action  string  `json:"Action"`
	Package string  `json:"Package"`
	Test    string  `json:"Test,omitempty"`
	Elapsed float64 `json:"Elapsed,omitempty"`
	Output  string  `json:"Output,omitempty"`
}

var coverageRe = regexp.MustCompile(`coverage: ([0-9.]+)% of statements`)

// ValidateTests implements safety.TestValidator.
//
// A non-zero exit status from go test means failing tests, not a broken
// run; the JSON stream is parsed either way. Only errors that prevent
// the run from producing output propagate.
func (r *GoTestRunner) ValidateTests(ctx context.Context, change *safety.ProposedChange) (*safety.TestResults, error) {
	args := []string{"test", "-json", "-cover"}
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

	err := cmd.Run()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return nil, fmt.Errorf("run go test: %w", err)
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("go test produced no output: %s", stderr.String())
	}

	results, perr := parseTestEvents(stdout.Bytes())
	if perr != nil {
		return nil, perr
	}

	r.logger().Debug("test run complete",
		slog.String("change_id", change.ID),
		slog.Int("unit_failed", results.UnitTestsFailed),
		slog.Int("integration_failed", results.IntegrationTestsFailed),
	)
	return results, nil
}

func (r *GoTestRunner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// parseTestEvents folds a `go test -json` event stream into TestResults.
func parseTestEvents(data []byte) (*safety.TestResults, error) {
	results := &safety.TestResults{}
	decoder := json.NewDecoder(bytes.NewReader(data))

	for decoder.More() {
		var event testEvent
		if err := decoder.Decode(&event); err != nil {
			return nil, fmt.Errorf("parsing go test output: %w", err)
		}

		if event.Test != "" {
			integration := strings.HasPrefix(event.Test, integrationPrefix)
			switch event.Action {
			case "pass":
				if integration {
					results.IntegrationTestsPassed++
					results.IntegrationScenarios = append(results.IntegrationScenarios, event.Test)
				} else {
					results.UnitTestsPassed++
				}
			case "fail":
				if integration {
					results.IntegrationTestsFailed++
				} else {
					results.UnitTestsFailed++
				}
			}
			continue
		}

		if event.Action == "output" {
			if m := coverageRe.FindStringSubmatch(event.Output); m != nil {
				if pct, err := strconv.ParseFloat(m[1], 64); err == nil && pct > results.CoveragePercent {
					// Highest package coverage stands in for the run.
					results.CoveragePercent = pct
				}
			}
		}
	}

	return results, nil
}
