// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package safety implements the autonomous-change gate: the component
// that decides whether a machine-generated code modification may proceed
// under the session's operating constraints.
//
// Validation runs in two stages. Three static gates (file permission,
// complexity, scope) are fast, local, and evaluated unconditionally with
// their failures accumulated, so the caller sees every violation at once.
// Only when all static gates pass does the gate invoke the three deep
// validation capabilities (tests, benchmarks, quality), which delegate to
// external tooling and may block for minutes.
//
// Thread Safety:
//
//	A Validator is immutable after construction and safe for concurrent
//	use. Validation is idempotent and side-effect-free; re-validating an
//	unchanged ProposedChange is safe.
package safety

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/changegate/services/gate/constraints"
)

// Complexity gate limits.
const (
	maxFilesPerChange = 10
	maxEstimatedLines = 500

	// estimatedBytesPerLine backs the coarse size heuristic: estimated
	// lines = file size / 50. Deliberately not an actual line count.
	estimatedBytesPerLine = 50
)

// allowedChangeTypes is the scope gate's allow-list. ChangeFeature is a
// valid member of the type enum but is intentionally absent here: no new
// functionality in autonomous mode. Widening this list requires an
// explicit policy decision, not a code cleanup.
var allowedChangeTypes = map[ChangeType]bool{
	ChangeOptimization: true,
	ChangeBugFix:       true,
	ChangeRefactor:     true,
}

// Validator is the multi-stage safety gate for proposed changes.
type Validator struct {
	store       *constraints.Store
	projectRoot string

	tests   TestValidator
	perf    PerformanceValidator
	quality QualityValidator

	logger *slog.Logger
	tracer trace.Tracer
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) { v.logger = logger }
}

// WithTestValidator wires the test capability.
func WithTestValidator(tv TestValidator) Option {
	return func(v *Validator) { v.tests = tv }
}

// WithPerformanceValidator wires the benchmark capability.
func WithPerformanceValidator(pv PerformanceValidator) Option {
	return func(v *Validator) { v.perf = pv }
}

// WithQualityValidator wires the quality capability.
func WithQualityValidator(qv QualityValidator) Option {
	return func(v *Validator) { v.quality = qv }
}

// NewValidator creates a Validator over a compiled constraint store.
//
// Description:
//
//	The store supplies the file-access policy; projectRoot anchors the
//	relative paths the policy patterns are matched against. Deep
//	validation capabilities are optional at construction but required by
//	the time a change passes the static gates; a missing capability is
//	reported as a validation error on the change, never a crash.
//
// Inputs:
//
//	store - Compiled constraints. Must not be nil.
//	projectRoot - Absolute path of the project the changes target.
//	opts - Optional configuration.
//
// Outputs:
//
//	*Validator - The gate. Never nil.
func NewValidator(store *constraints.Store, projectRoot string, opts ...Option) *Validator {
	v := &Validator{
		store:       store,
		projectRoot: projectRoot,
		logger:      slog.Default(),
		tracer:      otel.Tracer("changegate/safety"),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = v.logger.With(slog.String("subsystem", "safety_gate"))
	return v
}

// ValidateChange runs the full pipeline over one proposed change.
//
// Description:
//
//	All three static gates run and their failure messages accumulate; if
//	any failed, the result carries the "; "-joined messages and deep
//	validation never runs. Otherwise the three capabilities run and their
//	verdicts are aggregated. Any panic or capability error anywhere in
//	the pipeline is downgraded to {valid: false, reason: "Validation
//	error: ..."} — terminal for this change, never for the process.
//
// Inputs:
//
//	ctx - Carries cancellation/timeout for the deep stage and the trace span.
//	change - The change under review. Must not be nil.
//
// Outputs:
//
//	*ValidationResult - The aggregated verdict. Never nil.
func (v *Validator) ValidateChange(ctx context.Context, change *ProposedChange) (result *ValidationResult) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("validation panicked",
				slog.Any("panic", r),
			)
			result = validationError(fmt.Errorf("%v", r))
		}
	}()

	if change == nil {
		return validationError(ErrNilChange)
	}

	ctx, span := v.tracer.Start(ctx, "safety.validate_change",
		trace.WithAttributes(
			attribute.String("change.id", change.ID),
			attribute.String("change.type", string(change.Type)),
			attribute.String("change.risk_level", string(change.RiskLevel)),
			attribute.Int("change.files", len(change.Files)),
		),
	)
	defer span.End()

	logger := v.logger.With(slog.String("change_id", change.ID))

	var failures []string
	failures = append(failures, v.checkFilePermissions(change)...)
	failures = append(failures, v.checkComplexity(change)...)
	failures = append(failures, v.checkScope(change)...)

	if len(failures) > 0 {
		logger.Info("change rejected by static gates",
			slog.Int("violations", len(failures)),
		)
		span.SetAttributes(attribute.Bool("change.valid", false))
		return &ValidationResult{
			Valid:  false,
			Reason: strings.Join(failures, "; "),
		}
	}

	result = v.runDeepValidation(ctx, change)
	span.SetAttributes(attribute.Bool("change.valid", result.Valid))
	logger.Info("deep validation complete",
		slog.Bool("valid", result.Valid),
	)
	return result
}

// checkFilePermissions is the file-permission gate.
//
// Prohibited is evaluated before write-allowed so a path matching both
// tiers is always rejected.
func (v *Validator) checkFilePermissions(change *ProposedChange) []string {
	var failures []string
	for _, file := range change.Files {
		rel := v.relPath(file)

		if v.store.IsProhibited(rel) {
			failures = append(failures, fmt.Sprintf("file %s is in prohibited access list", file))
			continue
		}

		if change.Type.Modifies() && !v.store.IsWriteAllowed(rel) {
			failures = append(failures, fmt.Sprintf("file %s is not in write-allowed list", file))
			continue
		}

		// A net-new file the change is about to create cannot be
		// inaccessible; only stat errors other than not-exist fail here.
		if _, err := statFile(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			failures = append(failures, fmt.Sprintf("file %s is not accessible", file))
		}
	}
	return failures
}

// checkComplexity is the complexity gate: bounds the file count and the
// estimated size of each touched file.
func (v *Validator) checkComplexity(change *ProposedChange) []string {
	var failures []string

	if len(change.Files) > maxFilesPerChange {
		failures = append(failures, fmt.Sprintf(
			"too many files modified, maximum is %d per change", maxFilesPerChange))
	}

	for _, file := range change.Files {
		info, err := statFile(file)
		if err != nil {
			// Net-new or unreadable files are skipped here; the
			// permission gate already reported unreadable ones.
			continue
		}
		estimatedLines := info.Size() / estimatedBytesPerLine
		if estimatedLines > maxEstimatedLines {
			failures = append(failures, fmt.Sprintf(
				"file %s is too large, maximum %d lines changed per file", file, maxEstimatedLines))
		}
	}
	return failures
}

// checkScope is the scope gate: only low/medium risk changes of an
// allow-listed type may proceed.
func (v *Validator) checkScope(change *ProposedChange) []string {
	var failures []string
	if !allowedChangeTypes[change.Type] {
		failures = append(failures, fmt.Sprintf("change type %s is not allowed", change.Type))
	}
	if change.RiskLevel == RiskHigh {
		failures = append(failures, "high risk changes are not allowed")
	}
	return failures
}

// runDeepValidation invokes the three capabilities and aggregates their
// verdicts. Only reached when all static gates pass.
func (v *Validator) runDeepValidation(ctx context.Context, change *ProposedChange) *ValidationResult {
	if v.tests == nil {
		return validationError(ErrNoTestValidator)
	}
	if v.perf == nil {
		return validationError(ErrNoPerformanceValidator)
	}
	if v.quality == nil {
		return validationError(ErrNoQualityValidator)
	}

	testResults, err := v.tests.ValidateTests(ctx, change)
	if err != nil {
		return validationError(fmt.Errorf("test validation: %w", err))
	}
	perfResults, err := v.perf.ValidatePerformance(ctx, change)
	if err != nil {
		return validationError(fmt.Errorf("performance validation: %w", err))
	}
	qualityResults, err := v.quality.ValidateQuality(ctx, change)
	if err != nil {
		return validationError(fmt.Errorf("quality validation: %w", err))
	}

	result := &ValidationResult{
		TestResults:        testResults,
		PerformanceResults: perfResults,
		CodeQualityResults: qualityResults,
	}

	var reasons []string
	if !testResults.Passed() {
		reasons = append(reasons, fmt.Sprintf("Tests failed: %d unit tests, %d integration tests",
			testResults.UnitTestsFailed, testResults.IntegrationTestsFailed))
	}
	if regressions := perfResults.Regressions(); len(regressions) > 0 {
		reasons = append(reasons, "Performance regressions detected: "+strings.Join(regressions, ", "))
	}
	if !qualityResults.Passed() {
		reasons = append(reasons, "Code quality issues: "+strings.Join(qualityResults.Issues, ", "))
	}

	if len(reasons) > 0 {
		result.Valid = false
		result.Reason = strings.Join(reasons, "; ")
	} else {
		result.Valid = true
		result.Reason = "All validations passed successfully."
	}
	return result
}

// relPath converts an absolute file path to the project-root-relative
// form the policy patterns are matched against.
func (v *Validator) relPath(file string) string {
	rel, err := filepath.Rel(v.projectRoot, file)
	if err != nil {
		return file
	}
	return filepath.ToSlash(rel)
}

// statFile is the single accessibility check shared by the permission and
// complexity gates, so the two treat net-new files consistently: a file
// is net-new iff stat reports fs.ErrNotExist.
func statFile(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

func validationError(err error) *ValidationResult {
	return &ValidationResult{
		Valid:  false,
		Reason: "Validation error: " + err.Error(),
	}
}
