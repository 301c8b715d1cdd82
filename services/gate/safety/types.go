// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package safety

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ChangeType is the kind of change the agent proposes.
type ChangeType string

const (
	// ChangeOptimization is a performance-motivated change.
	ChangeOptimization ChangeType = "optimization"

	// ChangeBugFix corrects incorrect behavior.
	ChangeBugFix ChangeType = "bug_fix"

	// ChangeRefactor restructures code without changing behavior.
	ChangeRefactor ChangeType = "refactor"

	// ChangeFeature adds new functionality. Note that the scope gate does
	// not currently admit this type; see allowedChangeTypes.
	ChangeFeature ChangeType = "feature"
)

// Valid reports whether t is a known change type.
func (t ChangeType) Valid() bool {
	switch t {
	case ChangeOptimization, ChangeBugFix, ChangeRefactor, ChangeFeature:
		return true
	default:
		return false
	}
}

// Modifies reports whether this change type writes to the project. All
// known change types do; pure read/analysis actions never reach the gate.
func (t ChangeType) Modifies() bool {
	return t.Valid()
}

// UnmarshalYAML validates ChangeType values in change documents.
func (t *ChangeType) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	incoming := ChangeType(s)
	if !incoming.Valid() {
		return fmt.Errorf("invalid value for change type: %q", s)
	}
	*t = incoming
	return nil
}

// RiskLevel is the generator's own risk estimate for a change.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Valid reports whether r is a known risk level.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	default:
		return false
	}
}

// UnmarshalYAML validates RiskLevel values in change documents.
func (r *RiskLevel) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	incoming := RiskLevel(s)
	if !incoming.Valid() {
		return fmt.Errorf("invalid value for risk level: %q", s)
	}
	*r = incoming
	return nil
}

// ProposedChange is one candidate modification produced by the external
// generator. It is immutable input to the gate: created once, passed
// through exactly one ValidateChange call, then applied or discarded by
// the orchestrator.
type ProposedChange struct {
	ID             string     `yaml:"id" json:"id"`
	Type           ChangeType `yaml:"type" json:"type"`
	Files          []string   `yaml:"files" json:"files"`
	Description    string     `yaml:"description" json:"description"`
	Rationale      string     `yaml:"rationale" json:"rationale"`
	ExpectedImpact string     `yaml:"expected_impact" json:"expected_impact"`
	RiskLevel      RiskLevel  `yaml:"risk_level" json:"risk_level"`
}

// TestResults is the structured verdict of the test capability.
type TestResults struct {
	UnitTestsPassed        int      `yaml:"unit_tests_passed" json:"unit_tests_passed"`
	UnitTestsFailed        int      `yaml:"unit_tests_failed" json:"unit_tests_failed"`
	IntegrationTestsPassed int      `yaml:"integration_tests_passed" json:"integration_tests_passed"`
	IntegrationTestsFailed int      `yaml:"integration_tests_failed" json:"integration_tests_failed"`
	CoveragePercent        float64  `yaml:"coverage_percent" json:"coverage_percent"`
	IntegrationScenarios   []string `yaml:"integration_scenarios,omitempty" json:"integration_scenarios,omitempty"`
}

// Passed reports whether both test tiers completed with zero failures.
func (r *TestResults) Passed() bool {
	return r.UnitTestsFailed == 0 && r.IntegrationTestsFailed == 0
}

// BenchmarkResult is one named benchmark measurement against a baseline.
type BenchmarkResult struct {
	Name             string  `yaml:"name" json:"name"`
	Baseline         float64 `yaml:"baseline" json:"baseline"`
	Current          float64 `yaml:"current" json:"current"`
	ChangePercent    float64 `yaml:"change_percent" json:"change_percent"`
	ThresholdPercent float64 `yaml:"threshold_percent" json:"threshold_percent"`
}

// Regressed reports whether the measurement exceeded its allowed
// regression threshold.
func (b BenchmarkResult) Regressed() bool {
	return b.ChangePercent > b.ThresholdPercent
}

// PerformanceResults is the structured verdict of the benchmark capability.
type PerformanceResults struct {
	Benchmarks []BenchmarkResult `yaml:"benchmarks" json:"benchmarks"`
}

// Regressions returns the names of benchmarks that regressed.
func (r *PerformanceResults) Regressions() []string {
	var names []string
	for _, b := range r.Benchmarks {
		if b.Regressed() {
			names = append(names, b.Name)
		}
	}
	return names
}

// Passed reports whether no benchmark regressed.
func (r *PerformanceResults) Passed() bool {
	return len(r.Regressions()) == 0
}

// Vulnerability is one security finding from the quality capability.
type Vulnerability struct {
	ID          string `yaml:"id" json:"id"`
	Severity    string `yaml:"severity" json:"severity"`
	Description string `yaml:"description" json:"description"`
}

// CodeQualityResults is the structured verdict of the quality capability.
// Issues holds one free-text entry per metric that crossed a fixed
// threshold; quality passes iff Issues is empty.
type CodeQualityResults struct {
	CyclomaticComplexity int             `yaml:"cyclomatic_complexity" json:"cyclomatic_complexity"`
	CognitiveComplexity  int             `yaml:"cognitive_complexity" json:"cognitive_complexity"`
	MaintainabilityIndex float64         `yaml:"maintainability_index" json:"maintainability_index"`
	MaintainabilityGrade string          `yaml:"maintainability_grade" json:"maintainability_grade"`
	DuplicationPercent   float64         `yaml:"duplication_percent" json:"duplication_percent"`
	DuplicateBlocks      int             `yaml:"duplicate_blocks" json:"duplicate_blocks"`
	Vulnerabilities      []Vulnerability `yaml:"vulnerabilities,omitempty" json:"vulnerabilities,omitempty"`
	Issues               []string        `yaml:"issues,omitempty" json:"issues,omitempty"`
}

// Passed reports whether no quality issue was raised.
func (r *CodeQualityResults) Passed() bool {
	return len(r.Issues) == 0
}

// Quality thresholds. A metric crossing one of these raises an issue.
const (
	maxCyclomaticComplexity = 10
	maxDuplicationPercent   = 5.0
)

// ApplyThresholds fills Issues from the raw metrics using the fixed
// thresholds: cyclomatic complexity above 10, duplication above 5%, and
// any vulnerability at all. Capability implementations call this after
// populating the metrics so the issue wording is uniform across backends.
func (r *CodeQualityResults) ApplyThresholds() {
	if r.CyclomaticComplexity > maxCyclomaticComplexity {
		r.Issues = append(r.Issues, fmt.Sprintf(
			"cyclomatic complexity %d exceeds maximum %d",
			r.CyclomaticComplexity, maxCyclomaticComplexity))
	}
	if r.DuplicationPercent > maxDuplicationPercent {
		r.Issues = append(r.Issues, fmt.Sprintf(
			"code duplication %.1f%% exceeds maximum %.1f%%",
			r.DuplicationPercent, maxDuplicationPercent))
	}
	if n := len(r.Vulnerabilities); n > 0 {
		r.Issues = append(r.Issues, fmt.Sprintf(
			"%d security vulnerabilities detected", n))
	}
}

// ValidationResult is the gate's aggregated verdict for one change.
// The deep-validation sub-results are only present when the static gates
// passed and the deep stage actually ran.
type ValidationResult struct {
	Valid              bool                `yaml:"valid" json:"valid"`
	Reason             string              `yaml:"reason,omitempty" json:"reason,omitempty"`
	TestResults        *TestResults        `yaml:"test_results,omitempty" json:"test_results,omitempty"`
	PerformanceResults *PerformanceResults `yaml:"performance_results,omitempty" json:"performance_results,omitempty"`
	CodeQualityResults *CodeQualityResults `yaml:"code_quality_results,omitempty" json:"code_quality_results,omitempty"`
}
