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
	"context"
	"math/rand"
	"sync"
)

// MockTestValidator is a test/dry-run implementation of TestValidator.
//
// By default it returns a healthy fixture result. Set ValidateTestsFunc
// to override behavior, or FailureRate to inject random failures the way
// the original placeholder backends did.
type MockTestValidator struct {
	mu sync.Mutex

	// ValidateTestsFunc overrides ValidateTests behavior.
	ValidateTestsFunc func(ctx context.Context, change *ProposedChange) (*TestResults, error)

	// FailureRate in [0,1] makes the fixture report failing tests with
	// that probability. Zero means always healthy.
	FailureRate float64

	// Rand seeds the failure injection. Defaults to the global source.
	Rand *rand.Rand

	// Calls records every change validated.
	Calls []*ProposedChange
}

// ValidateTests implements TestValidator.
func (m *MockTestValidator) ValidateTests(ctx context.Context, change *ProposedChange) (*TestResults, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, change)
	m.mu.Unlock()

	if m.ValidateTestsFunc != nil {
		return m.ValidateTestsFunc(ctx, change)
	}

	results := &TestResults{
		UnitTestsPassed:        45,
		IntegrationTestsPassed: 12,
		CoveragePercent:        87.5,
		IntegrationScenarios:   []string{"end_to_end_session", "constraint_reload"},
	}
	if m.roll() {
		results.UnitTestsFailed = 2
		results.IntegrationTestsFailed = 1
	}
	return results, nil
}

func (m *MockTestValidator) roll() bool {
	if m.FailureRate <= 0 {
		return false
	}
	if m.Rand != nil {
		return m.Rand.Float64() < m.FailureRate
	}
	return rand.Float64() < m.FailureRate
}

// CallCount returns the number of ValidateTests calls.
func (m *MockTestValidator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockPerformanceValidator is a test/dry-run implementation of
// PerformanceValidator. Benchmarks defaults to a fixed healthy battery.
type MockPerformanceValidator struct {
	mu sync.Mutex

	// ValidatePerformanceFunc overrides ValidatePerformance behavior.
	ValidatePerformanceFunc func(ctx context.Context, change *ProposedChange) (*PerformanceResults, error)

	// Benchmarks replaces the default fixture battery when non-nil.
	Benchmarks []BenchmarkResult

	// Calls records every change validated.
	Calls []*ProposedChange
}

// ValidatePerformance implements PerformanceValidator.
func (m *MockPerformanceValidator) ValidatePerformance(ctx context.Context, change *ProposedChange) (*PerformanceResults, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, change)
	m.mu.Unlock()

	if m.ValidatePerformanceFunc != nil {
		return m.ValidatePerformanceFunc(ctx, change)
	}
	if m.Benchmarks != nil {
		return &PerformanceResults{Benchmarks: m.Benchmarks}, nil
	}

	return &PerformanceResults{
		Benchmarks: []BenchmarkResult{
			{Name: "request_latency", Baseline: 120, Current: 118, ChangePercent: -1.7, ThresholdPercent: 5},
			{Name: "index_build", Baseline: 900, Current: 905, ChangePercent: 0.6, ThresholdPercent: 10},
			{Name: "memory_per_session", Baseline: 64, Current: 63, ChangePercent: -1.6, ThresholdPercent: 5},
		},
	}, nil
}

// MockQualityValidator is a test/dry-run implementation of
// QualityValidator. The default fixture is below every threshold.
type MockQualityValidator struct {
	mu sync.Mutex

	// ValidateQualityFunc overrides ValidateQuality behavior.
	ValidateQualityFunc func(ctx context.Context, change *ProposedChange) (*CodeQualityResults, error)

	// Results replaces the default fixture when non-nil. ApplyThresholds
	// is invoked on the copy before returning.
	Results *CodeQualityResults

	// Calls records every change validated.
	Calls []*ProposedChange
}

// ValidateQuality implements QualityValidator.
func (m *MockQualityValidator) ValidateQuality(ctx context.Context, change *ProposedChange) (*CodeQualityResults, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, change)
	m.mu.Unlock()

	if m.ValidateQualityFunc != nil {
		return m.ValidateQualityFunc(ctx, change)
	}

	var results CodeQualityResults
	if m.Results != nil {
		results = *m.Results
	} else {
		results = CodeQualityResults{
			CyclomaticComplexity: 6,
			CognitiveComplexity:  8,
			MaintainabilityIndex: 82.4,
			MaintainabilityGrade: "A",
			DuplicationPercent:   1.2,
			DuplicateBlocks:      1,
		}
	}
	results.ApplyThresholds()
	return &results, nil
}
