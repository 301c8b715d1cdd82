// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resources

import (
	"strings"
	"testing"
	"time"

	"github.com/AleutianAI/changegate/services/gate/constraints"
)

// fakeClock is a manually advanced time source for window tests.
type fakeClock struct {
	current time.Time
}

func (c *fakeClock) now() time.Time { return c.current }

func (c *fakeClock) advance(d time.Duration) { c.current = c.current.Add(d) }

func newTestMonitor(limits constraints.ResourceLimits) (*Monitor, *fakeClock) {
	clock := &fakeClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewMonitor(limits, withClock(clock.now)), clock
}

func TestMonitor_APICallWindow_Accumulates(t *testing.T) {
	m, clock := newTestMonitor(constraints.ResourceLimits{MaxAPICallsPerMinute: 100})

	for i := 0; i < 5; i++ {
		m.RecordAPICall()
		clock.advance(time.Second)
	}

	report := m.UsageReport()
	if report.APICalls.Usage != 5 {
		t.Errorf("APICalls.Usage = %v, want 5", report.APICalls.Usage)
	}
}

func TestMonitor_APICallWindow_ResetsToOne(t *testing.T) {
	m, clock := newTestMonitor(constraints.ResourceLimits{MaxAPICallsPerMinute: 100})

	for i := 0; i < 42; i++ {
		m.RecordAPICall()
	}

	// Strictly more than the window must elapse before the counter resets;
	// the first call of the fresh window then observes a count of one.
	clock.advance(61 * time.Second)
	m.RecordAPICall()

	report := m.UsageReport()
	if report.APICalls.Usage != 1 {
		t.Errorf("APICalls.Usage after reset = %v, want 1", report.APICalls.Usage)
	}
}

func TestMonitor_APICallWindow_ExactWindowDoesNotReset(t *testing.T) {
	m, clock := newTestMonitor(constraints.ResourceLimits{MaxAPICallsPerMinute: 100})

	for i := 0; i < 10; i++ {
		m.RecordAPICall()
	}

	clock.advance(60 * time.Second)
	m.RecordAPICall()

	report := m.UsageReport()
	if report.APICalls.Usage != 11 {
		t.Errorf("APICalls.Usage at window edge = %v, want 11", report.APICalls.Usage)
	}
}

func TestMonitor_CheckLimits_APICalls(t *testing.T) {
	m, clock := newTestMonitor(constraints.ResourceLimits{MaxAPICallsPerMinute: 100})

	for i := 0; i < 100; i++ {
		m.RecordAPICall()
	}
	if check := m.CheckLimits(); !check.WithinLimits {
		t.Fatalf("at exactly the limit, want within limits, got violations %v", check.Violations)
	}

	m.RecordAPICall()
	check := m.CheckLimits()
	if check.WithinLimits {
		t.Fatal("expected violation at 101 calls")
	}
	if len(check.Violations) != 1 ||
		!strings.Contains(check.Violations[0], "api calls 101 in current window exceed limit 100 per minute") {
		t.Errorf("Violations = %v", check.Violations)
	}

	// A call in a fresh window resets the counter and clears the violation.
	clock.advance(61 * time.Second)
	m.RecordAPICall()
	if check := m.CheckLimits(); !check.WithinLimits {
		t.Errorf("after window reset, want within limits, got violations %v", check.Violations)
	}
}

func TestMonitor_CheckLimits_Gauges(t *testing.T) {
	limits := constraints.ResourceLimits{
		MaxMemoryMB:    512,
		MaxCPUPercent:  50,
		MaxDiskSpaceMB: 1024,
	}

	tests := []struct {
		name           string
		memory         float64
		cpu            float64
		disk           float64
		wantWithin     bool
		wantViolations []string
	}{
		{
			name:       "all under",
			memory:     256,
			cpu:        25,
			disk:       100,
			wantWithin: true,
		},
		{
			name:       "equal to limit is not a violation",
			memory:     512,
			cpu:        50,
			disk:       1024,
			wantWithin: true,
		},
		{
			name:   "memory over",
			memory: 512.5,
			wantViolations: []string{
				"memory usage 512.5 MB exceeds limit 512.0 MB",
			},
		},
		{
			name:   "multiple violations",
			memory: 600,
			cpu:    75,
			disk:   2048,
			wantViolations: []string{
				"memory usage 600.0 MB exceeds limit 512.0 MB",
				"cpu usage 75.0% exceeds limit 50.0%",
				"disk usage 2048.0 MB exceeds limit 1024.0 MB",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestMonitor(limits)
			m.RecordMemoryUsage(tt.memory)
			m.RecordCPUUsage(tt.cpu)
			m.RecordDiskUsage(tt.disk)

			check := m.CheckLimits()
			if check.WithinLimits != tt.wantWithin {
				t.Fatalf("WithinLimits = %v, want %v (violations %v)",
					check.WithinLimits, tt.wantWithin, check.Violations)
			}
			if len(check.Violations) != len(tt.wantViolations) {
				t.Fatalf("Violations = %v, want %v", check.Violations, tt.wantViolations)
			}
			for i, want := range tt.wantViolations {
				if check.Violations[i] != want {
					t.Errorf("Violations[%d] = %q, want %q", i, check.Violations[i], want)
				}
			}
		})
	}
}

func TestMonitor_ZeroLimitIsUnlimited(t *testing.T) {
	m, _ := newTestMonitor(constraints.ResourceLimits{})

	m.RecordMemoryUsage(1 << 20)
	m.RecordCPUUsage(100)
	m.RecordDiskUsage(1 << 20)
	for i := 0; i < 10000; i++ {
		m.RecordAPICall()
	}

	if check := m.CheckLimits(); !check.WithinLimits {
		t.Errorf("zero limits must never violate, got %v", check.Violations)
	}

	report := m.UsageReport()
	if report.Memory.Percentage != 0 {
		t.Errorf("unlimited dimension Percentage = %v, want 0", report.Memory.Percentage)
	}
}

func TestMonitor_UsageReport(t *testing.T) {
	m, _ := newTestMonitor(constraints.ResourceLimits{
		MaxMemoryMB:          512,
		MaxCPUPercent:        50,
		MaxDiskSpaceMB:       1024,
		MaxAPICallsPerMinute: 100,
	})

	m.RecordMemoryUsage(256)
	m.RecordCPUUsage(25)
	m.RecordDiskUsage(512)
	for i := 0; i < 50; i++ {
		m.RecordAPICall()
	}

	report := m.UsageReport()
	if report.Memory.Percentage != 50 {
		t.Errorf("Memory.Percentage = %v, want 50", report.Memory.Percentage)
	}
	if report.CPU.Percentage != 50 {
		t.Errorf("CPU.Percentage = %v, want 50", report.CPU.Percentage)
	}
	if report.Disk.Percentage != 50 {
		t.Errorf("Disk.Percentage = %v, want 50", report.Disk.Percentage)
	}
	if report.APICalls.Usage != 50 || report.APICalls.Limit != 100 || report.APICalls.Percentage != 50 {
		t.Errorf("APICalls = %+v, want usage 50 of limit 100", report.APICalls)
	}
}
