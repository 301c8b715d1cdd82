// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package resources tracks a session's resource consumption against the
// hard ceilings in its operating constraints.
//
// A Monitor is an explicit per-session instance passed by reference to
// every component that samples or queries it; construction and teardown
// are scoped to one session. An external sampler overwrites the
// memory/CPU/disk gauges; the gate and its capabilities record API calls.
// The session supervisor polls CheckLimits to decide whether to terminate
// the session.
package resources

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AleutianAI/changegate/services/gate/constraints"
)

// apiCallWindow is the fixed rate-limit window. The counter resets at
// fixed intervals rather than sliding, so callers must tolerate up to
// double-counting near window boundaries.
const apiCallWindow = 60 * time.Second

// Monitor holds one session's resource gauges and the fixed-window API
// call counter.
//
// Thread Safety: Safe for concurrent use. The window reset-then-increment
// sequence in RecordAPICall is a read-modify-write and is guarded by the
// monitor's mutex.
type Monitor struct {
	mu sync.Mutex

	limits constraints.ResourceLimits

	memoryMB   float64
	cpuPercent float64
	diskMB     float64

	apiCalls    int
	windowStart time.Time

	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) MonitorOption {
	return func(m *Monitor) { m.logger = logger }
}

// WithMetrics attaches prometheus metrics mirroring the gauges.
func WithMetrics(metrics *Metrics) MonitorOption {
	return func(m *Monitor) { m.metrics = metrics }
}

// withClock overrides the time source. Test hook.
func withClock(now func() time.Time) MonitorOption {
	return func(m *Monitor) { m.now = now }
}

// NewMonitor creates a Monitor enforcing the given limits.
func NewMonitor(limits constraints.ResourceLimits, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		limits: limits,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(slog.String("subsystem", "resource_monitor"))
	m.windowStart = m.now()
	return m
}

// RecordMemoryUsage overwrites the memory gauge, in megabytes.
func (m *Monitor) RecordMemoryUsage(mb float64) {
	m.mu.Lock()
	m.memoryMB = mb
	m.mu.Unlock()
	if m.metrics != nil {
		m.metrics.MemoryMB.Set(mb)
	}
}

// RecordCPUUsage overwrites the CPU gauge, in percent.
func (m *Monitor) RecordCPUUsage(percent float64) {
	m.mu.Lock()
	m.cpuPercent = percent
	m.mu.Unlock()
	if m.metrics != nil {
		m.metrics.CPUPercent.Set(percent)
	}
}

// RecordDiskUsage overwrites the disk gauge, in megabytes.
func (m *Monitor) RecordDiskUsage(mb float64) {
	m.mu.Lock()
	m.diskMB = mb
	m.mu.Unlock()
	if m.metrics != nil {
		m.metrics.DiskMB.Set(mb)
	}
}

// RecordAPICall counts one API call against the fixed 60-second window.
//
// If more than the window has elapsed since the last reset, the counter
// is zeroed and the reset timestamp updated before incrementing, so the
// first call of a fresh window observes a count of 1.
func (m *Monitor) RecordAPICall() {
	m.mu.Lock()
	now := m.now()
	if now.Sub(m.windowStart) > apiCallWindow {
		m.apiCalls = 0
		m.windowStart = now
	}
	m.apiCalls++
	count := m.apiCalls
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.APICallsInWindow.Set(float64(count))
	}
}

// LimitCheck is the result of comparing current usage to the ceilings.
type LimitCheck struct {
	WithinLimits bool     `json:"within_limits" yaml:"within_limits"`
	Violations   []string `json:"violations,omitempty" yaml:"violations,omitempty"`
}

// CheckLimits compares each gauge and the API counter against its
// configured ceiling. A dimension is violated iff its value is strictly
// greater than the limit; equal-to-limit is not a violation. Zero limits
// are treated as unlimited.
func (m *Monitor) CheckLimits() LimitCheck {
	m.mu.Lock()
	memoryMB, cpuPercent, diskMB := m.memoryMB, m.cpuPercent, m.diskMB
	apiCalls := m.apiCalls
	m.mu.Unlock()

	var violations []string
	if m.limits.MaxMemoryMB > 0 && memoryMB > m.limits.MaxMemoryMB {
		violations = append(violations, fmt.Sprintf(
			"memory usage %.1f MB exceeds limit %.1f MB", memoryMB, m.limits.MaxMemoryMB))
	}
	if m.limits.MaxCPUPercent > 0 && cpuPercent > m.limits.MaxCPUPercent {
		violations = append(violations, fmt.Sprintf(
			"cpu usage %.1f%% exceeds limit %.1f%%", cpuPercent, m.limits.MaxCPUPercent))
	}
	if m.limits.MaxDiskSpaceMB > 0 && diskMB > m.limits.MaxDiskSpaceMB {
		violations = append(violations, fmt.Sprintf(
			"disk usage %.1f MB exceeds limit %.1f MB", diskMB, m.limits.MaxDiskSpaceMB))
	}
	if m.limits.MaxAPICallsPerMinute > 0 && apiCalls > m.limits.MaxAPICallsPerMinute {
		violations = append(violations, fmt.Sprintf(
			"api calls %d in current window exceed limit %d per minute",
			apiCalls, m.limits.MaxAPICallsPerMinute))
	}

	if len(violations) > 0 {
		m.logger.Warn("resource limits exceeded",
			slog.Int("violations", len(violations)),
		)
		if m.metrics != nil {
			m.metrics.LimitViolationsTotal.Add(float64(len(violations)))
		}
	}

	return LimitCheck{
		WithinLimits: len(violations) == 0,
		Violations:   violations,
	}
}

// Usage is one dimension of the usage report.
type Usage struct {
	Usage      float64 `json:"usage" yaml:"usage"`
	Limit      float64 `json:"limit" yaml:"limit"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
}

// Report is a point-in-time snapshot of all dimensions, for the session
// supervisor's dashboards.
type Report struct {
	Memory   Usage `json:"memory" yaml:"memory"`
	CPU      Usage `json:"cpu" yaml:"cpu"`
	Disk     Usage `json:"disk" yaml:"disk"`
	APICalls Usage `json:"api_calls" yaml:"api_calls"`
}

// UsageReport returns the current usage, limit, and percentage for every
// dimension. Percentage is zero when the dimension is unlimited.
func (m *Monitor) UsageReport() Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Report{
		Memory:   usageOf(m.memoryMB, m.limits.MaxMemoryMB),
		CPU:      usageOf(m.cpuPercent, m.limits.MaxCPUPercent),
		Disk:     usageOf(m.diskMB, m.limits.MaxDiskSpaceMB),
		APICalls: usageOf(float64(m.apiCalls), float64(m.limits.MaxAPICallsPerMinute)),
	}
}

func usageOf(usage, limit float64) Usage {
	u := Usage{Usage: usage, Limit: limit}
	if limit > 0 {
		u.Percentage = usage / limit * 100
	}
	return u
}
