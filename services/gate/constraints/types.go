// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package constraints holds the declarative operating policy for an
// autonomous session: which operations the agent may attempt, which file
// paths it may read or write, and the hard resource ceilings the session
// runs under.
//
// A policy is loaded once per session, compiled into anchored path
// matchers, and never mutated afterwards.
package constraints

// OperatingConstraints is the full policy document for one session.
//
// AllowedOperations and ProhibitedOperations are informational for the
// orchestrator (it consults them before attempting an action); the gate
// itself enforces the file-access tiers and resource limits.
type OperatingConstraints struct {
	AllowedOperations    []string       `yaml:"allowed_operations" json:"allowed_operations"`
	ProhibitedOperations []string       `yaml:"prohibited_operations" json:"prohibited_operations"`
	FileAccess           FileAccess     `yaml:"file_access" json:"file_access"`
	ResourceLimits       ResourceLimits `yaml:"resource_limits" json:"resource_limits"`
}

// FileAccess holds the three path-pattern tiers. Patterns are glob-style
// (`**` any depth, `*` one path segment, `.` literal) and are matched
// against paths relative to the project root.
//
// Prohibited always wins: a path matching both Prohibited and
// WriteAllowed is rejected.
type FileAccess struct {
	ReadOnly     []string `yaml:"read_only" json:"read_only"`
	WriteAllowed []string `yaml:"write_allowed" json:"write_allowed"`
	Prohibited   []string `yaml:"prohibited" json:"prohibited"`
}

// ResourceLimits are the hard per-session ceilings. Zero means unlimited
// for that dimension.
type ResourceLimits struct {
	MaxMemoryMB          float64 `yaml:"max_memory_mb" json:"max_memory_mb" validate:"gte=0"`
	MaxCPUPercent        float64 `yaml:"max_cpu_percent" json:"max_cpu_percent" validate:"gte=0,lte=100"`
	MaxDiskSpaceMB       float64 `yaml:"max_disk_space_mb" json:"max_disk_space_mb" validate:"gte=0"`
	MaxAPICallsPerMinute int     `yaml:"max_api_calls_per_minute" json:"max_api_calls_per_minute" validate:"gte=0"`
}

// HasLimits reports whether any ceiling is configured.
func (l ResourceLimits) HasLimits() bool {
	return l.MaxMemoryMB > 0 || l.MaxCPUPercent > 0 ||
		l.MaxDiskSpaceMB > 0 || l.MaxAPICallsPerMinute > 0
}

// AccessClass is the tier a path falls into after policy evaluation.
type AccessClass string

const (
	// AccessProhibited means the path must not be touched at all.
	AccessProhibited AccessClass = "prohibited"

	// AccessWriteAllowed means the path may be modified.
	AccessWriteAllowed AccessClass = "write_allowed"

	// AccessReadOnly means the path may be read but not modified.
	AccessReadOnly AccessClass = "read_only"

	// AccessUnmatched means no pattern in any tier matched the path.
	AccessUnmatched AccessClass = "unmatched"
)
