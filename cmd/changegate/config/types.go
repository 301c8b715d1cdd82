// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

type ChangegateConfig struct {
	// Gate: where the gate finds its inputs by default
	Gate GateConfig `yaml:"gate"`

	// Audit: where validation verdicts are persisted
	Audit AuditConfig `yaml:"audit"`

	// Logging: level and optional file destination
	Logging LoggingConfig `yaml:"logging"`

	// Features: toggles for optional subsystems
	Features FeatureConfig `yaml:"features"`
}

type GateConfig struct {
	ConstraintsPath string `yaml:"constraints_path"` // e.g. ./constraints.yaml
	ProjectRoot     string `yaml:"project_root"`     // e.g. .
	BaselinePath    string `yaml:"baseline_path"`    // e.g. ./bench_baselines.yaml
}

type AuditConfig struct {
	Dir        string `yaml:"dir"` // e.g. ~/.changegate/audit
	SyncWrites bool   `yaml:"sync_writes"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug|info|warn|error
	Dir   string `yaml:"dir"`   // e.g. ~/.changegate/logs, empty disables file logging
}

type FeatureConfig struct {
	Tracing bool `yaml:"tracing"`
}

func DefaultConfig() ChangegateConfig {
	return ChangegateConfig{
		Gate: GateConfig{
			ConstraintsPath: "constraints.yaml",
			ProjectRoot:     ".",
			BaselinePath:    "bench_baselines.yaml",
		},
		Audit: AuditConfig{
			Dir:        "", // resolved under the config directory at load time
			SyncWrites: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
