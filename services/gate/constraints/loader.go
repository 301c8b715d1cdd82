// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package constraints

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Load reads an OperatingConstraints document from a yaml file, validates
// it, and compiles it into a Store.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read constraints file: %w", err)
	}
	return Parse(data)
}

// Parse validates and compiles a yaml constraints document.
func Parse(data []byte) (*Store, error) {
	var oc OperatingConstraints
	if err := yaml.Unmarshal(data, &oc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal the constraints document: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&oc); err != nil {
		return nil, fmt.Errorf("invalid constraints document: %w", err)
	}

	return NewStore(oc)
}

// Default returns a conservative policy for sessions that run without an
// explicit constraints file: nothing is write-allowed, common secret
// locations are prohibited outright, and the resource ceilings are modest.
func Default() OperatingConstraints {
	return OperatingConstraints{
		AllowedOperations: []string{
			"analyze_code",
			"run_tests",
			"run_benchmarks",
		},
		ProhibitedOperations: []string{
			"delete_files",
			"modify_git_history",
			"install_packages",
		},
		FileAccess: FileAccess{
			ReadOnly: []string{"**"},
			Prohibited: []string{
				"**/.env",
				"**/.git/**",
				"**/secrets/**",
				"**/credentials/**",
			},
		},
		ResourceLimits: ResourceLimits{
			MaxMemoryMB:          512,
			MaxCPUPercent:        50,
			MaxDiskSpaceMB:       1024,
			MaxAPICallsPerMinute: 60,
		},
	}
}
