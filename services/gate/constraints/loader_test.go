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
	"os"
	"path/filepath"
	"testing"
)

const sampleConstraintsYAML = `
allowed_operations:
  - analyze_code
  - run_tests
prohibited_operations:
  - delete_files
file_access:
  read_only:
    - "docs/**"
  write_allowed:
    - "packages/evals/src/**/*.ts"
  prohibited:
    - "packages/evals/src/**/*.test.ts"
resource_limits:
  max_memory_mb: 512
  max_cpu_percent: 50
  max_disk_space_mb: 1024
  max_api_calls_per_minute: 100
`

func TestParse(t *testing.T) {
	store, err := Parse([]byte(sampleConstraintsYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if !store.OperationAllowed("analyze_code") {
		t.Error("expected analyze_code to be allowed")
	}
	if got := store.Classify("packages/evals/src/gen.ts"); got != AccessWriteAllowed {
		t.Errorf("Classify = %q, want %q", got, AccessWriteAllowed)
	}
	if store.Limits().MaxAPICallsPerMinute != 100 {
		t.Errorf("MaxAPICallsPerMinute = %d, want 100", store.Limits().MaxAPICallsPerMinute)
	}
}

func TestParse_MalformedYAML(t *testing.T) {
	_, err := Parse([]byte("file_access: ["))
	if err == nil {
		t.Fatal("expected error for malformed yaml, got nil")
	}
}

func TestParse_RejectsOutOfRangeLimits(t *testing.T) {
	doc := `
resource_limits:
  max_cpu_percent: 150
`
	_, err := Parse([]byte(doc))
	if err == nil {
		t.Fatal("expected validation error for max_cpu_percent > 100, got nil")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "constraints.yaml")
	if err := os.WriteFile(path, []byte(sampleConstraintsYAML), 0600); err != nil {
		t.Fatalf("write temp constraints: %v", err)
	}

	store, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := store.Classify("docs/intro.md"); got != AccessReadOnly {
		t.Errorf("Classify = %q, want %q", got, AccessReadOnly)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestDefault(t *testing.T) {
	store, err := NewStore(Default())
	if err != nil {
		t.Fatalf("default policy failed to compile: %v", err)
	}

	if got := store.Classify("services/api/.env"); got != AccessProhibited {
		t.Errorf("Classify(.env) = %q, want %q", got, AccessProhibited)
	}
	if got := store.Classify("src/main.go"); got != AccessReadOnly {
		t.Errorf("Classify(src/main.go) = %q, want %q", got, AccessReadOnly)
	}
	if store.IsWriteAllowed("src/main.go") {
		t.Error("default policy must not write-allow anything")
	}
	if !store.Limits().HasLimits() {
		t.Error("default policy must carry resource limits")
	}
}
