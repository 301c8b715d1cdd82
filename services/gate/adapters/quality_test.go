// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package adapters

import (
	"strings"
	"testing"
)

const sampleLintReport = `{
  "Issues": [
    {
      "FromLinter": "gocyclo",
      "Text": "cyclomatic complexity 15 of func (*Validator).ValidateChange is high (> 10)",
      "Severity": "warning",
      "Pos": {"Filename": "validator.go", "Line": 120}
    },
    {
      "FromLinter": "gocyclo",
      "Text": "cyclomatic complexity 12 of func parse is high (> 10)",
      "Severity": "warning",
      "Pos": {"Filename": "parser.go", "Line": 33}
    },
    {
      "FromLinter": "gocognit",
      "Text": "cognitive complexity 22 of func apply is high (> 20)",
      "Severity": "warning",
      "Pos": {"Filename": "apply.go", "Line": 8}
    },
    {
      "FromLinter": "dupl",
      "Text": "duplicate of parser.go:40-60",
      "Severity": "warning",
      "Pos": {"Filename": "scanner.go", "Line": 12}
    },
    {
      "FromLinter": "gosec",
      "Text": "G204: Subprocess launched with a potential tainted input",
      "Severity": "high",
      "Pos": {"Filename": "exec.go", "Line": 77}
    }
  ]
}`

func TestParseLintReport(t *testing.T) {
	results, err := parseLintReport([]byte(sampleLintReport))
	if err != nil {
		t.Fatalf("parseLintReport failed: %v", err)
	}

	// Worst value across findings stands for the run.
	if results.CyclomaticComplexity != 15 {
		t.Errorf("CyclomaticComplexity = %d, want 15", results.CyclomaticComplexity)
	}
	if results.CognitiveComplexity != 22 {
		t.Errorf("CognitiveComplexity = %d, want 22", results.CognitiveComplexity)
	}
	if results.DuplicateBlocks != 1 {
		t.Errorf("DuplicateBlocks = %d, want 1", results.DuplicateBlocks)
	}
	if len(results.Vulnerabilities) != 1 {
		t.Fatalf("Vulnerabilities = %d, want 1", len(results.Vulnerabilities))
	}
	vuln := results.Vulnerabilities[0]
	if vuln.ID != "exec.go:77" || vuln.Severity != "high" {
		t.Errorf("Vulnerability = %+v", vuln)
	}

	if results.MaintainabilityGrade != "B" {
		t.Errorf("MaintainabilityGrade = %q, want B", results.MaintainabilityGrade)
	}
	if results.MaintainabilityIndex != 70 {
		t.Errorf("MaintainabilityIndex = %v, want 70", results.MaintainabilityIndex)
	}

	if results.Passed() {
		t.Error("Passed() = true, want false")
	}
	joined := strings.Join(results.Issues, "; ")
	if !strings.Contains(joined, "cyclomatic complexity 15 exceeds maximum 10") {
		t.Errorf("Issues = %v, missing complexity issue", results.Issues)
	}
	if !strings.Contains(joined, "1 security vulnerabilities detected") {
		t.Errorf("Issues = %v, missing vulnerability issue", results.Issues)
	}
}

func TestParseLintReport_Clean(t *testing.T) {
	results, err := parseLintReport([]byte(`{"Issues": []}`))
	if err != nil {
		t.Fatalf("parseLintReport failed: %v", err)
	}
	if !results.Passed() {
		t.Errorf("Passed() = false, issues %v", results.Issues)
	}
	if results.MaintainabilityGrade != "A" {
		t.Errorf("MaintainabilityGrade = %q, want A", results.MaintainabilityGrade)
	}
}

func TestParseLintReport_Malformed(t *testing.T) {
	if _, err := parseLintReport([]byte("golangci-lint: command not found")); err == nil {
		t.Fatal("expected error for malformed report, got nil")
	}
}

func TestComplexityValue(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   int
		wantOK bool
	}{
		{
			name:   "gocyclo message",
			text:   "cyclomatic complexity 15 of func f is high (> 10)",
			want:   15,
			wantOK: true,
		},
		{
			name:   "gocognit message",
			text:   "cognitive complexity 31 of func g is high (> 20)",
			want:   31,
			wantOK: true,
		},
		{
			name: "unrelated message",
			text: "ineffectual assignment to x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := complexityValue(tt.text)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("complexityValue(%q) = (%d, %v), want (%d, %v)", tt.text, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
