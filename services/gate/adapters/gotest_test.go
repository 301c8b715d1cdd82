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
	"testing"
)

const sampleTestOutput = `{"Action":"run","Package":"example.com/p","Test":"TestParse"}
{"Action":"pass","Package":"example.com/p","Test":"TestParse","Elapsed":0.01}
{"Action":"run","Package":"example.com/p","Test":"TestStore"}
{"Action":"fail","Package":"example.com/p","Test":"TestStore","Elapsed":0.02}
{"Action":"run","Package":"example.com/p","Test":"TestIntegrationEndToEnd"}
{"Action":"pass","Package":"example.com/p","Test":"TestIntegrationEndToEnd","Elapsed":1.5}
{"Action":"run","Package":"example.com/p","Test":"TestIntegrationReload"}
{"Action":"fail","Package":"example.com/p","Test":"TestIntegrationReload","Elapsed":0.8}
{"Action":"output","Package":"example.com/p","Output":"coverage: 81.4% of statements\n"}
{"Action":"output","Package":"example.com/q","Output":"coverage: 65.0% of statements\n"}
{"Action":"fail","Package":"example.com/p","Elapsed":2.4}
`

func TestParseTestEvents(t *testing.T) {
	results, err := parseTestEvents([]byte(sampleTestOutput))
	if err != nil {
		t.Fatalf("parseTestEvents failed: %v", err)
	}

	if results.UnitTestsPassed != 1 {
		t.Errorf("UnitTestsPassed = %d, want 1", results.UnitTestsPassed)
	}
	if results.UnitTestsFailed != 1 {
		t.Errorf("UnitTestsFailed = %d, want 1", results.UnitTestsFailed)
	}
	if results.IntegrationTestsPassed != 1 {
		t.Errorf("IntegrationTestsPassed = %d, want 1", results.IntegrationTestsPassed)
	}
	if results.IntegrationTestsFailed != 1 {
		t.Errorf("IntegrationTestsFailed = %d, want 1", results.IntegrationTestsFailed)
	}
	if results.CoveragePercent != 81.4 {
		t.Errorf("CoveragePercent = %v, want 81.4", results.CoveragePercent)
	}
	if len(results.IntegrationScenarios) != 1 || results.IntegrationScenarios[0] != "TestIntegrationEndToEnd" {
		t.Errorf("IntegrationScenarios = %v", results.IntegrationScenarios)
	}
	if results.Passed() {
		t.Error("Passed() = true, want false")
	}
}

func TestParseTestEvents_AllGreen(t *testing.T) {
	data := `{"Action":"pass","Package":"example.com/p","Test":"TestOne"}
{"Action":"pass","Package":"example.com/p","Test":"TestTwo"}
{"Action":"output","Package":"example.com/p","Output":"coverage: 92.0% of statements\n"}
{"Action":"pass","Package":"example.com/p","Elapsed":0.1}
`
	results, err := parseTestEvents([]byte(data))
	if err != nil {
		t.Fatalf("parseTestEvents failed: %v", err)
	}
	if !results.Passed() {
		t.Error("Passed() = false, want true")
	}
	if results.UnitTestsPassed != 2 {
		t.Errorf("UnitTestsPassed = %d, want 2", results.UnitTestsPassed)
	}
	if results.CoveragePercent != 92.0 {
		t.Errorf("CoveragePercent = %v, want 92.0", results.CoveragePercent)
	}
}

func TestParseTestEvents_Malformed(t *testing.T) {
	if _, err := parseTestEvents([]byte("not json at all")); err == nil {
		t.Fatal("expected error for malformed stream, got nil")
	}
}
