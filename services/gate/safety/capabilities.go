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
)

// TestValidator runs unit and integration suites scoped to the changed
// files. Backed by an external test runner; implementations live in the
// adapters package.
//
// ValidateTests may block for seconds to minutes. The caller applies its
// own timeout through ctx; the gate has no internal timeout or retry.
type TestValidator interface {
	ValidateTests(ctx context.Context, change *ProposedChange) (*TestResults, error)
}

// PerformanceValidator runs a fixed battery of named benchmarks against
// recorded baselines.
type PerformanceValidator interface {
	ValidatePerformance(ctx context.Context, change *ProposedChange) (*PerformanceResults, error)
}

// QualityValidator computes complexity, maintainability, duplication, and
// security metrics for the changed files.
type QualityValidator interface {
	ValidateQuality(ctx context.Context, change *ProposedChange) (*CodeQualityResults, error)
}
