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

import "errors"

// Sentinel errors for the safety package.
var (
	// ErrNilChange indicates ValidateChange was called with a nil change.
	ErrNilChange = errors.New("proposed change must not be nil")

	// ErrNoTestValidator indicates the gate has no test capability wired.
	ErrNoTestValidator = errors.New("test validator not configured")

	// ErrNoPerformanceValidator indicates the gate has no benchmark capability wired.
	ErrNoPerformanceValidator = errors.New("performance validator not configured")

	// ErrNoQualityValidator indicates the gate has no quality capability wired.
	ErrNoQualityValidator = errors.New("quality validator not configured")
)
