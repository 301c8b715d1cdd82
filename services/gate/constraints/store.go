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
)

// Store is an immutable compiled view of one OperatingConstraints
// document. The three pattern tiers are compiled once at construction.
//
// Thread Safety: Safe for concurrent use; the store is never mutated
// after NewStore returns.
type Store struct {
	constraints OperatingConstraints

	readOnly     *PathMatcher
	writeAllowed *PathMatcher
	prohibited   *PathMatcher
}

// NewStore compiles an OperatingConstraints document into a Store.
//
// Description:
//
//	Compiles all three file-access tiers. A pattern that fails to
//	compile rejects the whole document; a half-compiled policy must
//	never gate changes.
//
// Inputs:
//
//	oc - The policy document. Copied; the caller's value is not retained.
//
// Outputs:
//
//	*Store - The compiled store. Never nil on success.
//	error - Non-nil if any pattern in any tier fails to compile.
func NewStore(oc OperatingConstraints) (*Store, error) {
	readOnly, err := CompilePatterns(oc.FileAccess.ReadOnly)
	if err != nil {
		return nil, fmt.Errorf("read-only tier: %w", err)
	}
	writeAllowed, err := CompilePatterns(oc.FileAccess.WriteAllowed)
	if err != nil {
		return nil, fmt.Errorf("write-allowed tier: %w", err)
	}
	prohibited, err := CompilePatterns(oc.FileAccess.Prohibited)
	if err != nil {
		return nil, fmt.Errorf("prohibited tier: %w", err)
	}

	return &Store{
		constraints:  oc,
		readOnly:     readOnly,
		writeAllowed: writeAllowed,
		prohibited:   prohibited,
	}, nil
}

// Constraints returns a copy of the policy document the store was built
// from.
func (s *Store) Constraints() OperatingConstraints {
	return s.constraints
}

// Limits returns the configured resource ceilings.
func (s *Store) Limits() ResourceLimits {
	return s.constraints.ResourceLimits
}

// IsProhibited reports whether relPath matches the prohibited tier.
func (s *Store) IsProhibited(relPath string) bool {
	return s.prohibited.Matches(relPath)
}

// IsWriteAllowed reports whether relPath matches the write-allowed tier.
// Callers enforcing policy must check IsProhibited first; prohibited
// wins over write-allowed.
func (s *Store) IsWriteAllowed(relPath string) bool {
	return s.writeAllowed.Matches(relPath)
}

// IsReadOnly reports whether relPath matches the read-only tier.
func (s *Store) IsReadOnly(relPath string) bool {
	return s.readOnly.Matches(relPath)
}

// Classify returns the access tier for relPath, applying the
// prohibited > write-allowed > read-only precedence.
func (s *Store) Classify(relPath string) AccessClass {
	switch {
	case s.prohibited.Matches(relPath):
		return AccessProhibited
	case s.writeAllowed.Matches(relPath):
		return AccessWriteAllowed
	case s.readOnly.Matches(relPath):
		return AccessReadOnly
	default:
		return AccessUnmatched
	}
}

// OperationAllowed reports whether an operation name appears in the
// allowed list and not in the prohibited list. Informational; the
// orchestrator uses this to decide which actions to attempt at all.
func (s *Store) OperationAllowed(name string) bool {
	for _, op := range s.constraints.ProhibitedOperations {
		if op == name {
			return false
		}
	}
	for _, op := range s.constraints.AllowedOperations {
		if op == name {
			return true
		}
	}
	return false
}
