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
	"regexp"
	"strings"
)

// PathMatcher is a set of policy patterns compiled into anchored regular
// expressions. Matching is purely lexical: no case folding, no symlink
// resolution, full-string anchored.
//
// Thread Safety: Safe for concurrent use after construction.
type PathMatcher struct {
	sources  []string
	compiled []*regexp.Regexp
}

// CompilePatterns compiles a pattern list into a PathMatcher.
//
// Description:
//
//	Each glob-style pattern is translated once into an anchored regexp:
//	`**` matches any sequence of characters including path separators,
//	a bare `*` matches any sequence excluding the separator, and every
//	other character is matched literally (dots are escaped). Compiling
//	at policy-load time keeps per-file checks cheap and the tier
//	precedence deterministic.
//
// Inputs:
//
//	patterns - Glob-style policy patterns. May be empty.
//
// Outputs:
//
//	*PathMatcher - The compiled matcher. Never nil on success.
//	error - Non-nil if a pattern cannot be compiled.
func CompilePatterns(patterns []string) (*PathMatcher, error) {
	m := &PathMatcher{
		sources:  make([]string, 0, len(patterns)),
		compiled: make([]*regexp.Regexp, 0, len(patterns)),
	}
	for _, pattern := range patterns {
		re, err := compileGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile policy pattern %q: %w", pattern, err)
		}
		m.sources = append(m.sources, pattern)
		m.compiled = append(m.compiled, re)
	}
	return m, nil
}

// Matches reports whether relPath matches at least one pattern in the set.
func (m *PathMatcher) Matches(relPath string) bool {
	for _, re := range m.compiled {
		if re.MatchString(relPath) {
			return true
		}
	}
	return false
}

// Patterns returns the source patterns the matcher was compiled from.
func (m *PathMatcher) Patterns() []string {
	out := make([]string, len(m.sources))
	copy(out, m.sources)
	return out
}

// Len returns the number of compiled patterns.
func (m *PathMatcher) Len() int {
	return len(m.compiled)
}

// compileGlob translates one glob pattern into an anchored regexp.
//
// The scan order matters: `**` must be consumed before `*` so that a
// double star never degrades into two single-segment wildcards. A `**/`
// sequence is consumed as a unit and may match zero directory levels, so
// `src/**/*.ts` accepts both `src/foo.ts` and `src/a/b/foo.ts`.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("^")

	for i := 0; i < len(pattern); {
		switch {
		case strings.HasPrefix(pattern[i:], "**/"):
			sb.WriteString("(?:.*/)?")
			i += 3
		case strings.HasPrefix(pattern[i:], "**"):
			sb.WriteString(".*")
			i += 2
		case pattern[i] == '*':
			sb.WriteString("[^/]*")
			i++
		default:
			sb.WriteString(regexp.QuoteMeta(string(pattern[i])))
			i++
		}
	}

	sb.WriteString("$")
	return regexp.Compile(sb.String())
}
