// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestLoggerWithTrace_NoActiveSpan(t *testing.T) {
	logger := slog.Default()
	if got := LoggerWithTrace(context.Background(), logger); got != logger {
		t.Error("expected the base logger back when no span is active")
	}
}

func TestLoggerWithSession_InjectsFields(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("telemetry_test").Start(context.Background(), "validate")
	defer span.End()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	LoggerWithSession(ctx, logger, "sess-1").Info("gate decision")

	out := buf.String()
	for _, field := range []string{`"trace_id"`, `"span_id"`, `"session_id":"sess-1"`} {
		if !strings.Contains(out, field) {
			t.Errorf("log output missing %s: %s", field, out)
		}
	}
}
