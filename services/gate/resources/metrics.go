// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resources

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics mirrors the monitor's gauges into Prometheus.
//
// Thread Safety: Safe for concurrent use (Prometheus metrics are thread-safe).
type Metrics struct {
	// MemoryMB is the last recorded memory usage sample.
	MemoryMB prometheus.Gauge

	// CPUPercent is the last recorded CPU usage sample.
	CPUPercent prometheus.Gauge

	// DiskMB is the last recorded disk usage sample.
	DiskMB prometheus.Gauge

	// APICallsInWindow is the API call count in the current fixed window.
	APICallsInWindow prometheus.Gauge

	// LimitViolationsTotal counts limit violations observed by CheckLimits.
	LimitViolationsTotal prometheus.Counter
}

// NewMetrics creates and registers the resource metrics.
//
// Description:
//
//	Registers all gauges with the given registerer. Tests pass a fresh
//	prometheus.NewRegistry(); production callers pass
//	prometheus.DefaultRegisterer.
//
// Inputs:
//   - reg: The registerer to register with. Must not be nil.
//
// Outputs:
//   - *Metrics: The created metrics. Never nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MemoryMB: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "changegate",
			Subsystem: "resources",
			Name:      "memory_mb",
			Help:      "Last recorded session memory usage in MB",
		}),
		CPUPercent: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "changegate",
			Subsystem: "resources",
			Name:      "cpu_percent",
			Help:      "Last recorded session CPU usage in percent",
		}),
		DiskMB: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "changegate",
			Subsystem: "resources",
			Name:      "disk_mb",
			Help:      "Last recorded session disk usage in MB",
		}),
		APICallsInWindow: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "changegate",
			Subsystem: "resources",
			Name:      "api_calls_in_window",
			Help:      "API calls recorded in the current fixed 60s window",
		}),
		LimitViolationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "changegate",
			Subsystem: "resources",
			Name:      "limit_violations_total",
			Help:      "Total resource limit violations observed",
		}),
	}
}
