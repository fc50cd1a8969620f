// metrics/metrics.go
// Copyright(c) 2025-2026 cesium-flight-simulator contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package metrics bundles the Prometheus collectors for the flight engine:
// run counts by mode and outcome, leg durations, terrain lookups, and the
// currently active flight mode. All of the recorder methods tolerate a nil
// *Collector so instrumentation can be left unwired in tests and tools.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	gatherer prometheus.Gatherer

	RunsStarted  *prometheus.CounterVec
	RunsFinished *prometheus.CounterVec
	LegDurations prometheus.Histogram

	TerrainLookups  prometheus.Counter
	TerrainFailures prometheus.Counter
	SpeedClamps     prometheus.Counter

	ActiveMode prometheus.Gauge
}

// New registers the flight engine metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	started := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flight_runs_started_total",
		Help: "Total number of flight runs started, labeled by mode.",
	}, []string{"mode"})
	started, err := registerCounterVec(reg, started, "flight_runs_started_total")
	if err != nil {
		return nil, err
	}

	finished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flight_runs_finished_total",
		Help: "Total number of flight runs finished, labeled by mode and outcome.",
	}, []string{"mode", "outcome"})
	finished, err = registerCounterVec(reg, finished, "flight_runs_finished_total")
	if err != nil {
		return nil, err
	}

	legs := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "flight_leg_duration_seconds",
		Help:    "Planned duration of each linear flight leg in seconds.",
		Buckets: []float64{3, 5, 10, 20, 40, 80, 160, 320},
	})
	legs, err = registerHistogram(reg, legs, "flight_leg_duration_seconds")
	if err != nil {
		return nil, err
	}

	lookups, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "terrain_lookups_total",
		Help: "Total number of terrain height queries.",
	}), "terrain_lookups_total")
	if err != nil {
		return nil, err
	}
	failures, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "terrain_lookup_failures_total",
		Help: "Terrain height queries that failed and fell back to zero elevation.",
	}), "terrain_lookup_failures_total")
	if err != nil {
		return nil, err
	}
	clamps, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flight_speed_clamps_total",
		Help: "Requested speeds that were clamped into the allowed range.",
	}), "flight_speed_clamps_total")
	if err != nil {
		return nil, err
	}

	active, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flight_active_mode",
		Help: "Currently active flight mode: 0 idle, 1 linear, 2 orbit, 3 lock.",
	}), "flight_active_mode")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:        gatherer,
		RunsStarted:     started,
		RunsFinished:    finished,
		LegDurations:    legs,
		TerrainLookups:  lookups,
		TerrainFailures: failures,
		SpeedClamps:     clamps,
		ActiveMode:      active,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func (c *Collector) RunStarted(mode string) {
	if c != nil && c.RunsStarted != nil {
		c.RunsStarted.WithLabelValues(mode).Inc()
	}
}

func (c *Collector) RunFinished(mode, outcome string) {
	if c != nil && c.RunsFinished != nil {
		c.RunsFinished.WithLabelValues(mode, outcome).Inc()
	}
}

func (c *Collector) LegFlown(seconds float64) {
	if c != nil && c.LegDurations != nil {
		c.LegDurations.Observe(seconds)
	}
}

func (c *Collector) TerrainLookup(failed bool) {
	if c == nil {
		return
	}
	if c.TerrainLookups != nil {
		c.TerrainLookups.Inc()
	}
	if failed && c.TerrainFailures != nil {
		c.TerrainFailures.Inc()
	}
}

func (c *Collector) SpeedClamped() {
	if c != nil && c.SpeedClamps != nil {
		c.SpeedClamps.Inc()
	}
}

func (c *Collector) SetActiveMode(mode int) {
	if c != nil && c.ActiveMode != nil {
		c.ActiveMode.Set(float64(mode))
	}
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, ctr prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(ctr); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return ctr, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
