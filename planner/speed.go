// planner/speed.go
// Copyright(c) 2025-2026 cesium-flight-simulator contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package planner

import (
	"github.com/derohimat/cesium-flight-simulator/math"
	"github.com/derohimat/cesium-flight-simulator/metrics"
	"github.com/derohimat/cesium-flight-simulator/terrain"
)

// Cinematic speed bounds in m/s.
const (
	MinSpeed     = 20
	MaxSpeed     = 150
	DefaultSpeed = 60
	SlowSpeed    = 30
	FastSpeed    = 100
)

// Terrain roughness ahead is measured over this lookahead distance with
// this many samples.
const (
	speedLookahead = 500
	speedSamples   = 10
)

// SpeedGovernor bounds requested speeds and derives cinematic speeds from
// altitude and the terrain ahead.
type SpeedGovernor struct {
	sampler *terrain.Sampler
	mc      *metrics.Collector
}

func NewSpeedGovernor(sampler *terrain.Sampler, mc *metrics.Collector) *SpeedGovernor {
	return &SpeedGovernor{sampler: sampler, mc: mc}
}

// ClampSpeed bounds a requested speed to [MinSpeed, MaxSpeed].
func (g *SpeedGovernor) ClampSpeed(v float64) float64 {
	c := math.Clamp(v, MinSpeed, MaxSpeed)
	if c != v {
		g.mc.SpeedClamped()
	}
	return c
}

// RecommendedSpeed picks a cruise speed for an altitude: low flight is
// slow and scenic, high flight covers ground.
func (g *SpeedGovernor) RecommendedSpeed(altitude float64) float64 {
	switch {
	case altitude < 100:
		return SlowSpeed
	case altitude < 300:
		return DefaultSpeed
	default:
		return FastSpeed
	}
}

// DynamicSpeed derives a speed from the average terrain variation over
// the next 500m along the heading: the rougher the ground ahead, the
// slower the camera flies, which lets a leg decelerate before reaching
// broken terrain.
func (g *SpeedGovernor) DynamicSpeed(lon, lat, heading, altitude float64) float64 {
	heights, _ := g.sampler.HeightAhead(lon, lat, heading, speedLookahead, speedSamples)

	var total float64
	for i := 1; i < len(heights); i++ {
		total += math.Abs(heights[i] - heights[i-1])
	}
	variation := total / float64(len(heights))

	switch {
	case variation > 50:
		return SlowSpeed
	case variation > 20:
		return DefaultSpeed
	default:
		return min(FastSpeed, g.RecommendedSpeed(altitude))
	}
}
