// planner/waypoint.go
// Copyright(c) 2025-2026 cesium-flight-simulator contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package planner decides where the camera should fly: it classifies the
// terrain around a point, recommends and clamps flight altitudes, smooths
// a path's altitude profile, and derives cinematic speeds from the
// terrain ahead.
package planner

import (
	"github.com/derohimat/cesium-flight-simulator/math"
)

// Waypoint is a geographic coordinate submitted as part of a flight
// plan. It carries no altitude; planning assigns one.
type Waypoint struct {
	Lat float64 `yaml:"lat" json:"lat"`
	Lon float64 `yaml:"lon" json:"lon"`
}

// PathPoint is a planned flight path position: a waypoint plus its
// assigned altitude in meters.
type PathPoint struct {
	Lat      float64
	Lon      float64
	Altitude float64
}

func (p PathPoint) LLA() math.LLA {
	return math.LLA{Lon: p.Lon, Lat: p.Lat, Alt: p.Altitude}
}
