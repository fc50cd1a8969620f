// math/core.go
// Copyright(c) 2025-2026 cesium-flight-simulator contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package math provides the geospatial math the flight engine is built on:
// flat-earth lat-long offsets, spherical distance and bearing, WGS84 ECEF
// conversions, and smooth 3D curves for camera paths.
package math

import (
	gomath "math"

	"golang.org/x/exp/constraints"
)

// Degrees converts an angle expressed in radians to degrees
func Degrees(r float64) float64 {
	return r * 180 / gomath.Pi
}

// Radians converts an angle expressed in degrees to radians
func Radians(d float64) float64 {
	return d / 180 * gomath.Pi
}

func Abs[V constraints.Integer | constraints.Float](x V) V {
	if x < 0 {
		return -x
	}
	return x
}

func Sqr[V constraints.Integer | constraints.Float](v V) V { return v * v }

func Clamp[T constraints.Ordered](x T, low T, high T) T {
	if x < low {
		return low
	} else if x > high {
		return high
	}
	return x
}

func Lerp(x, a, b float64) float64 {
	return (1-x)*a + x*b
}

// NormalizeHeading wraps a heading in degrees to [0, 360).
func NormalizeHeading(h float64) float64 {
	h = gomath.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}

// HeadingDifference returns the minimum angular distance in degrees
// between two headings, in [0, 180].
func HeadingDifference(a float64, b float64) float64 {
	a, b = NormalizeHeading(a), NormalizeHeading(b)
	var d float64
	if a > b {
		d = a - b
	} else {
		d = b - a
	}
	if d > 180 {
		d = 360 - d
	}
	return d
}

func OppositeHeading(h float64) float64 {
	return NormalizeHeading(h + 180)
}
