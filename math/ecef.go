// math/ecef.go
// Copyright(c) 2025-2026 cesium-flight-simulator contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	gomath "math"

	"gonum.org/v1/gonum/spatial/r3"
)

// WGS84 ellipsoid parameters: semi-major axis in meters and first
// eccentricity squared.
const (
	wgs84A  = 6378137.0
	wgs84E2 = 6.69437999014e-3
)

// ECEF returns p in earth-centered earth-fixed coordinates, in meters.
func (p LLA) ECEF() r3.Vec {
	sinLat, cosLat := gomath.Sincos(Radians(p.Lat))
	sinLon, cosLon := gomath.Sincos(Radians(p.Lon))

	n := wgs84A / gomath.Sqrt(1-wgs84E2*sinLat*sinLat)
	return r3.Vec{
		X: (n + p.Alt) * cosLat * cosLon,
		Y: (n + p.Alt) * cosLat * sinLon,
		Z: (n*(1-wgs84E2) + p.Alt) * sinLat,
	}
}

// ECEFToLLA converts earth-centered coordinates back to geodetic
// longitude, latitude, and altitude, iterating on the latitude until it
// converges. A handful of iterations gives sub-millimeter altitude error
// anywhere on earth.
func ECEFToLLA(v r3.Vec) LLA {
	lon := gomath.Atan2(v.Y, v.X)
	r := gomath.Hypot(v.X, v.Y)
	lat := gomath.Atan2(v.Z, r*(1-wgs84E2))

	var alt float64
	for i := 0; i < 5; i++ {
		sinLat := gomath.Sin(lat)
		n := wgs84A / gomath.Sqrt(1-wgs84E2*sinLat*sinLat)
		alt = r/gomath.Cos(lat) - n
		lat = gomath.Atan2(v.Z, r*(1-wgs84E2*(n/(n+alt))))
	}
	return LLA{Lon: Degrees(lon), Lat: Degrees(lat), Alt: alt}
}

// ENUFrame returns the local east, north, and up unit vectors at
// (lon, lat), expressed in ECEF coordinates.
func ENUFrame(lon, lat float64) (east, north, up r3.Vec) {
	sinLat, cosLat := gomath.Sincos(Radians(lat))
	sinLon, cosLon := gomath.Sincos(Radians(lon))

	east = r3.Vec{X: -sinLon, Y: cosLon, Z: 0}
	north = r3.Vec{X: -sinLat * cosLon, Y: -sinLat * sinLon, Z: cosLat}
	up = r3.Vec{X: cosLat * cosLon, Y: cosLat * sinLon, Z: sinLat}
	return
}
