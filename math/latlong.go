// math/latlong.go
// Copyright(c) 2025-2026 cesium-flight-simulator contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"fmt"
	"log/slog"
	gomath "math"
)

const (
	// EarthRadius is the mean spherical earth radius in meters, used for
	// great-circle distance and bearing.
	EarthRadius = 6371000

	// MetersPerDegreeLat is the flat-earth meters per degree of latitude.
	// A degree of longitude spans MetersPerDegreeLat * cos(latitude)
	// meters.
	MetersPerDegreeLat = 111320
)

// LLA is a geodetic position: longitude and latitude in degrees, altitude
// in meters. Longitude is stored first to match the (lon, lat) argument
// order used throughout the terrain and planner APIs.
type LLA struct {
	Lon, Lat float64
	Alt      float64
}

func (p LLA) String() string {
	return fmt.Sprintf("%.6f,%.6f@%.0fm", p.Lat, p.Lon, p.Alt)
}

func (p LLA) IsZero() bool {
	return p == LLA{}
}

func (p LLA) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("lon", p.Lon),
		slog.Float64("lat", p.Lat),
		slog.Float64("alt", p.Alt))
}

// Offset returns the position the given distance in meters along the
// given heading from (lon, lat), using the local flat-earth
// approximation. The approximation is only used for offsets of at most a
// few kilometers, where its error is negligible away from the poles.
func Offset(lon, lat, heading, meters float64) (float64, float64) {
	h := Radians(heading)
	dn := meters * gomath.Cos(h)
	de := meters * gomath.Sin(h)
	lat2 := lat + dn/MetersPerDegreeLat
	lon2 := lon + de/(MetersPerDegreeLat*gomath.Cos(Radians(lat)))
	return lon2, lat2
}

// Distance returns the great-circle distance in meters between two
// (lon, lat) positions, via the haversine formula.
func Distance(lon1, lat1, lon2, lat2 float64) float64 {
	phi1, phi2 := Radians(lat1), Radians(lat2)
	dphi, dlambda := Radians(lat2-lat1), Radians(lon2-lon1)

	a := Sqr(gomath.Sin(dphi/2)) + gomath.Cos(phi1)*gomath.Cos(phi2)*Sqr(gomath.Sin(dlambda/2))
	return 2 * EarthRadius * gomath.Asin(gomath.Sqrt(a))
}

// Bearing returns the initial great-circle bearing in degrees [0, 360)
// from the first (lon, lat) position to the second.
func Bearing(lon1, lat1, lon2, lat2 float64) float64 {
	phi1, phi2 := Radians(lat1), Radians(lat2)
	dlambda := Radians(lon2 - lon1)

	y := gomath.Sin(dlambda) * gomath.Cos(phi2)
	x := gomath.Cos(phi1)*gomath.Sin(phi2) - gomath.Sin(phi1)*gomath.Cos(phi2)*gomath.Cos(dlambda)
	return NormalizeHeading(Degrees(gomath.Atan2(y, x)))
}

// Offset returns the position the given distance in meters along the
// given heading from p, preserving p's altitude.
func (p LLA) Offset(heading, meters float64) LLA {
	lon, lat := Offset(p.Lon, p.Lat, heading, meters)
	return LLA{Lon: lon, Lat: lat, Alt: p.Alt}
}

// DistanceTo returns the great-circle distance in meters from p to o,
// ignoring altitude.
func (p LLA) DistanceTo(o LLA) float64 {
	return Distance(p.Lon, p.Lat, o.Lon, o.Lat)
}

// BearingTo returns the initial bearing in degrees from p to o.
func (p LLA) BearingTo(o LLA) float64 {
	return Bearing(p.Lon, p.Lat, o.Lon, o.Lat)
}
