// planner/altitude.go
// Copyright(c) 2025-2026 cesium-flight-simulator contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package planner

import (
	"log/slog"

	"github.com/derohimat/cesium-flight-simulator/log"
	"github.com/derohimat/cesium-flight-simulator/math"
	"github.com/derohimat/cesium-flight-simulator/terrain"
	"github.com/derohimat/cesium-flight-simulator/util"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// TerrainClearance is the fixed height margin kept above terrain;
	// ObstacleBuffer covers towers and buildings the elevation data
	// doesn't know about.
	TerrainClearance = 50
	ObstacleBuffer   = 30

	// Flight altitudes are kept within these bounds in meters.
	MinAltitude = 80
	MaxAltitude = 1500

	// DefaultBaseAltitude is the altitude used when a flight doesn't
	// request one.
	DefaultBaseAltitude = 200

	// Safety checks look at terrain up to three seconds of travel ahead,
	// capped at this distance in meters.
	maxLookahead     = 200
	lookaheadSamples = 5

	// Terrain analysis samples this many points on a ring around the
	// query position, plus the position itself.
	ringSamples = 16

	// Ring radii for a standalone altitude query and for the tighter
	// per-waypoint analysis along a path.
	DefaultAnalysisRadius = 1000
	PathAnalysisRadius    = 500
)

// AltitudeRecommendation is the result of terrain analysis around a
// point: the suggested flight altitude, the terrain height at the point,
// what kind of scene it looks like, and how much to trust the suggestion.
type AltitudeRecommendation struct {
	Altitude      float64
	TerrainHeight float64
	Scene         SceneType
	Confidence    float64
}

// AltitudePlanner answers "how high should the camera fly here" from
// sampled terrain plus the user's altitude presets.
type AltitudePlanner struct {
	sampler *terrain.Sampler
	presets Presets
	lg      *log.Logger
}

func NewAltitudePlanner(sampler *terrain.Sampler, presets Presets, lg *log.Logger) *AltitudePlanner {
	if presets == nil {
		presets = DefaultPresets()
	}
	return &AltitudePlanner{sampler: sampler, presets: presets, lg: lg}
}

// AutoAltitude recommends a flight altitude for (lon, lat) by sampling
// the terrain there and on a ring of the given radius in meters around
// it (0 means DefaultAnalysisRadius). Each scene class has its own
// altitude formula; the result is always within
// [MinAltitude, MaxAltitude].
func (ap *AltitudePlanner) AutoAltitude(lon, lat, radius float64) AltitudeRecommendation {
	if radius <= 0 {
		radius = DefaultAnalysisRadius
	}

	center := ap.sampler.HeightAt(lon, lat)
	samples := make([]float64, 0, ringSamples+1)
	samples = append(samples, center)
	for i := 0; i < ringSamples; i++ {
		slon, slat := math.Offset(lon, lat, float64(i)*360/ringSamples, radius)
		samples = append(samples, ap.sampler.HeightAt(slon, slat))
	}

	st := terrainStats{
		min: floats.Min(samples),
		max: floats.Max(samples),
		avg: stat.Mean(samples, nil),
	}
	st.variation = st.max - st.min
	scene := classifyScene(st)

	var alt, confidence float64
	switch scene {
	case SceneFlat:
		alt, confidence = max(100, st.avg+150), 0.9
	case SceneHilly:
		alt, confidence = st.max+150, 0.8
	case SceneUrban:
		alt, confidence = st.max+min(st.variation, 200)+100, 0.7
	case SceneMountainous:
		alt, confidence = st.max+200+0.3*st.variation, 0.75
	case SceneCoastal:
		alt, confidence = max(120, st.max+100), 0.85
	}

	rec := AltitudeRecommendation{
		Altitude:      math.Clamp(alt, MinAltitude, MaxAltitude),
		TerrainHeight: center,
		Scene:         scene,
		Confidence:    confidence,
	}
	ap.lg.Debug("auto altitude", slog.Float64("lon", lon), slog.Float64("lat", lat),
		slog.String("scene", scene.String()), slog.Float64("altitude", rec.Altitude),
		slog.Float64("variation", st.variation))
	return rec
}

// AutoAltitudeForPath recommends a single altitude for a whole path: each
// waypoint is analyzed with the tighter path radius and the results are
// combined with a bias toward the highest requirement, since the plan
// must clear the worst point, not the average one.
func (ap *AltitudePlanner) AutoAltitudeForPath(wps []Waypoint) float64 {
	if len(wps) == 0 {
		return DefaultBaseAltitude
	}

	recommended := util.MapSlice(wps, func(wp Waypoint) float64 {
		return ap.AutoAltitude(wp.Lon, wp.Lat, PathAnalysisRadius).Altitude
	})
	return 0.4*stat.Mean(recommended, nil) + 0.6*floats.Max(recommended)
}

// SafeAltitude raises desired if needed to keep the terrain clearance
// and obstacle buffer (plus any extra margin) above the ground at
// (lon, lat).
func (ap *AltitudePlanner) SafeAltitude(lon, lat, desired, extraMargin float64) float64 {
	h := ap.sampler.HeightAt(lon, lat)
	return max(desired, h+TerrainClearance+ObstacleBuffer+extraMargin)
}

// SafeAltitudeWithLookahead is SafeAltitude against the highest terrain
// within about three seconds of travel along the heading, rather than
// just the ground underfoot, so climbs start before ridgelines arrive.
func (ap *AltitudePlanner) SafeAltitudeWithLookahead(lon, lat, heading, desired, speed float64) float64 {
	dist := min(maxLookahead, 3*speed)
	_, ahead := ap.sampler.HeightAhead(lon, lat, heading, dist, lookaheadSamples)
	h := max(ap.sampler.HeightAt(lon, lat), ahead)
	return max(desired, h+TerrainClearance+ObstacleBuffer)
}

// AdjustPathForTerrainAvoidance assigns an altitude to every waypoint:
// each point gets a lookahead safety check along its direction of travel
// at the default cruise speed, then one smoothing pass softens altitude
// steps between interior points. Smoothed values are re-clamped against
// their point's terrain floor so smoothing can never pull a point below
// clearance. Endpoints are not smoothed.
func (ap *AltitudePlanner) AdjustPathForTerrainAvoidance(wps []Waypoint, baseAltitude float64) []PathPoint {
	if len(wps) == 0 {
		return nil
	}
	if baseAltitude <= 0 {
		baseAltitude = DefaultBaseAltitude
	}

	floors := make([]float64, len(wps))
	alts := make([]float64, len(wps))
	for i, wp := range wps {
		floors[i] = ap.SafeAltitudeWithLookahead(wp.Lon, wp.Lat, ap.pathHeading(wps, i), 0, DefaultSpeed)
		alts[i] = max(baseAltitude, floors[i])
	}

	smoothed := util.DuplicateSlice(alts)
	for i := 1; i < len(alts)-1; i++ {
		smoothed[i] = 0.25*alts[i-1] + 0.5*alts[i] + 0.25*alts[i+1]
		smoothed[i] = max(smoothed[i], floors[i])
	}

	pts := make([]PathPoint, len(wps))
	for i, wp := range wps {
		pts[i] = PathPoint{Lat: wp.Lat, Lon: wp.Lon, Altitude: smoothed[i]}
	}
	return pts
}

// pathHeading returns waypoint i's direction of travel: toward the next
// waypoint, or continuing from the previous one for the last point.
func (ap *AltitudePlanner) pathHeading(wps []Waypoint, i int) float64 {
	if i+1 < len(wps) {
		return math.Bearing(wps[i].Lon, wps[i].Lat, wps[i+1].Lon, wps[i+1].Lat)
	}
	if i > 0 {
		return math.Bearing(wps[i-1].Lon, wps[i-1].Lat, wps[i].Lon, wps[i].Lat)
	}
	return 0
}

// PresetAltitude returns the altitude for a named preset, falling back
// to the default preset for unknown names.
func (ap *AltitudePlanner) PresetAltitude(name string) float64 {
	return ap.presets.Altitude(name)
}

// AllPresets returns a copy of the planner's altitude presets.
func (ap *AltitudePlanner) AllPresets() Presets {
	return ap.presets.Clone()
}
