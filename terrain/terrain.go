// terrain/terrain.go
// Copyright(c) 2025-2026 cesium-flight-simulator contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package terrain provides elevation data for flight planning: an abstract
// height provider, the fail-open sampler the planners query, an in-memory
// elevation grid with bilinear filtering, and compressed tile storage as
// loose files or in a SQLite database.
package terrain

import (
	"errors"
	"log/slog"

	"github.com/derohimat/cesium-flight-simulator/log"
	"github.com/derohimat/cesium-flight-simulator/math"
	"github.com/derohimat/cesium-flight-simulator/metrics"
)

// ErrNoData is returned by Providers for positions outside their
// coverage.
var ErrNoData = errors.New("no terrain data for position")

// Provider returns the terrain height in meters at a (lon, lat) position
// given in degrees.
type Provider interface {
	HeightAt(lon, lat float64) (float64, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(lon, lat float64) (float64, error)

func (f ProviderFunc) HeightAt(lon, lat float64) (float64, error) { return f(lon, lat) }

// ConstantProvider reports the same height everywhere; it stands in when
// no elevation data is configured.
type ConstantProvider float64

func (c ConstantProvider) HeightAt(lon, lat float64) (float64, error) { return float64(c), nil }

// Sampler answers the height queries the altitude and speed planners are
// built on. It never fails: missing or erroring terrain data is reported
// as sea level after a logged warning, so a flight keeps running with
// degraded data rather than stopping.
type Sampler struct {
	provider Provider
	lg       *log.Logger
	mc       *metrics.Collector
}

func NewSampler(p Provider, lg *log.Logger, mc *metrics.Collector) *Sampler {
	if p == nil {
		p = ConstantProvider(0)
	}
	return &Sampler{provider: p, lg: lg, mc: mc}
}

// HeightAt returns the terrain height in meters at (lon, lat), or 0 if
// the provider has no answer there.
func (s *Sampler) HeightAt(lon, lat float64) float64 {
	h, err := s.provider.HeightAt(lon, lat)
	s.mc.TerrainLookup(err != nil)
	if err != nil {
		s.lg.Warn("terrain height unavailable, using sea level",
			slog.Float64("lon", lon), slog.Float64("lat", lat),
			slog.Any("error", err))
		return 0
	}
	return h
}

// HeightAhead walks the given number of equally spaced sample points
// along the heading out to distance meters, starting one step beyond
// (lon, lat), and returns the sampled heights along with their maximum.
// Terrain ahead of the camera is what the planners care about; the
// starting point itself is the caller's to include.
func (s *Sampler) HeightAhead(lon, lat, heading, distance float64, samples int) ([]float64, float64) {
	samples = max(samples, 1)

	heights := make([]float64, samples)
	hmax := 0.0
	for i := 0; i < samples; i++ {
		d := distance * float64(i+1) / float64(samples)
		slon, slat := math.Offset(lon, lat, heading, d)
		heights[i] = s.HeightAt(slon, slat)
		if i == 0 || heights[i] > hmax {
			hmax = heights[i]
		}
	}
	return heights, hmax
}
