// terrain/grid.go
// Copyright(c) 2025-2026 cesium-flight-simulator contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package terrain

import (
	gomath "math"

	"github.com/derohimat/cesium-flight-simulator/math"
)

// Grid is a uniform elevation lattice with bilinear filtering. Sample
// (c, r) sits at longitude West + c*CellSize and latitude
// South + r*CellSize; rows run south to north. Heights are stored as
// float32 since elevation data is bulky and centimeter precision is
// plenty; cells with no data hold NaN.
type Grid struct {
	West     float64   `msgpack:"west"`
	South    float64   `msgpack:"south"`
	CellSize float64   `msgpack:"cell"`
	NCols    int       `msgpack:"ncols"`
	NRows    int       `msgpack:"nrows"`
	Heights  []float32 `msgpack:"heights"`
}

func NewGrid(west, south, cellSize float64, ncols, nrows int) *Grid {
	return &Grid{
		West:     west,
		South:    south,
		CellSize: cellSize,
		NCols:    ncols,
		NRows:    nrows,
		Heights:  make([]float32, ncols*nrows),
	}
}

func (g *Grid) Set(c, r int, h float64) {
	g.Heights[r*g.NCols+c] = float32(h)
}

func (g *Grid) at(c, r int) float64 {
	return float64(g.Heights[r*g.NCols+c])
}

// Contains reports whether (lon, lat) falls inside the grid's sampled
// extent.
func (g *Grid) Contains(lon, lat float64) bool {
	x := (lon - g.West) / g.CellSize
	y := (lat - g.South) / g.CellSize
	return x >= 0 && y >= 0 && x <= float64(g.NCols-1) && y <= float64(g.NRows-1)
}

// HeightAt returns the bilinearly filtered height at (lon, lat), or
// ErrNoData if the position is outside the grid or any contributing
// sample is missing.
func (g *Grid) HeightAt(lon, lat float64) (float64, error) {
	if !g.Contains(lon, lat) {
		return 0, ErrNoData
	}

	x := (lon - g.West) / g.CellSize
	y := (lat - g.South) / g.CellSize
	c0, r0 := int(x), int(y)
	c1, r1 := min(c0+1, g.NCols-1), min(r0+1, g.NRows-1)
	dx, dy := x-float64(c0), y-float64(r0)

	h00, h10 := g.at(c0, r0), g.at(c1, r0)
	h01, h11 := g.at(c0, r1), g.at(c1, r1)
	h := math.Lerp(dy, math.Lerp(dx, h00, h10), math.Lerp(dx, h01, h11))
	if gomath.IsNaN(h) {
		return 0, ErrNoData
	}
	return h, nil
}
