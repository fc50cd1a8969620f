// terrain/asciigrid_test.go
// Copyright(c) 2025-2026 cesium-flight-simulator contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package terrain

import (
	"errors"
	gomath "math"
	"strings"
	"testing"
)

const asciiGrid = `ncols 3
nrows 2
xllcorner -122.0
yllcorner 37.0
cellsize 0.5
NODATA_value -9999
100 200 -9999
10 20 30
`

func TestParseASCIIGrid(t *testing.T) {
	g, err := ParseASCIIGrid(strings.NewReader(asciiGrid))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if g.NCols != 3 || g.NRows != 2 || g.CellSize != 0.5 || g.West != -122 || g.South != 37 {
		t.Fatalf("header: got %+v", g)
	}

	// Data rows are north to south, so the last line is the southern row.
	type q struct {
		lon, lat, h float64
	}
	for _, c := range []q{
		{-122, 37, 10},
		{-121.5, 37, 20},
		{-121, 37, 30},
		{-122, 37.5, 100},
		{-121.5, 37.5, 200},
		{-121.75, 37, 15},
	} {
		h, err := g.HeightAt(c.lon, c.lat)
		if err != nil {
			t.Errorf("height at %v,%v: %v", c.lon, c.lat, err)
		} else if gomath.Abs(h-c.h) > 1e-6 {
			t.Errorf("height at %v,%v: got %v, expected %v", c.lon, c.lat, h, c.h)
		}
	}

	// The nodata cell in the northeast corner is missing data.
	if _, err := g.HeightAt(-121, 37.5); !errors.Is(err, ErrNoData) {
		t.Errorf("nodata cell: got %v, expected ErrNoData", err)
	}
}

func TestParseASCIIGridErrors(t *testing.T) {
	for name, data := range map[string]string{
		"empty":        "",
		"no data rows": "ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\n",
		"short row":    "ncols 3\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2 3\n4 5\n",
		"missing key":  "ncols 3\nnrows 2\ncellsize 1\n1 2 3\n4 5 6\n",
		"bad value":    "ncols 3\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 x 3\n4 5 6\n",
		"extra rows":   "ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2\n3 4\n5 6\n",
		"unknown key":  "ncols 2\nnrows 2\nwllcorner 0\nyllcorner 0\ncellsize 1\n1 2\n3 4\n",
		"degenerate":   "ncols 1\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\n1\n2\n",
	} {
		if _, err := ParseASCIIGrid(strings.NewReader(data)); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}
