// terrain/asciigrid.go
// Copyright(c) 2025-2026 cesium-flight-simulator contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package terrain

import (
	"bufio"
	"fmt"
	"io"
	gomath "math"
	"strconv"
	"strings"
)

// ParseASCIIGrid reads an ESRI ASCII grid: a short header of
// "key value" lines (ncols, nrows, xllcorner/yllcorner or
// xllcenter/yllcenter, cellsize, optional nodata_value) followed by
// nrows lines of heights ordered north to south. Cells holding the
// nodata value come back as missing data from Grid.HeightAt.
func ParseASCIIGrid(r io.Reader) (*Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	var ncols, nrows int
	var west, south, cellSize float64
	nodata := -9999.0
	haveCols, haveRows, haveWest, haveSouth, haveCell := false, false, false, false, false

	// Header lines are "key value"; the first line that doesn't start
	// with a letter begins the height data.
	var first string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		f := strings.Fields(line)
		key := strings.ToLower(f[0])
		if key[0] >= '0' && key[0] <= '9' || key[0] == '-' || key[0] == '.' {
			first = line
			break
		}
		if len(f) != 2 {
			return nil, fmt.Errorf("malformed header line %q", line)
		}
		v, err := strconv.ParseFloat(f[1], 64)
		if err != nil {
			return nil, fmt.Errorf("header %s: %w", key, err)
		}

		switch key {
		case "ncols":
			ncols, haveCols = int(v), true
		case "nrows":
			nrows, haveRows = int(v), true
		case "xllcorner", "xllcenter":
			west, haveWest = v, true
		case "yllcorner", "yllcenter":
			south, haveSouth = v, true
		case "cellsize":
			cellSize, haveCell = v, true
		case "nodata_value":
			nodata = v
		default:
			return nil, fmt.Errorf("unknown header key %q", key)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !haveCols || !haveRows || !haveWest || !haveSouth || !haveCell {
		return nil, fmt.Errorf("incomplete header: need ncols, nrows, xllcorner, yllcorner, cellsize")
	}
	if ncols < 2 || nrows < 2 || cellSize <= 0 {
		return nil, fmt.Errorf("degenerate grid %dx%d with cell size %v", ncols, nrows, cellSize)
	}

	g := NewGrid(west, south, cellSize, ncols, nrows)

	// Data rows run north to south; the grid stores south to north.
	row := 0
	store := func(line string) error {
		f := strings.Fields(line)
		if len(f) != ncols {
			return fmt.Errorf("row %d: got %d values, expected %d", row, len(f), ncols)
		}
		if row >= nrows {
			return fmt.Errorf("more than %d data rows", nrows)
		}
		for c, s := range f {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("row %d: %w", row, err)
			}
			if v == nodata {
				v = gomath.NaN()
			}
			g.Set(c, nrows-1-row, v)
		}
		row++
		return nil
	}

	if err := store(first); err != nil {
		return nil, err
	}
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if err := store(line); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if row != nrows {
		return nil, fmt.Errorf("got %d data rows, expected %d", row, nrows)
	}
	return g, nil
}
