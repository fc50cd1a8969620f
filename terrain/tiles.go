// terrain/tiles.go
// Copyright(c) 2025-2026 cesium-flight-simulator contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package terrain

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	gomath "math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/derohimat/cesium-flight-simulator/log"
	"github.com/derohimat/cesium-flight-simulator/math"
	"github.com/derohimat/cesium-flight-simulator/util"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"
)

// TileSuffix is the extension for encoded terrain tile files.
const TileSuffix = ".msgpack.zst"

// TileName returns the canonical name of the 1x1 degree tile containing
// (lon, lat), named for its southwest corner in the usual DEM style:
// N37W123 covers longitudes [-123,-122) and latitudes [37,38).
func TileName(lon, lat float64) string {
	latT := int(gomath.Floor(lat))
	lonT := int(gomath.Floor(lon))

	ns, ew := "N", "E"
	if latT < 0 {
		ns, latT = "S", -latT
	}
	if lonT < 0 {
		ew, lonT = "W", -lonT
	}
	return fmt.Sprintf("%s%02d%s%03d", ns, latT, ew, lonT)
}

// EncodeTile writes the grid to w in the standard tile format
// (msgpack + zstd compression).
func EncodeTile(w io.Writer, g *Grid) error {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	defer zw.Close()

	if err := msgpack.NewEncoder(zw).Encode(g); err != nil {
		return fmt.Errorf("failed to encode tile: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to close zstd writer: %w", err)
	}
	return nil
}

// DecodeTile reads a tile written by EncodeTile.
func DecodeTile(r io.Reader) (*Grid, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer zr.Close()

	var g Grid
	if err := msgpack.NewDecoder(zr).Decode(&g); err != nil {
		return nil, fmt.Errorf("failed to decode tile: %w", err)
	}
	if g.NCols < 2 || g.NRows < 2 || len(g.Heights) != g.NCols*g.NRows {
		return nil, fmt.Errorf("tile holds %d heights for a %dx%d grid", len(g.Heights), g.NCols, g.NRows)
	}
	return &g, nil
}

// SplitTiles cuts a grid into degree-aligned tiles suitable for a
// TileSet or SQLiteStore, named by their southwest corners. Adjacent
// tiles share one row and column of samples so bilinear lookups stay
// continuous across tile seams. Slivers with fewer than two rows or
// columns are dropped.
func SplitTiles(g *Grid) []*Grid {
	east := g.West + float64(g.NCols-1)*g.CellSize
	north := g.South + float64(g.NRows-1)*g.CellSize

	var tiles []*Grid
	for tlat := gomath.Floor(g.South); tlat <= north; tlat++ {
		for tlon := gomath.Floor(g.West); tlon <= east; tlon++ {
			if t := g.subGrid(tlon, tlat); t != nil {
				tiles = append(tiles, t)
			}
		}
	}
	return tiles
}

// subGrid extracts the nodes covering the 1x1 degree cell with
// southwest corner (tlon, tlat), including the first node at or past
// each far edge for seam overlap. It returns nil if fewer than two
// rows or columns fall in the cell.
func (g *Grid) subGrid(tlon, tlat float64) *Grid {
	c0 := max(0, int(gomath.Ceil((tlon-g.West)/g.CellSize-1e-9)))
	r0 := max(0, int(gomath.Ceil((tlat-g.South)/g.CellSize-1e-9)))
	c1 := min(g.NCols-1, int(gomath.Ceil((tlon+1-g.West)/g.CellSize-1e-9)))
	r1 := min(g.NRows-1, int(gomath.Ceil((tlat+1-g.South)/g.CellSize-1e-9)))

	if c1-c0 < 1 || r1-r0 < 1 {
		return nil
	}

	t := NewGrid(g.West+float64(c0)*g.CellSize, g.South+float64(r0)*g.CellSize,
		g.CellSize, c1-c0+1, r1-r0+1)
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			t.Set(c-c0, r-r0, g.at(c, r))
		}
	}
	return t
}

// TileSet serves heights from a directory of encoded tile files, named
// TileName(...)+TileSuffix. The directory is scanned once at open for
// the set of available tiles; decoded tiles are kept in an expiring LRU
// cache so steady flight over the same few tiles doesn't touch disk.
type TileSet struct {
	dir   string
	names map[string]bool
	cache *expirable.LRU[string, *Grid]
	lg    *log.Logger
}

func OpenTileSet(dir string, lg *log.Logger) (*TileSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make(map[string]bool)
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), TileSuffix); ok && !e.IsDir() {
			names[name] = true
		}
	}

	lg.Infof("%s: opened tile set with %d tiles", dir, len(names))
	return &TileSet{
		dir:   dir,
		names: names,
		cache: expirable.NewLRU[string, *Grid](64, nil, 15*time.Minute),
		lg:    lg,
	}, nil
}

// TileNames returns the names of the available tiles, sorted.
func (t *TileSet) TileNames() []string {
	return util.SortedMapKeys(t.names)
}

func (t *TileSet) Count() int { return len(t.names) }

// HeightAt implements Provider.
func (t *TileSet) HeightAt(lon, lat float64) (float64, error) {
	name := TileName(lon, lat)
	if !t.names[name] {
		return 0, ErrNoData
	}

	g, ok := t.cache.Get(name)
	if !ok {
		var err error
		if g, err = t.load(name); err != nil {
			return 0, err
		}
		t.cache.Add(name, g)
	}
	return g.HeightAt(lon, lat)
}

func (t *TileSet) load(name string) (*Grid, error) {
	f, err := os.Open(filepath.Join(t.dir, name+TileSuffix))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := DecodeTile(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	t.lg.Debug("loaded terrain tile", slog.String("name", name),
		slog.Int("ncols", g.NCols), slog.Int("nrows", g.NRows))
	return g, nil
}

// Prefetch warms the cache with the tiles covering the given positions,
// decoding them concurrently. Missing tiles are skipped; a flight over
// them will fall back to sea level as usual.
func (t *TileSet) Prefetch(ctx context.Context, positions []math.LLA) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(4)

	queued := make(map[string]bool)
	for _, p := range positions {
		name := TileName(p.Lon, p.Lat)
		if queued[name] || !t.names[name] || t.cache.Contains(name) {
			continue
		}
		queued[name] = true

		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			g, err := t.load(name)
			if err != nil {
				return err
			}
			t.cache.Add(name, g)
			return nil
		})
	}
	return eg.Wait()
}
