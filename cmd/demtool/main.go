// cmd/demtool/main.go
// Copyright(c) 2025-2026 cesium-flight-simulator contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// demtool turns elevation models into the terrain tiles the simulator
// samples at runtime. Its input is one or more ESRI ASCII grids; output
// is either a directory of compressed tile files or a single SQLite
// database, split on one degree boundaries either way.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/derohimat/cesium-flight-simulator/terrain"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: demtool <command> [args]

  pack <grid.asc ...> <out-dir | out.db>   split ASCII grids into degree tiles
  info <tiles-dir | tiles.db>              list the stored tiles
  sample <tiles-dir | tiles.db> <lon> <lat>  report the height at a position
`)
	os.Exit(1)
}

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
	}

	var err error
	switch args[0] {
	case "pack":
		err = pack(args[1:])
	case "info":
		err = info(args[1:])
	case "sample":
		err = sample(args[1:])
	default:
		usage()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func pack(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: demtool pack <grid.asc ...> <out-dir | out.db>")
	}
	inputs, out := args[:len(args)-1], args[len(args)-1]

	var write func(*terrain.Grid) error
	if strings.HasSuffix(out, ".db") || strings.HasSuffix(out, ".sqlite") {
		store, err := terrain.OpenSQLiteStore(out)
		if err != nil {
			return err
		}
		defer store.Close()
		write = store.WriteTile
	} else {
		if err := os.MkdirAll(out, 0o755); err != nil {
			return err
		}
		write = func(g *terrain.Grid) error {
			f, err := os.Create(filepath.Join(out, terrain.TileName(g.West, g.South)+terrain.TileSuffix))
			if err != nil {
				return err
			}
			if err := terrain.EncodeTile(f, g); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		}
	}

	nTiles, nSamples := 0, 0
	for _, in := range inputs {
		f, err := os.Open(in)
		if err != nil {
			return err
		}
		g, err := terrain.ParseASCIIGrid(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", in, err)
		}

		for _, tile := range terrain.SplitTiles(g) {
			if err := write(tile); err != nil {
				return err
			}
			fmt.Printf("%s: %d x %d samples\n", terrain.TileName(tile.West, tile.South),
				tile.NCols, tile.NRows)
			nTiles++
			nSamples += len(tile.Heights)
		}
	}

	fmt.Printf("wrote %d tiles, %s samples\n", nTiles, humanize.Comma(int64(nSamples)))
	return nil
}

func info(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: demtool info <tiles-dir | tiles.db>")
	}

	t, err := openTiles(args[0])
	if err != nil {
		return err
	}
	defer t.close()

	for _, name := range t.names {
		fmt.Printf("%s\n", name)
	}
	fmt.Printf("%d tiles\n", len(t.names))
	return nil
}

func sample(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: demtool sample <tiles-dir | tiles.db> <lon> <lat>")
	}
	lon, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("longitude %q: %w", args[1], err)
	}
	lat, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("latitude %q: %w", args[2], err)
	}

	t, err := openTiles(args[0])
	if err != nil {
		return err
	}
	defer t.close()

	h, err := t.provider.HeightAt(lon, lat)
	if err != nil {
		return err
	}
	fmt.Printf("%.2f\n", h)
	return nil
}

type tiles struct {
	provider terrain.Provider
	names    []string
	close    func() error
}

// openTiles opens a directory of tile files or a SQLite tile database,
// depending on what the path names.
func openTiles(path string) (*tiles, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if st.IsDir() {
		ts, err := terrain.OpenTileSet(path, nil)
		if err != nil {
			return nil, err
		}
		return &tiles{provider: ts, names: ts.TileNames(), close: func() error { return nil }}, nil
	}

	store, err := terrain.OpenSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	names, err := store.TileNames()
	if err != nil {
		store.Close()
		return nil, err
	}
	return &tiles{provider: store, names: names, close: store.Close}, nil
}
