// terrain/sqlite.go
// Copyright(c) 2025-2026 cesium-flight-simulator contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package terrain

import (
	"bytes"
	"database/sql"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps encoded terrain tiles in a single SQLite database,
// which travels better than a directory of loose files when elevation
// data ships with an application. Tiles use the same msgpack+zstd
// encoding as TileSet files and the same expiring cache in front.
type SQLiteStore struct {
	db    *sql.DB
	cache *expirable.LRU[string, *Grid]
}

func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tiles (
			name TEXT PRIMARY KEY,
			data BLOB NOT NULL
		)`); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{
		db:    db,
		cache: expirable.NewLRU[string, *Grid](64, nil, 15*time.Minute),
	}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// WriteTile stores the grid under the tile name of its southwest corner,
// replacing any previous tile there.
func (s *SQLiteStore) WriteTile(g *Grid) error {
	var buf bytes.Buffer
	if err := EncodeTile(&buf, g); err != nil {
		return err
	}

	name := TileName(g.West, g.South)
	_, err := s.db.Exec(`INSERT OR REPLACE INTO tiles (name, data) VALUES (?, ?)`,
		name, buf.Bytes())
	if err == nil {
		s.cache.Remove(name)
	}
	return err
}

// TileNames returns the names of the stored tiles, sorted.
func (s *SQLiteStore) TileNames() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM tiles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// HeightAt implements Provider.
func (s *SQLiteStore) HeightAt(lon, lat float64) (float64, error) {
	name := TileName(lon, lat)

	g, ok := s.cache.Get(name)
	if !ok {
		var data []byte
		err := s.db.QueryRow(`SELECT data FROM tiles WHERE name = ?`, name).Scan(&data)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNoData
		} else if err != nil {
			return 0, err
		}

		if g, err = DecodeTile(bytes.NewReader(data)); err != nil {
			return 0, err
		}
		s.cache.Add(name, g)
	}
	return g.HeightAt(lon, lat)
}
